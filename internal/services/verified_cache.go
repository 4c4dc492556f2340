package services

import (
	"context"
	"strconv"
	"time"

	"github.com/forumhub/phone-verification/internal/store"
	"github.com/forumhub/phone-verification/internal/utils"
)

// VerifiedPhoneCache bridges the gap between code verification and
// account creation: a short-lived marker proves the phone was verified
// before any account exists to bind it to. Expiry is delegated entirely
// to the store TTL.
type VerifiedPhoneCache struct {
	store store.Store
	ttl   time.Duration
	now   func() time.Time
}

// NewVerifiedPhoneCache creates a cache whose markers live for ttl.
func NewVerifiedPhoneCache(st store.Store, ttl time.Duration) *VerifiedPhoneCache {
	return &VerifiedPhoneCache{store: st, ttl: ttl, now: time.Now}
}

// MarkVerified records that the phone passed code verification.
func (c *VerifiedPhoneCache) MarkVerified(ctx context.Context, phone string) error {
	key := verifiedKeyPrefix + utils.NormalizePhone(phone)
	return c.store.Set(ctx, key, strconv.FormatInt(c.now().UnixMilli(), 10), c.ttl)
}

// IsVerified reports whether an unexpired marker exists for the phone.
func (c *VerifiedPhoneCache) IsVerified(ctx context.Context, phone string) (bool, error) {
	key := verifiedKeyPrefix + utils.NormalizePhone(phone)
	_, err := c.store.Get(ctx, key)
	if err == store.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Clear consumes the marker once it has been exchanged for a binding.
func (c *VerifiedPhoneCache) Clear(ctx context.Context, phone string) error {
	return c.store.Delete(ctx, verifiedKeyPrefix+utils.NormalizePhone(phone))
}
