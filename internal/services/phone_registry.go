package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/forumhub/phone-verification/internal/logging"
	"github.com/forumhub/phone-verification/internal/models"
	"github.com/forumhub/phone-verification/internal/observability"
	"github.com/forumhub/phone-verification/internal/store"
	"github.com/forumhub/phone-verification/internal/userdir"
	"github.com/forumhub/phone-verification/internal/utils"
	"go.uber.org/zap"
)

// PhoneRegistry enforces the phone-uniqueness constraint: at most one
// uid per phone and one indexed phone per uid. The user profile is the
// source of truth; the phone index is the derived uniqueness constraint.
//
// The check-then-bind sequence is not atomic against the store, so two
// concurrent binds of the same phone can race. The store's single-key
// operations keep each index consistent; the window is accepted and
// documented rather than papered over.
type PhoneRegistry struct {
	store  store.Store
	users  userdir.Directory
	logger *logging.SafeLogger
	now    func() time.Time
}

// NewPhoneRegistry creates a registry over the given store and user
// directory.
func NewPhoneRegistry(st store.Store, users userdir.Directory, logger *logging.SafeLogger) *PhoneRegistry {
	return &PhoneRegistry{store: st, users: users, logger: logger, now: time.Now}
}

// Exists reports whether the phone is bound to any user.
func (r *PhoneRegistry) Exists(ctx context.Context, phone string) (bool, error) {
	_, ok, err := r.store.SortedSetScore(ctx, phoneIndexKey, utils.NormalizePhone(phone))
	return ok, err
}

// FindOwner returns the uid bound to the phone, if any.
func (r *PhoneRegistry) FindOwner(ctx context.Context, phone string) (int64, bool, error) {
	score, ok, err := r.store.SortedSetScore(ctx, phoneIndexKey, utils.NormalizePhone(phone))
	if err != nil || !ok {
		return 0, false, err
	}
	return int64(score), true, nil
}

// GetUserPhone returns the uid's phone state, or nil when the user has
// neither a phone nor a verification flag.
func (r *PhoneRegistry) GetUserPhone(ctx context.Context, uid int64) (*models.UserPhone, error) {
	fields, err := r.users.GetUserFields(ctx, uid, []string{
		userdir.FieldPhoneNumber, userdir.FieldPhoneVerified, userdir.FieldPhoneVerifiedAt,
	})
	if err != nil {
		return nil, err
	}
	verified := fields[userdir.FieldPhoneVerified] == "1"
	if fields[userdir.FieldPhoneNumber] == "" && !verified {
		return nil, nil
	}
	verifiedAt, _ := strconv.ParseInt(fields[userdir.FieldPhoneVerifiedAt], 10, 64)
	return &models.UserPhone{
		Phone:           fields[userdir.FieldPhoneNumber],
		PhoneVerified:   verified,
		PhoneVerifiedAt: verifiedAt,
	}, nil
}

// Bind associates a phone with a uid. An empty phone records admin
// manual verification without occupying a phone slot. Binding a phone
// owned by someone else fails with PHONE_EXISTS unless forceOverride,
// which revokes the previous owner first (admin path only).
func (r *PhoneRegistry) Bind(ctx context.Context, uid int64, phone string, verified, forceOverride bool) (models.Result, error) {
	normalized := utils.NormalizePhone(phone)
	now := r.now().UnixMilli()

	if normalized != "" {
		owner, bound, err := r.FindOwner(ctx, normalized)
		if err != nil {
			return models.Fail(models.ErrCodeDBError, "A system error occurred"), err
		}
		if bound && owner != uid {
			if !forceOverride {
				return models.Fail(models.ErrCodePhoneExists, "Phone number is already registered"), nil
			}
			if err := r.revoke(ctx, owner, normalized); err != nil {
				return models.Fail(models.ErrCodeDBError, "A system error occurred"), err
			}
			r.logger.Warn("phone binding overridden",
				zap.Int64("previous_uid", owner),
				zap.Int64("uid", uid),
				zap.String("phone", observability.MaskPhone(normalized)))
		}
	}

	// Drop the uid's previous phone from the uniqueness index so a user
	// never occupies two slots.
	if err := r.releaseIndexEntry(ctx, uid, normalized); err != nil {
		return models.Fail(models.ErrCodeDBError, "A system error occurred"), err
	}

	fields := map[string]string{
		userdir.FieldPhoneNumber:     normalized,
		userdir.FieldPhoneVerified:   "0",
		userdir.FieldPhoneVerifiedAt: "0",
	}
	if verified {
		fields[userdir.FieldPhoneVerified] = "1"
		fields[userdir.FieldPhoneVerifiedAt] = strconv.FormatInt(now, 10)
	}
	if err := r.users.SetUserFields(ctx, uid, fields); err != nil {
		return models.Fail(models.ErrCodeDBError, "A system error occurred"), err
	}

	if normalized != "" {
		if err := r.store.SortedSetAdd(ctx, phoneIndexKey, float64(uid), normalized); err != nil {
			return models.Fail(models.ErrCodeDBError, "A system error occurred"), err
		}
	}
	// Users verified without a phone stay listable.
	if err := r.store.SortedSetAdd(ctx, listingIndexKey, float64(now), strconv.FormatInt(uid, 10)); err != nil {
		return models.Fail(models.ErrCodeDBError, "A system error occurred"), err
	}
	return models.Ok(), nil
}

// releaseIndexEntry removes the uid's current phone from the uniqueness
// index when it differs from keep.
func (r *PhoneRegistry) releaseIndexEntry(ctx context.Context, uid int64, keep string) error {
	existing, err := r.GetUserPhone(ctx, uid)
	if err != nil {
		return err
	}
	if existing == nil || existing.Phone == "" || existing.Phone == keep {
		return nil
	}
	return r.store.SortedSetRemove(ctx, phoneIndexKey, existing.Phone)
}

// revoke strips a phone binding from its current owner.
func (r *PhoneRegistry) revoke(ctx context.Context, uid int64, phone string) error {
	if err := r.store.SortedSetRemove(ctx, phoneIndexKey, phone); err != nil {
		return err
	}
	if err := r.store.SortedSetRemove(ctx, listingIndexKey, strconv.FormatInt(uid, 10)); err != nil {
		return err
	}
	return r.users.SetUserFields(ctx, uid, map[string]string{
		userdir.FieldPhoneNumber:     "",
		userdir.FieldPhoneVerified:   "0",
		userdir.FieldPhoneVerifiedAt: "0",
	})
}

// SetVerified flips the uid's verified flag without touching the bound
// phone. Admin force-verify/unverify path.
func (r *PhoneRegistry) SetVerified(ctx context.Context, uid int64, verified bool) error {
	fields := map[string]string{
		userdir.FieldPhoneVerified:   "0",
		userdir.FieldPhoneVerifiedAt: "0",
	}
	if verified {
		fields[userdir.FieldPhoneVerified] = "1"
		fields[userdir.FieldPhoneVerifiedAt] = strconv.FormatInt(r.now().UnixMilli(), 10)
	}
	if err := r.users.SetUserFields(ctx, uid, fields); err != nil {
		return err
	}
	return r.store.SortedSetAdd(ctx, listingIndexKey, float64(r.now().UnixMilli()), strconv.FormatInt(uid, 10))
}

// Release removes the uid's phone from both indices and clears the
// profile fields. Idempotent; used on account deletion and explicit
// phone removal.
func (r *PhoneRegistry) Release(ctx context.Context, uid int64) error {
	existing, err := r.GetUserPhone(ctx, uid)
	if err != nil {
		return err
	}
	if existing != nil && existing.Phone != "" {
		if err := r.store.SortedSetRemove(ctx, phoneIndexKey, existing.Phone); err != nil {
			return err
		}
		// Any pending pre-registration marker dies with the binding.
		if err := r.store.Delete(ctx, verifiedKeyPrefix+existing.Phone); err != nil {
			return err
		}
	}
	if err := r.store.SortedSetRemove(ctx, listingIndexKey, strconv.FormatInt(uid, 10)); err != nil {
		return err
	}
	if existing == nil {
		return nil
	}
	return r.users.SetUserFields(ctx, uid, map[string]string{
		userdir.FieldPhoneNumber:     "",
		userdir.FieldPhoneVerified:   "0",
		userdir.FieldPhoneVerifiedAt: "0",
	})
}

// List returns a page of users with phone-verification records, most
// recently touched first.
func (r *PhoneRegistry) List(ctx context.Context, start, stop int64) (*models.PhoneList, error) {
	total, err := r.store.SortedSetCard(ctx, listingIndexKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read listing index: %w", err)
	}
	members, err := r.store.SortedSetRevRange(ctx, listingIndexKey, start, stop)
	if err != nil {
		return nil, fmt.Errorf("failed to read listing index: %w", err)
	}

	list := &models.PhoneList{Users: []models.PhoneListEntry{}, Total: total}
	for _, m := range members {
		uid, err := strconv.ParseInt(m.Member, 10, 64)
		if err != nil {
			continue
		}
		fields, err := r.users.GetUserFields(ctx, uid, []string{
			userdir.FieldUsername, userdir.FieldPhoneNumber,
			userdir.FieldPhoneVerified, userdir.FieldPhoneVerifiedAt,
		})
		if err != nil {
			return nil, err
		}
		verifiedAt, _ := strconv.ParseInt(fields[userdir.FieldPhoneVerifiedAt], 10, 64)
		list.Users = append(list.Users, models.PhoneListEntry{
			UID:             uid,
			Username:        fields[userdir.FieldUsername],
			Phone:           fields[userdir.FieldPhoneNumber],
			PhoneVerified:   fields[userdir.FieldPhoneVerified] == "1",
			PhoneVerifiedAt: verifiedAt,
		})
	}
	return list, nil
}
