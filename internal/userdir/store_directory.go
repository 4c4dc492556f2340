package userdir

import (
	"context"
	"fmt"
	"strconv"

	"github.com/forumhub/phone-verification/internal/store"
)

// Host key layout: one hash per user plus slug/name lookup indices
// scored by uid.
const (
	userKeyPrefix = "user:"
	slugIndexKey  = "userslug:uid"
	nameIndexKey  = "username:uid"
	adminSetKey   = "group:administrators:members"
)

// StoreDirectory reads the host forum's user records straight from the
// shared store. It is a read-mostly adapter; the host remains the owner
// of these keys.
type StoreDirectory struct {
	store store.Store
}

// NewStoreDirectory creates a store-backed directory.
func NewStoreDirectory(st store.Store) *StoreDirectory {
	return &StoreDirectory{store: st}
}

func userKey(uid int64) string {
	return userKeyPrefix + strconv.FormatInt(uid, 10)
}

func (d *StoreDirectory) Exists(ctx context.Context, uid int64) (bool, error) {
	return d.store.Exists(ctx, userKey(uid))
}

func (d *StoreDirectory) IsAdministrator(ctx context.Context, uid int64) (bool, error) {
	_, ok, err := d.store.SortedSetScore(ctx, adminSetKey, strconv.FormatInt(uid, 10))
	if err != nil {
		return false, fmt.Errorf("failed to check admin membership: %w", err)
	}
	return ok, nil
}

func (d *StoreDirectory) GetUserFields(ctx context.Context, uid int64, fields []string) (map[string]string, error) {
	all, err := d.store.GetObject(ctx, userKey(uid))
	if err != nil {
		return nil, fmt.Errorf("failed to read user %d: %w", uid, err)
	}
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		if v, ok := all[f]; ok {
			out[f] = v
		}
	}
	return out, nil
}

func (d *StoreDirectory) SetUserFields(ctx context.Context, uid int64, fields map[string]string) error {
	if err := d.store.SetObject(ctx, userKey(uid), fields); err != nil {
		return fmt.Errorf("failed to update user %d: %w", uid, err)
	}
	return nil
}

func (d *StoreDirectory) GetUIDBySlug(ctx context.Context, slug string) (int64, error) {
	score, ok, err := d.store.SortedSetScore(ctx, slugIndexKey, slug)
	if err != nil || !ok {
		return 0, err
	}
	return int64(score), nil
}

func (d *StoreDirectory) GetUIDByUsername(ctx context.Context, name string) (int64, error) {
	score, ok, err := d.store.SortedSetScore(ctx, nameIndexKey, name)
	if err != nil || !ok {
		return 0, err
	}
	return int64(score), nil
}
