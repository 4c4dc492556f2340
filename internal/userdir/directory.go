package userdir

import (
	"context"
)

// Field names the verification subsystem reads and writes on host user
// records.
const (
	FieldPhoneNumber     = "phoneNumber"
	FieldPhoneVerified   = "phoneVerified"
	FieldPhoneVerifiedAt = "phoneVerifiedAt"
	FieldShowPhone       = "showPhone"
	FieldUsername        = "username"
	FieldUserslug        = "userslug"
)

// Directory is the fixed capability contract the core holds on the host
// user directory. No runtime feature probing: hosts implement all of it.
type Directory interface {
	// Exists reports whether the uid refers to a known user.
	Exists(ctx context.Context, uid int64) (bool, error)

	// IsAdministrator reports whether the uid holds the admin role.
	IsAdministrator(ctx context.Context, uid int64) (bool, error)

	// GetUserFields returns the requested profile fields. Unset fields
	// are absent from the result.
	GetUserFields(ctx context.Context, uid int64, fields []string) (map[string]string, error)

	// SetUserFields upserts profile fields.
	SetUserFields(ctx context.Context, uid int64, fields map[string]string) error

	// GetUIDBySlug resolves a user slug; returns 0 when unknown.
	GetUIDBySlug(ctx context.Context, slug string) (int64, error)

	// GetUIDByUsername resolves a username; returns 0 when unknown.
	GetUIDByUsername(ctx context.Context, name string) (int64, error)
}
