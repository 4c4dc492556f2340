package userdir

import (
	"context"
	"sync"
)

// MemoryDirectory is an in-process Directory used by tests.
type MemoryDirectory struct {
	mu     sync.Mutex
	users  map[int64]map[string]string
	slugs  map[string]int64
	names  map[string]int64
	admins map[int64]bool
}

// NewMemoryDirectory creates an empty in-memory directory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		users:  make(map[int64]map[string]string),
		slugs:  make(map[string]int64),
		names:  make(map[string]int64),
		admins: make(map[int64]bool),
	}
}

// AddUser registers a user with the given profile fields. Test hook.
func (d *MemoryDirectory) AddUser(uid int64, fields map[string]string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	u := make(map[string]string, len(fields))
	for k, v := range fields {
		u[k] = v
	}
	d.users[uid] = u
	if slug, ok := fields[FieldUserslug]; ok {
		d.slugs[slug] = uid
	}
	if name, ok := fields[FieldUsername]; ok {
		d.names[name] = uid
	}
}

// SetAdmin marks the uid as an administrator. Test hook.
func (d *MemoryDirectory) SetAdmin(uid int64, admin bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.admins[uid] = admin
}

func (d *MemoryDirectory) Exists(ctx context.Context, uid int64) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.users[uid]
	return ok, nil
}

func (d *MemoryDirectory) IsAdministrator(ctx context.Context, uid int64) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.admins[uid], nil
}

func (d *MemoryDirectory) GetUserFields(ctx context.Context, uid int64, fields []string) (map[string]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		if v, ok := d.users[uid][f]; ok {
			out[f] = v
		}
	}
	return out, nil
}

func (d *MemoryDirectory) SetUserFields(ctx context.Context, uid int64, fields map[string]string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.users[uid]
	if !ok {
		u = make(map[string]string)
		d.users[uid] = u
	}
	for k, v := range fields {
		u[k] = v
	}
	return nil
}

func (d *MemoryDirectory) GetUIDBySlug(ctx context.Context, slug string) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.slugs[slug], nil
}

func (d *MemoryDirectory) GetUIDByUsername(ctx context.Context, name string) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.names[name], nil
}
