// Package memory is an in-process user store for development and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/oksasatya/go-user-management/internal/domain/entity"
	"github.com/oksasatya/go-user-management/internal/domain/repository"
)

// UserRepository keeps records in two go-cache tables: id -> record and email -> id.
// The email table's Add doubles as the uniqueness constraint.
type UserRepository struct {
	mu     sync.Mutex // serializes read-modify-write updates
	byID   *cache.Cache
	emails *cache.Cache
	now    func() time.Time
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:   cache.New(cache.NoExpiration, 0),
		emails: cache.New(cache.NoExpiration, 0),
		now:    time.Now,
	}
}

func (r *UserRepository) Insert(ctx context.Context, u *entity.User) (*entity.User, error) {
	if err := r.emails.Add(u.Email, u.ID, cache.NoExpiration); err != nil {
		return nil, repository.ErrDuplicateEmail
	}
	rec := *u
	now := r.now().UTC()
	rec.CreatedAt, rec.UpdatedAt = now, now
	r.byID.Set(rec.ID, rec, cache.NoExpiration)
	out := rec
	return &out, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	v, ok := r.byID.Get(id)
	if !ok {
		return nil, repository.ErrNotFound
	}
	u := v.(entity.User)
	return &u, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	id, ok := r.emails.Get(email)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.FindByID(ctx, id.(string))
}

func (r *UserRepository) ListAll(ctx context.Context) ([]entity.User, error) {
	items := r.byID.Items()
	out := make([]entity.User, 0, len(items))
	for _, it := range items {
		u := it.Object.(entity.User)
		u.Password = ""
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *UserRepository) Update(ctx context.Context, id string, patch repository.UserPatch) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.byID.Get(id)
	if !ok {
		return nil, repository.ErrNotFound
	}
	u := v.(entity.User)
	if patch.IsActive != nil {
		u.IsActive = *patch.IsActive
	}
	u.UpdatedAt = r.now().UTC()
	r.byID.Set(id, u, cache.NoExpiration)
	return &u, nil
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	return int64(r.byID.ItemCount()), nil
}

func (r *UserRepository) DeleteAll(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := int64(r.byID.ItemCount())
	r.byID.Flush()
	r.emails.Flush()
	return n, nil
}

func (r *UserRepository) Ping(ctx context.Context) error { return nil }

var _ repository.Store = (*UserRepository)(nil)
