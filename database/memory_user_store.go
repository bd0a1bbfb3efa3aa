package database

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/princinho/natours/models"
	"github.com/princinho/natours/utils"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// MemoryUserStore keeps users in process memory with the same lookup rules
// as UserStore.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[bson.ObjectID]*models.User
	now   func() time.Time
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[bson.ObjectID]*models.User), now: time.Now}
}

// WithClock replaces the time source used for timestamps.
func (s *MemoryUserStore) WithClock(now func() time.Time) *MemoryUserStore {
	s.now = now
	return s
}

func cloneUser(u *models.User) *models.User {
	cp := *u
	if u.PasswordChangedAt != nil {
		t := *u.PasswordChangedAt
		cp.PasswordChangedAt = &t
	}
	if u.PasswordResetToken != nil {
		h := *u.PasswordResetToken
		cp.PasswordResetToken = &h
	}
	if u.PasswordResetExpires != nil {
		t := *u.PasswordResetExpires
		cp.PasswordResetExpires = &t
	}
	return &cp
}

func (s *MemoryUserStore) first(match func(*models.User) bool) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Active && match(u) {
			return cloneUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	email = utils.NormalizeEmail(email)
	return s.first(func(u *models.User) bool { return u.Email == email })
}

func (s *MemoryUserStore) FindByID(_ context.Context, id string) (*models.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return s.first(func(u *models.User) bool { return u.ID == oid })
}

func (s *MemoryUserStore) FindByResetToken(_ context.Context, tokenHash string, now time.Time) (*models.User, error) {
	return s.first(func(u *models.User) bool {
		return u.PasswordResetToken != nil && *u.PasswordResetToken == tokenHash && u.HasPendingReset(now)
	})
}

func (s *MemoryUserStore) FindAll(_ context.Context) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		if u.Active {
			out = append(out, cloneUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryUserStore) Create(_ context.Context, u *models.User) error {
	prepareNew(u, s.now())
	if err := ValidateUser(u); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.emailTaken(u.Email, u.ID) {
		return fmt.Errorf("%w: %s", ErrDuplicateEmail, u.Email)
	}
	s.users[u.ID] = cloneUser(u)
	return nil
}

func (s *MemoryUserStore) Save(_ context.Context, u *models.User, opts SaveOptions) error {
	u.Email = utils.NormalizeEmail(u.Email)
	if opts.Validate {
		if err := ValidateUser(u); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		return ErrNotFound
	}
	if s.emailTaken(u.Email, u.ID) {
		return fmt.Errorf("%w: %s", ErrDuplicateEmail, u.Email)
	}
	u.UpdatedAt = s.now().UTC()
	s.users[u.ID] = cloneUser(u)
	return nil
}

// Get returns the stored user regardless of its active flag.
func (s *MemoryUserStore) Get(id bson.ObjectID) (*models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, false
	}
	return cloneUser(u), true
}

// emailTaken must be called with mu held. The unique index in mongo covers
// inactive users too.
func (s *MemoryUserStore) emailTaken(email string, except bson.ObjectID) bool {
	for id, other := range s.users {
		if id != except && other.Email == email {
			return true
		}
	}
	return false
}
