package service

import (
	"context"
	"sync"
	"time"

	"streetrelay/internal/entity"

	"github.com/google/uuid"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{t: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type memUserRepo struct {
	mu sync.Mutex
	m  map[string]*entity.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{m: make(map[string]*entity.User)}
}

func (r *memUserRepo) Create(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *user
	r.m[user.ID] = &copied
	return nil
}

func (r *memUserRepo) FindByID(ctx context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.m[id]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, nil
}

func (r *memUserRepo) FindByLogin(ctx context.Context, usernameOrEmail string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.m {
		if user.ID == usernameOrEmail || (user.Email == usernameOrEmail && user.EmailVerified) {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) FindByVerifiedEmail(ctx context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.m {
		if user.Email == email && user.EmailVerified {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) Update(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *user
	r.m[user.ID] = &copied
	return nil
}

func (r *memUserRepo) VerifyEmail(ctx context.Context, userID string, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.m[userID]; ok {
		user.Email = email
		user.EmailVerified = true
	}
	return nil
}

type memSessionRepo struct {
	mu sync.Mutex
	m  map[uuid.UUID]*entity.Session
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{m: make(map[uuid.UUID]*entity.Session)}
}

func (r *memSessionRepo) Create(ctx context.Context, session *entity.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *session
	r.m[session.ID] = &copied
	return nil
}

func (r *memSessionRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session, ok := r.m[id]; ok {
		copied := *session
		return &copied, nil
	}
	return nil, nil
}

func (r *memSessionRepo) ListByUser(ctx context.Context, userID string) ([]entity.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sessions []entity.Session
	for _, session := range r.m {
		if session.UserID == userID {
			sessions = append(sessions, *session)
		}
	}
	return sessions, nil
}

func (r *memSessionRepo) Touch(ctx context.Context, id uuid.UUID, lastLogin time.Time, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session, ok := r.m[id]; ok {
		session.LastLogin = lastLogin
		session.ExpiresAt = expiresAt
	}
	return nil
}

func (r *memSessionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.m, id)
	return nil
}

func (r *memSessionRepo) DeleteAllByUser(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, session := range r.m {
		if session.UserID == userID {
			delete(r.m, id)
		}
	}
	return nil
}

func (r *memSessionRepo) DeleteExpired(ctx context.Context) error {
	return nil
}

func (r *memSessionRepo) setLastLogin(id uuid.UUID, t time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session, ok := r.m[id]; ok {
		session.LastLogin = t
	}
}

func (r *memSessionRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.m)
}

type memConsoleRepo struct {
	mu sync.Mutex
	m  map[uuid.UUID]*entity.Console
}

func newMemConsoleRepo() *memConsoleRepo {
	return &memConsoleRepo{m: make(map[uuid.UUID]*entity.Console)}
}

func (r *memConsoleRepo) Create(ctx context.Context, console *entity.Console) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *console
	r.m[console.ID] = &copied
	return nil
}

func (r *memConsoleRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Console, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if console, ok := r.m[id]; ok {
		copied := *console
		return &copied, nil
	}
	return nil, nil
}

func (r *memConsoleRepo) FindByUser(ctx context.Context, userID string) (*entity.Console, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, console := range r.m {
		if console.UserID == userID {
			copied := *console
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *memConsoleRepo) AdvanceMarker(ctx context.Context, id uuid.UUID, expected time.Time, next time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	console, ok := r.m[id]
	if !ok || console.TokenIssuedAt.Unix() != expected.Unix() {
		return false, nil
	}
	console.TokenIssuedAt = next
	return true, nil
}

func (r *memConsoleRepo) UpdateDeviceName(ctx context.Context, id uuid.UUID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if console, ok := r.m[id]; ok {
		console.DeviceName = name
	}
	return nil
}

func (r *memConsoleRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.m, id)
	return nil
}

type memSecurityLogRepo struct {
	mu   sync.Mutex
	logs []entity.SecurityLog
}

func newMemSecurityLogRepo() *memSecurityLogRepo {
	return &memSecurityLogRepo{}
}

func (r *memSecurityLogRepo) Log(ctx context.Context, log *entity.SecurityLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, *log)
	return nil
}
