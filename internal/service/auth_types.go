package service

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// AuthConfig carries the tunable policy thresholds. Zero values fall back to
// the defaults the accessors return.
type AuthConfig struct {
	SessionFreshWindow  time.Duration
	SessionCeiling      time.Duration
	ConsoleAccessWindow time.Duration
	ConsoleCeiling      time.Duration
	EmailVerifyTTL      time.Duration
	PasswordResetTTL    time.Duration
	StoreTimeout        time.Duration
}

func (c AuthConfig) sessionFreshWindow() time.Duration {
	if c.SessionFreshWindow > 0 {
		return c.SessionFreshWindow
	}
	return 24 * time.Hour
}

func (c AuthConfig) sessionCeiling() time.Duration {
	if c.SessionCeiling > 0 {
		return c.SessionCeiling
	}
	return 30 * 24 * time.Hour
}

func (c AuthConfig) consoleAccessWindow() time.Duration {
	if c.ConsoleAccessWindow > 0 {
		return c.ConsoleAccessWindow
	}
	return 5 * time.Minute
}

func (c AuthConfig) consoleCeiling() time.Duration {
	if c.ConsoleCeiling > 0 {
		return c.ConsoleCeiling
	}
	return 14 * 24 * time.Hour
}

func (c AuthConfig) emailVerifyTTL() time.Duration {
	if c.EmailVerifyTTL > 0 {
		return c.EmailVerifyTTL
	}
	return 10 * time.Minute
}

func (c AuthConfig) passwordResetTTL() time.Duration {
	if c.PasswordResetTTL > 0 {
		return c.PasswordResetTTL
	}
	return 5 * time.Minute
}

// storeContext bounds a store call so a hung database surfaces as a request
// failure instead of blocking verification indefinitely.
func (c AuthConfig) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := c.StoreTimeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}

type EmailSender interface {
	SendVerificationEmail(ctx context.Context, email string, token string) error
	SendPasswordResetEmail(ctx context.Context, email string, token string) error
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash string, password string) bool
}

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

type BcryptPasswordHasher struct {
	Cost int
}

func (h BcryptPasswordHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func (h BcryptPasswordHasher) Verify(hash string, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
