package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"streetrelay/internal/entity"
	"streetrelay/internal/repository"
	"streetrelay/internal/token"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccountService covers the account flows that ride on short-lived signed
// tokens rather than session records: email verification and password reset,
// plus the profile reads and writes behind them.
type AccountService struct {
	users        repository.UserRepository
	sessions     repository.SessionRepository
	consoles     repository.ConsoleRepository
	securityLogs repository.SecurityLogRepository

	codec        *token.Codec
	passwordHash PasswordHasher
	emailSender  EmailSender
	clock        Clock
	config       AuthConfig
}

func NewAccountService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	consoles repository.ConsoleRepository,
	securityLogs repository.SecurityLogRepository,
	codec *token.Codec,
	passwordHash PasswordHasher,
	emailSender EmailSender,
	clock Clock,
	config AuthConfig,
) *AccountService {
	return &AccountService{
		users:        users,
		sessions:     sessions,
		consoles:     consoles,
		securityLogs: securityLogs,
		codec:        codec,
		passwordHash: passwordHash,
		emailSender:  emailSender,
		clock:        clock,
		config:       config,
	}
}

// VerifyEmail redeems an email verification token and returns the verified
// address.
func (s *AccountService) VerifyEmail(ctx context.Context, raw string) (string, error) {
	if raw == "" {
		return "", ErrNoToken
	}
	claims, err := s.codec.Verify(raw, token.PurposeEmailVerify, 0, "sub", "exp", "email")
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			return "", ErrExpiredToken
		}
		return "", ErrInvalidToken
	}

	storeCtx, cancel := s.config.storeContext(ctx)
	defer cancel()
	user, err := s.users.FindByID(storeCtx, claims.Subject)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrUserNotFound
	}
	if err := s.users.VerifyEmail(storeCtx, user.ID, claims.Email); err != nil {
		return "", err
	}
	return claims.Email, nil
}

// RequestPasswordReset mails a reset token to the address when it belongs to
// a verified user. It deliberately reports nothing about whether it did.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return ErrInvalidInput
	}

	storeCtx, cancel := s.config.storeContext(ctx)
	defer cancel()
	user, err := s.users.FindByVerifiedEmail(storeCtx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}

	signed, err := s.codec.Issue(token.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(s.now().Add(s.config.passwordResetTTL())),
		},
	}, token.PurposePasswordReset)
	if err != nil {
		return err
	}
	if s.emailSender == nil {
		return nil
	}
	if err := s.emailSender.SendPasswordResetEmail(ctx, user.Email, signed); err != nil {
		return err
	}
	_ = recordSecurity(ctx, s.securityLogs, &user.ID, nil, entity.Reset, map[string]any{"stage": "requested"})
	return nil
}

// ResetPassword redeems a reset token and replaces the password. Every
// session dies with the old password.
func (s *AccountService) ResetPassword(ctx context.Context, raw string, newPassword string) error {
	if raw == "" {
		return ErrNoToken
	}
	claims, err := s.codec.Verify(raw, token.PurposePasswordReset, 0, "sub", "exp")
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			return ErrExpiredToken
		}
		return ErrInvalidToken
	}
	if !passwordMeetsRequirements(newPassword) {
		return ErrWeakPassword
	}

	storeCtx, cancel := s.config.storeContext(ctx)
	defer cancel()
	user, err := s.users.FindByID(storeCtx, claims.Subject)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	hash, err := s.passwordHash.Hash(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if err := s.users.Update(storeCtx, user); err != nil {
		return err
	}

	_ = s.sessions.DeleteAllByUser(storeCtx, user.ID)
	_ = recordSecurity(ctx, s.securityLogs, &user.ID, nil, entity.Reset, map[string]any{"stage": "completed"})
	return nil
}

func (s *AccountService) CurrentUser(ctx context.Context, userID string) (*entity.User, error) {
	storeCtx, cancel := s.config.storeContext(ctx)
	defer cancel()
	user, err := s.users.FindByID(storeCtx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// UpdateProfile is the console-facing profile write: nickname on the user,
// device name on the console record.
func (s *AccountService) UpdateProfile(ctx context.Context, auth ConsoleAuth, nickname string, deviceName string) error {
	storeCtx, cancel := s.config.storeContext(ctx)
	defer cancel()
	user, err := s.users.FindByID(storeCtx, auth.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	if nickname != "" {
		user.Nickname = nickname
		if err := s.users.Update(storeCtx, user); err != nil {
			return err
		}
	}
	if deviceName != "" && auth.ConsoleID != uuid.Nil {
		if err := s.consoles.UpdateDeviceName(storeCtx, auth.ConsoleID, deviceName); err != nil {
			return err
		}
	}
	return nil
}

func (s *AccountService) now() time.Time {
	if s.clock == nil {
		return time.Now()
	}
	return s.clock.Now()
}
