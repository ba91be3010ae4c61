package service

import (
	"context"
	"errors"
	"time"

	"streetrelay/internal/entity"
	"streetrelay/internal/repository"
	"streetrelay/internal/token"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ConsoleAuth is the result of verifying a console access token. Stale means
// the token outlived the short access window but not the refresh ceiling: the
// caller should refresh before doing privileged work, not treat it as a
// rejection.
type ConsoleAuth struct {
	UserID    string
	ConsoleID uuid.UUID
	Stale     bool
}

// TokenPair is one access/refresh issue. Both tokens carry the same iat,
// which equals the console's rotation marker at mint time.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	IssuedAt     time.Time
}

type PairResult struct {
	Console *entity.Console
	Tokens  TokenPair
}

// ConsoleService issues and rotates console credentials. The console record's
// TokenIssuedAt is the single outstanding marker; every verification requires
// an exact match between it and the token's iat, and a successful refresh
// advances it, invalidating all previously issued tokens for the console.
type ConsoleService struct {
	consoles     repository.ConsoleRepository
	securityLogs repository.SecurityLogRepository

	codec  *token.Codec
	clock  Clock
	config AuthConfig
}

func NewConsoleService(
	consoles repository.ConsoleRepository,
	securityLogs repository.SecurityLogRepository,
	codec *token.Codec,
	clock Clock,
	config AuthConfig,
) *ConsoleService {
	return &ConsoleService{
		consoles:     consoles,
		securityLogs: securityLogs,
		codec:        codec,
		clock:        clock,
		config:       config,
	}
}

// Pair registers the user's console and mints its first token pair. One
// console per user; repeat pairing is rejected until the old one is unlinked.
func (s *ConsoleService) Pair(ctx context.Context, userID string, deviceName string, ipAddress *string) (*PairResult, error) {
	storeCtx, cancel := s.config.storeContext(ctx)
	defer cancel()

	existing, err := s.consoles.FindByUser(storeCtx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrConsoleAlreadyPaired
	}

	issuedAt := s.now().Truncate(time.Second)
	console := &entity.Console{
		ID:            uuid.New(),
		UserID:        userID,
		DeviceName:    deviceName,
		TokenIssuedAt: issuedAt,
	}
	if err := s.consoles.Create(storeCtx, console); err != nil {
		return nil, err
	}

	pair, err := s.issuePair(userID, console.ID, issuedAt)
	if err != nil {
		return nil, err
	}
	_ = recordSecurity(ctx, s.securityLogs, &userID, ipAddress, entity.ConsolePaired, map[string]any{"console": console.ID.String()})
	return &PairResult{Console: console, Tokens: pair}, nil
}

// VerifyAccessToken authenticates a bearer access token. The refresh ceiling
// bounds its absolute lifetime; within that, the marker must match exactly
// and staleness is reported past the short access window.
func (s *ConsoleService) VerifyAccessToken(ctx context.Context, raw string) (ConsoleAuth, error) {
	claims, consoleID, err := s.verifyConsoleToken(raw, token.PurposeConsoleAccess)
	if err != nil {
		return ConsoleAuth{}, err
	}

	console, err := s.findConsole(ctx, consoleID)
	if err != nil {
		return ConsoleAuth{}, err
	}
	if console == nil || console.UserID != claims.Subject {
		return ConsoleAuth{UserID: claims.Subject, ConsoleID: consoleID}, ErrInvalidToken
	}
	if console.TokenIssuedAt.Unix() != claims.IssuedAt.Unix() {
		return ConsoleAuth{}, ErrBadToken
	}

	age := s.now().Unix() - claims.IssuedAt.Unix()
	return ConsoleAuth{
		UserID:    console.UserID,
		ConsoleID: console.ID,
		Stale:     age > int64(s.config.consoleAccessWindow()/time.Second),
	}, nil
}

// Refresh rotates the console's credentials. The marker comparison and the
// advance happen as one compare-and-update, so of two concurrent refreshes
// with the same token exactly one wins; the loser observes the moved marker
// and fails as a bad token.
func (s *ConsoleService) Refresh(ctx context.Context, raw string, ipAddress *string) (*TokenPair, error) {
	claims, consoleID, err := s.verifyConsoleToken(raw, token.PurposeConsoleRefresh)
	if err != nil {
		return nil, err
	}

	console, err := s.findConsole(ctx, consoleID)
	if err != nil {
		return nil, err
	}
	if console == nil || console.UserID != claims.Subject {
		return nil, ErrInvalidToken
	}

	next := s.now().Truncate(time.Second)
	storeCtx, cancel := s.config.storeContext(ctx)
	defer cancel()
	won, err := s.consoles.AdvanceMarker(storeCtx, console.ID, claims.IssuedAt.Time, next)
	if err != nil {
		return nil, err
	}
	if !won {
		_ = recordSecurity(ctx, s.securityLogs, &console.UserID, ipAddress, entity.TokenRejected, map[string]any{"console": console.ID.String()})
		return nil, ErrBadToken
	}

	pair, err := s.issuePair(console.UserID, console.ID, next)
	if err != nil {
		return nil, err
	}
	_ = recordSecurity(ctx, s.securityLogs, &console.UserID, ipAddress, entity.TokenRefreshed, map[string]any{"console": console.ID.String()})
	return &pair, nil
}

func (s *ConsoleService) Get(ctx context.Context, userID string) (*entity.Console, error) {
	storeCtx, cancel := s.config.storeContext(ctx)
	defer cancel()
	return s.consoles.FindByUser(storeCtx, userID)
}

// Unlink removes the console registration. This is the only way a console
// record goes away; expiry never deletes it.
func (s *ConsoleService) Unlink(ctx context.Context, userID string, ipAddress *string) error {
	storeCtx, cancel := s.config.storeContext(ctx)
	defer cancel()

	console, err := s.consoles.FindByUser(storeCtx, userID)
	if err != nil {
		return err
	}
	if console == nil {
		return ErrNotFound
	}
	if err := s.consoles.Delete(storeCtx, console.ID); err != nil {
		return err
	}
	_ = recordSecurity(ctx, s.securityLogs, &userID, ipAddress, entity.ConsoleUnlinked, map[string]any{"console": console.ID.String()})
	return nil
}

func (s *ConsoleService) verifyConsoleToken(raw string, purpose token.Purpose) (*token.Claims, uuid.UUID, error) {
	if raw == "" {
		return nil, uuid.Nil, ErrNoToken
	}
	claims, err := s.codec.Verify(raw, purpose, s.config.consoleCeiling(), "sub", "jti", "iat")
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			return nil, uuid.Nil, ErrExpiredToken
		}
		return nil, uuid.Nil, ErrBadToken
	}
	consoleID, err := uuid.Parse(claims.ID)
	if err != nil {
		return nil, uuid.Nil, ErrBadToken
	}
	return claims, consoleID, nil
}

func (s *ConsoleService) findConsole(ctx context.Context, id uuid.UUID) (*entity.Console, error) {
	storeCtx, cancel := s.config.storeContext(ctx)
	defer cancel()
	return s.consoles.FindByID(storeCtx, id)
}

func (s *ConsoleService) issuePair(userID string, consoleID uuid.UUID, issuedAt time.Time) (TokenPair, error) {
	registered := jwt.RegisteredClaims{
		Subject:  userID,
		ID:       consoleID.String(),
		IssuedAt: jwt.NewNumericDate(issuedAt),
	}
	access, err := s.codec.Issue(token.Claims{RegisteredClaims: registered}, token.PurposeConsoleAccess)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.codec.Issue(token.Claims{RegisteredClaims: registered}, token.PurposeConsoleRefresh)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh, IssuedAt: issuedAt}, nil
}

func (s *ConsoleService) now() time.Time {
	if s.clock == nil {
		return time.Now()
	}
	return s.clock.Now()
}
