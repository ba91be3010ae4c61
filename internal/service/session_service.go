package service

import (
	"context"
	"regexp"
	"strings"
	"time"
	"unicode"

	"streetrelay/internal/entity"
	"streetrelay/internal/repository"
	"streetrelay/internal/token"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const dummyPasswordHash = "$2a$10$CwTycUXWue0Thq9StjUM0uJ8yQbWc1x9uxw2sQ2sXUNx5x9xJ9F2S"

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{2,20}$`)

// SessionAuth is the result of verifying a browser session. On ErrInvalidSession
// and ErrExpiredSession the identifier fields are still populated so the caller
// can say who should log in again; on ErrBadToken nothing is disclosed.
type SessionAuth struct {
	UserID     string
	SessionID  uuid.UUID
	FreshLogin bool
}

type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	DeviceLabel string
	DeviceClass string
	IPAddress   *string
}

type LoginInput struct {
	UsernameOrEmail string
	Password        string
	PresentedToken  string
	DeviceLabel     string
	DeviceClass     string
	IPAddress       *string
}

type LoginResult struct {
	Token     string
	SessionID uuid.UUID
	UserID    string
	EmailSent bool
}

// SessionService issues and verifies browser session credentials. A session
// credential is a signed token whose iat mirrors the record's LastLogin down
// to the second; the pair is always stamped together so the anti-spoof check
// in VerifyRecord stays exact.
type SessionService struct {
	users        repository.UserRepository
	sessions     repository.SessionRepository
	securityLogs repository.SecurityLogRepository

	codec        *token.Codec
	passwordHash PasswordHasher
	emailSender  EmailSender
	clock        Clock
	config       AuthConfig
}

func NewSessionService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	securityLogs repository.SecurityLogRepository,
	codec *token.Codec,
	passwordHash PasswordHasher,
	emailSender EmailSender,
	clock Clock,
	config AuthConfig,
) *SessionService {
	return &SessionService{
		users:        users,
		sessions:     sessions,
		securityLogs: securityLogs,
		codec:        codec,
		passwordHash: passwordHash,
		emailSender:  emailSender,
		clock:        clock,
		config:       config,
	}
}

// VerifyToken checks a presented session token against the store. Signature
// and structure first, then record existence, then the marker match, then age.
func (s *SessionService) VerifyToken(ctx context.Context, raw string) (SessionAuth, error) {
	if raw == "" {
		return SessionAuth{}, ErrNoToken
	}
	claims, err := s.codec.Verify(raw, token.PurposeSession, 0, "sub", "jti", "iat")
	if err != nil {
		return SessionAuth{}, ErrBadToken
	}
	sessionID, err := uuid.Parse(claims.ID)
	if err != nil {
		return SessionAuth{}, ErrBadToken
	}

	storeCtx, cancel := s.config.storeContext(ctx)
	defer cancel()
	session, err := s.sessions.FindByID(storeCtx, sessionID)
	if err != nil {
		return SessionAuth{}, err
	}
	if session == nil || session.UserID != claims.Subject {
		return SessionAuth{UserID: claims.Subject, SessionID: sessionID}, ErrInvalidSession
	}
	return s.VerifyRecord(ctx, session, claims.IssuedAt.Time)
}

// VerifyRecord runs the marker and age checks against an already-fetched
// session record. A marker mismatch is treated as a forged or replayed token,
// not as expiry.
func (s *SessionService) VerifyRecord(ctx context.Context, session *entity.Session, issuedAt time.Time) (SessionAuth, error) {
	auth := SessionAuth{UserID: session.UserID, SessionID: session.ID}

	if session.LastLogin.Unix() != issuedAt.Unix() {
		return SessionAuth{}, ErrBadToken
	}

	age := s.now().Unix() - issuedAt.Unix()
	if age > int64(s.config.sessionCeiling()/time.Second) {
		storeCtx, cancel := s.config.storeContext(ctx)
		defer cancel()
		_ = s.sessions.Delete(storeCtx, session.ID)
		return auth, ErrExpiredSession
	}

	auth.FreshLogin = age <= int64(s.config.sessionFreshWindow()/time.Second)
	return auth, nil
}

func (s *SessionService) Register(ctx context.Context, input RegisterInput) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Username == "" || input.Password == "" {
		return nil, ErrInvalidInput
	}
	if !usernamePattern.MatchString(input.Username) {
		return nil, ErrInvalidInput
	}
	if !passwordMeetsRequirements(input.Password) {
		return nil, ErrWeakPassword
	}

	storeCtx, cancel := s.config.storeContext(ctx)
	defer cancel()

	existing, err := s.users.FindByID(storeCtx, input.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}
	claimed, err := s.users.FindByVerifiedEmail(storeCtx, email)
	if err != nil {
		return nil, err
	}
	if claimed != nil {
		return nil, ErrEmailTaken
	}

	hash, err := s.passwordHash.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	loginTime := s.now().Truncate(time.Second)
	user := &entity.User{
		ID:           input.Username,
		Nickname:     input.Username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(storeCtx, user); err != nil {
		return nil, err
	}

	result, err := s.createSession(ctx, user.ID, input.DeviceLabel, input.DeviceClass, input.IPAddress, loginTime)
	if err != nil {
		return nil, err
	}

	result.EmailSent = s.sendVerificationEmail(ctx, user.ID, email)
	return result, nil
}

func (s *SessionService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	if strings.TrimSpace(input.UsernameOrEmail) == "" || input.Password == "" {
		return nil, ErrInvalidInput
	}

	storeCtx, cancel := s.config.storeContext(ctx)
	defer cancel()
	user, err := s.users.FindByLogin(storeCtx, strings.TrimSpace(input.UsernameOrEmail))
	if err != nil {
		return nil, err
	}
	if user == nil {
		_ = s.passwordHash.Verify(dummyPasswordHash, input.Password)
		_ = recordSecurity(ctx, s.securityLogs, nil, input.IPAddress, entity.LoginFailed, map[string]any{"login": input.UsernameOrEmail})
		return nil, ErrInvalidCredentials
	}
	if !s.passwordHash.Verify(user.PasswordHash, input.Password) {
		_ = recordSecurity(ctx, s.securityLogs, &user.ID, input.IPAddress, entity.LoginFailed, nil)
		return nil, ErrInvalidCredentials
	}

	loginTime := s.now().Truncate(time.Second)

	// Re-login from a browser that still holds a valid session re-stamps that
	// record instead of growing a new one. LastLogin and the token iat move
	// together, and the absolute expiry is extended from the new stamp.
	if input.PresentedToken != "" {
		if old, err := s.VerifyToken(ctx, input.PresentedToken); err == nil && old.UserID == user.ID {
			touchCtx, cancelTouch := s.config.storeContext(ctx)
			defer cancelTouch()
			if err := s.sessions.Touch(touchCtx, old.SessionID, loginTime, loginTime.Add(s.config.sessionCeiling())); err != nil {
				return nil, err
			}
			signed, err := s.issueToken(user.ID, old.SessionID, loginTime)
			if err != nil {
				return nil, err
			}
			_ = recordSecurity(ctx, s.securityLogs, &user.ID, input.IPAddress, entity.LoginSuccess, map[string]any{"session": old.SessionID.String()})
			return &LoginResult{Token: signed, SessionID: old.SessionID, UserID: user.ID}, nil
		}
	}

	result, err := s.createSession(ctx, user.ID, input.DeviceLabel, input.DeviceClass, input.IPAddress, loginTime)
	if err != nil {
		return nil, err
	}
	_ = recordSecurity(ctx, s.securityLogs, &user.ID, input.IPAddress, entity.LoginSuccess, map[string]any{"session": result.SessionID.String()})
	return result, nil
}

func (s *SessionService) Logout(ctx context.Context, auth SessionAuth, ipAddress *string) error {
	storeCtx, cancel := s.config.storeContext(ctx)
	defer cancel()
	if err := s.sessions.Delete(storeCtx, auth.SessionID); err != nil {
		return err
	}
	_ = recordSecurity(ctx, s.securityLogs, &auth.UserID, ipAddress, entity.Logout, nil)
	return nil
}

func (s *SessionService) ListSessions(ctx context.Context, userID string) ([]entity.Session, error) {
	storeCtx, cancel := s.config.storeContext(ctx)
	defer cancel()
	return s.sessions.ListByUser(storeCtx, userID)
}

// RevokeSession deletes another session of the same user. The current session
// cannot revoke itself (that is what logout is for) and foreign sessions are
// rejected without disclosing whether they exist beyond ownership.
func (s *SessionService) RevokeSession(ctx context.Context, auth SessionAuth, target uuid.UUID, ipAddress *string) error {
	storeCtx, cancel := s.config.storeContext(ctx)
	defer cancel()

	session, err := s.sessions.FindByID(storeCtx, target)
	if err != nil {
		return err
	}
	if session == nil {
		return ErrNotFound
	}
	if session.UserID != auth.UserID {
		return ErrForeignSession
	}
	if session.ID == auth.SessionID {
		return ErrCurrentSession
	}
	if err := s.sessions.Delete(storeCtx, session.ID); err != nil {
		return err
	}
	_ = recordSecurity(ctx, s.securityLogs, &auth.UserID, ipAddress, entity.SessionRevoked, map[string]any{"session": target.String()})
	return nil
}

func (s *SessionService) createSession(
	ctx context.Context,
	userID string,
	deviceLabel string,
	deviceClass string,
	ipAddress *string,
	loginTime time.Time,
) (*LoginResult, error) {
	if deviceLabel == "" {
		deviceLabel = "Unknown Device"
	}
	if deviceClass == "" {
		deviceClass = "desktop"
	}

	session := &entity.Session{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      deviceLabel,
		IPAddress: ipAddress,
		Device:    deviceClass,
		LastLogin: loginTime,
		ExpiresAt: loginTime.Add(s.config.sessionCeiling()),
	}
	storeCtx, cancel := s.config.storeContext(ctx)
	defer cancel()
	if err := s.sessions.Create(storeCtx, session); err != nil {
		return nil, err
	}

	signed, err := s.issueToken(userID, session.ID, loginTime)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: signed, SessionID: session.ID, UserID: userID}, nil
}

func (s *SessionService) issueToken(userID string, sessionID uuid.UUID, issuedAt time.Time) (string, error) {
	return s.codec.Issue(token.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  userID,
			ID:       sessionID.String(),
			IssuedAt: jwt.NewNumericDate(issuedAt),
		},
	}, token.PurposeSession)
}

func (s *SessionService) sendVerificationEmail(ctx context.Context, userID string, email string) bool {
	if s.emailSender == nil {
		return false
	}
	signed, err := s.codec.Issue(token.Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(s.now().Add(s.config.emailVerifyTTL())),
		},
	}, token.PurposeEmailVerify)
	if err != nil {
		return false
	}
	return s.emailSender.SendVerificationEmail(ctx, email, signed) == nil
}

func (s *SessionService) now() time.Time {
	if s.clock == nil {
		return time.Now()
	}
	return s.clock.Now()
}

func passwordMeetsRequirements(password string) bool {
	if len(password) < 8 {
		return false
	}
	var lower, upper, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}
	return lower && upper && digit && symbol
}
