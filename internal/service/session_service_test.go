package service

import (
	"context"
	"testing"
	"time"

	"streetrelay/internal/entity"
	"streetrelay/internal/token"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "Str0ng!pass"

type sessionFixture struct {
	service  *SessionService
	users    *memUserRepo
	sessions *memSessionRepo
	clock    *fakeClock
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	clock := newFakeClock(time.Now().Truncate(time.Second))
	codec := token.NewCodec([]byte("test-secret"))
	codec.Now = clock.Now

	users := newMemUserRepo()
	sessions := newMemSessionRepo()
	service := NewSessionService(
		users, sessions, newMemSecurityLogRepo(),
		codec, BcryptPasswordHasher{Cost: bcrypt.MinCost}, nil, clock, AuthConfig{},
	)
	return &sessionFixture{service: service, users: users, sessions: sessions, clock: clock}
}

func (f *sessionFixture) createUser(t *testing.T, username string, verified bool) {
	t.Helper()
	hash, err := BcryptPasswordHasher{Cost: bcrypt.MinCost}.Hash(testPassword)
	require.NoError(t, err)
	require.NoError(t, f.users.Create(context.Background(), &entity.User{
		ID:            username,
		Nickname:      username,
		Email:         username + "@example.com",
		EmailVerified: verified,
		PasswordHash:  hash,
	}))
}

func (f *sessionFixture) login(t *testing.T, username string) *LoginResult {
	t.Helper()
	result, err := f.service.Login(context.Background(), LoginInput{
		UsernameOrEmail: username,
		Password:        testPassword,
	})
	require.NoError(t, err)
	return result
}

func TestVerifyTokenNoToken(t *testing.T) {
	f := newSessionFixture(t)
	_, err := f.service.VerifyToken(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestVerifyTokenGarbage(t *testing.T) {
	f := newSessionFixture(t)
	_, err := f.service.VerifyToken(context.Background(), "not.a.token")
	assert.ErrorIs(t, err, ErrBadToken)
}

func TestVerifyTokenUnknownSession(t *testing.T) {
	f := newSessionFixture(t)
	f.createUser(t, "johndoe", true)
	result := f.login(t, "johndoe")

	require.NoError(t, f.sessions.Delete(context.Background(), result.SessionID))

	auth, err := f.service.VerifyToken(context.Background(), result.Token)
	assert.ErrorIs(t, err, ErrInvalidSession)
	assert.Equal(t, "johndoe", auth.UserID)
	assert.Equal(t, result.SessionID, auth.SessionID)
}

func TestLoginIssuesVerifiableSession(t *testing.T) {
	f := newSessionFixture(t)
	f.createUser(t, "johndoe", true)

	result := f.login(t, "johndoe")
	require.NotEmpty(t, result.Token)

	auth, err := f.service.VerifyToken(context.Background(), result.Token)
	require.NoError(t, err)
	assert.Equal(t, "johndoe", auth.UserID)
	assert.Equal(t, result.SessionID, auth.SessionID)
	assert.True(t, auth.FreshLogin)
}

func TestLoginByVerifiedEmailOnly(t *testing.T) {
	f := newSessionFixture(t)
	f.createUser(t, "johndoe", true)
	f.createUser(t, "janedoe", false)

	_, err := f.service.Login(context.Background(), LoginInput{
		UsernameOrEmail: "johndoe@example.com",
		Password:        testPassword,
	})
	require.NoError(t, err)

	_, err = f.service.Login(context.Background(), LoginInput{
		UsernameOrEmail: "janedoe@example.com",
		Password:        testPassword,
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	f := newSessionFixture(t)
	f.createUser(t, "johndoe", true)

	_, err := f.service.Login(context.Background(), LoginInput{
		UsernameOrEmail: "johndoe",
		Password:        "wrong password",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.service.Login(context.Background(), LoginInput{
		UsernameOrEmail: "nobody",
		Password:        testPassword,
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAntiSpoofMarkerMismatch(t *testing.T) {
	f := newSessionFixture(t)
	f.createUser(t, "johndoe", true)
	result := f.login(t, "johndoe")

	// One second of drift between the store marker and the token iat means
	// the token was not minted against this record state.
	f.sessions.setLastLogin(result.SessionID, f.clock.Now().Add(time.Second))

	auth, err := f.service.VerifyToken(context.Background(), result.Token)
	assert.ErrorIs(t, err, ErrBadToken)
	assert.Empty(t, auth.UserID)
}

func TestSessionCeiling(t *testing.T) {
	f := newSessionFixture(t)
	f.createUser(t, "johndoe", true)
	result := f.login(t, "johndoe")

	// Exactly at the ceiling the session is still valid, just not fresh.
	f.clock.Advance(30 * 24 * time.Hour)
	auth, err := f.service.VerifyToken(context.Background(), result.Token)
	require.NoError(t, err)
	assert.False(t, auth.FreshLogin)

	// One second past, it is expired but the identifiers are still reported.
	f.clock.Advance(time.Second)
	auth, err = f.service.VerifyToken(context.Background(), result.Token)
	assert.ErrorIs(t, err, ErrExpiredSession)
	assert.Equal(t, "johndoe", auth.UserID)
	assert.Equal(t, result.SessionID, auth.SessionID)

	// Expiry detection lazily dropped the record.
	assert.Equal(t, 0, f.sessions.count())
}

func TestFreshLoginWindow(t *testing.T) {
	f := newSessionFixture(t)
	f.createUser(t, "johndoe", true)
	result := f.login(t, "johndoe")

	f.clock.Advance(23*time.Hour + 59*time.Minute)
	auth, err := f.service.VerifyToken(context.Background(), result.Token)
	require.NoError(t, err)
	assert.True(t, auth.FreshLogin)

	f.clock.Advance(time.Minute + time.Second)
	auth, err = f.service.VerifyToken(context.Background(), result.Token)
	require.NoError(t, err)
	assert.False(t, auth.FreshLogin)
}

func TestReLoginReStampsSession(t *testing.T) {
	f := newSessionFixture(t)
	f.createUser(t, "johndoe", true)
	first := f.login(t, "johndoe")

	f.clock.Advance(time.Hour)
	second, err := f.service.Login(context.Background(), LoginInput{
		UsernameOrEmail: "johndoe",
		Password:        testPassword,
		PresentedToken:  first.Token,
	})
	require.NoError(t, err)

	// Same record, no second session row.
	assert.Equal(t, first.SessionID, second.SessionID)
	assert.Equal(t, 1, f.sessions.count())

	// The new token verifies; the pre-rotation one is dead.
	_, err = f.service.VerifyToken(context.Background(), second.Token)
	require.NoError(t, err)
	_, err = f.service.VerifyToken(context.Background(), first.Token)
	assert.ErrorIs(t, err, ErrBadToken)
}

func TestRegister(t *testing.T) {
	f := newSessionFixture(t)

	result, err := f.service.Register(context.Background(), RegisterInput{
		Username: "johndoe",
		Email:    "John@Example.com",
		Password: testPassword,
	})
	require.NoError(t, err)

	auth, err := f.service.VerifyToken(context.Background(), result.Token)
	require.NoError(t, err)
	assert.Equal(t, "johndoe", auth.UserID)
	assert.True(t, auth.FreshLogin)

	user, err := f.users.FindByID(context.Background(), "johndoe")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "john@example.com", user.Email)
	assert.False(t, user.EmailVerified)
}

func TestRegisterRejectsInvalidInput(t *testing.T) {
	f := newSessionFixture(t)
	f.createUser(t, "johndoe", true)

	_, err := f.service.Register(context.Background(), RegisterInput{
		Username: "johndoe",
		Email:    "other@example.com",
		Password: testPassword,
	})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = f.service.Register(context.Background(), RegisterInput{
		Username: "janedoe",
		Email:    "johndoe@example.com",
		Password: testPassword,
	})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = f.service.Register(context.Background(), RegisterInput{
		Username: "janedoe",
		Email:    "jane@example.com",
		Password: "weakpass",
	})
	assert.ErrorIs(t, err, ErrWeakPassword)

	_, err = f.service.Register(context.Background(), RegisterInput{
		Username: "not a username!",
		Email:    "jane@example.com",
		Password: testPassword,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRevokeSession(t *testing.T) {
	f := newSessionFixture(t)
	f.createUser(t, "johndoe", true)
	f.createUser(t, "janedoe", true)

	current := f.login(t, "johndoe")
	other := f.login(t, "johndoe")
	foreign := f.login(t, "janedoe")

	auth, err := f.service.VerifyToken(context.Background(), current.Token)
	require.NoError(t, err)

	err = f.service.RevokeSession(context.Background(), auth, foreign.SessionID, nil)
	assert.ErrorIs(t, err, ErrForeignSession)

	err = f.service.RevokeSession(context.Background(), auth, current.SessionID, nil)
	assert.ErrorIs(t, err, ErrCurrentSession)

	err = f.service.RevokeSession(context.Background(), auth, uuid.New(), nil)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, f.service.RevokeSession(context.Background(), auth, other.SessionID, nil))
	_, err = f.service.VerifyToken(context.Background(), other.Token)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestLogoutDeletesSession(t *testing.T) {
	f := newSessionFixture(t)
	f.createUser(t, "johndoe", true)
	result := f.login(t, "johndoe")

	auth, err := f.service.VerifyToken(context.Background(), result.Token)
	require.NoError(t, err)
	require.NoError(t, f.service.Logout(context.Background(), auth, nil))

	_, err = f.service.VerifyToken(context.Background(), result.Token)
	assert.ErrorIs(t, err, ErrInvalidSession)
}
