package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalid = errors.New("invalid token")
	ErrExpired = errors.New("expired token")
)

// Purpose tags the audience claim so a token minted for one flow can never
// be replayed against another.
type Purpose string

const (
	PurposeSession        Purpose = "streetrelay:session"
	PurposeConsoleAccess  Purpose = "streetrelay:console"
	PurposeConsoleRefresh Purpose = "streetrelay:console:refresh"
	PurposePasswordReset  Purpose = "streetrelay:password-reset"
	PurposeEmailVerify    Purpose = "streetrelay:email-verify"
)

type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Codec signs and verifies the compact HS256 tokens shared by every auth flow.
// All tokens carry second-precision issued-at values: store markers are
// compared against iat by exact equality, so sub-second precision is dropped
// at issue time.
type Codec struct {
	Secret []byte
	Now    func() time.Time
}

func NewCodec(secret []byte) *Codec {
	return &Codec{Secret: secret, Now: time.Now}
}

// Issue signs claims for the given purpose. IssuedAt defaults to the current
// second when the caller did not stamp one; either way it is truncated so the
// wire value round-trips exactly against store timestamps.
func (c *Codec) Issue(claims Claims, purpose Purpose) (string, error) {
	if len(c.Secret) == 0 {
		return "", errors.New("token codec has no secret")
	}
	claims.Audience = jwt.ClaimStrings{string(purpose)}
	if claims.IssuedAt == nil {
		claims.IssuedAt = jwt.NewNumericDate(c.now())
	} else {
		claims.IssuedAt = jwt.NewNumericDate(claims.IssuedAt.Time.Truncate(time.Second))
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.Secret)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// Verify parses and validates a signed token. The signature, structure and
// audience are checked first; only then is maxAge evaluated against the iat
// claim (zero maxAge skips the age check). A token issued exactly maxAge ago
// is still valid, one second older is expired.
func (c *Codec) Verify(raw string, purpose Purpose, maxAge time.Duration, required ...string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalid
		}
		return c.Secret, nil
	}, jwt.WithAudience(string(purpose)), jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(c.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalid
	}
	if !parsed.Valid {
		return nil, ErrInvalid
	}
	for _, claim := range required {
		if !hasClaim(claims, claim) {
			return nil, ErrInvalid
		}
	}
	if maxAge > 0 {
		if claims.IssuedAt == nil {
			return nil, ErrInvalid
		}
		if c.now().Unix()-claims.IssuedAt.Unix() > int64(maxAge/time.Second) {
			return nil, ErrExpired
		}
	}
	return claims, nil
}

func (c *Codec) now() time.Time {
	if c.Now != nil {
		return c.Now().Truncate(time.Second)
	}
	return time.Now().Truncate(time.Second)
}

func hasClaim(claims *Claims, name string) bool {
	switch name {
	case "sub":
		return claims.Subject != ""
	case "jti":
		return claims.ID != ""
	case "iat":
		return claims.IssuedAt != nil
	case "exp":
		return claims.ExpiresAt != nil
	case "email":
		return claims.Email != ""
	}
	return false
}
