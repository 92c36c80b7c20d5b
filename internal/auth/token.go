// Package auth verifies the bearer tokens presented by canvas clients.
//
// Tokens are JWTs carrying a userId claim. HS256 tokens are checked against
// a shared secret; RS256 tokens are checked against the signing keys an
// issuer publishes at /.well-known/jwks.json.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoToken      = errors.New("auth: token required")
	ErrInvalidToken = errors.New("auth: invalid token")
	ErrMissingUser  = errors.New("auth: token has no user identifier")
)

// UserID accepts a JSON string or number.
type UserID string

func (u *UserID) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	switch {
	case s == "null":
		*u = ""
	case strings.HasPrefix(s, `"`):
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*u = UserID(v)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*u = UserID(n.String())
	}
	return nil
}

type Claims struct {
	jwt.RegisteredClaims
	UserID UserID `json:"userId,omitempty"`
}

// User returns the userId claim, falling back to the subject.
func (c *Claims) User() string {
	if c.UserID != "" {
		return string(c.UserID)
	}
	return c.Subject
}

// Verifier validates tokens. The zero value rejects everything.
type Verifier struct {
	secret []byte
	keys   *KeySet
}

// NewVerifier returns a verifier accepting HS256 tokens signed with secret
// (when non-empty) and RS256 tokens signed by keys (when non-nil).
func NewVerifier(secret string, keys *KeySet) *Verifier {
	v := &Verifier{keys: keys}
	if secret != "" {
		v.secret = []byte(secret)
	}
	return v
}

// Verify parses and validates token and returns its claims.
func (v *Verifier) Verify(token string) (*Claims, error) {
	token = strings.TrimPrefix(token, "Bearer ")
	if token == "" {
		return nil, ErrNoToken
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, v.key,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg(), jwt.SigningMethodRS256.Alg()}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}

	if _, ok := parsed.Method.(*jwt.SigningMethodRSA); ok && v.keys.Issuer() != "" && claims.Issuer != v.keys.Issuer() {
		return nil, fmt.Errorf("%w: issuer %q", ErrInvalidToken, claims.Issuer)
	}
	if claims.User() == "" {
		return nil, ErrMissingUser
	}
	return claims, nil
}

func (v *Verifier) key(token *jwt.Token) (interface{}, error) {
	switch token.Method.(type) {
	case *jwt.SigningMethodHMAC:
		if v.secret == nil {
			return nil, errors.New("shared secret not configured")
		}
		return v.secret, nil
	case *jwt.SigningMethodRSA:
		if v.keys == nil {
			return nil, errors.New("key set not configured")
		}
		kid, ok := token.Header["kid"].(string)
		if !ok {
			return nil, errors.New("kid not found in token header")
		}
		return v.keys.Key(kid)
	}
	return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
}

// Sign issues an HS256 token for userID. A zero ttl issues a token that
// never expires.
func Sign(secret, userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{IssuedAt: jwt.NewNumericDate(now)},
		UserID:           UserID(userID),
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ExtractToken returns the token from the "token" query parameter or the
// Authorization header, in that order.
func ExtractToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	if header := r.Header.Get("Authorization"); header != "" {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

