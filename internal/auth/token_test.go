package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func TestVerify_SignedToken(t *testing.T) {
	token, err := Sign(testSecret, "42", time.Hour)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	claims, err := NewVerifier(testSecret, nil).Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.User() != "42" {
		t.Errorf("user = %q, want 42", claims.User())
	}
}

func TestVerify_BearerPrefix(t *testing.T) {
	token, _ := Sign(testSecret, "7", 0)
	if _, err := NewVerifier(testSecret, nil).Verify("Bearer " + token); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestVerify_NumericUserID(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"userId": 9}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatal(err)
	}
	claims, err := NewVerifier(testSecret, nil).Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.User() != "9" {
		t.Errorf("user = %q, want 9", claims.User())
	}
}

func TestVerify_Rejections(t *testing.T) {
	wrongSecret, _ := Sign("other", "1", time.Hour)
	expired, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": "1",
		"exp":    time.Now().Add(-time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	noUser, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"name": "x"}).SignedString([]byte(testSecret))
	hs384, _ := jwt.NewWithClaims(jwt.SigningMethodHS384, jwt.MapClaims{"userId": "1"}).SignedString([]byte(testSecret))

	cases := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", ErrNoToken},
		{"garbage", "not.a.jwt", ErrInvalidToken},
		{"wrong secret", wrongSecret, ErrInvalidToken},
		{"expired", expired, ErrInvalidToken},
		{"no user", noUser, ErrMissingUser},
		{"unexpected alg", hs384, ErrInvalidToken},
	}
	v := NewVerifier(testSecret, nil)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := v.Verify(tc.token)
			if !errors.Is(err, tc.want) {
				t.Errorf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestVerify_NoSecretRejectsHS256(t *testing.T) {
	token, _ := Sign(testSecret, "1", time.Hour)
	if _, err := NewVerifier("", nil).Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func jwksServer(t *testing.T, key *rsa.PrivateKey, kid string) *httptest.Server {
	t.Helper()
	doc := jwks{Keys: []jwk{{
		Kid: kid,
		Kty: "RSA",
		Use: "sig",
		Alg: "RS256",
		N:   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
	}}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/.well-known/jwks.json" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(doc)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func rsaToken(t *testing.T, key *rsa.PrivateKey, kid string, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = kid
	signed, err := tok.SignedString(key)
	if err != nil {
		t.Fatal(err)
	}
	return signed
}

func TestVerify_JWKS(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	srv := jwksServer(t, key, "k1")

	keys := NewKeySet(srv.URL, srv.Client())
	if err := keys.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	v := NewVerifier("", keys)

	good := rsaToken(t, key, "k1", jwt.MapClaims{"sub": "kp_123", "iss": srv.URL})
	claims, err := v.Verify(good)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.User() != "kp_123" {
		t.Errorf("user = %q, want subject fallback", claims.User())
	}

	wrongIssuer := rsaToken(t, key, "k1", jwt.MapClaims{"sub": "u", "iss": "https://elsewhere"})
	if _, err := v.Verify(wrongIssuer); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("wrong issuer err = %v", err)
	}

	unknownKid := rsaToken(t, key, "k2", jwt.MapClaims{"sub": "u", "iss": srv.URL})
	if _, err := v.Verify(unknownKid); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("unknown kid err = %v", err)
	}
}

func TestKeySet_RefreshFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if err := NewKeySet(srv.URL, srv.Client()).Refresh(context.Background()); err == nil {
		t.Error("expected error for non-200 JWKS response")
	}
}

func TestExtractToken(t *testing.T) {
	cases := []struct {
		name   string
		url    string
		header string
		want   string
	}{
		{"query", "/ws?token=abc", "", "abc"},
		{"header", "/chats/1", "Bearer xyz", "xyz"},
		{"query wins", "/ws?token=abc", "Bearer xyz", "abc"},
		{"none", "/ws", "", ""},
	}
	for _, tc := range cases {
		r := httptest.NewRequest(http.MethodGet, tc.url, nil)
		if tc.header != "" {
			r.Header.Set("Authorization", tc.header)
		}
		if got := ExtractToken(r); got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}
