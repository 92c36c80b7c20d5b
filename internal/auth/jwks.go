package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

type jwks struct {
	Keys []jwk `json:"keys"`
}

type jwk struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
	Alg string `json:"alg"`
}

// KeySet caches the RSA signing keys published by an issuer.
type KeySet struct {
	issuer string
	client *http.Client

	mu   sync.RWMutex
	raw  map[string]jwk
	keys map[string]*rsa.PublicKey
}

// NewKeySet returns a key set for issuerURL. Call Refresh before use.
func NewKeySet(issuerURL string, client *http.Client) *KeySet {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &KeySet{
		issuer: strings.TrimSuffix(issuerURL, "/"),
		client: client,
		raw:    make(map[string]jwk),
		keys:   make(map[string]*rsa.PublicKey),
	}
}

// Issuer returns the expected iss claim, or "" for a nil set.
func (k *KeySet) Issuer() string {
	if k == nil {
		return ""
	}
	return k.issuer
}

// Refresh fetches the issuer's JWKS document and replaces the cached keys.
func (k *KeySet) Refresh(ctx context.Context) error {
	url := k.issuer + "/.well-known/jwks.json"
	slog.Debug("[AUTH] Fetching JWKS", "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build JWKS request: %w", err)
	}
	resp, err := k.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode)
	}

	var doc jwks
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return fmt.Errorf("decode JWKS: %w", err)
	}

	raw := make(map[string]jwk, len(doc.Keys))
	for _, key := range doc.Keys {
		if key.Kty == "RSA" {
			raw[key.Kid] = key
		}
	}

	k.mu.Lock()
	k.raw = raw
	k.keys = make(map[string]*rsa.PublicKey)
	k.mu.Unlock()

	slog.Info("[AUTH] JWKS loaded", "keys", len(raw))
	return nil
}

// Start refreshes the key set every interval until ctx is done.
func (k *KeySet) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := k.Refresh(ctx); err != nil {
				slog.Error("[AUTH] Error refreshing JWKS", "error", err)
			}
		}
	}
}

// Key returns the public key for kid.
func (k *KeySet) Key(kid string) (*rsa.PublicKey, error) {
	k.mu.RLock()
	key, ok := k.keys[kid]
	raw, known := k.raw[kid]
	k.mu.RUnlock()
	if ok {
		return key, nil
	}
	if !known {
		return nil, fmt.Errorf("key with kid %s not found in JWKS", kid)
	}

	key, err := publicKey(raw)
	if err != nil {
		return nil, err
	}
	k.mu.Lock()
	k.keys[kid] = key
	k.mu.Unlock()
	return key, nil
}

func publicKey(key jwk) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(key.N)
	if err != nil {
		return nil, fmt.Errorf("decode modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(key.E)
	if err != nil {
		return nil, fmt.Errorf("decode exponent: %w", err)
	}
	if len(nBytes) == 0 || len(eBytes) == 0 {
		return nil, errors.New("empty RSA key parameters")
	}

	var e int
	for _, b := range eBytes {
		e = e<<8 + int(b)
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(nBytes), E: e}, nil
}
