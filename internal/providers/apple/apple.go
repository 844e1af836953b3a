// Package apple implements the Apple ID-token verifier.
//
// Apple does not expose a userinfo endpoint: the only credential is a
// signed ID token. The signature IS verified here against Apple's
// published JWKS before any payload claim is trusted; decoding the
// payload without a signature check would let anyone forge a subject.
package apple

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/dropDatabas3/linkjohn/internal/domain"
	"github.com/dropDatabas3/linkjohn/internal/providers"
)

const (
	jwksURL        = "https://appleid.apple.com/auth/keys"
	expectedIssuer = "https://appleid.apple.com"

	jwksTTL = 15 * time.Minute
)

// Verifier validates Apple ID tokens against the JWKS at jwksURL.
type Verifier struct {
	endpoint string
	issuer   string
	http     *http.Client

	mu      sync.RWMutex
	keys    map[string]*rsa.PublicKey // kid -> key
	keysExp time.Time
}

// Factory creates a new Apple verifier.
func Factory(cfg providers.Config) (providers.Verifier, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = jwksURL
	}
	return &Verifier{
		endpoint: endpoint,
		issuer:   expectedIssuer,
		http:     &http.Client{Timeout: cfg.EffectiveTimeout()},
		keys:     make(map[string]*rsa.PublicKey),
	}, nil
}

// Kind returns the provider kind.
func (v *Verifier) Kind() domain.ProviderKind { return domain.ProviderApple }

// WithIssuer overrides the expected issuer (tests).
func (v *Verifier) WithIssuer(iss string) *Verifier {
	v.issuer = iss
	return v
}

// Verify parses and validates the ID token, then extracts sub and email.
func (v *Verifier) Verify(ctx context.Context, accessToken, idToken string) (*providers.UserProfile, error) {
	if idToken == "" {
		return nil, providers.ErrTokenInvalid
	}

	keyfunc := func(t *jwtv5.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("missing kid header")
		}
		return v.publicKey(ctx, kid)
	}

	tok, err := jwtv5.Parse(idToken, keyfunc,
		jwtv5.WithValidMethods([]string{"RS256"}),
		jwtv5.WithIssuer(v.issuer),
		jwtv5.WithExpirationRequired(),
	)
	if err != nil || !tok.Valid {
		return nil, fmt.Errorf("%w: %v", providers.ErrTokenInvalid, err)
	}

	claims, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return nil, providers.ErrTokenInvalid
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, providers.ErrTokenInvalid
	}
	email, _ := claims["email"].(string)
	if email == "" {
		// Apple only includes the email on first authorization, or never
		// when the user hides it behind a relay and revokes the scope.
		return nil, providers.ErrEmailMissing
	}

	return &providers.UserProfile{
		ProviderUserID: sub,
		Email:          email,
	}, nil
}

// publicKey returns the RSA key for kid, refreshing the JWKS when the
// cache is stale or the kid is unknown (key rotation).
func (v *Verifier) publicKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.RLock()
	key, ok := v.keys[kid]
	fresh := time.Now().Before(v.keysExp)
	v.mu.RUnlock()

	if ok && fresh {
		return key, nil
	}

	if err := v.refreshKeys(ctx); err != nil {
		return nil, err
	}

	v.mu.RLock()
	defer v.mu.RUnlock()
	key, ok = v.keys[kid]
	if !ok {
		return nil, fmt.Errorf("unknown kid %q", kid)
	}
	return key, nil
}

type jwksDoc struct {
	Keys []struct {
		Kty string `json:"kty"`
		Kid string `json:"kid"`
		N   string `json:"n"`
		E   string `json:"e"`
	} `json:"keys"`
}

func (v *Verifier) refreshKeys(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := v.http.Do(req)
	if err != nil {
		return fmt.Errorf("jwks fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("jwks fetch: status %d", resp.StatusCode)
	}

	var doc jwksDoc
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return fmt.Errorf("jwks decode: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		pub, err := parseRSAKey(k.N, k.E)
		if err != nil {
			continue
		}
		keys[k.Kid] = pub
	}
	if len(keys) == 0 {
		return fmt.Errorf("jwks: no usable keys")
	}

	v.mu.Lock()
	v.keys = keys
	v.keysExp = time.Now().Add(jwksTTL)
	v.mu.Unlock()
	return nil
}

func parseRSAKey(nB64, eB64 string) (*rsa.PublicKey, error) {
	nb, err := base64.RawURLEncoding.DecodeString(nB64)
	if err != nil {
		return nil, err
	}
	eb, err := base64.RawURLEncoding.DecodeString(eB64)
	if err != nil {
		return nil, err
	}
	e := 0
	for _, b := range eb {
		e = e<<8 | int(b)
	}
	if e == 0 {
		return nil, fmt.Errorf("zero exponent")
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nb),
		E: e,
	}, nil
}
