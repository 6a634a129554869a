package scheduler

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"

	schedulerv1 "github.com/mrodz/fieldz/internal/wire/schedulerv1"
)

const (
	testIssuer   = "https://issuer.test"
	testAudience = "fieldz-scheduler"
	testKid      = "key-1"
)

type countingHook struct {
	calls atomic.Int64
}

func (h *countingHook) Signal(context.Context, string) error {
	h.calls.Add(1)
	return nil
}

// jwksServer serves the public half of key under the test kid.
func jwksServer(t *testing.T, key *rsa.PrivateKey) *httptest.Server {
	t.Helper()
	doc := jwksDocument{Keys: []jwk{{
		Kty: "RSA",
		Kid: testKid,
		N:   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes()),
	}}}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewEncoder(w).Encode(doc); err != nil {
			t.Errorf("encode JWKS: %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func signToken(t *testing.T, key *rsa.PrivateKey, subject string, expiresAt time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.RegisteredClaims{
		Issuer:    testIssuer,
		Audience:  jwt.ClaimStrings{testAudience},
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	})
	token.Header["kid"] = testKid

	signed, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func newTestInterceptor(t *testing.T, key *rsa.PrivateKey, hook UsageHook) *AuthInterceptor {
	t.Helper()
	srv := jwksServer(t, key)
	cache := NewKeyCache(srv.URL, srv.Client(), clockwork.NewRealClock())
	return NewAuthInterceptor(cache, testIssuer, testAudience, hook, NewSubjectLimiter(30*time.Second))
}

// invoke runs the interceptor's unary path with the given header value.
func invoke(i *AuthInterceptor, authorization string) (string, error) {
	var sawSubject string
	next := connect.UnaryFunc(func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		sawSubject, _ = SubjectFromContext(ctx)
		return connect.NewResponse(&schedulerv1.ScheduledOutput{}), nil
	})

	req := connect.NewRequest(&schedulerv1.ScheduledInput{})
	if authorization != "" {
		req.Header().Set("Authorization", authorization)
	}
	_, err := i.WrapUnary(next)(context.Background(), req)
	return sawSubject, err
}

func TestAuthAcceptsValidToken(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	hook := &countingHook{}
	interceptor := newTestInterceptor(t, key, hook)

	token := signToken(t, key, "user-7", time.Now().Add(time.Hour))
	subject, err := invoke(interceptor, "Bearer "+token)
	if err != nil {
		t.Fatalf("invoke() error = %v", err)
	}
	if subject != "user-7" {
		t.Errorf("subject = %q, want %q", subject, "user-7")
	}
	if hook.calls.Load() != 1 {
		t.Errorf("usage increments = %d, want 1", hook.calls.Load())
	}
}

func TestAuthRejectsExpiredToken(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	hook := &countingHook{}
	interceptor := newTestInterceptor(t, key, hook)

	token := signToken(t, key, "user-7", time.Now().Add(-time.Hour))
	_, err = invoke(interceptor, "Bearer "+token)

	var connectErr *connect.Error
	if !errors.As(err, &connectErr) || connectErr.Code() != connect.CodeUnauthenticated {
		t.Fatalf("invoke() error = %v, want Unauthenticated", err)
	}
	// the usage counter must not tick for rejected calls
	if hook.calls.Load() != 0 {
		t.Errorf("usage increments = %d, want 0", hook.calls.Load())
	}
}

func TestAuthRejectsMalformedHeaders(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	interceptor := newTestInterceptor(t, key, &countingHook{})

	for _, header := range []string{"", "Bearer", "Basic abc", "Bearer not-a-jwt"} {
		_, err := invoke(interceptor, header)
		var connectErr *connect.Error
		if !errors.As(err, &connectErr) || connectErr.Code() != connect.CodeUnauthenticated {
			t.Errorf("invoke(%q) error = %v, want Unauthenticated", header, err)
		}
	}
}

func TestAuthRejectsWrongAudience(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	interceptor := newTestInterceptor(t, key, &countingHook{})

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.RegisteredClaims{
		Issuer:    testIssuer,
		Audience:  jwt.ClaimStrings{"someone-else"},
		Subject:   "user-7",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	token.Header["kid"] = testKid
	signed, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	_, err = invoke(interceptor, "Bearer "+signed)
	var connectErr *connect.Error
	if !errors.As(err, &connectErr) || connectErr.Code() != connect.CodeUnauthenticated {
		t.Errorf("invoke() error = %v, want Unauthenticated", err)
	}
}

func TestCooldownYieldsResourceExhausted(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	interceptor := newTestInterceptor(t, key, &countingHook{})
	token := signToken(t, key, "user-7", time.Now().Add(time.Hour))

	if _, err := invoke(interceptor, "Bearer "+token); err != nil {
		t.Fatalf("first invoke() error = %v", err)
	}

	_, err = invoke(interceptor, "Bearer "+token)
	var connectErr *connect.Error
	if !errors.As(err, &connectErr) || connectErr.Code() != connect.CodeResourceExhausted {
		t.Errorf("second invoke() error = %v, want ResourceExhausted", err)
	}
}

func TestSubjectLimiterIsPerSubject(t *testing.T) {
	limiter := NewSubjectLimiter(30 * time.Second)

	if !limiter.Allow("a") {
		t.Error("first request for subject a denied")
	}
	if limiter.Allow("a") {
		t.Error("second request for subject a inside the gap allowed")
	}
	if !limiter.Allow("b") {
		t.Error("first request for subject b denied")
	}
}
