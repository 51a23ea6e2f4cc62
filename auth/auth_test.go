package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newVerifier(t *testing.T) *Verifier {
	t.Helper()
	v, err := NewVerifier(JWTConfig{Key: "test-key", Issuer: "kvops", Audience: "kvops-api"})
	if err != nil {
		t.Fatalf("NewVerifier() error = %v", err)
	}
	return v
}

func TestNewVerifier_EmptyKey(t *testing.T) {
	if _, err := NewVerifier(JWTConfig{}); !errors.Is(err, ErrMissingKey) {
		t.Fatalf("error = %v, want ErrMissingKey", err)
	}
}

func TestVerifier_RoundTrip(t *testing.T) {
	v := newVerifier(t)
	token, err := v.Issue("alice", []string{"kv:read", "kv:write"}, time.Minute)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	id, err := v.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if id.Principal != "alice" {
		t.Errorf("Principal = %q", id.Principal)
	}
	if !id.HasScope("kv:write") || id.HasScope("admin") {
		t.Errorf("Scopes = %v", id.Scopes)
	}
	if id.ExpiresAt.IsZero() || id.IssuedAt.IsZero() {
		t.Error("timestamps not populated")
	}
}

func TestVerifier_Rejections(t *testing.T) {
	v := newVerifier(t)

	expired, _ := v.Issue("alice", nil, -time.Minute)
	if _, err := v.Verify(expired); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expired error = %v", err)
	}

	if _, err := v.Verify("not.a.jwt"); !errors.Is(err, ErrTokenMalformed) {
		t.Errorf("malformed error = %v", err)
	}

	if _, err := v.Verify(""); !errors.Is(err, ErrMissingCredentials) {
		t.Errorf("empty error = %v", err)
	}

	other, _ := NewVerifier(JWTConfig{Key: "other-key", Issuer: "kvops", Audience: "kvops-api"})
	forged, _ := other.Issue("mallory", nil, time.Minute)
	if _, err := v.Verify(forged); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong key error = %v", err)
	}

	wrongIss, _ := NewVerifier(JWTConfig{Key: "test-key", Issuer: "someone-else", Audience: "kvops-api"})
	tok, _ := wrongIss.Issue("bob", nil, time.Minute)
	if _, err := v.Verify(tok); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong issuer error = %v", err)
	}

	noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x", "iss": "kvops", "aud": "kvops-api"}).
		SignedString([]byte("test-key"))
	if _, err := v.Verify(noExp); err == nil {
		t.Error("token without exp should be rejected")
	}

	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "x"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if _, err := v.Verify(none); err == nil {
		t.Error("alg=none token should be rejected")
	}
}

func TestBearerToken(t *testing.T) {
	tests := map[string]string{
		"Bearer abc":   "abc",
		"bearer abc":   "abc",
		"Bearer  abc ": "abc",
		"Basic abc":    "",
		"":             "",
		"Bear":         "",
	}
	for header, want := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		if got := BearerToken(r); got != want {
			t.Errorf("BearerToken(%q) = %q, want %q", header, got, want)
		}
	}
}

func TestMiddleware(t *testing.T) {
	v := newVerifier(t)
	var seen string
	h := Middleware(v)(RequireScope("kv:write")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = PrincipalFromContext(r.Context())
	})))

	do := func(token string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		if token != "" {
			r.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec
	}

	if rec := do(""); rec.Code != http.StatusUnauthorized || rec.Header().Get("WWW-Authenticate") == "" {
		t.Errorf("no token: %d", rec.Code)
	}

	reader, _ := v.Issue("reader", []string{"kv:read"}, time.Minute)
	if rec := do(reader); rec.Code != http.StatusForbidden {
		t.Errorf("read-only token: %d, want 403", rec.Code)
	}

	writer, _ := v.Issue("writer", []string{"kv:write"}, time.Minute)
	if rec := do(writer); rec.Code != http.StatusOK || seen != "writer" {
		t.Errorf("writer token: %d principal=%q", rec.Code, seen)
	}
}

func TestMiddleware_NilVerifier(t *testing.T) {
	called := false
	h := Middleware(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !called {
		t.Fatal("nil verifier should pass requests through")
	}
}
