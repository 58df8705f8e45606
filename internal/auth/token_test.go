package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func mintToken(t *testing.T, secret, sub, username, role string, ttl time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":      sub,
		"username": username,
		"role":     role,
		"iat":      time.Now().Unix(),
		"exp":      time.Now().Add(ttl).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestVerifierParse(t *testing.T) {
	v := NewVerifier("test-secret")

	token := mintToken(t, "test-secret", "u1", "alice", "admin", time.Hour)
	id, err := v.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if id.UserID != "u1" || id.Username != "alice" || !id.IsAdmin() {
		t.Fatalf("identity = %+v", id)
	}
}

func TestVerifierParse_Invalid(t *testing.T) {
	v := NewVerifier("test-secret")

	tests := []struct {
		name  string
		token string
	}{
		{"wrong secret", mintToken(t, "other-secret", "u1", "alice", "user", time.Hour)},
		{"expired", mintToken(t, "test-secret", "u1", "alice", "user", -time.Hour)},
		{"missing subject", mintToken(t, "test-secret", "", "alice", "user", time.Hour)},
		{"garbage", "not.a.token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := v.Parse(tt.token); err != ErrInvalidToken {
				t.Fatalf("Parse error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestVerifierFromRequest(t *testing.T) {
	v := NewVerifier("test-secret")
	token := mintToken(t, "test-secret", "u1", "alice", "user", time.Hour)

	req := httptest.NewRequest("GET", "/", nil)
	id, err := v.FromRequest(req)
	if err != nil || id != nil {
		t.Fatalf("anonymous request: id=%v err=%v, want nil/nil", id, err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	id, err = v.FromRequest(req)
	if err != nil || id == nil || id.UserID != "u1" {
		t.Fatalf("bearer request: id=%v err=%v", id, err)
	}

	req.Header.Set("Authorization", token)
	if _, err := v.FromRequest(req); err != ErrInvalidToken {
		t.Fatalf("missing scheme: err=%v, want ErrInvalidToken", err)
	}

	req.Header.Set("Authorization", "Bearer nope")
	if _, err := v.FromRequest(req); err != ErrInvalidToken {
		t.Fatalf("bad token: err=%v, want ErrInvalidToken", err)
	}
}
