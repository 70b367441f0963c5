package utils

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func sign(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func TestVerifyToken(t *testing.T) {
	secret := "test-secret"
	valid := jwt.MapClaims{"sub": "user-123", "exp": time.Now().Add(time.Hour).Unix()}

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		if _, err := VerifyToken(req, secret); err != ErrMissingToken {
			t.Fatalf("expected ErrMissingToken, got %v", err)
		}
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/?token=ignored", nil)
		req.Header.Set("Authorization", "Token abc")
		if _, err := VerifyToken(req, secret); err != ErrMissingToken {
			t.Fatalf("expected ErrMissingToken, got %v", err)
		}
	})

	t.Run("invalid signing method", func(t *testing.T) {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			t.Fatalf("failed to generate key: %v", err)
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, valid).SignedString(key)
		if err != nil {
			t.Fatalf("failed to sign token: %v", err)
		}
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer "+signed)
		if _, err := VerifyToken(req, secret); err != ErrInvalidToken {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer "+sign(t, secret, jwt.MapClaims{
			"sub": "user-123",
			"exp": time.Now().Add(-time.Minute).Unix(),
		}))
		if _, err := VerifyToken(req, secret); err != ErrInvalidToken {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("invalid claims type", func(t *testing.T) {
		orig := parseJWT
		defer func() { parseJWT = orig }()

		parseJWT = func(tokenStr string, keyFunc jwt.Keyfunc) (*jwt.Token, error) {
			token := jwt.New(jwt.SigningMethodHS256)
			token.Claims = &jwt.RegisteredClaims{}
			token.Valid = true
			if _, err := keyFunc(token); err != nil {
				return nil, err
			}
			return token, nil
		}

		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer fake")
		if _, err := VerifyToken(req, secret); err != ErrInvalidClaims {
			t.Fatalf("expected ErrInvalidClaims, got %v", err)
		}
	})

	t.Run("header", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer "+sign(t, secret, valid))
		claims, err := VerifyToken(req, secret)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if claims["sub"] != "user-123" {
			t.Fatalf("expected sub user-123, got %v", claims["sub"])
		}
	})

	t.Run("query parameter", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/ws/interview?token="+sign(t, secret, valid), nil)
		userID, err := UserIDFromRequest(req, secret)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if userID != "user-123" {
			t.Fatalf("expected user-123, got %s", userID)
		}
	})
}

func TestGetUserIDFromClaims(t *testing.T) {
	tests := []struct {
		name    string
		claims  jwt.MapClaims
		want    string
		wantErr bool
	}{
		{"string sub", jwt.MapClaims{"sub": "abc"}, "abc", false},
		{"numeric sub", jwt.MapClaims{"sub": float64(42)}, "42", false},
		{"userId fallback", jwt.MapClaims{"userId": "legacy"}, "legacy", false},
		{"missing", jwt.MapClaims{}, "", true},
		{"empty", jwt.MapClaims{"sub": ""}, "", true},
		{"wrong type", jwt.MapClaims{"sub": true}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GetUserIDFromClaims(tt.claims)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("expected %q, got %q (%v)", tt.want, got, err)
			}
		})
	}
}

func TestUserIDFromRequestWrapsClaimErrors(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+sign(t, "s", jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()}))
	if _, err := UserIDFromRequest(req, "s"); !errors.Is(err, ErrInvalidClaims) {
		t.Fatalf("expected ErrInvalidClaims, got %v", err)
	}
}
