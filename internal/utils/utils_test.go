package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestNewAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("test-secret", "01ARZ3NDEKTSV4RRFFQ69G5FAV", 15)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	if until := time.Until(tok.Exp); until < 14*time.Minute || until > 15*time.Minute {
		t.Errorf("expiry %v not about 15 minutes out", tok.Exp)
	}

	parsed, err := jwt.Parse(tok.Token, func(tk *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("parse: %v", err)
	}
	claims := parsed.Claims.(jwt.MapClaims)
	if claims["sub"] != "01ARZ3NDEKTSV4RRFFQ69G5FAV" {
		t.Errorf("sub = %v", claims["sub"])
	}

	if _, err := jwt.Parse(tok.Token, func(tk *jwt.Token) (interface{}, error) {
		return []byte("wrong-secret"), nil
	}); err == nil {
		t.Error("token verified with the wrong secret")
	}
}

func TestNewRefreshToken(t *testing.T) {
	r1, err := NewRefreshToken(30)
	if err != nil {
		t.Fatalf("NewRefreshToken: %v", err)
	}
	if len(r1.Raw) != 96 {
		t.Errorf("raw length = %d, want 96 hex chars", len(r1.Raw))
	}
	if until := time.Until(r1.Exp); until < 29*24*time.Hour {
		t.Errorf("expiry %v not about 30 days out", r1.Exp)
	}
	r2, _ := NewRefreshToken(30)
	if r1.Raw == r2.Raw {
		t.Error("two refresh tokens must not collide")
	}
}

func TestHashRefreshRaw(t *testing.T) {
	h := HashRefreshRaw("some-token")
	if len(h) != 64 {
		t.Errorf("hash length = %d, want 64", len(h))
	}
	if h != HashRefreshRaw("some-token") {
		t.Error("hash must be deterministic")
	}
	if h == HashRefreshRaw("other-token") {
		t.Error("different tokens must hash differently")
	}
}

func TestNewID(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewID()
		if len(id) != 26 {
			t.Fatalf("id %q length = %d, want 26", id, len(id))
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2", 4) // min cost keeps the test fast
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !VerifyPassword(hash, "hunter2") {
		t.Error("correct password rejected")
	}
	if VerifyPassword(hash, "hunter3") {
		t.Error("wrong password accepted")
	}
}
