package main

import (
	"context"
	"testing"
)

func TestAuthRegisterLogin(t *testing.T) {
	ctx := context.Background()
	auth := NewAuth(NewMemoryStore(), "test-secret")

	u, token, err := auth.Register(ctx, "alice", "hunter2")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Username != "alice" || token == "" {
		t.Errorf("unexpected registration result %+v / %q", u, token)
	}

	if _, _, err := auth.Register(ctx, "alice", "hunter2"); err == nil {
		t.Error("duplicate username should fail")
	}
	if _, _, err := auth.Register(ctx, "a", "hunter2"); err == nil {
		t.Error("short username should fail")
	}
	if _, _, err := auth.Register(ctx, "bob", "x"); err == nil {
		t.Error("short password should fail")
	}

	lu, ltoken, err := auth.Login(ctx, "alice", "hunter2", "127.0.0.1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if lu.ID != u.ID || ltoken == "" {
		t.Error("login should return the registered user and a token")
	}

	if _, _, err := auth.Login(ctx, "alice", "wrong", "127.0.0.1"); err == nil {
		t.Error("wrong password should fail")
	}
	if _, _, err := auth.Login(ctx, "nobody", "hunter2", "127.0.0.1"); err == nil {
		t.Error("unknown user should fail")
	}
}

func TestAuthValidateToken(t *testing.T) {
	ctx := context.Background()
	auth := NewAuth(NewMemoryStore(), "test-secret")

	u, token, err := auth.Register(ctx, "alice", "hunter2")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	uid, username, err := auth.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if uid != u.ID || username != "alice" {
		t.Errorf("unexpected claims %s/%s", uid, username)
	}

	if _, _, err := auth.ValidateToken("garbage"); err == nil {
		t.Error("garbage token should fail")
	}

	// Tokens from a different secret are rejected.
	other := NewAuth(NewMemoryStore(), "other-secret")
	if _, _, err := other.ValidateToken(token); err == nil {
		t.Error("foreign token should fail")
	}
}

func TestAuthLoginRateLimit(t *testing.T) {
	ctx := context.Background()
	auth := NewAuth(NewMemoryStore(), "test-secret")
	if _, _, err := auth.Register(ctx, "alice", "hunter2"); err != nil {
		t.Fatalf("register: %v", err)
	}

	for i := 0; i < maxLoginAttempts; i++ {
		auth.Login(ctx, "alice", "wrong", "10.0.0.9")
	}
	if _, _, err := auth.Login(ctx, "alice", "hunter2", "10.0.0.9"); err == nil {
		t.Error("expected rate limit after repeated attempts")
	}
	// Other addresses are unaffected.
	if _, _, err := auth.Login(ctx, "alice", "hunter2", "10.0.0.10"); err != nil {
		t.Errorf("other IP should still log in: %v", err)
	}
}
