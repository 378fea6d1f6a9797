package secrets

import (
	"context"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestLocalProviderReturnsConfiguredCredentials(t *testing.T) {
	p := NewLocalProvider(Config{LocalUser: "admin", LocalPass: "hunter2", LocalToken: "tok"})
	user, pass, token, err := p.HealthCredentials(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user != "admin" || pass != "hunter2" || token != "tok" {
		t.Errorf("got (%q,%q,%q)", user, pass, token)
	}
}

func TestNewSelectsBackendByConfig(t *testing.T) {
	p, err := New(Config{Backend: "local", LocalUser: "u"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := p.(*LocalProvider); !ok {
		t.Errorf("expected *LocalProvider, got %T", p)
	}

	if _, err := New(Config{Backend: "onepassword"}); err == nil {
		t.Error("expected error when 1password config is incomplete")
	}

	if _, err := New(Config{Backend: "bogus"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestVerifyPasswordPlaintext(t *testing.T) {
	if !VerifyPassword("hunter2", "hunter2") {
		t.Error("expected plaintext match")
	}
	if VerifyPassword("hunter2", "wrong") {
		t.Error("expected plaintext mismatch to fail")
	}
	if VerifyPassword("", "anything") {
		t.Error("expected empty stored password to never match")
	}
}

func TestVerifyPasswordBcrypt(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("generating hash: %v", err)
	}
	if !VerifyPassword(string(hash), "hunter2") {
		t.Error("expected bcrypt match")
	}
	if VerifyPassword(string(hash), "wrong") {
		t.Error("expected bcrypt mismatch to fail")
	}
}

func TestVerifyToken(t *testing.T) {
	if !VerifyToken("secret-token", "secret-token") {
		t.Error("expected token match")
	}
	if VerifyToken("secret-token", "other") {
		t.Error("expected token mismatch to fail")
	}
	if VerifyToken("", "") {
		t.Error("expected empty configured token to never match")
	}
}
