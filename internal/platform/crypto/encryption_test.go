package crypto

import (
	"bytes"
	"testing"
)

func TestSealOpenRoundTrip(t *testing.T) {
	svc, err := New("0123456789abcdef0123456789abcdef")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if !svc.Configured() {
		t.Fatal("expected configured service")
	}
	sealed, err := svc.SealString("quarterly numbers attached")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if bytes.Contains(sealed, []byte("quarterly")) {
		t.Fatal("expected ciphertext not to contain plaintext")
	}
	plain, err := svc.OpenString(sealed)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if plain != "quarterly numbers attached" {
		t.Fatalf("unexpected plaintext %q", plain)
	}
}

func TestUnconfiguredPassesThrough(t *testing.T) {
	svc, err := New("")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	sealed, err := svc.SealString("hello")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if string(sealed) != "hello" {
		t.Fatalf("expected passthrough, got %q", sealed)
	}
}

func TestNewRejectsShortKey(t *testing.T) {
	if _, err := New("short"); err == nil {
		t.Fatal("expected short key to be rejected")
	}
}

func TestOpenRejectsTruncatedInput(t *testing.T) {
	svc, err := New("0123456789abcdef0123456789abcdef")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := svc.Open([]byte{1, 2, 3}); err != ErrCiphertextTooShort {
		t.Fatalf("expected ErrCiphertextTooShort, got %v", err)
	}
}
