package credential

import (
	"errors"
	"testing"
)

func TestMemoryStore_RoundTrip(t *testing.T) {
	s := NewMemoryStore()

	if _, err := s.Get(AccessTokenKey); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on empty store, got %v", err)
	}

	if err := s.Set(AccessTokenKey, "tok-1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := s.Get(AccessTokenKey)
	if err != nil || got != "tok-1" {
		t.Fatalf("expected tok-1, got %q (%v)", got, err)
	}

	if err := s.Delete(AccessTokenKey); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(AccessTokenKey); err != nil {
		t.Errorf("deleting an absent key should succeed, got %v", err)
	}
}

func TestToken_AbsentIsEmpty(t *testing.T) {
	s := NewMemoryStore()

	tok, err := Token(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok != "" {
		t.Errorf("expected empty token, got %q", tok)
	}

	_ = s.Set(AccessTokenKey, "abc")
	tok, _ = Token(s)
	if tok != "abc" {
		t.Errorf("expected abc, got %q", tok)
	}
}
