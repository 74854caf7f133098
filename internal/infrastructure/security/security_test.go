package security

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestTokenManagerRoundTrip(t *testing.T) {
	m := NewTokenManager("access-secret", "refresh-secret", time.Minute, time.Hour)
	uid := uuid.New()

	access, refresh, err := m.Generate(uid)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	got, exp, err := m.Verify(access)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got != uid {
		t.Fatalf("Verify returned %s, want %s", got, uid)
	}
	if exp.Before(time.Now()) {
		t.Fatalf("expiry %v is in the past", exp)
	}

	rid, err := m.ValidateRefreshToken(refresh)
	if err != nil || rid != uid {
		t.Fatalf("ValidateRefreshToken = %s, %v", rid, err)
	}
}

func TestTokenManagerRejectsWrongTokens(t *testing.T) {
	m := NewTokenManager("access-secret", "refresh-secret", time.Minute, time.Hour)
	access, refresh, err := m.Generate(uuid.New())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if _, _, err := m.Verify(refresh); err == nil {
		t.Fatal("refresh token accepted as access token")
	}
	if _, err := m.ValidateRefreshToken(access); err == nil {
		t.Fatal("access token accepted as refresh token")
	}
	if _, _, err := m.Verify("not-a-jwt"); err == nil {
		t.Fatal("garbage accepted")
	}

	other := NewTokenManager("other-secret", "refresh-secret", time.Minute, time.Hour)
	if _, _, err := other.Verify(access); err == nil {
		t.Fatal("token signed with a different secret accepted")
	}
}

func TestTokenManagerExpiry(t *testing.T) {
	m := NewTokenManager("access-secret", "refresh-secret", time.Minute, time.Hour)
	issued := time.Now()
	m.now = func() time.Time { return issued }
	access, _, err := m.Generate(uuid.New())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	m.now = func() time.Time { return issued.Add(2 * time.Minute) }
	if _, _, err := m.Verify(access); err == nil {
		t.Fatal("expired token accepted")
	}
}

func TestPasswordHasher(t *testing.T) {
	h := &PasswordHasher{cost: 4}
	hash, err := h.Hash("Secret123")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if err := h.Compare(hash, "Secret123"); err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if err := h.Compare(hash, "wrong"); err == nil {
		t.Fatal("wrong password accepted")
	}
}

func TestOpaqueToken(t *testing.T) {
	plain, digest, err := NewOpaqueToken()
	if err != nil {
		t.Fatalf("NewOpaqueToken: %v", err)
	}
	if len(plain) != 64 || plain == digest {
		t.Fatalf("unexpected token %q / %q", plain, digest)
	}
	if HashOpaqueToken(plain) != digest {
		t.Fatal("digest mismatch")
	}
}
