package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateAndVerify(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	raw, exp, err := m.GenerateAccessToken("user-1", "worker", "Ravi")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatalf("expiry should be in the future, got %s", exp)
	}

	claims, err := m.VerifyAccessToken(raw)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != "user-1" || claims.Role != "worker" || claims.Name != "Ravi" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestDefaultTTLIsOneDay(t *testing.T) {
	m := NewManager("s", 0)
	fixed := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return fixed }

	_, exp, err := m.GenerateAccessToken("u", "contractor", "Asha")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !exp.Equal(fixed.Add(24 * time.Hour)) {
		t.Fatalf("expected one day ttl, got %s", exp.Sub(fixed))
	}
}

func TestVerify_Rejects(t *testing.T) {
	m := NewManager("right-secret", time.Hour)
	other := NewManager("wrong-secret", time.Hour)

	foreign, _, _ := other.GenerateAccessToken("u", "worker", "n")

	expiredMgr := NewManager("right-secret", time.Hour)
	expiredMgr.now = func() time.Time { return time.Now().Add(-3 * time.Hour) }
	expired, _, _ := expiredMgr.GenerateAccessToken("u", "worker", "n")

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "u", Role: "worker"})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := map[string]string{
		"garbage":      "not-a-token",
		"wrong secret": foreign,
		"expired":      expired,
		"alg none":     unsigned,
	}

	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := m.VerifyAccessToken(raw); err == nil {
				t.Fatalf("expected %s token to be rejected", name)
			}
		})
	}
}
