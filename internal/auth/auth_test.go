package auth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pwannenmacher/credvault/internal/config"
	"github.com/pwannenmacher/credvault/internal/models"
)

func newTestService(t *testing.T, expiration time.Duration) *Service {
	t.Helper()
	return NewService(&config.JWTConfig{Secret: "dev-secret", Expiration: expiration})
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc := newTestService(t, time.Hour)
	identity := models.Identity{ID: "u1", DisplayName: "Sarah Chen", Email: "sarah@credvault.test", Role: models.RoleStudent}

	token, jti, err := svc.GenerateToken(identity)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if token == "" || jti == "" {
		t.Fatal("expected token and jti")
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.Identity() != identity {
		t.Errorf("Identity() = %+v, expected %+v", claims.Identity(), identity)
	}
	if claims.ID != jti {
		t.Errorf("claims.ID = %q, expected %q", claims.ID, jti)
	}

	got, err := svc.ExtractJTI(token)
	if err != nil || got != jti {
		t.Errorf("ExtractJTI() = %q, %v; expected %q", got, err, jti)
	}
}

func TestValidateTokenFailures(t *testing.T) {
	svc := newTestService(t, time.Hour)
	other := newTestService(t, time.Hour)
	expired := newTestService(t, -time.Minute)
	expired.privateKey, expired.publicKey = svc.privateKey, svc.publicKey

	foreign, _, _ := other.GenerateToken(models.Identity{ID: "u1", Role: models.RoleFaculty})
	stale, _, _ := expired.GenerateToken(models.Identity{ID: "u1", Role: models.RoleFaculty})
	badRole, _, _ := svc.GenerateToken(models.Identity{ID: "u1", Role: "dean"})

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{"garbage", "not-a-token", ErrInvalidToken},
		{"signed by another key", foreign, ErrInvalidToken},
		{"expired", stale, ErrExpiredToken},
		{"unknown role", badRole, ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateToken(tt.token)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateToken() error = %v, expected %v", err, tt.wantErr)
			}
		})
	}

	// logout still needs the jti of an expired token
	if jti, err := svc.ExtractJTI(stale); err != nil || jti == "" {
		t.Errorf("ExtractJTI(expired) = %q, %v", jti, err)
	}
	if _, err := svc.ExtractJTI("not-a-token"); err == nil {
		t.Error("ExtractJTI(garbage) should fail")
	}
}

func TestPasswordHashing(t *testing.T) {
	svc := newTestService(t, time.Hour)

	hash, err := svc.HashPassword("123456")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == "123456" {
		t.Fatal("hash equals plaintext")
	}
	if err := svc.VerifyPassword(hash, "123456"); err != nil {
		t.Errorf("VerifyPassword(correct) error = %v", err)
	}
	if err := svc.VerifyPassword(hash, "654321"); err == nil {
		t.Error("VerifyPassword(wrong) should fail")
	}
}

func TestLoadOrGenerateKeys(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatal(err)
	}
	pemText := string(pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der}))

	tests := []struct {
		name   string
		secret string
	}{
		{"multi-line PEM", pemText},
		{"escaped single line", strings.ReplaceAll(pemText, "\n", `\n`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			priv, pub := loadOrGenerateKeys(tt.secret)
			if !priv.Equal(key) || !pub.Equal(&key.PublicKey) {
				t.Error("loaded key does not match the configured one")
			}
		})
	}

	priv, _ := loadOrGenerateKeys("plain-secret")
	if priv == nil || priv.Equal(key) {
		t.Error("expected a freshly generated key for a non-PEM secret")
	}
}

func TestGenerateRandomToken(t *testing.T) {
	a, err := GenerateRandomToken(32)
	if err != nil {
		t.Fatalf("GenerateRandomToken() error = %v", err)
	}
	b, _ := GenerateRandomToken(32)
	if a == b {
		t.Error("expected distinct tokens")
	}
	if strings.ContainsAny(a, "+/") {
		t.Errorf("token %q is not URL-safe", a)
	}
}
