package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"
)

func newTestService(t *testing.T, accessTTL, refreshTTL time.Duration) *AuthService {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	privPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("marshal public key: %v", err)
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: pubDER,
	})

	svc, err := NewAuthService(privPEM, pubPEM, accessTTL, refreshTTL)
	if err != nil {
		t.Fatalf("new auth service: %v", err)
	}
	return svc
}

func TestGenerateTokenPair_RoundTrip(t *testing.T) {
	svc := newTestService(t, 15*time.Minute, 7*24*time.Hour)

	pair, err := svc.GenerateTokenPair(42)
	if err != nil {
		t.Fatalf("generate token pair: %v", err)
	}

	access, err := svc.ValidateToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("validate access token: %v", err)
	}
	if access.UserID != 42 || access.TokenType != "access" {
		t.Errorf("access claims: %+v", access)
	}
	if access.ID != "" {
		t.Errorf("access token should not carry a jti, got %q", access.ID)
	}

	refresh, err := svc.ValidateToken(pair.RefreshToken)
	if err != nil {
		t.Fatalf("validate refresh token: %v", err)
	}
	if refresh.UserID != 42 || refresh.TokenType != "refresh" {
		t.Errorf("refresh claims: %+v", refresh)
	}
	if refresh.ID == "" {
		t.Error("refresh token must carry a jti for blacklisting")
	}
}

func TestValidateToken_RejectsExpired(t *testing.T) {
	svc := newTestService(t, -time.Minute, time.Hour)

	pair, err := svc.GenerateTokenPair(1)
	if err != nil {
		t.Fatalf("generate token pair: %v", err)
	}
	if _, err := svc.ValidateToken(pair.AccessToken); err == nil {
		t.Fatal("expected expired access token to fail validation")
	}
}

func TestValidateToken_RejectsForeignSignature(t *testing.T) {
	issuer := newTestService(t, time.Minute, time.Hour)
	verifier := newTestService(t, time.Minute, time.Hour)

	pair, err := issuer.GenerateTokenPair(1)
	if err != nil {
		t.Fatalf("generate token pair: %v", err)
	}
	if _, err := verifier.ValidateToken(pair.AccessToken); err == nil {
		t.Fatal("expected token signed with another key to fail validation")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if !CheckPasswordHash("correct horse battery staple", hash) {
		t.Error("correct password rejected")
	}
	if CheckPasswordHash("wrong password", hash) {
		t.Error("wrong password accepted")
	}
}
