package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/inkmint/inkmint-backend/pkg/config"
	"github.com/inkmint/inkmint-backend/pkg/enums"
)

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:            "secret",
		Issuer:            "inkmint",
		ExpirationMinutes: 30,
	}
	now := time.Now().UTC()
	userID := uuid.New()

	payload := AccessTokenPayload{
		UserID: userID,
		Role:   enums.UserRoleCustomer,
	}

	token, err := MintAccessToken(cfg, now, payload)
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}

	if claims.UserID != userID {
		t.Fatalf("expected user_id %s, got %s", userID, claims.UserID)
	}
	if claims.Role != enums.UserRoleCustomer {
		t.Fatalf("unexpected role %s", claims.Role)
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("expected issuer %s, got %s", cfg.Issuer, claims.Issuer)
	}
	if claims.ID == "" {
		t.Fatalf("expected generated jti")
	}

	exp := now.Add(time.Duration(cfg.ExpirationMinutes) * time.Minute)
	diff := claims.ExpiresAt.Sub(exp)
	if diff < 0 {
		diff = -diff
	}
	if diff >= time.Second {
		t.Fatalf("expected exp roughly %v, got %v (diff %v)", exp.UTC(), claims.ExpiresAt.UTC(), diff)
	}
}

func TestMintAccessTokenRejectsInvalidRole(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "inkmint", ExpirationMinutes: 10}
	_, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.UserRole("superuser"),
	})
	if err == nil || !strings.Contains(err.Error(), "invalid user role") {
		t.Fatalf("expected invalid role error, got %v", err)
	}
}

func TestParseAccessTokenInvalidSignature(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "inkmint", ExpirationMinutes: 10}
	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.UserRoleAdmin,
	})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	other := config.JWTConfig{Secret: "different", Issuer: "inkmint", ExpirationMinutes: 10}
	if _, err := ParseAccessToken(other, token); err == nil {
		t.Fatalf("expected signature verification failure")
	}
}

func TestParseAccessTokenAllowExpired(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "inkmint", ExpirationMinutes: 5}
	past := time.Now().Add(-time.Hour)
	token, err := MintAccessToken(cfg, past, AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.UserRoleCustomer,
		JTI:    "known-jti",
	})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	if _, err := ParseAccessToken(cfg, token); err == nil {
		t.Fatalf("expected expired token to fail strict parse")
	}

	claims, err := ParseAccessTokenAllowExpired(cfg, token)
	if err != nil {
		t.Fatalf("lenient parse failed: %v", err)
	}
	if claims.ID != "known-jti" {
		t.Fatalf("expected jti to survive lenient parse, got %q", claims.ID)
	}
}
