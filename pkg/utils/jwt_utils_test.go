package utils

import (
	"testing"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := GenerateAccessToken(42, "mario", "admin")
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("user ID = %d, want 42", claims.UserID)
	}
	if claims.Username != "mario" {
		t.Errorf("username = %q, want mario", claims.Username)
	}
	if claims.Role != "admin" {
		t.Errorf("role = %q, want admin", claims.Role)
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	token, err := GenerateRefreshToken(42)
	if err != nil {
		t.Fatalf("GenerateRefreshToken failed: %v", err)
	}
	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("user ID = %d, want 42", claims.UserID)
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	if _, err := ValidateToken("not.a.token"); err == nil {
		t.Error("garbage token was accepted")
	}
}

func TestValidateTokenRejectsWrongKey(t *testing.T) {
	original := jwtSecretKey
	defer func() { jwtSecretKey = original }()

	SetJWTSecret("key-used-to-sign")
	token, err := GenerateAccessToken(1, "mario", "operator")
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	SetJWTSecret("a-different-key")
	if _, err := ValidateToken(token); err == nil {
		t.Error("token signed with another key was accepted")
	}
}
