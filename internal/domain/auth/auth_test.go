package auth

import (
	"errors"
	"testing"
	"time"
)

func TestTokenRoundTripCarriesScope(t *testing.T) {
	token, err := GenerateToken("secret", Claims{
		UserID:      "u-1",
		Role:        RoleCEO,
		SectorID:    "s-1",
		SubsectorID: "ss-1",
	}, time.Minute)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	claims, err := ParseToken("secret", token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	ctx := claims.UserContext()
	if ctx.UserID != "u-1" || ctx.Role != RoleCEO || ctx.SectorID != "s-1" || ctx.SubsectorID != "ss-1" {
		t.Fatalf("unexpected user context %+v", ctx)
	}
	if claims.Subject != "u-1" {
		t.Fatalf("expected subject u-1, got %q", claims.Subject)
	}
}

func TestParseTokenRejectsWrongSecretAndExpiry(t *testing.T) {
	token, err := GenerateToken("secret", Claims{UserID: "u-1", Role: RoleWorker}, time.Minute)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if _, err := ParseToken("other", token); err == nil {
		t.Fatal("expected signature mismatch")
	}

	expired, err := GenerateToken("secret", Claims{UserID: "u-1", Role: RoleWorker}, -time.Minute)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if _, err := ParseToken("secret", expired); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("Passw0rd!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := CheckPassword(hash, "Passw0rd!"); err != nil {
		t.Fatalf("expected match: %v", err)
	}
	if err := CheckPassword(hash, "wrong"); err == nil {
		t.Fatal("expected mismatch")
	}
}

func TestValidateUserScope(t *testing.T) {
	tests := []struct {
		name        string
		role        string
		sectorID    string
		subsectorID string
		wantErr     bool
	}{
		{name: "minister needs nothing", role: RoleMinister},
		{name: "chief ceo needs sector", role: RoleChiefCEO, wantErr: true},
		{name: "chief ceo with sector", role: RoleChiefCEO, sectorID: "s"},
		{name: "ceo needs subsector", role: RoleCEO, sectorID: "s", wantErr: true},
		{name: "worker full scope", role: RoleWorker, sectorID: "s", subsectorID: "ss"},
		{name: "subsector without sector", role: RoleStrategicUnit, subsectorID: "ss", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateUserScope(tc.role, tc.sectorID, tc.subsectorID)
			if tc.wantErr && !errors.Is(err, ErrInvalidScope) {
				t.Fatalf("expected ErrInvalidScope, got %v", err)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestHasRole(t *testing.T) {
	if !HasRole(RoleCEO, ValidatorRoles...) {
		t.Fatal("CEO should be a validator")
	}
	if HasRole(RoleWorker, ValidatorRoles...) {
		t.Fatal("Worker should not be a validator")
	}
	if IsValidRole("Director") {
		t.Fatal("unknown role accepted")
	}
}
