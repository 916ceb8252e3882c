package jwt

import (
	"errors"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("decoder-test-secret")

func signToken(t *testing.T, claims jwtv5.MapClaims) string {
	t.Helper()
	signed, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	return signed
}

func TestDecodeUnverifiedRealmRoles(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := signToken(t, jwtv5.MapClaims{
		"sub":                "user-1",
		"preferred_username": "alice",
		"email":              "alice@example.com",
		"realm_access":       map[string]any{"roles": []string{"ADMIN", "EMPLOYEE"}},
		"exp":                exp.Unix(),
	})

	claims, err := DecodeUnverified(token)
	if err != nil {
		t.Fatalf("DecodeUnverified failed: %v", err)
	}
	if claims.Subject != "user-1" || claims.Username != "alice" || claims.Email != "alice@example.com" {
		t.Fatalf("identity mismatch: %+v", claims)
	}
	if len(claims.Roles) != 2 || claims.Roles[0] != "ADMIN" {
		t.Fatalf("roles mismatch: %v", claims.Roles)
	}
	if !claims.ExpiresAt.Equal(exp) {
		t.Fatalf("expiry mismatch: got %v want %v", claims.ExpiresAt, exp)
	}
}

func TestDecodeUnverifiedTopLevelRolesFallback(t *testing.T) {
	token := signToken(t, jwtv5.MapClaims{
		"sub":   "user-2",
		"roles": []string{"NURSE"},
	})

	claims, err := DecodeUnverified(token)
	if err != nil {
		t.Fatalf("DecodeUnverified failed: %v", err)
	}
	if len(claims.Roles) != 1 || claims.Roles[0] != "NURSE" {
		t.Fatalf("fallback roles mismatch: %v", claims.Roles)
	}
}

func TestDecodeUnverifiedIgnoresSignature(t *testing.T) {
	// The decoder is a routing hint: a garbage signature must not matter.
	token := signToken(t, jwtv5.MapClaims{"sub": "user-3"})
	tampered := token[:len(token)-4] + "AAAA"

	claims, err := DecodeUnverified(tampered)
	if err != nil {
		t.Fatalf("DecodeUnverified failed on tampered signature: %v", err)
	}
	if claims.Subject != "user-3" {
		t.Fatalf("subject mismatch: %+v", claims)
	}
}

func TestDecodeUnverifiedMalformed(t *testing.T) {
	for _, token := range []string{"", "abc", "a.b", "!!!.???.###"} {
		if _, err := DecodeUnverified(token); !errors.Is(err, ErrMalformed) {
			t.Fatalf("DecodeUnverified(%q) = %v, want ErrMalformed", token, err)
		}
	}
}

func TestHasRole(t *testing.T) {
	claims := &Claims{Roles: []string{"ADMIN", "EMPLOYEE"}}
	if !claims.HasRole("ADMIN") {
		t.Fatal("expected ADMIN")
	}
	if claims.HasRole("RESP_RH") {
		t.Fatal("unexpected RESP_RH")
	}
	var nilClaims *Claims
	if nilClaims.HasRole("ADMIN") {
		t.Fatal("nil claims must hold no roles")
	}
}

func FuzzDecodeUnverified(f *testing.F) {
	f.Add("")
	f.Add("a.b.c")
	f.Add("eyJhbGciOiJIUzI1NiJ9.e30.x")
	f.Fuzz(func(t *testing.T, token string) {
		claims, err := DecodeUnverified(token)
		if err == nil && claims == nil {
			t.Fatal("nil claims without error")
		}
	})
}
