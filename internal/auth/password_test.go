package auth

import (
	"slices"
	"testing"
)

func TestCheckPasswordStrengthReportsAllViolations(t *testing.T) {
	ok, violations := CheckPasswordStrength("abc")
	if ok {
		t.Fatalf("expected weak password to fail")
	}
	want := []PasswordViolation{
		PasswordTooShort,
		PasswordMissingUpper,
		PasswordMissingDigit,
		PasswordMissingSymbol,
	}
	for _, v := range want {
		if !slices.Contains(violations, v) {
			t.Fatalf("missing violation %q in %v", v, violations)
		}
	}
	if len(violations) != 4 {
		t.Fatalf("expected 4 violations for %q, got %v", "abc", violations)
	}
}

func TestCheckPasswordStrengthAllClassesMissing(t *testing.T) {
	// Empty input fails every rule at once, including lowercase.
	ok, violations := CheckPasswordStrength("")
	if ok {
		t.Fatalf("expected empty password to fail")
	}
	if len(violations) != 5 {
		t.Fatalf("expected all 5 violations, got %v", violations)
	}
}

func TestCheckPasswordStrengthTable(t *testing.T) {
	cases := []struct {
		password string
		ok       bool
		missing  PasswordViolation
	}{
		{"Str0ng!pass", true, ""},
		{"Sh0r!t", false, PasswordTooShort},
		{"str0ng!pass", false, PasswordMissingUpper},
		{"STR0NG!PASS", false, PasswordMissingLower},
		{"Strong!pass", false, PasswordMissingDigit},
		{"Str0ngpass", false, PasswordMissingSymbol},
	}
	for _, tc := range cases {
		ok, violations := CheckPasswordStrength(tc.password)
		if ok != tc.ok {
			t.Fatalf("password %q: expected ok=%v, got %v (%v)", tc.password, tc.ok, ok, violations)
		}
		if tc.missing != "" && !slices.Contains(violations, tc.missing) {
			t.Fatalf("password %q: expected violation %q, got %v", tc.password, tc.missing, violations)
		}
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Str0ng!pass")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "Str0ng!pass" {
		t.Fatalf("hash must not equal plaintext")
	}
	if !VerifyPassword(hash, "Str0ng!pass") {
		t.Fatalf("expected verification to succeed")
	}
	if VerifyPassword(hash, "wrong-password") {
		t.Fatalf("expected verification to fail for wrong password")
	}
	if VerifyPassword("", "Str0ng!pass") {
		t.Fatalf("empty hash must never verify")
	}
}
