package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/hashburst/internal/config"
)

func TestValidatePassword(t *testing.T) {
	policy := config.PasswordPolicyConfig{MinLength: 8, RequireUpper: true, RequireNumber: true}
	cases := []struct {
		password string
		key      string
	}{
		{password: "Hash2026x", key: ""},
		{password: "Hash1", key: "error.password_too_short"},
		{password: "hash2026x", key: "error.password_require_upper"},
		{password: "Hashburst", key: "error.password_require_number"},
		{password: "A1" + strings.Repeat("x", 71), key: "error.password_too_long"},
	}
	for _, tc := range cases {
		err := validatePassword(policy, tc.password)
		if tc.key == "" {
			if err != nil {
				t.Fatalf("%q should pass, got %v", tc.password, err)
			}
			continue
		}
		if !errors.Is(err, ErrWeakPassword) {
			t.Fatalf("%q should be weak, got %v", tc.password, err)
		}
		var policyErr passwordPolicyError
		if !errors.As(err, &policyErr) || policyErr.Key() != tc.key {
			t.Fatalf("%q expected key %s, got %v", tc.password, tc.key, err)
		}
	}

	if err := validatePassword(config.PasswordPolicyConfig{}, "x"); err != nil {
		t.Fatalf("empty policy should accept anything short, got %v", err)
	}
}
