package auth

import (
	"strings"
	"testing"
)

func TestHashPassword(t *testing.T) {
	digest, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	salt, _, ok := strings.Cut(digest, "$")
	if !ok {
		t.Fatalf("digest %q has no salt separator", digest)
	}
	if salt == "" {
		t.Error("digest has empty salt")
	}

	if !VerifyPassword("correct horse battery staple", digest) {
		t.Error("correct password rejected")
	}
	if VerifyPassword("wrong password", digest) {
		t.Error("wrong password accepted")
	}

	again, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if again == digest {
		t.Error("two digests of the same password share a salt")
	}
}

func TestHashPassword_Empty(t *testing.T) {
	if _, err := HashPassword(""); err == nil {
		t.Error("expected error for empty password")
	}
}

func TestHashPassword_Normalization(t *testing.T) {
	// U+00E9 (precomposed) and U+0065 U+0301 (combining) are the same
	// text in NFKD, so either spelling must verify.
	digest, err := HashPassword("café")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if !VerifyPassword("café", digest) {
		t.Error("combining-form spelling rejected")
	}
}

func TestVerifyPassword_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		digest string
	}{
		{"Empty", ""},
		{"NoSeparator", "c2FsdA"},
		{"BadSaltBase64", "not!base64$aGFzaA"},
		{"BadHashBase64", "c2FsdA$not!base64"},
		{"ShortHash", "c2FsdA$aGFzaA"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if VerifyPassword("anything", tt.digest) {
				t.Errorf("malformed digest %q accepted", tt.digest)
			}
		})
	}
}
