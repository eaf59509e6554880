package services

import (
	"encoding/base64"
	"testing"
)

func TestGenerateStateTokenEntropy(t *testing.T) {
	token := GenerateStateToken()

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		t.Fatalf("token is not URL-safe base64: %v", err)
	}
	if len(raw) != stateTokenBytes {
		t.Errorf("expected %d bytes of entropy, got %d", stateTokenBytes, len(raw))
	}
}

func TestGenerateStateTokenUnique(t *testing.T) {
	const n = 100000

	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		token := GenerateStateToken()
		if _, dup := seen[token]; dup {
			t.Fatalf("duplicate token after %d generations", i)
		}
		seen[token] = struct{}{}
	}
}

func TestGenerateStateTokenURLSafe(t *testing.T) {
	for i := 0; i < 100; i++ {
		token := GenerateStateToken()
		for _, r := range token {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			default:
				t.Fatalf("token contains non-URL-safe character %q", r)
			}
		}
	}
}
