package codec

import (
	"strings"
	"testing"
)

// testKey is a hex-encoded 256-bit key for tests only.
const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestInit(t *testing.T) {
	t.Cleanup(func() { _ = Init("") })

	t.Run("empty_key_disables", func(t *testing.T) {
		if err := Init(""); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if Enabled() {
			t.Error("expected codec to be disabled")
		}
	})

	t.Run("invalid_hex", func(t *testing.T) {
		if err := Init("not-hex"); err == nil {
			t.Error("expected error for invalid hex key")
		}
	})

	t.Run("wrong_length", func(t *testing.T) {
		if err := Init("abcd"); err == nil {
			t.Error("expected error for short key")
		}
	})

	t.Run("valid_key", func(t *testing.T) {
		if err := Init(testKey); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !Enabled() {
			t.Error("expected codec to be enabled")
		}
	})
}

func TestEncodeDecode(t *testing.T) {
	t.Cleanup(func() { _ = Init("") })

	t.Run("round_trip", func(t *testing.T) {
		if err := Init(testKey); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		stored, err := Encode("Grocery Store")
		if err != nil {
			t.Fatalf("encode failed: %v", err)
		}
		if !strings.HasPrefix(stored, "enc:v1:") {
			t.Errorf("expected versioned prefix, got %q", stored)
		}
		if strings.Contains(stored, "Grocery") {
			t.Error("ciphertext leaks plaintext")
		}

		plain, err := Decode(stored)
		if err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if plain != "Grocery Store" {
			t.Errorf("expected round trip, got %q", plain)
		}
	})

	t.Run("nondeterministic", func(t *testing.T) {
		if err := Init(testKey); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		a, _ := Encode("same value")
		b, _ := Encode("same value")
		if a == b {
			t.Error("expected distinct ciphertexts for the same plaintext")
		}
	})

	t.Run("plaintext_passthrough", func(t *testing.T) {
		if err := Init(testKey); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		plain, err := Decode("legacy plaintext row")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if plain != "legacy plaintext row" {
			t.Errorf("expected passthrough, got %q", plain)
		}
	})

	t.Run("disabled_is_identity", func(t *testing.T) {
		if err := Init(""); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		stored, err := Encode("no key configured")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if stored != "no key configured" {
			t.Errorf("expected identity encode, got %q", stored)
		}
	})

	t.Run("encrypted_value_without_key", func(t *testing.T) {
		if err := Init(testKey); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		stored, _ := Encode("secret")

		if err := Init(""); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := Decode(stored); err == nil {
			t.Error("expected error decoding without a key")
		}
	})

	t.Run("malformed_token", func(t *testing.T) {
		if err := Init(testKey); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := Decode("enc:v1:!!!not-base64!!!"); err == nil {
			t.Error("expected error for malformed token")
		}
	})
}
