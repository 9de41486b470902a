// Package codec provides at-rest protection for free-text columns. Values
// are encrypted with AES-GCM and stored as a versioned, base64-encoded
// token. The codec is wired into GORM as the "protected" field serializer,
// so services always see plaintext.
//
// Ciphertext is non-deterministic (random nonce per value), so protected
// columns cannot be filtered by equality in SQL; comparisons belong in the
// service layer after decoding.
package codec

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"reflect"
	"strings"

	"gorm.io/gorm/schema"
)

// prefix marks values written by this codec. Rows written before encryption
// was enabled carry no prefix and are passed through unchanged on read.
const prefix = "enc:v1:"

var aead cipher.AEAD

func init() {
	schema.RegisterSerializer("protected", Serializer{})
}

// Init configures the codec with a hex-encoded 256-bit key. An empty key
// disables encryption; values are then stored as plaintext.
func Init(keyHex string) error {
	if keyHex == "" {
		aead = nil
		return nil
	}

	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return fmt.Errorf("field encryption key is not valid hex: %w", err)
	}
	if len(key) != 32 {
		return fmt.Errorf("field encryption key must be 32 bytes, got %d", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return err
	}
	aead, err = cipher.NewGCM(block)
	return err
}

// Enabled reports whether a key has been configured.
func Enabled() bool { return aead != nil }

// Encode encrypts a plaintext value. With no key configured it returns the
// value unchanged.
func Encode(plain string) (string, error) {
	if aead == nil {
		return plain, nil
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := aead.Seal(nonce, nonce, []byte(plain), nil)
	return prefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decode decrypts a stored value. Values without the codec prefix are
// returned unchanged, which covers both disabled encryption and rows
// written before it was enabled.
func Decode(stored string) (string, error) {
	if !strings.HasPrefix(stored, prefix) {
		return stored, nil
	}
	if aead == nil {
		return "", fmt.Errorf("encrypted value found but no field encryption key is configured")
	}

	sealed, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(stored, prefix))
	if err != nil {
		return "", fmt.Errorf("malformed encrypted value: %w", err)
	}
	if len(sealed) < aead.NonceSize() {
		return "", fmt.Errorf("malformed encrypted value: too short")
	}

	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt value: %w", err)
	}
	return string(plain), nil
}

// Serializer adapts the codec to GORM's serializer interface for string
// fields tagged with `serializer:protected`.
type Serializer struct{}

// Scan decodes the database value into the struct field.
func (Serializer) Scan(ctx context.Context, field *schema.Field, dst reflect.Value, dbValue interface{}) error {
	var stored string
	switch v := dbValue.(type) {
	case nil:
	case string:
		stored = v
	case []byte:
		stored = string(v)
	default:
		return fmt.Errorf("protected serializer: unsupported database value type %T", dbValue)
	}

	plain, err := Decode(stored)
	if err != nil {
		return err
	}
	field.Set(ctx, dst, plain)
	return nil
}

// Value encodes the struct field for storage.
func (Serializer) Value(ctx context.Context, field *schema.Field, dst reflect.Value, fieldValue interface{}) (interface{}, error) {
	plain, ok := fieldValue.(string)
	if !ok {
		return nil, fmt.Errorf("protected serializer: field %s is not a string", field.Name)
	}
	return Encode(plain)
}
