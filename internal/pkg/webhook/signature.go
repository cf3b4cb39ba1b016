package webhook

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

const ivLength = 12

// SignLogin encrypts login with AES-256-GCM under the base64 key and returns
// base64(iv || tag || ciphertext).
func SignLogin(login, keyBase64 string) (string, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(keyBase64))
	if err != nil {
		return "", fmt.Errorf("decode webhook key: %w", err)
	}
	if len(key) != 32 {
		return "", errors.New("webhook key must be 32 bytes")
	}

	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}
	iv := make([]byte, ivLength)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nil, iv, []byte(login), nil)
	split := len(sealed) - gcm.Overhead()
	ciphertext, tag := sealed[:split], sealed[split:]

	out := make([]byte, 0, len(iv)+len(tag)+len(ciphertext))
	out = append(out, iv...)
	out = append(out, tag...)
	out = append(out, ciphertext...)
	return base64.StdEncoding.EncodeToString(out), nil
}

// OpenSignature reverses SignLogin. Receivers use it to authenticate calls.
func OpenSignature(signature, keyBase64 string) (string, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(keyBase64))
	if err != nil {
		return "", fmt.Errorf("decode webhook key: %w", err)
	}
	raw, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return "", fmt.Errorf("decode signature: %w", err)
	}
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}
	if len(raw) < ivLength+gcm.Overhead() {
		return "", errors.New("signature too short")
	}

	iv := raw[:ivLength]
	tag := raw[ivLength : ivLength+gcm.Overhead()]
	ciphertext := raw[ivLength+gcm.Overhead():]

	sealed := append(append([]byte{}, ciphertext...), tag...)
	plain, err := gcm.Open(nil, iv, sealed, nil)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
