// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package sealed

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func mustKeypair(t *testing.T) *Keypair {
	t.Helper()
	keypair, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	return keypair
}

func TestGenerateKeypair(t *testing.T) {
	t.Parallel()

	keypair := mustKeypair(t)
	if !strings.HasPrefix(keypair.PrivateKey, "AGE-SECRET-KEY-1") {
		t.Errorf("PrivateKey has wrong prefix")
	}
	if !strings.HasPrefix(keypair.PublicKey, "age1") {
		t.Errorf("PublicKey = %q, want prefix age1", keypair.PublicKey)
	}
	if other := mustKeypair(t); other.PrivateKey == keypair.PrivateKey || other.PublicKey == keypair.PublicKey {
		t.Error("two generated keypairs are identical")
	}
	if err := ParsePublicKey(keypair.PublicKey); err != nil {
		t.Errorf("ParsePublicKey: %v", err)
	}
	if err := ParsePrivateKey(keypair.PrivateKey); err != nil {
		t.Errorf("ParsePrivateKey: %v", err)
	}
}

func TestEncryptDecrypt(t *testing.T) {
	t.Parallel()

	first, second := mustKeypair(t), mustKeypair(t)
	plaintext := []byte("sk-or-v1-0123456789")

	ciphertext, err := Encrypt(plaintext, []string{first.PublicKey, " " + second.PublicKey + "\n"})
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}
	if _, err := base64.StdEncoding.DecodeString(ciphertext); err != nil {
		t.Errorf("Encrypt() returned invalid base64: %v", err)
	}

	for _, keypair := range []*Keypair{first, second} {
		decrypted, err := Decrypt(ciphertext, keypair.PrivateKey)
		if err != nil {
			t.Fatalf("Decrypt() error: %v", err)
		}
		if string(decrypted) != string(plaintext) {
			t.Errorf("Decrypt() = %q, want %q", decrypted, plaintext)
		}
	}

	if _, err := Decrypt(ciphertext, mustKeypair(t).PrivateKey); err == nil {
		t.Error("Decrypt() with an unrelated key succeeded")
	}
}

func TestEncryptErrors(t *testing.T) {
	t.Parallel()

	if _, err := Encrypt([]byte("x"), nil); err == nil {
		t.Error("Encrypt() without recipients succeeded")
	}
	if _, err := Encrypt([]byte("x"), []string{"age1notakey"}); err == nil {
		t.Error("Encrypt() with an invalid recipient succeeded")
	}
}

func TestDecryptErrors(t *testing.T) {
	t.Parallel()

	keypair := mustKeypair(t)
	tests := []struct {
		name       string
		ciphertext string
		privateKey string
	}{
		{"invalid private key", "AAAA", "AGE-SECRET-KEY-1BOGUS"},
		{"invalid base64", "!!!not base64!!!", keypair.PrivateKey},
		{"not age", base64.StdEncoding.EncodeToString([]byte("plain text")), keypair.PrivateKey},
	}
	for _, test := range tests {
		if _, err := Decrypt(test.ciphertext, test.privateKey); err == nil {
			t.Errorf("%s: Decrypt() succeeded", test.name)
		}
	}
}

func TestDecryptWithIdentityFile(t *testing.T) {
	t.Parallel()

	keypair := mustKeypair(t)
	path := filepath.Join(t.TempDir(), "identity.txt")
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	identityFile := keypair.IdentityFile(created)
	if !strings.HasPrefix(identityFile, "# created: 2026-01-02T03:04:05Z\n# public key: "+keypair.PublicKey+"\n") {
		t.Errorf("identity file header = %q", identityFile)
	}
	if err := os.WriteFile(path, []byte(identityFile), 0o600); err != nil {
		t.Fatal(err)
	}

	ciphertext, err := Encrypt([]byte("secret"), []string{keypair.PublicKey})
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}
	plaintext, err := DecryptWithIdentityFile(ciphertext+"\n", path)
	if err != nil {
		t.Fatalf("DecryptWithIdentityFile() error: %v", err)
	}
	if string(plaintext) != "secret" {
		t.Errorf("plaintext = %q", plaintext)
	}

	if _, err := DecryptWithIdentityFile(ciphertext, filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("missing identity file accepted")
	}
}
