// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/parley-dev/parley/lib/sealed"
)

// runKeygen writes a new age identity to path, or to out when path is
// empty, and reports the public key on status.
func runKeygen(out, status io.Writer, path string) error {
	keypair, err := sealed.GenerateKeypair()
	if err != nil {
		return err
	}
	identity := keypair.IdentityFile(time.Now().UTC())

	if path == "" {
		if _, err := io.WriteString(out, identity); err != nil {
			return err
		}
	} else {
		file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err != nil {
			return fmt.Errorf("writing identity: %w", err)
		}
		if _, err := io.WriteString(file, identity); err != nil {
			file.Close()
			return fmt.Errorf("writing identity: %w", err)
		}
		if err := file.Close(); err != nil {
			return fmt.Errorf("writing identity: %w", err)
		}
	}
	fmt.Fprintf(status, "Public key: %s\n", keypair.PublicKey)
	return nil
}

// runSeal encrypts the key read from in to recipients and writes the
// sealed value, ready for the sealed_api_key config field.
func runSeal(in io.Reader, out io.Writer, recipients []string) error {
	for _, recipient := range recipients {
		if err := sealed.ParsePublicKey(recipient); err != nil {
			return err
		}
	}
	secret, err := readSecret(in)
	if err != nil {
		return err
	}
	ciphertext, err := sealed.Encrypt([]byte(secret), recipients)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, ciphertext)
	return err
}
