// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

// Package sealed keeps model gateway API keys encrypted at rest with
// age. A key is encrypted to one or more x25519 recipients and stored
// as base64 text, typically in the sealed_api_key field of the config
// file; it is decrypted at startup with an identity file in the
// format written by age-keygen and by "parley keygen".
//
// Key exports:
//
//   - [GenerateKeypair] -- new age x25519 keypair
//   - [Encrypt] -- encrypt to age public key recipients
//   - [Decrypt] / [DecryptWithIdentityFile] -- decrypt with an identity
//   - [ParsePublicKey] / [ParsePrivateKey] -- key validation
package sealed
