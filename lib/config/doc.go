// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads parley configuration.
//
// Configuration comes from at most one file, named by the --config
// flag or the PARLEY_CONFIG environment variable. Files ending in
// .json or .jsonc are read as JSON with comments and trailing commas;
// anything else is read as YAML. Without a file the defaults apply,
// since parley is usable with nothing but an API key in the
// environment.
//
// After the file is loaded, PARLEY_MODEL, PARLEY_BASE_URL and
// PARLEY_GATEWAY override the corresponding fields, and ${VAR} or
// ${VAR:-default} references in path fields are expanded.
//
// The API key itself is never stored in plain text in the file: it is
// read from the environment variable named by api_key_env, or
// decrypted from sealed_api_key with the age identity in
// identity_file.
package config
