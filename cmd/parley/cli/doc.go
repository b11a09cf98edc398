// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the command framework of the parley binary: a tree of
// [Command] values with pflag flag sets, generated help, and "did you
// mean" suggestions for mistyped commands and flags.
package cli
