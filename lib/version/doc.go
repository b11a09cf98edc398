// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

// Package version provides build version information for the parley
// binaries.
//
// Three variables are injected at build time via -ldflags -X:
//
//   - [GitCommit] -- short git SHA of the build
//   - [BuildTime] -- UTC timestamp of the build
//   - [Version] -- semantic version string (set manually for releases)
//
// When GitCommit is not injected, the VCS revision recorded by the Go
// toolchain is used instead, so "go install" builds still report the
// commit they were built from.
//
//	go build -ldflags "-X github.com/parley-dev/parley/lib/version.GitCommit=$(git rev-parse --short HEAD)" ./cmd/parley
package version
