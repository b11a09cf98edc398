// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package mcpsession

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// ServerSpec describes the subprocess that serves MCP on its stdio.
type ServerSpec struct {
	// Command is the executable to run, resolved through PATH.
	Command string

	Args []string

	// Env holds variables added to the inherited environment.
	Env map[string]string

	// Dir is the working directory. Empty means the current one.
	Dir string
}

// interpreters maps script extensions to the program that runs them.
var interpreters = map[string]string{
	".py": "python",
	".js": "node",
}

// ServerCommand returns the spec for running the server at path.
// Python and JavaScript sources run under their interpreter; any
// other path is executed directly.
func ServerCommand(path string, args ...string) (ServerSpec, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return ServerSpec{}, errors.New("mcpsession: server path is empty")
	}
	if interpreter, ok := interpreters[strings.ToLower(filepath.Ext(path))]; ok {
		return ServerSpec{
			Command: interpreter,
			Args:    append([]string{path}, args...),
		}, nil
	}
	return ServerSpec{Command: path, Args: append([]string(nil), args...)}, nil
}

// String renders the command line for logs.
func (spec ServerSpec) String() string {
	return strings.Join(append([]string{spec.Command}, spec.Args...), " ")
}

// command builds the exec.Cmd for spec. The process is not started.
func (spec ServerSpec) command() (*exec.Cmd, error) {
	if spec.Command == "" {
		return nil, errors.New("mcpsession: server command is empty")
	}
	// #nosec G204 -- the server command comes from the user's own config or command line.
	command := exec.Command(spec.Command, spec.Args...)
	command.Dir = spec.Dir
	if len(spec.Env) > 0 {
		command.Env = append(os.Environ(), spec.environment()...)
	}
	return command, nil
}

// environment returns Env as sorted KEY=value pairs.
func (spec ServerSpec) environment() []string {
	keys := make([]string, 0, len(spec.Env))
	for key := range spec.Env {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%s", key, spec.Env[key]))
	}
	return pairs
}
