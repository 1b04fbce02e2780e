// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package runner executes external command lines for task bodies and
// reports the child's exit code. It never turns a non-zero exit into an
// error; the code is the contract and callers decide what to do with it.
package runner

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/dootrun/doot/pkg/compose"
	"github.com/dootrun/doot/pkg/shellwords"
	"golang.org/x/term"
)

// Exit code returned when the child process could not be started, following
// the shell convention for "command not found".
const codeStartFailed = 127

var isTerminalFn = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }

// Runner runs commands on behalf of a task manager. The sinks receive
// display lines (echoed commands, status, diagnostics); NewCmd is the
// process-construction seam used by tests.
type Runner struct {
	// Echo receives the reconstructed command line before execution.
	Echo func(string)
	// Info and Error receive status and diagnostic lines.
	Info  func(string)
	Error func(string)
	// DefaultContainer is used by CRun when no container option is given.
	DefaultContainer string
	// NewCmd constructs the child process. Defaults to a command wired to
	// the parent's stdio.
	NewCmd func(name string, arg ...string) *exec.Cmd
}

// New returns a Runner with stdout/stderr-backed sinks.
func New() *Runner {
	return &Runner{
		Echo:  func(s string) { fmt.Println(" -> " + s) },
		Info:  func(s string) { fmt.Println(s) },
		Error: func(s string) { fmt.Fprintln(os.Stderr, "ERROR: "+s) },
	}
}

type runOpts struct {
	extra     []string
	echo      bool
	logStatus bool
	dir       string
	env       map[string]string
	container string
	stdin     io.Reader
	stdout    io.Writer
	stderr    io.Writer
}

// Opt customizes a single Run or CRun call.
type Opt func(*runOpts)

// WithExtra appends extra arguments after the primary command. A string is
// tokenized by shellwords.Split; a []string is used as-is.
func WithExtra(extra any) Opt {
	return func(o *runOpts) { o.extra = tokenize(extra) }
}

// NoEcho suppresses echoing the command line before execution.
func NoEcho() Opt {
	return func(o *runOpts) { o.echo = false }
}

// WithLogStatus logs a success or failure line after the command exits.
func WithLogStatus() Opt {
	return func(o *runOpts) { o.logStatus = true }
}

// WithDir sets the child's working directory.
func WithDir(dir string) Opt {
	return func(o *runOpts) { o.dir = dir }
}

// WithEnv adds environment variables on top of the current environment.
func WithEnv(env map[string]string) Opt {
	return func(o *runOpts) { o.env = env }
}

// WithContainer selects the container CRun executes in, overriding the
// runner's default.
func WithContainer(name string) Opt {
	return func(o *runOpts) { o.container = name }
}

// WithStdin redirects the child's standard input.
func WithStdin(r io.Reader) Opt {
	return func(o *runOpts) { o.stdin = r }
}

// WithStdout redirects the child's standard output.
func WithStdout(w io.Writer) Opt {
	return func(o *runOpts) { o.stdout = w }
}

// WithStderr redirects the child's standard error.
func WithStderr(w io.Writer) Opt {
	return func(o *runOpts) { o.stderr = w }
}

// tokenize accepts the dual-typed command/extra forms: a shell-syntax string
// or an already-tokenized sequence.
func tokenize(v any) []string {
	switch c := v.(type) {
	case nil:
		return nil
	case string:
		return shellwords.Split(c)
	case []string:
		out := make([]string, len(c))
		copy(out, c)
		return out
	}
	panic(fmt.Sprintf("runner: command must be a string or []string, got %T", v))
}

// Run executes cmd (string or []string) with any extra arguments appended,
// blocking until the child exits, and returns the child's exit code.
func (r *Runner) Run(cmd any, opts ...Opt) int {
	o := runOpts{echo: true}
	for _, opt := range opts {
		opt(&o)
	}
	tokens := append(tokenize(cmd), o.extra...)
	return r.runTokens(tokens, &o)
}

func (r *Runner) runTokens(tokens []string, o *runOpts) int {
	if len(tokens) == 0 {
		r.Error("empty command")
		return codeStartFailed
	}
	if o.echo {
		r.Echo(shellwords.Join(tokens))
	}

	c := r.newCmd(tokens[0], tokens[1:]...)
	if o.dir != "" {
		c.Dir = o.dir
	}
	if len(o.env) > 0 {
		env := os.Environ()
		for k, v := range o.env {
			env = append(env, k+"="+v)
		}
		c.Env = env
	}
	if o.stdin != nil {
		c.Stdin = o.stdin
	}
	if o.stdout != nil {
		c.Stdout = o.stdout
	}
	if o.stderr != nil {
		c.Stderr = o.stderr
	}

	code := 0
	if err := c.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		} else {
			r.Error(fmt.Sprintf("failed to run command: %v", err))
			code = codeStartFailed
		}
	}

	if o.logStatus {
		r.Info("")
		if code != 0 {
			r.Error(fmt.Sprintf("Command exited with a non-zero exit code: %d", code))
		} else {
			r.Info("Command completed without any errors.")
		}
	}
	return code
}

// CRun executes cmd inside a running container via docker exec. When the
// container is not running, it logs a diagnostic (listing compose services
// when a compose file is present) and returns a non-zero code without
// executing anything.
func (r *Runner) CRun(cmd any, opts ...Opt) int {
	o := runOpts{echo: true}
	for _, opt := range opts {
		opt(&o)
	}
	container := o.container
	if container == "" {
		container = r.DefaultContainer
	}
	if container == "" {
		r.Error("default container is not set, so you must pass a container name")
		return 1
	}
	if !r.containerRunning(container) {
		r.Error(fmt.Sprintf("The %q container does not appear to be running. Try \"docker compose up -d\".", container))
		if names, ok := compose.FindServices("."); ok {
			r.Info("Compose services: " + strings.Join(names, ", "))
		}
		return 1
	}

	docker := []string{"docker", "exec"}
	if isTerminalFn() {
		docker = append(docker, "-it")
	} else {
		docker = append(docker, "-i")
	}
	docker = append(docker, container)
	tokens := append(docker, tokenize(cmd)...)
	tokens = append(tokens, o.extra...)
	return r.runTokens(tokens, &o)
}

// containerRunning probes docker for the container's running state.
func (r *Runner) containerRunning(container string) bool {
	c := r.newCmd("docker", "inspect", "--format", "{{.State.Running}}", container)
	c.Stdin = nil
	c.Stdout = nil
	c.Stderr = nil
	out, err := c.Output()
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(out)) == "true"
}

func (r *Runner) newCmd(name string, arg ...string) *exec.Cmd {
	if r.NewCmd != nil {
		return r.NewCmd(name, arg...)
	}
	c := exec.Command(name, arg...)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	return c
}
