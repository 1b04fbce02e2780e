// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package doot maps registered task functions to command-line subcommands
// and dispatches an argument vector to the matching task.
//
// A Manager is instance-scoped: scripts typically build one per program, and
// tests build as many as they need. Registration-time mistakes (bad
// descriptors, duplicate names, unsupported callables) fail fast; dispatch
// failures are user-facing diagnostics followed by a non-zero exit, because
// for a "do script" the exit code is the contract.
package doot

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/dootrun/doot/pkg/argp"
	"github.com/dootrun/doot/pkg/runner"
)

// ConstructionError is re-exported so registration and descriptor errors
// share one taxonomy.
type ConstructionError = argp.ConstructionError

// Manager owns the task registry and the exec entry point.
type Manager struct {
	name   string
	splash func() string

	tasks map[string]*Task
	order []string

	out    io.Writer
	in     io.Reader
	exit   func(int)
	logf   LogFunc
	runner *runner.Runner
}

// ManagerOption customizes a Manager at construction.
type ManagerOption func(*Manager)

// WithName sets the program name shown in usage output (default "./do").
func WithName(name string) ManagerOption {
	return func(m *Manager) { m.name = name }
}

// WithSplash sets a static banner shown above the task listing.
func WithSplash(splash string) ManagerOption {
	return func(m *Manager) {
		m.splash = func() string { return splash }
	}
}

// WithSplashFunc sets a banner generator invoked each time help is shown.
func WithSplashFunc(fn func() string) ManagerOption {
	return func(m *Manager) { m.splash = fn }
}

// WithDefaultContainer sets the container CRun targets when a task does not
// name one.
func WithDefaultContainer(name string) ManagerOption {
	return func(m *Manager) { m.runner.DefaultContainer = name }
}

// WithLogFunc replaces the logging sink.
func WithLogFunc(fn LogFunc) ManagerOption {
	return func(m *Manager) { m.logf = fn }
}

// WithOutput redirects the default sink's writer.
func WithOutput(w io.Writer) ManagerOption {
	return func(m *Manager) {
		m.out = w
		m.logf = func(s string) { fmt.Fprintln(w, s) }
	}
}

// WithInput sets the reader Confirm prompts from.
func WithInput(r io.Reader) ManagerOption {
	return func(m *Manager) { m.in = r }
}

// WithExitFunc replaces process termination, letting tests observe exits.
func WithExitFunc(fn func(int)) ManagerOption {
	return func(m *Manager) { m.exit = fn }
}

// New constructs a Manager. A doot.toml in the working directory seeds the
// name, splash, default container, and environment; explicit options win.
func New(opts ...ManagerOption) *Manager {
	m := &Manager{
		name:  "./do",
		tasks: make(map[string]*Task),
		out:   os.Stdout,
		in:    os.Stdin,
		exit:  os.Exit,
	}
	m.logf = func(s string) { fmt.Fprintln(m.out, s) }
	m.runner = runner.New()
	m.runner.Echo = m.Logcmd
	m.runner.Info = m.Info
	m.runner.Error = m.Error

	if cfg, err := loadConfig("."); err != nil {
		m.Warn(fmt.Sprintf("ignoring %s: %v", configFileName, err))
	} else if cfg != nil {
		cfg.apply(m)
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// TaskDef declares a task for registration.
type TaskDef struct {
	// Name overrides the derived task name. When empty the name comes from
	// Fn's identifier via NormalizeName.
	Name string
	// Fn is the callable. Accepted signatures: func(), func() any,
	// func(*argp.Values), func(*argp.Values) any,
	// func(*argp.Values, []string), func(*argp.Values, []string) any.
	Fn any
	// Doc documents the task; its first line becomes the listing summary.
	Doc string
	// Items declares the argument schema: *argp.Arg, *argp.Group,
	// *argp.MutexGroup.
	Items []argp.Item
	// AllowExtra routes unrecognized arguments into the extra list instead
	// of rejecting them.
	AllowExtra bool
	// Hidden removes the task from the listing without disabling it.
	Hidden bool
}

// Register adds a task to the registry. Registering a second task under the
// same name is an error: do scripts are loaded once, and a silent overwrite
// hides a real bug.
func (m *Manager) Register(def TaskDef) (*Task, error) {
	name := def.Name
	if name == "" {
		id, err := funcIdentifier(def.Fn)
		if err != nil {
			return nil, err
		}
		name = NormalizeName(id)
	}
	fn, arity, err := bindFunc(name, def.Fn)
	if err != nil {
		return nil, err
	}
	if _, exists := m.tasks[name]; exists {
		return nil, &ConstructionError{Msg: fmt.Sprintf("task %q is already registered", name)}
	}

	parser := argp.NewParser(m.name+" "+name, def.Doc)
	if err := parser.AddItems(def.Items...); err != nil {
		return nil, err
	}

	t := &Task{
		Name:       name,
		Doc:        def.Doc,
		Summary:    summarize(def.Doc),
		AllowExtra: def.AllowExtra,
		Hidden:     def.Hidden,
		arity:      arity,
		fn:         fn,
		parser:     parser,
	}
	m.tasks[name] = t
	m.order = append(m.order, name)
	return t, nil
}

// MustRegister is Register for script toplevels: it panics on registration
// errors so a malformed do script dies on load.
func (m *Manager) MustRegister(def TaskDef) *Task {
	t, err := m.Register(def)
	if err != nil {
		panic(err)
	}
	return t
}

// Task registers fn under its derived name, panicking on error.
func (m *Manager) Task(fn any, doc string, items ...argp.Item) *Task {
	return m.MustRegister(TaskDef{Fn: fn, Doc: doc, Items: items})
}

// Tasks returns the registered tasks in registration order.
func (m *Manager) Tasks() []*Task {
	out := make([]*Task, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.tasks[name])
	}
	return out
}

// Lookup returns the task registered under name.
func (m *Manager) Lookup(name string) (*Task, bool) {
	t, ok := m.tasks[name]
	return t, ok
}

// ExecArgs dispatches the process's command-line arguments.
func (m *Manager) ExecArgs() any {
	return m.Exec(os.Args[1:])
}

// Exec resolves argv into a task invocation and returns the task's return
// value. An empty vector, a sole "-h", or a sole "help" prints the banner
// and task listing; an unknown task or a parse failure prints diagnostics
// and terminates with a non-zero status.
func (m *Manager) Exec(argv []string) any {
	for _, t := range m.tasks {
		t.parser.SetProg(m.name + " " + t.Name)
	}

	if len(argv) == 0 || (len(argv) == 1 && (argv[0] == "-h" || argv[0] == "help")) {
		m.printListing(true)
		return nil
	}
	if argv[0] == "help" {
		if t, ok := m.tasks[argv[1]]; ok {
			m.Log(t.parser.Help())
			return nil
		}
		m.invalidCommand(argv[1])
		return nil
	}

	t, ok := m.tasks[argv[0]]
	if !ok {
		m.invalidCommand(argv[0])
		return nil
	}

	rest := argv[1:]
	var vals *argp.Values
	extra := []string{}
	var err error
	if t.AllowExtra {
		vals, extra, err = t.parser.ParseKnown(rest)
	} else {
		vals, err = t.parser.Parse(rest)
	}
	if err != nil {
		if errors.Is(err, argp.ErrHelp) {
			m.Log(t.parser.Help())
			return nil
		}
		m.Error(err.Error())
		m.Log(t.parser.Help())
		m.exit(1)
		return nil
	}
	return t.invoke(vals, extra)
}

// invalidCommand prints the unknown-task diagnostic and listing, then
// terminates with status 1.
func (m *Manager) invalidCommand(name string) {
	m.Error("Invalid command: " + name)
	m.printTasks()
	m.exit(1)
}

// printListing shows the banner (when showBanner), a usage line, and the
// sorted task listing.
func (m *Manager) printListing(showBanner bool) {
	if showBanner && m.splash != nil {
		if banner := m.splash(); banner != "" {
			m.logf(cmdColor.Sprint(banner))
			m.Log("")
		}
	}
	m.Log(fmt.Sprintf("Usage: %s [task]\n", m.name))
	m.printTasks()
}

func (m *Manager) printTasks() {
	m.Log("Available tasks:\n")
	names := make([]string, 0, len(m.tasks))
	for name := range m.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		t := m.tasks[name]
		if t.Hidden {
			continue
		}
		m.Log(fmt.Sprintf("  %-22s %s", name, t.Summary))
	}
}

// Run executes a command line and returns its exit code. See runner.Run.
func (m *Manager) Run(cmd any, opts ...runner.Opt) int {
	return m.runner.Run(cmd, opts...)
}

// CRun executes a command inside a running container. See runner.CRun.
func (m *Manager) CRun(cmd any, opts ...runner.Opt) int {
	return m.runner.CRun(cmd, opts...)
}

// Confirm prompts on the sink and reads a y/N answer from the manager's
// input.
func (m *Manager) Confirm(msg string) bool {
	fmt.Fprintf(m.out, "%s [y/N]: ", msg)
	var answer string
	if _, err := fmt.Fscanln(m.in, &answer); err != nil {
		return false
	}
	return strings.EqualFold(answer, "y")
}
