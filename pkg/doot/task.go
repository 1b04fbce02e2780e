// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package doot

import (
	"fmt"
	"reflect"
	"regexp"
	"runtime"
	"strings"

	"github.com/dootrun/doot/pkg/argp"
)

// Arity is the invocation contract of a task callable, fixed once at
// registration.
type Arity int

const (
	// Nullary tasks are invoked with no parameters.
	Nullary Arity = iota
	// Unary tasks receive the parsed values.
	Unary
	// Binary tasks receive the parsed values and the extra-argument list.
	Binary
)

// InvalidArityError reports a task callable with an unsupported parameter
// count. Raised at registration, before any invocation is attempted.
type InvalidArityError struct {
	Name    string
	NumArgs int
}

func (e *InvalidArityError) Error() string {
	return fmt.Sprintf("task %q: callables must take 0, 1, or 2 parameters, got %d", e.Name, e.NumArgs)
}

// Task is a named, registered unit of work bound to a callable and an
// argument schema. Immutable after registration; it owns its parser
// exclusively.
type Task struct {
	Name       string
	Doc        string
	Summary    string
	AllowExtra bool
	Hidden     bool

	arity  Arity
	fn     func(vals *argp.Values, extra []string) any
	parser *argp.Parser
}

// Parser returns the task's argument parser.
func (t *Task) Parser() *argp.Parser { return t.parser }

// Arity returns the task's invocation contract.
func (t *Task) Arity() Arity { return t.arity }

func (t *Task) invoke(vals *argp.Values, extra []string) any {
	return t.fn(vals, extra)
}

// bindFunc establishes the arity contract with a single type switch over the
// accepted signatures. Callables with a parameter count outside {0,1,2} get
// an InvalidArityError; in-range signatures with unsupported types are a
// construction error.
func bindFunc(name string, fn any) (func(*argp.Values, []string) any, Arity, error) {
	switch f := fn.(type) {
	case func():
		return func(*argp.Values, []string) any { f(); return nil }, Nullary, nil
	case func() any:
		return func(*argp.Values, []string) any { return f() }, Nullary, nil
	case func(*argp.Values):
		return func(v *argp.Values, _ []string) any { f(v); return nil }, Unary, nil
	case func(*argp.Values) any:
		return func(v *argp.Values, _ []string) any { return f(v) }, Unary, nil
	case func(*argp.Values, []string):
		return func(v *argp.Values, extra []string) any { f(v, extra); return nil }, Binary, nil
	case func(*argp.Values, []string) any:
		return f, Binary, nil
	}

	rt := reflect.TypeOf(fn)
	if rt == nil || rt.Kind() != reflect.Func {
		return nil, 0, &ConstructionError{Msg: fmt.Sprintf("task %q: fn must be a function, got %T", name, fn)}
	}
	if n := rt.NumIn(); n > 2 {
		return nil, 0, &InvalidArityError{Name: name, NumArgs: n}
	}
	return nil, 0, &ConstructionError{Msg: fmt.Sprintf("task %q: unsupported signature %s", name, rt)}
}

var anonFuncRE = regexp.MustCompile(`^func\d+(\.\d+)*$`)

// funcIdentifier resolves the symbol name of a registered function, without
// its package qualifier. Anonymous functions and method values have no
// usable identifier and return an error.
func funcIdentifier(fn any) (string, error) {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func {
		return "", &ConstructionError{Msg: fmt.Sprintf("cannot derive a task name from %T", fn)}
	}
	rf := runtime.FuncForPC(v.Pointer())
	if rf == nil {
		return "", &ConstructionError{Msg: "cannot derive a task name: unknown function"}
	}
	name := rf.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	if name == "" || anonFuncRE.MatchString(name) || strings.HasSuffix(name, "-fm") {
		return "", &ConstructionError{Msg: "cannot derive a task name from an anonymous function; set Name explicitly"}
	}
	return name, nil
}

// NormalizeName maps a function identifier to its task name: double
// underscores become namespace separators before single underscores become
// word separators, so "super__hello_world" yields "super:hello-world".
func NormalizeName(identifier string) string {
	name := strings.ReplaceAll(identifier, "__", ":")
	return strings.ReplaceAll(name, "_", "-")
}

// summarize returns the first line of a task's documentation with a single
// trailing period stripped.
func summarize(doc string) string {
	line, _, _ := strings.Cut(doc, "\n")
	return strings.TrimSuffix(line, ".")
}
