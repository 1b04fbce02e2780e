// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package argp builds per-task argument parsers out of immutable flag
// descriptors, display groups, and mutually-exclusive groups.
//
// A descriptor is constructed once, validated eagerly, and never mutated
// afterward. Composition errors (empty flags, option combinations that make
// no sense for the chosen action, groups nested inside groups) surface as
// *ConstructionError at declaration time so that a malformed task file fails
// during load, not during dispatch.
package argp

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Action enumerates what a parser does when a flag is matched. It is a
// closed set; each variant permits only the descriptor options that are
// meaningful for it.
type Action int

const (
	// Store stores the converted value (the default action).
	Store Action = iota
	// StoreTrue stores true; the flag takes no value and defaults to false.
	StoreTrue
	// StoreFalse stores false; the flag takes no value and defaults to true.
	StoreFalse
	// StoreConst stores the descriptor's Const value; takes no value.
	StoreConst
	// Append appends each converted value to a list. Occurrences that
	// collect several tokens (NArgs >= 2) flatten into the same list; the
	// destination is always a flat list, never a list of lists.
	Append
	// AppendConst appends the descriptor's Const value to a list.
	AppendConst
	// Extend appends all converted values to a list, flattening NArgs lists
	// the same way Append does.
	Extend
	// Count stores the number of times the flag occurred.
	Count
)

func (a Action) String() string {
	switch a {
	case Store:
		return "store"
	case StoreTrue:
		return "store_true"
	case StoreFalse:
		return "store_false"
	case StoreConst:
		return "store_const"
	case Append:
		return "append"
	case AppendConst:
		return "append_const"
	case Extend:
		return "extend"
	case Count:
		return "count"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// consumesValue reports whether the action reads value tokens from argv.
func (a Action) consumesValue() bool {
	switch a {
	case Store, Append, Extend:
		return true
	}
	return false
}

// NArgs describes how many value tokens a consuming descriptor collects.
// Zero means exactly one value stored as a scalar; a positive N collects N
// values into a list.
type NArgs int

const (
	// NArgsOptional collects one value if present ('?').
	NArgsOptional NArgs = -1
	// NArgsZeroOrMore collects every following value token ('*').
	NArgsZeroOrMore NArgs = -2
	// NArgsOneOrMore collects every following value token, requiring at
	// least one ('+').
	NArgsOneOrMore NArgs = -3
)

// ValueType selects the converter applied to raw value tokens.
type ValueType int

const (
	String ValueType = iota
	Int
	Float
	Bool
)

func (t ValueType) convert(raw string) (any, error) {
	switch t {
	case String:
		return raw, nil
	case Int:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid int value: %q", raw)
		}
		return n, nil
	case Float:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float value: %q", raw)
		}
		return f, nil
	case Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid bool value: %q", raw)
		}
		return b, nil
	}
	return nil, fmt.Errorf("unknown value type %d", int(t))
}

// ConstructionError reports malformed descriptor or group composition. It is
// raised synchronously at declaration time and is never recovered from.
type ConstructionError struct {
	Msg string
}

func (e *ConstructionError) Error() string { return e.Msg }

func constructionErrorf(format string, args ...any) error {
	return &ConstructionError{Msg: fmt.Sprintf(format, args...)}
}

// InvalidFlagError is returned when an unknown flag is encountered during a
// strict parse.
type InvalidFlagError struct {
	Flag string
}

func (e *InvalidFlagError) Error() string {
	return fmt.Sprintf("unknown flag: %s", e.Flag)
}

// FlagValueError is returned when a flag's value is missing, malformed, or
// outside the allowed choices.
type FlagValueError struct {
	Flag  string
	Value string
	Err   error
}

func (e *FlagValueError) Error() string {
	return fmt.Sprintf("argument %s: %v", e.Flag, e.Err)
}

func (e *FlagValueError) Unwrap() error { return e.Err }

// RequiredError is returned when required descriptors were not supplied.
type RequiredError struct {
	Flags []string
}

func (e *RequiredError) Error() string {
	return fmt.Sprintf("the following arguments are required: %s", strings.Join(e.Flags, ", "))
}

// MutexError is returned when a mutually-exclusive group is violated.
type MutexError struct {
	Flags    []string
	Required bool
}

func (e *MutexError) Error() string {
	if e.Required {
		return fmt.Sprintf("one of the arguments %s is required", strings.Join(e.Flags, " "))
	}
	if len(e.Flags) == 2 {
		return fmt.Sprintf("argument %s: not allowed with argument %s", e.Flags[1], e.Flags[0])
	}
	return fmt.Sprintf("arguments %s are mutually exclusive", strings.Join(e.Flags, " "))
}

// UnrecognizedArgsError is returned by a strict parse when argv contains
// tokens no descriptor claims.
type UnrecognizedArgsError struct {
	Args []string
}

func (e *UnrecognizedArgsError) Error() string {
	return fmt.Sprintf("unrecognized arguments: %s", strings.Join(e.Args, " "))
}

// ErrHelp is returned by Parse and ParseKnown when the help flag is present.
var ErrHelp = errors.New("help requested")

// Item is a parser building block: *Arg, *Group, or *MutexGroup.
type Item interface {
	item()
}

// Arg is an immutable argument descriptor: one flag (or positional name)
// plus its parsing rules.
type Arg struct {
	flags      []string
	positional bool
	action     Action
	nargs      NArgs
	def        any
	typ        ValueType
	choices    []string
	required   bool
	help       string
	metavar    string
	dest       string
	konst      any
}

func (*Arg) item() {}

// Flags returns the declared flag strings (or the single positional name).
func (a *Arg) Flags() []string {
	out := make([]string, len(a.flags))
	copy(out, a.flags)
	return out
}

// Dest returns the destination key values are stored under.
func (a *Arg) Dest() string { return a.dest }

type options struct {
	action    Action
	actionSet bool
	nargs     NArgs
	nargsSet  bool
	def       any
	typ       ValueType
	typSet    bool
	choices   []string
	required  bool
	help      string
	metavar   string
	dest      string
	konst     any
	constSet  bool
}

// Option customizes a descriptor under construction.
type Option func(*options)

// WithAction sets the descriptor's action kind.
func WithAction(a Action) Option {
	return func(o *options) { o.action = a; o.actionSet = true }
}

// WithNArgs sets how many value tokens are collected.
func WithNArgs(n NArgs) Option {
	return func(o *options) { o.nargs = n; o.nargsSet = true }
}

// WithDefault sets the value stored when the flag is absent.
func WithDefault(v any) Option {
	return func(o *options) { o.def = v }
}

// WithType sets the value converter.
func WithType(t ValueType) Option {
	return func(o *options) { o.typ = t; o.typSet = true }
}

// WithChoices restricts the raw values accepted.
func WithChoices(choices ...string) Option {
	return func(o *options) { o.choices = choices }
}

// Required marks the descriptor as mandatory.
func Required() Option {
	return func(o *options) { o.required = true }
}

// WithHelp sets the one-line help text.
func WithHelp(help string) Option {
	return func(o *options) { o.help = help }
}

// WithMetavar overrides the value placeholder shown in help.
func WithMetavar(metavar string) Option {
	return func(o *options) { o.metavar = metavar }
}

// WithDest overrides the derived destination key.
func WithDest(dest string) Option {
	return func(o *options) { o.dest = dest }
}

// WithConst sets the constant stored by StoreConst and AppendConst.
func WithConst(v any) Option {
	return func(o *options) { o.konst = v; o.constSet = true }
}

// NewArg constructs an argument descriptor. Flags beginning with a dash
// declare an option; a single bare name declares a positional. The
// descriptor is validated eagerly and immutable afterward.
func NewArg(flags []string, opts ...Option) (*Arg, error) {
	if len(flags) == 0 {
		return nil, constructionErrorf("argument requires at least one flag or name")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	positional := !strings.HasPrefix(flags[0], "-")
	for _, f := range flags {
		if f == "" || f == "-" || f == "--" {
			return nil, constructionErrorf("invalid flag %q", f)
		}
		if strings.HasPrefix(f, "-") == positional {
			return nil, constructionErrorf("cannot mix positional name and flags: %v", flags)
		}
	}
	if positional && len(flags) > 1 {
		return nil, constructionErrorf("positional argument takes a single name, got %v", flags)
	}

	switch o.action {
	case StoreTrue, StoreFalse, Count:
		if o.nargsSet || o.typSet || len(o.choices) > 0 || o.constSet {
			return nil, constructionErrorf("nargs, type, choices and const are not applicable to action %q", o.action)
		}
	case StoreConst, AppendConst:
		if !o.constSet {
			return nil, constructionErrorf("action %q requires a const value", o.action)
		}
		if o.nargsSet || o.typSet || len(o.choices) > 0 {
			return nil, constructionErrorf("nargs, type and choices are not applicable to action %q", o.action)
		}
	}
	if positional && o.action != Store {
		return nil, constructionErrorf("positional argument %q only supports the store action", flags[0])
	}
	if o.nargsSet {
		switch {
		case o.nargs >= 1, o.nargs == NArgsOptional, o.nargs == NArgsZeroOrMore, o.nargs == NArgsOneOrMore:
		default:
			return nil, constructionErrorf("invalid nargs value %d", int(o.nargs))
		}
	}

	dest := o.dest
	if dest == "" {
		dest = deriveDest(flags, positional)
	}

	fl := make([]string, len(flags))
	copy(fl, flags)
	ch := make([]string, len(o.choices))
	copy(ch, o.choices)

	return &Arg{
		flags:      fl,
		positional: positional,
		action:     o.action,
		nargs:      o.nargs,
		def:        o.def,
		typ:        o.typ,
		choices:    ch,
		required:   o.required,
		help:       o.help,
		metavar:    o.metavar,
		dest:       dest,
		konst:      o.konst,
	}, nil
}

// deriveDest picks the destination key: the first long flag if one exists,
// otherwise the first flag, with leading dashes stripped and hyphens mapped
// to underscores.
func deriveDest(flags []string, positional bool) string {
	name := flags[0]
	if !positional {
		for _, f := range flags {
			if strings.HasPrefix(f, "--") {
				name = f
				break
			}
		}
	}
	name = strings.TrimLeft(name, "-")
	return strings.ReplaceAll(name, "-", "_")
}

// Group is a titled collection of descriptors for help display. Groups may
// hold mutex groups but never other groups.
type Group struct {
	title       string
	description string
	items       []Item
}

func (*Group) item() {}

// Title returns the group's help heading.
func (g *Group) Title() string { return g.title }

// NewGroup constructs a display group. Nesting a Group inside a Group is a
// construction error, which also makes transitive nesting unrepresentable.
func NewGroup(title, description string, items ...Item) (*Group, error) {
	if title == "" {
		return nil, constructionErrorf("group requires a title")
	}
	for _, it := range items {
		switch it.(type) {
		case *Arg, *MutexGroup:
		case *Group:
			return nil, constructionErrorf("group %q: groups cannot contain groups", title)
		default:
			return nil, constructionErrorf("group %q: unsupported item %T", title, it)
		}
	}
	return &Group{title: title, description: description, items: items}, nil
}

// MutexGroup is a set of descriptors of which at most one (exactly one when
// required) may be supplied.
type MutexGroup struct {
	args     []*Arg
	required bool
}

func (*MutexGroup) item() {}

// NewMutexGroup constructs a mutually-exclusive group. Only descriptors are
// allowed as members.
func NewMutexGroup(required bool, items ...Item) (*MutexGroup, error) {
	args := make([]*Arg, 0, len(items))
	for _, it := range items {
		a, ok := it.(*Arg)
		if !ok {
			return nil, constructionErrorf("mutually exclusive group: cannot contain %T", it)
		}
		args = append(args, a)
	}
	return &MutexGroup{args: args, required: required}, nil
}
