// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package argp

import (
	"slices"
	"strconv"
	"strings"
)

// Values holds parsed results keyed by destination name.
type Values struct {
	m     map[string]any
	extra []string
}

func newValues() *Values {
	return &Values{m: make(map[string]any)}
}

func (v *Values) set(dest string, val any) { v.m[dest] = val }

// Get returns the raw stored value, or nil when unset.
func (v *Values) Get(dest string) any { return v.m[dest] }

// Extra returns the unclaimed tokens from a ParseKnown run. Always empty
// after a strict Parse.
func (v *Values) Extra() []string {
	out := make([]string, len(v.extra))
	copy(out, v.extra)
	return out
}

// Has reports whether a value (including a default) is stored for dest.
func (v *Values) Has(dest string) bool {
	_, ok := v.m[dest]
	return ok
}

// String returns the value for dest as a string, or "" when unset.
func (v *Values) String(dest string) string {
	switch val := v.m[dest].(type) {
	case string:
		return val
	case nil:
		return ""
	default:
		return ""
	}
}

// Bool returns the value for dest as a bool, or false when unset.
func (v *Values) Bool(dest string) bool {
	b, _ := v.m[dest].(bool)
	return b
}

// Int returns the value for dest as an int, or 0 when unset.
func (v *Values) Int(dest string) int {
	n, _ := v.m[dest].(int)
	return n
}

// Float returns the value for dest as a float64, or 0 when unset.
func (v *Values) Float(dest string) float64 {
	f, _ := v.m[dest].(float64)
	return f
}

// Strings returns the list value for dest as strings.
func (v *Values) Strings(dest string) []string {
	switch val := v.m[dest].(type) {
	case []string:
		out := make([]string, len(val))
		copy(out, val)
		return out
	case []any:
		out := make([]string, 0, len(val))
		for _, e := range val {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Ints returns the list value for dest as ints.
func (v *Values) Ints(dest string) []int {
	switch val := v.m[dest].(type) {
	case []int:
		out := make([]int, len(val))
		copy(out, val)
		return out
	case []any:
		out := make([]int, 0, len(val))
		for _, e := range val {
			if n, ok := e.(int); ok {
				out = append(out, n)
			}
		}
		return out
	}
	return nil
}

// Parser resolves an argument vector against a set of descriptors. Each task
// owns exactly one parser; the zero value is not usable, construct with
// NewParser.
type Parser struct {
	prog        string
	description string

	args        []*Arg
	positionals []*Arg
	byFlag      map[string]*Arg
	grouped     map[*Arg]bool
	groups      []*Group
	mutexes     []*MutexGroup
}

// NewParser constructs an empty parser for the given program line and
// description.
func NewParser(prog, description string) *Parser {
	return &Parser{
		prog:        prog,
		description: description,
		byFlag:      make(map[string]*Arg),
		grouped:     make(map[*Arg]bool),
	}
}

// Prog returns the program line used in usage output.
func (p *Parser) Prog() string { return p.prog }

// SetProg updates the program line used in usage output.
func (p *Parser) SetProg(prog string) { p.prog = prog }

// Add registers a descriptor directly on the parser.
func (p *Parser) Add(a *Arg) error {
	return p.add(a, false)
}

func (p *Parser) add(a *Arg, grouped bool) error {
	if a.positional {
		p.positionals = append(p.positionals, a)
	} else {
		for _, f := range a.flags {
			if _, exists := p.byFlag[f]; exists {
				return constructionErrorf("conflicting flag: %s", f)
			}
			p.byFlag[f] = a
		}
	}
	p.args = append(p.args, a)
	if grouped {
		p.grouped[a] = true
	}
	return nil
}

// AddGroup registers a display group and all of its members.
func (p *Parser) AddGroup(g *Group) error {
	p.groups = append(p.groups, g)
	for _, it := range g.items {
		switch m := it.(type) {
		case *Arg:
			if err := p.add(m, true); err != nil {
				return err
			}
		case *MutexGroup:
			if err := p.addMutex(m, true); err != nil {
				return err
			}
		}
	}
	return nil
}

// AddMutexGroup registers a mutually-exclusive group and all of its members.
func (p *Parser) AddMutexGroup(g *MutexGroup) error {
	return p.addMutex(g, false)
}

func (p *Parser) addMutex(g *MutexGroup, grouped bool) error {
	p.mutexes = append(p.mutexes, g)
	for _, a := range g.args {
		if err := p.add(a, grouped); err != nil {
			return err
		}
	}
	return nil
}

// AddItems registers any mix of descriptors, groups, and mutex groups.
func (p *Parser) AddItems(items ...Item) error {
	for _, it := range items {
		var err error
		switch m := it.(type) {
		case *Arg:
			err = p.Add(m)
		case *Group:
			err = p.AddGroup(m)
		case *MutexGroup:
			err = p.AddMutexGroup(m)
		default:
			err = constructionErrorf("unsupported item %T", it)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Parse resolves argv strictly: unknown flags and unclaimed positionals are
// errors. Returns ErrHelp when argv asks for help.
func (p *Parser) Parse(argv []string) (*Values, error) {
	vals, extras, err := p.parse(argv, false)
	if err != nil {
		return nil, err
	}
	if len(extras) > 0 {
		return nil, &UnrecognizedArgsError{Args: extras}
	}
	return vals, nil
}

// ParseKnown resolves the declared descriptors and collects every unclaimed
// token, verbatim and order-preserving, into the extras slice. The extras
// slice is non-nil even when empty.
func (p *Parser) ParseKnown(argv []string) (*Values, []string, error) {
	return p.parse(argv, true)
}

func (p *Parser) parse(argv []string, known bool) (*Values, []string, error) {
	vals := newValues()
	for _, a := range p.args {
		a.applyDefault(vals)
	}

	seen := make(map[*Arg]bool)
	extras := []string{}
	posIdx := 0
	forcedPositional := false

	i := 0
	for i < len(argv) {
		tok := argv[i]
		switch {
		case !forcedPositional && tok == "--":
			forcedPositional = true
			i++

		case !forcedPositional && (tok == "-h" || tok == "--help"):
			return nil, nil, ErrHelp

		case !forcedPositional && strings.HasPrefix(tok, "--"):
			name, inline, hasInline := strings.Cut(tok, "=")
			a := p.byFlag[name]
			if a == nil {
				if !known {
					return nil, nil, &InvalidFlagError{Flag: name}
				}
				extras = append(extras, tok)
				i++
				continue
			}
			seen[a] = true
			var err error
			i, err = p.consume(vals, a, name, inline, hasInline, argv, i)
			if err != nil {
				return nil, nil, err
			}

		case !forcedPositional && strings.HasPrefix(tok, "-") && tok != "-" && !isNegativeNumber(tok):
			var err error
			i, extras, err = p.parseShort(vals, seen, argv, i, extras, known)
			if err != nil {
				return nil, nil, err
			}

		default:
			if posIdx < len(p.positionals) {
				a := p.positionals[posIdx]
				seen[a] = true
				n, err := p.consumePositional(vals, a, argv, i, forcedPositional)
				if err != nil {
					return nil, nil, err
				}
				i += n
				posIdx++
			} else {
				extras = append(extras, tok)
				i++
			}
		}
	}

	if err := p.checkRequired(seen, posIdx); err != nil {
		return nil, nil, err
	}
	if err := p.checkMutexes(seen); err != nil {
		return nil, nil, err
	}
	if known {
		vals.extra = extras
	}
	return vals, extras, nil
}

// consume handles a matched long flag (or the value-bearing tail of a short
// flag run), advancing past any value tokens it claims. Returns the next
// scan index.
func (p *Parser) consume(vals *Values, a *Arg, name, inline string, hasInline bool, argv []string, i int) (int, error) {
	if !a.action.consumesValue() {
		if hasInline {
			return 0, &FlagValueError{Flag: name, Value: inline, Err: errNoValueAllowed}
		}
		a.storeFlagless(vals)
		return i + 1, nil
	}
	if hasInline {
		if err := a.store(vals, []string{inline}); err != nil {
			return 0, err
		}
		return i + 1, nil
	}
	raw, n, err := a.collect(name, argv, i+1)
	if err != nil {
		return 0, err
	}
	if raw == nil {
		// Optional nargs with no value present: leave the default.
		return i + 1 + n, nil
	}
	if err := a.store(vals, raw); err != nil {
		return 0, err
	}
	return i + 1 + n, nil
}

// parseShort handles a short-flag token: "-n value", "-n=value", "-nvalue",
// and grouped non-consuming runs like "-vvv".
func (p *Parser) parseShort(vals *Values, seen map[*Arg]bool, argv []string, i int, extras []string, known bool) (int, []string, error) {
	tok := argv[i]
	if name, inline, ok := strings.Cut(tok, "="); ok {
		a := p.byFlag[name]
		if a == nil {
			if !known {
				return 0, nil, &InvalidFlagError{Flag: name}
			}
			return i + 1, append(extras, tok), nil
		}
		seen[a] = true
		next, err := p.consume(vals, a, name, inline, true, argv, i)
		return next, extras, err
	}

	body := tok[1:]
	for j := 0; j < len(body); j++ {
		name := "-" + string(body[j])
		a := p.byFlag[name]
		if a == nil {
			if !known {
				return 0, nil, &InvalidFlagError{Flag: name}
			}
			return i + 1, append(extras, tok), nil
		}
		seen[a] = true
		if !a.action.consumesValue() {
			a.storeFlagless(vals)
			continue
		}
		if j+1 < len(body) {
			// Attached value: -nvalue.
			if err := a.store(vals, []string{body[j+1:]}); err != nil {
				return 0, nil, err
			}
			return i + 1, extras, nil
		}
		next, err := p.consume(vals, a, name, "", false, argv, i)
		return next, extras, err
	}
	return i + 1, extras, nil
}

// consumePositional claims tokens for a positional descriptor starting at i.
// Returns how many tokens were taken.
func (p *Parser) consumePositional(vals *Values, a *Arg, argv []string, i int, forced bool) (int, error) {
	takeable := func(idx int) bool {
		if idx >= len(argv) {
			return false
		}
		t := argv[idx]
		if forced {
			return true
		}
		return !strings.HasPrefix(t, "-") || t == "-" || isNegativeNumber(t)
	}

	want := 1
	unbounded := false
	switch {
	case a.nargs >= 1:
		want = int(a.nargs)
	case a.nargs == NArgsOptional:
		want = 1
	case a.nargs == NArgsZeroOrMore, a.nargs == NArgsOneOrMore:
		unbounded = true
	}

	var raw []string
	for idx := i; takeable(idx); idx++ {
		raw = append(raw, argv[idx])
		if !unbounded && len(raw) == want {
			break
		}
	}
	if a.nargs == NArgsOneOrMore && len(raw) == 0 {
		return 0, &FlagValueError{Flag: a.flags[0], Err: errExpectedValue}
	}
	if a.nargs >= 1 && len(raw) < want {
		return 0, &FlagValueError{Flag: a.flags[0], Err: errExpectedValue}
	}
	if len(raw) == 0 {
		return 0, nil
	}
	if err := a.store(vals, raw); err != nil {
		return 0, err
	}
	return len(raw), nil
}

func (p *Parser) checkRequired(seen map[*Arg]bool, posIdx int) error {
	var missing []string
	for _, a := range p.args {
		if a.positional {
			continue
		}
		if a.required && !seen[a] {
			missing = append(missing, a.flags[len(a.flags)-1])
		}
	}
	for idx, a := range p.positionals {
		if idx >= posIdx && a.nargs != NArgsOptional && a.nargs != NArgsZeroOrMore {
			missing = append(missing, a.flags[0])
		}
	}
	if len(missing) > 0 {
		return &RequiredError{Flags: missing}
	}
	return nil
}

func (p *Parser) checkMutexes(seen map[*Arg]bool) error {
	for _, g := range p.mutexes {
		var supplied []string
		var all []string
		for _, a := range g.args {
			all = append(all, a.flags[len(a.flags)-1])
			if seen[a] {
				supplied = append(supplied, a.flags[len(a.flags)-1])
			}
		}
		if len(supplied) > 1 {
			return &MutexError{Flags: supplied}
		}
		if g.required && len(supplied) == 0 {
			return &MutexError{Flags: all, Required: true}
		}
	}
	return nil
}

var (
	errNoValueAllowed = strError("flag does not take a value")
	errExpectedValue  = strError("expected one argument")
)

type strError string

func (e strError) Error() string { return string(e) }

// applyDefault seeds the destination before parsing. Boolean-store actions
// default to the value they negate and Count starts at zero, matching the
// conventional contract; everything else defaults only when declared.
func (a *Arg) applyDefault(vals *Values) {
	switch {
	case a.def != nil:
		vals.set(a.dest, a.def)
	case a.action == StoreTrue:
		vals.set(a.dest, false)
	case a.action == StoreFalse:
		vals.set(a.dest, true)
	case a.action == Count:
		vals.set(a.dest, 0)
	}
}

// collect gathers the value tokens a consuming flag needs, starting at
// argv[start]. Returns the raw tokens (nil when an optional nargs found
// none) and the count consumed.
func (a *Arg) collect(name string, argv []string, start int) ([]string, int, error) {
	takeable := func(idx int) bool {
		if idx >= len(argv) {
			return false
		}
		t := argv[idx]
		return !strings.HasPrefix(t, "-") || t == "-" || isNegativeNumber(t)
	}

	switch {
	case a.nargs >= 1:
		want := int(a.nargs)
		var raw []string
		for idx := start; takeable(idx) && len(raw) < want; idx++ {
			raw = append(raw, argv[idx])
		}
		if len(raw) < want {
			return nil, 0, &FlagValueError{Flag: name, Err: strError("expected " + strconv.Itoa(want) + " argument(s)")}
		}
		return raw, want, nil

	case a.nargs == NArgsOptional:
		if takeable(start) {
			return []string{argv[start]}, 1, nil
		}
		return nil, 0, nil

	case a.nargs == NArgsZeroOrMore, a.nargs == NArgsOneOrMore:
		var raw []string
		for idx := start; takeable(idx); idx++ {
			raw = append(raw, argv[idx])
		}
		if a.nargs == NArgsOneOrMore && len(raw) == 0 {
			return nil, 0, &FlagValueError{Flag: name, Err: errExpectedValue}
		}
		return raw, len(raw), nil

	default:
		if !takeable(start) {
			return nil, 0, &FlagValueError{Flag: name, Err: errExpectedValue}
		}
		return []string{argv[start]}, 1, nil
	}
}

// store converts raw tokens, checks choices, and applies the action.
func (a *Arg) store(vals *Values, raw []string) error {
	if len(a.choices) > 0 {
		for _, r := range raw {
			if !slices.Contains(a.choices, r) {
				return &FlagValueError{
					Flag:  a.flags[len(a.flags)-1],
					Value: r,
					Err:   strError("invalid choice: " + strconv.Quote(r) + " (choose from " + strings.Join(a.choices, ", ") + ")"),
				}
			}
		}
	}
	converted := make([]any, 0, len(raw))
	for _, r := range raw {
		v, err := a.typ.convert(r)
		if err != nil {
			return &FlagValueError{Flag: a.flags[len(a.flags)-1], Value: r, Err: err}
		}
		converted = append(converted, v)
	}

	switch a.action {
	case Append, Extend:
		list, _ := vals.Get(a.dest).([]any)
		vals.set(a.dest, append(list, converted...))
	default:
		if a.nargs == 0 && len(converted) == 1 {
			vals.set(a.dest, converted[0])
		} else {
			vals.set(a.dest, converted)
		}
	}
	return nil
}

// storeFlagless applies actions that take no value tokens.
func (a *Arg) storeFlagless(vals *Values) {
	switch a.action {
	case StoreTrue:
		vals.set(a.dest, true)
	case StoreFalse:
		vals.set(a.dest, false)
	case StoreConst:
		vals.set(a.dest, a.konst)
	case AppendConst:
		list, _ := vals.Get(a.dest).([]any)
		vals.set(a.dest, append(list, a.konst))
	case Count:
		n, _ := vals.Get(a.dest).(int)
		vals.set(a.dest, n+1)
	}
}

// isNegativeNumber reports whether a dash-prefixed token is a numeric value
// rather than a flag. A second dash disqualifies the token before the float
// parse, so "--10" stays a flag.
func isNegativeNumber(s string) bool {
	if len(s) < 2 || s[0] != '-' || s[1] == '-' {
		return false
	}
	if _, err := strconv.ParseFloat(s[1:], 64); err != nil {
		return false
	}
	return true
}
