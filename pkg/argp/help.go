// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package argp

import (
	"fmt"
	"strings"
)

const helpIndentWidth = 26

// Usage returns the single usage line for the parser.
func (p *Parser) Usage() string {
	var b strings.Builder
	b.WriteString("Usage: ")
	b.WriteString(p.prog)

	for _, a := range p.args {
		if a.positional || p.inMutex(a) {
			continue
		}
		part := usagePart(a)
		if a.required {
			b.WriteString(" " + part)
		} else {
			b.WriteString(" [" + part + "]")
		}
	}
	for _, g := range p.mutexes {
		parts := make([]string, 0, len(g.args))
		for _, a := range g.args {
			parts = append(parts, usagePart(a))
		}
		joined := strings.Join(parts, " | ")
		if g.required {
			b.WriteString(" (" + joined + ")")
		} else {
			b.WriteString(" [" + joined + "]")
		}
	}
	for _, a := range p.positionals {
		b.WriteString(" " + a.valuePlaceholder())
	}
	return b.String()
}

// Help returns the full help text: usage, description, positionals, options,
// and any named display groups.
func (p *Parser) Help() string {
	var b strings.Builder
	b.WriteString(p.Usage())
	b.WriteString("\n")

	if p.description != "" {
		b.WriteString("\n")
		b.WriteString(p.description)
		b.WriteString("\n")
	}

	if len(p.positionals) > 0 {
		b.WriteString("\nPositional arguments:\n")
		for _, a := range p.positionals {
			writeArgLine(&b, a)
		}
	}

	var ungrouped []*Arg
	for _, a := range p.args {
		if !a.positional && !p.grouped[a] {
			ungrouped = append(ungrouped, a)
		}
	}
	if len(ungrouped) > 0 {
		b.WriteString("\nOptions:\n")
		for _, a := range ungrouped {
			writeArgLine(&b, a)
		}
	}

	for _, g := range p.groups {
		b.WriteString("\n")
		b.WriteString(g.title)
		b.WriteString(":\n")
		if g.description != "" {
			b.WriteString("  " + g.description + "\n\n")
		}
		for _, it := range g.items {
			switch m := it.(type) {
			case *Arg:
				writeArgLine(&b, m)
			case *MutexGroup:
				for _, a := range m.args {
					writeArgLine(&b, a)
				}
			}
		}
	}
	return b.String()
}

// inMutex reports whether the descriptor belongs to an ungrouped mutex group
// (mutex groups nested in display groups render with their group).
func (p *Parser) inMutex(a *Arg) bool {
	for _, g := range p.mutexes {
		for _, m := range g.args {
			if m == a {
				return !p.grouped[a]
			}
		}
	}
	return false
}

func writeArgLine(b *strings.Builder, a *Arg) {
	inv := a.invocation()
	if a.help == "" {
		fmt.Fprintf(b, "  %s\n", inv)
		return
	}
	if len(inv) >= helpIndentWidth-2 {
		fmt.Fprintf(b, "  %s\n%s%s\n", inv, strings.Repeat(" ", helpIndentWidth), a.help)
		return
	}
	fmt.Fprintf(b, "  %-*s%s\n", helpIndentWidth-2, inv, a.help)
}

// invocation renders the flag list with value placeholders, e.g.
// "-n NAME, --name NAME".
func (a *Arg) invocation() string {
	if a.positional {
		return a.valuePlaceholder()
	}
	parts := make([]string, 0, len(a.flags))
	for _, f := range a.flags {
		if a.action.consumesValue() {
			parts = append(parts, f+" "+a.valuePlaceholder())
		} else {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, ", ")
}

func usagePart(a *Arg) string {
	f := a.flags[0]
	if a.action.consumesValue() {
		return f + " " + a.valuePlaceholder()
	}
	return f
}

// valuePlaceholder renders the metavar, repeated or starred per nargs.
func (a *Arg) valuePlaceholder() string {
	mv := a.metavar
	if mv == "" {
		mv = strings.ToUpper(a.dest)
	}
	switch {
	case a.nargs >= 2:
		reps := make([]string, int(a.nargs))
		for i := range reps {
			reps[i] = mv
		}
		return strings.Join(reps, " ")
	case a.nargs == NArgsOptional:
		return "[" + mv + "]"
	case a.nargs == NArgsZeroOrMore:
		return "[" + mv + " ...]"
	case a.nargs == NArgsOneOrMore:
		return mv + " [" + mv + " ...]"
	}
	return mv
}
