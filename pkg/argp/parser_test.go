// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package argp

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// testArg builds descriptors in table literals, where no *testing.T is in
// scope yet.
func testArg(flags []string, opts ...Option) *Arg {
	a, err := NewArg(flags, opts...)
	if err != nil {
		panic(err)
	}
	return a
}

func newTestParser(t *testing.T, items ...Item) *Parser {
	t.Helper()
	p := NewParser("./do test", "")
	if err := p.AddItems(items...); err != nil {
		t.Fatalf("AddItems error = %v", err)
	}
	return p
}

func TestParse_StoreForms(t *testing.T) {
	tests := []struct {
		name string
		argv []string
	}{
		{"long with space", []string{"--name", "world"}},
		{"long with equals", []string{"--name=world"}},
		{"short with space", []string{"-n", "world"}},
		{"short with equals", []string{"-n=world"}},
		{"short attached", []string{"-nworld"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestParser(t, mustArg(t, []string{"-n", "--name"}))
			vals, err := p.Parse(tt.argv)
			if err != nil {
				t.Fatalf("Parse(%v) error = %v", tt.argv, err)
			}
			if got := vals.String("name"); got != "world" {
				t.Errorf("name = %q, want %q", got, "world")
			}
		})
	}
}

func TestParse_BooleanActions(t *testing.T) {
	verbose := mustArg(t, []string{"-v", "--verbose"}, WithAction(StoreTrue))
	cache := mustArg(t, []string{"--no-cache"}, WithAction(StoreFalse), WithDest("cache"))
	p := newTestParser(t, verbose, cache)

	t.Run("defaults", func(t *testing.T) {
		vals, err := p.Parse(nil)
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if vals.Bool("verbose") {
			t.Error("verbose = true, want false by default")
		}
		if !vals.Bool("cache") {
			t.Error("cache = false, want true by default")
		}
	})

	t.Run("supplied", func(t *testing.T) {
		vals, err := p.Parse([]string{"-v", "--no-cache"})
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if !vals.Bool("verbose") {
			t.Error("verbose = false, want true")
		}
		if vals.Bool("cache") {
			t.Error("cache = true, want false")
		}
	})

	t.Run("value rejected", func(t *testing.T) {
		_, err := p.Parse([]string{"--verbose=yes"})
		var fve *FlagValueError
		if !errors.As(err, &fve) {
			t.Fatalf("Parse() error = %v, want *FlagValueError", err)
		}
	})
}

func TestParse_CountAction(t *testing.T) {
	p := newTestParser(t, mustArg(t, []string{"-v", "--verbose"}, WithAction(Count)))

	tests := []struct {
		name string
		argv []string
		want int
	}{
		{"absent", nil, 0},
		{"once", []string{"-v"}, 1},
		{"grouped run", []string{"-vvv"}, 3},
		{"repeated", []string{"-v", "--verbose", "-v"}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vals, err := p.Parse(tt.argv)
			if err != nil {
				t.Fatalf("Parse(%v) error = %v", tt.argv, err)
			}
			if got := vals.Int("verbose"); got != tt.want {
				t.Errorf("verbose = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParse_ConstActions(t *testing.T) {
	fast := mustArg(t, []string{"--fast"}, WithAction(StoreConst), WithConst("turbo"), WithDest("mode"))
	tag := mustArg(t, []string{"--lint"}, WithAction(AppendConst), WithConst("lint"), WithDest("steps"))
	fmtTag := mustArg(t, []string{"--fmt"}, WithAction(AppendConst), WithConst("fmt"), WithDest("steps"))
	p := newTestParser(t, fast, tag, fmtTag)

	vals, err := p.Parse([]string{"--fast", "--lint", "--fmt"})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := vals.String("mode"); got != "turbo" {
		t.Errorf("mode = %q, want %q", got, "turbo")
	}
	want := []string{"lint", "fmt"}
	if diff := cmp.Diff(want, vals.Strings("steps")); diff != "" {
		t.Errorf("steps mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_AppendAndExtend(t *testing.T) {
	t.Run("append", func(t *testing.T) {
		p := newTestParser(t, mustArg(t, []string{"--tag"}, WithAction(Append)))
		vals, err := p.Parse([]string{"--tag", "a", "--tag", "b"})
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		want := []string{"a", "b"}
		if diff := cmp.Diff(want, vals.Strings("tag")); diff != "" {
			t.Errorf("tag mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("append with nargs flattens", func(t *testing.T) {
		p := newTestParser(t, mustArg(t, []string{"--pair"}, WithAction(Append), WithNArgs(2)))
		vals, err := p.Parse([]string{"--pair", "a", "b", "--pair", "c", "d"})
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		want := []string{"a", "b", "c", "d"}
		if diff := cmp.Diff(want, vals.Strings("pair")); diff != "" {
			t.Errorf("pair mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("extend with nargs", func(t *testing.T) {
		p := newTestParser(t, mustArg(t, []string{"--file"}, WithAction(Extend), WithNArgs(NArgsOneOrMore)))
		vals, err := p.Parse([]string{"--file", "a", "b", "--file", "c"})
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		want := []string{"a", "b", "c"}
		if diff := cmp.Diff(want, vals.Strings("file")); diff != "" {
			t.Errorf("file mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestParse_TypedValues(t *testing.T) {
	port := mustArg(t, []string{"--port"}, WithType(Int))
	ratio := mustArg(t, []string{"--ratio"}, WithType(Float))
	p := newTestParser(t, port, ratio)

	vals, err := p.Parse([]string{"--port", "8080", "--ratio", "0.5"})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := vals.Int("port"); got != 8080 {
		t.Errorf("port = %d, want 8080", got)
	}
	if got := vals.Float("ratio"); got != 0.5 {
		t.Errorf("ratio = %v, want 0.5", got)
	}

	t.Run("conversion failure", func(t *testing.T) {
		_, err := p.Parse([]string{"--port", "eighty"})
		var fve *FlagValueError
		if !errors.As(err, &fve) {
			t.Fatalf("Parse() error = %v, want *FlagValueError", err)
		}
		if fve.Value != "eighty" {
			t.Errorf("Value = %q, want %q", fve.Value, "eighty")
		}
	})

	t.Run("negative int value", func(t *testing.T) {
		vals, err := p.Parse([]string{"--port", "-1"})
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if got := vals.Int("port"); got != -1 {
			t.Errorf("port = %d, want -1", got)
		}
	})
}

func TestParse_DoubleDashNumberStaysAFlag(t *testing.T) {
	p := newTestParser(t, mustArg(t, []string{"--name"}))

	_, err := p.Parse([]string{"--name", "--10"})
	var fve *FlagValueError
	if !errors.As(err, &fve) {
		t.Fatalf("Parse(--name --10) error = %v, want *FlagValueError", err)
	}

	vals, err := p.Parse([]string{"--name", "-10"})
	if err != nil {
		t.Fatalf("Parse(--name -10) error = %v", err)
	}
	if got := vals.String("name"); got != "-10" {
		t.Errorf("name = %q, want %q", got, "-10")
	}
}

func TestParse_NArgs(t *testing.T) {
	t.Run("fixed count", func(t *testing.T) {
		p := newTestParser(t, mustArg(t, []string{"--pair"}, WithNArgs(2)))
		vals, err := p.Parse([]string{"--pair", "a", "b"})
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		want := []string{"a", "b"}
		if diff := cmp.Diff(want, vals.Strings("pair")); diff != "" {
			t.Errorf("pair mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("fixed count short", func(t *testing.T) {
		p := newTestParser(t, mustArg(t, []string{"--pair"}, WithNArgs(2)))
		if _, err := p.Parse([]string{"--pair", "a"}); err == nil {
			t.Fatal("Parse() succeeded with too few values")
		}
	})

	t.Run("optional with value", func(t *testing.T) {
		p := newTestParser(t, mustArg(t, []string{"--out"}, WithNArgs(NArgsOptional), WithDefault("stdout")))
		vals, err := p.Parse([]string{"--out", "file.txt"})
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		want := []string{"file.txt"}
		if diff := cmp.Diff(want, vals.Strings("out")); diff != "" {
			t.Errorf("out mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("optional without value keeps default", func(t *testing.T) {
		p := newTestParser(t, mustArg(t, []string{"--out"}, WithNArgs(NArgsOptional), WithDefault("stdout")))
		vals, err := p.Parse([]string{"--out"})
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if got := vals.String("out"); got != "stdout" {
			t.Errorf("out = %q, want %q", got, "stdout")
		}
	})

	t.Run("one or more empty", func(t *testing.T) {
		p := newTestParser(t, mustArg(t, []string{"--file"}, WithNArgs(NArgsOneOrMore)))
		if _, err := p.Parse([]string{"--file"}); err == nil {
			t.Fatal("Parse() succeeded with no values for one-or-more")
		}
	})
}

func TestParse_Positionals(t *testing.T) {
	t.Run("single", func(t *testing.T) {
		p := newTestParser(t, mustArg(t, []string{"target"}))
		vals, err := p.Parse([]string{"web"})
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if got := vals.String("target"); got != "web" {
			t.Errorf("target = %q, want %q", got, "web")
		}
	})

	t.Run("missing is required error", func(t *testing.T) {
		p := newTestParser(t, mustArg(t, []string{"target"}))
		_, err := p.Parse(nil)
		var re *RequiredError
		if !errors.As(err, &re) {
			t.Fatalf("Parse() error = %v, want *RequiredError", err)
		}
		if err.Error() != "the following arguments are required: target" {
			t.Errorf("error = %q", err)
		}
	})

	t.Run("zero or more may be empty", func(t *testing.T) {
		p := newTestParser(t, mustArg(t, []string{"files"}, WithNArgs(NArgsZeroOrMore)))
		vals, err := p.Parse(nil)
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if got := vals.Strings("files"); len(got) != 0 {
			t.Errorf("files = %v, want empty", got)
		}
	})

	t.Run("one or more gathers rest", func(t *testing.T) {
		p := newTestParser(t, mustArg(t, []string{"files"}, WithNArgs(NArgsOneOrMore)))
		vals, err := p.Parse([]string{"a", "b", "c"})
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		want := []string{"a", "b", "c"}
		if diff := cmp.Diff(want, vals.Strings("files")); diff != "" {
			t.Errorf("files mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("mixed with flags", func(t *testing.T) {
		p := newTestParser(t,
			mustArg(t, []string{"-v"}, WithAction(StoreTrue)),
			mustArg(t, []string{"target"}),
		)
		vals, err := p.Parse([]string{"web", "-v"})
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if got := vals.String("target"); got != "web" {
			t.Errorf("target = %q, want %q", got, "web")
		}
		if !vals.Bool("v") {
			t.Error("v = false, want true")
		}
	})
}

func TestParse_DoubleDash(t *testing.T) {
	p := newTestParser(t,
		mustArg(t, []string{"-v"}, WithAction(StoreTrue)),
		mustArg(t, []string{"files"}, WithNArgs(NArgsZeroOrMore)),
	)
	vals, err := p.Parse([]string{"-v", "--", "-not-a-flag", "b"})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !vals.Bool("v") {
		t.Error("v = false, want true")
	}
	want := []string{"-not-a-flag", "b"}
	if diff := cmp.Diff(want, vals.Strings("files")); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_Choices(t *testing.T) {
	p := newTestParser(t, mustArg(t, []string{"--format"}, WithChoices("json", "text")))

	t.Run("valid", func(t *testing.T) {
		vals, err := p.Parse([]string{"--format", "json"})
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if got := vals.String("format"); got != "json" {
			t.Errorf("format = %q, want %q", got, "json")
		}
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := p.Parse([]string{"--format", "xml"})
		if err == nil {
			t.Fatal("Parse() accepted a value outside choices")
		}
		want := `argument --format: invalid choice: "xml" (choose from json, text)`
		if err.Error() != want {
			t.Errorf("error = %q, want %q", err, want)
		}
	})
}

func TestParse_Required(t *testing.T) {
	p := newTestParser(t, mustArg(t, []string{"-n", "--name"}, Required()))
	_, err := p.Parse(nil)
	var re *RequiredError
	if !errors.As(err, &re) {
		t.Fatalf("Parse() error = %v, want *RequiredError", err)
	}
	if err.Error() != "the following arguments are required: --name" {
		t.Errorf("error = %q", err)
	}
}

func TestParse_Defaults(t *testing.T) {
	p := newTestParser(t,
		mustArg(t, []string{"--port"}, WithType(Int), WithDefault(8080)),
		mustArg(t, []string{"--name"}),
	)
	vals, err := p.Parse(nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := vals.Int("port"); got != 8080 {
		t.Errorf("port = %d, want 8080", got)
	}
	if vals.Has("name") {
		t.Error("name has a value, want unset without a declared default")
	}
}

func TestParse_Mutex(t *testing.T) {
	newMutexParser := func(t *testing.T, required bool) *Parser {
		t.Helper()
		jsonArg := mustArg(t, []string{"--json"}, WithAction(StoreTrue))
		textArg := mustArg(t, []string{"--text"}, WithAction(StoreTrue))
		g, err := NewMutexGroup(required, jsonArg, textArg)
		if err != nil {
			t.Fatalf("NewMutexGroup error = %v", err)
		}
		return newTestParser(t, g)
	}

	t.Run("one of the group", func(t *testing.T) {
		p := newMutexParser(t, false)
		vals, err := p.Parse([]string{"--json"})
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if !vals.Bool("json") {
			t.Error("json = false, want true")
		}
	})

	t.Run("both supplied", func(t *testing.T) {
		p := newMutexParser(t, false)
		_, err := p.Parse([]string{"--json", "--text"})
		var me *MutexError
		if !errors.As(err, &me) {
			t.Fatalf("Parse() error = %v, want *MutexError", err)
		}
		want := "argument --text: not allowed with argument --json"
		if err.Error() != want {
			t.Errorf("error = %q, want %q", err, want)
		}
	})

	t.Run("required none supplied", func(t *testing.T) {
		p := newMutexParser(t, true)
		_, err := p.Parse(nil)
		var me *MutexError
		if !errors.As(err, &me) {
			t.Fatalf("Parse() error = %v, want *MutexError", err)
		}
		want := "one of the arguments --json --text is required"
		if err.Error() != want {
			t.Errorf("error = %q, want %q", err, want)
		}
	})
}

func TestParse_UnknownFlag(t *testing.T) {
	p := newTestParser(t, mustArg(t, []string{"--name"}))
	_, err := p.Parse([]string{"--bogus"})
	var ife *InvalidFlagError
	if !errors.As(err, &ife) {
		t.Fatalf("Parse() error = %v, want *InvalidFlagError", err)
	}
	if ife.Flag != "--bogus" {
		t.Errorf("Flag = %q, want %q", ife.Flag, "--bogus")
	}
}

func TestParse_UnrecognizedPositionals(t *testing.T) {
	p := newTestParser(t, mustArg(t, []string{"--name"}))
	_, err := p.Parse([]string{"stray", "tokens"})
	var ue *UnrecognizedArgsError
	if !errors.As(err, &ue) {
		t.Fatalf("Parse() error = %v, want *UnrecognizedArgsError", err)
	}
	if err.Error() != "unrecognized arguments: stray tokens" {
		t.Errorf("error = %q", err)
	}
}

func TestParseKnown_Extras(t *testing.T) {
	tests := []struct {
		name       string
		items      []Item
		argv       []string
		wantExtras []string
	}{
		{
			name:       "unknown flag and value",
			argv:       []string{"-n", "world"},
			wantExtras: []string{"-n", "world"},
		},
		{
			name:       "preserves order around known flags",
			items:      []Item{testArg([]string{"-v"}, WithAction(StoreTrue))},
			argv:       []string{"lint", "-v", "--fix"},
			wantExtras: []string{"lint", "--fix"},
		},
		{
			name:       "no extras yields empty non-nil slice",
			items:      []Item{testArg([]string{"-v"}, WithAction(StoreTrue))},
			argv:       []string{"-v"},
			wantExtras: []string{},
		},
		{
			name:       "unknown long with equals kept verbatim",
			argv:       []string{"--mode=fast"},
			wantExtras: []string{"--mode=fast"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestParser(t, tt.items...)
			_, extras, err := p.ParseKnown(tt.argv)
			if err != nil {
				t.Fatalf("ParseKnown(%v) error = %v", tt.argv, err)
			}
			if extras == nil {
				t.Fatal("extras is nil, want non-nil")
			}
			if diff := cmp.Diff(tt.wantExtras, extras); diff != "" {
				t.Errorf("extras mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValues_Extra(t *testing.T) {
	p := newTestParser(t, testArg([]string{"-v"}, WithAction(StoreTrue)))

	vals, _, err := p.ParseKnown([]string{"-v", "lint", "--fix"})
	if err != nil {
		t.Fatalf("ParseKnown() error = %v", err)
	}
	want := []string{"lint", "--fix"}
	if diff := cmp.Diff(want, vals.Extra()); diff != "" {
		t.Errorf("Extra() mismatch (-want +got):\n%s", diff)
	}

	strict, err := p.Parse([]string{"-v"})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := strict.Extra(); len(got) != 0 {
		t.Errorf("Extra() after strict parse = %v, want empty", got)
	}
}

func TestParse_Help(t *testing.T) {
	p := newTestParser(t, mustArg(t, []string{"--name"}))
	for _, flag := range []string{"-h", "--help"} {
		if _, err := p.Parse([]string{flag}); !errors.Is(err, ErrHelp) {
			t.Errorf("Parse(%q) error = %v, want ErrHelp", flag, err)
		}
	}
	if _, _, err := p.ParseKnown([]string{"-h"}); !errors.Is(err, ErrHelp) {
		t.Errorf("ParseKnown(-h) error = %v, want ErrHelp", err)
	}
}

func TestAdd_ConflictingFlag(t *testing.T) {
	p := NewParser("./do test", "")
	if err := p.Add(testArg([]string{"-n", "--name"})); err != nil {
		t.Fatalf("Add error = %v", err)
	}
	err := p.Add(testArg([]string{"--name"}))
	var ce *ConstructionError
	if !errors.As(err, &ce) {
		t.Fatalf("Add error = %v, want *ConstructionError", err)
	}
}

func TestIsNegativeNumber(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"-1", true},
		{"-10", true},
		{"-3.14", true},
		{"-0", true},
		{"-", false},
		{"-v", false},
		{"--10", false},
		{"10", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isNegativeNumber(tt.input); got != tt.want {
			t.Errorf("isNegativeNumber(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
