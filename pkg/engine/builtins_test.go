package engine

import (
	"testing"

	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessSource(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(torus x y z :major 2)`,
			expect: `(torus x y z "__kw_major" 2)`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "assignment operator preserved",
			input:  `(def r := 10)`,
			expect: `(def r := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(rounded-box x y z)`,
			expect: `(rounded_box x y z)`,
		},
		{
			name:   "kebab-case inside string preserved",
			input:  `(sample "rounded-box" x y z)`,
			expect: `(sample "rounded-box" x y z)`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- x 1)`,
			expect: `(- x 1)`,
		},
		{
			name:   "negative literal preserved",
			input:  `(+ x -1)`,
			expect: `(+ x -1)`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "trailing comment",
			input:  "(sphere x y z) ; unit ball\n",
			expect: "(sphere x y z) // unit ball\n",
		},
		{
			name:   "hyphen in keyword preserved",
			input:  `:major-radius`,
			expect: `"__kw_major-radius"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Argument parsing
// ---------------------------------------------------------------------------

func TestParseArgs(t *testing.T) {
	args := []zygo.Sexp{
		&zygo.SexpFloat{Val: 1},
		&zygo.SexpStr{S: kwPrefix + "major"},
		&zygo.SexpInt{Val: 3},
		&zygo.SexpFloat{Val: 2},
		&zygo.SexpStr{S: kwPrefix + "flag"},
	}
	pa := parseArgs(args)
	if len(pa.positional) != 2 {
		t.Fatalf("positional = %d, want 2", len(pa.positional))
	}
	major, err := pa.floatKW("major", 0)
	if err != nil || major != 3 {
		t.Errorf("major = %v, %v; want 3", major, err)
	}
	minor, err := pa.floatKW("minor", 0.4)
	if err != nil || minor != 0.4 {
		t.Errorf("minor = %v, %v; want default 0.4", minor, err)
	}
	if _, ok := pa.kw["flag"]; !ok {
		t.Error("trailing keyword should be recorded")
	}
}

func TestToFloat64(t *testing.T) {
	if f, err := toFloat64(&zygo.SexpInt{Val: 7}); err != nil || f != 7 {
		t.Errorf("int: %v, %v", f, err)
	}
	if f, err := toFloat64(&zygo.SexpFloat{Val: -0.5}); err != nil || f != -0.5 {
		t.Errorf("float: %v, %v", f, err)
	}
	if _, err := toFloat64(&zygo.SexpStr{S: "7"}); err == nil {
		t.Error("string should not convert to a number")
	}
}

func TestToFloatsArity(t *testing.T) {
	_, err := toFloats("sqrt", []zygo.Sexp{&zygo.SexpInt{Val: 1}, &zygo.SexpInt{Val: 2}}, 1)
	if err == nil {
		t.Fatal("expected arity error")
	}
}
