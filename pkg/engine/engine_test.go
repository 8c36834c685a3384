package engine

import (
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chazu/isomesh/pkg/field"
	"github.com/chazu/isomesh/pkg/march"
)

func mustCompileExpr(t *testing.T, expr string) *Script {
	t.Helper()
	s, evalErrs, err := NewEngine().CompileExpr(expr)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	t.Cleanup(s.Close)
	return s
}

func TestCompileExprSphere(t *testing.T) {
	s := mustCompileExpr(t, "(+ (* x x) (* y y) (* z z) -1)")

	points := [][3]float64{{0, 0, 0}, {1, 0, 0}, {0.5, -0.5, 2}, {-3, 1, 1}}
	for _, p := range points {
		got := s.Eval(p[0], p[1], p[2])
		want := field.Sphere(p[0], p[1], p[2])
		if math.Abs(got-want) > 1e-12 {
			t.Errorf("Eval(%v) = %v, want %v", p, got, want)
		}
	}
	if err := s.Err(); err != nil {
		t.Errorf("Err() = %v", err)
	}
}

func TestCompileProgram(t *testing.T) {
	source := `
; a wavy sheet
(def amplitude 0.5)
(defn surface [x y z]
  (- y (* amplitude (sin x) (cos z))))
`
	s, evalErrs, err := NewEngine().Compile(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	defer s.Close()

	want := 1 - 0.5*math.Sin(1)*math.Cos(2)
	if got := s.Eval(1, 1, 2); math.Abs(got-want) > 1e-12 {
		t.Errorf("Eval = %v, want %v", got, want)
	}
}

func TestMathBuiltins(t *testing.T) {
	tests := []struct {
		expr string
		want float64
	}{
		{"(sqrt 16)", 4},
		{"(abs -2.5)", 2.5},
		{"(pow 2 10)", 1024},
		{"(min 3 -1 2)", -1},
		{"(max 3 -1 2)", 3},
		{"(exp 0)", 1},
		{"(log 1)", 0},
		{"(cos 0)", 1},
		{"(floor 2.7)", 2},
		{"(* 2 pi)", 2 * math.Pi},
		{"x", 0.25},
		{"(+ x y z)", 0.25 + 0.5 + 2},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			s := mustCompileExpr(t, tt.expr)
			if got := s.Eval(0.25, 0.5, 2); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("%s = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestFieldBuiltins(t *testing.T) {
	p := [3]float64{0.3, -0.7, 1.1}
	tests := []struct {
		expr string
		want float64
	}{
		{"(sphere x y z)", field.Sphere(p[0], p[1], p[2])},
		{"(gyroid x y z)", field.Gyroid(p[0], p[1], p[2])},
		{"(saddle x y z)", field.Saddle(p[0], p[1], p[2])},
		{"(torus x y z)", field.Torus(1, 0.4)(p[0], p[1], p[2])},
		{"(torus x y z :major 2 :minor 0.5)", field.Torus(2, 0.5)(p[0], p[1], p[2])},
		{`(sample "wave" x y z)`, field.Wave(p[0], p[1], p[2])},
		{"(min (sphere x y z) (- (sphere x y z) 1))", field.Sphere(p[0], p[1], p[2]) - 1},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			s := mustCompileExpr(t, tt.expr)
			if got := s.Eval(p[0], p[1], p[2]); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("%s = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestKebabCaseFieldName(t *testing.T) {
	rb, err := field.Lookup("rounded-box")
	if err != nil {
		t.Fatal(err)
	}
	s := mustCompileExpr(t, "(rounded-box x y z)")
	if got, want := s.Eval(0, 0, 0), rb(0, 0, 0); math.Abs(got-want) > 1e-9 {
		t.Errorf("rounded-box = %v, want %v", got, want)
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"empty", ""},
		{"no surface", "(def r 2)"},
		{"surface not a function", "(def surface 3)"},
		{"unbalanced", "(defn surface [x y z] (+ x 1)"},
		{"undefined symbol", "(defn surface [x y z] (+ x undefined-symbol))"},
		{"wrong arity", "(defn surface [x y] (+ x y))"},
		{"non-numeric result", `(defn surface [x y z] "hello")`},
		{"bad builtin args", "(defn surface [x y z] (sqrt x y))"},
		{"unknown field", `(defn surface [x y z] (sample "teapot" x y z))`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, evalErrs, err := NewEngine().Compile(tt.source)
			if err != nil {
				t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
			}
			if s != nil {
				s.Close()
				t.Fatal("expected nil script")
			}
			if len(evalErrs) == 0 {
				t.Fatal("expected at least one eval error")
			}
			if evalErrs[0].Message == "" {
				t.Error("eval error message should not be empty")
			}
		})
	}
}

func TestCompileExprEmpty(t *testing.T) {
	s, evalErrs, err := NewEngine().CompileExpr("   ")
	if err != nil || s != nil {
		t.Fatalf("CompileExpr(blank) = %v, %v", s, err)
	}
	if len(evalErrs) != 1 || !strings.Contains(evalErrs[0].Message, "empty") {
		t.Errorf("evalErrs = %v", evalErrs)
	}
}

func TestRuntimeErrorYieldsNaN(t *testing.T) {
	// cond evaluates only the chosen branch, so sample fails only when x is
	// positive and the compile probe at the origin succeeds.
	s := mustCompileExpr(t, `(cond (> x 0) (sample "teapot" x y z) x)`)

	if v := s.Eval(-1, 0, 0); v != -1 {
		t.Fatalf("Eval(-1) = %v, want -1", v)
	}
	if v := s.Eval(1, 0, 0); !math.IsNaN(v) {
		t.Errorf("Eval(1) = %v, want NaN", v)
	}
	if s.Err() == nil {
		t.Fatal("Err() = nil after runtime failure")
	}
	if !strings.Contains(s.Err().Error(), "surface(1, 0, 0)") {
		t.Errorf("Err() = %v, want sample point in message", s.Err())
	}
	if v := s.Eval(-1, 0, 0); !math.IsNaN(v) {
		t.Errorf("Eval after failure = %v, want NaN", v)
	}
}

func TestClosedScriptYieldsNaN(t *testing.T) {
	s, _, err := NewEngine().CompileExpr("x")
	if err != nil {
		t.Fatal(err)
	}
	s.Close()
	s.Close()
	if v := s.Eval(1, 2, 3); !math.IsNaN(v) {
		t.Errorf("Eval after Close = %v, want NaN", v)
	}
}

func TestScriptConcurrentMarch(t *testing.T) {
	s := mustCompileExpr(t, "(sphere x y z)")
	g := march.Grid{Min: -2, Max: 2, Step: 0.5}

	want := march.March(field.Sphere, 0, g)
	got, _, err := march.MarchParallel(t.Context(), s.Field(), 0, g, 4)
	if err != nil {
		t.Fatalf("MarchParallel: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d floats, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("vertex float %d = %v, want %v", i, got[i], want[i])
		}
	}
	if err := s.Err(); err != nil {
		t.Errorf("Err() = %v", err)
	}
}

func TestEvalErrorImplementsError(t *testing.T) {
	e := EvalError{Line: 5, Col: 0, Message: "something went wrong"}
	s := e.Error()
	if !strings.Contains(s, "line 5") {
		t.Errorf("Error() should contain line info, got: %s", s)
	}
	if !strings.Contains(s, "something went wrong") {
		t.Errorf("Error() should contain message, got: %s", s)
	}

	e2 := EvalError{Line: 0, Col: 0, Message: "no location"}
	if strings.Contains(e2.Error(), "line") {
		t.Errorf("Error() with no line should not contain 'line', got: %s", e2.Error())
	}
}

func TestEvalErrors(t *testing.T) {
	if err := EvalErrors(nil); err != nil {
		t.Errorf("EvalErrors(nil) = %v", err)
	}
	err := EvalErrors([]EvalError{{Line: 2, Message: "a"}, {Message: "b"}})
	if err == nil || err.Error() != "engine: line 2: a; b" {
		t.Errorf("EvalErrors = %v", err)
	}
}

func TestEvaluateTimeout(t *testing.T) {
	// Tests the timeout plumbing directly with a channel that never sends;
	// an infinite loop inside zygomys would leak its goroutine.
	var mu sync.Mutex
	var gen uint64 = 1
	ch := make(chan compileResult)

	done := make(chan struct{})
	var resultErr error
	go func() {
		defer close(done)
		_, _, resultErr = waitWithTimeout(ch, 1, &mu, &gen)
	}()

	select {
	case <-done:
		if resultErr == nil {
			t.Fatal("expected timeout error, got nil")
		}
		if !strings.Contains(resultErr.Error(), "timed out") {
			t.Errorf("expected timeout error message, got: %v", resultErr)
		}
	case <-time.After(EvalTimeout + 2*time.Second):
		t.Fatal("test itself timed out waiting for evaluation timeout")
	}
}

func TestEvaluateGenerationDiscardsStale(t *testing.T) {
	var mu sync.Mutex
	gen := uint64(2)

	ch := make(chan compileResult, 1)
	ch <- compileResult{}

	_, _, err := waitWithTimeout(ch, 1, &mu, &gen)
	if err == nil {
		t.Fatal("expected error for stale generation")
	}
	if !strings.Contains(err.Error(), "superseded") {
		t.Errorf("expected superseded error, got: %v", err)
	}
}

func TestParseZygomysError(t *testing.T) {
	tests := []struct {
		name     string
		msg      string
		wantLine int
		wantMsg  string
	}{
		{"error on line format", "Error on line 5: unexpected token\n", 5, "unexpected token"},
		{"no line info", "some generic error", 0, "some generic error"},
		{"line format lowercase", "error on line 12: missing paren", 12, "missing paren"},
		{"short line format", "line 3: bad", 3, "bad"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := parseZygomysError(errString(tt.msg))
			if len(errs) == 0 {
				t.Fatal("expected at least one error")
			}
			e := errs[0]
			if e.Line != tt.wantLine {
				t.Errorf("line = %d, want %d", e.Line, tt.wantLine)
			}
			if !strings.Contains(e.Message, tt.wantMsg) {
				t.Errorf("message = %q, want containing %q", e.Message, tt.wantMsg)
			}
		})
	}
}

// errString is a simple error type for testing.
type errString string

func (e errString) Error() string { return string(e) }
