package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/chazu/isomesh/pkg/field"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms field script source before passing it to
// zygomys. It performs three transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: rounded-box -> rounded_box
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator).
//
//  3. ; line comments become // comments, which is what zygomys reads.
//
// All transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				result = append(result, '"')
				result = append(result, kwPrefix...)
				result = append(result, b[i+1:j]...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Only when the hyphen sits between identifier characters; x -1 and
		// (- x 1) are left alone.
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// floatKW returns keyword k as a number, or def when absent.
func (a kwArgs) floatKW(k string, def float64) (float64, error) {
	v, ok := a.kw[k]
	if !ok {
		return def, nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return f, nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toFloats extracts exactly n numbers from args.
func toFloats(fn string, args []zygo.Sexp, n int) ([]float64, error) {
	if len(args) != n {
		return nil, fmt.Errorf("%s: expected %d arguments, got %d", fn, n, len(args))
	}
	out := make([]float64, n)
	for i, a := range args {
		f, err := toFloat64(a)
		if err != nil {
			return nil, fmt.Errorf("%s: argument %d: %w", fn, i+1, err)
		}
		out[i] = f
	}
	return out, nil
}

func num(f float64) zygo.Sexp {
	return &zygo.SexpFloat{Val: f}
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

var unaryMath = map[string]func(float64) float64{
	"sin":   math.Sin,
	"cos":   math.Cos,
	"tan":   math.Tan,
	"sqrt":  math.Sqrt,
	"abs":   math.Abs,
	"exp":   math.Exp,
	"log":   math.Log,
	"floor": math.Floor,
}

// registerBuiltins installs the math and field builtins into a zygomys
// environment. Source must be preprocessed with preprocessSource() so that
// :keyword tokens and kebab-case names are recognizable.
//
//	(sin x) (cos x) (tan x) (sqrt x) (abs x) (exp x) (log x) (floor x)
//	(pow b e) (min a b ...) (max a b ...)
//	(sphere x y z) (gyroid x y z) ...       every builtin field by name
//	(torus x y z :major 1 :minor 0.4)
//	(sample "rounded-box" x y z)
//	pi
func registerBuiltins(env *zygo.Zlisp) {
	for name, fn := range unaryMath {
		fn := fn
		env.AddFunction(name, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			v, err := toFloats(name, args, 1)
			if err != nil {
				return zygo.SexpNull, err
			}
			return num(fn(v[0])), nil
		})
	}

	env.AddFunction("pow", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		v, err := toFloats(name, args, 2)
		if err != nil {
			return zygo.SexpNull, err
		}
		return num(math.Pow(v[0], v[1])), nil
	})

	extremum := func(pick func(a, b float64) float64) zygo.ZlispUserFunction {
		return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) == 0 {
				return zygo.SexpNull, fmt.Errorf("%s: expected at least 1 argument", name)
			}
			v, err := toFloats(name, args, len(args))
			if err != nil {
				return zygo.SexpNull, err
			}
			out := v[0]
			for _, f := range v[1:] {
				out = pick(out, f)
			}
			return num(out), nil
		}
	}
	env.AddFunction("min", extremum(math.Min))
	env.AddFunction("max", extremum(math.Max))

	env.AddGlobal("pi", num(math.Pi))

	// Every registered field is callable by its (underscored) name.
	for _, fieldName := range field.Names() {
		f, err := field.Lookup(fieldName)
		if err != nil {
			continue
		}
		env.AddFunction(strings.ReplaceAll(fieldName, "-", "_"), func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			v, err := toFloats(name, args, 3)
			if err != nil {
				return zygo.SexpNull, err
			}
			return num(f(v[0], v[1], v[2])), nil
		})
	}

	// (torus x y z :major R :minor r) overrides the fixed-size registry entry.
	env.AddFunction("torus", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		v, err := toFloats(name, pa.positional, 3)
		if err != nil {
			return zygo.SexpNull, err
		}
		major, err := pa.floatKW("major", 1)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("torus: %w", err)
		}
		minor, err := pa.floatKW("minor", 0.4)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("torus: %w", err)
		}
		return num(field.Torus(major, minor)(v[0], v[1], v[2])), nil
	})

	// (sample "name" x y z) evaluates a registered field by its original name.
	resolved := make(map[string]field.Field)
	env.AddFunction("sample", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 4 {
			return zygo.SexpNull, fmt.Errorf("sample requires a field name and x y z")
		}
		fieldName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("sample: name: %w", err)
		}
		f, ok := resolved[fieldName]
		if !ok {
			f, err = field.Lookup(fieldName)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("sample: %w", err)
			}
			resolved[fieldName] = f
		}
		v, err := toFloats(name, args[1:], 3)
		if err != nil {
			return zygo.SexpNull, err
		}
		return num(f(v[0], v[1], v[2])), nil
	})
}
