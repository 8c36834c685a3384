// Package engine compiles Lisp field scripts into scalar fields. It wraps
// zygomys in a sandboxed environment; a script defines
//
//	(defn surface [x y z] ...)
//
// and the resulting Script samples that function.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	zygo "github.com/glycerine/zygomys/zygo"
)

// SurfaceFunc is the name of the function a field script must define.
const SurfaceFunc = "surface"

// EvalError represents a non-fatal error encountered during compilation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalErrors joins a non-empty error list into one error, or returns nil.
func EvalErrors(errs []EvalError) error {
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return fmt.Errorf("engine: %s", strings.Join(msgs, "; "))
}

// Engine compiles field scripts. It is safe for concurrent use; each
// compile creates a fresh sandboxed environment.
type Engine struct {
	mu         sync.Mutex
	generation uint64
}

// NewEngine creates a new Engine instance.
func NewEngine() *Engine {
	return &Engine{}
}

// Compile runs source, which must define the surface function, and returns
// a Script that samples it.
//
// Return semantics:
//   - On success: returns script + nil errors + nil error
//   - On parse/eval failure: returns nil script + eval errors + nil error
//   - On fatal failure (timeout, panic, superseded): returns nil + nil + error
func (e *Engine) Compile(source string) (*Script, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan compileResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- compileResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		s, evalErrs, err := compile(source)
		ch <- compileResult{script: s, errors: evalErrs, err: err}
	}()

	return waitWithTimeout(ch, gen, &e.mu, &e.generation)
}

// CompileExpr compiles a single expression in x, y and z as the body of the
// surface function.
func (e *Engine) CompileExpr(expr string) (*Script, []EvalError, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, []EvalError{{Message: "empty field expression"}}, nil
	}
	return e.Compile(fmt.Sprintf("(defn %s [x y z]\n%s\n)", SurfaceFunc, expr))
}

// compile performs the zygomys evaluation in a fresh sandbox.
func compile(source string) (*Script, []EvalError, error) {
	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	registerBuiltins(env)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		env.Stop()
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		env.Stop()
		return nil, parseZygomysError(err), nil
	}

	obj, found := env.FindObject(SurfaceFunc)
	if !found {
		env.Stop()
		return nil, []EvalError{{Message: fmt.Sprintf("program does not define (defn %s [x y z] ...)", SurfaceFunc)}}, nil
	}
	fn, ok := obj.(*zygo.SexpFunction)
	if !ok {
		env.Stop()
		return nil, []EvalError{{Message: fmt.Sprintf("%s is %T, not a function", SurfaceFunc, obj)}}, nil
	}

	s := &Script{env: env, fn: fn}

	// Probe once so arity and return-type mistakes surface at compile time.
	if _, err := s.call(0, 0, 0); err != nil {
		env.Stop()
		return nil, parseZygomysError(err), nil
	}
	return s, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	// zygomys formats parse errors as "Error on line N: <details>\n"
	if m := linePattern.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
	}

	if m := linePatternShort.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
	}

	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
