package engine

import (
	"fmt"
	"math"
	"sync"

	"github.com/chazu/isomesh/pkg/field"
	zygo "github.com/glycerine/zygomys/zygo"
)

// Script is a compiled field script. zygomys environments are not safe for
// concurrent use, so calls are serialized; a Script may still be handed to
// parallel extractors.
type Script struct {
	mu  sync.Mutex
	env *zygo.Zlisp
	fn  *zygo.SexpFunction
	err error
}

// Eval samples the surface function at (x, y, z). After the first runtime
// error every call returns NaN; the error is available from Err.
func (s *Script) Eval(x, y, z float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil || s.env == nil {
		return math.NaN()
	}
	v, err := s.call(x, y, z)
	if err != nil {
		s.err = fmt.Errorf("engine: %s(%g, %g, %g): %w", SurfaceFunc, x, y, z, err)
		return math.NaN()
	}
	return v
}

// Field returns Eval as a field.Field.
func (s *Script) Field() field.Field {
	return s.Eval
}

// Err returns the first runtime error raised while sampling, if any.
func (s *Script) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close releases the interpreter. Eval returns NaN afterwards.
func (s *Script) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.env != nil {
		s.env.Stop()
		s.env = nil
	}
}

// call applies the surface function; the caller holds mu or owns s.
func (s *Script) call(x, y, z float64) (v float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	res, err := s.env.Apply(s.fn, []zygo.Sexp{num(x), num(y), num(z)})
	if err != nil {
		return 0, err
	}
	return toFloat64(res)
}
