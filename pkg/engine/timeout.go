package engine

import (
	"fmt"
	"sync"
	"time"
)

// EvalTimeout is the hard limit for a single compile.
const EvalTimeout = 5 * time.Second

// compileResult is the internal type used to pass compile results through
// channels.
type compileResult struct {
	script *Script
	errors []EvalError
	err    error
}

// waitWithTimeout waits for a result from ch, but returns a timeout error
// if the compile exceeds EvalTimeout. It uses a generation counter to
// discard stale results from previous compiles.
//
// On timeout, the goroutine may still be running; its script is closed
// when it eventually completes.
func waitWithTimeout(
	ch <-chan compileResult,
	gen uint64,
	mu *sync.Mutex,
	currentGen *uint64,
) (*Script, []EvalError, error) {
	timer := time.NewTimer(EvalTimeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		mu.Lock()
		current := *currentGen
		mu.Unlock()

		if gen != current {
			if res.script != nil {
				res.script.Close()
			}
			return nil, nil, fmt.Errorf("evaluation superseded by newer request")
		}

		return res.script, res.errors, res.err

	case <-timer.C:
		go func() {
			if res := <-ch; res.script != nil {
				res.script.Close()
			}
		}()
		return nil, nil, fmt.Errorf("evaluation timed out after %s", EvalTimeout)
	}
}
