package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/chazu/isomesh/pkg/config"
	"github.com/chazu/isomesh/pkg/engine"
	"github.com/chazu/isomesh/pkg/export"
	"github.com/chazu/isomesh/pkg/field"
	"github.com/chazu/isomesh/pkg/kernel"
	"github.com/chazu/isomesh/pkg/kernel/native"
	"github.com/chazu/isomesh/pkg/kernel/sdfx"
	"github.com/chazu/isomesh/pkg/tessellate"
)

// App runs job files: it resolves each job's field, meshes the batch and
// writes one file per job.
type App struct {
	ctx    context.Context
	engine *engine.Engine
}

// OutputData summarizes one written mesh.
type OutputData struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	Triangles int    `json:"triangles"`
	Vertices  int    `json:"vertices"`
	Welded    bool   `json:"welded"`
}

// EvalErrorData is a single problem found while running a batch.
type EvalErrorData struct {
	Job     string `json:"job"`
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

func (e EvalErrorData) String() string {
	loc := e.Job
	if e.Line > 0 {
		loc = fmt.Sprintf("%s line %d", e.Job, e.Line)
	}
	if loc == "" {
		return e.Message
	}
	return loc + ": " + e.Message
}

// RunResult is the full result of a batch. Field resolution and meshing are
// all or nothing; write failures are reported per job.
type RunResult struct {
	Outputs []OutputData    `json:"outputs"`
	Errors  []EvalErrorData `json:"errors"`
}

// NewApp creates a new App. Cancelling ctx aborts native meshing.
func NewApp(ctx context.Context) *App {
	if ctx == nil {
		ctx = context.Background()
	}
	return &App{
		ctx:    ctx,
		engine: engine.NewEngine(),
	}
}

// newKernel returns the kernel registered under name.
func (a *App) newKernel(name string) (kernel.Kernel, error) {
	switch name {
	case "", "native":
		return native.New(a.ctx), nil
	case "sdfx":
		return sdfx.New(), nil
	}
	return nil, fmt.Errorf("unknown kernel %q", name)
}

// resolveField turns a job's field source into a Field. Script-backed
// fields also return the script, which the caller must close.
func (a *App) resolveField(job config.Job) (field.Field, *engine.Script, []EvalErrorData) {
	fail := func(msg string) []EvalErrorData {
		return []EvalErrorData{{Job: job.Name, Message: msg}}
	}

	var (
		s        *engine.Script
		evalErrs []engine.EvalError
		err      error
	)
	switch {
	case job.Field != "":
		f, err := field.Lookup(job.Field)
		if err != nil {
			return nil, nil, fail(err.Error())
		}
		return f, nil, nil

	case job.Expr != "":
		s, evalErrs, err = a.engine.CompileExpr(job.Expr)

	case job.Script != "":
		source, rerr := os.ReadFile(job.Script)
		if rerr != nil {
			return nil, nil, fail(fmt.Sprintf("reading script: %v", rerr))
		}
		s, evalErrs, err = a.engine.Compile(string(source))

	default:
		return nil, nil, fail("no field, expr or script")
	}

	if err != nil {
		// Fatal error (panic, timeout, etc.)
		log.Printf("Compile fatal error for job %s: %v", job.Name, err)
		return nil, nil, fail(err.Error())
	}
	if len(evalErrs) > 0 {
		out := make([]EvalErrorData, 0, len(evalErrs))
		for _, e := range evalErrs {
			out = append(out, EvalErrorData{Job: job.Name, Line: e.Line, Col: e.Col, Message: e.Message})
		}
		return nil, nil, out
	}
	return s.Field(), s, nil
}

// Run meshes every job in cfg and writes the results.
func (a *App) Run(cfg *config.Config) RunResult {
	result := RunResult{
		Outputs: []OutputData{},
		Errors:  []EvalErrorData{},
	}
	fatal := func(job, msg string) RunResult {
		result.Outputs = []OutputData{}
		result.Errors = append(result.Errors, EvalErrorData{Job: job, Message: msg})
		return result
	}

	if err := cfg.Validate(); err != nil {
		return fatal("", err.Error())
	}

	// Step 1: Resolve every job's field before any meshing starts.
	jobs := make([]kernel.Job, 0, len(cfg.Jobs))
	scripts := make(map[string]*engine.Script)
	defer func() {
		for _, s := range scripts {
			s.Close()
		}
	}()
	for _, cj := range cfg.Jobs {
		f, s, errs := a.resolveField(cj)
		if len(errs) > 0 {
			result.Errors = append(result.Errors, errs...)
			continue
		}
		if s != nil {
			scripts[cj.Name] = s
		}
		jobs = append(jobs, kernel.Job{
			Name:     cj.Name,
			Field:    f,
			Isovalue: cj.Isovalue,
			Grid:     cj.Grid(),
			Workers:  cfg.Workers,
		})
	}
	if len(result.Errors) > 0 {
		return result
	}

	// Step 2: Tessellate the batch.
	k, err := a.newKernel(cfg.Kernel)
	if err != nil {
		return fatal("", err.Error())
	}
	meshes, err := tessellate.Tessellate(jobs, k)
	if err != nil {
		log.Printf("Tessellate error: %v", err)
		return fatal("", "tessellation failed: "+err.Error())
	}

	// Step 3: A script that failed mid-sampling produced NaN vertices.
	for name, s := range scripts {
		if err := s.Err(); err != nil {
			return fatal(name, err.Error())
		}
	}

	// Step 4: Weld and write.
	for i, m := range meshes {
		cj := cfg.Jobs[i]
		weld := cfg.Weld || cj.Weld
		if weld {
			m = kernel.Weld(m)
		}
		path := cj.OutputPath(cfg.OutputDir)
		err := os.MkdirAll(filepath.Dir(path), 0o755)
		if err == nil {
			err = export.WriteFile(path, m)
		}
		if err != nil {
			log.Printf("Write error: %v", err)
			result.Errors = append(result.Errors, EvalErrorData{Job: cj.Name, Message: err.Error()})
			continue
		}
		log.Printf("wrote %s: %d triangles, %d vertices", path, m.TriangleCount(), m.VertexCount())
		result.Outputs = append(result.Outputs, OutputData{
			Name:      cj.Name,
			Path:      path,
			Triangles: m.TriangleCount(),
			Vertices:  m.VertexCount(),
			Welded:    weld,
		})
	}

	return result
}
