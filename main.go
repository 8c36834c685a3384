// Command isomesh extracts isosurfaces from scalar fields with marching
// cubes and writes them as PLY, GLB or STL meshes.
//
// A single surface is described with flags:
//
//	isomesh -field sphere -step 0.25 -o ball.ply
//	isomesh -expr '(- y (* 0.5 (sin x) (cos z)))' -min -6 -max 6 -o ripple.glb
//
// Batches come from a TOML job file; flags given alongside override the
// file's workers, kernel and weld settings:
//
//	isomesh -config jobs.toml -workers 8
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/chazu/isomesh/pkg/config"
	"github.com/chazu/isomesh/pkg/export"
	"github.com/chazu/isomesh/pkg/field"
)

func main() {
	cfg, err := parseArgs(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result := NewApp(ctx).Run(cfg)
	for _, e := range result.Errors {
		log.Printf("error: %s", e)
	}
	if len(result.Errors) > 0 {
		stop()
		os.Exit(1)
	}
}

// parseArgs builds the run configuration from command-line arguments.
func parseArgs(args []string, stderr io.Writer) (*config.Config, error) {
	fs := flag.NewFlagSet("isomesh", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		configPath string
		fieldName  string
		expr       string
		script     string
		iso        float64
		lo         float64
		hi         float64
		step       float64
		workers    int
		kernelName string
		weld       bool
		output     string
	)
	fs.StringVar(&configPath, "config", "", "TOML job file")
	fs.StringVar(&fieldName, "field", "", "builtin field: "+strings.Join(field.Names(), ", "))
	fs.StringVar(&expr, "expr", "", "Lisp expression in x, y, z")
	fs.StringVar(&script, "script", "", "Lisp file defining (defn surface [x y z] ...)")
	fs.Float64Var(&iso, "iso", config.DefaultIsovalue, "isovalue")
	fs.Float64Var(&lo, "min", config.DefaultMin, "lower grid bound on every axis")
	fs.Float64Var(&hi, "max", config.DefaultMax, "upper grid bound on every axis")
	fs.Float64Var(&step, "step", config.DefaultStep, "cell edge length")
	fs.IntVar(&workers, "workers", 0, "parallel slabs (0 = GOMAXPROCS)")
	fs.StringVar(&kernelName, "kernel", config.DefaultKernel, "meshing kernel: "+strings.Join(config.Kernels, ", "))
	fs.BoolVar(&weld, "weld", false, "merge identical vertices")
	fs.StringVar(&output, "o", "", "output file ("+strings.Join(export.Formats(), ", ")+"); default <name>.ply")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if configPath != "" {
		for _, name := range []string{"field", "expr", "script", "iso", "min", "max", "step", "o"} {
			if set[name] {
				return nil, fmt.Errorf("-%s cannot be combined with -config", name)
			}
		}
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		if set["workers"] {
			cfg.Workers = workers
		}
		if set["kernel"] {
			cfg.Kernel = kernelName
		}
		if set["weld"] {
			cfg.Weld = weld
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	job := config.Job{
		Field:    fieldName,
		Expr:     expr,
		Script:   script,
		Isovalue: iso,
		Min:      lo,
		Max:      hi,
		Step:     step,
		Weld:     weld,
	}
	switch {
	case output != "":
		job.Name = strings.TrimSuffix(filepath.Base(output), filepath.Ext(output))
		job.Name = strings.TrimSuffix(job.Name, ".ply")
		job.Output = output
	case fieldName != "":
		job.Name = fieldName
	default:
		job.Name = "surface"
	}

	cfg := config.Default()
	cfg.Workers = workers
	cfg.Kernel = kernelName
	cfg.Jobs = []config.Job{job}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
