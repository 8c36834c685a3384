// Package config loads batch job files. A job file is TOML:
//
//	output_dir = "out"
//	workers = 4
//	kernel = "native"
//
//	[[job]]
//	name = "ball"
//	field = "sphere"
//	step = 0.25
//
//	[[job]]
//	name = "ripple"
//	expr = "(- y (* 0.5 (sin x) (cos z)))"
//	min = -6
//	max = 6
//	output = "ripple.glb"
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/isomesh/pkg/export"
	"github.com/chazu/isomesh/pkg/field"
	"github.com/chazu/isomesh/pkg/march"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// Defaults applied to fields a job file leaves unset.
const (
	DefaultIsovalue = 0.0
	DefaultMin      = -5.0
	DefaultMax      = 5.0
	DefaultStep     = 0.4
	DefaultKernel   = "native"
	DefaultOutput   = ".ply"
)

// Kernels lists the accepted kernel names.
var Kernels = []string{"native", "sdfx"}

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Config is a parsed job file.
type Config struct {
	OutputDir string `toml:"output_dir"`
	Workers   int    `toml:"workers"`
	Kernel    string `toml:"kernel"`
	Weld      bool   `toml:"weld"`
	Jobs      []Job  `toml:"job"`
}

// Job describes one surface to extract. Exactly one of Field, Expr and
// Script names the scalar field. Min and Max both zero mean the default
// bounds; a zero Step means the default step.
type Job struct {
	Name     string  `toml:"name"`
	Field    string  `toml:"field"`
	Expr     string  `toml:"expr"`
	Script   string  `toml:"script"`
	Isovalue float64 `toml:"isovalue"`
	Min      float64 `toml:"min"`
	Max      float64 `toml:"max"`
	Step     float64 `toml:"step"`
	Output   string  `toml:"output"`
	Weld     bool    `toml:"weld"`
}

// Default returns an empty configuration with defaults applied.
func Default() *Config {
	return &Config{OutputDir: ".", Kernel: DefaultKernel}
}

// Load reads and validates the job file at path. Relative script paths are
// resolved against the file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "config: read %s", path)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	dir := filepath.Dir(path)
	for i := range cfg.Jobs {
		if s := cfg.Jobs[i].Script; s != "" && !filepath.IsAbs(s) {
			cfg.Jobs[i].Script = filepath.Join(dir, s)
		}
	}
	return cfg, nil
}

// Parse decodes a job file, applies defaults and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, errors.Wrapf(ErrInvalid, "line %d column %d: %s", row, col, derr.Error())
		}
		var serr *toml.StrictMissingError
		if errors.As(err, &serr) {
			keys := make([]string, 0, len(serr.Errors))
			for _, e := range serr.Errors {
				keys = append(keys, strings.Join(e.Key(), "."))
			}
			return nil, errors.Wrapf(ErrInvalid, "unknown keys: %s", strings.Join(keys, ", "))
		}
		return nil, errors.Wrap(err, "config: decode")
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.OutputDir == "" {
		c.OutputDir = "."
	}
	if c.Kernel == "" {
		c.Kernel = DefaultKernel
	}
	for i := range c.Jobs {
		c.Jobs[i].ApplyDefaults()
	}
}

// ApplyDefaults fills unset bounds and step.
func (j *Job) ApplyDefaults() {
	if j.Min == 0 && j.Max == 0 {
		j.Min, j.Max = DefaultMin, DefaultMax
	}
	if j.Step == 0 {
		j.Step = DefaultStep
	}
}

// Grid returns the job's sampling lattice.
func (j *Job) Grid() march.Grid {
	return march.Grid{Min: j.Min, Max: j.Max, Step: j.Step}
}

// OutputPath returns where the job's mesh is written: Output if set,
// otherwise "<name>.ply", relative to dir unless absolute.
func (j *Job) OutputPath(dir string) string {
	out := j.Output
	if out == "" {
		out = j.Name + DefaultOutput
	}
	if filepath.IsAbs(out) {
		return out
	}
	return filepath.Join(dir, out)
}

// Validate reports every problem with the job.
func (j *Job) Validate() []string {
	var problems []string
	if strings.TrimSpace(j.Name) == "" {
		problems = append(problems, "missing name")
	}
	sources := 0
	for _, s := range []string{j.Field, j.Expr, j.Script} {
		if s != "" {
			sources++
		}
	}
	switch {
	case sources == 0:
		problems = append(problems, "one of field, expr or script is required")
	case sources > 1:
		problems = append(problems, "field, expr and script are mutually exclusive")
	}
	if j.Field != "" {
		if _, err := field.Lookup(j.Field); err != nil {
			problems = append(problems, err.Error())
		}
	}
	if err := j.Grid().Validate(); err != nil {
		problems = append(problems, err.Error())
	}
	if j.Output != "" && export.FormatOf(j.Output) == "" {
		problems = append(problems, fmt.Sprintf("unknown output format for %q (want one of %s)", j.Output, strings.Join(export.Formats(), ", ")))
	}
	return problems
}

// Validate checks the whole file and reports all problems at once.
func (c *Config) Validate() error {
	var problems []string

	known := false
	for _, k := range Kernels {
		if c.Kernel == k {
			known = true
		}
	}
	if !known {
		problems = append(problems, fmt.Sprintf("unknown kernel %q (want one of %s)", c.Kernel, strings.Join(Kernels, ", ")))
	}
	if c.Workers < 0 {
		problems = append(problems, fmt.Sprintf("workers must not be negative, got %d", c.Workers))
	}
	if len(c.Jobs) == 0 {
		problems = append(problems, "no [[job]] entries")
	}

	seen := make(map[string]int)
	for i := range c.Jobs {
		j := &c.Jobs[i]
		label := fmt.Sprintf("job %d", i+1)
		if j.Name != "" {
			label = fmt.Sprintf("job %q", j.Name)
			if prev, dup := seen[j.Name]; dup {
				problems = append(problems, fmt.Sprintf("%s: duplicate name (first used by job %d)", label, prev+1))
			} else {
				seen[j.Name] = i
			}
		}
		for _, p := range j.Validate() {
			problems = append(problems, label+": "+p)
		}
	}

	if len(problems) > 0 {
		return errors.Wrap(ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}
