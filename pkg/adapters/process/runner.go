package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/flowrun/pkg/domain"
	"github.com/aretw0/flowrun/pkg/registry"
)

// EnvPrefix prefixes the environment variables carrying scalar state entries.
const EnvPrefix = "FLOWRUN_STATE_"

// Runner turns allow-listed commands into step handlers.
//
// The command receives the state as a JSON object on stdin and must print a
// JSON object on stdout. Printed keys are merged over the input state; empty
// output leaves the state unchanged. Scalar entries are also exported as
// FLOWRUN_STATE_<KEY> variables for shell scripts.
type Runner struct {
	registry map[string]StepConfig
	baseDir  string
	timeout  time.Duration
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithSteps populates the allow-list from a loaded config.
func WithSteps(steps map[string]StepConfig) RunnerOption {
	return func(r *Runner) {
		for name, s := range steps {
			s.Name = name
			r.registry[name] = s
		}
	}
}

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// WithDefaultTimeout bounds steps that do not set their own timeout.
func WithDefaultTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		r.timeout = d
	}
}

// NewRunner creates a new process runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		registry: make(map[string]StepConfig),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a trusted command to the allow-list.
func (r *Runner) Register(name, command string, args ...string) {
	r.registry[name] = StepConfig{Name: name, Command: command, Args: args}
}

// Names lists the registered step types in sorted order.
func (r *Runner) Names() []string {
	names := make([]string, 0, len(r.registry))
	for n := range r.registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Install registers a handler for every allow-listed command.
func (r *Runner) Install(reg *registry.Registry) {
	for _, name := range r.Names() {
		reg.Register(name, r.Handler(name))
	}
}

// Handler returns the step handler for name. Unknown names fail when invoked.
func (r *Runner) Handler(name string) registry.Handler {
	return func(ctx context.Context, s domain.State) (domain.State, error) {
		step, ok := r.registry[name]
		if !ok {
			return nil, fmt.Errorf("process step not registered: %s", name)
		}
		return r.execute(ctx, step, s)
	}
}

func (r *Runner) execute(ctx context.Context, step StepConfig, s domain.State) (domain.State, error) {
	timeout := time.Duration(step.Timeout)
	if timeout == 0 {
		timeout = r.timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	input, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}

	cmd := exec.CommandContext(ctx, step.Command, step.Args...)
	cmd.Dir = r.baseDir
	cmd.Stdin = bytes.NewReader(input)
	cmd.Env = append(cmd.Environ(), environment(step, s)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("process %s: %w", step.Name, ctxErr)
		}
		return nil, fmt.Errorf("process %s failed: %w: %s", step.Name, err, strings.TrimSpace(stderr.String()))
	}

	out := s.Clone()
	trimmed := bytes.TrimSpace(stdout.Bytes())
	if len(trimmed) == 0 {
		return out, nil
	}

	var patch domain.State
	if err := json.Unmarshal(trimmed, &patch); err != nil {
		return nil, fmt.Errorf("process %s: output is not a JSON object: %w", step.Name, err)
	}
	for k, v := range patch {
		out[k] = v
	}
	return out, nil
}

// environment exports configured variables and scalar state entries.
// Keys are upper-cased; non-alphanumeric characters become underscores.
func environment(step StepConfig, s domain.State) []string {
	env := make([]string, 0, len(step.Environment)+len(s)+1)
	for k, v := range step.Environment {
		env = append(env, k+"="+v)
	}
	env = append(env, "FLOWRUN_STEP="+step.Name)
	for _, k := range s.Keys() {
		v := s[k]
		var val string
		switch v.Kind() {
		case domain.KindBool, domain.KindNumber:
			val = v.String()
		case domain.KindString:
			val, _ = v.AsString()
		default:
			continue
		}
		env = append(env, EnvPrefix+envKey(k)+"="+val)
	}
	return env
}

func envKey(k string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		}
		return '_'
	}, k)
}
