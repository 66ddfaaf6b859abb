// Package engine provides the Lisp evaluation engine for partgraph.
// It wraps zygomys in a sandboxed environment and produces a scene of live
// parts from user source code.
package engine

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chazu/partgraph/pkg/kernel"
	"github.com/chazu/partgraph/pkg/kernel/sdfx"
	"github.com/chazu/partgraph/pkg/model"
	"github.com/chazu/partgraph/pkg/render"
	"github.com/chazu/partgraph/pkg/scene"
	zygo "github.com/glycerine/zygomys/zygo"
)

// EvalError represents a non-fatal error encountered during evaluation,
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

// EvalWarning is a validation finding on the scene a script produced.
type EvalWarning struct {
	Part     string // name or Id of the part, empty for scene-level findings
	Message  string
	Severity scene.ValidationSeverity
}

func (w EvalWarning) String() string {
	if w.Part == "" {
		return fmt.Sprintf("[%s] %s", w.Severity, w.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", w.Severity, w.Part, w.Message)
}

// EvalResult bundles the full output of an evaluation.
type EvalResult struct {
	Scene    *scene.Scene
	Errors   []EvalError
	Warnings []EvalWarning
}

// OK reports whether the script evaluated without errors and the scene has
// no error-severity findings.
func (r *EvalResult) OK() bool {
	if r.Scene == nil || len(r.Errors) > 0 {
		return false
	}
	for _, w := range r.Warnings {
		if w.Severity == scene.SeverityError {
			return false
		}
	}
	return true
}

// Engine wraps the zygomys interpreter for scene evaluation.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment and a fresh part factory.
type Engine struct {
	mu         sync.Mutex
	generation uint64

	timeout time.Duration
	kernel  kernel.Kernel
	tube    model.TubeDimensions
	log     *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger handed to every part the engine creates.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithTimeout sets the hard limit for a single evaluation.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithKernel sets the geometry kernel shape views render with.
func WithKernel(k kernel.Kernel) Option {
	return func(e *Engine) {
		if k != nil {
			e.kernel = k
		}
	}
}

// WithTubeDefaults sets the dimensions new tubes start with.
func WithTubeDefaults(d model.TubeDimensions) Option {
	return func(e *Engine) { e.tube = d }
}

// NewEngine creates a new Engine instance.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		timeout: EvalTimeout,
		kernel:  sdfx.New(),
		tube:    model.DefaultTubeDimensions(),
		log:     slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(e)
	}
	e.log = e.log.With("component", "engine")
	return e
}

// Timeout returns the evaluation time limit.
func (e *Engine) Timeout() time.Duration { return e.timeout }

// Evaluate takes Lisp source code and produces a new Scene.
// Each call creates a fresh zygomys sandbox for deterministic evaluation.
//
// Return semantics:
//   - On success: returns scene + nil errors + nil error
//   - On parse/eval failure: returns nil scene + eval errors + nil error
//   - On fatal failure (timeout, panic, bad configuration): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*scene.Scene, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		s, evalErrs, err := e.evaluate(source)
		ch <- evalResult{scene: s, errors: evalErrs, err: err}
	}()

	return waitWithTimeout(ch, gen, &e.mu, &e.generation, e.timeout)
}

// Run evaluates source and validates the resulting scene. Validation
// findings are reported as warnings; only fatal failures return an error.
func (e *Engine) Run(source string) (*EvalResult, error) {
	s, evalErrs, err := e.Evaluate(source)
	if err != nil {
		return nil, err
	}
	res := &EvalResult{Scene: s, Errors: evalErrs}
	if s == nil {
		return res, nil
	}
	for _, f := range scene.Validate(s) {
		w := EvalWarning{Message: f.Message, Severity: f.Severity}
		if f.Part != nil {
			w.Part = partLabel(f.Part)
		}
		res.Warnings = append(res.Warnings, w)
	}
	e.log.Debug("evaluated", "parts", s.PartCount(), "roots", len(s.Roots), "warnings", len(res.Warnings))
	return res, nil
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) (*scene.Scene, []EvalError, error) {
	f := render.NewFactory(e.log, e.kernel)
	if err := f.SetTubeDefaults(e.tube); err != nil {
		return nil, nil, fmt.Errorf("engine: tube defaults: %w", err)
	}
	s := scene.New(e.log)

	// Empty source is a valid program that produces an empty scene.
	if strings.TrimSpace(source) == "" {
		return s, nil, nil
	}

	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	b := newBuilder(f)
	registerBuiltins(env, b)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}

	b.finish(s)
	return s, nil, nil
}

// partLabel names a part for messages: its Name, else its Id.
func partLabel(c *model.Controller) string {
	if name := c.Property(model.Name); name != "" {
		return name
	}
	return c.Property(model.ID)
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	for _, p := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := p.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{
				Line:    line,
				Message: strings.TrimSpace(m[2]),
			}}
		}
	}

	// Fallback: no line info available.
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
