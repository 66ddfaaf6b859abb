package main

import (
	"log/slog"
	"time"

	"github.com/chazu/partgraph/pkg/config"
	"github.com/chazu/partgraph/pkg/engine"
	"github.com/chazu/partgraph/pkg/kernel"
	"github.com/chazu/partgraph/pkg/kernel/sdfx"
	"github.com/chazu/partgraph/pkg/model"
	"github.com/chazu/partgraph/pkg/scene"
	"github.com/chazu/partgraph/pkg/tessellate"
)

// colorPalette is a default palette used to assign distinct colors to parts.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App runs the script pipeline: evaluate, validate, tessellate.
type App struct {
	engine *engine.Engine
	kernel kernel.Kernel
	log    *slog.Logger
}

// MeshData is the JSON-serializable mesh format of one part.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	PartName string    `json:"partName"`
	Color    string    `json:"color"`
}

// Diagnostic is a JSON-serializable error or validation finding.
type Diagnostic struct {
	Line     int    `json:"line,omitempty"`
	Part     string `json:"part,omitempty"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// Result is the full output of one run.
type Result struct {
	Parts    int          `json:"parts"`
	Roots    []string     `json:"roots"`
	Meshes   []MeshData   `json:"meshes"`
	Errors   []Diagnostic `json:"errors"`
	Warnings []Diagnostic `json:"warnings"`

	meshes []*kernel.Mesh
}

// Failed reports whether the run produced errors.
func (r Result) Failed() bool { return len(r.Errors) > 0 }

// Merged joins every part mesh into one.
func (r Result) Merged() *kernel.Mesh { return tessellate.Merge(r.meshes) }

// NewApp creates an App configured by cfg.
func NewApp(cfg *config.Config, log *slog.Logger) *App {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	k := sdfx.New(sdfx.WithMeshCells(cfg.Kernel.MeshCells))
	return &App{
		engine: engine.NewEngine(
			engine.WithLogger(log),
			engine.WithKernel(k),
			engine.WithTimeout(time.Duration(cfg.Engine.Timeout)),
			engine.WithTubeDefaults(cfg.TubeDimensions()),
		),
		kernel: k,
		log:    log.With("component", "app"),
	}
}

// Evaluate takes script source and returns mesh data and diagnostics.
func (a *App) Evaluate(source string) Result {
	result := Result{
		Roots:    []string{},
		Meshes:   []MeshData{},
		Errors:   []Diagnostic{},
		Warnings: []Diagnostic{},
	}

	// Step 1: Evaluate the script into a scene and validate it.
	res, err := a.engine.Run(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		a.log.Error("evaluate failed", "err", err)
		result.Errors = append(result.Errors, Diagnostic{Severity: "fatal", Message: err.Error()})
		return result
	}

	// Step 2: Convert eval errors and findings.
	for _, e := range res.Errors {
		result.Errors = append(result.Errors, Diagnostic{Line: e.Line, Severity: "error", Message: e.Message})
	}
	for _, w := range res.Warnings {
		d := Diagnostic{Part: w.Part, Severity: w.Severity.String(), Message: w.Message}
		if w.Severity == scene.SeverityError {
			result.Errors = append(result.Errors, d)
		} else {
			result.Warnings = append(result.Warnings, d)
		}
	}
	if result.Failed() {
		return result
	}

	s := res.Scene
	result.Parts = s.PartCount()
	for _, r := range s.Roots {
		result.Roots = append(result.Roots, rootLabel(r))
	}

	// Step 3: Tessellate the scene into triangle meshes.
	meshes, err := tessellate.Tessellate(s, a.kernel)
	if err != nil {
		a.log.Error("tessellate failed", "err", err)
		result.Errors = append(result.Errors, Diagnostic{
			Severity: "error",
			Message:  "tessellation failed: " + err.Error(),
		})
		return result
	}
	result.meshes = meshes

	// Step 4: Convert kernel meshes to MeshData.
	for i, m := range meshes {
		result.Meshes = append(result.Meshes, MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			Indices:  m.Indices,
			PartName: m.PartName,
			Color:    colorPalette[i%len(colorPalette)],
		})
	}

	return result
}

func rootLabel(c *model.Controller) string {
	name := c.Property(model.Name)
	if name == "" {
		name = c.Property(model.ID)
	}
	return name + " (" + c.Kind().String() + ")"
}
