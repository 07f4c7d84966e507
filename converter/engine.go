package converter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/notargets/meshconv/InputParameters"
	"github.com/notargets/meshconv/logging"
)

// maxDiagnostics caps the engine output kept for error reports
const maxDiagnostics = 64 * 1024

// EngineError reports a failed gmsh run. ExitCode is -1 when the process was
// killed or never started.
type EngineError struct {
	Binary   string
	ExitCode int
	TimedOut bool
	Stderr   string
	Stdout   string
	Err      error
}

func (e *EngineError) Error() string {
	var msg string
	switch {
	case e.TimedOut:
		msg = fmt.Sprintf("meshing engine %s timed out", e.Binary)
	case e.ExitCode > 0:
		msg = fmt.Sprintf("meshing engine %s exited with status %d", e.Binary, e.ExitCode)
	default:
		msg = fmt.Sprintf("meshing engine %s failed", e.Binary)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *EngineError) Unwrap() error { return e.Err }

// Diagnostics returns the captured engine output, stderr first
func (e *EngineError) Diagnostics() string {
	parts := make([]string, 0, 2)
	for _, s := range []string{e.Stderr, e.Stdout} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}

// errNoOutput is wrapped when gmsh exits cleanly without writing a mesh
var errNoOutput = errors.New("no output mesh was produced")

// runner abstracts process execution for testing
type runner interface {
	Run(ctx context.Context, dir, name string, args []string, stdout, stderr io.Writer) error
}

// osRunner is the production runner backed by os/exec
type osRunner struct{}

func (osRunner) Run(ctx context.Context, dir, name string, args []string, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = 5 * time.Second
	return cmd.Run()
}

// Engine drives the external gmsh mesher
type Engine struct {
	params *InputParameters.MeshingParameters
	run    runner
	logger *zap.Logger
}

func NewEngine(ip *InputParameters.MeshingParameters, logger *zap.Logger) *Engine {
	return newEngine(ip, osRunner{}, logger)
}

func newEngine(ip *InputParameters.MeshingParameters, r runner, logger *zap.Logger) *Engine {
	if ip == nil {
		ip = InputParameters.NewMeshingParameters()
	}
	return &Engine{params: ip, run: r, logger: logging.OrNop(logger)}
}

// Script returns the .geo driver that fills the surface in stlName with
// tetrahedra
func (e *Engine) Script(stlName string) string {
	ip := e.params
	var b strings.Builder
	fmt.Fprintf(&b, "Merge %s;\n", strconv.Quote(stlName))
	fmt.Fprintf(&b, "ClassifySurfaces{%s, %d, %d, %s};\n",
		formatScriptReal(ip.FeatureAngleRadians()), boolInt(ip.IncludeBoundary),
		boolInt(ip.ForceParametrizablePatches), formatScriptReal(ip.CurveAngleRadians()))
	b.WriteString("CreateGeometry;\n")
	b.WriteString("Surface Loop(1) = Surface{:};\n")
	b.WriteString("Volume(1) = {1};\n")
	b.WriteString("Mesh.MshFileVersion = 2.2;\n")
	fmt.Fprintf(&b, "Mesh.ElementOrder = %d;\n", ip.ElementOrder)
	return b.String()
}

// Mesh runs gmsh on the STL file in, writing an MSH 2.2 volume mesh to out.
// The driver script is written next to in. The run is bounded by the
// configured timeout and by ctx.
func (e *Engine) Mesh(ctx context.Context, in, out string) error {
	dir := filepath.Dir(in)
	script := filepath.Join(dir, "volume.geo")
	if err := os.WriteFile(script, []byte(e.Script(filepath.Base(in))), 0644); err != nil {
		return fmt.Errorf("writing engine script: %w", err)
	}

	if timeout := e.params.Timeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	args := []string{filepath.Base(script), "-3", "-format", "msh22", "-o", out}
	args = append(args, e.params.ExtraArgs...)

	var stdout, stderr bytes.Buffer
	started := time.Now()
	e.logger.Debug("starting meshing engine",
		zap.String("binary", e.params.EngineBinary), zap.Strings("args", args))

	err := e.run.Run(ctx, dir, e.params.EngineBinary, args,
		&limitedWriter{w: &stdout, max: maxDiagnostics}, &limitedWriter{w: &stderr, max: maxDiagnostics})

	e.logger.Debug("meshing engine finished",
		zap.Duration("duration", time.Since(started)), zap.Error(err))

	engErr := &EngineError{
		Binary:   e.params.EngineBinary,
		ExitCode: -1,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}
	if err != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			engErr.TimedOut = true
			engErr.Err = ctx.Err()
		case errors.Is(ctx.Err(), context.Canceled):
			engErr.Err = ctx.Err()
		case errors.As(err, &exitErr):
			engErr.ExitCode = exitErr.ExitCode()
		default:
			engErr.Err = err
		}
		return engErr
	}
	if fi, statErr := os.Stat(out); statErr != nil || fi.Size() == 0 {
		engErr.ExitCode = 0
		engErr.Err = errNoOutput
		return engErr
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func formatScriptReal(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// limitedWriter keeps the first max bytes and discards the rest
type limitedWriter struct {
	w         io.Writer
	max       int
	written   int
	truncated bool
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	if remaining := lw.max - lw.written; remaining < len(p) {
		lw.truncated = true
		if remaining <= 0 {
			return n, nil
		}
		p = p[:remaining]
	}
	written, err := lw.w.Write(p)
	lw.written += written
	if err != nil {
		return written, err
	}
	return n, nil
}
