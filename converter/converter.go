package converter

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"

	"github.com/notargets/meshconv/InputParameters"
	"github.com/notargets/meshconv/logging"
	"github.com/notargets/meshconv/mesh"
	"github.com/notargets/meshconv/mesh/readers"
	"github.com/notargets/meshconv/mesh/writers"
)

var (
	// ErrInvalidInput marks requests that cannot be converted at all
	ErrInvalidInput = errors.New("invalid conversion input")
	// ErrParse marks inputs or engine outputs that could not be read as meshes
	ErrParse = errors.New("mesh could not be parsed")
)

type Config struct {
	WorkDir   string // parent of the per-request temp dirs, os.TempDir() when empty
	CacheSize int    // entries in the result cache, 0 disables it
	Params    *InputParameters.MeshingParameters
	Logger    *zap.Logger
}

// Result is one converted mesh
type Result struct {
	Name     string
	Strategy Strategy
	Data     []byte
	Stats    mesh.Statistics
	Cached   bool
	Duration time.Duration
}

type cacheEntry struct {
	data  []byte
	stats mesh.Statistics
}

type Converter struct {
	workDir string
	params  *InputParameters.MeshingParameters
	engine  *Engine
	cache   *lru.ARCCache
	logger  *zap.Logger
}

func New(cfg Config) (*Converter, error) {
	return newConverter(cfg, osRunner{})
}

func newConverter(cfg Config, r runner) (*Converter, error) {
	ip := cfg.Params
	if ip == nil {
		ip = InputParameters.NewMeshingParameters()
	}
	if err := ip.Validate(); err != nil {
		return nil, err
	}
	workDir := cfg.WorkDir
	if workDir == "" {
		workDir = os.TempDir()
	}
	// gmsh runs inside the request dir, so paths handed to it must be absolute
	workDir, err := filepath.Abs(workDir)
	if err != nil {
		return nil, err
	}
	logger := logging.OrNop(cfg.Logger)
	c := &Converter{
		workDir: workDir,
		params:  ip,
		engine:  newEngine(ip, r, logger),
		logger:  logger,
	}
	if cfg.CacheSize > 0 {
		cache, err := lru.NewARC(cfg.CacheSize)
		if err != nil {
			return nil, err
		}
		c.cache = cache
	}
	return c, nil
}

// Convert turns the uploaded file (name, data) into an MSH 2.2 mesh holding
// only linear cells. All intermediate files live in a private temp dir that is
// removed before Convert returns.
func (c *Converter) Convert(ctx context.Context, name string, data []byte, s Strategy) (*Result, error) {
	if !s.Supports(name) {
		return nil, fmt.Errorf("%w: %s cannot convert %s", ErrInvalidInput, s, filepath.Base(name))
	}
	started := time.Now()
	outName := OutputName(name, s, c.params)
	key := cacheKey(data, s)

	if c.cache != nil {
		if v, ok := c.cache.Get(key); ok {
			entry := v.(cacheEntry)
			c.logger.Debug("conversion cache hit", zap.String("input", name))
			return &Result{Name: outName, Strategy: s, Data: entry.data, Stats: entry.stats,
				Cached: true, Duration: time.Since(started)}, nil
		}
	}

	tmp := filepath.Join(c.workDir, "meshconv-"+uuid.NewString())
	if err := os.MkdirAll(tmp, 0700); err != nil {
		return nil, fmt.Errorf("creating work directory: %w", err)
	}
	defer c.cleanup(tmp)

	in := filepath.Join(tmp, "input"+strings.ToLower(filepath.Ext(name)))
	if err := os.WriteFile(in, data, 0600); err != nil {
		return nil, fmt.Errorf("staging input: %w", err)
	}

	var msh *mesh.Mesh
	var err error
	switch s {
	case StrategyDirect:
		if msh, err = readers.ReadMeshFile(in); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrParse, filepath.Base(name), err)
		}
	case StrategySurfaceToVolume:
		raw := filepath.Join(tmp, "volume.msh")
		if err = c.engine.Mesh(ctx, in, raw); err != nil {
			return nil, err
		}
		if msh, err = readers.ReadMeshFile(raw); err != nil {
			return nil, fmt.Errorf("%w: engine output: %w", ErrParse, err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, s)
	}

	linear := mesh.Degrade(msh)
	var buf bytes.Buffer
	if err := writers.WriteGmsh22(&buf, linear); err != nil {
		return nil, fmt.Errorf("writing %s: %w", outName, err)
	}
	stats := linear.ComputeStatistics()

	if c.cache != nil {
		c.cache.Add(key, cacheEntry{data: buf.Bytes(), stats: stats})
	}
	c.logger.Info("converted mesh",
		zap.String("input", filepath.Base(name)),
		zap.String("output", outName),
		zap.Stringer("strategy", s),
		zap.Int("points", stats.NumPoints),
		zap.Int("cells", stats.NumCells),
		zap.String("size", humanize.Bytes(uint64(buf.Len()))),
		zap.Duration("duration", time.Since(started)))

	return &Result{Name: outName, Strategy: s, Data: buf.Bytes(), Stats: stats,
		Duration: time.Since(started)}, nil
}

// ConvertFile converts the file at in and writes the result to out, or to
// the derived output name in the input's directory when out is empty. An
// output that resolves to the input file is refused.
func (c *Converter) ConvertFile(ctx context.Context, in, out string, s Strategy) (*Result, error) {
	if out == "" {
		out = filepath.Join(filepath.Dir(in), OutputName(filepath.Base(in), s, c.params))
	}
	if samePath(in, out) {
		return nil, fmt.Errorf("%w: output %s would overwrite the input", ErrInvalidInput, out)
	}
	data, err := os.ReadFile(in)
	if err != nil {
		return nil, err
	}
	res, err := c.Convert(ctx, filepath.Base(in), data, s)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(out, res.Data, 0644); err != nil {
		return nil, err
	}
	res.Name = out
	return res, nil
}

// samePath reports whether a and b name the same file, existing or not
func samePath(a, b string) bool {
	if infoA, err := os.Stat(a); err == nil {
		if infoB, err := os.Stat(b); err == nil {
			return os.SameFile(infoA, infoB)
		}
	}
	absA, _ := filepath.Abs(a)
	absB, _ := filepath.Abs(b)
	return absA == absB
}

// cleanup removes a request's temp dir; failures are logged, not returned
func (c *Converter) cleanup(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		c.logger.Warn("failed to remove work directory", zap.String("dir", dir), zap.Error(err))
	}
}

func cacheKey(data []byte, s Strategy) string {
	sum := sha256.Sum256(data)
	return s.String() + ":" + hex.EncodeToString(sum[:])
}
