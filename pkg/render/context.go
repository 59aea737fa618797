package render

import (
	"errors"
	"fmt"

	"github.com/taigrr/phongsphere/pkg/math3d"
	"github.com/taigrr/phongsphere/pkg/models"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidConfig is returned for configurations that cannot be rendered.
var ErrInvalidConfig = errors.New("invalid render config")

// Config is the fixed configuration of a render context.
type Config struct {
	Width  int
	Height int

	// Sphere resolution
	Longitude int
	Latitude  int

	Scene    Scene
	Lighting Lighting

	// Workers splits the frame into this many row bands rendered in
	// parallel. 0 and 1 render serially.
	Workers int
}

// DefaultConfig returns a 512x512 frame of a 32x16 sphere.
func DefaultConfig() Config {
	return Config{
		Width:     512,
		Height:    512,
		Longitude: 32,
		Latitude:  16,
		Scene:     DefaultScene(),
		Lighting:  DefaultLighting(),
		Workers:   1,
	}
}

// Validate checks the frame and worker settings. Mesh resolution is checked
// by the sphere generator.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("frame %dx%d: %w", c.Width, c.Height, ErrInvalidConfig)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers %d: %w", c.Workers, ErrInvalidConfig)
	}
	if c.Lighting.Gamma <= 0 {
		return fmt.Errorf("gamma %v: %w", c.Lighting.Gamma, ErrInvalidConfig)
	}
	return nil
}

// Stats summarizes one render pass.
type Stats struct {
	Faces     int // Faces submitted
	Rejected  int // Faces skipped for non-positive clip w
	Fragments int // Fragments that passed the depth test
}

// Context owns the mesh and the frame store for a sequence of frames.
type Context struct {
	cfg        Config
	mesh       *models.Mesh
	frame      *FrameStore
	transforms Transforms

	// Scratch reused across frames
	clip    []math3d.Vec4
	view    []math3d.Vec3
	normals []math3d.Vec3
	prims   []Primitive
}

// NewContext generates the sphere described by cfg and allocates the frame.
// An invalid resolution fails here, before anything is rasterized.
func NewContext(cfg Config) (*Context, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mesh, err := models.NewSphere(cfg.Longitude, cfg.Latitude)
	if err != nil {
		return nil, fmt.Errorf("create scene: %w", err)
	}
	return newContext(cfg, mesh), nil
}

// NewContextWithMesh renders a copy of a caller-supplied mesh instead of the
// sphere. Missing normals are estimated on the copy; bad indices fail
// immediately.
func NewContextWithMesh(cfg Config, mesh *models.Mesh) (*Context, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if mesh == nil {
		return nil, fmt.Errorf("nil mesh: %w", ErrInvalidConfig)
	}
	if err := mesh.Validate(); err != nil {
		return nil, fmt.Errorf("create scene: %w", err)
	}
	mesh = mesh.Clone()
	if mesh.Normals == nil {
		normals, err := models.EstimateNormals(mesh.Vertices, mesh.Faces)
		if err != nil {
			return nil, fmt.Errorf("create scene: %w", err)
		}
		mesh.Normals = normals
	}
	return newContext(cfg, mesh), nil
}

func newContext(cfg Config, mesh *models.Mesh) *Context {
	return &Context{
		cfg:   cfg,
		mesh:  mesh,
		frame: NewFrameStore(cfg.Width, cfg.Height),
	}
}

// Config returns the configuration the context was built with.
func (c *Context) Config() Config {
	return c.cfg
}

// Mesh returns the mesh being rendered. Edits take effect on the next Render,
// which reports faces or normals that no longer match the vertices.
func (c *Context) Mesh() *models.Mesh {
	return c.mesh
}

// Frame returns the frame store. Its contents are complete only after
// Render returns.
func (c *Context) Frame() *FrameStore {
	return c.frame
}

// Transforms returns the matrices used by the last Render.
func (c *Context) Transforms() Transforms {
	return c.transforms
}

// Close releases the buffers. The context must not be used afterwards.
func (c *Context) Close() {
	c.frame = nil
	c.mesh = nil
	c.clip, c.view, c.normals, c.prims = nil, nil, nil, nil
}

// Render clears the frame and draws the whole mesh into it.
func (c *Context) Render() (Stats, error) {
	if c.frame == nil {
		return Stats{}, fmt.Errorf("render: context closed")
	}

	if n, v := len(c.mesh.Normals), len(c.mesh.Vertices); n != v {
		return Stats{}, fmt.Errorf("render: %d normals for %d vertices: %w", n, v, models.ErrIndexOutOfRange)
	}

	c.frame.Clear()
	c.transforms = NewTransforms(c.cfg.Scene)
	c.runVertexStage()

	stats := Stats{Faces: len(c.mesh.Faces)}
	rejected, err := c.assemble()
	if err != nil {
		return stats, fmt.Errorf("render: %w", err)
	}
	stats.Rejected = rejected

	fragments, err := c.rasterize()
	if err != nil {
		return stats, fmt.Errorf("render: %w", err)
	}
	stats.Fragments = fragments

	return stats, nil
}

// runVertexStage transforms every vertex once.
func (c *Context) runVertexStage() {
	n := len(c.mesh.Vertices)
	c.clip = resize(c.clip, n)
	c.view = resize(c.view, n)
	c.normals = resize(c.normals, n)

	for i, v := range c.mesh.Vertices {
		c.clip[i] = c.transforms.Project(v)
		c.view[i] = c.transforms.ToView(v)
		c.normals[i] = c.transforms.NormalToView(c.mesh.Normals[i])
	}
}

// assemble builds the primitives in face order, dropping the ones that fail
// the clip test.
func (c *Context) assemble() (rejected int, err error) {
	c.prims = c.prims[:0]
	n := len(c.clip)

	for fi, f := range c.mesh.Faces {
		var p Primitive
		for k, idx := range f.V {
			if idx < 0 || idx >= n {
				return rejected, fmt.Errorf("face %d index %d (vertex count %d): %w", fi, idx, n, models.ErrIndexOutOfRange)
			}
			p.Clip[k] = c.clip[idx]
			p.View[k] = c.view[idx]
			p.Normal[k] = c.normals[idx]
		}
		if !p.Visible() {
			rejected++
			continue
		}
		c.prims = append(c.prims, p)
	}
	return rejected, nil
}

// rasterize draws the assembled primitives. With more than one worker the
// frame is cut into disjoint row bands; each band sees every primitive in
// face order, so the result matches the serial pass exactly.
func (c *Context) rasterize() (int, error) {
	bands := min(max(c.cfg.Workers, 1), c.frame.Height)
	base := NewRasterizer(c.frame, c.cfg.Lighting)

	if bands == 1 {
		return drawAll(base, c.prims)
	}

	counts := make([]int, bands)
	var g errgroup.Group
	for b := range bands {
		y0 := b * c.frame.Height / bands
		y1 := (b + 1) * c.frame.Height / bands
		band := base.Band(y0, y1)
		g.Go(func() error {
			n, err := drawAll(band, c.prims)
			counts[b] = n
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	return total, nil
}

func drawAll(r *Rasterizer, prims []Primitive) (int, error) {
	total := 0
	for i, p := range prims {
		n, err := r.DrawTriangle(p)
		if err != nil {
			return total, fmt.Errorf("primitive %d: %w", i, err)
		}
		total += n
	}
	return total, nil
}

func resize[T any](s []T, n int) []T {
	if cap(s) < n {
		return make([]T, n)
	}
	return s[:n]
}
