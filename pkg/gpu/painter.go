package gpu

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/kjkrol/flowvis/pkg/geom"
)

// View supplies the per frame transforms a Painter uploads.
type View interface {
	ModelMatrix() mgl32.Mat4
	ViewMatrix() mgl32.Mat4
	ProjectionMatrix() mgl32.Mat4
	ModelScale() float32
}

const (
	UniformModel      = "u_model"
	UniformView       = "u_view"
	UniformProjection = "u_projection"
	UniformModelScale = "u_model_scale"
	AttribPosition    = "a_position"
)

// Painter draws one Buffer with one ShaderProgram and an optional ColorMap.
// It owns the program, the buffer and its vertex array object. A colormap
// passed with WithSharedColorMap is only borrowed.
type Painter struct {
	ctx       Context
	Name      string
	Primitive Primitive
	Wireframe bool
	Visible   bool

	program      *ShaderProgram
	buffer       *Buffer
	colormap     *ColorMap
	ownsColorMap bool

	vao         uint32
	initialized bool

	bound              bool
	boundBufferVersion uint64
	boundProgramGen    uint64
	rebinds            int
	enabled            []uint32
}

type PainterOption func(*Painter)

// WithColorMap gives the painter its own colormap, released with it.
func WithColorMap(c *ColorMap) PainterOption {
	return func(p *Painter) {
		p.colormap = c
		p.ownsColorMap = true
	}
}

// WithSharedColorMap lets several painters sample one colormap.
func WithSharedColorMap(c *ColorMap) PainterOption {
	return func(p *Painter) {
		p.colormap = c
		p.ownsColorMap = false
	}
}

func NewPainter(ctx Context, name string, program *ShaderProgram, primitive Primitive, buffer *Buffer, opts ...PainterOption) *Painter {
	p := &Painter{
		ctx:       ctx,
		Name:      name,
		Primitive: primitive,
		program:   program,
		buffer:    buffer,
		Visible:   true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Painter) Program() *ShaderProgram {
	return p.program
}

func (p *Painter) Buffer() *Buffer {
	return p.buffer
}

func (p *Painter) ColorMap() *ColorMap {
	return p.colormap
}

func (p *Painter) Initialized() bool {
	return p.initialized
}

// RebindCount reports how many times attribute pointers were rebuilt.
func (p *Painter) RebindCount() int {
	return p.rebinds
}

func (p *Painter) initialise() error {
	if p.initialized {
		return nil
	}
	vao := p.ctx.GenVertexArray()
	if vao == 0 {
		return &AllocError{Resource: "vertex array"}
	}
	p.vao = vao
	p.initialized = true
	p.bound = false
	return nil
}

// Render draws the painter with the transforms of view, which may be nil for
// screen space painters. A painter whose buffer never received data draws
// nothing and returns nil.
func (p *Painter) Render(view View) error {
	if p.buffer == nil || !p.buffer.HasData() {
		return nil
	}
	if err := p.initialise(); err != nil {
		return err
	}
	if err := p.program.Initialise(); err != nil {
		return fmt.Errorf("painter %s: %w", p.Name, err)
	}
	if err := p.buffer.Initialise(); err != nil {
		return fmt.Errorf("painter %s: %w", p.Name, err)
	}
	if !p.bound || p.boundBufferVersion != p.buffer.Version() || p.boundProgramGen != p.program.Generation() {
		if err := p.setAttribPointers(); err != nil {
			return fmt.Errorf("painter %s: %w", p.Name, err)
		}
	}
	if p.colormap != nil {
		if err := p.colormap.Initialise(); err != nil && !errors.Is(err, ErrNoData) {
			return fmt.Errorf("painter %s: %w", p.Name, err)
		}
	}

	p.program.Bind()
	defer p.program.Release()

	if p.colormap != nil && p.colormap.Initialized() {
		p.colormap.Bind()
	}
	if view != nil {
		if err := p.uploadView(view); err != nil {
			return fmt.Errorf("painter %s: %w", p.Name, err)
		}
	}
	return p.draw()
}

func (p *Painter) uploadView(view View) error {
	if err := p.program.SetUniformValue(UniformModel, view.ModelMatrix()); err != nil {
		return err
	}
	if err := p.program.SetUniformValue(UniformView, view.ViewMatrix()); err != nil {
		return err
	}
	if err := p.program.SetUniformValue(UniformProjection, view.ProjectionMatrix()); err != nil {
		return err
	}
	if p.program.DeclaresUniform(UniformModelScale) {
		return p.program.SetUniformValue(UniformModelScale, view.ModelScale())
	}
	return nil
}

func (p *Painter) draw() (err error) {
	start, end := p.buffer.DrawRange()
	p.ctx.BindVertexArray(p.vao)
	defer p.ctx.BindVertexArray(0)
	if p.Wireframe {
		p.ctx.PolygonMode(PolygonLine)
		defer p.ctx.PolygonMode(PolygonFill)
	}
	if end > start {
		p.ctx.DrawArrays(p.Primitive, int32(start), int32(end-start))
	}
	if err := p.ctx.Err(); err != nil {
		return fmt.Errorf("painter %s: draw: %w", p.Name, err)
	}
	return nil
}

// setAttribPointers binds every buffer field the shader declares. Fields the
// shader does not use are skipped, and arrays enabled by an earlier layout
// that this one does not use are disabled.
func (p *Painter) setAttribPointers() error {
	data := p.buffer.Data()
	p.ctx.BindVertexArray(p.vao)
	p.ctx.BindBuffer(p.buffer.Handle())
	defer func() {
		p.ctx.BindBuffer(0)
		p.ctx.BindVertexArray(0)
	}()
	var enabled []uint32
	for _, f := range data.Fields() {
		if !p.program.DeclaresAttribute(f.Name) {
			continue
		}
		loc, err := p.program.AttributeLocation(f.Name)
		if err != nil {
			return err
		}
		offset, _ := data.Offset(f.Name)
		p.ctx.VertexAttribPointer(loc, int32(f.Count), f.Type, int32(data.Stride()), offset)
		p.ctx.EnableVertexAttribArray(loc)
		enabled = append(enabled, loc)
	}
	for _, loc := range p.enabled {
		if !slices.Contains(enabled, loc) {
			p.ctx.DisableVertexAttribArray(loc)
		}
	}
	p.enabled = enabled
	p.bound = true
	p.boundBufferVersion = p.buffer.Version()
	p.boundProgramGen = p.program.Generation()
	p.rebinds++
	return nil
}

// BBox returns the bounds of the a_position field, or nil when there is no
// position data.
func (p *Painter) BBox() *geom.BBox {
	if p.buffer == nil || !p.buffer.HasData() {
		return nil
	}
	data := p.buffer.Data()
	if !data.HasField(AttribPosition) {
		return nil
	}
	points := make([]mgl32.Vec3, 0, data.Len())
	for i := 0; i < data.Len(); i++ {
		v, err := data.Float32(AttribPosition, i)
		if err != nil {
			return nil
		}
		var pt mgl32.Vec3
		copy(pt[:], v)
		points = append(points, pt)
	}
	return geom.NewBBox(points)
}

// Delete releases the vertex array, buffer, program and an owned colormap.
// The painter initialises itself again if rendered afterwards.
func (p *Painter) Delete() {
	p.buffer.Delete()
	p.program.Delete()
	if p.colormap != nil && p.ownsColorMap {
		p.colormap.Delete()
	}
	if p.initialized {
		p.ctx.DeleteVertexArray(p.vao)
		p.vao = 0
		p.initialized = false
	}
	p.bound = false
	p.enabled = nil
}

func (p *Painter) String() string {
	return fmt.Sprintf("Painter[%s %s]", p.Name, p.Primitive)
}
