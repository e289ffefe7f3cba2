// Package gputest provides an in-memory gpu.Context for tests. It runs a
// small GLSL preprocessor so that option driven shader variants are checked
// for the uniforms and attributes they really declare.
package gputest

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/kjkrol/flowvis/pkg/gpu"
)

type Shader struct {
	Stage    gpu.ShaderStage
	Source   string
	Compiled bool
	decl     declarations
}

type Program struct {
	Shaders    []uint32
	Vertex     string
	Fragment   string
	Linked     bool
	Uniforms   map[string]int32
	Attributes map[string]int32
	// Values holds the last uploaded value per uniform name.
	Values map[string]any
}

type Texture struct {
	Width  int
	Image  []byte
	Wrap   gpu.WrapMode
	Linear bool
}

type AttribPointer struct {
	Size    int32
	Type    gpu.ElemType
	Stride  int32
	Offset  int
	Buffer  uint32
	Enabled bool
}

type VertexArray struct {
	Attribs map[uint32]*AttribPointer
}

// Draw records one DrawArrays call together with the state it ran under.
type Draw struct {
	Program uint32
	VAO     uint32
	Mode    gpu.Primitive
	First   int32
	Count   int32
	Polygon gpu.PolygonMode
	Texture uint32
}

// Context is a fake GL context. Object names start at 1 and are never
// reused. All fields are meant to be inspected by tests.
type Context struct {
	Shaders   map[uint32]*Shader
	Programs  map[uint32]*Program
	Buffers   map[uint32][]byte
	Textures  map[uint32]*Texture
	VAOs      map[uint32]*VertexArray
	Draws     []Draw
	Calls     map[string]int
	Enabled   map[gpu.Capability]bool
	Polygon   gpu.PolygonMode
	ViewportR [4]int32
	ClearRGBA [4]float32
	Clears    int

	// CompileFailures makes CompileShader fail for a stage with the given log.
	CompileFailures map[gpu.ShaderStage]string
	// DrawError is raised through Err after the next DrawArrays.
	DrawError error
	// FailAlloc makes the named Gen*/Create* call return 0.
	FailAlloc map[string]bool

	next          uint32
	program       uint32
	buffer        uint32
	texture       uint32
	vao           uint32
	pending       error
	locationByKey map[uint32]map[int32]string
}

var _ gpu.Context = (*Context)(nil)

func New() *Context {
	return &Context{
		Shaders:         map[uint32]*Shader{},
		Programs:        map[uint32]*Program{},
		Buffers:         map[uint32][]byte{},
		Textures:        map[uint32]*Texture{},
		VAOs:            map[uint32]*VertexArray{},
		Calls:           map[string]int{},
		Enabled:         map[gpu.Capability]bool{},
		CompileFailures: map[gpu.ShaderStage]string{},
		FailAlloc:       map[string]bool{},
		locationByKey:   map[uint32]map[int32]string{},
	}
}

func (c *Context) alloc(call string) uint32 {
	c.Calls[call]++
	if c.FailAlloc[call] {
		return 0
	}
	c.next++
	return c.next
}

func (c *Context) CreateShader(stage gpu.ShaderStage) uint32 {
	id := c.alloc("CreateShader")
	if id != 0 {
		c.Shaders[id] = &Shader{Stage: stage}
	}
	return id
}

func (c *Context) CompileShader(shader uint32, source string) (string, bool) {
	c.Calls["CompileShader"]++
	s, ok := c.Shaders[shader]
	if !ok {
		return "no such shader", false
	}
	s.Source = source
	if log, fail := c.CompileFailures[s.Stage]; fail {
		return log, false
	}
	lines, err := preprocess(source)
	if err != nil {
		return "ERROR: " + err.Error(), false
	}
	s.decl = scanDeclarations(lines)
	s.Compiled = true
	return "", true
}

func (c *Context) DeleteShader(shader uint32) {
	c.Calls["DeleteShader"]++
	delete(c.Shaders, shader)
}

func (c *Context) CreateProgram() uint32 {
	id := c.alloc("CreateProgram")
	if id != 0 {
		c.Programs[id] = &Program{}
	}
	return id
}

func (c *Context) AttachShader(program, shader uint32) {
	c.Calls["AttachShader"]++
	if p, ok := c.Programs[program]; ok {
		p.Shaders = append(p.Shaders, shader)
	}
}

func (c *Context) DetachShader(program, shader uint32) {
	c.Calls["DetachShader"]++
	if p, ok := c.Programs[program]; ok {
		p.Shaders = slices.DeleteFunc(p.Shaders, func(s uint32) bool { return s == shader })
	}
}

// LinkProgram resolves uniforms over both stages and attributes from the
// vertex inputs. A fragment input with no matching vertex output fails.
func (c *Context) LinkProgram(program uint32) (string, bool) {
	c.Calls["LinkProgram"]++
	p, ok := c.Programs[program]
	if !ok {
		return "no such program", false
	}
	var vs, fs *Shader
	for _, id := range p.Shaders {
		s := c.Shaders[id]
		if s == nil || !s.Compiled {
			return fmt.Sprintf("shader %d not compiled", id), false
		}
		if s.Stage == gpu.StageVertex {
			vs = s
		} else {
			fs = s
		}
	}
	if vs == nil || fs == nil {
		return "program needs a vertex and a fragment shader", false
	}
	for _, in := range fs.decl.ins {
		if !slices.Contains(vs.decl.outs, in) {
			return fmt.Sprintf("fragment input %q is not written by the vertex shader", in), false
		}
	}
	p.Uniforms = map[string]int32{}
	p.Attributes = map[string]int32{}
	p.Values = map[string]any{}
	locs := map[int32]string{}
	for _, u := range append(append([]string(nil), vs.decl.uniforms...), fs.decl.uniforms...) {
		if _, dup := p.Uniforms[u]; dup {
			continue
		}
		loc := int32(len(p.Uniforms))
		p.Uniforms[u] = loc
		locs[loc] = u
	}
	for i, a := range vs.decl.ins {
		p.Attributes[a] = int32(i)
	}
	c.locationByKey[program] = locs
	p.Vertex, p.Fragment = vs.Source, fs.Source
	p.Linked = true
	return "", true
}

func (c *Context) UseProgram(program uint32) {
	c.Calls["UseProgram"]++
	c.program = program
}

func (c *Context) CurrentProgram() uint32 {
	return c.program
}

func (c *Context) DeleteProgram(program uint32) {
	c.Calls["DeleteProgram"]++
	delete(c.Programs, program)
	delete(c.locationByKey, program)
	if c.program == program {
		c.program = 0
	}
}

func (c *Context) UniformLocation(program uint32, name string) int32 {
	if p, ok := c.Programs[program]; ok && p.Linked {
		if loc, ok := p.Uniforms[name]; ok {
			return loc
		}
	}
	return -1
}

func (c *Context) AttribLocation(program uint32, name string) int32 {
	if p, ok := c.Programs[program]; ok && p.Linked {
		if loc, ok := p.Attributes[name]; ok {
			return loc
		}
	}
	return -1
}

func (c *Context) setUniform(call string, loc int32, v any) {
	c.Calls[call]++
	p, ok := c.Programs[c.program]
	if !ok {
		c.pending = errors.Join(c.pending, fmt.Errorf("%s with no program bound", call))
		return
	}
	name, ok := c.locationByKey[c.program][loc]
	if !ok {
		c.pending = errors.Join(c.pending, fmt.Errorf("%s: invalid location %d", call, loc))
		return
	}
	p.Values[name] = v
}

func (c *Context) Uniform1f(loc int32, v float32) {
	c.setUniform("Uniform1f", loc, v)
}

func (c *Context) Uniform4f(loc int32, v [4]float32) {
	c.setUniform("Uniform4f", loc, v)
}

func (c *Context) UniformMatrix4fv(loc int32, m [16]float32) {
	c.setUniform("UniformMatrix4fv", loc, m)
}

func (c *Context) GenBuffer() uint32 {
	id := c.alloc("GenBuffer")
	if id != 0 {
		c.Buffers[id] = nil
	}
	return id
}

func (c *Context) BindBuffer(buffer uint32) {
	c.Calls["BindBuffer"]++
	c.buffer = buffer
}

func (c *Context) BufferData(data []byte) {
	c.Calls["BufferData"]++
	if c.buffer == 0 {
		c.pending = errors.Join(c.pending, errors.New("BufferData with no buffer bound"))
		return
	}
	c.Buffers[c.buffer] = append([]byte(nil), data...)
}

func (c *Context) ReadBuffer(size int) []byte {
	c.Calls["ReadBuffer"]++
	data := c.Buffers[c.buffer]
	if size > len(data) {
		size = len(data)
	}
	return append([]byte(nil), data[:size]...)
}

func (c *Context) DeleteBuffer(buffer uint32) {
	c.Calls["DeleteBuffer"]++
	delete(c.Buffers, buffer)
}

func (c *Context) GenTexture() uint32 {
	id := c.alloc("GenTexture")
	if id != 0 {
		c.Textures[id] = &Texture{}
	}
	return id
}

func (c *Context) ActiveTexture(unit uint32) {
	c.Calls["ActiveTexture"]++
}

func (c *Context) BindTexture1D(texture uint32) {
	c.Calls["BindTexture1D"]++
	c.texture = texture
}

func (c *Context) boundTexture(call string) *Texture {
	c.Calls[call]++
	t, ok := c.Textures[c.texture]
	if !ok {
		c.pending = errors.Join(c.pending, fmt.Errorf("%s with no texture bound", call))
	}
	return t
}

func (c *Context) TexImage1D(width int, rgb []byte) {
	if t := c.boundTexture("TexImage1D"); t != nil {
		t.Width = width
		t.Image = append([]byte(nil), rgb...)
	}
}

func (c *Context) TexSubImage1D(width int, rgb []byte) {
	if t := c.boundTexture("TexSubImage1D"); t != nil {
		if width > t.Width {
			c.pending = errors.Join(c.pending, fmt.Errorf("TexSubImage1D: width %d exceeds %d", width, t.Width))
			return
		}
		copy(t.Image, rgb)
	}
}

func (c *Context) TexWrap1D(mode gpu.WrapMode) {
	if t := c.boundTexture("TexWrap1D"); t != nil {
		t.Wrap = mode
	}
}

func (c *Context) TexLinearFilter1D() {
	if t := c.boundTexture("TexLinearFilter1D"); t != nil {
		t.Linear = true
	}
}

func (c *Context) DeleteTexture(texture uint32) {
	c.Calls["DeleteTexture"]++
	delete(c.Textures, texture)
}

func (c *Context) GenVertexArray() uint32 {
	id := c.alloc("GenVertexArray")
	if id != 0 {
		c.VAOs[id] = &VertexArray{Attribs: map[uint32]*AttribPointer{}}
	}
	return id
}

func (c *Context) BindVertexArray(vao uint32) {
	c.Calls["BindVertexArray"]++
	c.vao = vao
}

func (c *Context) VertexAttribPointer(location uint32, size int32, typ gpu.ElemType, stride int32, offset int) {
	c.Calls["VertexAttribPointer"]++
	v, ok := c.VAOs[c.vao]
	if !ok || c.buffer == 0 {
		c.pending = errors.Join(c.pending, errors.New("VertexAttribPointer needs a bound vertex array and buffer"))
		return
	}
	prev := v.Attribs[location]
	v.Attribs[location] = &AttribPointer{Size: size, Type: typ, Stride: stride, Offset: offset, Buffer: c.buffer, Enabled: prev != nil && prev.Enabled}
}

func (c *Context) EnableVertexAttribArray(location uint32) {
	c.Calls["EnableVertexAttribArray"]++
	if v, ok := c.VAOs[c.vao]; ok {
		if a, ok := v.Attribs[location]; ok {
			a.Enabled = true
		}
	}
}

func (c *Context) DisableVertexAttribArray(location uint32) {
	c.Calls["DisableVertexAttribArray"]++
	if v, ok := c.VAOs[c.vao]; ok {
		if a, ok := v.Attribs[location]; ok {
			a.Enabled = false
		}
	}
}

func (c *Context) DeleteVertexArray(vao uint32) {
	c.Calls["DeleteVertexArray"]++
	delete(c.VAOs, vao)
}

func (c *Context) DrawArrays(mode gpu.Primitive, first, count int32) {
	c.Calls["DrawArrays"]++
	if c.DrawError != nil {
		c.pending = errors.Join(c.pending, c.DrawError)
		c.DrawError = nil
		return
	}
	if _, ok := c.Programs[c.program]; !ok {
		c.pending = errors.Join(c.pending, errors.New("DrawArrays with no program bound"))
		return
	}
	c.Draws = append(c.Draws, Draw{
		Program: c.program,
		VAO:     c.vao,
		Mode:    mode,
		First:   first,
		Count:   count,
		Polygon: c.Polygon,
		Texture: c.texture,
	})
}

func (c *Context) PolygonMode(mode gpu.PolygonMode) {
	c.Calls["PolygonMode"]++
	c.Polygon = mode
}

func (c *Context) Viewport(x, y, width, height int32) {
	c.Calls["Viewport"]++
	c.ViewportR = [4]int32{x, y, width, height}
}

func (c *Context) ClearColor(rgba [4]float32) {
	c.Calls["ClearColor"]++
	c.ClearRGBA = rgba
}

// ReadPixels reports every pixel in the last clear color.
func (c *Context) ReadPixels(x, y, width, height int32) []byte {
	c.Calls["ReadPixels"]++
	if width <= 0 || height <= 0 {
		return nil
	}
	var px [4]byte
	for i, v := range c.ClearRGBA {
		px[i] = byte(math.Round(float64(clamp01(v)) * 255))
	}
	out := make([]byte, 0, 4*int(width)*int(height))
	for i := 0; i < int(width)*int(height); i++ {
		out = append(out, px[:]...)
	}
	return out
}

func clamp01(v float32) float32 {
	return max(0, min(1, v))
}

func (c *Context) Clear(mask gpu.ClearMask) {
	c.Calls["Clear"]++
	c.Clears++
}

func (c *Context) Enable(cp gpu.Capability) {
	c.Calls["Enable"]++
	c.Enabled[cp] = true
}

func (c *Context) Err() error {
	err := c.pending
	c.pending = nil
	return err
}

// BoundProgram is the program currently in use.
func (c *Context) BoundProgram() uint32 {
	return c.program
}

// Uniform returns the last value uploaded to name in program.
func (c *Context) Uniform(program uint32, name string) (any, bool) {
	p, ok := c.Programs[program]
	if !ok || p.Values == nil {
		return nil, false
	}
	v, ok := p.Values[name]
	return v, ok
}
