//go:build !js

// Package glbackend implements gpu.Context on OpenGL 3.3 core. Every call
// must run on the thread that owns the current GL context.
package glbackend

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/kjkrol/flowvis/pkg/gpu"
)

type Context struct{}

var _ gpu.Context = (*Context)(nil)

// New loads the GL function pointers for the current context.
func New() (*Context, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("gl init: %w", err)
	}
	return &Context{}, nil
}

// Version returns the GL_VERSION string of the current context.
func (c *Context) Version() string {
	return gl.GoStr(gl.GetString(gl.VERSION))
}

func (c *Context) CreateShader(stage gpu.ShaderStage) uint32 {
	if stage == gpu.StageVertex {
		return gl.CreateShader(gl.VERTEX_SHADER)
	}
	return gl.CreateShader(gl.FRAGMENT_SHADER)
}

func (c *Context) CompileShader(shader uint32, source string) (string, bool) {
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		return strings.TrimRight(log, "\x00"), false
	}
	return "", true
}

func (c *Context) DeleteShader(shader uint32) {
	gl.DeleteShader(shader)
}

func (c *Context) CreateProgram() uint32 {
	return gl.CreateProgram()
}

func (c *Context) AttachShader(program, shader uint32) {
	gl.AttachShader(program, shader)
}

func (c *Context) DetachShader(program, shader uint32) {
	gl.DetachShader(program, shader)
}

func (c *Context) LinkProgram(program uint32) (string, bool) {
	gl.LinkProgram(program)
	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		return strings.TrimRight(log, "\x00"), false
	}
	return "", true
}

func (c *Context) UseProgram(program uint32) {
	gl.UseProgram(program)
}

func (c *Context) CurrentProgram() uint32 {
	var p int32
	gl.GetIntegerv(gl.CURRENT_PROGRAM, &p)
	return uint32(p)
}

func (c *Context) DeleteProgram(program uint32) {
	gl.DeleteProgram(program)
}

func (c *Context) UniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

func (c *Context) AttribLocation(program uint32, name string) int32 {
	return gl.GetAttribLocation(program, gl.Str(name+"\x00"))
}

func (c *Context) Uniform1f(location int32, v float32) {
	gl.Uniform1f(location, v)
}

func (c *Context) Uniform4f(location int32, v [4]float32) {
	gl.Uniform4f(location, v[0], v[1], v[2], v[3])
}

func (c *Context) UniformMatrix4fv(location int32, m [16]float32) {
	gl.UniformMatrix4fv(location, 1, false, &m[0])
}

func (c *Context) GenBuffer() uint32 {
	var b uint32
	gl.GenBuffers(1, &b)
	return b
}

func (c *Context) BindBuffer(buffer uint32) {
	gl.BindBuffer(gl.ARRAY_BUFFER, buffer)
}

func (c *Context) BufferData(data []byte) {
	if len(data) == 0 {
		gl.BufferData(gl.ARRAY_BUFFER, 0, nil, gl.STATIC_DRAW)
		return
	}
	gl.BufferData(gl.ARRAY_BUFFER, len(data), gl.Ptr(data), gl.STATIC_DRAW)
}

func (c *Context) ReadBuffer(size int) []byte {
	out := make([]byte, size)
	if size > 0 {
		gl.GetBufferSubData(gl.ARRAY_BUFFER, 0, size, gl.Ptr(out))
	}
	return out
}

func (c *Context) DeleteBuffer(buffer uint32) {
	gl.DeleteBuffers(1, &buffer)
}

func (c *Context) GenTexture() uint32 {
	var t uint32
	gl.GenTextures(1, &t)
	return t
}

func (c *Context) ActiveTexture(unit uint32) {
	gl.ActiveTexture(gl.TEXTURE0 + unit)
}

func (c *Context) BindTexture1D(texture uint32) {
	gl.BindTexture(gl.TEXTURE_1D, texture)
}

func (c *Context) TexImage1D(width int, rgb []byte) {
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage1D(gl.TEXTURE_1D, 0, gl.RGB, int32(width), 0, gl.RGB, gl.UNSIGNED_BYTE, gl.Ptr(rgb))
}

func (c *Context) TexSubImage1D(width int, rgb []byte) {
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexSubImage1D(gl.TEXTURE_1D, 0, 0, int32(width), gl.RGB, gl.UNSIGNED_BYTE, gl.Ptr(rgb))
}

func (c *Context) TexWrap1D(mode gpu.WrapMode) {
	wrap := int32(gl.REPEAT)
	if mode == gpu.WrapClampToEdge {
		wrap = gl.CLAMP_TO_EDGE
	}
	gl.TexParameteri(gl.TEXTURE_1D, gl.TEXTURE_WRAP_S, wrap)
}

func (c *Context) TexLinearFilter1D() {
	gl.TexParameteri(gl.TEXTURE_1D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_1D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
}

func (c *Context) DeleteTexture(texture uint32) {
	gl.DeleteTextures(1, &texture)
}

func (c *Context) GenVertexArray() uint32 {
	var v uint32
	gl.GenVertexArrays(1, &v)
	return v
}

func (c *Context) BindVertexArray(vao uint32) {
	gl.BindVertexArray(vao)
}

func (c *Context) VertexAttribPointer(location uint32, size int32, typ gpu.ElemType, stride int32, offset int) {
	switch typ {
	case gpu.Int32:
		gl.VertexAttribIPointerWithOffset(location, size, gl.INT, stride, uintptr(offset))
	case gpu.Uint32:
		gl.VertexAttribIPointerWithOffset(location, size, gl.UNSIGNED_INT, stride, uintptr(offset))
	default:
		gl.VertexAttribPointerWithOffset(location, size, gl.FLOAT, false, stride, uintptr(offset))
	}
}

func (c *Context) EnableVertexAttribArray(location uint32) {
	gl.EnableVertexAttribArray(location)
}

func (c *Context) DisableVertexAttribArray(location uint32) {
	gl.DisableVertexAttribArray(location)
}

func (c *Context) DeleteVertexArray(vao uint32) {
	gl.DeleteVertexArrays(1, &vao)
}

var primitives = map[gpu.Primitive]uint32{
	gpu.Points:    gl.POINTS,
	gpu.Lines:     gl.LINES,
	gpu.Triangles: gl.TRIANGLES,
	gpu.LineStrip: gl.LINE_STRIP,
	gpu.LineLoop:  gl.LINE_LOOP,
}

func (c *Context) DrawArrays(mode gpu.Primitive, first, count int32) {
	gl.DrawArrays(primitives[mode], first, count)
}

func (c *Context) PolygonMode(mode gpu.PolygonMode) {
	if mode == gpu.PolygonLine {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
		return
	}
	gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
}

func (c *Context) Viewport(x, y, width, height int32) {
	gl.Viewport(x, y, width, height)
}

func (c *Context) ReadPixels(x, y, width, height int32) []byte {
	if width <= 0 || height <= 0 {
		return nil
	}
	out := make([]byte, 4*int(width)*int(height))
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(x, y, width, height, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(out))
	return out
}

func (c *Context) ClearColor(rgba [4]float32) {
	gl.ClearColor(rgba[0], rgba[1], rgba[2], rgba[3])
}

func (c *Context) Clear(mask gpu.ClearMask) {
	var bits uint32
	if mask&gpu.ClearColor != 0 {
		bits |= gl.COLOR_BUFFER_BIT
	}
	if mask&gpu.ClearDepth != 0 {
		bits |= gl.DEPTH_BUFFER_BIT
	}
	if mask&gpu.ClearStencil != 0 {
		bits |= gl.STENCIL_BUFFER_BIT
	}
	gl.Clear(bits)
}

var capabilities = map[gpu.Capability]uint32{
	gpu.CapDepthTest:        gl.DEPTH_TEST,
	gpu.CapProgramPointSize: gl.PROGRAM_POINT_SIZE,
}

func (c *Context) Enable(cp gpu.Capability) {
	gl.Enable(capabilities[cp])
}

// Err drains every pending GL error flag.
func (c *Context) Err() error {
	var errs []error
	for code := gl.GetError(); code != gl.NO_ERROR; code = gl.GetError() {
		errs = append(errs, glError(code))
	}
	return errors.Join(errs...)
}

type glError uint32

func (e glError) Error() string {
	switch uint32(e) {
	case gl.INVALID_ENUM:
		return "GL_INVALID_ENUM"
	case gl.INVALID_VALUE:
		return "GL_INVALID_VALUE"
	case gl.INVALID_OPERATION:
		return "GL_INVALID_OPERATION"
	case gl.INVALID_FRAMEBUFFER_OPERATION:
		return "GL_INVALID_FRAMEBUFFER_OPERATION"
	case gl.OUT_OF_MEMORY:
		return "GL_OUT_OF_MEMORY"
	default:
		return fmt.Sprintf("GL error 0x%x", uint32(e))
	}
}
