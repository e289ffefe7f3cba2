package gpu

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Variant is one compiled combination of a shader family: the full stage
// sources plus the attribute and uniform names the sources declare.
// Defaults are uniform values uploaded right after initialisation.
type Variant struct {
	Key        string
	Vertex     string
	Fragment   string
	Attributes []string
	Uniforms   []string
	Defaults   map[string]any
}

// ProgramState is the two phase lifecycle of a ShaderProgram. A Configured
// program has a variant but no GPU object; Initialise moves it to
// Initialized, Delete and Rebuild move it back.
type ProgramState uint8

const (
	Configured ProgramState = iota
	Initialized
)

func (s ProgramState) String() string {
	if s == Initialized {
		return "initialized"
	}
	return "configured"
}

type ShaderProgram struct {
	ctx        Context
	variant    Variant
	state      ProgramState
	handle     uint32
	uniforms   map[string]int32
	attributes map[string]uint32
	bound      bool
	generation uint64
}

func NewShaderProgram(ctx Context, v Variant) *ShaderProgram {
	return &ShaderProgram{ctx: ctx, variant: v}
}

// SetVariant swaps the variant used by the next Initialise. It does not
// touch an already linked program; use Rebuild for that.
func (p *ShaderProgram) SetVariant(v Variant) {
	p.variant = v
}

func (p *ShaderProgram) Variant() Variant {
	return p.variant
}

func (p *ShaderProgram) State() ProgramState {
	return p.state
}

// Handle is the GL program name, 0 until initialised.
func (p *ShaderProgram) Handle() uint32 {
	return p.handle
}

func (p *ShaderProgram) Initialized() bool {
	return p.state == Initialized
}

// Generation increases on every successful Initialise, so holders of
// attribute locations know when to look them up again.
func (p *ShaderProgram) Generation() uint64 {
	return p.generation
}

func (p *ShaderProgram) Attributes() []string {
	return append([]string(nil), p.variant.Attributes...)
}

func (p *ShaderProgram) Uniforms() []string {
	return append([]string(nil), p.variant.Uniforms...)
}

// DeclaresUniform reports whether the current variant lists name.
func (p *ShaderProgram) DeclaresUniform(name string) bool {
	for _, u := range p.variant.Uniforms {
		if u == name {
			return true
		}
	}
	return false
}

func (p *ShaderProgram) DeclaresAttribute(name string) bool {
	for _, a := range p.variant.Attributes {
		if a == name {
			return true
		}
	}
	return false
}

// Initialise compiles and links the current variant and resolves every
// declared uniform and attribute.
func (p *ShaderProgram) Initialise() error {
	if p.state == Initialized {
		return nil
	}
	vs, err := p.compile(StageVertex, p.variant.Vertex)
	if err != nil {
		return err
	}
	defer p.ctx.DeleteShader(vs)
	fs, err := p.compile(StageFragment, p.variant.Fragment)
	if err != nil {
		return err
	}
	defer p.ctx.DeleteShader(fs)

	program := p.ctx.CreateProgram()
	if program == 0 {
		return &AllocError{Resource: "shader program"}
	}
	p.ctx.AttachShader(program, vs)
	p.ctx.AttachShader(program, fs)
	log, ok := p.ctx.LinkProgram(program)
	p.ctx.DetachShader(program, vs)
	p.ctx.DetachShader(program, fs)
	if !ok {
		p.ctx.DeleteProgram(program)
		return &LinkError{Log: log}
	}

	uniforms := make(map[string]int32, len(p.variant.Uniforms))
	for _, name := range p.variant.Uniforms {
		loc := p.ctx.UniformLocation(program, name)
		if loc == -1 {
			p.ctx.DeleteProgram(program)
			return &NameError{Kind: "uniform", Name: name}
		}
		uniforms[name] = loc
	}
	attributes := make(map[string]uint32, len(p.variant.Attributes))
	for _, name := range p.variant.Attributes {
		loc := p.ctx.AttribLocation(program, name)
		if loc == -1 {
			p.ctx.DeleteProgram(program)
			return &NameError{Kind: "attribute", Name: name}
		}
		attributes[name] = uint32(loc)
	}

	p.handle = program
	p.uniforms = uniforms
	p.attributes = attributes
	for _, name := range p.variant.Uniforms {
		if v, ok := p.variant.Defaults[name]; ok {
			if err := p.SetUniformValue(name, v); err != nil {
				p.ctx.DeleteProgram(program)
				p.handle = 0
				p.uniforms = nil
				p.attributes = nil
				return err
			}
		}
	}
	p.state = Initialized
	p.generation++
	return nil
}

func (p *ShaderProgram) compile(stage ShaderStage, source string) (uint32, error) {
	shader := p.ctx.CreateShader(stage)
	if shader == 0 {
		return 0, &AllocError{Resource: stage.String() + " shader"}
	}
	if log, ok := p.ctx.CompileShader(shader, source); !ok {
		p.ctx.DeleteShader(shader)
		return 0, &CompileError{Stage: stage, Log: log}
	}
	return shader, nil
}

// AttributeLocation returns the resolved location of a declared attribute.
func (p *ShaderProgram) AttributeLocation(name string) (uint32, error) {
	loc, ok := p.attributes[name]
	if !ok {
		return 0, &NameError{Kind: "attribute", Name: name}
	}
	return loc, nil
}

// SetUniformValue uploads value to the named uniform. Scalars go through
// Uniform1f, 4x4 matrices through UniformMatrix4fv and 4-vectors through
// Uniform4f. The program does not need to be bound; the previous binding
// is restored afterwards.
func (p *ShaderProgram) SetUniformValue(name string, value any) error {
	loc, ok := p.uniforms[name]
	if !ok {
		return &NameError{Kind: "uniform", Name: name}
	}
	var upload func()
	switch v := value.(type) {
	case float32:
		upload = func() { p.ctx.Uniform1f(loc, v) }
	case float64:
		upload = func() { p.ctx.Uniform1f(loc, float32(v)) }
	case mgl32.Mat4:
		upload = func() { p.ctx.UniformMatrix4fv(loc, v) }
	case [16]float32:
		upload = func() { p.ctx.UniformMatrix4fv(loc, v) }
	case mgl32.Vec4:
		upload = func() { p.ctx.Uniform4f(loc, v) }
	case [4]float32:
		upload = func() { p.ctx.Uniform4f(loc, v) }
	default:
		return &UnsupportedTypeError{Name: name, Value: value}
	}
	if !p.bound {
		prev := p.ctx.CurrentProgram()
		p.ctx.UseProgram(p.handle)
		defer p.ctx.UseProgram(prev)
	}
	upload()
	return nil
}

// SetDefault records a uniform value re-uploaded on every initialisation
// and uploads it now when the program is live.
func (p *ShaderProgram) SetDefault(name string, value any) error {
	if p.variant.Defaults == nil {
		p.variant.Defaults = make(map[string]any)
	}
	p.variant.Defaults[name] = value
	if p.state != Initialized || !p.DeclaresUniform(name) {
		return nil
	}
	return p.SetUniformValue(name, value)
}

func (p *ShaderProgram) Bind() {
	p.ctx.UseProgram(p.handle)
	p.bound = true
}

func (p *ShaderProgram) Release() {
	p.ctx.UseProgram(0)
	p.bound = false
}

// Rebuild drops the GPU program and switches to v. The program is
// initialised again lazily by its next user.
func (p *ShaderProgram) Rebuild(v Variant) {
	p.Delete()
	p.SetVariant(v)
}

// Delete releases the GPU program. Calling it on a program that is not
// initialised does nothing.
func (p *ShaderProgram) Delete() {
	if p.state == Initialized {
		p.ctx.DeleteProgram(p.handle)
	}
	p.handle = 0
	p.uniforms = nil
	p.attributes = nil
	p.bound = false
	p.state = Configured
}
