package gpu

// Context is the GL context a resource lives in. It exposes only the driver
// calls the renderer needs. internal/glbackend implements it on top of
// OpenGL 3.3 core, gputest keeps everything in memory.
//
// Calls follow GL binding semantics: BufferData, ReadBuffer and
// VertexAttribPointer act on the bound array buffer, the texture calls act
// on the bound 1D texture.
type Context interface {
	CreateShader(stage ShaderStage) uint32
	// CompileShader sets the source and compiles it. ok is false on failure
	// and log carries the diagnostics.
	CompileShader(shader uint32, source string) (log string, ok bool)
	DeleteShader(shader uint32)

	CreateProgram() uint32
	AttachShader(program, shader uint32)
	DetachShader(program, shader uint32)
	LinkProgram(program uint32) (log string, ok bool)
	UseProgram(program uint32)
	CurrentProgram() uint32
	DeleteProgram(program uint32)

	// UniformLocation and AttribLocation return -1 for unknown names.
	UniformLocation(program uint32, name string) int32
	AttribLocation(program uint32, name string) int32
	Uniform1f(location int32, v float32)
	Uniform4f(location int32, v [4]float32)
	UniformMatrix4fv(location int32, m [16]float32)

	GenBuffer() uint32
	BindBuffer(buffer uint32)
	BufferData(data []byte)
	ReadBuffer(size int) []byte
	DeleteBuffer(buffer uint32)

	GenTexture() uint32
	ActiveTexture(unit uint32)
	BindTexture1D(texture uint32)
	TexImage1D(width int, rgb []byte)
	TexSubImage1D(width int, rgb []byte)
	TexWrap1D(mode WrapMode)
	TexLinearFilter1D()
	DeleteTexture(texture uint32)

	GenVertexArray() uint32
	BindVertexArray(vao uint32)
	VertexAttribPointer(location uint32, size int32, typ ElemType, stride int32, offset int)
	EnableVertexAttribArray(location uint32)
	DisableVertexAttribArray(location uint32)
	DeleteVertexArray(vao uint32)

	DrawArrays(mode Primitive, first, count int32)
	PolygonMode(mode PolygonMode)

	Viewport(x, y, width, height int32)
	ClearColor(rgba [4]float32)
	Clear(mask ClearMask)
	Enable(c Capability)
	// ReadPixels returns the RGBA8 contents of the framebuffer rectangle,
	// bottom row first.
	ReadPixels(x, y, width, height int32) []byte

	// Err drains the driver error flag.
	Err() error
}
