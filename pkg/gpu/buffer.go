package gpu

// Buffer is a GPU vertex buffer holding one StructArray.
type Buffer struct {
	ctx         Context
	data        *StructArray
	handle      uint32
	initialized bool
	start, end  int
	version     uint64
}

// NewBuffer creates a buffer; data may be nil and set later with SetData.
func NewBuffer(ctx Context, data *StructArray) *Buffer {
	return &Buffer{ctx: ctx, data: data}
}

func (b *Buffer) Initialise() error {
	if b.initialized {
		return nil
	}
	if b.data == nil {
		return ErrNoData
	}
	handle := b.ctx.GenBuffer()
	if handle == 0 {
		return &AllocError{Resource: "vertex buffer"}
	}
	b.handle = handle
	b.upload()
	b.initialized = true
	b.version++
	return nil
}

// SetData replaces the CPU array. An initialised buffer re-uploads the whole
// array right away so size and layout changes are picked up. A nil array
// leaves the GPU copy alone and empties the draw range.
func (b *Buffer) SetData(data *StructArray) {
	b.data = data
	switch {
	case data == nil:
		b.SetDrawRange(0, 0)
	case b.initialized:
		b.upload()
	}
	b.version++
}

func (b *Buffer) upload() {
	b.ctx.BindBuffer(b.handle)
	b.ctx.BufferData(b.data.Bytes())
	b.ctx.BindBuffer(0)
	b.SetDrawRange(0, b.data.Len())
}

// SetDrawRange limits drawing to records [start, end) without touching the
// uploaded data.
func (b *Buffer) SetDrawRange(start, end int) {
	b.start, b.end = start, end
}

func (b *Buffer) DrawRange() (start, end int) {
	return b.start, b.end
}

func (b *Buffer) Len() int {
	if b.data == nil {
		return 0
	}
	return b.data.Len()
}

func (b *Buffer) Data() *StructArray {
	return b.data
}

func (b *Buffer) HasData() bool {
	return b.data != nil
}

// Version changes on every SetData and on every (re)initialisation.
func (b *Buffer) Version() uint64 {
	return b.version
}

func (b *Buffer) Handle() uint32 {
	return b.handle
}

func (b *Buffer) Initialized() bool {
	return b.initialized
}

// ReadBack returns the bytes currently stored on the GPU.
func (b *Buffer) ReadBack() ([]byte, error) {
	if !b.initialized {
		return nil, ErrNoData
	}
	b.ctx.BindBuffer(b.handle)
	defer b.ctx.BindBuffer(0)
	return b.ctx.ReadBuffer(len(b.data.Bytes())), nil
}

func (b *Buffer) Delete() {
	if !b.initialized {
		return
	}
	b.ctx.DeleteBuffer(b.handle)
	b.handle = 0
	b.initialized = false
}
