package gpu

import (
	"encoding/binary"
	"fmt"
	"math"
)

// ElemType is the scalar type of a vertex attribute component.
type ElemType uint8

const (
	Float32 ElemType = iota
	Int32
	Uint32
)

func (t ElemType) Size() int {
	return 4
}

func (t ElemType) String() string {
	switch t {
	case Float32:
		return "float32"
	case Int32:
		return "int32"
	case Uint32:
		return "uint32"
	default:
		return "unknown"
	}
}

// Field describes one named attribute of an interleaved vertex record.
type Field struct {
	Name  string
	Type  ElemType
	Count int
}

func (f Field) Size() int {
	return f.Type.Size() * f.Count
}

// StructArray is a CPU side array of interleaved vertex records. Records
// are packed in field order without padding, little endian.
type StructArray struct {
	fields  []Field
	offsets map[string]int
	index   map[string]int
	stride  int
	n       int
	data    []byte
}

func NewStructArray(n int, fields ...Field) (*StructArray, error) {
	if n < 0 {
		return nil, fmt.Errorf("struct array: negative length %d", n)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("struct array: no fields")
	}
	a := &StructArray{
		fields:  append([]Field(nil), fields...),
		offsets: make(map[string]int, len(fields)),
		index:   make(map[string]int, len(fields)),
		n:       n,
	}
	for i, f := range fields {
		if f.Count <= 0 {
			return nil, fmt.Errorf("struct array: field %q has count %d", f.Name, f.Count)
		}
		if _, dup := a.offsets[f.Name]; dup {
			return nil, fmt.Errorf("struct array: duplicate field %q", f.Name)
		}
		a.offsets[f.Name] = a.stride
		a.index[f.Name] = i
		a.stride += f.Size()
	}
	a.data = make([]byte, n*a.stride)
	return a, nil
}

func (a *StructArray) Len() int {
	return a.n
}

func (a *StructArray) Stride() int {
	return a.stride
}

func (a *StructArray) Fields() []Field {
	return append([]Field(nil), a.fields...)
}

func (a *StructArray) HasField(name string) bool {
	_, ok := a.offsets[name]
	return ok
}

// Offset returns the byte offset of the named field inside a record.
func (a *StructArray) Offset(name string) (int, bool) {
	off, ok := a.offsets[name]
	return off, ok
}

// Bytes returns the packed records. The slice aliases the array.
func (a *StructArray) Bytes() []byte {
	return a.data
}

func (a *StructArray) field(name string, i int, want int) (Field, int, error) {
	idx, ok := a.index[name]
	if !ok {
		return Field{}, 0, fmt.Errorf("struct array: no field %q", name)
	}
	if i < 0 || i >= a.n {
		return Field{}, 0, fmt.Errorf("struct array: index %d out of range [0,%d)", i, a.n)
	}
	f := a.fields[idx]
	if want > f.Count {
		return Field{}, 0, fmt.Errorf("struct array: field %q holds %d values, got %d", name, f.Count, want)
	}
	return f, i*a.stride + a.offsets[name], nil
}

// SetFloat32 writes values into the named float field of record i.
func (a *StructArray) SetFloat32(name string, i int, values ...float32) error {
	f, base, err := a.field(name, i, len(values))
	if err != nil {
		return err
	}
	if f.Type != Float32 {
		return fmt.Errorf("struct array: field %q is %s", name, f.Type)
	}
	for k, v := range values {
		binary.LittleEndian.PutUint32(a.data[base+4*k:], math.Float32bits(v))
	}
	return nil
}

func (a *StructArray) SetUint32(name string, i int, values ...uint32) error {
	f, base, err := a.field(name, i, len(values))
	if err != nil {
		return err
	}
	if f.Type == Float32 {
		return fmt.Errorf("struct array: field %q is %s", name, f.Type)
	}
	for k, v := range values {
		binary.LittleEndian.PutUint32(a.data[base+4*k:], v)
	}
	return nil
}

// Float32 reads the named float field of record i.
func (a *StructArray) Float32(name string, i int) ([]float32, error) {
	f, base, err := a.field(name, i, 0)
	if err != nil {
		return nil, err
	}
	if f.Type != Float32 {
		return nil, fmt.Errorf("struct array: field %q is %s", name, f.Type)
	}
	out := make([]float32, f.Count)
	for k := range out {
		out[k] = math.Float32frombits(binary.LittleEndian.Uint32(a.data[base+4*k:]))
	}
	return out, nil
}

// Filter returns a new array holding the records for which keep is true.
func (a *StructArray) Filter(keep func(i int) bool) *StructArray {
	out := &StructArray{
		fields:  a.fields,
		offsets: a.offsets,
		index:   a.index,
		stride:  a.stride,
	}
	out.data = make([]byte, 0, len(a.data))
	for i := 0; i < a.n; i++ {
		if keep(i) {
			out.data = append(out.data, a.data[i*a.stride:(i+1)*a.stride]...)
			out.n++
		}
	}
	return out
}
