package shaders

import "github.com/kjkrol/flowvis/pkg/gpu"

// Options is implemented by PointOptions, LineOptions and TriangleOptions.
type Options interface {
	Variant() (gpu.Variant, error)
}

// Program is a ShaderProgram tied to one options type.
type Program[O Options] struct {
	*gpu.ShaderProgram
	opts O
}

func NewProgram[O Options](ctx gpu.Context, opts O) (*Program[O], error) {
	v, err := opts.Variant()
	if err != nil {
		return nil, err
	}
	return &Program[O]{ShaderProgram: gpu.NewShaderProgram(ctx, v), opts: opts}, nil
}

func (p *Program[O]) Options() O {
	return p.opts
}

// SetOptions switches to opts. When the variant changes the GPU program is
// dropped and rebuilt on next use; otherwise only the uniform defaults are
// refreshed. It reports whether a rebuild was scheduled.
func (p *Program[O]) SetOptions(opts O) (bool, error) {
	v, err := opts.Variant()
	if err != nil {
		return false, err
	}
	p.opts = opts
	if v.Key != p.Variant().Key {
		p.Rebuild(v)
		return true, nil
	}
	for name, value := range v.Defaults {
		if err := p.SetDefault(name, value); err != nil {
			return false, err
		}
	}
	return false, nil
}

func NewPointProgram(ctx gpu.Context, opts PointOptions) (*Program[PointOptions], error) {
	return NewProgram(ctx, opts)
}

func NewLineProgram(ctx gpu.Context, opts LineOptions) (*Program[LineOptions], error) {
	return NewProgram(ctx, opts)
}

func NewTriangleProgram(ctx gpu.Context, opts TriangleOptions) (*Program[TriangleOptions], error) {
	return NewProgram(ctx, opts)
}
