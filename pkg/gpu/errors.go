package gpu

import (
	"errors"
	"fmt"
)

// CompileError reports a shader stage that failed to compile. Log holds the
// compiler diagnostics.
type CompileError struct {
	Stage ShaderStage
	Log   string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile %s shader: %s", e.Stage, e.Log)
}

type LinkError struct {
	Log string
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("link program: %s", e.Log)
}

// NameError reports a uniform or attribute that the option set declares but
// the compiled program does not expose.
type NameError struct {
	Kind string
	Name string
}

func (e *NameError) Error() string {
	return fmt.Sprintf("invalid %s name %q", e.Kind, e.Name)
}

type UnsupportedTypeError struct {
	Name  string
	Value any
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("uniform %q: unsupported value type %T", e.Name, e.Value)
}

type AllocError struct {
	Resource string
}

func (e *AllocError) Error() string {
	return fmt.Sprintf("failed to allocate %s", e.Resource)
}

// ErrNoData is returned when a buffer or colormap is initialised before any
// data was set.
var ErrNoData = errors.New("no data to upload")

// IsResourceError reports whether err comes from the driver side (compile,
// link, lookup or allocation) rather than from missing input.
func IsResourceError(err error) bool {
	var (
		ce *CompileError
		le *LinkError
		ne *NameError
		ae *AllocError
	)
	return errors.As(err, &ce) || errors.As(err, &le) || errors.As(err, &ne) || errors.As(err, &ae)
}
