package gpu_test

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/kjkrol/flowvis/pkg/gpu"
	"github.com/kjkrol/flowvis/pkg/gpu/gputest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedView struct{}

func (fixedView) ModelMatrix() mgl32.Mat4      { return mgl32.Translate3D(1, 0, 0) }
func (fixedView) ViewMatrix() mgl32.Mat4       { return mgl32.Ident4() }
func (fixedView) ProjectionMatrix() mgl32.Mat4 { return mgl32.Ident4() }
func (fixedView) ModelScale() float32          { return 2 }

func newTestPainter(t *testing.T, ctx *gputest.Context, data *gpu.StructArray) *gpu.Painter {
	t.Helper()
	program := gpu.NewShaderProgram(ctx, testVariant())
	return gpu.NewPainter(ctx, "test", program, gpu.Points, gpu.NewBuffer(ctx, data))
}

func TestPainter_NoDataDrawsNothing(t *testing.T) {
	ctx := gputest.New()
	p := newTestPainter(t, ctx, nil)
	require.NoError(t, p.Render(fixedView{}))
	assert.False(t, p.Initialized())
	assert.Empty(t, ctx.Draws)
	assert.Nil(t, p.BBox())
}

func TestPainter_RenderDrawsWholeRange(t *testing.T) {
	ctx := gputest.New()
	p := newTestPainter(t, ctx, positions(t, [3]float32{0, 0, 0}, [3]float32{1, 1, 1}, [3]float32{2, 2, 2}))
	require.NoError(t, p.Render(fixedView{}))

	require.Len(t, ctx.Draws, 1)
	d := ctx.Draws[0]
	assert.Equal(t, gpu.Points, d.Mode)
	assert.Equal(t, int32(0), d.First)
	assert.Equal(t, int32(3), d.Count)
	assert.Equal(t, uint32(0), ctx.BoundProgram(), "program released after draw")

	got, ok := ctx.Uniform(d.Program, "u_model")
	require.True(t, ok)
	assert.Equal(t, [16]float32(mgl32.Translate3D(1, 0, 0)), got)

	vao := ctx.VAOs[d.VAO]
	require.Len(t, vao.Attribs, 2)
	color := vao.Attribs[1]
	assert.Equal(t, int32(4), color.Size)
	assert.Equal(t, int32(28), color.Stride)
	assert.Equal(t, 12, color.Offset)
	assert.True(t, color.Enabled)
}

func TestPainter_DrawRangeCountsFromStart(t *testing.T) {
	ctx := gputest.New()
	p := newTestPainter(t, ctx, positions(t, [3]float32{}, [3]float32{}, [3]float32{}, [3]float32{}))
	require.NoError(t, p.Render(nil))
	p.Buffer().SetDrawRange(1, 3)
	require.NoError(t, p.Render(nil))

	require.Len(t, ctx.Draws, 2)
	assert.Equal(t, int32(1), ctx.Draws[1].First)
	assert.Equal(t, int32(2), ctx.Draws[1].Count)
}

func TestPainter_RebindsOnlyWhenInputsChange(t *testing.T) {
	ctx := gputest.New()
	p := newTestPainter(t, ctx, positions(t, [3]float32{1, 2, 3}))
	require.NoError(t, p.Render(fixedView{}))
	require.NoError(t, p.Render(fixedView{}))
	assert.Equal(t, 1, p.RebindCount())

	p.Buffer().SetData(positions(t, [3]float32{1, 2, 3}, [3]float32{4, 5, 6}))
	require.NoError(t, p.Render(fixedView{}))
	assert.Equal(t, 2, p.RebindCount())

	p.Program().Rebuild(testVariant())
	require.NoError(t, p.Render(fixedView{}))
	assert.Equal(t, 3, p.RebindCount())

	require.NoError(t, p.Render(fixedView{}))
	assert.Equal(t, 3, p.RebindCount())
}

func TestPainter_DropsAttributesTheNewLayoutLacks(t *testing.T) {
	ctx := gputest.New()
	colored, err := gpu.NewStructArray(1,
		gpu.Field{Name: "a_position", Type: gpu.Float32, Count: 3},
		gpu.Field{Name: "a_color", Type: gpu.Float32, Count: 4})
	require.NoError(t, err)
	p := newTestPainter(t, ctx, colored)
	require.NoError(t, p.Render(fixedView{}))

	require.Len(t, ctx.VAOs, 1)
	var vao *gputest.VertexArray
	for _, v := range ctx.VAOs {
		vao = v
	}
	pos, err := p.Program().AttributeLocation("a_position")
	require.NoError(t, err)
	col, err := p.Program().AttributeLocation("a_color")
	require.NoError(t, err)
	require.True(t, vao.Attribs[col].Enabled)

	p.Buffer().SetData(positions(t, [3]float32{1, 2, 3}))
	require.NoError(t, p.Render(fixedView{}))
	assert.True(t, vao.Attribs[pos].Enabled)
	assert.False(t, vao.Attribs[col].Enabled)
	assert.Equal(t, 1, ctx.Calls["DisableVertexAttribArray"])
}

func TestPainter_WireframeRestoredOnDrawError(t *testing.T) {
	ctx := gputest.New()
	p := newTestPainter(t, ctx, positions(t, [3]float32{}))
	p.Wireframe = true
	boom := errors.New("GL_INVALID_OPERATION")
	ctx.DrawError = boom

	err := p.Render(fixedView{})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, gpu.PolygonFill, ctx.Polygon)
	assert.Equal(t, uint32(0), ctx.BoundProgram())

	require.NoError(t, p.Render(fixedView{}))
	require.Len(t, ctx.Draws, 1)
	assert.Equal(t, gpu.PolygonLine, ctx.Draws[0].Polygon)
	assert.Equal(t, gpu.PolygonFill, ctx.Polygon)
}

func TestPainter_CompileErrorSurfaces(t *testing.T) {
	ctx := gputest.New()
	ctx.CompileFailures[gpu.StageVertex] = "bad"
	p := newTestPainter(t, ctx, positions(t, [3]float32{}))
	var ce *gpu.CompileError
	require.ErrorAs(t, p.Render(fixedView{}), &ce)
	assert.Empty(t, ctx.Draws)
}

func TestPainter_ColorMapBoundWhenPresent(t *testing.T) {
	ctx := gputest.New()
	cm := gpu.NewColorMap(ctx)
	require.NoError(t, cm.SetImage(make([]byte, cm.Width()*3)))
	program := gpu.NewShaderProgram(ctx, testVariant())
	p := gpu.NewPainter(ctx, "cm", program, gpu.Points, gpu.NewBuffer(ctx, positions(t, [3]float32{})), gpu.WithColorMap(cm))

	require.NoError(t, p.Render(nil))
	require.True(t, cm.Initialized())
	require.Len(t, ctx.Draws, 1)
	assert.NotZero(t, ctx.Draws[0].Texture)

	p.Delete()
	assert.False(t, cm.Initialized())
	assert.Empty(t, ctx.Textures)
	assert.Empty(t, ctx.VAOs)
	assert.Empty(t, ctx.Buffers)
	assert.Empty(t, ctx.Programs)
}

func TestPainter_SharedColorMapSurvivesDelete(t *testing.T) {
	ctx := gputest.New()
	cm := gpu.NewColorMap(ctx)
	require.NoError(t, cm.SetImage(make([]byte, cm.Width()*3)))
	program := gpu.NewShaderProgram(ctx, testVariant())
	p := gpu.NewPainter(ctx, "shared", program, gpu.Points, gpu.NewBuffer(ctx, positions(t, [3]float32{})), gpu.WithSharedColorMap(cm))
	require.NoError(t, p.Render(nil))
	p.Delete()
	assert.True(t, cm.Initialized())
}

func TestPainter_BBox(t *testing.T) {
	ctx := gputest.New()
	p := newTestPainter(t, ctx, positions(t, [3]float32{-1, 0, 2}, [3]float32{3, 4, -2}))
	box := p.BBox()
	require.NotNil(t, box)
	assert.Equal(t, mgl32.Vec3{-1, 0, -2}, box.Min)
	assert.Equal(t, mgl32.Vec3{3, 4, 2}, box.Max)
}
