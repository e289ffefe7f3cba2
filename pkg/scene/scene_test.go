package scene_test

import (
	"errors"
	"testing"

	"github.com/kjkrol/flowvis/pkg/gpu"
	"github.com/kjkrol/flowvis/pkg/gpu/gputest"
	"github.com/kjkrol/flowvis/pkg/scene"
	"github.com/kjkrol/flowvis/pkg/shaders"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArena_InsertGetRemove(t *testing.T) {
	a := scene.NewArena[int]()
	one, two := 1, 2
	h1 := a.Insert(&one)
	h2 := a.Insert(&two)
	assert.Equal(t, 2, a.Len())

	v, err := a.Get(h1)
	require.NoError(t, err)
	assert.Equal(t, 1, *v)

	_, err = a.Remove(h1)
	require.NoError(t, err)
	_, err = a.Get(h1)
	assert.ErrorIs(t, err, scene.ErrExpiredHandle)
	_, err = a.Remove(h1)
	assert.ErrorIs(t, err, scene.ErrExpiredHandle)
	assert.True(t, a.Contains(h2))
	assert.Equal(t, 1, a.Len())
}

func TestArena_ReusedSlotDoesNotAlias(t *testing.T) {
	a := scene.NewArena[string]()
	first, second := "first", "second"
	old := a.Insert(&first)
	_, _ = a.Remove(old)
	fresh := a.Insert(&second)

	assert.NotEqual(t, old, fresh)
	_, err := a.Get(old)
	assert.ErrorIs(t, err, scene.ErrExpiredHandle)
	v, err := a.Get(fresh)
	require.NoError(t, err)
	assert.Equal(t, "second", *v)
}

func TestArena_ZeroHandleIsExpired(t *testing.T) {
	a := scene.NewArena[int]()
	var h scene.Handle[int]
	assert.True(t, h.IsZero())
	_, err := a.Get(h)
	assert.ErrorIs(t, err, scene.ErrExpiredHandle)
}

func TestArena_Each(t *testing.T) {
	a := scene.NewArena[int]()
	vals := []int{1, 2, 3}
	hs := make([]scene.Handle[int], len(vals))
	for i := range vals {
		hs[i] = a.Insert(&vals[i])
	}
	_, _ = a.Remove(hs[1])
	var seen []int
	a.Each(func(_ scene.Handle[int], v *int) { seen = append(seen, *v) })
	assert.Equal(t, []int{1, 3}, seen)
}

func TestLayer_Dedup(t *testing.T) {
	a := scene.NewArena[gpu.Painter]()
	h := a.Insert(&gpu.Painter{})
	l := scene.NewLayer("l")
	l.SetPainter(h)
	l.SetPainter(h)
	assert.Equal(t, 1, l.Len())
	l.UnsetPainter(h)
	l.UnsetPainter(h)
	assert.Equal(t, 0, l.Len())
}

func pointPainter(t *testing.T, ctx gpu.Context, name string, n int) *gpu.Painter {
	t.Helper()
	opts := shaders.DefaultPointOptions()
	opts.DrawMode = shaders.DrawSimple
	opts.Lightning = false
	program, err := shaders.NewPointProgram(ctx, opts)
	require.NoError(t, err)
	data, err := gpu.NewStructArray(n, gpu.Field{Name: "a_position", Type: gpu.Float32, Count: 3})
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		require.NoError(t, data.SetFloat32("a_position", i, float32(i), float32(-i), 1))
	}
	return gpu.NewPainter(ctx, name, program.ShaderProgram, gpu.Points, gpu.NewBuffer(ctx, data))
}

func newSceneWithLayer(t *testing.T, ctx *gputest.Context) (*scene.Scene, *scene.Layer, scene.Handle[scene.Layer]) {
	t.Helper()
	s := scene.New(ctx)
	layer := scene.NewLayer("main")
	lh := s.Layers.Insert(layer)
	s.SetLayer(lh)
	return s, layer, lh
}

func TestScene_RendersInOrder(t *testing.T) {
	ctx := gputest.New()
	s, layer, _ := newSceneWithLayer(t, ctx)
	layer.SetPainter(s.Painters.Insert(pointPainter(t, ctx, "a", 1)))
	layer.SetPainter(s.Painters.Insert(pointPainter(t, ctx, "b", 2)))

	require.NoError(t, s.Render(nil))
	assert.Equal(t, 1, ctx.Clears)
	require.Len(t, ctx.Draws, 2)
	assert.Equal(t, int32(1), ctx.Draws[0].Count)
	assert.Equal(t, int32(2), ctx.Draws[1].Count)
}

func TestScene_SkipsHidden(t *testing.T) {
	ctx := gputest.New()
	s, layer, _ := newSceneWithLayer(t, ctx)
	p := pointPainter(t, ctx, "a", 1)
	p.Visible = false
	layer.SetPainter(s.Painters.Insert(p))
	hidden := scene.NewLayer("hidden")
	hidden.Visible = false
	hidden.SetPainter(s.Painters.Insert(pointPainter(t, ctx, "b", 1)))
	s.SetLayer(s.Layers.Insert(hidden))

	require.NoError(t, s.Render(nil))
	assert.Empty(t, ctx.Draws)
}

func TestScene_IsolatesFailingPainter(t *testing.T) {
	ctx := gputest.New()
	s, layer, _ := newSceneWithLayer(t, ctx)

	broken := pointPainter(t, ctx, "broken", 1)
	v := broken.Program().Variant()
	v.Uniforms = append(v.Uniforms, "u_missing")
	broken.Program().SetVariant(v)

	layer.SetPainter(s.Painters.Insert(broken))
	layer.SetPainter(s.Painters.Insert(pointPainter(t, ctx, "ok", 3)))

	err := s.Render(nil)
	var ne *gpu.NameError
	require.ErrorAs(t, err, &ne)
	require.Len(t, ctx.Draws, 1)
	assert.Equal(t, int32(3), ctx.Draws[0].Count)
}

func TestScene_PrunesExpiredPainters(t *testing.T) {
	ctx := gputest.New()
	s, layer, _ := newSceneWithLayer(t, ctx)
	other := scene.NewLayer("other")
	s.SetLayer(s.Layers.Insert(other))

	h := s.Painters.Insert(pointPainter(t, ctx, "a", 1))
	layer.SetPainter(h)
	other.SetPainter(h)
	require.NoError(t, s.Render(nil))
	require.Len(t, ctx.Draws, 2)

	s.RemovePainter(h)
	require.NoError(t, s.Render(nil))
	assert.Len(t, ctx.Draws, 2)
	assert.False(t, layer.HasPainter(h))
	assert.False(t, other.HasPainter(h))
	assert.Empty(t, ctx.Buffers)
}

func TestScene_SetLayerMovesToEnd(t *testing.T) {
	ctx := gputest.New()
	s, _, first := newSceneWithLayer(t, ctx)
	second := s.Layers.Insert(scene.NewLayer("second"))
	s.SetLayer(second)
	s.SetLayer(first)
	assert.Equal(t, []scene.Handle[scene.Layer]{second, first}, s.ActiveLayers())

	s.RemoveLayer(second)
	require.NoError(t, s.Render(nil))
	assert.Equal(t, []scene.Handle[scene.Layer]{first}, s.ActiveLayers())
}

func TestScene_BBox(t *testing.T) {
	ctx := gputest.New()
	s, layer, _ := newSceneWithLayer(t, ctx)
	assert.Nil(t, s.BBox())
	layer.SetPainter(s.Painters.Insert(pointPainter(t, ctx, "a", 3)))
	box := s.BBox()
	require.NotNil(t, box)
	assert.Equal(t, float32(2), box.Max[0])
	assert.Equal(t, float32(-2), box.Min[1])
}

func TestScene_JoinsErrors(t *testing.T) {
	ctx := gputest.New()
	s, layer, _ := newSceneWithLayer(t, ctx)
	p := pointPainter(t, ctx, "a", 1)
	layer.SetPainter(s.Painters.Insert(p))
	boom := errors.New("boom")
	ctx.DrawError = boom
	assert.ErrorIs(t, s.Render(nil), boom)
}
