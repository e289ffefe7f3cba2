package nodes_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/kjkrol/flowvis/internal/platform"
	"github.com/kjkrol/flowvis/pkg/flow"
	"github.com/kjkrol/flowvis/pkg/geom"
	"github.com/kjkrol/flowvis/pkg/gpu"
	"github.com/kjkrol/flowvis/pkg/gpu/gputest"
	"github.com/kjkrol/flowvis/pkg/nodes"
	"github.com/kjkrol/flowvis/pkg/scene"
	"github.com/kjkrol/flowvis/pkg/shaders"
	"github.com/kjkrol/flowvis/pkg/viewer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubWrapper struct{}

func (stubWrapper) Show()                               {}
func (stubWrapper) Close()                              {}
func (stubWrapper) NextEventTimeout(int) platform.Event { return platform.TimeoutEvent{} }
func (stubWrapper) MakeCurrent()                        {}
func (stubWrapper) SwapBuffers()                        {}
func (stubWrapper) FramebufferSize() (int, int)         { return 800, 600 }

type fixture struct {
	ctx   *gputest.Context
	win   *viewer.Window
	graph *flow.Graph
	env   nodes.Env
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := gputest.New()
	win := viewer.NewWindow(viewer.WindowConfig{}, stubWrapper{}, ctx)
	return &fixture{ctx: ctx, win: win, graph: flow.New(), env: nodes.Env{Scene: win.Scene(), Window: win}}
}

func (f *fixture) add(t *testing.T, kind, name string) flow.Node {
	t.Helper()
	n, err := nodes.New(kind, name, f.env)
	require.NoError(t, err)
	require.NoError(t, f.graph.Add(n))
	return n
}

func (f *fixture) connect(t *testing.T, src, srcTerm, dst, dstTerm string) {
	t.Helper()
	require.NoError(t, f.graph.Connect(src, srcTerm, dst, dstTerm))
}

// sphereChart wires sphere -> points -> layer -> window.
func sphereChart(t *testing.T, count int) (*fixture, *nodes.PointPainter, *nodes.Layer) {
	t.Helper()
	f := newFixture(t)
	f.add(t, "Sphere", "sphere")
	require.NoError(t, f.graph.SetControl("sphere", "count", count))
	points := f.add(t, "PointPainter", "points").(*nodes.PointPainter)
	layer := f.add(t, "Layer", "layer").(*nodes.Layer)
	f.add(t, "Window", "window")
	f.connect(t, "sphere", "a_position", "points", "a_position")
	f.connect(t, "sphere", "a_normal", "points", "a_normal")
	f.connect(t, "points", "out", "layer", "painters")
	f.connect(t, "layer", "out", "window", "layers")
	f.connect(t, "points", "bbox", "window", "bbox")
	return f, points, layer
}

func TestChart_SphereRendersEndToEnd(t *testing.T) {
	f, points, layer := sphereChart(t, 50)
	require.NoError(t, f.graph.Process(context.Background()))

	assert.True(t, layer.Layer().HasPainter(points.Handle()))
	assert.Equal(t, []scene.Handle[scene.Layer]{layer.Handle()}, f.win.Scene().ActiveLayers())
	require.NotNil(t, f.win.Camera().BBox())
	assert.InDelta(t, 1.0, f.win.Camera().BBox().Max[1], 1e-6)

	require.NoError(t, f.win.RenderFrame())
	require.Len(t, f.ctx.Draws, 1)
	assert.Equal(t, gpu.Points, f.ctx.Draws[0].Mode)
	assert.Equal(t, int32(50), f.ctx.Draws[0].Count)
}

func TestPointPainter_MissingPositionDrawsNothing(t *testing.T) {
	f := newFixture(t)
	points := f.add(t, "PointPainter", "points").(*nodes.PointPainter)

	err := f.graph.Process(context.Background())
	var ie *flow.InputError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "a_position", ie.Terminal)
	assert.False(t, points.Painter().Buffer().HasData())
	assert.Nil(t, f.graph.Outputs("points"))
}

func TestPointPainter_PositionAloneIsEnough(t *testing.T) {
	f := newFixture(t)
	f.add(t, "Sphere", "sphere")
	points := f.add(t, "PointPainter", "points").(*nodes.PointPainter)
	layer := f.add(t, "Layer", "layer").(*nodes.Layer)
	f.add(t, "Window", "window")
	f.connect(t, "sphere", "a_position", "points", "a_position")
	f.connect(t, "points", "out", "layer", "painters")
	f.connect(t, "layer", "out", "window", "layers")
	require.NoError(t, f.graph.Process(context.Background()))

	assert.Equal(t, nodes.DefaultPointNodeOptions(), points.Options())
	assert.True(t, layer.Layer().HasPainter(points.Handle()))
	require.NoError(t, f.win.RenderFrame())
	require.Len(t, f.ctx.Draws, 1)
	v, _ := f.ctx.Uniform(points.Painter().Program().Handle(), "u_color")
	assert.Equal(t, [4]float32(nodes.PointNodeColor), v)
}

func TestPointPainter_ShaderAttributeMustBeConnected(t *testing.T) {
	f := newFixture(t)
	f.add(t, "Sphere", "sphere")
	f.add(t, "PointPainter", "points")
	f.connect(t, "sphere", "a_position", "points", "a_position")
	require.NoError(t, f.graph.SetControl("points", "draw_mode", "oriented_disk"))

	err := f.graph.Process(context.Background())
	var ie *flow.InputError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "a_normal", ie.Terminal, "oriented disks need normals")

	require.NoError(t, f.graph.SetControl("points", "draw_mode", "simple"))
	require.NoError(t, f.graph.Process(context.Background()))
}

func TestPointPainter_BBoxClip(t *testing.T) {
	f, points, _ := sphereChart(t, 100)
	f.add(t, "BBox", "clip")
	require.NoError(t, f.graph.SetControl("clip", "points", "-2 0 -2, 2 2 2"))
	f.connect(t, "clip", "bbox", "points", "bbox_clip")
	require.NoError(t, f.graph.Process(context.Background()))

	n := points.Painter().Buffer().Len()
	assert.Greater(t, n, 0)
	assert.Less(t, n, 100)
	assert.GreaterOrEqual(t, points.Painter().BBox().Min[1], float32(0))
}

func TestPointPainter_ControlsRebuildOrUpload(t *testing.T) {
	f, points, _ := sphereChart(t, 10)
	require.NoError(t, f.graph.Process(context.Background()))
	require.NoError(t, f.win.RenderFrame())
	program := points.Painter().Program()
	require.True(t, program.Initialized())
	gen := program.Generation()

	require.NoError(t, f.graph.SetControl("points", "point_size", 10.0))
	v, ok := f.ctx.Uniform(program.Handle(), "u_point_size")
	require.True(t, ok)
	assert.Equal(t, float32(10), v)
	assert.True(t, program.Initialized(), "uniform only controls do not rebuild")

	require.NoError(t, f.graph.SetControl("points", "color", "#ff0000"))
	v, _ = f.ctx.Uniform(program.Handle(), "u_color")
	assert.Equal(t, [4]float32{1, 0, 0, 1}, v)

	require.NoError(t, f.graph.SetControl("points", "draw_mode", "disk"))
	assert.False(t, program.Initialized())
	assert.Equal(t, shaders.DrawDisk, points.Options().DrawMode)
	require.NoError(t, f.win.RenderFrame())
	assert.Greater(t, program.Generation(), gen)

	assert.ErrorIs(t, f.graph.SetControl("points", "point_size", 500), flow.ErrBadControl)
	assert.Error(t, f.graph.SetControl("points", "draw_mode", "square"))
	assert.ErrorIs(t, f.graph.SetControl("points", "bogus", 1), flow.ErrBadControl)
}

func TestPointPainter_GradientFeedsColorMap(t *testing.T) {
	f := newFixture(t)
	points := f.add(t, "PointPainter", "points").(*nodes.PointPainter)
	require.NoError(t, f.graph.SetControl("points", "gradient", []any{"0 #000000", "1 #ff0000"}))
	img := points.Painter().ColorMap().Image()
	require.Len(t, img, 3*gpu.DefaultColorMapWidth)
	assert.Equal(t, []byte{255, 0, 0}, img[len(img)-3:])

	assert.Error(t, f.graph.SetControl("points", "gradient", "nope"))
}

func TestRemovingPainterNodeClearsLayer(t *testing.T) {
	f, points, layer := sphereChart(t, 10)
	require.NoError(t, f.graph.Process(context.Background()))
	h := points.Handle()

	require.NoError(t, f.graph.Remove("points"))
	assert.False(t, layer.Layer().HasPainter(h))
	assert.False(t, f.win.Scene().Painters.Contains(h))

	require.NoError(t, f.graph.Process(context.Background()))
	require.NoError(t, f.win.RenderFrame())
	assert.Empty(t, f.ctx.Draws)
}

func TestWindowNode_DisconnectUnsetsLayer(t *testing.T) {
	f, _, _ := sphereChart(t, 10)
	require.NoError(t, f.graph.Process(context.Background()))
	require.Len(t, f.win.Scene().ActiveLayers(), 1)

	require.NoError(t, f.graph.Disconnect("layer", "out", "window", "layers"))
	assert.Empty(t, f.win.Scene().ActiveLayers())
}

func TestWindowNode_ClipControls(t *testing.T) {
	f, _, _ := sphereChart(t, 10)
	require.NoError(t, f.graph.SetControl("window", "near_clip", 1))
	require.NoError(t, f.graph.SetControl("window", "far_clip", 200))
	require.NoError(t, f.graph.SetControl("window", "fov", 45))
	require.NoError(t, f.graph.Process(context.Background()))

	cam := f.win.Camera()
	assert.Equal(t, float32(1), cam.Near)
	assert.Equal(t, float32(200), cam.Far)
	assert.Equal(t, float32(45), cam.FOV)
	assert.Error(t, f.graph.SetControl("window", "fov", 120))
}

func TestWindowNode_WithoutWindowFails(t *testing.T) {
	n := nodes.NewWindow("w", nil)
	_, err := n.Process(context.Background(), flow.Inputs{})
	assert.ErrorIs(t, err, nodes.ErrNoWindow)
}

func TestLayerNode_RenameFollowsNode(t *testing.T) {
	f, _, layer := sphereChart(t, 10)
	require.NoError(t, f.graph.Rename("layer", "cloud"))
	assert.Equal(t, "cloud", layer.Layer().Name)
}

func TestLayerNode_DisconnectAfterUpstreamRename(t *testing.T) {
	f, points, layer := sphereChart(t, 10)
	require.NoError(t, f.graph.Process(context.Background()))
	h := points.Handle()
	require.True(t, layer.Layer().HasPainter(h))

	require.NoError(t, f.graph.Rename("points", "cloud"))
	require.NoError(t, f.graph.Disconnect("cloud", "out", "layer", "painters"))
	assert.False(t, layer.Layer().HasPainter(h))

	require.NoError(t, f.graph.Process(context.Background()))
	require.NoError(t, f.win.RenderFrame())
	assert.Empty(t, f.ctx.Draws)
}

func TestWindowNode_DisconnectAfterUpstreamRename(t *testing.T) {
	f, _, _ := sphereChart(t, 10)
	require.NoError(t, f.graph.Process(context.Background()))
	require.NoError(t, f.graph.Rename("layer", "cloud"))
	require.NoError(t, f.graph.Disconnect("cloud", "out", "window", "layers"))
	assert.Empty(t, f.win.Scene().ActiveLayers())
}

func TestLayerNode_ProcessDropsPaintersNoLongerSent(t *testing.T) {
	s := scene.New(gputest.New())
	layer := nodes.NewLayer("layer", s)
	a := s.Painters.Insert(&gpu.Painter{})
	b := s.Painters.Insert(&gpu.Painter{})

	_, err := layer.Process(context.Background(), flow.Inputs{nodes.TermPainters: map[string]any{"a": a, "b": b}})
	require.NoError(t, err)
	assert.Equal(t, []scene.Handle[gpu.Painter]{a, b}, layer.Layer().Painters())

	_, err = layer.Process(context.Background(), flow.Inputs{nodes.TermPainters: map[string]any{"b": b}})
	require.NoError(t, err)
	assert.Equal(t, []scene.Handle[gpu.Painter]{b}, layer.Layer().Painters())

	_, err = layer.Process(context.Background(), flow.Inputs{nodes.TermPainters: map[string]any{"b": "nope"}})
	var inputErr *flow.InputError
	assert.ErrorAs(t, err, &inputErr)
}

func TestLinePainter_InterleavesSegments(t *testing.T) {
	f := newFixture(t)
	lines := f.add(t, "LinePainter", "lines").(*nodes.LinePainter)
	f.add(t, "Sphere", "sphere")
	f.add(t, "LineSource", "spokes")
	require.NoError(t, f.graph.SetControl("sphere", "count", 4))
	require.NoError(t, f.graph.SetControl("spokes", "length", 0.5))
	f.connect(t, "sphere", "a_position", "spokes", "a_position")
	f.connect(t, "sphere", "a_normal", "spokes", "a_normal")
	f.connect(t, "spokes", "start", "lines", "start")
	f.connect(t, "spokes", "end", "lines", "end")
	require.NoError(t, f.graph.Process(context.Background()))

	data := lines.Painter().Buffer().Data()
	require.Equal(t, 8, data.Len())
	start, err := data.Float32("a_position", 0)
	require.NoError(t, err)
	end, err := data.Float32("a_position", 1)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, mgl32.Vec3(start).Len(), 1e-5)
	assert.InDelta(t, 1.5, mgl32.Vec3(end).Len(), 1e-5)

	require.NoError(t, f.graph.SetControl("lines", "wrap_mode", "clamp_to_edge"))
	assert.Equal(t, gpu.WrapClampToEdge, lines.Painter().ColorMap().WrapMode())
}

func TestLinePainter_RequiresEnds(t *testing.T) {
	f := newFixture(t)
	lines := f.add(t, "LinePainter", "lines")
	_, err := lines.Process(context.Background(), flow.Inputs{"start": []mgl32.Vec3{{0, 0, 0}}})
	var ie *flow.InputError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "end", ie.Terminal)

	_, err = lines.Process(context.Background(), flow.Inputs{
		"start": []mgl32.Vec3{{0, 0, 0}},
		"end":   []mgl32.Vec3{{0, 0, 0}, {1, 1, 1}},
	})
	require.ErrorAs(t, err, &ie)
}

func TestTrianglePainter_Wireframe(t *testing.T) {
	f := newFixture(t)
	f.add(t, "TriangleSource", "hexagon")
	f.add(t, "TrianglePainter", "mesh")
	f.add(t, "Layer", "layer")
	f.add(t, "Window", "window")
	f.connect(t, "hexagon", "triangles", "mesh", "triangles")
	f.connect(t, "hexagon", "normals", "mesh", "normals")
	f.connect(t, "mesh", "out", "layer", "painters")
	f.connect(t, "layer", "out", "window", "layers")
	require.NoError(t, f.graph.SetControl("mesh", "wireframe", true))
	require.NoError(t, f.graph.Process(context.Background()))

	require.NoError(t, f.win.RenderFrame())
	require.Len(t, f.ctx.Draws, 1)
	assert.Equal(t, gpu.Triangles, f.ctx.Draws[0].Mode)
	assert.Equal(t, int32(18), f.ctx.Draws[0].Count)
	assert.Equal(t, gpu.PolygonLine, f.ctx.Draws[0].Polygon)
	assert.Equal(t, gpu.PolygonFill, f.ctx.Polygon)

	assert.Error(t, f.graph.SetControl("mesh", "color_mode", "texture"))
}

func TestTrianglePainter_RejectsPartialTriangle(t *testing.T) {
	f := newFixture(t)
	mesh := f.add(t, "TrianglePainter", "mesh")
	_, err := mesh.Process(context.Background(), flow.Inputs{"triangles": []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}}})
	var ie *flow.InputError
	assert.ErrorAs(t, err, &ie)
}

func TestBBoxNode_Mask(t *testing.T) {
	n := nodes.NewBBox("box")
	require.NoError(t, n.SetControl("points", "0 0 0, 1 1 1"))
	out, err := n.Process(context.Background(), flow.Inputs{"points": []mgl32.Vec3{{0.5, 0.5, 0.5}, {2, 0, 0}}})
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false}, out["idx"])
	assert.IsType(t, &geom.BBox{}, out["bbox"])

	out, err = n.Process(context.Background(), flow.Inputs{})
	require.NoError(t, err)
	assert.NotContains(t, out, "idx")
	assert.Error(t, n.SetControl("points", "0 0, 1"))
}

func TestPointSource_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cloud.xyz")
	content := "# x y z nx ny nz\n0 0 0 0 0 1\n\n1 1 2 0 1 0\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	n := nodes.NewPointSource("cloud")
	require.NoError(t, n.SetControl("path", path))
	out, err := n.Process(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []mgl32.Vec3{{0, 0, 0}, {1, 1, 2}}, out["a_position"])
	assert.Equal(t, []mgl32.Vec3{{0, 0, 1}, {0, 1, 0}}, out["a_normal"])
	assert.Equal(t, []float32{0, 1}, out["a_intensity"])
}

func TestPointSource_Errors(t *testing.T) {
	n := nodes.NewPointSource("cloud")
	_, err := n.Process(context.Background(), nil)
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.xyz")
	require.NoError(t, os.WriteFile(path, []byte("0 0\n"), 0o644))
	require.NoError(t, n.SetControl("path", path))
	_, err = n.Process(context.Background(), nil)
	assert.ErrorContains(t, err, "bad.xyz:1")
}

func TestSphere_PointsOnSurface(t *testing.T) {
	n := nodes.NewSphere("s")
	require.NoError(t, n.SetControl("radius", 2))
	require.NoError(t, n.SetControl("count", 20))
	out, err := n.Process(context.Background(), nil)
	require.NoError(t, err)
	pos := out["a_position"].([]mgl32.Vec3)
	require.Len(t, pos, 20)
	for _, p := range pos {
		assert.InDelta(t, 2.0, p.Len(), 1e-5)
	}
	assert.Error(t, n.SetControl("count", 0))
}

func TestRegistry(t *testing.T) {
	assert.Contains(t, nodes.Kinds(), "PointPainter")
	_, err := nodes.New("Teapot", "t", nodes.Env{})
	assert.ErrorIs(t, err, flow.ErrUnknownType)
	_, err = nodes.New("Layer", "l", nodes.Env{})
	assert.Error(t, err)
}
