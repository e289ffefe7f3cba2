package viewer

import (
	"context"
	"log/slog"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/kjkrol/flowvis/internal/platform"
	"github.com/kjkrol/flowvis/pkg/camera"
	"github.com/kjkrol/flowvis/pkg/geom"
	"github.com/kjkrol/flowvis/pkg/gpu"
	"github.com/kjkrol/flowvis/pkg/scene"
	"github.com/kjkrol/flowvis/pkg/shaders"
)

type WindowConfig struct {
	ClearColor [4]float32
	Camera     camera.Config
	RefreshFPS int
}

var DefaultClearColor = [4]float32{1, 1, 1, 1}

// Window ties a platform surface to a scene and a camera. Everything except
// Post and Stop must be called on the thread running ListenEvents.
type Window struct {
	platformWinWrapper platform.PlatformWindowWrapper
	gl                 gpu.Context
	scene              *scene.Scene
	camera             *camera.Camera
	crosshair          *gpu.Painter
	clearColor         [4]float32
	initialized        bool
	dirty              bool
	animating          bool
	refreshDelay       time.Duration
	width              int
	height             int
	wg                 sync.WaitGroup
	ctx                context.Context
	cancel             context.CancelFunc

	updates chan func()
}

const maxEventWait = 50 * time.Millisecond

func NewWindow(conf WindowConfig, wrapper platform.PlatformWindowWrapper, gl gpu.Context) *Window {
	if wrapper == nil {
		panic("platform window wrapper is required")
	}
	w := &Window{
		platformWinWrapper: wrapper,
		gl:                 gl,
		scene:              scene.New(gl),
		camera:             camera.New(conf.Camera),
		clearColor:         conf.ClearColor,
		updates:            make(chan func(), 1024),
		dirty:              true,
	}
	if w.clearColor == ([4]float32{}) {
		w.clearColor = DefaultClearColor
	}
	w.width, w.height = wrapper.FramebufferSize()
	w.camera.Resize(w.width, w.height)
	w.RefreshRate(conf.RefreshFPS)
	w.ctx, w.cancel = context.WithCancel(context.Background())
	return w
}

func (w *Window) Scene() *scene.Scene {
	return w.scene
}

func (w *Window) Camera() *camera.Camera {
	return w.camera
}

func (w *Window) GL() gpu.Context {
	return w.gl
}

func (w *Window) Size() (int, int) {
	return w.width, w.height
}

func (w *Window) Show() {
	w.platformWinWrapper.Show()
}

func (w *Window) RefreshRate(fps int) {
	if fps <= 0 {
		fps = 60
	}
	ms := int(math.Abs(float64(1000.0 / fps)))
	w.refreshDelay = time.Duration(ms) * time.Millisecond
}

func (w *Window) SetClearColor(c [4]float32) {
	w.clearColor = c
	w.RenderLater()
}

// SetLayer activates a layer, moving it to the top when already active.
func (w *Window) SetLayer(h scene.Handle[scene.Layer]) {
	w.scene.SetLayer(h)
	w.RenderLater()
}

func (w *Window) UnsetLayer(h scene.Handle[scene.Layer]) {
	w.scene.UnsetLayer(h)
	w.RenderLater()
}

// SetBBox sets the bounds framed by the frame key.
func (w *Window) SetBBox(b *geom.BBox) {
	w.camera.SetBBox(b)
}

// RenderLater schedules a redraw on the next frame tick.
func (w *Window) RenderLater() {
	w.dirty = true
}

// SetAnimating keeps redrawing every frame while on.
func (w *Window) SetAnimating(on bool) {
	w.animating = on
	if on {
		w.RenderLater()
	}
}

func (w *Window) NeedsRender() bool {
	return w.dirty || w.animating
}

// Post queues fn to run on the render thread before the next frame. It is
// safe to call from any goroutine and reports false when the queue is full.
func (w *Window) Post(fn func()) bool {
	select {
	case w.updates <- fn:
		return true
	default:
		return false
	}
}

// Initialise sets up GL state. It runs once, on the first frame.
func (w *Window) Initialise() {
	if w.initialized {
		return
	}
	w.gl.ClearColor(w.clearColor)
	w.gl.Enable(gpu.CapProgramPointSize)
	w.gl.Enable(gpu.CapDepthTest)
	w.crosshair = shaders.NewCrosshairPainter(w.gl)
	w.camera.Center(w.camera.BBox())
	w.initialized = true
	w.dirty = true
}

// RenderFrame draws the scene and, while the camera is being dragged, the
// crosshair. Painter failures are logged by the scene and returned joined.
func (w *Window) RenderFrame() error {
	w.Initialise()
	w.gl.Viewport(0, 0, int32(w.width), int32(w.height))
	w.gl.ClearColor(w.clearColor)
	err := w.scene.Render(w.camera)
	if w.camera.Interacting() {
		if cerr := w.crosshair.Render(nil); cerr != nil {
			slog.Error("render crosshair", "err", cerr)
		}
	}
	w.dirty = false
	return err
}

// HandleEvent applies camera interaction and resize events. Keys 1 to 9
// toggle the active layers. It reports whether the event changed the view.
func (w *Window) HandleEvent(event Event) bool {
	switch e := event.(type) {
	case MotionNotify:
		w.camera.MouseMove(float32(e.X), float32(e.Y), convertButtons(e.Buttons), convertMods(e.Mods))
	case ButtonRelease:
		w.camera.MouseMove(float32(e.X), float32(e.Y), 0, 0)
	case MouseWheel:
		w.camera.Wheel(float32(e.DeltaX), float32(e.DeltaY), convertMods(e.Mods))
	case KeyPress:
		switch e.Label {
		case "t", "T":
			w.camera.Key(camera.KeyResetRotation)
		case "u", "U":
			w.camera.Key(camera.KeyFrameBounds)
		case "1", "2", "3", "4", "5", "6", "7", "8", "9":
			if !w.ToggleLayer(int(e.Label[0] - '1')) {
				return false
			}
		default:
			return false
		}
	case Resize:
		w.width, w.height = e.Width, e.Height
		w.camera.Resize(e.Width, e.Height)
	case Expose:
	case DestroyNotify:
		w.Stop()
		return false
	default:
		return false
	}
	w.RenderLater()
	return true
}

// ToggleLayer shows or hides the i-th active layer, counting from 0 in draw
// order. It reports whether such a layer exists.
func (w *Window) ToggleLayer(i int) bool {
	active := w.scene.ActiveLayers()
	if i < 0 || i >= len(active) {
		return false
	}
	l, err := w.scene.Layers.Get(active[i])
	if err != nil {
		return false
	}
	l.ToggleVisibility()
	w.RenderLater()
	return true
}

func convertButtons(b platform.Buttons) camera.Buttons {
	var out camera.Buttons
	if b&platform.LeftHeld != 0 {
		out |= camera.ButtonPrimary
	}
	if b&platform.RightHeld != 0 {
		out |= camera.ButtonSecondary
	}
	if b&platform.MiddleHeld != 0 {
		out |= camera.ButtonMiddle
	}
	return out
}

func convertMods(m platform.Modifiers) camera.Modifiers {
	var out camera.Modifiers
	if m&platform.ModShift != 0 {
		out |= camera.ModShift
	}
	if m&platform.ModControl != 0 {
		out |= camera.ModControl
	}
	if m&platform.ModAlt != 0 {
		out |= camera.ModAlt
	}
	return out
}

func (w *Window) Stop() {
	w.cancel()
}

// Close releases the crosshair and every painter left in the scene, then
// the platform window.
func (w *Window) Close() {
	if w.crosshair != nil {
		w.crosshair.Delete()
		w.crosshair = nil
	}
	w.scene.Painters.Each(func(h scene.Handle[gpu.Painter], _ *gpu.Painter) {
		w.scene.RemovePainter(h)
	})
	w.platformWinWrapper.Close()
}

// ListenEvents runs the event loop until Stop. Each event goes through
// HandleEvent and then to handleEvent, which may be nil. Queued updates run
// right before a frame is drawn.
func (w *Window) ListenEvents(handleEvent func(event Event), strategy EventsConsumerStrategy) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	delay := w.refreshDelay
	if delay == 0 {
		delay = time.Second / 60
	}
	if strategy == nil {
		strategy = DrainAll()
	}
	poll := func(timeoutMs int) (Event, bool) {
		platformEvent := w.platformWinWrapper.NextEventTimeout(timeoutMs)
		if _, ok := platformEvent.(platform.TimeoutEvent); ok {
			return nil, false
		}
		return platformEvent, true
	}
	handle := func(e Event) {
		w.HandleEvent(e)
		if handleEvent != nil {
			handleEvent(e)
		}
	}

	nextRender := time.Now().Add(delay)

	for {
		select {
		case <-w.ctx.Done():
			w.wg.Wait()
			return
		default:
			now := time.Now()
			timeout := nextRender.Sub(now)
			if timeout < 0 {
				timeout = 0
			}
			if timeout > maxEventWait {
				timeout = maxEventWait
			}

			timeoutMs := int(timeout / time.Millisecond)
			if timeout > 0 && timeoutMs == 0 {
				timeoutMs = 1
			}

			strategy.Consume(poll, handle, timeoutMs)

			now = time.Now()
			if !now.Before(nextRender) {
				w.runUpdates()
				if w.NeedsRender() {
					w.platformWinWrapper.MakeCurrent()
					if err := w.RenderFrame(); err != nil {
						slog.Debug("frame rendered with errors", "err", err)
					}
					w.platformWinWrapper.SwapBuffers()
				}
				nextRender = now.Add(delay)
			}
		}
	}
}

func (w *Window) runUpdates() {
	for {
		select {
		case upd := <-w.updates:
			upd()
		default:
			return
		}
	}
}

func (w *Window) StartAnimation(animation *Animation) {
	animation.Run(w.ctx, &w.wg, w.updates)
}

// Spin returns an animation that turns the model about the vertical axis
// at degPerSec.
func (w *Window) Spin(degPerSec float32) *Animation {
	return NewAnimation(w.refreshDelay, func(dt time.Duration) {
		angle := mgl32.DegToRad(degPerSec * float32(dt.Seconds()))
		w.camera.Rotation = w.camera.Rotation.Mul(mgl32.QuatRotate(angle, mgl32.Vec3{0, 1, 0}))
		w.RenderLater()
	})
}
