package viewer_test

import (
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindow_ScreenshotReadsClearedFrame(t *testing.T) {
	w, wrapper, ctx := newTestWindow(t)
	w.SetClearColor([4]float32{1, 0, 0, 1})

	img, err := w.Screenshot()
	require.NoError(t, err)
	assert.Equal(t, 800, img.Bounds().Dx())
	assert.Equal(t, 600, img.Bounds().Dy())
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, img.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, img.RGBAAt(799, 599))
	assert.Equal(t, 1, ctx.Calls["ReadPixels"])
	assert.Zero(t, wrapper.swaps)
}

func TestWindow_SaveScreenshotWritesPNG(t *testing.T) {
	w, _, _ := newTestWindow(t)
	path := filepath.Join(t.TempDir(), "shot.png")
	require.NoError(t, w.SaveScreenshot(path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 800, img.Bounds().Dx())
}
