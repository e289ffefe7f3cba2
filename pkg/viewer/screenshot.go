package viewer

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
)

var ErrNoFramebuffer = errors.New("viewer: framebuffer has no area")

// Screenshot renders a frame and reads it back before the buffers are
// swapped. Call it on the render thread, for example through Post.
func (w *Window) Screenshot() (*image.RGBA, error) {
	if w.width <= 0 || w.height <= 0 {
		return nil, ErrNoFramebuffer
	}
	if err := w.RenderFrame(); err != nil {
		return nil, err
	}
	pix := w.gl.ReadPixels(0, 0, int32(w.width), int32(w.height))
	if len(pix) != 4*w.width*w.height {
		return nil, fmt.Errorf("viewer: read %d bytes for %dx%d frame", len(pix), w.width, w.height)
	}
	img := image.NewRGBA(image.Rect(0, 0, w.width, w.height))
	row := 4 * w.width
	// GL rows start at the bottom.
	for y := 0; y < w.height; y++ {
		src := pix[(w.height-1-y)*row : (w.height-y)*row]
		copy(img.Pix[y*img.Stride:y*img.Stride+row], src)
	}
	return img, nil
}

func (w *Window) SaveScreenshot(path string) error {
	img, err := w.Screenshot()
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("viewer: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("viewer: encode %s: %w", path, err)
	}
	return f.Close()
}
