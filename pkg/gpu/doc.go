// Package gpu holds the GPU resource objects of the renderer: shader
// programs, vertex buffers, colormap textures and the Painter that ties them
// into one drawable unit.
//
// Every object is built with a Context, the handle of the GL context it lives
// in, and must only be touched on the thread where that context is current.
// Nothing in this package is safe for concurrent use.
package gpu
