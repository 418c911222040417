package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

const (
	// AlbedoFormat keeps base color in 8 bits per channel; values never
	// leave [0,1].
	AlbedoFormat = wgpu.TextureFormatRGBA8Unorm
	// NormalFormat and PositionFormat need float targets: directions
	// have negative components and world coordinates exceed [0,1].
	NormalFormat   = wgpu.TextureFormatRGBA16Float
	PositionFormat = wgpu.TextureFormatRGBA16Float
	DepthFormat    = wgpu.TextureFormatDepth24PlusStencil8
)

// renderTarget couples a texture with its whole-texture view.
type renderTarget struct {
	Texture *wgpu.Texture
	View    *wgpu.TextureView
}

func newRenderTarget(device *wgpu.Device, label string, width, height uint32, format wgpu.TextureFormat, usage wgpu.TextureUsage) (*renderTarget, error) {
	tex, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Size:          wgpu.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return nil, err
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, err
	}
	return &renderTarget{Texture: tex, View: view}, nil
}

func (t *renderTarget) release() {
	if t == nil {
		return
	}
	if t.View != nil {
		t.View.Release()
		t.View = nil
	}
	if t.Texture != nil {
		t.Texture.Release()
		t.Texture = nil
	}
}

// FrameBufferSet owns the GBuffer attachments and the composite target.
// All five textures share the surface dimensions at all times; Resize
// replaces the whole set in one step so no frame ever sees a mix of
// old and new sizes.
type FrameBufferSet struct {
	Albedo    *renderTarget
	Normal    *renderTarget
	Position  *renderTarget
	Depth     *renderTarget
	Composite *renderTarget

	Width  uint32
	Height uint32

	device          *wgpu.Device
	compositeFormat wgpu.TextureFormat
}

func NewFrameBufferSet(device *wgpu.Device, width, height uint32, compositeFormat wgpu.TextureFormat) (*FrameBufferSet, error) {
	f := &FrameBufferSet{device: device, compositeFormat: compositeFormat}
	if err := f.create(width, height); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *FrameBufferSet) create(width, height uint32) error {
	gbufferUsage := wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding

	var err error
	f.Albedo, err = newRenderTarget(f.device, "GBuffer Albedo", width, height, AlbedoFormat, gbufferUsage)
	if err != nil {
		return fmt.Errorf("albedo target: %w", err)
	}
	f.Normal, err = newRenderTarget(f.device, "GBuffer Normal", width, height, NormalFormat, gbufferUsage)
	if err != nil {
		f.Release()
		return fmt.Errorf("normal target: %w", err)
	}
	f.Position, err = newRenderTarget(f.device, "GBuffer Position", width, height, PositionFormat, gbufferUsage)
	if err != nil {
		f.Release()
		return fmt.Errorf("position target: %w", err)
	}
	f.Depth, err = newRenderTarget(f.device, "GBuffer Depth", width, height, DepthFormat, wgpu.TextureUsageRenderAttachment)
	if err != nil {
		f.Release()
		return fmt.Errorf("depth target: %w", err)
	}
	f.Composite, err = newRenderTarget(f.device, "Composite", width, height, f.compositeFormat,
		wgpu.TextureUsageRenderAttachment|wgpu.TextureUsageCopySrc)
	if err != nil {
		f.Release()
		return fmt.Errorf("composite target: %w", err)
	}

	f.Width = width
	f.Height = height
	return nil
}

// Resize drops the old target set and creates a fresh one at the given
// size. No-op when the dimensions are unchanged.
func (f *FrameBufferSet) Resize(width, height uint32) error {
	if width == f.Width && height == f.Height {
		return nil
	}
	f.Release()
	return f.create(width, height)
}

func (f *FrameBufferSet) Release() {
	f.Albedo.release()
	f.Normal.release()
	f.Position.release()
	f.Depth.release()
	f.Composite.release()
	f.Albedo, f.Normal, f.Position, f.Depth, f.Composite = nil, nil, nil, nil, nil
	f.Width, f.Height = 0, 0
}
