package gpu

import (
	"errors"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/deferred/rt/core"
)

// Mesh is the uploaded form of a core.Mesh.
type Mesh struct {
	VertexBuffer *wgpu.Buffer
	IndexBuffer  *wgpu.Buffer
	IndexCount   uint32
}

func UploadMesh(device *wgpu.Device, label string, m *core.Mesh) (*Mesh, error) {
	if len(m.Vertices) == 0 || len(m.Indices) == 0 {
		return nil, errors.New("mesh has no geometry")
	}
	vertexBuf, err := device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    label + " VB",
		Contents: wgpu.ToBytes(m.Vertices),
		Usage:    wgpu.BufferUsageVertex,
	})
	if err != nil {
		return nil, err
	}
	indexBuf, err := device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    label + " IB",
		Contents: wgpu.ToBytes(m.Indices),
		Usage:    wgpu.BufferUsageIndex,
	})
	if err != nil {
		vertexBuf.Release()
		return nil, err
	}
	return &Mesh{
		VertexBuffer: vertexBuf,
		IndexBuffer:  indexBuf,
		IndexCount:   uint32(len(m.Indices)),
	}, nil
}

func (m *Mesh) Release() {
	if m.VertexBuffer != nil {
		m.VertexBuffer.Release()
		m.VertexBuffer = nil
	}
	if m.IndexBuffer != nil {
		m.IndexBuffer.Release()
		m.IndexBuffer = nil
	}
}

// UploadTexture copies RGBA8 texels into a sampleable GPU texture and
// returns its view. The texture handle itself is dropped, the view
// keeps it alive.
func UploadTexture(device *wgpu.Device, queue *wgpu.Queue, label string, t *core.Texture) (*wgpu.TextureView, error) {
	if uint32(len(t.Texels)) != t.Width*t.Height*4 {
		return nil, errors.New("texel data does not match texture dimensions")
	}
	extent := wgpu.Extent3D{Width: t.Width, Height: t.Height, DepthOrArrayLayers: 1}
	tex, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Size:          extent,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatRGBA8Unorm,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	defer tex.Release()

	view, err := tex.CreateView(nil)
	if err != nil {
		return nil, err
	}

	err = queue.WriteTexture(
		tex.AsImageCopy(),
		t.Texels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  t.Width * 4,
			RowsPerImage: t.Height,
		},
		&extent,
	)
	if err != nil {
		view.Release()
		return nil, err
	}
	return view, nil
}
