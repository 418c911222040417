package gpu

import (
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/deferred/rt/core"
)

// vertexBufferLayout describes core.Vertex: position, normal, uv.
func vertexBufferLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: uint64(unsafe.Sizeof(core.Vertex{})),
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
			{Format: wgpu.VertexFormatFloat32x2, Offset: 24, ShaderLocation: 2},
		},
	}
}

// positionOnlyVertexLayout strides over the full core.Vertex but feeds
// only the position attribute. The volume passes share mesh buffers
// with the geometry pass and ignore the rest.
func positionOnlyVertexLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: uint64(unsafe.Sizeof(core.Vertex{})),
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
		},
	}
}

// disabledStencilFace passes every fragment and touches nothing.
func disabledStencilFace() wgpu.StencilFaceState {
	return wgpu.StencilFaceState{
		Compare:     wgpu.CompareFunctionAlways,
		FailOp:      wgpu.StencilOperationKeep,
		DepthFailOp: wgpu.StencilOperationKeep,
		PassOp:      wgpu.StencilOperationKeep,
	}
}

// newTransformBindGroupLayout is the shared group layout for per-draw
// transforms, bound with a dynamic offset into a uniform arena.
func newTransformBindGroupLayout(device *wgpu.Device) (*wgpu.BindGroupLayout, error) {
	return device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "TransformBGL",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex,
				Buffer: wgpu.BufferBindingLayout{
					Type:             wgpu.BufferBindingTypeUniform,
					MinBindingSize:   uint64(unsafe.Sizeof(TransformBlock{})),
					HasDynamicOffset: true,
				},
			},
		},
	})
}

// newMaterialBindGroupLayout is the shared group layout for a base
// color texture with its sampler.
func newMaterialBindGroupLayout(device *wgpu.Device) (*wgpu.BindGroupLayout, error) {
	return device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "MaterialBGL",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
					Multisampled:  false,
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageFragment,
				Sampler: wgpu.SamplerBindingLayout{
					Type: wgpu.SamplerBindingTypeFiltering,
				},
			},
		},
	})
}

// DrawItem pairs an uploaded mesh with its transform arena cell and
// the material to sample.
type DrawItem struct {
	Mesh            *Mesh
	TransformBG     *wgpu.BindGroup
	TransformOffset uint32
	MaterialBG      *wgpu.BindGroup
}
