package gpu

import (
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/deferred/rt/shaders"
)

// StencilRenderPass marks the pixels whose scene surface sits inside at
// least one light volume. Both volume faces rasterize against scene
// depth with writes off: a front face behind the surface decrements,
// a back face behind the surface increments. Fragments that pass the
// depth test leave the stencil alone, so after the pass a pixel is
// nonzero exactly when some volume's back face lies behind the surface
// while its front face does not.
type StencilRenderPass struct {
	Pipeline     *wgpu.RenderPipeline
	TransformBGL *wgpu.BindGroupLayout
	Device       *wgpu.Device
}

func NewStencilRenderPass(device *wgpu.Device, transformBGL *wgpu.BindGroupLayout) (*StencilRenderPass, error) {
	shaderModule, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "StencilVolumeShader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.StencilWGSL},
	})
	if err != nil {
		return nil, err
	}

	pipelineLayout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		BindGroupLayouts: []*wgpu.BindGroupLayout{transformBGL},
	})
	if err != nil {
		return nil, err
	}

	pipeline, err := device.CreateRenderPipeline(stencilPipelineDescriptor(shaderModule, pipelineLayout))
	if err != nil {
		return nil, err
	}

	return &StencilRenderPass{
		Pipeline:     pipeline,
		TransformBGL: transformBGL,
		Device:       device,
	}, nil
}

func stencilPipelineDescriptor(module *wgpu.ShaderModule, layout *wgpu.PipelineLayout) *wgpu.RenderPipelineDescriptor {
	return &wgpu.RenderPipelineDescriptor{
		Label:  "StencilVolumePipeline",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers:    []wgpu.VertexBufferLayout{positionOnlyVertexLayout()},
		},
		// No fragment stage: the pass writes no color at all.
		Fragment: nil,
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			// Both faces must rasterize for the two-sided counting.
			CullMode: wgpu.CullModeNone,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            DepthFormat,
			DepthWriteEnabled: false,
			DepthCompare:      wgpu.CompareFunctionLessEqual,
			// Wrapping keeps the count correct regardless of the face
			// order within a volume: decrements may land before their
			// matching increments.
			StencilFront: wgpu.StencilFaceState{
				Compare:     wgpu.CompareFunctionAlways,
				FailOp:      wgpu.StencilOperationKeep,
				DepthFailOp: wgpu.StencilOperationDecrementWrap,
				PassOp:      wgpu.StencilOperationKeep,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare:     wgpu.CompareFunctionAlways,
				FailOp:      wgpu.StencilOperationKeep,
				DepthFailOp: wgpu.StencilOperationIncrementWrap,
				PassOp:      wgpu.StencilOperationKeep,
			},
			StencilReadMask:  0xFF,
			StencilWriteMask: 0xFF,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	}
}

// stencilPassDescriptor keeps the scene depth from the geometry pass
// and resets the stencil aspect for this frame's marking.
func stencilPassDescriptor(targets *FrameBufferSet) *wgpu.RenderPassDescriptor {
	return &wgpu.RenderPassDescriptor{
		Label: "StencilVolumePass",
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:              targets.Depth.View,
			DepthLoadOp:       wgpu.LoadOpLoad,
			DepthStoreOp:      wgpu.StoreOpStore,
			StencilLoadOp:     wgpu.LoadOpClear,
			StencilStoreOp:    wgpu.StoreOpStore,
			StencilClearValue: 0,
		},
	}
}

// Draw rasterizes the shared unit-sphere volume once per light, each
// with its own cell in the volume transform arena.
func (p *StencilRenderPass) Draw(pass *wgpu.RenderPassEncoder, volume *Mesh, transformBG *wgpu.BindGroup, volumes *uniformArena, count int) {
	pass.SetPipeline(p.Pipeline)
	pass.SetVertexBuffer(0, volume.VertexBuffer, 0, volume.VertexBuffer.GetSize())
	pass.SetIndexBuffer(volume.IndexBuffer, wgpu.IndexFormatUint16, 0, wgpu.WholeSize)
	for i := 0; i < count; i++ {
		pass.SetBindGroup(0, transformBG, []uint32{volumes.Offset(i)})
		pass.DrawIndexed(volume.IndexCount, 1, 0, 0, 0)
	}
}

func (p *StencilRenderPass) CreateTransformBindGroup(buffer *wgpu.Buffer) (*wgpu.BindGroup, error) {
	return p.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "VolumeTransformBG",
		Layout: p.TransformBGL,
		Entries: []wgpu.BindGroupEntry{
			{
				Binding: 0,
				Buffer:  buffer,
				Size:    uint64(unsafe.Sizeof(TransformBlock{})),
			},
		},
	})
}
