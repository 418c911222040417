package gpu

import (
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/deferred/rt/shaders"
)

// GBufferRenderPass rasterizes scene geometry into the albedo, normal
// and world-position attachments and lays down scene depth.
type GBufferRenderPass struct {
	Pipeline     *wgpu.RenderPipeline
	TransformBGL *wgpu.BindGroupLayout
	MaterialBGL  *wgpu.BindGroupLayout
	Device       *wgpu.Device
}

func NewGBufferRenderPass(device *wgpu.Device, transformBGL, materialBGL *wgpu.BindGroupLayout) (*GBufferRenderPass, error) {
	shaderModule, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "GBufferShader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.GBufferWGSL},
	})
	if err != nil {
		return nil, err
	}

	pipelineLayout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		BindGroupLayouts: []*wgpu.BindGroupLayout{
			transformBGL,
			materialBGL,
		},
	})
	if err != nil {
		return nil, err
	}

	pipeline, err := device.CreateRenderPipeline(gbufferPipelineDescriptor(shaderModule, pipelineLayout))
	if err != nil {
		return nil, err
	}

	return &GBufferRenderPass{
		Pipeline:     pipeline,
		TransformBGL: transformBGL,
		MaterialBGL:  materialBGL,
		Device:       device,
	}, nil
}

func gbufferPipelineDescriptor(module *wgpu.ShaderModule, layout *wgpu.PipelineLayout) *wgpu.RenderPipelineDescriptor {
	return &wgpu.RenderPipelineDescriptor{
		Label:  "GBufferPipeline",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers:    []wgpu.VertexBufferLayout{vertexBufferLayout()},
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{Format: AlbedoFormat, WriteMask: wgpu.ColorWriteMaskAll},
				{Format: NormalFormat, WriteMask: wgpu.ColorWriteMaskAll},
				{Format: PositionFormat, WriteMask: wgpu.ColorWriteMaskAll},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeBack,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            DepthFormat,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionLessEqual,
			StencilFront:      disabledStencilFace(),
			StencilBack:       disabledStencilFace(),
			StencilReadMask:   0xFF,
			StencilWriteMask:  0xFF,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	}
}

// gbufferPassDescriptor clears every attachment: the GBuffer holds no
// cross-frame state.
func gbufferPassDescriptor(targets *FrameBufferSet) *wgpu.RenderPassDescriptor {
	return &wgpu.RenderPassDescriptor{
		Label: "GBufferPass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       targets.Albedo.View,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 0},
			},
			{
				View:       targets.Normal.View,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 0},
			},
			{
				View:       targets.Position.View,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 0},
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:              targets.Depth.View,
			DepthLoadOp:       wgpu.LoadOpClear,
			DepthStoreOp:      wgpu.StoreOpStore,
			DepthClearValue:   1.0,
			StencilLoadOp:     wgpu.LoadOpClear,
			StencilStoreOp:    wgpu.StoreOpStore,
			StencilClearValue: 0,
		},
	}
}

func (p *GBufferRenderPass) Draw(pass *wgpu.RenderPassEncoder, items []DrawItem) {
	pass.SetPipeline(p.Pipeline)
	for _, it := range items {
		pass.SetBindGroup(0, it.TransformBG, []uint32{it.TransformOffset})
		pass.SetBindGroup(1, it.MaterialBG, nil)
		pass.SetVertexBuffer(0, it.Mesh.VertexBuffer, 0, it.Mesh.VertexBuffer.GetSize())
		pass.SetIndexBuffer(it.Mesh.IndexBuffer, wgpu.IndexFormatUint16, 0, wgpu.WholeSize)
		pass.DrawIndexed(it.Mesh.IndexCount, 1, 0, 0, 0)
	}
}

func (p *GBufferRenderPass) CreateTransformBindGroup(buffer *wgpu.Buffer) (*wgpu.BindGroup, error) {
	return p.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "ObjectTransformBG",
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

func (p *GBufferRenderPass) CreateMaterialBindGroup(view *wgpu.TextureView, sampler *wgpu.Sampler) (*wgpu.BindGroup, error) {
	return p.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "MaterialBG",
		Layout: p.MaterialBGL,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: view},
			{Binding: 1, Sampler: sampler},
		},
	})
}
