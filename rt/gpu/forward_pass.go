package gpu

import (
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/deferred/rt/shaders"
)

// ForwardRenderPass shades geometry against the whole light set in a
// single pass. It exists as a reference image for the deferred path:
// both render the same scene into the same composite target.
type ForwardRenderPass struct {
	Pipeline     *wgpu.RenderPipeline
	TransformBGL *wgpu.BindGroupLayout
	MaterialBGL  *wgpu.BindGroupLayout
	LightsBGL    *wgpu.BindGroupLayout

	// LightsBG binds the packed scene light array, set once through
	// CreateLightsBindGroup.
	LightsBG *wgpu.BindGroup

	Device *wgpu.Device
}

func NewForwardRenderPass(device *wgpu.Device, transformBGL, materialBGL *wgpu.BindGroupLayout, compositeFormat wgpu.TextureFormat) (*ForwardRenderPass, error) {
	shaderModule, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "ForwardShader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.ForwardWGSL},
	})
	if err != nil {
		return nil, err
	}

	lightsBGL, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "SceneLightsBGL",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: uint64(unsafe.Sizeof(SceneLightsBlock{})),
				},
			},
		},
	})
	if err != nil {
		return nil, err
	}

	pipelineLayout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		BindGroupLayouts: []*wgpu.BindGroupLayout{
			transformBGL,
			materialBGL,
			lightsBGL,
		},
	})
	if err != nil {
		return nil, err
	}

	pipeline, err := device.CreateRenderPipeline(forwardPipelineDescriptor(shaderModule, pipelineLayout, compositeFormat))
	if err != nil {
		return nil, err
	}

	return &ForwardRenderPass{
		Pipeline:     pipeline,
		TransformBGL: transformBGL,
		MaterialBGL:  materialBGL,
		LightsBGL:    lightsBGL,
		Device:       device,
	}, nil
}

func forwardPipelineDescriptor(module *wgpu.ShaderModule, layout *wgpu.PipelineLayout, compositeFormat wgpu.TextureFormat) *wgpu.RenderPipelineDescriptor {
	return &wgpu.RenderPipelineDescriptor{
		Label:  "ForwardPipeline",
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
				{Format: compositeFormat, WriteMask: wgpu.ColorWriteMaskAll},
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

func forwardPassDescriptor(targets *FrameBufferSet) *wgpu.RenderPassDescriptor {
	return &wgpu.RenderPassDescriptor{
		Label: "ForwardPass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       targets.Composite.View,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
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

func (p *ForwardRenderPass) Draw(pass *wgpu.RenderPassEncoder, items []DrawItem) {
	pass.SetPipeline(p.Pipeline)
	pass.SetBindGroup(2, p.LightsBG, nil)
	for _, it := range items {
		pass.SetBindGroup(0, it.TransformBG, []uint32{it.TransformOffset})
		pass.SetBindGroup(1, it.MaterialBG, nil)
		pass.SetVertexBuffer(0, it.Mesh.VertexBuffer, 0, it.Mesh.VertexBuffer.GetSize())
		pass.SetIndexBuffer(it.Mesh.IndexBuffer, wgpu.IndexFormatUint16, 0, wgpu.WholeSize)
		pass.DrawIndexed(it.Mesh.IndexCount, 1, 0, 0, 0)
	}
}

func (p *ForwardRenderPass) CreateLightsBindGroup(lights *wgpu.Buffer) error {
	if p.LightsBG != nil {
		p.LightsBG.Release()
		p.LightsBG = nil
	}
	bg, err := p.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "SceneLightsBG",
		Layout: p.LightsBGL,
		Entries: []wgpu.BindGroupEntry{
			{
				Binding: 0,
				Buffer:  lights,
				Size:    uint64(unsafe.Sizeof(SceneLightsBlock{})),
			},
		},
	})
	if err != nil {
		return err
	}
	p.LightsBG = bg
	return nil
}
