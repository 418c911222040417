package gpu

import (
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/deferred/rt/shaders"
)

// LightRenderPass accumulates one additive Lambertian term per light
// into the composite target. The stencil test rejects every fragment
// the marking pass left at zero, so shading cost scales with lit
// pixels, not volume pixels.
type LightRenderPass struct {
	Pipeline   *wgpu.RenderPipeline
	TargetsBGL *wgpu.BindGroupLayout
	LightBGL   *wgpu.BindGroupLayout

	// TargetsBG references the live GBuffer views; Renderer rebuilds it
	// through BindTargets after every resize.
	TargetsBG *wgpu.BindGroup

	Device *wgpu.Device
}

func NewLightRenderPass(device *wgpu.Device, compositeFormat wgpu.TextureFormat) (*LightRenderPass, error) {
	shaderModule, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "LightAccumShader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.LightWGSL},
	})
	if err != nil {
		return nil, err
	}

	targetsBGL, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "LightTargetsBGL",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: uint64(unsafe.Sizeof(ScreenBlock{})),
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
					Multisampled:  false,
				},
			},
			{
				Binding:    2,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
					Multisampled:  false,
				},
			},
			{
				Binding:    3,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
					Multisampled:  false,
				},
			},
			{
				Binding:    4,
				Visibility: wgpu.ShaderStageFragment,
				Sampler: wgpu.SamplerBindingLayout{
					Type: wgpu.SamplerBindingTypeFiltering,
				},
			},
		},
	})
	if err != nil {
		return nil, err
	}

	lightBGL, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "LightParamsBGL",
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
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:             wgpu.BufferBindingTypeUniform,
					MinBindingSize:   uint64(unsafe.Sizeof(LightBlock{})),
					HasDynamicOffset: true,
				},
			},
		},
	})
	if err != nil {
		return nil, err
	}

	pipelineLayout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		BindGroupLayouts: []*wgpu.BindGroupLayout{
			targetsBGL,
			lightBGL,
		},
	})
	if err != nil {
		return nil, err
	}

	pipeline, err := device.CreateRenderPipeline(lightPipelineDescriptor(shaderModule, pipelineLayout, compositeFormat))
	if err != nil {
		return nil, err
	}

	return &LightRenderPass{
		Pipeline:   pipeline,
		TargetsBGL: targetsBGL,
		LightBGL:   lightBGL,
		Device:     device,
	}, nil
}

func lightPipelineDescriptor(module *wgpu.ShaderModule, layout *wgpu.PipelineLayout, compositeFormat wgpu.TextureFormat) *wgpu.RenderPipelineDescriptor {
	return &wgpu.RenderPipelineDescriptor{
		Label:  "LightAccumPipeline",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers:    []wgpu.VertexBufferLayout{positionOnlyVertexLayout()},
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    compositeFormat,
					WriteMask: wgpu.ColorWriteMaskAll,
					// Each light adds on top of the lights before it.
					Blend: &wgpu.BlendState{
						Color: wgpu.BlendComponent{
							Operation: wgpu.BlendOperationAdd,
							SrcFactor: wgpu.BlendFactorOne,
							DstFactor: wgpu.BlendFactorOne,
						},
						Alpha: wgpu.BlendComponent{
							Operation: wgpu.BlendOperationAdd,
							SrcFactor: wgpu.BlendFactorOne,
							DstFactor: wgpu.BlendFactorOne,
						},
					},
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			// Back faces survive even with the camera inside a volume.
			CullMode: wgpu.CullModeFront,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            DepthFormat,
			DepthWriteEnabled: false,
			DepthCompare:      wgpu.CompareFunctionAlways,
			StencilFront: wgpu.StencilFaceState{
				Compare:     wgpu.CompareFunctionNotEqual,
				FailOp:      wgpu.StencilOperationKeep,
				DepthFailOp: wgpu.StencilOperationKeep,
				PassOp:      wgpu.StencilOperationKeep,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare:     wgpu.CompareFunctionNotEqual,
				FailOp:      wgpu.StencilOperationKeep,
				DepthFailOp: wgpu.StencilOperationKeep,
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

// lightPassDescriptor starts the composite from opaque black and keeps
// both depth aspects: the stencil test reads what the marking pass
// stored.
func lightPassDescriptor(targets *FrameBufferSet) *wgpu.RenderPassDescriptor {
	return &wgpu.RenderPassDescriptor{
		Label: "LightAccumPass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       targets.Composite.View,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:           targets.Depth.View,
			DepthLoadOp:    wgpu.LoadOpLoad,
			DepthStoreOp:   wgpu.StoreOpStore,
			StencilLoadOp:  wgpu.LoadOpLoad,
			StencilStoreOp: wgpu.StoreOpStore,
		},
	}
}

// Draw accumulates every light, fragments gated on stencil != 0.
func (p *LightRenderPass) Draw(pass *wgpu.RenderPassEncoder, volume *Mesh, lightBG *wgpu.BindGroup, volumes, lights *uniformArena, count int) {
	pass.SetPipeline(p.Pipeline)
	pass.SetStencilReference(0)
	pass.SetBindGroup(0, p.TargetsBG, nil)
	pass.SetVertexBuffer(0, volume.VertexBuffer, 0, volume.VertexBuffer.GetSize())
	pass.SetIndexBuffer(volume.IndexBuffer, wgpu.IndexFormatUint16, 0, wgpu.WholeSize)
	for i := 0; i < count; i++ {
		pass.SetBindGroup(1, lightBG, []uint32{volumes.Offset(i), lights.Offset(i)})
		pass.DrawIndexed(volume.IndexCount, 1, 0, 0, 0)
	}
}

// BindTargets points group 0 at the current GBuffer views. Must run at
// startup and again whenever the FrameBufferSet is rebuilt.
func (p *LightRenderPass) BindTargets(screen *wgpu.Buffer, targets *FrameBufferSet, sampler *wgpu.Sampler) error {
	if p.TargetsBG != nil {
		p.TargetsBG.Release()
		p.TargetsBG = nil
	}
	bg, err := p.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "LightTargetsBG",
		Layout: p.TargetsBGL,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: screen, Size: uint64(unsafe.Sizeof(ScreenBlock{}))},
			{Binding: 1, TextureView: targets.Albedo.View},
			{Binding: 2, TextureView: targets.Normal.View},
			{Binding: 3, TextureView: targets.Position.View},
			{Binding: 4, Sampler: sampler},
		},
	})
	if err != nil {
		return err
	}
	p.TargetsBG = bg
	return nil
}

func (p *LightRenderPass) CreateLightBindGroup(volumeTransforms, lightParams *wgpu.Buffer) (*wgpu.BindGroup, error) {
	return p.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "LightParamsBG",
		Layout: p.LightBGL,
		Entries: []wgpu.BindGroupEntry{
			{
				Binding: 0,
				Buffer:  volumeTransforms,
				Size:    uint64(unsafe.Sizeof(TransformBlock{})),
			},
			{
				Binding: 1,
				Buffer:  lightParams,
				Size:    uint64(unsafe.Sizeof(LightBlock{})),
			},
		},
	})
}
