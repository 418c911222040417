package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/deferred/rt/core"
	"github.com/go-gl/mathgl/mgl32"
)

// objectArenaHeadroom is the slack added when the object transform
// arena has to grow, to avoid rebuilding it on every added object.
const objectArenaHeadroom = 16

// FrameContext carries per-frame camera and mode state into RenderFrame.
type FrameContext struct {
	View mgl32.Mat4
	Proj mgl32.Mat4

	// UseForward swaps the deferred chain for the single-pass forward
	// pipeline.
	UseForward bool

	// DrawVolumes rasterizes every light volume as visible geometry.
	DrawVolumes bool
}

// Renderer owns every GPU resource behind the deferred chain: the
// frame buffer set, the four passes, the uniform arenas and the
// uploaded scene geometry. One instance drives one surface.
type Renderer struct {
	Device *wgpu.Device
	Queue  *wgpu.Queue

	Targets *FrameBufferSet

	GBuffer *GBufferRenderPass
	Stencil *StencilRenderPass
	Light   *LightRenderPass
	Forward *ForwardRenderPass

	scene *core.Scene

	// Uniform storage. Object transforms grow with the scene, the
	// volume and light arenas are fixed at the light set cap.
	objectTransforms *uniformArena
	volumeTransforms *uniformArena
	lightParams      *uniformArena
	screenBuf        *wgpu.Buffer
	sceneLightsBuf   *wgpu.Buffer

	objectTransformBG *wgpu.BindGroup
	volumeTransformBG *wgpu.BindGroup
	lightBG           *wgpu.BindGroup

	// Uploaded geometry, keyed by the CPU-side data it came from.
	meshes    map[*core.Mesh]*Mesh
	materials map[*core.Texture]*wgpu.BindGroup

	materialViews []*wgpu.TextureView

	volumeMesh *Mesh
	whiteBG    *wgpu.BindGroup

	materialSampler *wgpu.Sampler
	gbufferSampler  *wgpu.Sampler
}

func NewRenderer(device *wgpu.Device, queue *wgpu.Queue, surfaceFormat wgpu.TextureFormat, width, height uint32, scene *core.Scene) (*Renderer, error) {
	r := &Renderer{
		Device:    device,
		Queue:     queue,
		scene:     scene,
		meshes:    make(map[*core.Mesh]*Mesh),
		materials: make(map[*core.Texture]*wgpu.BindGroup),
	}

	transformBGL, err := newTransformBindGroupLayout(device)
	if err != nil {
		return nil, fmt.Errorf("transform layout: %w", err)
	}
	materialBGL, err := newMaterialBindGroupLayout(device)
	if err != nil {
		return nil, fmt.Errorf("material layout: %w", err)
	}

	r.Targets, err = NewFrameBufferSet(device, width, height, surfaceFormat)
	if err != nil {
		return nil, err
	}

	r.GBuffer, err = NewGBufferRenderPass(device, transformBGL, materialBGL)
	if err != nil {
		return nil, fmt.Errorf("geometry pass: %w", err)
	}
	r.Stencil, err = NewStencilRenderPass(device, transformBGL)
	if err != nil {
		return nil, fmt.Errorf("stencil pass: %w", err)
	}
	r.Light, err = NewLightRenderPass(device, surfaceFormat)
	if err != nil {
		return nil, fmt.Errorf("light pass: %w", err)
	}
	r.Forward, err = NewForwardRenderPass(device, transformBGL, materialBGL, surfaceFormat)
	if err != nil {
		return nil, fmt.Errorf("forward pass: %w", err)
	}

	r.materialSampler, err = device.CreateSampler(&wgpu.SamplerDescriptor{
		MinFilter:     wgpu.FilterModeLinear,
		MagFilter:     wgpu.FilterModeLinear,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return nil, err
	}
	// GBuffer reads are 1:1 texel fetches, nothing to filter.
	r.gbufferSampler, err = device.CreateSampler(&wgpu.SamplerDescriptor{
		MinFilter:     wgpu.FilterModeNearest,
		MagFilter:     wgpu.FilterModeNearest,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return nil, err
	}

	// Shared unit sphere, scaled per light by its volume transform.
	r.volumeMesh, err = UploadMesh(device, "LightVolume", core.NewUVSphere(1, 16, 24))
	if err != nil {
		return nil, fmt.Errorf("volume mesh: %w", err)
	}

	whiteView, err := UploadTexture(device, queue, "White", core.Solid(1, 1, [4]uint8{255, 255, 255, 255}))
	if err != nil {
		return nil, fmt.Errorf("white texture: %w", err)
	}
	r.materialViews = append(r.materialViews, whiteView)
	r.whiteBG, err = r.GBuffer.CreateMaterialBindGroup(whiteView, r.materialSampler)
	if err != nil {
		return nil, err
	}

	r.screenBuf, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "ScreenParamsUB",
		Size:  uint64(len((&ScreenBlock{}).bytes())),
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	r.sceneLightsBuf, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "SceneLightsUB",
		Size:  uint64(len((&SceneLightsBlock{}).bytes())),
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}

	r.volumeTransforms, err = newUniformArena(device, "VolumeTransformArena", core.MaxLights)
	if err != nil {
		return nil, err
	}
	r.lightParams, err = newUniformArena(device, "LightParamArena", core.MaxLights)
	if err != nil {
		return nil, err
	}

	r.volumeTransformBG, err = r.Stencil.CreateTransformBindGroup(r.volumeTransforms.Buffer)
	if err != nil {
		return nil, err
	}
	r.lightBG, err = r.Light.CreateLightBindGroup(r.volumeTransforms.Buffer, r.lightParams.Buffer)
	if err != nil {
		return nil, err
	}
	if err := r.Light.BindTargets(r.screenBuf, r.Targets, r.gbufferSampler); err != nil {
		return nil, err
	}
	if err := r.Forward.CreateLightsBindGroup(r.sceneLightsBuf); err != nil {
		return nil, err
	}

	if err := r.syncScene(); err != nil {
		return nil, err
	}
	r.writeScreenParams()

	return r, nil
}

// syncScene uploads geometry for objects added since the last frame
// and grows the object transform arena when the scene outgrew it.
func (r *Renderer) syncScene() error {
	for _, obj := range r.scene.Objects {
		if obj.Mesh == nil {
			return fmt.Errorf("object %q has no mesh", obj.Name)
		}
		if _, ok := r.meshes[obj.Mesh]; !ok {
			m, err := UploadMesh(r.Device, obj.Name, obj.Mesh)
			if err != nil {
				return fmt.Errorf("upload mesh %q: %w", obj.Name, err)
			}
			r.meshes[obj.Mesh] = m
		}
		if obj.Albedo == nil {
			continue
		}
		if _, ok := r.materials[obj.Albedo]; !ok {
			view, err := UploadTexture(r.Device, r.Queue, obj.Name+" Albedo", obj.Albedo)
			if err != nil {
				return fmt.Errorf("upload texture for %q: %w", obj.Name, err)
			}
			r.materialViews = append(r.materialViews, view)
			bg, err := r.GBuffer.CreateMaterialBindGroup(view, r.materialSampler)
			if err != nil {
				return err
			}
			r.materials[obj.Albedo] = bg
		}
	}

	needed := uint32(len(r.scene.Objects))
	if needed == 0 {
		needed = 1
	}
	if r.objectTransforms != nil && r.objectTransforms.Slots >= needed {
		return nil
	}

	if r.objectTransforms != nil {
		r.objectTransforms.Release()
	}
	arena, err := newUniformArena(r.Device, "ObjectTransformArena", needed+objectArenaHeadroom)
	if err != nil {
		return err
	}
	r.objectTransforms = arena

	// The arena buffer changed; the bind group must follow.
	if r.objectTransformBG != nil {
		r.objectTransformBG.Release()
	}
	r.objectTransformBG, err = r.GBuffer.CreateTransformBindGroup(arena.Buffer)
	return err
}

func (r *Renderer) writeScreenParams() {
	block := ScreenBlock{Width: r.Targets.Width, Height: r.Targets.Height}
	r.Queue.WriteBuffer(r.screenBuf, 0, block.bytes())
}

// writeUniforms stores this frame's per-draw blocks, one arena cell
// per draw.
func (r *Renderer) writeUniforms(frame *FrameContext) {
	viewProj := frame.Proj.Mul4(frame.View)

	for i, obj := range r.scene.Objects {
		block := NewTransformBlock(viewProj, obj.Transform.ObjectToWorld())
		r.objectTransforms.Write(r.Queue, i, block.bytes())
	}

	lights := r.scene.Lights
	for i := 0; i < lights.Len(); i++ {
		volume := NewTransformBlock(viewProj, lights.VolumeTransform(i))
		r.volumeTransforms.Write(r.Queue, i, volume.bytes())

		light := NewLightBlock(lights.At(i))
		r.lightParams.Write(r.Queue, i, light.bytes())
	}

	if frame.UseForward {
		var sl SceneLightsBlock
		sl.Count[0] = uint32(lights.Len())
		for i := 0; i < lights.Len(); i++ {
			sl.Lights[i] = NewLightBlock(lights.At(i))
		}
		r.Queue.WriteBuffer(r.sceneLightsBuf, 0, sl.bytes())
	}
}

func (r *Renderer) buildDrawItems(frame *FrameContext) []DrawItem {
	items := make([]DrawItem, 0, len(r.scene.Objects)+r.scene.Lights.Len())
	for i, obj := range r.scene.Objects {
		material := r.whiteBG
		if obj.Albedo != nil {
			material = r.materials[obj.Albedo]
		}
		items = append(items, DrawItem{
			Mesh:            r.meshes[obj.Mesh],
			TransformBG:     r.objectTransformBG,
			TransformOffset: r.objectTransforms.Offset(i),
			MaterialBG:      material,
		})
	}
	if frame.DrawVolumes {
		for i := 0; i < r.scene.Lights.Len(); i++ {
			items = append(items, DrawItem{
				Mesh:            r.volumeMesh,
				TransformBG:     r.volumeTransformBG,
				TransformOffset: r.volumeTransforms.Offset(i),
				MaterialBG:      r.whiteBG,
			})
		}
	}
	return items
}

// RenderFrame encodes the whole frame and submits it in one go: the
// only queue submission per frame. The caller presents the surface
// afterwards.
func (r *Renderer) RenderFrame(frame *FrameContext, surface *wgpu.Texture) error {
	if err := r.syncScene(); err != nil {
		return err
	}
	r.writeUniforms(frame)

	encoder, err := r.Device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("command encoder: %w", err)
	}

	items := r.buildDrawItems(frame)
	lightCount := r.scene.Lights.Len()

	if frame.UseForward {
		pass := encoder.BeginRenderPass(forwardPassDescriptor(r.Targets))
		r.Forward.Draw(pass, items)
		if err := pass.End(); err != nil {
			return fmt.Errorf("forward pass: %w", err)
		}
	} else {
		gPass := encoder.BeginRenderPass(gbufferPassDescriptor(r.Targets))
		r.GBuffer.Draw(gPass, items)
		if err := gPass.End(); err != nil {
			return fmt.Errorf("geometry pass: %w", err)
		}

		sPass := encoder.BeginRenderPass(stencilPassDescriptor(r.Targets))
		r.Stencil.Draw(sPass, r.volumeMesh, r.volumeTransformBG, r.volumeTransforms, lightCount)
		if err := sPass.End(); err != nil {
			return fmt.Errorf("stencil pass: %w", err)
		}

		lPass := encoder.BeginRenderPass(lightPassDescriptor(r.Targets))
		r.Light.Draw(lPass, r.volumeMesh, r.lightBG, r.volumeTransforms, r.lightParams, lightCount)
		if err := lPass.End(); err != nil {
			return fmt.Errorf("light pass: %w", err)
		}
	}

	encoder.CopyTextureToTexture(
		r.Targets.Composite.Texture.AsImageCopy(),
		surface.AsImageCopy(),
		&wgpu.Extent3D{Width: r.Targets.Width, Height: r.Targets.Height, DepthOrArrayLayers: 1},
	)

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("encoder finish: %w", err)
	}
	r.Queue.Submit(cmd)
	return nil
}

// Resize rebuilds the frame buffer set at the new surface size and
// repoints everything that referenced the old textures.
func (r *Renderer) Resize(width, height uint32) error {
	if width == r.Targets.Width && height == r.Targets.Height {
		return nil
	}
	if err := r.Targets.Resize(width, height); err != nil {
		return err
	}
	if err := r.Light.BindTargets(r.screenBuf, r.Targets, r.gbufferSampler); err != nil {
		return err
	}
	r.writeScreenParams()
	return nil
}

func (r *Renderer) Release() {
	for _, m := range r.meshes {
		m.Release()
	}
	r.meshes = nil
	for _, v := range r.materialViews {
		v.Release()
	}
	r.materialViews = nil
	if r.volumeMesh != nil {
		r.volumeMesh.Release()
		r.volumeMesh = nil
	}
	if r.objectTransforms != nil {
		r.objectTransforms.Release()
	}
	r.volumeTransforms.Release()
	r.lightParams.Release()
	if r.screenBuf != nil {
		r.screenBuf.Release()
		r.screenBuf = nil
	}
	if r.sceneLightsBuf != nil {
		r.sceneLightsBuf.Release()
		r.sceneLightsBuf = nil
	}
	r.Targets.Release()
}
