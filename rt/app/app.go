package app

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/gekko3d/deferred/rt/core"
	"github.com/gekko3d/deferred/rt/gpu"
)

// App owns the WebGPU device, the presentable surface and the deferred
// renderer behind it. All methods must be called from the thread that
// owns the glfw window.
type App struct {
	Window   *glfw.Window
	Instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Queue    *wgpu.Queue
	Surface  *wgpu.Surface
	Config   *wgpu.SurfaceConfiguration

	Renderer *gpu.Renderer
	Scene    *core.Scene
	Camera   *core.Camera

	Log      Logger
	Profiler *Profiler

	// UseForward selects the single-pass forward pipeline instead of
	// the deferred chain.
	UseForward bool
	// DrawVolumes rasterizes the light volume spheres as scene
	// geometry, for eyeballing volume placement.
	DrawVolumes bool

	lastTime float64
	fps      fpsCounter
}

func NewApp(window *glfw.Window, scene *core.Scene) *App {
	return &App{
		Window:   window,
		Scene:    scene,
		Camera:   core.NewCamera(),
		Log:      NewNopLogger(),
		Profiler: NewProfiler(),
	}
}

// Init brings up the GPU stack: instance, surface, adapter, device,
// queue, surface configuration and the renderer. Any failure here is
// unrecoverable and must abort the program.
func (a *App) Init() error {
	a.Instance = wgpu.CreateInstance(nil)

	a.Surface = a.Instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(a.Window))

	adapter, err := a.Instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: a.Surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return fmt.Errorf("request adapter: %w", err)
	}
	a.Adapter = adapter

	a.Device, err = adapter.RequestDevice(nil)
	if err != nil {
		return fmt.Errorf("request device: %w", err)
	}
	a.Queue = a.Device.GetQueue()

	width, height := a.Window.GetFramebufferSize()
	caps := a.Surface.GetCapabilities(adapter)
	format := caps.Formats[0]

	// CopyDst: the composite target is copied into the surface texture
	// at the end of every frame.
	a.Config = &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageCopyDst,
		Format:      format,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}
	a.Surface.Configure(adapter, a.Device, a.Config)

	a.Renderer, err = gpu.NewRenderer(a.Device, a.Queue, format, uint32(width), uint32(height), a.Scene)
	if err != nil {
		return fmt.Errorf("renderer: %w", err)
	}

	a.Log.Infof("initialized %dx%d, surface format %v", width, height, format)
	a.lastTime = glfw.GetTime()
	return nil
}

// Resize reconfigures the surface and rebuilds every sized render
// target in one step. Zero-area sizes (minimized window) are ignored.
func (a *App) Resize(w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	a.Config.Width = uint32(w)
	a.Config.Height = uint32(h)
	a.Surface.Configure(a.Adapter, a.Device, a.Config)
	if err := a.Renderer.Resize(uint32(w), uint32(h)); err != nil {
		a.Log.Errorf("resize to %dx%d: %v", w, h, err)
		return
	}
	a.Log.Debugf("resized to %dx%d", w, h)
}

// Update advances scene animation by the wall-clock delta since the
// previous call.
func (a *App) Update() {
	now := glfw.GetTime()
	dt := now - a.lastTime
	a.lastTime = now

	a.Profiler.BeginScope("Update")
	a.Scene.Update(float32(dt))
	a.Profiler.EndScope("Update")
}

// Render acquires the surface texture, encodes and submits one frame,
// and presents. A failed surface acquire skips the frame; the next
// frame retries (resize reconfiguration usually heals it).
func (a *App) Render() {
	surfaceTex, err := a.Surface.GetCurrentTexture()
	if err != nil {
		a.Log.Errorf("acquire surface texture: %v", err)
		return
	}
	defer surfaceTex.Release()

	frame := buildFrameContext(a.Camera, a.Config.Width, a.Config.Height, a.UseForward, a.DrawVolumes)

	a.Profiler.BeginScope("Render")
	err = a.Renderer.RenderFrame(&frame, surfaceTex)
	a.Profiler.EndScope("Render")
	if err != nil {
		a.Log.Errorf("render frame: %v", err)
		return
	}

	a.Surface.Present()

	a.Profiler.SetCount("Lights", a.Scene.Lights.Len())
	a.Profiler.SetCount("Objects", len(a.Scene.Objects))
	if fps, updated := a.fps.tick(glfw.GetTime()); updated && a.Log.DebugEnabled() {
		a.Log.Debugf("%.1f fps\n%s", fps, a.Profiler.GetStatsString())
	}
	a.Profiler.Reset()
}

func (a *App) Release() {
	if a.Renderer != nil {
		a.Renderer.Release()
		a.Renderer = nil
	}
}

// buildFrameContext derives the per-frame matrices from the camera and
// the current drawable size.
func buildFrameContext(cam *core.Camera, width, height uint32, forward, volumes bool) gpu.FrameContext {
	aspect := float32(0)
	if height != 0 {
		aspect = float32(width) / float32(height)
	}
	return gpu.FrameContext{
		View:        cam.ViewMatrix(),
		Proj:        cam.ProjMatrix(aspect),
		UseForward:  forward,
		DrawVolumes: volumes,
	}
}

// fpsCounter averages frame counts over one-second windows.
type fpsCounter struct {
	lastTime float64
	elapsed  float64
	frames   int
	fps      float64
}

func (c *fpsCounter) tick(now float64) (fps float64, updated bool) {
	if c.lastTime > 0 {
		c.frames++
		c.elapsed += now - c.lastTime
		if c.elapsed >= 1.0 {
			c.fps = float64(c.frames) / c.elapsed
			c.frames = 0
			c.elapsed = 0
			updated = true
		}
	}
	c.lastTime = now
	return c.fps, updated
}
