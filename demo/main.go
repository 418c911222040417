package main

import (
	"flag"
	"math"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/deferred/rt/app"
	"github.com/gekko3d/deferred/rt/assets"
	"github.com/gekko3d/deferred/rt/core"
)

func init() {
	runtime.LockOSThread()
}

var lightPalette = []mgl32.Vec3{
	{1, 0.2, 0.2},
	{0.2, 1, 0.2},
	{0.2, 0.4, 1},
	{1, 1, 0.3},
	{1, 0.3, 1},
	{0.3, 1, 1},
}

func buildScene(server *assets.Server, texturePath string, lightCount int) (*core.Scene, error) {
	scene := core.NewScene()

	var albedoId assets.AssetId
	if texturePath != "" {
		id, err := server.LoadTexturePNG(texturePath)
		if err != nil {
			return nil, err
		}
		albedoId = id
	} else {
		albedoId = server.AddTexture(core.Checkerboard(256, 256, 32,
			[4]uint8{220, 220, 220, 255}, [4]uint8{60, 60, 60, 255}))
	}
	albedo, _ := server.Texture(albedoId)

	sphereId := server.AddMesh(core.NewUVSphere(1, 32, 48))
	sphere, _ := server.Mesh(sphereId)
	scene.AddObject(&core.SceneObject{
		Name:      "Sphere",
		Mesh:      sphere,
		Albedo:    albedo,
		SpinSpeed: 0.4,
	})

	groundId := server.AddMesh(core.NewPlane(12))
	ground, _ := server.Mesh(groundId)
	groundTransform := core.NewTransform()
	groundTransform.Position = mgl32.Vec3{0, -1.2, 0}
	scene.AddObject(&core.SceneObject{
		Name:      "Ground",
		Mesh:      ground,
		Albedo:    albedo,
		Transform: groundTransform,
	})

	for i := 0; i < lightCount; i++ {
		phase := float32(i) / float32(lightCount) * 2 * math.Pi
		err := scene.AddLight(core.PointLight{
			Position: mgl32.Vec3{0, 0.4, 0},
			Radius:   1.6,
			Color:    lightPalette[i%len(lightPalette)],
		}, &core.Orbiting{
			Center: mgl32.Vec3{0, 0.4, 0},
			Radius: 1.4,
			Speed:  0.6 + 0.1*float32(i%3),
			Angle:  phase,
		})
		if err != nil {
			return nil, err
		}
	}

	return scene, nil
}

func main() {
	debug := flag.Bool("debug", false, "Log per-second FPS and draw light volume meshes")
	forward := flag.Bool("forward", false, "Use the single-pass forward pipeline")
	lights := flag.Int("lights", 3, "Number of orbiting point lights")
	texture := flag.String("texture", "", "PNG albedo texture (default: checkerboard)")
	flag.Parse()

	if err := glfw.Init(); err != nil {
		panic(err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	window, err := glfw.CreateWindow(1280, 720, "Deferred Go", nil, nil)
	if err != nil {
		panic(err)
	}
	defer window.Destroy()

	scene, err := buildScene(assets.NewServer(), *texture, *lights)
	if err != nil {
		panic(err)
	}

	application := app.NewApp(window, scene)
	application.Log = app.NewDefaultLogger("deferred", *debug)
	application.UseForward = *forward
	application.DrawVolumes = *debug
	if err := application.Init(); err != nil {
		panic(err)
	}
	defer application.Release()

	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		application.Resize(width, height)
	})

	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		switch key {
		case glfw.KeyEscape:
			w.SetShouldClose(true)
		case glfw.KeyF:
			application.UseForward = !application.UseForward
		case glfw.KeyV:
			application.DrawVolumes = !application.DrawVolumes
		}
	})

	for !window.ShouldClose() {
		glfw.PollEvents()
		application.Update()
		application.Render()
	}
}
