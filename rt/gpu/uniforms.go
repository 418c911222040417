package gpu

import (
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/deferred/rt/core"
	"github.com/go-gl/mathgl/mgl32"
)

// uniformSlot is the stride between dynamic offsets inside a uniform
// arena. 256 matches minUniformBufferOffsetAlignment on the adapters
// we target.
const uniformSlot = 256

// TransformBlock matches the WGSL struct of the same name.
type TransformBlock struct {
	MVP    mgl32.Mat4
	Model  mgl32.Mat4
	Normal mgl32.Mat4
}

// LightBlock matches the WGSL PointLight struct. PositionRadius packs
// the world position in xyz and the volume radius in w.
type LightBlock struct {
	PositionRadius mgl32.Vec4
	Color          mgl32.Vec4
}

// ScreenBlock matches the WGSL ScreenParams struct.
type ScreenBlock struct {
	Width  uint32
	Height uint32
	Pad0   uint32
	Pad1   uint32
}

// SceneLightsBlock matches the WGSL SceneLights struct of the forward
// shader. Count[0] holds the live light count.
type SceneLightsBlock struct {
	Count  [4]uint32
	Lights [core.MaxLights]LightBlock
}

func NewTransformBlock(viewProj, model mgl32.Mat4) TransformBlock {
	return TransformBlock{
		MVP:    viewProj.Mul4(model),
		Model:  model,
		Normal: core.NormalMatrix(model),
	}
}

func NewLightBlock(l *core.PointLight) LightBlock {
	return LightBlock{
		PositionRadius: l.Position.Vec4(l.Radius),
		Color:          l.Color.Vec4(0),
	}
}

func (b *TransformBlock) bytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(b)), int(unsafe.Sizeof(*b)))
}

func (b *LightBlock) bytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(b)), int(unsafe.Sizeof(*b)))
}

func (b *ScreenBlock) bytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(b)), int(unsafe.Sizeof(*b)))
}

func (b *SceneLightsBlock) bytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(b)), int(unsafe.Sizeof(*b)))
}

// uniformArena is a fixed-capacity uniform buffer sliced into
// uniformSlot-sized cells addressed with dynamic offsets. Per-draw
// values each get their own cell: queue writes land before the command
// buffer executes, so rewriting a single cell between draws would feed
// every draw the last value written.
type uniformArena struct {
	Buffer *wgpu.Buffer
	Slots  uint32
}

func newUniformArena(device *wgpu.Device, label string, slots uint32) (*uniformArena, error) {
	buf, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  uint64(slots) * uniformSlot,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	return &uniformArena{Buffer: buf, Slots: slots}, nil
}

// Offset returns the dynamic offset of cell i.
func (a *uniformArena) Offset(i int) uint32 {
	return uint32(i) * uniformSlot
}

// Write stores one block into cell i.
func (a *uniformArena) Write(queue *wgpu.Queue, i int, data []byte) {
	queue.WriteBuffer(a.Buffer, uint64(a.Offset(i)), data)
}

func (a *uniformArena) Release() {
	if a.Buffer != nil {
		a.Buffer.Release()
		a.Buffer = nil
	}
}
