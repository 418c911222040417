package gpu

import (
	"testing"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/deferred/rt/core"
)

func testFrameBufferSet() *FrameBufferSet {
	return &FrameBufferSet{
		Albedo:    &renderTarget{View: &wgpu.TextureView{}},
		Normal:    &renderTarget{View: &wgpu.TextureView{}},
		Position:  &renderTarget{View: &wgpu.TextureView{}},
		Depth:     &renderTarget{View: &wgpu.TextureView{}},
		Composite: &renderTarget{View: &wgpu.TextureView{}},
		Width:     1280,
		Height:    720,
	}
}

func TestVertexLayouts(t *testing.T) {
	full := vertexBufferLayout()
	if full.ArrayStride != uint64(unsafe.Sizeof(core.Vertex{})) {
		t.Errorf("Expected stride %d, got %d", unsafe.Sizeof(core.Vertex{}), full.ArrayStride)
	}
	if len(full.Attributes) != 3 {
		t.Fatalf("Expected 3 attributes, got %d", len(full.Attributes))
	}
	wantOffsets := []uint64{0, 12, 24}
	wantFormats := []wgpu.VertexFormat{wgpu.VertexFormatFloat32x3, wgpu.VertexFormatFloat32x3, wgpu.VertexFormatFloat32x2}
	for i, attr := range full.Attributes {
		if attr.Offset != wantOffsets[i] {
			t.Errorf("Attribute %d: expected offset %d, got %d", i, wantOffsets[i], attr.Offset)
		}
		if attr.Format != wantFormats[i] {
			t.Errorf("Attribute %d: unexpected format", i)
		}
		if attr.ShaderLocation != uint32(i) {
			t.Errorf("Attribute %d: expected location %d, got %d", i, i, attr.ShaderLocation)
		}
	}

	posOnly := positionOnlyVertexLayout()
	if posOnly.ArrayStride != full.ArrayStride {
		t.Error("Position-only layout must stride over the full vertex")
	}
	if len(posOnly.Attributes) != 1 {
		t.Fatalf("Expected 1 attribute, got %d", len(posOnly.Attributes))
	}
	if posOnly.Attributes[0].Offset != 0 || posOnly.Attributes[0].ShaderLocation != 0 {
		t.Error("Position attribute must sit at offset 0, location 0")
	}
}

func TestGBufferPipelineState(t *testing.T) {
	desc := gbufferPipelineDescriptor(nil, nil)

	if len(desc.Fragment.Targets) != 3 {
		t.Fatalf("Expected 3 color targets, got %d", len(desc.Fragment.Targets))
	}
	if desc.Fragment.Targets[0].Format != AlbedoFormat {
		t.Error("Target 0 must be the albedo format")
	}
	if desc.Fragment.Targets[1].Format != NormalFormat {
		t.Error("Target 1 must be the normal format")
	}
	if desc.Fragment.Targets[2].Format != PositionFormat {
		t.Error("Target 2 must be the position format")
	}
	if desc.Primitive.CullMode != wgpu.CullModeBack {
		t.Error("Geometry pass culls back faces")
	}
	if desc.Primitive.FrontFace != wgpu.FrontFaceCCW {
		t.Error("Front faces wind counter-clockwise")
	}

	ds := desc.DepthStencil
	if !ds.DepthWriteEnabled {
		t.Error("Geometry pass must write depth")
	}
	if ds.DepthCompare != wgpu.CompareFunctionLessEqual {
		t.Error("Expected LessEqual depth compare")
	}
	for _, face := range []wgpu.StencilFaceState{ds.StencilFront, ds.StencilBack} {
		if face.Compare != wgpu.CompareFunctionAlways {
			t.Error("Geometry pass stencil must compare Always")
		}
		if face.FailOp != wgpu.StencilOperationKeep || face.DepthFailOp != wgpu.StencilOperationKeep || face.PassOp != wgpu.StencilOperationKeep {
			t.Error("Geometry pass stencil ops must all be Keep")
		}
	}
}

func TestStencilPipelineState(t *testing.T) {
	desc := stencilPipelineDescriptor(nil, nil)

	if desc.Fragment != nil {
		t.Error("Marking pipeline must not have a fragment stage")
	}
	if desc.Primitive.CullMode != wgpu.CullModeNone {
		t.Error("Both volume faces must rasterize")
	}

	ds := desc.DepthStencil
	if ds.DepthWriteEnabled {
		t.Error("Marking pass must not write depth")
	}
	if ds.DepthCompare != wgpu.CompareFunctionLessEqual {
		t.Error("Expected LessEqual depth compare")
	}
	if ds.StencilFront.DepthFailOp != wgpu.StencilOperationDecrementWrap {
		t.Error("Front faces must decrement with wrap on depth fail")
	}
	if ds.StencilBack.DepthFailOp != wgpu.StencilOperationIncrementWrap {
		t.Error("Back faces must increment with wrap on depth fail")
	}
	for _, face := range []wgpu.StencilFaceState{ds.StencilFront, ds.StencilBack} {
		if face.Compare != wgpu.CompareFunctionAlways {
			t.Error("Stencil test must pass everything, only depth results count")
		}
		if face.FailOp != wgpu.StencilOperationKeep || face.PassOp != wgpu.StencilOperationKeep {
			t.Error("Only the depth-fail op may touch the stencil")
		}
	}
	if ds.StencilReadMask != 0xFF || ds.StencilWriteMask != 0xFF {
		t.Error("Stencil masks must be fully open")
	}
}

func TestLightPipelineState(t *testing.T) {
	desc := lightPipelineDescriptor(nil, nil, wgpu.TextureFormatBGRA8Unorm)

	if len(desc.Fragment.Targets) != 1 {
		t.Fatalf("Expected 1 color target, got %d", len(desc.Fragment.Targets))
	}
	target := desc.Fragment.Targets[0]
	if target.Format != wgpu.TextureFormatBGRA8Unorm {
		t.Error("Light pass must render in the composite format")
	}
	blend := target.Blend
	if blend == nil {
		t.Fatal("Light pass must blend additively")
	}
	for _, comp := range []wgpu.BlendComponent{blend.Color, blend.Alpha} {
		if comp.Operation != wgpu.BlendOperationAdd || comp.SrcFactor != wgpu.BlendFactorOne || comp.DstFactor != wgpu.BlendFactorOne {
			t.Error("Expected One + One additive blending")
		}
	}

	if desc.Primitive.CullMode != wgpu.CullModeFront {
		t.Error("Light pass culls front faces so in-volume cameras still shade")
	}

	ds := desc.DepthStencil
	if ds.DepthWriteEnabled {
		t.Error("Light pass must not write depth")
	}
	if ds.DepthCompare != wgpu.CompareFunctionAlways {
		t.Error("Light pass must not depth test")
	}
	for _, face := range []wgpu.StencilFaceState{ds.StencilFront, ds.StencilBack} {
		if face.Compare != wgpu.CompareFunctionNotEqual {
			t.Error("Light pass shades only stencil != reference")
		}
		if face.FailOp != wgpu.StencilOperationKeep || face.DepthFailOp != wgpu.StencilOperationKeep || face.PassOp != wgpu.StencilOperationKeep {
			t.Error("Light pass must leave the stencil untouched")
		}
	}
}

func TestForwardPipelineState(t *testing.T) {
	desc := forwardPipelineDescriptor(nil, nil, wgpu.TextureFormatBGRA8Unorm)

	if desc.Fragment.Targets[0].Format != wgpu.TextureFormatBGRA8Unorm {
		t.Error("Forward pass must render in the composite format")
	}
	if desc.Fragment.Targets[0].Blend != nil {
		t.Error("Forward pass writes opaque color")
	}
	if !desc.DepthStencil.DepthWriteEnabled {
		t.Error("Forward pass must write depth")
	}
	if desc.Primitive.CullMode != wgpu.CullModeBack {
		t.Error("Forward pass culls back faces")
	}
}

func TestGBufferPassDescriptor(t *testing.T) {
	targets := testFrameBufferSet()
	desc := gbufferPassDescriptor(targets)

	if len(desc.ColorAttachments) != 3 {
		t.Fatalf("Expected 3 color attachments, got %d", len(desc.ColorAttachments))
	}
	wantViews := []*wgpu.TextureView{targets.Albedo.View, targets.Normal.View, targets.Position.View}
	for i, att := range desc.ColorAttachments {
		if att.View != wantViews[i] {
			t.Errorf("Attachment %d bound to the wrong target", i)
		}
		if att.LoadOp != wgpu.LoadOpClear || att.StoreOp != wgpu.StoreOpStore {
			t.Errorf("Attachment %d: expected clear+store", i)
		}
		if att.ClearValue != (wgpu.Color{R: 0, G: 0, B: 0, A: 0}) {
			t.Errorf("Attachment %d: expected transparent black clear", i)
		}
	}

	depth := desc.DepthStencilAttachment
	if depth.View != targets.Depth.View {
		t.Error("Depth attachment bound to the wrong target")
	}
	if depth.DepthLoadOp != wgpu.LoadOpClear || depth.DepthClearValue != 1.0 {
		t.Error("Depth must clear to the far plane")
	}
	if depth.DepthStoreOp != wgpu.StoreOpStore {
		t.Error("Scene depth must survive for the volume passes")
	}
}

func TestStencilPassDescriptor(t *testing.T) {
	targets := testFrameBufferSet()
	desc := stencilPassDescriptor(targets)

	if len(desc.ColorAttachments) != 0 {
		t.Error("Marking pass has no color attachments")
	}
	depth := desc.DepthStencilAttachment
	if depth.DepthLoadOp != wgpu.LoadOpLoad || depth.DepthStoreOp != wgpu.StoreOpStore {
		t.Error("Marking pass must keep the scene depth")
	}
	if depth.StencilLoadOp != wgpu.LoadOpClear || depth.StencilClearValue != 0 {
		t.Error("Stencil must restart from zero each frame")
	}
	if depth.StencilStoreOp != wgpu.StoreOpStore {
		t.Error("Marked stencil must survive into the light pass")
	}
}

func TestLightPassDescriptor(t *testing.T) {
	targets := testFrameBufferSet()
	desc := lightPassDescriptor(targets)

	if len(desc.ColorAttachments) != 1 {
		t.Fatalf("Expected 1 color attachment, got %d", len(desc.ColorAttachments))
	}
	att := desc.ColorAttachments[0]
	if att.View != targets.Composite.View {
		t.Error("Light pass must render into the composite target")
	}
	if att.LoadOp != wgpu.LoadOpClear || att.ClearValue != (wgpu.Color{R: 0, G: 0, B: 0, A: 1}) {
		t.Error("Composite must start from opaque black")
	}

	depth := desc.DepthStencilAttachment
	if depth.DepthLoadOp != wgpu.LoadOpLoad || depth.StencilLoadOp != wgpu.LoadOpLoad {
		t.Error("Light pass must read what the earlier passes stored")
	}
}

func TestForwardPassDescriptor(t *testing.T) {
	targets := testFrameBufferSet()
	desc := forwardPassDescriptor(targets)

	att := desc.ColorAttachments[0]
	if att.View != targets.Composite.View {
		t.Error("Forward pass must render into the composite target")
	}
	if att.LoadOp != wgpu.LoadOpClear || att.ClearValue != (wgpu.Color{R: 0, G: 0, B: 0, A: 1}) {
		t.Error("Composite must start from opaque black")
	}
	depth := desc.DepthStencilAttachment
	if depth.DepthLoadOp != wgpu.LoadOpClear || depth.DepthClearValue != 1.0 {
		t.Error("Forward pass owns the whole depth range")
	}
}

func TestGBufferFormats(t *testing.T) {
	if AlbedoFormat != wgpu.TextureFormatRGBA8Unorm {
		t.Error("Albedo stays in 8-bit unorm")
	}
	if NormalFormat != wgpu.TextureFormatRGBA16Float || PositionFormat != wgpu.TextureFormatRGBA16Float {
		t.Error("Normal and position need float precision")
	}
	if DepthFormat != wgpu.TextureFormatDepth24PlusStencil8 {
		t.Error("Depth target must carry a stencil aspect")
	}
}
