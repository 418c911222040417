package shaders

import (
	_ "embed"
)

//go:embed gbuffer.wgsl
var GBufferWGSL string

//go:embed stencil.wgsl
var StencilWGSL string

//go:embed light.wgsl
var LightWGSL string

//go:embed forward.wgsl
var ForwardWGSL string
