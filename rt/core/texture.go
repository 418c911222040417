package core

// Texture is CPU-side RGBA8 pixel data, tightly packed, 4 bytes per pixel.
type Texture struct {
	Texels []uint8
	Width  uint32
	Height uint32
}

// Solid generates a single-color texture.
func Solid(width, height uint32, c [4]uint8) *Texture {
	texels := make([]uint8, width*height*4)
	for i := uint32(0); i < width*height; i++ {
		copy(texels[i*4:], c[:])
	}
	return &Texture{Texels: texels, Width: width, Height: height}
}

// Checkerboard generates a two-color test pattern with square cells.
func Checkerboard(width, height, cell uint32, a, b [4]uint8) *Texture {
	if cell == 0 {
		cell = 1
	}
	texels := make([]uint8, width*height*4)
	for y := uint32(0); y < height; y++ {
		for x := uint32(0); x < width; x++ {
			c := a
			if ((x/cell)+(y/cell))%2 == 1 {
				c = b
			}
			o := (y*width + x) * 4
			texels[o] = c[0]
			texels[o+1] = c[1]
			texels[o+2] = c[2]
			texels[o+3] = c[3]
		}
	}
	return &Texture{Texels: texels, Width: width, Height: height}
}
