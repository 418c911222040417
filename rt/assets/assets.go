package assets

import (
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"

	"github.com/gekko3d/deferred/rt/core"
)

type AssetId string

// maxTextureDim caps loaded image sizes; larger sources are downscaled
// to stay inside common device limits.
const maxTextureDim = 4096

type Server struct {
	meshes   map[AssetId]*core.Mesh
	textures map[AssetId]*core.Texture
}

func NewServer() *Server {
	return &Server{
		meshes:   make(map[AssetId]*core.Mesh),
		textures: make(map[AssetId]*core.Texture),
	}
}

func (s *Server) AddMesh(m *core.Mesh) AssetId {
	id := makeAssetId()
	s.meshes[id] = m
	return id
}

func (s *Server) Mesh(id AssetId) (*core.Mesh, bool) {
	m, ok := s.meshes[id]
	return m, ok
}

func (s *Server) CreateTexture(texels []uint8, width, height uint32) (AssetId, error) {
	if uint32(len(texels)) != width*height*4 {
		return "", fmt.Errorf("texel data length %d does not match %dx%d RGBA", len(texels), width, height)
	}
	id := makeAssetId()
	s.textures[id] = &core.Texture{Texels: texels, Width: width, Height: height}
	return id, nil
}

func (s *Server) AddTexture(t *core.Texture) AssetId {
	id := makeAssetId()
	s.textures[id] = t
	return id
}

func (s *Server) Texture(id AssetId) (*core.Texture, bool) {
	t, ok := s.textures[id]
	return t, ok
}

// LoadTexturePNG decodes a PNG file into RGBA8 texels, downscaling
// oversized images to maxTextureDim.
func (s *Server) LoadTexturePNG(filename string) (AssetId, error) {
	file, err := os.Open(filename)
	if err != nil {
		return "", err
	}
	defer file.Close()

	img, err := png.Decode(file)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", filename, err)
	}

	tex := FromImage(img)
	id := makeAssetId()
	s.textures[id] = tex
	return id, nil
}

// FromImage converts any image to the RGBA8 layout, downscaling when a
// dimension exceeds maxTextureDim.
func FromImage(img image.Image) *core.Texture {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if w > maxTextureDim || h > maxTextureDim {
		scale := float64(maxTextureDim) / float64(w)
		if h > w {
			scale = float64(maxTextureDim) / float64(h)
		}
		nw := int(float64(w) * scale)
		nh := int(float64(h) * scale)
		dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, xdraw.Src, nil)
		return &core.Texture{Texels: dst.Pix, Width: uint32(nw), Height: uint32(nh)}
	}

	rgba, ok := img.(*image.RGBA)
	if !ok || bounds.Min != (image.Point{}) || rgba.Stride != w*4 {
		rgba = image.NewRGBA(image.Rect(0, 0, w, h))
		xdraw.Copy(rgba, image.Point{}, img, bounds, xdraw.Src, nil)
	}
	return &core.Texture{Texels: rgba.Pix, Width: uint32(w), Height: uint32(h)}
}

func makeAssetId() AssetId {
	return AssetId(uuid.NewString())
}
