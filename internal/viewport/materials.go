package viewport

import (
	"image"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"
	rl "github.com/gen2brain/raylib-go/raylib"
	"go.uber.org/zap"

	"roomstudio/internal/material"
	"roomstudio/internal/scenegraph"
)

// maxTextureDim bounds uploaded texture size; larger images are downscaled
// before upload.
const maxTextureDim = 512

// matHandle is one realized swatch. Handles are cheap: the GPU material and
// shader are shared by the factory, a handle only carries the per-surface
// color, shading hints, and an optional owned texture.
type matHandle struct {
	color     rl.Color
	roughness float32
	metallic  float32
	tex       rl.Texture2D
	hasTex    bool
	released  bool
}

func (m *matHandle) Release() {
	if m.released {
		return
	}
	m.released = true
	if m.hasTex {
		rl.UnloadTexture(m.tex)
		m.hasTex = false
	}
}

// Materials realizes catalog definitions into draw-ready handles and owns the
// two shared GPU materials (plain and textured) the draw walk renders with.
// GPU resources are created lazily on first use so construction can happen
// before the window exists.
type Materials struct {
	log *zap.Logger

	ready    bool
	plain    rl.Material
	textured rl.Material

	viewPos  [3]float32
	lightDir [3]float32
}

// NewMaterials returns the factory. Nothing touches the GPU until the first
// Create or draw call.
func NewMaterials(log *zap.Logger) *Materials {
	if log == nil {
		log = zap.NewNop()
	}
	return &Materials{
		log:      log,
		lightDir: [3]float32{0.45, 1, 0.3},
	}
}

// Create realizes one catalog definition. A bad color is an error; a missing
// or unreadable texture falls back to the flat color with a warning, so a
// broken asset never takes the catalog down.
func (f *Materials) Create(def material.Definition) (scenegraph.Material, error) {
	rgba, err := material.ParseHexColor(def.Color)
	if err != nil {
		return nil, err
	}
	h := &matHandle{
		color:     rl.NewColor(rgba[0], rgba[1], rgba[2], rgba[3]),
		roughness: def.Roughness,
		metallic:  def.Metallic,
	}
	if def.Texture != "" {
		if tex, ok := f.loadTexture(def.Texture); ok {
			h.tex = tex
			h.hasTex = true
		}
	}
	return h, nil
}

// Highlight returns the shared selection material: a bright overlay color
// that reads against every catalog swatch.
func (f *Materials) Highlight() scenegraph.Material {
	return &matHandle{color: rl.NewColor(255, 161, 54, 255), roughness: 0.4}
}

// SetView feeds the camera position and the direction to the light for this
// frame's lighting. Call once per frame before the draw walk.
func (f *Materials) SetView(viewPos, lightDir [3]float32) {
	f.viewPos = viewPos
	f.lightDir = lightDir
}

// loadTexture decodes an image from disk, downscales it to the size cap,
// and uploads it with mipmaps.
func (f *Materials) loadTexture(path string) (rl.Texture2D, bool) {
	img, err := imgio.Open(path)
	if err != nil {
		f.log.Warn("material texture unreadable",
			zap.String("path", path),
			zap.Error(err))
		return rl.Texture2D{}, false
	}
	img = capSize(img, maxTextureDim)
	rimg := rl.NewImageFromImage(img)
	tex := rl.LoadTextureFromImage(rimg)
	rl.UnloadImage(rimg)
	if !rl.IsTextureValid(tex) {
		f.log.Warn("material texture upload failed", zap.String("path", path))
		return rl.Texture2D{}, false
	}
	rl.GenTextureMipmaps(&tex)
	rl.SetTextureFilter(tex, rl.FilterTrilinear)
	return tex, true
}

// capSize downscales an image so neither dimension exceeds limit, preserving
// aspect.
func capSize(img image.Image, limit int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= limit && h <= limit {
		return img
	}
	if w >= h {
		h = h * limit / w
		w = limit
	} else {
		w = w * limit / h
		h = limit
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return transform.Resize(img, w, h, transform.Linear)
}

// ensure uploads the shared materials and shaders. Runs on first draw, after
// the GL context exists.
func (f *Materials) ensure() {
	if f.ready {
		return
	}
	f.ready = true

	f.plain = rl.LoadMaterialDefault()
	if sh := rl.LoadShaderFromMemory(litVS, litFS); rl.IsShaderValid(sh) {
		f.plain.Shader = sh
	}
	f.textured = rl.LoadMaterialDefault()
	if sh := rl.LoadShaderFromMemory(litVS, litTexturedFS); rl.IsShaderValid(sh) {
		f.textured.Shader = sh
	}
}

// bind prepares the shared material for one handle and returns it. Tint
// multiplies the swatch color per part; pass white for untinted parts.
func (f *Materials) bind(h *matHandle, tint rl.Color) *rl.Material {
	f.ensure()
	mtl := &f.plain
	if h.hasTex {
		mtl = &f.textured
		rl.SetMaterialTexture(mtl, rl.MapAlbedo, h.tex)
	}
	if albedo := mtl.GetMap(rl.MapAlbedo); albedo != nil {
		albedo.Color = modulate(h.color, tint)
	}
	f.setLitUniforms(mtl.Shader, h)
	return mtl
}

// modulate multiplies two colors per channel.
func modulate(a, b rl.Color) rl.Color {
	return rl.NewColor(
		uint8(uint16(a.R)*uint16(b.R)/255),
		uint8(uint16(a.G)*uint16(b.G)/255),
		uint8(uint16(a.B)*uint16(b.B)/255),
		uint8(uint16(a.A)*uint16(b.A)/255),
	)
}

// Lighting defaults. Ambient keeps shadowed faces readable; the shade vector
// maps the catalog's roughness/metallic hints onto the specular term.
var litAmbient = [4]float32{0.22, 0.23, 0.26, 1}

func (f *Materials) setLitUniforms(shader rl.Shader, h *matHandle) {
	if !rl.IsShaderValid(shader) {
		return
	}
	viewPos := f.viewPos
	lightDir := f.lightDir
	amb := litAmbient
	// Rough surfaces get a broad dim highlight, polished metal a tight hot one.
	shade := [2]float32{0.15 + h.metallic*0.55, 8 + (1-h.roughness)*56}
	if loc := rl.GetShaderLocation(shader, "viewPos"); loc >= 0 {
		rl.SetShaderValueV(shader, loc, viewPos[:], rl.ShaderUniformVec3, 1)
	}
	if loc := rl.GetShaderLocation(shader, "lightDir"); loc >= 0 {
		rl.SetShaderValueV(shader, loc, lightDir[:], rl.ShaderUniformVec3, 1)
	}
	if loc := rl.GetShaderLocation(shader, "ambient"); loc >= 0 {
		rl.SetShaderValueV(shader, loc, amb[:], rl.ShaderUniformVec4, 1)
	}
	if loc := rl.GetShaderLocation(shader, "shade"); loc >= 0 {
		rl.SetShaderValueV(shader, loc, shade[:], rl.ShaderUniformVec2, 1)
	}
}

const (
	litVS = `#version 330
in vec3 vertexPosition;
in vec2 vertexTexCoord;
in vec3 vertexNormal;
uniform mat4 matProjection;
uniform mat4 matView;
uniform mat4 matModel;
out vec3 fragPosition;
out vec2 fragTexCoord;
out vec3 fragNormal;
void main() {
  vec4 worldPos = matModel * vec4(vertexPosition, 1.0);
  fragPosition = worldPos.xyz;
  fragTexCoord = vertexTexCoord;
  fragNormal = mat3(matModel) * vertexNormal;
  gl_Position = matProjection * matView * worldPos;
}
`
	litFS = `#version 330
in vec3 fragPosition;
in vec2 fragTexCoord;
in vec3 fragNormal;
uniform vec4 colDiffuse;
uniform vec3 viewPos;
uniform vec3 lightDir;
uniform vec4 ambient;
uniform vec2 shade;
out vec4 finalColor;
void main() {
  vec4 tint = colDiffuse;
  vec3 N = normalize(fragNormal);
  vec3 L = normalize(lightDir);
  vec3 V = normalize(viewPos - fragPosition);
  float NdotL = max(dot(N, L), 0.0);
  vec3 diffuse = tint.rgb * NdotL * 0.8;
  vec3 amb = ambient.rgb * tint.rgb;
  vec3 H = normalize(L + V);
  float spec = pow(max(dot(N, H), 0.0), shade.y) * shade.x;
  vec3 specular = vec3(spec) * (NdotL > 0.0 ? 1.0 : 0.0);
  finalColor = vec4(amb + diffuse + specular, tint.a);
}
`
	litTexturedFS = `#version 330
in vec3 fragPosition;
in vec2 fragTexCoord;
in vec3 fragNormal;
uniform vec4 colDiffuse;
uniform vec3 viewPos;
uniform vec3 lightDir;
uniform vec4 ambient;
uniform vec2 shade;
uniform sampler2D texture0;
out vec4 finalColor;
void main() {
  vec4 tint = texture(texture0, fragTexCoord) * colDiffuse;
  vec3 N = normalize(fragNormal);
  vec3 L = normalize(lightDir);
  vec3 V = normalize(viewPos - fragPosition);
  float NdotL = max(dot(N, L), 0.0);
  vec3 diffuse = tint.rgb * NdotL * 0.8;
  vec3 amb = ambient.rgb * tint.rgb;
  vec3 H = normalize(L + V);
  float spec = pow(max(dot(N, H), 0.0), shade.y) * shade.x;
  vec3 specular = vec3(spec) * (NdotL > 0.0 ? 1.0 : 0.0);
  finalColor = vec4(amb + diffuse + specular, tint.a);
}
`
)
