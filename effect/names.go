package effect

// Shader parameter names. These are the uniform names the GLSL programs
// declare and must stay stable.
const (
	World      = "World"
	WorldIT    = "WorldIT"
	View       = "View"
	Projection = "Projection"
	Eye        = "Eye"

	AmbientColor       = "AmbientColor"
	AmbientIntensity   = "AmbientIntensity"
	LightPosition      = "LightPosition"
	DiffuseColor       = "DiffuseColor"
	DiffuseIntensity   = "DiffuseIntensity"
	SpecularColor      = "SpecularColor"
	SpecularIntensity  = "SpecularIntensity"
	SpecularPower      = "SpecularPower"
	NormalColoring     = "NormalColoring"
	ProceduralColoring = "ProceduralColoring"

	DiffuseTexture = "DiffuseTexture"
	NormalMap      = "NormalMap"
	HasNormalMap   = "HasNormalMap"
	HasTexture     = "HasTexture"

	Gamma = "gamma"
)

// Asset names of the built-in effects.
const (
	SimpleName         = "Effects/Simple"
	QuadName           = "Effects/QuadEffect"
	PostProcessingName = "Effects/PostProcessing"
)

// Simple is the per-pixel Phong effect used for the mesh.
var Simple = Definition{
	Name:      SimpleName,
	Technique: "Simple",
	Params: map[string]Kind{
		World:              KindMatrix,
		WorldIT:            KindMatrix,
		View:               KindMatrix,
		Projection:         KindMatrix,
		Eye:                KindVector3,
		AmbientColor:       KindVector4,
		AmbientIntensity:   KindFloat,
		LightPosition:      KindVector3,
		DiffuseColor:       KindVector4,
		DiffuseIntensity:   KindFloat,
		SpecularColor:      KindVector4,
		SpecularIntensity:  KindFloat,
		SpecularPower:      KindFloat,
		NormalColoring:     KindBool,
		ProceduralColoring: KindBool,
		DiffuseTexture:     KindTexture,
		HasTexture:         KindBool,
	},
}

// Quad is the textured, normal-mapped ground effect.
var Quad = Definition{
	Name:      QuadName,
	Technique: "Technique1",
	Params: map[string]Kind{
		World:          KindMatrix,
		WorldIT:        KindMatrix,
		View:           KindMatrix,
		Projection:     KindMatrix,
		Eye:            KindVector3,
		LightPosition:  KindVector3,
		DiffuseTexture: KindTexture,
		HasTexture:     KindBool,
		NormalMap:      KindTexture,
		HasNormalMap:   KindBool,
	},
}

// PostProcessing is the full-screen gamma pass.
var PostProcessing = Definition{
	Name:      PostProcessingName,
	Technique: "PostProcess",
	Params: map[string]Kind{
		Gamma: KindFloat,
	},
}

var builtin = map[string]Definition{
	SimpleName:         Simple,
	QuadName:           Quad,
	PostProcessingName: PostProcessing,
}

// Lookup returns the built-in definition registered under an asset name.
func Lookup(name string) (Definition, bool) {
	def, ok := builtin[name]
	return def, ok
}
