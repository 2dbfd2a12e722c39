package opengl

// GLSL sources for the built-in effects, keyed by technique. Uniform names
// are the effect parameter names verbatim.

type shaderSource struct {
	vert string
	frag string
}

var shaderSources = map[string]shaderSource{
	"Simple":      {vert: meshVertSrc, frag: simpleFragSrc},
	"Technique1":  {vert: meshVertSrc, frag: quadFragSrc},
	"PostProcess": {vert: fullscreenVertSrc, frag: postFragSrc},
}

// ── Mesh vertex stage (shared by Simple and Technique1) ───────────────────────

const meshVertSrc = `
#version 410 core

layout(location = 0) in vec3 aPosition;
layout(location = 1) in vec3 aNormal;
layout(location = 2) in vec2 aTexCoord;
layout(location = 3) in vec3 aTangent;
layout(location = 4) in vec3 aBitangent;

uniform mat4 World;
uniform mat4 WorldIT;
uniform mat4 View;
uniform mat4 Projection;

out vec3 vWorldPos;
out vec3 vObjectPos;
out vec3 vNormal;
out vec3 vTangent;
out vec3 vBitangent;
out vec2 vTexCoord;

void main() {
    vec4 world = World * vec4(aPosition, 1.0);
    vWorldPos  = world.xyz;
    vObjectPos = aPosition;

    mat3 normalMat = mat3(WorldIT);
    vNormal    = normalMat * aNormal;
    vTangent   = normalMat * aTangent;
    vBitangent = normalMat * aBitangent;
    vTexCoord  = aTexCoord;

    gl_Position = Projection * View * world;
}
` + "\x00"

// ── Simple: per-pixel Phong with normal and procedural debug modes ────────────

const simpleFragSrc = `
#version 410 core

in vec3 vWorldPos;
in vec3 vObjectPos;
in vec3 vNormal;
in vec2 vTexCoord;

uniform vec3  Eye;

uniform vec4  AmbientColor;
uniform float AmbientIntensity;
uniform vec3  LightPosition;
uniform vec4  DiffuseColor;
uniform float DiffuseIntensity;
uniform vec4  SpecularColor;
uniform float SpecularIntensity;
uniform float SpecularPower;

uniform bool NormalColoring;
uniform bool ProceduralColoring;

uniform sampler2D DiffuseTexture;
uniform bool      HasTexture;

out vec4 fragColor;

void main() {
    vec3 N = normalize(vNormal);

    if (NormalColoring) {
        fragColor = vec4(N * 0.5 + 0.5, 1.0);
        return;
    }

    vec4 base = DiffuseColor;
    if (ProceduralColoring) {
        // 3D checker in object space
        vec3 cell = floor(vObjectPos * 4.0);
        float odd = mod(cell.x + cell.y + cell.z, 2.0);
        base = vec4(mix(DiffuseColor.rgb, vec3(1.0) - DiffuseColor.rgb, odd), DiffuseColor.a);
    } else if (HasTexture) {
        base = texture(DiffuseTexture, vTexCoord);
    }

    vec3 L = normalize(LightPosition - vWorldPos);
    vec3 V = normalize(Eye - vWorldPos);
    vec3 R = reflect(-L, N);

    float diff = max(dot(N, L), 0.0);
    float spec = 0.0;
    if (diff > 0.0) {
        spec = pow(max(dot(R, V), 0.0), SpecularPower);
    }

    vec3 color = AmbientColor.rgb * AmbientIntensity
               + base.rgb * DiffuseIntensity * diff
               + SpecularColor.rgb * SpecularIntensity * spec;
    fragColor = vec4(clamp(color, 0.0, 1.0), base.a);
}
` + "\x00"

// ── Technique1: tiled diffuse texture with optional tangent-space normal map ──

const quadFragSrc = `
#version 410 core

in vec3 vWorldPos;
in vec3 vNormal;
in vec3 vTangent;
in vec3 vBitangent;
in vec2 vTexCoord;

uniform vec3 Eye;
uniform vec3 LightPosition;

uniform sampler2D DiffuseTexture;
uniform bool      HasTexture;
uniform sampler2D NormalMap;
uniform bool      HasNormalMap;

out vec4 fragColor;

void main() {
    vec3 N = normalize(vNormal);
    if (HasNormalMap) {
        mat3 TBN = mat3(normalize(vTangent), normalize(vBitangent), N);
        vec3 n = texture(NormalMap, vTexCoord).rgb * 2.0 - 1.0;
        N = normalize(TBN * n);
    }

    vec4 base = HasTexture ? texture(DiffuseTexture, vTexCoord) : vec4(0.5, 0.5, 0.5, 1.0);

    vec3 L = normalize(LightPosition - vWorldPos);
    vec3 V = normalize(Eye - vWorldPos);
    vec3 H = normalize(L + V);

    float diff = max(dot(N, L), 0.0);
    float spec = diff > 0.0 ? pow(max(dot(N, H), 0.0), 32.0) * 0.25 : 0.0;

    vec3 color = base.rgb * (0.2 + 0.8 * diff) + vec3(spec);
    fragColor = vec4(clamp(color, 0.0, 1.0), base.a);
}
` + "\x00"

// ── PostProcess: full-screen triangle, gamma exponent ─────────────────────────

// Positions come from gl_VertexID; draw 3 vertices with an empty VAO.
const fullscreenVertSrc = `
#version 410 core

out vec2 vTexCoord;

void main() {
    vec2 pos = vec2((gl_VertexID << 1) & 2, gl_VertexID & 2);
    vTexCoord = pos;
    gl_Position = vec4(pos * 2.0 - 1.0, 0.0, 1.0);
}
` + "\x00"

const postFragSrc = `
#version 410 core

in vec2 vTexCoord;

uniform sampler2D SceneTexture;
uniform float     gamma;

out vec4 fragColor;

void main() {
    vec4 color = texture(SceneTexture, vTexCoord);
    fragColor = vec4(pow(color.rgb, vec3(1.0 / gamma)), color.a);
}
` + "\x00"

// sceneSampler is the sampler the full-screen pass reads its source from.
const sceneSampler = "SceneTexture"
