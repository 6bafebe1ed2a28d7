package shader

// MaxReceiverCascades is the number of cascades the receiver shader samples.
// Split distances are packed into a vec4.
const MaxReceiverCascades = 4

// DepthVertex transforms casters into light clip space.
const DepthVertex = `#version 410 core
layout(location = 0) in vec3 aPosition;

uniform mat4 uLightViewProj;
uniform mat4 uModel;

void main() {
    gl_Position = uLightViewProj * uModel * vec4(aPosition, 1.0);
}
`

// DepthFragment writes depth only.
const DepthFragment = `#version 410 core
void main() {}
`

// LineVertex draws debug wireframes.
const LineVertex = `#version 410 core
layout(location = 0) in vec3 aPosition;

uniform mat4 uViewProj;

void main() {
    gl_Position = uViewProj * vec4(aPosition, 1.0);
}
`

// LineFragment draws debug wireframes in a flat color.
const LineFragment = `#version 410 core
uniform vec3 uColor;
out vec4 FragColor;

void main() {
    FragColor = vec4(uColor, 1.0);
}
`

// ReceiverVertex passes world position, normal and view depth to the
// receiver fragment shader.
const ReceiverVertex = `#version 410 core
layout(location = 0) in vec3 aPosition;
layout(location = 1) in vec3 aNormal;

uniform mat4 uViewProj;
uniform mat4 uView;
uniform mat4 uModel;

out vec3 vWorldPos;
out vec3 vNormal;
out float vViewDepth;

void main() {
    vec4 world = uModel * vec4(aPosition, 1.0);
    vWorldPos = world.xyz;
    vNormal = mat3(uModel) * aNormal;
    vViewDepth = -(uView * world).z;
    gl_Position = uViewProj * world;
}
`

// ReceiverFragment picks the cascade by view depth and samples its map.
const ReceiverFragment = `#version 410 core
in vec3 vWorldPos;
in vec3 vNormal;
in float vViewDepth;

uniform mat4 uShadowMatrices[4];
uniform sampler2DShadow uShadowMaps[4];
uniform vec4 uSplitFar;
uniform int uCascadeCount;
uniform float uBias;
uniform float uStrength;
uniform vec3 uLightDir;
uniform vec3 uBaseColor;
uniform int uTintCascades;

out vec4 FragColor;

const vec3 cascadeTint[4] = vec3[](
    vec3(1.0, 0.6, 0.6), vec3(0.6, 1.0, 0.6),
    vec3(0.6, 0.6, 1.0), vec3(1.0, 1.0, 0.6));

float sampleCascade(int c, vec3 p) {
    if (c == 0) return texture(uShadowMaps[0], p);
    if (c == 1) return texture(uShadowMaps[1], p);
    if (c == 2) return texture(uShadowMaps[2], p);
    return texture(uShadowMaps[3], p);
}

void main() {
    int cascade = uCascadeCount - 1;
    for (int i = 0; i < uCascadeCount; i++) {
        if (vViewDepth <= uSplitFar[i]) {
            cascade = i;
            break;
        }
    }

    vec4 clip = uShadowMatrices[cascade] * vec4(vWorldPos, 1.0);
    vec3 p = clip.xyz / clip.w * 0.5 + 0.5;
    p.z -= uBias;
    float lit = sampleCascade(cascade, p);

    vec3 n = normalize(vNormal);
    float diffuse = max(dot(n, -uLightDir), 0.0);
    float shadow = mix(1.0, lit, uStrength);
    vec3 color = uBaseColor;
    if (uTintCascades != 0) {
        color *= cascadeTint[cascade];
    }
    FragColor = vec4(color * (0.25 + 0.75 * diffuse * shadow), 1.0);
}
`
