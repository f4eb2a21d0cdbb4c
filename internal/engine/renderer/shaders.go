package renderer

const meshVertexShader = `
#version 410 core

layout (location = 0) in vec3 aPos;
layout (location = 1) in vec3 aNormal;

uniform mat4 uViewProjection;

out vec3 vPos;
out vec3 vNormal;

void main() {
	vPos = aPos;
	vNormal = aNormal;
	gl_Position = uViewProjection * vec4(aPos, 1.0);
}
`

// uMode selects the shading model, see shadingMode.
const meshFragmentShader = `
#version 410 core

in vec3 vPos;
in vec3 vNormal;
out vec4 FragColor;

uniform vec4 uColor;
uniform int uMode;
uniform bool uFlat;
uniform float uShininess;
uniform vec3 uEye;

uniform vec3 uSunDir;
uniform vec3 uSunColor;
uniform float uSunIntensity;
uniform vec3 uSky;
uniform vec3 uGround;
uniform float uHemiIntensity;

void main() {
	vec3 n = uFlat ? normalize(cross(dFdx(vPos), dFdy(vPos))) : normalize(vNormal);
	if (!uFlat && !gl_FrontFacing) {
		n = -n;
	}

	if (uMode == 4) {
		FragColor = vec4(n * 0.5 + 0.5, uColor.a);
		return;
	}
	if (uMode == 0) {
		FragColor = uColor;
		return;
	}

	// Hemisphere light, Z up.
	float hemi = n.z * 0.5 + 0.5;
	vec3 light = mix(uGround, uSky, hemi) * uHemiIntensity;
	light += uSunColor * uSunIntensity * max(dot(n, uSunDir), 0.0);
	vec3 color = uColor.rgb * light;

	if (uMode >= 2) {
		vec3 v = normalize(uEye - vPos);
		vec3 h = normalize(uSunDir + v);
		color += uSunColor * pow(max(dot(n, h), 0.0), uShininess) * 0.3;
	}
	FragColor = vec4(color, uColor.a);
}
`

const linesVertexShader = `
#version 410 core

layout (location = 0) in vec3 aPos;
layout (location = 1) in vec3 aColor;

uniform mat4 uViewProjection;

out vec3 vColor;

void main() {
	vColor = aColor;
	gl_Position = uViewProjection * vec4(aPos, 1.0);
}
`

const linesFragmentShader = `
#version 410 core

in vec3 vColor;
out vec4 FragColor;

void main() {
	FragColor = vec4(vColor, 1.0);
}
`
