package core

// Brdf is a Phong-style reflectance model with separate ambient, diffuse,
// specular, transmission and emission terms, a shininess exponent, and an
// index of refraction for transparent materials.
type Brdf struct {
	Ambient           Vec3
	Diffuse           Vec3
	Specular          Vec3
	Transmission      Vec3
	Emission          Vec3
	Shininess         float64
	IndexOfRefraction float64
}

// DefaultBrdf is used for surfaces without an assigned material.
var DefaultBrdf = Brdf{
	Diffuse:           NewVec3(0.5, 0.5, 0.5),
	Shininess:         1,
	IndexOfRefraction: 1,
}

// IsAmbient reports whether the material has an ambient component.
func (b *Brdf) IsAmbient() bool {
	return b.Ambient.MaxChannel() > 0
}

// IsDiffuse reports whether the material has a diffuse component.
func (b *Brdf) IsDiffuse() bool {
	return b.Diffuse.MaxChannel() > 0
}

// IsSpecular reports whether the material has a specular component.
func (b *Brdf) IsSpecular() bool {
	return b.Specular.MaxChannel() > 0
}

// IsTransparent reports whether the material transmits light.
func (b *Brdf) IsTransparent() bool {
	return b.Transmission.MaxChannel() > 0
}

// IsEmissive reports whether the material emits light.
func (b *Brdf) IsEmissive() bool {
	return b.Emission.MaxChannel() > 0
}

// Normalize clamps reflectance channels to at most one, preserving hue.
// Applied on scene load when physically plausible materials are requested.
func (b *Brdf) Normalize() {
	for _, c := range []*Vec3{&b.Ambient, &b.Diffuse, &b.Specular, &b.Transmission} {
		if m := c.MaxChannel(); m > 1 {
			*c = c.Multiply(1.0 / m)
		}
	}
}
