package scene

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/rbova/photongi/pkg/core"
)

// JSON scene description types. Vectors and colors are three-element arrays.

type vec [3]float64

func (v vec) toVec3() core.Vec3 { return core.NewVec3(v[0], v[1], v[2]) }

type cameraJSON struct {
	Eye    vec     `json:"eye"`
	LookAt vec     `json:"lookAt"`
	Up     vec     `json:"up"`
	FOVDeg float64 `json:"fovDeg"`
}

type brdfJSON struct {
	Ambient      vec     `json:"ambient,omitempty"`
	Diffuse      vec     `json:"diffuse,omitempty"`
	Specular     vec     `json:"specular,omitempty"`
	Transmission vec     `json:"transmission,omitempty"`
	Emission     vec     `json:"emission,omitempty"`
	Shininess    float64 `json:"shininess,omitempty"`
	IOR          float64 `json:"ior,omitempty"`
}

type shapeJSON struct {
	Type     string `json:"type"`
	Material string `json:"material"`

	// sphere
	Center vec     `json:"center,omitempty"`
	Radius float64 `json:"radius,omitempty"`

	// plane
	Point  vec `json:"point,omitempty"`
	Normal vec `json:"normal,omitempty"`

	// quad
	Corner vec `json:"corner,omitempty"`
	U      vec `json:"u,omitempty"`
	V      vec `json:"v,omitempty"`

	// box
	Min vec `json:"min,omitempty"`
	Max vec `json:"max,omitempty"`
}

type lightJSON struct {
	Type        string  `json:"type"`
	Color       vec     `json:"color"`
	Intensity   float64 `json:"intensity"`
	Inactive    bool    `json:"inactive,omitempty"`
	Attenuation vec     `json:"attenuation,omitempty"` // constant, linear, quadratic

	Direction vec `json:"direction,omitempty"`
	Position  vec `json:"position,omitempty"`

	Radius float64 `json:"radius,omitempty"`

	PrimaryAxis     vec     `json:"primaryAxis,omitempty"`
	SecondaryAxis   vec     `json:"secondaryAxis,omitempty"`
	PrimaryLength   float64 `json:"primaryLength,omitempty"`
	SecondaryLength float64 `json:"secondaryLength,omitempty"`

	CutoffDeg   float64 `json:"cutoffDeg,omitempty"`
	DropOffRate float64 `json:"dropOffRate,omitempty"`
}

type sceneJSON struct {
	Camera     cameraJSON          `json:"camera"`
	Ambient    vec                 `json:"ambient,omitempty"`
	Background vec                 `json:"background,omitempty"`
	Materials  map[string]brdfJSON `json:"materials"`
	Shapes     []shapeJSON         `json:"shapes"`
	Lights     []lightJSON         `json:"lights"`
}

// Load reads a JSON scene description from a file. When realMaterials is
// set, reflectance channels are normalized to at most one on load.
func Load(path string, realMaterials bool) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scene: %w", err)
	}
	return Parse(data, realMaterials)
}

// Parse builds a scene from a JSON description.
func Parse(data []byte, realMaterials bool) (*Scene, error) {
	var desc sceneJSON
	if err := json.Unmarshal(data, &desc); err != nil {
		return nil, fmt.Errorf("parsing scene: %w", err)
	}

	fov := desc.Camera.FOVDeg
	if fov <= 0 {
		fov = 60
	}
	up := desc.Camera.Up.toVec3()
	if up == (core.Vec3{}) {
		up = core.NewVec3(0, 0, 1)
	}
	camera := NewCamera(desc.Camera.Eye.toVec3(), desc.Camera.LookAt.toVec3(),
		up, fov*math.Pi/180.0)

	s := New(camera)
	s.SetAmbient(desc.Ambient.toVec3())
	s.SetBackground(desc.Background.toVec3())

	materials := make(map[string]*core.Brdf, len(desc.Materials))
	for name, m := range desc.Materials {
		brdf := &core.Brdf{
			Ambient:           m.Ambient.toVec3(),
			Diffuse:           m.Diffuse.toVec3(),
			Specular:          m.Specular.toVec3(),
			Transmission:      m.Transmission.toVec3(),
			Emission:          m.Emission.toVec3(),
			Shininess:         m.Shininess,
			IndexOfRefraction: m.IOR,
		}
		if brdf.Shininess <= 0 {
			brdf.Shininess = 1
		}
		if brdf.IndexOfRefraction <= 0 {
			brdf.IndexOfRefraction = 1
		}
		if realMaterials {
			brdf.Normalize()
		}
		materials[name] = brdf
	}

	for i, sh := range desc.Shapes {
		brdf, ok := materials[sh.Material]
		if !ok {
			return nil, fmt.Errorf("shape %d: unknown material %q", i, sh.Material)
		}
		switch sh.Type {
		case "sphere":
			s.AddShape(&Sphere{Center: sh.Center.toVec3(), Radius: sh.Radius, Brdf: brdf})
		case "plane":
			s.AddShape(&Plane{Point: sh.Point.toVec3(), Normal: sh.Normal.toVec3().Normalize(), Brdf: brdf})
		case "quad":
			s.AddShape(NewQuad(sh.Corner.toVec3(), sh.U.toVec3(), sh.V.toVec3(), brdf))
		case "box":
			for _, wall := range BoxWalls(sh.Min.toVec3(), sh.Max.toVec3(), brdf) {
				s.AddShape(wall)
			}
		default:
			return nil, fmt.Errorf("shape %d: unknown type %q", i, sh.Type)
		}
	}

	for i, l := range desc.Lights {
		light := &core.Light{
			Color:                l.Color.toVec3(),
			Intensity:            l.Intensity,
			Active:               !l.Inactive,
			ConstantAttenuation:  l.Attenuation[0],
			LinearAttenuation:    l.Attenuation[1],
			QuadraticAttenuation: l.Attenuation[2],
			Direction:            l.Direction.toVec3().Normalize(),
			Position:             l.Position.toVec3(),
			Radius:               l.Radius,
			PrimaryAxis:          l.PrimaryAxis.toVec3().Normalize(),
			SecondaryAxis:        l.SecondaryAxis.toVec3().Normalize(),
			PrimaryLength:        l.PrimaryLength,
			SecondaryLength:      l.SecondaryLength,
			CutoffAngle:          l.CutoffDeg * math.Pi / 180.0,
			DropOffRate:          l.DropOffRate,
		}
		if light.Intensity == 0 {
			light.Intensity = 1
		}
		if light.ConstantAttenuation == 0 && light.LinearAttenuation == 0 && light.QuadraticAttenuation == 0 {
			light.ConstantAttenuation = 1
		}

		switch l.Type {
		case "directional":
			light.Type = core.LightDirectional
		case "point":
			light.Type = core.LightPoint
		case "spot":
			light.Type = core.LightSpot
		case "area":
			light.Type = core.LightAreaDisk
		case "rect":
			light.Type = core.LightAreaRect
		default:
			return nil, fmt.Errorf("light %d: unknown type %q", i, l.Type)
		}
		s.AddLight(light)
	}

	return s, nil
}
