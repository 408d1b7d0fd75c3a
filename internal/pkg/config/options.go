package config

import (
	"github.com/fredbi/hexbinviz/internal/pkg/model"
	"github.com/fredbi/hexbinviz/internal/pkg/scale"
)

// Formatting option defaults, used whenever an option is missing or invalid.
const (
	DefaultFill      = "rgb(1, 184, 170)"
	DefaultHexRadius = 20.0
)

// Names of the formatting object and its properties in the options bag.
const (
	ObjectGeneral     = "general"
	PropertyFill      = "fill"
	PropertyHexRadius = "hexRadius"
)

// Options are the validated formatting options of the visual.
type Options struct {
	Fill      string
	HexRadius float64
}

// DefaultOptions returns the documented option defaults.
func DefaultOptions() Options {
	return Options{
		Fill:      DefaultFill,
		HexRadius: DefaultHexRadius,
	}
}

// Objects renders the options as a raw options bag, the inverse of [ResolveOptions].
func (o Options) Objects() map[string]any {
	return map[string]any{
		ObjectGeneral: map[string]any{
			PropertyFill: map[string]any{
				"solid": map[string]any{
					"color": o.Fill,
				},
			},
			PropertyHexRadius: o.HexRadius,
		},
	}
}

// Fill is the shape of a fill property in the options bag.
type Fill struct {
	Solid SolidColor `json:"solid"`
}

// SolidColor is a plain color fill.
type SolidColor struct {
	Color string `json:"color"`
}

// ObjectInstance echoes the current values of a formatting object to a property editor.
type ObjectInstance struct {
	ObjectName  string         `json:"objectName"`
	DisplayName string         `json:"displayName"`
	Selector    any            `json:"selector"`
	Properties  map[string]any `json:"properties"`
}

// ResolveOptions reads the raw options bag and returns validated options.
//
// The bag is shaped like {"general": {"fill": {"solid": {"color": "..."}}, "hexRadius": 20}}.
// A fill may also be given as a plain color string. Missing, malformed, zero or negative
// values resolve to their defaults.
func ResolveOptions(objects map[string]any) Options {
	o := DefaultOptions()

	general, ok := objects[ObjectGeneral].(map[string]any)
	if !ok {
		return o
	}

	if fill, ok := resolveFill(general[PropertyFill]); ok {
		o.Fill = fill
	}

	if radius, ok := model.Number(general[PropertyHexRadius]); ok && radius > 0 {
		o.HexRadius = radius
	}

	return o
}

func resolveFill(raw any) (string, bool) {
	var candidate string

	switch v := raw.(type) {
	case string:
		candidate = v
	case Fill:
		candidate = v.Solid.Color
	case map[string]any:
		solid, ok := v["solid"].(map[string]any)
		if !ok {
			return "", false
		}
		candidate, _ = solid["color"].(string)
	default:
		return "", false
	}

	if _, err := scale.ParseColor(candidate); err != nil {
		return "", false
	}

	return candidate, true
}

// Enumerate returns the instances of a formatting object, keyed by property name.
//
// Only the "general" object is known: any other name yields no instance.
func (o Options) Enumerate(objectName string) []ObjectInstance {
	switch objectName {
	case ObjectGeneral:
		return []ObjectInstance{
			{
				ObjectName:  ObjectGeneral,
				DisplayName: titleize(ObjectGeneral),
				Selector:    nil,
				Properties: map[string]any{
					PropertyFill:      Fill{Solid: SolidColor{Color: o.Fill}},
					PropertyHexRadius: o.HexRadius,
				},
			},
		}
	default:
		return nil
	}
}
