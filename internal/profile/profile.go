// Package profile holds named render presets: a parameter snapshot plus
// export settings. Built-in presets can be extended or overridden from a
// YAML file.
package profile

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/AnyUserName/ditherkit/internal/params"
)

// DefaultName is the preset used for unknown names.
const DefaultName = "default"

// Profile is a named render preset.
type Profile struct {
	Name        string        `yaml:"name" json:"name"`
	Description string        `yaml:"description,omitempty" json:"description,omitempty"`
	Format      string        `yaml:"format" json:"format"`       // export format
	Quality     int           `yaml:"quality" json:"quality"`     // encoding quality 1-100
	MaxWidth    int           `yaml:"max_width" json:"max_width"` // downscale sources wider than this, 0 = never
	Params      params.Params `yaml:"params" json:"params"`
}

func builtin() map[string]Profile {
	with := func(edit func(*params.Params)) params.Params {
		p := params.Default()
		edit(&p)
		return p
	}
	return map[string]Profile{
		"default": {
			Name:        "default",
			Description: "four levels per channel, Bayer 4x4",
			Format:      "png",
			Quality:     90,
			Params:      with(func(p *params.Params) { p.Algorithm = params.Bayer4x4 }),
		},
		"gameboy": {
			Name:        "gameboy",
			Description: "four gray levels on chunky pixels",
			Format:      "png",
			Quality:     90,
			MaxWidth:    640,
			Params: with(func(p *params.Params) {
				p.Algorithm = params.Bayer4x4
				p.Grayscale = true
				p.PixelScale = 3
				p.Contrast = 1.2
			}),
		},
		"newsprint": {
			Name:        "newsprint",
			Description: "one-bit clustered halftone",
			Format:      "png",
			Quality:     90,
			Params: with(func(p *params.Params) {
				p.Algorithm = params.Cluster8x8
				p.Grayscale = true
				p.ColorDepth = 2
			}),
		},
		"classic": {
			Name:        "classic",
			Description: "one-bit Floyd-Steinberg",
			Format:      "png",
			Quality:     90,
			Params: with(func(p *params.Params) {
				p.Algorithm = params.FloydSteinberg
				p.Grayscale = true
				p.ColorDepth = 2
			}),
		},
		"glitch": {
			Name:        "glitch",
			Description: "blue noise with displacement and chroma split",
			Format:      "png",
			Quality:     90,
			Params: with(func(p *params.Params) {
				p.Algorithm = params.BlueNoise
				p.ColorDepth = 3
				p.PixelDisplace = 24
				p.ChromaAberration = 6
				p.ThresholdNoise = 0.3
				p.PaletteRandomize = 0.1
			}),
		},
		"vhs": {
			Name:        "vhs",
			Description: "wobbling diffusion with noisy error",
			Format:      "jpeg",
			Quality:     85,
			Params: with(func(p *params.Params) {
				p.Algorithm = params.FloydSteinberg
				p.ColorDepth = 6
				p.Turbulence = 0.35
				p.ChromaAberration = 3
				p.ErrorRandomness = 0.4
				p.ErrorAmplify = 1.2
			}),
		},
	}
}

// Catalog is a set of presets keyed by name.
type Catalog struct {
	profiles map[string]Profile
}

// Builtin returns a catalog holding only the built-in presets.
func Builtin() *Catalog {
	return &Catalog{profiles: builtin()}
}

// Get returns a preset by name. Falls back to the default preset if
// unknown, keeping the requested name.
func (c *Catalog) Get(name string) Profile {
	if p, ok := c.profiles[name]; ok {
		return p
	}
	p := c.profiles[DefaultName]
	p.Name = name
	return p
}

// Lookup returns a preset and whether it exists.
func (c *Catalog) Lookup(name string) (Profile, bool) {
	p, ok := c.profiles[name]
	return p, ok
}

// Names returns all preset names, sorted.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.profiles))
	for n := range c.profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Get returns a built-in preset by name with the default fallback.
func Get(name string) Profile {
	return Builtin().Get(name)
}

// file is the YAML layout of a preset file.
type file struct {
	Presets map[string]yaml.Node `yaml:"presets"`
}

// LoadFile merges presets from a YAML file into the catalog. Fields a
// preset omits keep their defaults; a preset with a built-in name
// overrides it.
func (c *Catalog) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read presets: %w", err)
	}
	return c.Load(data)
}

// Load merges presets from YAML bytes into the catalog.
func (c *Catalog) Load(data []byte) error {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse presets: %w", err)
	}
	loaded := make(map[string]Profile, len(f.Presets))
	for name, node := range f.Presets {
		p := Profile{Format: "png", Quality: 90, Params: params.Default()}
		if base, ok := c.profiles[name]; ok {
			p = base
		}
		if err := node.Decode(&p); err != nil {
			return fmt.Errorf("preset %q: %w", name, err)
		}
		p.Name = name
		if err := p.Params.Validate(); err != nil {
			return fmt.Errorf("preset %q: %w", name, err)
		}
		if p.MaxWidth < 0 {
			return fmt.Errorf("preset %q: negative max_width", name)
		}
		loaded[name] = p
	}
	for name, p := range loaded {
		c.profiles[name] = p
	}
	return nil
}

// TargetSize returns the render size for a source of w×h. Sources wider
// than MaxWidth are scaled down keeping the aspect ratio; nothing is
// ever upscaled.
func (p Profile) TargetSize(w, h int) (int, int) {
	if p.MaxWidth <= 0 || w <= p.MaxWidth {
		return w, h
	}
	nh := h * p.MaxWidth / w
	return p.MaxWidth, max(nh, 1)
}
