package floor

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/paulmach/orb"
)

// Layout files are plain JSON so they can be produced by hand or by an
// external plan editor. Geometry is stored as x/y/width/height pixel
// rectangles rather than bounds, matching how editors draw them.

type zoneJSON struct {
	Name           string  `json:"name"`
	Number         int     `json:"zone_number,omitempty"`
	Category       string  `json:"category,omitempty"`
	Type           string  `json:"type"`
	X              float64 `json:"x"`
	Y              float64 `json:"y"`
	Width          float64 `json:"width"`
	Height         float64 `json:"height"`
	Attractiveness float64 `json:"attractiveness,omitempty"`
	QueueCapacity  int     `json:"queue_capacity,omitempty"`
	QueueSpacing   float64 `json:"queue_spacing,omitempty"`
}

type layoutJSON struct {
	Name  string     `json:"name,omitempty"`
	Scale float64    `json:"scale"`
	Zones []zoneJSON `json:"zones"`
}

// Parse decodes a layout from JSON and applies per-kind defaults:
// products get attractiveness 1.0 when unset, checkouts get the default
// queue capacity and spacing.
func Parse(data []byte) (*Layout, error) {
	var raw layoutJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	l := &Layout{Name: raw.Name, Scale: raw.Scale}
	for i, zj := range raw.Zones {
		kind, err := ParseZoneKind(zj.Type)
		if err != nil {
			return nil, fmt.Errorf("parse layout: zone %d (%q): %w", i, zj.Name, err)
		}
		z := &Zone{
			Name:     zj.Name,
			Number:   zj.Number,
			Category: zj.Category,
			Kind:     kind,
			Bound: orb.Bound{
				Min: orb.Point{zj.X, zj.Y},
				Max: orb.Point{zj.X + zj.Width, zj.Y + zj.Height},
			},
			Attractiveness: zj.Attractiveness,
			MaxQueue:       zj.QueueCapacity,
			QueueSpacing:   zj.QueueSpacing,
		}
		if z.Kind == KindProduct && z.Attractiveness <= 0 {
			z.Attractiveness = 1.0
		}
		if z.Kind == KindCheckout {
			if z.MaxQueue <= 0 {
				z.MaxQueue = DefaultMaxQueue
			}
			if z.QueueSpacing <= 0 {
				z.QueueSpacing = DefaultQueueSpacing
			}
		}
		l.Zones = append(l.Zones, z)
	}
	return l, nil
}

// Load reads and parses a layout file.
func Load(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load layout: %w", err)
	}
	l, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("load layout %s: %w", path, err)
	}
	return l, nil
}

// Encode renders the layout back to indented JSON.
func Encode(l *Layout) ([]byte, error) {
	raw := layoutJSON{Name: l.Name, Scale: l.Scale}
	for _, z := range l.Zones {
		raw.Zones = append(raw.Zones, zoneJSON{
			Name:           z.Name,
			Number:         z.Number,
			Category:       z.Category,
			Type:           z.Kind.String(),
			X:              z.Bound.Min.X(),
			Y:              z.Bound.Min.Y(),
			Width:          z.Width(),
			Height:         z.Height(),
			Attractiveness: z.Attractiveness,
			QueueCapacity:  z.MaxQueue,
			QueueSpacing:   z.QueueSpacing,
		})
	}
	return json.MarshalIndent(raw, "", "  ")
}

// Save writes the layout to path as indented JSON.
func Save(l *Layout, path string) error {
	data, err := Encode(l)
	if err != nil {
		return fmt.Errorf("save layout: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("save layout: %w", err)
	}
	return nil
}
