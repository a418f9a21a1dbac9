package theme

import (
	"errors"
	"fmt"
)

// DefaultID is the theme a fresh card starts with.
const DefaultID = "classic"

// ErrUndefinedTheme is returned when an identifier has no registry entry.
var ErrUndefinedTheme = errors.New("undefined theme")

// Definition is one card style. The four tokens are opaque to everything but
// the surface renderer.
type Definition struct {
	Label      string
	Background string
	Text       string
	Accent     string
	Border     string
}

type entry struct {
	id  string
	def Definition
}

// entries is ordered for the theme selector.
var entries = [...]entry{
	{"classic", Definition{
		Label:      "Classic White",
		Background: "bg-white",
		Text:       "text-gray-800",
		Accent:     "text-blue-600",
		Border:     "border-gray-200",
	}},
	{"modern", Definition{
		Label:      "Modern Dark",
		Background: "bg-gradient-to-br from-slate-900 to-slate-700",
		Text:       "text-white",
		Accent:     "text-cyan-400",
		Border:     "border-slate-600",
	}},
	{"elegant", Definition{
		Label:      "Elegant Purple",
		Background: "bg-gradient-to-br from-purple-900 to-purple-700",
		Text:       "text-white",
		Accent:     "text-purple-200",
		Border:     "border-purple-500",
	}},
	{"professional", Definition{
		Label:      "Professional Gray",
		Background: "bg-gradient-to-br from-gray-800 to-gray-600",
		Text:       "text-white",
		Accent:     "text-yellow-400",
		Border:     "border-gray-500",
	}},
	{"minimalist", Definition{
		Label:      "Minimalist",
		Background: "bg-gradient-to-br from-gray-50 to-gray-100",
		Text:       "text-gray-900",
		Accent:     "text-gray-600",
		Border:     "border-gray-300",
	}},
	{"corporate", Definition{
		Label:      "Corporate Blue",
		Background: "bg-gradient-to-br from-blue-900 to-blue-800",
		Text:       "text-white",
		Accent:     "text-blue-200",
		Border:     "border-blue-600",
	}},
	{"creative", Definition{
		Label:      "Creative Gradient",
		Background: "bg-gradient-to-br from-pink-500 to-orange-400",
		Text:       "text-white",
		Accent:     "text-pink-100",
		Border:     "border-pink-300",
	}},
	{"luxury", Definition{
		Label:      "Luxury Gold",
		Background: "bg-gradient-to-br from-amber-900 to-yellow-800",
		Text:       "text-white",
		Accent:     "text-amber-200",
		Border:     "border-amber-600",
	}},
	{"nature", Definition{
		Label:      "Nature Green",
		Background: "bg-gradient-to-br from-green-800 to-green-600",
		Text:       "text-white",
		Accent:     "text-green-200",
		Border:     "border-green-500",
	}},
	{"ocean", Definition{
		Label:      "Ocean Blue",
		Background: "bg-gradient-to-br from-blue-600 to-teal-500",
		Text:       "text-white",
		Accent:     "text-blue-100",
		Border:     "border-blue-400",
	}},
	{"sunset", Definition{
		Label:      "Sunset Orange",
		Background: "bg-gradient-to-br from-red-500 to-yellow-500",
		Text:       "text-white",
		Accent:     "text-red-100",
		Border:     "border-red-400",
	}},
	{"monochrome", Definition{
		Label:      "Monochrome Black",
		Background: "bg-black",
		Text:       "text-white",
		Accent:     "text-gray-300",
		Border:     "border-gray-700",
	}},
}

var registry = func() map[string]Definition {
	m := make(map[string]Definition, len(entries))
	for _, e := range entries {
		m[e.id] = e.def
	}
	return m
}()

// Lookup resolves a theme identifier.
func Lookup(id string) (Definition, error) {
	def, ok := registry[id]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %q", ErrUndefinedTheme, id)
	}
	return def, nil
}

// IDs returns every theme identifier in selector order.
func IDs() []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.id
	}
	return ids
}

// Definitions returns a copy of the registry keyed by identifier.
func Definitions() map[string]Definition {
	out := make(map[string]Definition, len(registry))
	for id, def := range registry {
		out[id] = def
	}
	return out
}

// Next steps delta positions through IDs, wrapping at both ends. An unknown
// id starts from the first entry.
func Next(id string, delta int) string {
	idx := 0
	for i, e := range entries {
		if e.id == id {
			idx = i
			break
		}
	}
	n := len(entries)
	idx = ((idx+delta)%n + n) % n
	return entries[idx].id
}
