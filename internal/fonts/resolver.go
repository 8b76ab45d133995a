package fonts

import (
	"sort"
	"strings"
)

// SizeClass is the coarse size a caller asks for.
type SizeClass string

const (
	Normal SizeClass = "normal"
	Large  SizeClass = "large"
)

const (
	// MinValidSize is the smallest size a level may resolve to.
	MinValidSize = 4
	// LargeDelta is added to a per-owner override to obtain its large size.
	LargeDelta = 4
	// BuiltinNormal and BuiltinLarge terminate the fallback chain.
	BuiltinNormal = 16
	BuiltinLarge  = 20
)

// ParseSizeClass maps "large" to Large and everything else to Normal.
func ParseSizeClass(value string) SizeClass {
	if strings.EqualFold(strings.TrimSpace(value), string(Large)) {
		return Large
	}
	return Normal
}

// Config holds the configured font sizes.
type Config struct {
	Normal int
	Large  int
	// Overrides maps an owner-identity substring to a normal size.
	Overrides map[string]int
}

// Source supplies the current font configuration.
type Source interface {
	FontConfig() Config
}

// StaticSource serves a fixed Config.
type StaticSource Config

func (s StaticSource) FontConfig() Config { return Config(s) }

// Level names the link of the chain a size came from.
type Level string

const (
	LevelOwner   Level = "owner"
	LevelGlobal  Level = "global"
	LevelBuiltin Level = "builtin"
)

// Resolution is a resolved size plus where it came from.
type Resolution struct {
	Size  int
	Level Level
	// Key is the matching override key for LevelOwner.
	Key string
}

// Resolver maps (owner, size class) to a font size.
type Resolver struct {
	source Source
}

// NewResolver returns a resolver reading configuration from source on every
// call. A nil source resolves to the built-in sizes.
func NewResolver(source Source) *Resolver {
	return &Resolver{source: source}
}

// Resolve returns the font size for owner and class.
func (r *Resolver) Resolve(owner string, class SizeClass) int {
	return r.Explain(owner, class).Size
}

// Explain resolves like Resolve and reports which level won.
func (r *Resolver) Explain(owner string, class SizeClass) Resolution {
	var cfg Config
	if r != nil && r.source != nil {
		cfg = r.source.FontConfig()
	}

	// The floor applies to the configured value, so an undersized override
	// skips the owner level for both classes even when base+LargeDelta would
	// clear it.
	if key, base, ok := matchOverride(cfg.Overrides, owner); ok && base >= MinValidSize {
		size := base
		if class == Large {
			size = base + LargeDelta
		}
		return Resolution{Size: size, Level: LevelOwner, Key: key}
	}

	global := cfg.Normal
	builtin := BuiltinNormal
	if class == Large {
		global = cfg.Large
		builtin = BuiltinLarge
	}
	if global >= MinValidSize {
		return Resolution{Size: global, Level: LevelGlobal}
	}
	return Resolution{Size: builtin, Level: LevelBuiltin}
}

// matchOverride picks the longest override key contained in owner; equal
// lengths are broken lexicographically so the result does not depend on map
// iteration order.
func matchOverride(overrides map[string]int, owner string) (string, int, bool) {
	if len(overrides) == 0 || owner == "" {
		return "", 0, false
	}
	keys := make([]string, 0, len(overrides))
	for key := range overrides {
		if key != "" && strings.Contains(owner, key) {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return "", 0, false
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys[0], overrides[keys[0]], true
}
