package fonts_test

import (
	"testing"

	"hudoverlay/internal/fonts"
)

func TestResolvePerOwnerOverride(t *testing.T) {
	resolver := fonts.NewResolver(fonts.StaticSource{
		Normal:    16,
		Large:     20,
		Overrides: map[string]int{"Foo": 10},
	})

	if got := resolver.Resolve("/plugins/Foo/load.py", fonts.Normal); got != 10 {
		t.Fatalf("normal = %d, want 10", got)
	}
	if got := resolver.Resolve("/plugins/Foo/load.py", fonts.Large); got != 14 {
		t.Fatalf("large = %d, want 14", got)
	}
	if got := resolver.Resolve("/plugins/Bar/load.py", fonts.Normal); got != 16 {
		t.Fatalf("non-matching owner normal = %d, want 16", got)
	}
}

func TestResolveFallbackChain(t *testing.T) {
	tests := []struct {
		name  string
		cfg   fonts.Config
		class fonts.SizeClass
		want  int
		level fonts.Level
	}{
		{
			name:  "override below threshold falls back to global",
			cfg:   fonts.Config{Normal: 18, Large: 22, Overrides: map[string]int{"Foo": 2}},
			class: fonts.Normal,
			want:  18,
			level: fonts.LevelGlobal,
		},
		{
			name:  "invalid override is skipped for large too",
			cfg:   fonts.Config{Normal: 18, Large: 22, Overrides: map[string]int{"Foo": 2}},
			class: fonts.Large,
			want:  22,
			level: fonts.LevelGlobal,
		},
		{
			name:  "invalid global falls back to builtin",
			cfg:   fonts.Config{Normal: 3, Large: 0},
			class: fonts.Normal,
			want:  fonts.BuiltinNormal,
			level: fonts.LevelBuiltin,
		},
		{
			name:  "invalid global large falls back to builtin large",
			cfg:   fonts.Config{Normal: 12, Large: 1},
			class: fonts.Large,
			want:  fonts.BuiltinLarge,
			level: fonts.LevelBuiltin,
		},
		{
			name:  "threshold value itself is valid",
			cfg:   fonts.Config{Normal: fonts.MinValidSize},
			class: fonts.Normal,
			want:  fonts.MinValidSize,
			level: fonts.LevelGlobal,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := fonts.NewResolver(fonts.StaticSource(tc.cfg)).Explain("plugins/Foo", tc.class)
			if got.Size != tc.want || got.Level != tc.level {
				t.Fatalf("Explain = %+v, want size %d level %s", got, tc.want, tc.level)
			}
		})
	}
}

func TestResolvePrefersLongestOverrideKey(t *testing.T) {
	resolver := fonts.NewResolver(fonts.StaticSource{
		Normal:    16,
		Large:     20,
		Overrides: map[string]int{"Foo": 10, "FooBar": 12, "oo": 30},
	})
	got := resolver.Explain("plugins/FooBar", fonts.Normal)
	if got.Size != 12 || got.Key != "FooBar" {
		t.Fatalf("Explain = %+v, want FooBar/12", got)
	}
}

func TestResolveWithoutSourceUsesBuiltins(t *testing.T) {
	resolver := fonts.NewResolver(nil)
	if got := resolver.Resolve("anyone", fonts.Normal); got != fonts.BuiltinNormal {
		t.Fatalf("normal = %d", got)
	}
	if got := resolver.Resolve("anyone", fonts.Large); got != fonts.BuiltinLarge {
		t.Fatalf("large = %d", got)
	}
}

func TestParseSizeClass(t *testing.T) {
	if fonts.ParseSizeClass("LARGE") != fonts.Large {
		t.Fatal("expected large")
	}
	if fonts.ParseSizeClass("") != fonts.Normal || fonts.ParseSizeClass("tiny") != fonts.Normal {
		t.Fatal("expected normal fallback")
	}
}
