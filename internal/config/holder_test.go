package config_test

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"hudoverlay/internal/config"
	"hudoverlay/internal/fonts"
	"hudoverlay/internal/logging"
)

func TestHolderSwapNotifiesListeners(t *testing.T) {
	first := config.Default()
	holder := config.NewHolder(&first, "")

	var calls atomic.Int32
	holder.OnChange(func(prev, next *config.Config) {
		calls.Add(1)
		if prev.Fonts.Normal != 16 || next.Fonts.Normal != 11 {
			t.Errorf("listener got prev=%d next=%d", prev.Fonts.Normal, next.Fonts.Normal)
		}
	})

	resolver := fonts.NewResolver(holder)
	if got := resolver.Resolve("anyone", fonts.Normal); got != 16 {
		t.Fatalf("before swap = %d", got)
	}

	second := config.Default()
	second.Fonts.Normal = 11
	holder.Swap(&second)
	holder.Swap(nil)

	if got := resolver.Resolve("anyone", fonts.Normal); got != 11 {
		t.Fatalf("after swap = %d", got)
	}
	if calls.Load() != 1 {
		t.Fatalf("listener calls = %d", calls.Load())
	}
}

func TestWatchReloadsOnWrite(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[fonts]\nnormal = 12\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	holder := config.NewHolder(cfg, path)
	changed := make(chan int, 4)
	holder.OnChange(func(_, next *config.Config) { changed <- next.Fonts.Normal })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := config.Watch(ctx, holder, logging.NewNop()); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	if err := os.WriteFile(path, []byte("[fonts]\nnormal = [broken\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(500 * time.Millisecond)
	if holder.Current().Fonts.Normal != 12 {
		t.Fatal("invalid file must not replace the active config")
	}

	if err := os.WriteFile(path, []byte("[fonts]\nnormal = 14\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case got := <-changed:
		if got != 14 {
			t.Fatalf("reloaded normal = %d", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("config was not reloaded")
	}
}
