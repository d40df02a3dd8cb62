package catalogs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_RepoConfigs(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "..", "configs"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Blocks.Index[Air] != 0 {
		t.Fatalf("air must be palette id 0, got %d", c.Blocks.Index[Air])
	}
	if n := c.Blocks.ContainerSlots("minecraft:chest"); n != 27 {
		t.Fatalf("chest slots=%d", n)
	}
	if n := c.Blocks.ContainerSlots("minecraft:stone"); n != 0 {
		t.Fatalf("stone slots=%d", n)
	}
	if n, ok := c.Items.MaxStack("minecraft:ender_pearl"); !ok || n != 16 {
		t.Fatalf("ender pearl max=%d ok=%v", n, ok)
	}
	if c.Items.PaletteDigest == "" || c.Blocks.DefsDigest == "" {
		t.Fatalf("missing digests")
	}
}

func TestLoad_DefaultsMaxStack(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	write("blocks.json", `[{"id":"minecraft:air"}]`)
	write("items.json", `[{"id":"minecraft:stick"}]`)

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if n, _ := c.Items.MaxStack("minecraft:stick"); n != DefaultMaxStack {
		t.Fatalf("max=%d", n)
	}
}

func TestNew_RequiresAir(t *testing.T) {
	if _, err := New([]BlockDef{{ID: "minecraft:stone"}}, nil); err == nil {
		t.Fatalf("expected missing air rejected")
	}
	if _, err := New([]BlockDef{{ID: Air}, {ID: ""}}, nil); err == nil {
		t.Fatalf("expected empty id rejected")
	}
}
