package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

const DefaultMaxStack = 64

type Catalogs struct {
	Blocks BlockCatalog
	Items  ItemCatalog
}

type BlockCatalog struct {
	Palette       []string
	Index         map[string]uint16
	Defs          map[string]BlockDef
	PaletteDigest string
	DefsDigest    string
}

type BlockDef struct {
	ID             string `json:"id"`
	Solid          bool   `json:"solid"`
	ContainerSlots int    `json:"container_slots,omitempty"`
}

type ItemCatalog struct {
	Palette       []string
	Index         map[string]uint16
	Defs          map[string]ItemDef
	PaletteDigest string
	DefsDigest    string
}

type ItemDef struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	MaxStack int    `json:"max_stack,omitempty"`
	PlaceAs  string `json:"place_as,omitempty"`
}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs

	if err := loadBlocks(filepath.Join(configDir, "blocks.json"), &c.Blocks); err != nil {
		return nil, err
	}
	if err := loadItems(filepath.Join(configDir, "items.json"), &c.Items); err != nil {
		return nil, err
	}
	return &c, nil
}

// MaxStack implements inventory.MaxStacker.
func (c *ItemCatalog) MaxStack(id string) (int, bool) {
	d, ok := c.Defs[id]
	if !ok {
		return 0, false
	}
	return d.MaxStack, true
}

// ContainerSlots returns the slot count for container blocks, 0 otherwise.
func (c *BlockCatalog) ContainerSlots(id string) int {
	return c.Defs[id].ContainerSlots
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadBlocks(path string, out *BlockCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var defs []BlockDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("blocks.json: %w", err)
	}
	if err := out.set(defs); err != nil {
		return fmt.Errorf("blocks.json: %w", err)
	}
	out.DefsDigest = sha256Hex(raw)
	return nil
}

func loadItems(path string, out *ItemCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var defs []ItemDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("items.json: %w", err)
	}
	if err := out.set(defs); err != nil {
		return fmt.Errorf("items.json: %w", err)
	}
	out.DefsDigest = sha256Hex(raw)
	return nil
}

func (out *BlockCatalog) set(defs []BlockDef) error {
	out.Defs = map[string]BlockDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("empty id")
		}
		if d.ContainerSlots < 0 {
			return fmt.Errorf("%s: negative container_slots", d.ID)
		}
		out.Defs[d.ID] = d
	}

	// Ensure air exists and is palette id 0.
	if _, ok := out.Defs[Air]; !ok {
		return fmt.Errorf("missing %s", Air)
	}
	ids := sortedKeys(out.Defs)
	ids = append([]string{Air}, filterOut(ids, Air)...)

	out.Palette = ids
	out.Index = make(map[string]uint16, len(ids))
	for i, id := range ids {
		out.Index[id] = uint16(i)
	}
	palJSON, _ := json.Marshal(ids)
	out.PaletteDigest = sha256Hex(palJSON)
	return nil
}

func (out *ItemCatalog) set(defs []ItemDef) error {
	out.Defs = map[string]ItemDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("empty id")
		}
		if d.MaxStack == 0 {
			d.MaxStack = DefaultMaxStack
		}
		if d.MaxStack < 0 {
			return fmt.Errorf("%s: negative max_stack", d.ID)
		}
		out.Defs[d.ID] = d
	}

	ids := sortedKeys(out.Defs)
	out.Palette = ids
	out.Index = make(map[string]uint16, len(ids))
	for i, id := range ids {
		out.Index[id] = uint16(i)
	}
	palJSON, _ := json.Marshal(ids)
	out.PaletteDigest = sha256Hex(palJSON)
	return nil
}

// Air is the empty block; it is always palette id 0.
const Air = "minecraft:air"

func sortedKeys[T any](m map[string]T) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func filterOut(in []string, remove string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == remove {
			continue
		}
		out = append(out, s)
	}
	return out
}

// New builds catalogs from in-memory definitions (tests, tools).
func New(blocks []BlockDef, items []ItemDef) (*Catalogs, error) {
	var c Catalogs
	if err := c.Blocks.set(blocks); err != nil {
		return nil, fmt.Errorf("blocks: %w", err)
	}
	if err := c.Items.set(items); err != nil {
		return nil, fmt.Errorf("items: %w", err)
	}
	bb, _ := json.Marshal(blocks)
	ib, _ := json.Marshal(items)
	c.Blocks.DefsDigest = sha256Hex(bb)
	c.Items.DefsDigest = sha256Hex(ib)
	return &c, nil
}
