package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	TickRateHz     int `yaml:"tick_rate_hz"`
	WorldBoundaryR int `yaml:"world_boundary_r"`
	Height         int `yaml:"height"`

	Organizer Organizer `yaml:"organizer"`
}

type Organizer struct {
	CheckEveryTicks int      `yaml:"check_every_ticks"`
	CloseDistance   float64  `yaml:"close_distance"`
	ScanRadius      [3]int   `yaml:"scan_radius"` // x, y, z half-extents
	StorageBlocks   []string `yaml:"storage_blocks"`
	Commands        []string `yaml:"commands"`
	Locale          string   `yaml:"locale"`
	Messages        Messages `yaml:"messages"`
}

type Messages struct {
	AutoOrganized    string `yaml:"auto_organized"`
	CommandOrganized string `yaml:"command_organized"` // %d = organized count
	NoneFound        string `yaml:"none_found"`
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion: "0.1",
		TickRateHz:      20,
		WorldBoundaryR:  256,
		Height:          128,
		Organizer:       DefaultOrganizer(),
	}
}

func DefaultOrganizer() Organizer {
	return Organizer{
		CheckEveryTicks: 20,
		CloseDistance:   6,
		ScanRadius:      [3]int{2, 1, 2},
		StorageBlocks:   []string{"minecraft:chest", "minecraft:trapped_chest"},
		Commands:        []string{"!organizar", "!organize"},
		Locale:          "en",
		Messages: Messages{
			AutoOrganized:    "§a[Organizer] Chest organized automatically!",
			CommandOrganized: "§a[Organizer] %d chest(s) organized!",
			NoneFound:        "§c[Organizer] No chests found nearby!",
		},
	}
}

func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if t.TickRateHz <= 0 {
		return fmt.Errorf("tick_rate_hz must be > 0")
	}
	if t.WorldBoundaryR <= 0 || t.Height <= 0 {
		return fmt.Errorf("world_boundary_r and height must be > 0")
	}
	o := t.Organizer
	if o.CheckEveryTicks <= 0 {
		return fmt.Errorf("organizer.check_every_ticks must be > 0")
	}
	if o.CloseDistance <= 0 {
		return fmt.Errorf("organizer.close_distance must be > 0")
	}
	for _, r := range o.ScanRadius {
		if r < 0 {
			return fmt.Errorf("organizer.scan_radius must be >= 0")
		}
	}
	if len(o.StorageBlocks) == 0 {
		return fmt.Errorf("organizer.storage_blocks is empty")
	}
	return nil
}
