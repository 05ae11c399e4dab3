package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// GameMessages are the player-facing texts of a configuration
type GameMessages struct {
	Welcome   string `json:"welcome"`
	Moved     string `json:"moved"`     // %d: number of visible caches
	Collected string `json:"collected"` // %s: token
	Deposited string `json:"deposited"` // %s: token
	Reset     string `json:"reset"`
}

// GameConfig represents the game configuration from JSON
type GameConfig struct {
	Name             string       `json:"name"`
	Description      string       `json:"description"`
	TileWidth        float64      `json:"tile_width"`
	VisibilityRadius int          `json:"visibility_radius"`
	SpawnProbability float64      `json:"spawn_probability"`
	MaxInitialCoins  int          `json:"max_initial_coins"`
	Anchor           LatLng       `json:"anchor"`
	SerialPolicy     string       `json:"serial_policy"`
	Messages         GameMessages `json:"messages"`
}

// DefaultGameConfig returns the built-in configuration centered on the classroom anchor
func DefaultGameConfig() *GameConfig {
	return &GameConfig{
		Name:             "classroom",
		Description:      "Caches around the Merrill classroom, 0.0001° cells",
		TileWidth:        1e-4,
		VisibilityRadius: 8,
		SpawnProbability: DefaultSpawnProbability,
		MaxInitialCoins:  DefaultMaxInitialCoins,
		Anchor:           LatLng{Lat: 36.9995, Lng: -122.0533},
		SerialPolicy:     SerialPerCell,
		Messages: GameMessages{
			Welcome:   "Welcome! Walk around to find geocaches and collect their coins.",
			Moved:     "%d caches nearby",
			Collected: "Collected coin %s",
			Deposited: "Deposited coin %s",
			Reset:     "Game reset. Every cache is back to its original coins.",
		},
	}
}

// ValidateGameConfig validates a game configuration for correctness and playability
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}

	// Validate required fields
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}

	// Validate grid parameters
	if config.TileWidth < MinTileWidth || config.TileWidth > MaxTileWidth {
		return fmt.Errorf("config validation: tile_width must be between %g and %g, got %g", MinTileWidth, MaxTileWidth, config.TileWidth)
	}
	if config.VisibilityRadius < MinVisibilityRadius || config.VisibilityRadius > MaxVisibilityRadius {
		return fmt.Errorf("config validation: visibility_radius must be between %d and %d, got %d",
			MinVisibilityRadius, MaxVisibilityRadius, config.VisibilityRadius)
	}
	if config.SpawnProbability <= 0 || config.SpawnProbability > 1 {
		return fmt.Errorf("config validation: spawn_probability must be in (0, 1], got %g", config.SpawnProbability)
	}
	if config.MaxInitialCoins < 1 || config.MaxInitialCoins > MaxInitialCoins {
		return fmt.Errorf("config validation: max_initial_coins must be between 1 and %d, got %d",
			MaxInitialCoins, config.MaxInitialCoins)
	}
	if !config.Anchor.Valid() {
		return fmt.Errorf("config validation: anchor (%g, %g) is outside lat/lng range", config.Anchor.Lat, config.Anchor.Lng)
	}
	if _, err := NewSerialPolicy(config.SerialPolicy); err != nil {
		return fmt.Errorf("config validation: %v", err)
	}

	// Validate messages
	if config.Messages.Welcome == "" {
		return fmt.Errorf("config validation: messages.welcome is required")
	}
	if config.Messages.Moved != "" && templateVerbs(config.Messages.Moved) != "d" {
		return fmt.Errorf("config validation: messages.moved must contain exactly one %%d for the cache count")
	}
	if config.Messages.Collected != "" && templateVerbs(config.Messages.Collected) != "s" {
		return fmt.Errorf("config validation: messages.collected must contain exactly one %%s for the token")
	}
	if config.Messages.Deposited != "" && templateVerbs(config.Messages.Deposited) != "s" {
		return fmt.Errorf("config validation: messages.deposited must contain exactly one %%s for the token")
	}

	return nil
}

// templateVerbs returns the formatting verbs of a message template in order,
// skipping literal %%. Flags and widths are not allowed, so "%5d" yields "5".
func templateVerbs(template string) string {
	var verbs strings.Builder
	for i := 0; i < len(template); i++ {
		if template[i] != '%' {
			continue
		}
		i++
		if i == len(template) {
			verbs.WriteByte('%')
			break
		}
		if template[i] != '%' {
			verbs.WriteByte(template[i])
		}
	}
	return verbs.String()
}

// ParseGameConfig decodes JSON on top of DefaultGameConfig, so files only
// need to list the fields they change, and validates the result
func ParseGameConfig(data []byte) (*GameConfig, error) {
	config := DefaultGameConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, err
	}
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadGameConfig loads a game configuration from a JSON file
func LoadGameConfig(filename string) (*GameConfig, error) {
	// Support CONFIG_DIR environment variable for alternative config directory
	configPath := filename
	if configDir := os.Getenv("CONFIG_DIR"); configDir != "" {
		if strings.HasPrefix(filename, "configs/") {
			configPath = filepath.Join(configDir, strings.TrimPrefix(filename, "configs/"))
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	return ParseGameConfig(data)
}

// LoadConfigByName loads a game configuration by name from the configs directory
func LoadConfigByName(configName string) (*GameConfig, error) {
	if !strings.HasSuffix(configName, ".json") {
		configName = configName + ".json"
	}

	config, err := LoadGameConfig("configs/" + configName)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file '%s' not found", configName)
		}
		return nil, fmt.Errorf("invalid config '%s': %v", configName, err)
	}
	return config, nil
}

// newBoardFromConfig builds the Board described by config
func newBoardFromConfig(config *GameConfig, luck LuckFunc) *Board {
	return NewBoard(config.TileWidth, config.VisibilityRadius,
		WithSpawnProbability(config.SpawnProbability),
		WithLuck(luck),
	)
}
