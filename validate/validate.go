// Command validate checks every game configuration JSON file in a config
// directory. It checks:
//   - JSON structure, rejecting unknown fields so typos do not pass silently
//   - The rules enforced by the game engine (tile width, radius, spawn probability, messages)
//   - Playability: the anchor neighborhood holds at least one cache with coins
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/geocoin/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

// validateConfig loads and validates a single configuration JSON file
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to read file: %v", err))
		return result
	}

	config := engine.DefaultGameConfig()
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(config); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Invalid JSON: %v", err))
		return result
	}

	if err := engine.ValidateGameConfig(config); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, strings.TrimPrefix(err.Error(), "config validation: "))
		return result
	}

	playability := validatePlayability(config)
	if !playability.Valid {
		result.Valid = false
		result.Errors = append(result.Errors, playability.Errors...)
		return result
	}

	anchor := engine.NewBoard(config.TileWidth, config.VisibilityRadius).GetCellForPoint(config.Anchor.Point())
	result.Errors = append(result.Errors, fmt.Sprintf("✓ Name: %s", config.Name))
	result.Errors = append(result.Errors, fmt.Sprintf("✓ Anchor: %.6f, %.6f (cell %s)", config.Anchor.Lat, config.Anchor.Lng, anchor))
	result.Errors = append(result.Errors, fmt.Sprintf("✓ Tile width: %g°, radius: %d", config.TileWidth, config.VisibilityRadius))
	result.Errors = append(result.Errors, fmt.Sprintf("✓ Serial policy: %s", config.SerialPolicy))
	result.Errors = append(result.Errors, playability.Errors...)

	return result
}

// validatePlayability ensures a new player sees at least one cache with
// coins from the anchor
func validatePlayability(config *engine.GameConfig) ValidationResult {
	result := ValidationResult{Valid: true, Errors: []string{}}

	board := engine.NewBoard(config.TileWidth, config.VisibilityRadius, engine.WithSpawnProbability(config.SpawnProbability))
	cells := board.GetCellsNearPoint(config.Anchor.Point())
	if len(cells) == 0 {
		result.Valid = false
		result.Errors = append(result.Errors, "No caches spawn within sight of the anchor")
		return result
	}

	coins := 0
	for _, cell := range cells {
		coins += board.InitialCoins(*cell, config.MaxInitialCoins)
	}
	if coins == 0 {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("All %d caches near the anchor start empty", len(cells)))
		return result
	}

	result.Errors = append(result.Errors, fmt.Sprintf("✓ Caches near anchor: %d (%d coins)", len(cells), coins))
	return result
}

// validateDir validates every *.json file in dir, printing a report to out.
// It reports whether all files were valid.
func validateDir(out io.Writer, dir string) (bool, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return false, fmt.Errorf("finding config files: %w", err)
	}
	if len(files) == 0 {
		return false, fmt.Errorf("no config files in %s", dir)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Fprintf(out, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(out, "✅ VALID")
			for _, info := range result.Errors {
				fmt.Fprintln(out, "  "+info)
			}
		} else {
			fmt.Fprintln(out, "❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				fmt.Fprintln(out, "  ❌ "+err)
			}
		}
	}

	fmt.Fprintf(out, "\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Fprintln(out, "✅ All configurations are valid!")
	} else {
		fmt.Fprintln(out, "❌ Some configurations have errors")
	}
	return allValid, nil
}

func newApp(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "validate game configuration files",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "directory containing game configurations"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ok, err := validateDir(out, cmd.String("config-dir"))
			if err != nil {
				return err
			}
			if !ok {
				return cli.Exit("", 1)
			}
			return nil
		},
	}
}

func main() {
	if err := newApp(os.Stdout).Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
