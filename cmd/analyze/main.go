// Command analyze prints spawn statistics for the game configurations in a
// config directory: how many caches the generator places around each anchor,
// how many coins they hold, and where the richest and nearest ones are.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/geocoin/game/config"
	"github.com/wricardo/mcp-training/geocoin/game/engine"
)

// Analysis summarizes the caches generated in one square neighborhood
type Analysis struct {
	Name        string
	Anchor      engine.LatLng
	AnchorCell  engine.Cell
	Radius      int
	CellsSeen   int
	Caches      int
	Expected    float64 // cells * spawn probability
	TotalCoins  int
	EmptyCaches int
	Richest     *engine.CacheView
	Nearest     *engine.CacheView
}

func main() {
	if err := newApp(os.Stdout).Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "spawn statistics for game configurations",
		ArgsUsage: "[config-id ...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "directory containing game configurations"},
			&cli.IntFlag{Name: "radius", Usage: "neighborhood radius in cells (default: each config's visibility radius)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			manager, err := config.NewManager(cmd.String("config-dir"))
			if err != nil {
				return err
			}

			ids := cmd.Args().Slice()
			if len(ids) == 0 {
				infos, err := manager.ListConfigs()
				if err != nil {
					return err
				}
				for _, info := range infos {
					ids = append(ids, info.ConfigID)
				}
			}

			for _, id := range ids {
				cfg, err := manager.LoadConfig(id)
				if err != nil {
					fmt.Fprintf(out, "\n=== %s ===\nError: %v\n", id, err)
					continue
				}
				printAnalysis(out, id, analyzeConfig(cfg, int(cmd.Int("radius"))))
			}
			return nil
		},
	}
}

// analyzeConfig runs the generator over the neighborhood of cfg's anchor.
// A radius of zero uses cfg.VisibilityRadius.
func analyzeConfig(cfg *engine.GameConfig, radius int) Analysis {
	if radius <= 0 {
		radius = cfg.VisibilityRadius
	}

	board := engine.NewBoard(cfg.TileWidth, radius, engine.WithSpawnProbability(cfg.SpawnProbability))
	anchor := *board.GetCellForPoint(cfg.Anchor.Point())
	side := 2 * radius

	a := Analysis{
		Name:       cfg.Name,
		Anchor:     cfg.Anchor,
		AnchorCell: anchor,
		Radius:     radius,
		CellsSeen:  side * side,
		Expected:   float64(side*side) * cfg.SpawnProbability,
	}

	var views []engine.CacheView
	for _, cell := range board.GetCellsNearPoint(cfg.Anchor.Point()) {
		coins := board.InitialCoins(*cell, cfg.MaxInitialCoins)
		views = append(views, engine.CacheView{
			Cell:     *cell,
			Coins:    coins,
			Distance: engine.ChebyshevDistance(anchor, *cell),
		})
		if coins == 0 {
			a.EmptyCaches++
		}
	}

	a.Caches = len(views)
	a.TotalCoins = engine.CountCoins(views)
	if richest, ok := engine.FindRichestCache(views); ok {
		a.Richest = &richest
	}
	for i := range views {
		if a.Nearest == nil || views[i].Distance < a.Nearest.Distance {
			a.Nearest = &views[i]
		}
	}
	return a
}

func printAnalysis(out io.Writer, id string, a Analysis) {
	fmt.Fprintf(out, "\n=== %s ===\n", id)
	fmt.Fprintf(out, "Name: %s\n", a.Name)
	fmt.Fprintf(out, "Anchor: %.6f, %.6f (cell %s)\n", a.Anchor.Lat, a.Anchor.Lng, a.AnchorCell)
	fmt.Fprintf(out, "Neighborhood: %d cells (radius %d)\n", a.CellsSeen, a.Radius)
	fmt.Fprintf(out, "Caches: %d (expected %.1f)\n", a.Caches, a.Expected)
	fmt.Fprintf(out, "Total coins: %d\n", a.TotalCoins)

	if a.Caches == 0 {
		fmt.Fprintf(out, "WARNING: no caches around the anchor, players must walk to find any\n")
		return
	}
	if a.EmptyCaches > 0 {
		fmt.Fprintf(out, "Empty caches: %d\n", a.EmptyCaches)
	}
	fmt.Fprintf(out, "Richest: %s with %d coins\n", a.Richest.Cell, a.Richest.Coins)
	fmt.Fprintf(out, "Nearest: %s, %d cells away\n", a.Nearest.Cell, a.Nearest.Distance)
}
