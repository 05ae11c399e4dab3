// Command harvester is a REST bot that plays a Geocoin session: it walks a
// square spiral out from the anchor and collects coins from every cache it
// sees until it reaches a target score.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

// harvestFunc lets tests observe the options a command line produces
type harvestFunc func(ctx context.Context, client *Client, opts Options) (*Result, error)

func newApp(harvest harvestFunc) *cli.Command {
	return &cli.Command{
		Name:  "harvester",
		Usage: "collect coins from a Geocoin server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "game server URL"},
			&cli.StringFlag{Name: "config", Usage: "game configuration id (default: server default)"},
			&cli.StringFlag{Name: "continue", Usage: "resume playing an existing session by ID"},
			&cli.StringFlag{Name: "session-file", Value: ".session", Usage: "file remembering the session between runs, empty to disable"},
			&cli.IntFlag{Name: "target", Value: 100, Usage: "points to collect"},
			&cli.IntFlag{Name: "per-cache", Value: 1, Usage: "coins to take from each cache, 0 drains it"},
			&cli.IntFlag{Name: "max-moves", Value: 3000, Usage: "maximum moves before giving up"},
			&cli.BoolFlag{Name: "bulk", Usage: "send whole spiral legs as bulk moves"},
			&cli.BoolFlag{Name: "reset", Usage: "reset the session before harvesting"},
			&cli.DurationFlag{Name: "delay", Usage: "pause between moves"},
			&cli.BoolFlag{Name: "v", Usage: "verbose output"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			serverURL := cmd.String("url")
			log.Printf("Connecting to game server at %s", serverURL)

			opts := Options{
				ConfigID:    cmd.String("config"),
				SessionID:   cmd.String("continue"),
				SessionFile: cmd.String("session-file"),
				Target:      int(cmd.Int("target")),
				PerCache:    int(cmd.Int("per-cache")),
				MaxMoves:    int(cmd.Int("max-moves")),
				Bulk:        cmd.Bool("bulk"),
				Reset:       cmd.Bool("reset"),
				Delay:       cmd.Duration("delay"),
				Verbose:     cmd.Bool("v"),
			}

			result, err := harvest(ctx, NewClient(serverURL), opts)
			if err != nil {
				return err
			}

			log.Printf("Moves=%d, Collected=%d, Points=%d/%d, Cell=%s",
				result.Moves, result.Collected, result.Points, opts.Target, result.FinalCell)
			log.Printf("Session: %s", result.SessionID)
			if !result.Reached {
				return cli.Exit("❌ Target not reached", 1)
			}
			log.Printf("🎉 Target reached!")
			return nil
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(Harvest).Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
