// Command geocoin starts the Geocoin game server.
//
// It supports two modes:
//  1. "server" (default) runs the HTTP server exposing the REST API, WebSocket updates and an /mcp endpoint
//  2. "stdio-mcp" runs an MCP stdio server, spinning up an internal HTTP API if none is available
//
// Settings come from the environment (and a .env file); flags override them.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/mcp-training/geocoin/api"
	"github.com/wricardo/mcp-training/geocoin/game/config"
	"github.com/wricardo/mcp-training/geocoin/game/service"
	"github.com/wricardo/mcp-training/geocoin/game/session"
	"github.com/wricardo/mcp-training/geocoin/transport/mcp"
	"github.com/wricardo/mcp-training/geocoin/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Geocoin Server"
)

const (
	modeServer = "server"
	modeStdio  = "stdio-mcp"
)

// runFunc starts the selected mode with the resolved settings
type runFunc func(ctx context.Context, mode string, settings *config.ServerSettings) error

func main() {
	// A missing .env is fine
	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	} else {
		log.Println("Loaded environment variables from .env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(run).Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

// newApp builds the command line. Flags are inherited by the subcommands.
func newApp(runner runFunc) *cli.Command {
	action := func(mode string) cli.ActionFunc {
		return func(ctx context.Context, cmd *cli.Command) error {
			settings, err := settingsFromCommand(cmd)
			if err != nil {
				return err
			}
			return runner(ctx, mode, settings)
		}
	}

	return &cli.Command{
		Name:    "geocoin",
		Usage:   "geocache coin collecting game over a lat/lng grid",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Value: "localhost", Usage: "HTTP server host (GEOCOIN_HOST)"},
			&cli.IntFlag{Name: "port", Value: 8080, Usage: "HTTP server port (PORT)"},
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "directory containing game configurations (CONFIG_DIR)"},
			&cli.BoolFlag{Name: "debug", Usage: "enable debug logging (GEOCOIN_DEBUG)"},
			&cli.BoolFlag{Name: "ngrok", Usage: "enable ngrok tunnel (NGROK_ENABLED)"},
			&cli.StringFlag{Name: "ngrok-auth", Usage: "ngrok auth token (NGROK_AUTHTOKEN)"},
			&cli.StringFlag{Name: "ngrok-domain", Usage: "custom ngrok domain (NGROK_DOMAIN)"},
		},
		Action: action(modeServer),
		Commands: []*cli.Command{
			{
				Name:    modeServer,
				Aliases: []string{"http"},
				Usage:   "run HTTP server with API, WebSocket and MCP endpoint",
				Action:  action(modeServer),
			},
			{
				Name:    modeStdio,
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "run MCP stdio server backed by an HTTP API",
				Action:  action(modeStdio),
			},
		},
	}
}

// settingsFromCommand reads the environment, then applies any flag the user set
func settingsFromCommand(cmd *cli.Command) (*config.ServerSettings, error) {
	settings, err := config.LoadServerSettings()
	if err != nil {
		return nil, err
	}

	if cmd.IsSet("host") {
		settings.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		settings.Port = int(cmd.Int("port"))
	}
	if cmd.IsSet("config-dir") {
		settings.ConfigDir = cmd.String("config-dir")
	}
	if cmd.IsSet("debug") {
		settings.Debug = cmd.Bool("debug")
	}
	if cmd.IsSet("ngrok") {
		settings.NgrokEnabled = cmd.Bool("ngrok")
	}
	if cmd.IsSet("ngrok-auth") {
		settings.NgrokAuthToken = cmd.String("ngrok-auth")
	}
	if cmd.IsSet("ngrok-domain") {
		settings.NgrokDomain = cmd.String("ngrok-domain")
	}
	return settings, nil
}

func run(ctx context.Context, mode string, settings *config.ServerSettings) error {
	if settings.Debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags)
	}

	log.Printf("Starting %s v%s (mode: %s)", AppName, Version, mode)

	gameService, err := initializeServices(ctx, settings)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	if mode == modeStdio {
		return runStdioMCPWithInternalServer(ctx, gameService, settings)
	}
	return runHTTPServer(ctx, gameService, settings)
}

// initializeServices wires session/config managers and the game service.
// Idle sessions are pruned in the background until ctx is done.
func initializeServices(ctx context.Context, settings *config.ServerSettings) (service.GameService, error) {
	configManager, err := config.NewManager(settings.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	sessionManager := session.NewManager()
	if settings.CleanupInterval > 0 {
		sessionManager.StartCleanup(ctx, settings.CleanupInterval, settings.SessionMaxAge)
	}

	return service.NewGameService(sessionManager, configManager), nil
}

// newHandler mounts the API at / and the MCP JSON-RPC endpoint at /mcp
func newHandler(apiServer http.Handler, mcpClient *mcp.Client) http.Handler {
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)

	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(responseData)
	})

	return mainRouter
}

// runHTTPServer serves the REST API, WebSocket hub and /mcp until ctx is done.
// If ngrok is enabled it also serves through a public tunnel.
func runHTTPServer(ctx context.Context, gameService service.GameService, settings *config.ServerSettings) error {
	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Stop()

	addr := settings.Addr()
	mcpClient := mcp.NewClient("http://" + addr)
	handler := newHandler(api.NewServer(gameService, hub), mcpClient)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Printf("HTTP server listening on %s", addr)
		log.Printf("REST API: http://%s/api", addr)
		log.Printf("WebSocket: ws://%s/ws?session=<session_id>", addr)
		log.Printf("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	if settings.NgrokEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, settings, handler)
		}()
	}

	select {
	case <-ctx.Done():
		log.Println("Shutting down...")
	case err := <-serveErr:
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	wg.Wait()
	log.Println("Server stopped")
	return nil
}

// runNgrokTunnel serves handler through an ngrok endpoint until ctx is done
func runNgrokTunnel(ctx context.Context, settings *config.ServerSettings, handler http.Handler) {
	if settings.NgrokAuthToken == "" {
		log.Println("WARNING: Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN)")
		return
	}

	log.Println("Starting ngrok tunnel...")

	var tunnel ngrokConfig.Tunnel
	if settings.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(settings.NgrokDomain))
		log.Printf("Using custom ngrok domain: %s", settings.NgrokDomain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(settings.NgrokAuthToken))
	if err != nil {
		log.Printf("Failed to start ngrok tunnel: %v", err)
		return
	}

	// Serve returns once the tunnel is closed
	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Printf("Failed to close ngrok tunnel: %v", err)
		}
	}()

	ngrokURL := tun.URL()
	log.Printf("Ngrok tunnel established: %s", ngrokURL)
	log.Printf("  REST API (ngrok): %s/api", ngrokURL)
	log.Printf("  WebSocket (ngrok): %s/ws?session=<session_id>", ngrokURL)
	log.Printf("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		log.Printf("Ngrok server error: %v", err)
	}
	log.Println("Ngrok tunnel closed")
}

// runStdioMCPWithInternalServer runs an MCP stdio server. It reuses an API
// already listening at the configured address, or starts one on a random
// loopback port.
func runStdioMCPWithInternalServer(ctx context.Context, gameService service.GameService, settings *config.ServerSettings) error {
	externalURL := "http://" + settings.Addr()
	baseURL := externalURL

	log.Printf("Checking for external API server at %s...", externalURL)
	if !apiAvailable(externalURL) {
		log.Printf("No external API server found, starting internal HTTP server")

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}
		baseURL = "http://" + listener.Addr().String()

		hub := websocket.NewHub()
		go hub.Run()
		defer hub.Stop()

		httpServer := &http.Server{Handler: api.NewServer(gameService, hub)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("Internal HTTP server error: %v", err)
			}
		}()
		defer httpServer.Close()

		log.Printf("Internal HTTP server for MCP stdio on %s", baseURL)
	} else {
		log.Printf("External API server found at %s, using it for MCP", externalURL)
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Println("MCP stdio server ready")

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

// apiAvailable reports whether a Geocoin API answers at baseURL
func apiAvailable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
