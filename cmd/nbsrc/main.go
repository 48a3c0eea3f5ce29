package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/arun279/notebook-sources/internal/adapter"
	"github.com/arun279/notebook-sources/internal/scraperd"
	"github.com/arun279/notebook-sources/internal/service"
	"github.com/arun279/notebook-sources/internal/store"
	"github.com/arun279/notebook-sources/internal/tui"
	"github.com/arun279/notebook-sources/internal/tui/styles"
)

// Version is set at build time via -ldflags
var Version = "dev"

// clearSpinnerLine clears the spinner line from the terminal
const clearSpinnerLine = "\r                                    \r"

func main() {
	var showVersion bool
	var clearCache bool
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.BoolVar(&clearCache, "clear-cache", false, "remove the offline snapshot cache")
	flag.Parse()

	if showVersion {
		fmt.Printf("nbsrc %s\n", Version)
		return
	}

	if clearCache {
		if err := adapter.ClearCache(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Cache cleared.")
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := adapter.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := adapter.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = adapter.NullLogger()
	}
	slog.SetDefault(logger)

	logger.Info("starting nbsrc", "version", Version)

	if !cfg.IsConfigured() {
		return runSetupFlow(cfg)
	}

	client := scraperd.NewClient(cfg.Server.URL, cfg.Server.Token, logger)

	cache, err := store.NewSnapshotStore(adapter.GetCachePath(), cfg.Server.URL)
	if err != nil {
		return fmt.Errorf("failed to open snapshot cache: %w", err)
	}
	defer cache.Close()

	reconciler := service.NewReconciler(logger)
	registry := service.NewRegistry(client, logger)
	collectionSvc := service.NewCollectionService(client, cache, reconciler, logger)
	poller := service.NewPoller(client, cfg.Sync.PollInterval, logger)

	model := tui.NewModel(collectionSvc, registry, poller, client, tui.Options{
		SummaryInterval: cfg.Sync.SummaryInterval,
		Aggressive:      cfg.Scrape.Aggressive,
		DownloadDir:     cfg.Scrape.DownloadDir,
	})

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	logger.Info("starting TUI")

	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	logger.Info("shutting down")
	return nil
}

// runSetupFlow handles the initial setup when not configured
func runSetupFlow(cfg *adapter.Config) error {
	fmt.Println()
	fmt.Println("Welcome to nbsrc!")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)

	var serverURL string
	for {
		fmt.Print("Enter your scraper server URL (e.g., http://localhost:8000): ")
		input, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		serverURL = strings.TrimSpace(input)

		if serverURL == "" {
			fmt.Println("Server URL cannot be empty. Please try again.")
			continue
		}
		if !strings.HasPrefix(serverURL, "http://") && !strings.HasPrefix(serverURL, "https://") {
			serverURL = "http://" + serverURL
		}

		fmt.Println()
		if err := probeServerWithSpinner(serverURL); err != nil {
			fmt.Printf("\n✗ Could not reach server: %v\n", err)
			fmt.Println("Please check the URL and try again.")
			fmt.Println()
			continue
		}
		break
	}

	fmt.Print("API token (optional, press enter to skip): ")
	tokenBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("failed to read token: %w", err)
	}

	cfg.Server.URL = serverURL
	cfg.Server.Token = strings.TrimSpace(string(tokenBytes))

	if err := adapter.SaveConfig(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Println("✓ Configuration saved!")
	fmt.Println()
	fmt.Println("Run nbsrc again to start the application.")

	return nil
}

// probeServerWithSpinner verifies the server answers the summary endpoint
func probeServerWithSpinner(serverURL string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client := scraperd.NewClient(serverURL, "", adapter.NullLogger())

	errCh := make(chan error, 1)
	go func() {
		_, err := client.ListCollections(ctx)
		errCh <- err
	}()

	frame := 0
	fmt.Printf("\r%s Checking server...", styles.SpinnerFrames[frame])

	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case err := <-errCh:
			fmt.Print(clearSpinnerLine)
			if err != nil {
				return err
			}
			fmt.Println("✓ Server reachable")
			return nil

		case <-ticker.C:
			frame++
			fmt.Printf("\r%s Checking server...", styles.SpinnerFrames[frame%len(styles.SpinnerFrames)])

		case <-ctx.Done():
			fmt.Print(clearSpinnerLine)
			return fmt.Errorf("connection timed out")
		}
	}
}
