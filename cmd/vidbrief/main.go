// Command vidbrief is the client front-end. The default command serves the
// browser UI against a running API server; `vidbrief tui` runs the same
// pipeline in the terminal instead.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vidbrief/vidbrief/internal/config"
	"github.com/vidbrief/vidbrief/internal/entitlement"
	"github.com/vidbrief/vidbrief/internal/pipeline"
	"github.com/vidbrief/vidbrief/internal/tui"
	"github.com/vidbrief/vidbrief/internal/webapp"
)

// CLI defines the vidbrief command structure.
type CLI struct {
	// Default command serves the browser UI (runs when no subcommand given)
	UI UICmd `cmd:"" default:"withargs" help:"Serve the browser UI"`

	// Subcommands
	TUI    TUICmd    `cmd:"" help:"Run the terminal UI"`
	Config ConfigCmd `cmd:"" help:"Manage configuration"`
}

// UICmd serves the embedded browser front-end.
type UICmd struct {
	APIBaseURL string `flag:"" optional:"" env:"API_BASE_URL" help:"Base URL of the vidbrief API server"`
	Port       string `flag:"" optional:"" env:"UI_PORT" help:"Port to serve the UI on"`
}

// Run executes the UI command.
func (c *UICmd) Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if c.APIBaseURL != "" {
		cfg.APIBaseURL = c.APIBaseURL
	}

	if c.Port != "" {
		cfg.UIPort = c.Port
	}

	logger := slog.Default()

	coord := newCoordinator(cfg, logger)
	app := webapp.New(cfg, logger, coord)

	logger.Info("serving browser UI", "port", cfg.UIPort, "api", cfg.APIBaseURL)

	if err := app.Run(); err != nil {
		return fmt.Errorf("serve UI: %w", err)
	}

	return nil
}

// TUICmd runs the pipeline in the terminal.
type TUICmd struct {
	APIBaseURL string `flag:"" optional:"" env:"API_BASE_URL" help:"Base URL of the vidbrief API server"`
}

// Run executes the TUI command.
func (c *TUICmd) Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if c.APIBaseURL != "" {
		cfg.APIBaseURL = c.APIBaseURL
	}

	// Keep log noise off the alternate screen.
	logger := slog.New(slog.DiscardHandler)

	coord := newCoordinator(cfg, logger)

	p := tea.NewProgram(tui.New(coord), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run TUI: %w", err)
	}

	return nil
}

func newCoordinator(cfg *config.Config, logger *slog.Logger) *pipeline.Coordinator {
	ents := entitlement.NewStore(logger)
	if tok := ents.Load(); tok != "" {
		logger.Debug("entitlement token loaded from keychain")
	}

	return pipeline.NewCoordinator(pipeline.NewClient(cfg.APIBaseURL), ents, logger)
}

// ConfigCmd groups entitlement token management.
type ConfigCmd struct {
	SetToken SetTokenCmd `cmd:"" name:"set-token" help:"Store an access token in the system keychain"`
	Show     ShowCmd     `cmd:"" help:"Show whether an access token is configured"`
}

// SetTokenCmd stores the access token in the system keychain.
type SetTokenCmd struct {
	Token string `arg:"" help:"Access token value"`
}

// Run executes the set-token command.
func (c *SetTokenCmd) Run() error {
	if strings.TrimSpace(c.Token) == "" {
		return errors.New("access token cannot be empty")
	}

	ents := entitlement.NewStore(slog.Default())
	ents.Grant(c.Token)

	fmt.Println("access token stored in keychain")

	return nil
}

// ShowCmd reports whether a token is configured without printing it.
type ShowCmd struct{}

// Run executes the show command.
func (c *ShowCmd) Run() error {
	ents := entitlement.NewStore(slog.Default())
	if ents.Load() == "" {
		fmt.Println("access token: not configured")
	} else {
		fmt.Println("access token: configured")
	}

	return nil
}

func main() {
	// Set up text-based logger for CLI output
	//nolint:exhaustruct // Using default values for other HandlerOptions fields
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))

	cli := &CLI{} //nolint:exhaustruct // Kong fills in command fields
	ctx := kong.Parse(cli)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
	os.Exit(0)
}
