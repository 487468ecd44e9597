// Package cli implements the mindgraph command-line interface.
//
// Commands talk to a running mindgraph server through [client.Client], except
// `serve`, which runs the server, and the offline modes of `render` and
// `diagram`. Settings come from the TOML file managed by [config]; flags
// override it.
package cli

import (
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/mindgraph/internal/config"
	"github.com/matzehuels/mindgraph/pkg/buildinfo"
	"github.com/matzehuels/mindgraph/pkg/client"
	"github.com/matzehuels/mindgraph/pkg/editor"
	"github.com/matzehuels/mindgraph/pkg/httputil"
	"github.com/matzehuels/mindgraph/pkg/mindmap"
	"github.com/matzehuels/mindgraph/pkg/mindmap/layout"
	"github.com/matzehuels/mindgraph/pkg/observability"
)

// =============================================================================
// Constants
// =============================================================================

const appName = "mindgraph"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Out receives command output; nil selects stdout.
	Out io.Writer

	configPath string
	serverURL  string
	verbose    bool
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "mindgraph edits mind maps and node-link diagrams",
		Long: `mindgraph serves, edits and renders bidirectional mind maps.

Run "mindgraph serve" to start the backend, then use the other commands
(or "mindgraph tui") to load, extend and save the graphs it stores.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.SetLogLevel(LogDebug)
				registerHooks(c.Logger)
			}
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	flags.StringVar(&c.configPath, "config", "", "config file (default "+config.Path()+")")
	flags.StringVarP(&c.serverURL, "server", "s", "", "mindgraph server URL (overrides config)")

	root.AddCommand(c.serveCommand())
	root.AddCommand(c.showCommand())
	root.AddCommand(c.addCommand())
	root.AddCommand(c.saveCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.diagramCommand())
	root.AddCommand(c.tuiCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Configuration
// =============================================================================

func (c *CLI) loadConfig() error {
	var (
		cfg *config.Config
		err error
	)
	if c.configPath != "" {
		cfg, err = config.LoadFile(c.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if c.serverURL != "" {
		cfg.Client.BaseURL = c.serverURL
	}
	c.cfg = cfg
	return nil
}

// settings returns the loaded configuration, or defaults when a command runs
// without the root pre-run (as in tests).
func (c *CLI) settings() *config.Config {
	if c.cfg == nil {
		c.cfg = config.Default()
		if c.serverURL != "" {
			c.cfg.Client.BaseURL = c.serverURL
		}
	}
	return c.cfg
}

func (c *CLI) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

// =============================================================================
// Client & Editor Factories
// =============================================================================

func (c *CLI) newClient() (*client.Client, error) {
	cfg := c.settings()
	return client.New(cfg.Client.BaseURL,
		client.WithHTTPClient(&http.Client{Timeout: cfg.Timeout()}),
		client.WithRetry(cfg.Client.Retries, client.DefaultDelay),
	)
}

func (c *CLI) newEditor(kind mindmap.Kind) (*editor.Editor, error) {
	cl, err := c.newClient()
	if err != nil {
		return nil, err
	}
	cfg := c.settings()
	engine, err := cfg.Engine()
	if err != nil {
		return nil, err
	}
	return editor.New(cl, editor.Options{
		Kind:   kind,
		Tree:   engine,
		Linked: layout.GraphvizLayout{},
		Insert: cfg.InsertOptions(),
		Logger: c.Logger,
	}), nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/mindgraph/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// dataDir returns where the file store keeps graphs (~/.local/share/mindgraph/graphs/).
func dataDir() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, appName, "graphs"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", appName, "graphs"), nil
}

func newCache() (*httputil.Cache, error) {
	dir, err := cacheDir()
	if err != nil {
		return nil, err
	}
	return httputil.NewCache(dir, 0)
}

func registerHooks(logger *log.Logger) {
	h := &logHooks{logger: logger}
	observability.SetHTTPHooks(h)
	observability.SetLayoutHooks(h)
	observability.SetStoreHooks(h)
}
