package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/five82/squadboard/internal/banana"
	"github.com/five82/squadboard/internal/config"
	"github.com/five82/squadboard/internal/logging"
	"github.com/five82/squadboard/internal/prefs"
	"github.com/five82/squadboard/internal/state"
	"github.com/five82/squadboard/internal/stream"
	"github.com/five82/squadboard/internal/ui"
)

// Options configure the squadboard application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses ~/.config/squadboard/prefs.toml
	Server     string // overrides the configured server when set

	// Console mirrors log records to a terminal. The TUI ignores it.
	Console io.Writer
}

// Env holds what every entry point shares: configuration, the logger and
// the pipeline client.
type Env struct {
	Config config.Config
	Logger *logging.Logger
	Client *banana.Client
}

// Setup loads configuration, opens the log and builds the API client.
func Setup(opts Options) (*Env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if server := strings.TrimSpace(opts.Server); server != "" {
		cfg.Server = server
	}

	logger, err := logging.New(logging.Options{File: cfg.LogFile, Level: cfg.LogLevel, Console: opts.Console})
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	client, err := banana.NewClient(cfg.Server, cfg.OutputsPrefix)
	if err != nil {
		_ = logger.Close()
		return nil, fmt.Errorf("init pipeline client: %w", err)
	}

	return &Env{Config: cfg, Logger: logger, Client: client}, nil
}

// Close releases the log file.
func (e *Env) Close() error {
	return e.Logger.Close()
}

// Streams returns a connection manager for the server's event stream.
func (e *Env) Streams() *stream.Manager {
	return stream.New(e.Client.StreamURL(),
		stream.WithDelay(e.Config.ReconnectDelay),
		stream.WithLogger(e.Logger.With().Str("component", "stream").Logger()),
	)
}

// NewSession returns an empty session configured from e.
func (e *Env) NewSession(sortKey string) *state.Session {
	return state.NewSession(e.Logger.With().Str("component", "session").Logger(), state.Options{
		Sort:           sortKey,
		SearchDebounce: e.Config.SearchDebounce,
	})
}

// Run boots the squadboard TUI until the user quits or the context is
// cancelled.
func Run(ctx context.Context, opts Options) error {
	opts.Console = nil
	env, err := Setup(opts)
	if err != nil {
		return err
	}
	defer env.Close()
	logger := env.Logger.Logger

	prefsPath := opts.PrefsPath
	if strings.TrimSpace(prefsPath) == "" {
		prefsPath = prefs.DefaultPath()
	}
	userPrefs, err := prefs.Load(prefsPath)
	if err != nil {
		logger.Warn().Err(err).Str("path", prefsPath).Msg("prefs unavailable, using defaults")
	}

	logger.Info().Str("server", env.Client.BaseURL()).Msg("starting dashboard")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := ui.New(ui.Options{
		Context:     ctx,
		API:         env.Client,
		Session:     env.NewSession(userPrefs.Sort),
		Logger:      logger.With().Str("component", "ui").Logger(),
		Server:      env.Client.BaseURL(),
		ArtifactURL: env.Client.ArtifactURL,
		Prefs:       userPrefs,
		PrefsPath:   prefsPath,
	})
	program := ui.NewProgram(ctx, model)
	streams := env.Streams()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return streams.Run(gctx, programSink{program: program})
	})
	g.Go(func() error {
		// Quitting the program stops the stream manager.
		defer cancel()
		_, err := program.Run()
		if err != nil && errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	})

	err = g.Wait()
	logger.Info().Err(err).Msg("dashboard stopped")
	return err
}
