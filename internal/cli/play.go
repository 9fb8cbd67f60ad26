package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/pathquiz/internal/config"
	"github.com/aretw0/pathquiz/internal/presentation/tui"
	"github.com/aretw0/pathquiz/pkg/domain"
	"github.com/aretw0/pathquiz/pkg/session"
	"github.com/muesli/termenv"
)

const defaultSettleTimeout = 2 * time.Second

// PlayOptions configures an interactive quiz run.
type PlayOptions struct {
	In  io.Reader
	Out io.Writer

	// SessionID resumes (or creates) a named session. Empty plays an anonymous one.
	SessionID string

	// Interactive enables the banner, colors and markdown rendering.
	Interactive bool

	// JSON writes directives as JSON lines instead of text. It overrides Interactive.
	JSON bool

	SettleTimeout time.Duration
	Logger        *slog.Logger
}

// RunPlay plays the quiz in the terminal until the user quits.
func RunPlay(ctx context.Context, cfg *config.Config, opts PlayOptions) error {
	if opts.SettleTimeout <= 0 {
		opts.SettleTimeout = defaultSettleTimeout
	}

	if opts.JSON {
		opts.Interactive = false
	}

	var presenterOpts []tui.PresenterOption
	if opts.Interactive {
		presenterOpts = append(presenterOpts,
			tui.WithMarkdownRenderer(tui.NewRenderer()),
			tui.WithProfile(termenv.EnvColorProfile()),
		)
	}
	presenter := tui.NewPresenter(opts.Out, presenterOpts...)
	var view tui.View = presenter
	if opts.JSON {
		view = tui.NewJSONView(opts.Out)
	}
	player := tui.NewPlayer(NewInterruptibleReader(opts.In, ctx.Done()), view, opts.SettleTimeout)

	logger := opts.Logger
	if logger == nil {
		logger = NewLogger(cfg.Debug)
	}
	buildOpts := []BuildOption{WithLogger(logger), WithNotifier(player.Notify)}
	if opts.SessionID != "" {
		id := opts.SessionID
		buildOpts = append(buildOpts, WithSessionOptions(session.WithIDGenerator(func() string { return id })))
	}

	app, err := Build(ctx, cfg, buildOpts...)
	if err != nil {
		return err
	}
	defer app.Close()

	if opts.Interactive {
		presenter.Banner()
	}

	id, resumed, err := openSession(ctx, app.Sessions, opts.SessionID)
	if err != nil {
		return err
	}
	switch {
	case resumed:
		app.Logger.Info("session resumed", "session_id", id)
		if !opts.JSON {
			printSystemMessage(opts.Out, "Resuming session '%s'.", id)
		}
	case opts.SessionID != "":
		app.Logger.Info("session created", "session_id", id)
		if !opts.JSON {
			printSystemMessage(opts.Out, "Session '%s' active.", id)
		}
	}

	return handleExecutionError(player.Run(ctx, app.Sessions, id))
}

// openSession resumes sessionID when it exists and creates a session otherwise.
func openSession(ctx context.Context, sessions *session.Manager, sessionID string) (string, bool, error) {
	if sessionID != "" {
		_, err := sessions.Directive(ctx, sessionID)
		if err == nil {
			return sessionID, true, nil
		}
		if !errors.Is(err, domain.ErrSessionNotFound) {
			return "", false, err
		}
	}
	d, err := sessions.Create(ctx)
	if err != nil {
		return "", false, err
	}
	return d.SessionID, false, nil
}
