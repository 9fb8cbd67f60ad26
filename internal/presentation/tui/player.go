package tui

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/pathquiz/pkg/domain"
	"github.com/aretw0/pathquiz/pkg/session"
)

// CommandKind is what a line of user input asks for.
type CommandKind int

const (
	CommandSelect CommandKind = iota
	CommandBack
	CommandRestart
	CommandQuit
)

// Command is a parsed input line. Option is 0-based.
type Command struct {
	Kind   CommandKind
	Option int
}

// ErrUnknownCommand is returned by ParseCommand for unrecognized input.
var ErrUnknownCommand = errors.New("unknown command")

// ParseCommand reads "1".."n", "b"/"back", "r"/"restart" or "q"/"quit".
// A JSON string such as "\"2\"" is unquoted first, for JSON-lines clients.
func ParseCommand(line string) (Command, error) {
	s := strings.TrimSpace(line)
	var quoted string
	if err := json.Unmarshal([]byte(s), &quoted); err == nil {
		s = quoted
	}
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "b", "back":
		return Command{Kind: CommandBack}, nil
	case "r", "restart":
		return Command{Kind: CommandRestart}, nil
	case "q", "quit", "exit":
		return Command{Kind: CommandQuit}, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, line)
	}
	return Command{Kind: CommandSelect, Option: n - 1}, nil
}

// Sessions is what the player drives. *session.Manager implements it.
type Sessions interface {
	Directive(ctx context.Context, sessionID string) (domain.Directive, error)
	Select(ctx context.Context, sessionID string, stepIndex, optionIndex int) (domain.Directive, bool, error)
	Back(ctx context.Context, sessionID string) (domain.Directive, bool, error)
	Restart(ctx context.Context, sessionID string) (domain.Directive, error)
}

// View renders what the player shows. *Presenter and *JSONView implement it.
type View interface {
	Directive(d domain.Directive)
	Ignored(reason string)
}

// Player runs an interactive quiz loop on a line-based reader.
type Player struct {
	in      *bufio.Reader
	view    View
	settled chan struct{}
	timeout time.Duration
}

// NewPlayer creates a player reading commands from r.
// settleTimeout bounds how long it waits for a transition to finish.
func NewPlayer(r io.Reader, view View, settleTimeout time.Duration) *Player {
	return &Player{
		in:      bufio.NewReader(r),
		view:    view,
		settled: make(chan struct{}, 1),
		timeout: settleTimeout,
	}
}

// Notify implements session.Notifier; register it on the manager.
func (pl *Player) Notify(ctx context.Context, u session.Update) {
	if u.Kind == session.UpdateTransition && u.Phase == domain.PhaseSettled {
		select {
		case pl.settled <- struct{}{}:
		default:
		}
	}
}

// Run plays sessionID until the user quits or input ends.
func (pl *Player) Run(ctx context.Context, sessions Sessions, sessionID string) error {
	d, err := sessions.Directive(ctx, sessionID)
	if err != nil {
		return err
	}
	pl.view.Directive(d)

	for {
		line, readErr := pl.in.ReadString('\n')
		if strings.TrimSpace(line) == "" {
			if readErr != nil {
				if errors.Is(readErr, io.EOF) {
					return nil
				}
				return readErr
			}
			continue
		}

		cmd, err := ParseCommand(line)
		if err != nil {
			pl.view.Ignored("Type an option number, b, r or q.")
			continue
		}

		pl.drain()
		var accepted bool
		switch cmd.Kind {
		case CommandQuit:
			return nil
		case CommandBack:
			d, accepted, err = sessions.Back(ctx, sessionID)
		case CommandRestart:
			d, err = sessions.Restart(ctx, sessionID)
			accepted = true
		case CommandSelect:
			d, accepted, err = sessions.Select(ctx, sessionID, d.StepIndex, cmd.Option)
		}
		if err != nil {
			return err
		}

		if !accepted {
			pl.view.Ignored("Nothing to do.")
		} else if d.LockHeld {
			if d, err = pl.waitSettled(ctx, sessions, sessionID); err != nil {
				return err
			}
		}
		pl.view.Directive(d)

		if readErr != nil {
			return nil
		}
	}
}

func (pl *Player) drain() {
	select {
	case <-pl.settled:
	default:
	}
}

// waitSettled blocks until the running transition releases its lock.
func (pl *Player) waitSettled(ctx context.Context, sessions Sessions, sessionID string) (domain.Directive, error) {
	timer := time.NewTimer(pl.timeout)
	defer timer.Stop()

	select {
	case <-pl.settled:
	case <-timer.C:
	case <-ctx.Done():
		return domain.Directive{}, ctx.Err()
	}
	return sessions.Directive(ctx, sessionID)
}
