package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aretw0/pathquiz"
	"github.com/aretw0/pathquiz/internal/presentation/graph"
	"github.com/aretw0/pathquiz/internal/presentation/tui"
	"github.com/aretw0/pathquiz/pkg/domain"
	"github.com/aretw0/pathquiz/pkg/ports"
)

// ParseAnswers reads a comma separated list of 0-based option indexes, e.g. "0,3,0".
func ParseAnswers(s string) ([]int, error) {
	var answers []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number", domain.ErrInvalidAnswers, part)
		}
		answers = append(answers, n)
	}
	return answers, nil
}

// RunResult prints the result for a full answer sequence.
func RunResult(ctx context.Context, app *App, answers []int, presenter *tui.Presenter) error {
	r, err := pathquiz.Resolve(ctx, app.Definition, app.Catalog, answers)
	if r == nil {
		return err
	}
	if err != nil {
		app.Logger.Warn("course lookup failed", "err", err)
	}
	presenter.Result(r)
	return nil
}

// RunValidate loads the definition at path and reports its shape.
func RunValidate(ctx context.Context, path string, w io.Writer) error {
	def, err := LoadDefinition(ctx, path)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Quiz %q is valid: %d steps, %d results.\n", def.ID, def.StepCount(), len(def.Results))
	return nil
}

// RunGraph prints the quiz as a Mermaid flowchart, highlighting sessionID when set.
func RunGraph(ctx context.Context, app *App, sessionID string, w io.Writer) error {
	var overlay *graph.GraphOverlay
	if sessionID != "" {
		sess, err := app.Store.Load(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("loading session %q: %w", sessionID, err)
		}
		overlay = graph.OverlayFromSession(sess)
	}
	fmt.Fprint(w, graph.GenerateMermaid(app.Definition, overlay))
	return nil
}

// ListSessions prints the stored session IDs.
func ListSessions(ctx context.Context, store ports.SessionStore, w io.Writer) error {
	ids, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("listing sessions: %w", err)
	}
	if len(ids) == 0 {
		fmt.Fprintln(w, "No sessions found.")
		return nil
	}
	fmt.Fprintln(w, "Sessions:")
	for _, id := range ids {
		fmt.Fprintln(w, "- "+id)
	}
	return nil
}

// InspectSession pretty prints a stored session as JSON.
func InspectSession(ctx context.Context, store ports.SessionStore, sessionID string, w io.Writer) error {
	sess, err := store.Load(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("loading session %q: %w", sessionID, err)
	}
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(data))
	return nil
}

// RemoveSessions deletes every listed session, reporting each outcome.
// It fails if any removal failed.
func RemoveSessions(ctx context.Context, store ports.SessionStore, ids []string, w io.Writer) error {
	failed := 0
	for _, id := range ids {
		if err := store.Delete(ctx, id); err != nil {
			fmt.Fprintf(w, "Error removing '%s': %v\n", id, err)
			failed++
			continue
		}
		fmt.Fprintf(w, "Removed session '%s'\n", id)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d sessions could not be removed", failed, len(ids))
	}
	return nil
}
