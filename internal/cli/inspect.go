package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/onboard/internal/config"
	"github.com/aretw0/onboard/internal/presentation/graph"
	"github.com/aretw0/onboard/internal/runtime"
	"github.com/aretw0/onboard/pkg/domain"
	pkggraph "github.com/aretw0/onboard/pkg/graph"
	"github.com/aretw0/onboard/pkg/ports"
)

// Validate checks the settings and the question graph, printing every problem to w.
// Unreachable questions are warnings and do not fail validation.
func Validate(cfg *config.Config, w io.Writer) error {
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(w, "Invalid settings:\n%v\n", err)
		return err
	}

	g, err := cfg.Graph()
	if err != nil {
		if problems := pkggraph.Problems(err); len(problems) > 0 {
			fmt.Fprintf(w, "Invalid graph (%d problems):\n", len(problems))
			for _, p := range problems {
				fmt.Fprintf(w, "  - %s\n", p.Error())
			}
		}
		return err
	}

	for _, id := range g.Unreachable() {
		fmt.Fprintf(w, "Warning: question %q is unreachable from %q\n", id, g.Entry())
	}
	fmt.Fprintf(w, "OK: %d questions, entry %q\n", g.Len(), g.Entry())
	return nil
}

// Mermaid renders the question graph, highlighting conversationID's position when a store is given.
func Mermaid(ctx context.Context, cfg *config.Config, store ports.SessionStore, conversationID string, w io.Writer) error {
	g, err := cfg.Graph()
	if err != nil {
		return err
	}

	var overlay *graph.GraphOverlay
	if store != nil && conversationID != "" {
		sess, err := store.Load(ctx, conversationID)
		if err != nil {
			return fmt.Errorf("failed to load session %s: %w", conversationID, err)
		}
		overlay = graph.OverlayFor(sess)
	}

	_, err = fmt.Fprint(w, graph.GenerateMermaid(g.Nodes(), g.Entry(), g.Terminal(), overlay))
	return err
}

// ListSessions prints the stored conversation IDs.
func ListSessions(ctx context.Context, store ports.SessionStore, w io.Writer) error {
	ids, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	if len(ids) == 0 {
		fmt.Fprintln(w, "No active sessions found.")
		return nil
	}
	fmt.Fprintln(w, "Active Sessions:")
	for _, id := range ids {
		fmt.Fprintln(w, "- "+id)
	}
	return nil
}

type sessionView struct {
	*domain.Session
	Phase   domain.Phase `json:"phase"`
	Summary []string     `json:"summary,omitempty"`
}

// InspectSession prints one session as indented JSON.
func InspectSession(ctx context.Context, store ports.SessionStore, conversationID string, w io.Writer) error {
	sess, err := store.Load(ctx, conversationID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return fmt.Errorf("session %q not found", conversationID)
	}
	if err != nil {
		return fmt.Errorf("failed to load session %s: %w", conversationID, err)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(sessionView{Session: sess, Phase: sess.Phase(), Summary: runtime.SummaryLines(sess.Trail)})
}

// RemoveSession deletes one session.
func RemoveSession(ctx context.Context, store ports.SessionStore, conversationID string, w io.Writer) error {
	if err := store.Delete(ctx, conversationID); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", conversationID, err)
	}
	fmt.Fprintf(w, "Session %q removed.\n", conversationID)
	return nil
}
