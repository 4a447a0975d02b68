package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/calendarbot/pkg/domain"
	"github.com/aretw0/calendarbot/pkg/persistence/middleware"
	"github.com/aretw0/calendarbot/pkg/ports"
)

// AdminStore returns the store the session commands read through. Unless
// reveal is set, attendee lists and tokens are masked.
func AdminStore(storage *Storage, reveal bool) ports.SessionStore {
	if reveal {
		return storage.Sessions
	}
	return middleware.Chain(storage.Sessions, middleware.NewRedactMiddleware(middleware.DefaultRedactPatterns))
}

// ListSessions prints the stored session IDs.
func ListSessions(ctx context.Context, store ports.SessionStore, w io.Writer) error {
	ids, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("listing sessions: %w", err)
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

// InspectSession prints one session as indented JSON.
func InspectSession(ctx context.Context, store ports.SessionStore, id string, w io.Writer) error {
	s, err := store.Load(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return fmt.Errorf("session %q not found", id)
		}
		return fmt.Errorf("loading session %q: %w", id, err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

// RemoveSessions deletes the given sessions, or all of them when all is set.
func RemoveSessions(ctx context.Context, store ports.SessionStore, ids []string, all bool, w io.Writer) error {
	if all {
		listed, err := store.List(ctx)
		if err != nil {
			return fmt.Errorf("listing sessions: %w", err)
		}
		ids = listed
	}

	var errs []error
	for _, id := range ids {
		if err := store.Delete(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("removing %q: %w", id, err))
			continue
		}
		fmt.Fprintf(w, "Removed session '%s'\n", id)
	}
	return errors.Join(errs...)
}
