package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/bookkeeper/internal/cli"
	"github.com/Veraticus/bookkeeper/internal/common"
	"github.com/Veraticus/bookkeeper/internal/presenter"
	"github.com/Veraticus/bookkeeper/internal/storage"
	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

// session is an open database with the presenters loaded on top of it.
type session struct {
	store *storage.Store
	set   *presenter.Set
}

// openSession opens the configured storage and loads the presenters.
func (o *rootOptions) openSession(ctx context.Context) (*session, error) {
	if o.cfg == nil {
		return nil, fmt.Errorf("%w: configuration not loaded", common.ErrMissingConfig)
	}
	db := o.cfg.Database

	var store *storage.Store
	if db.Driver == storage.DriverSQLite {
		var err error
		store, err = storage.NewStore(db.Path)
		if err != nil {
			return nil, common.NewUserError("failed to open database "+db.Path, err)
		}
	}

	factory, err := storage.NewFactory(store, storage.FactoryOptions{
		Driver:      db.Driver,
		ResetOnOpen: db.ResetOnOpen,
	})
	if err != nil {
		closeStore(store)
		return nil, err
	}

	set, err := presenter.Load(ctx, factory)
	if err != nil {
		closeStore(store)
		return nil, err
	}

	common.LogDebug("opened session", common.Fields{"driver": db.Driver, "path": db.Path})
	return &session{store: store, set: set}, nil
}

// Close releases the database.
func (s *session) Close() {
	closeStore(s.store)
}

// checkpoints returns the checkpoint manager of the session's database.
func (s *session) checkpoints() (*storage.CheckpointManager, error) {
	if s.store == nil {
		return nil, common.NewUserError("checkpoints need the sqlite driver", common.ErrInvalidConfig)
	}
	manager, err := s.store.NewCheckpointManager()
	if err != nil {
		return nil, fmt.Errorf("failed to create checkpoint manager: %w", err)
	}
	return manager, nil
}

func closeStore(store *storage.Store) {
	if store == nil {
		return
	}
	if err := store.Close(); err != nil {
		slog.Warn("failed to close database", "error", err)
	}
}

// withSession runs fn against a freshly opened session.
func (o *rootOptions) withSession(cmd *cobra.Command, fn func(ctx context.Context, s *session) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := o.openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(ctx, s)
}

// resolveCategory accepts a category id or name.
func resolveCategory(set *presenter.Set, ref string) (int64, error) {
	ref = strings.TrimSpace(ref)
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		if _, ok := set.Categories.Get(id); ok {
			return id, nil
		}
	}
	if id, ok := set.Categories.FindByName(ref); ok {
		return id, nil
	}
	return 0, common.NewUserError(fmt.Sprintf("no category %q", ref), common.ErrNotFound)
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, common.NewUserError(fmt.Sprintf("%q is not a valid id", arg), common.ErrInvalidArgument)
	}
	return id, nil
}

// parseDate reads YYYY-MM-DD in local time or RFC 3339. Empty input gives
// the zero time.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.ParseInLocation(dateLayout, s, time.Local); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, common.NewUserError(fmt.Sprintf("%q is not a date (use YYYY-MM-DD)", s), common.ErrInvalidArgument)
	}
	return t, nil
}

func printf(w io.Writer, format string, args ...any) {
	if _, err := fmt.Fprintf(w, format, args...); err != nil {
		slog.Error("failed to write output", "error", err)
	}
}

func writeLine(w io.Writer, line string) {
	if _, err := fmt.Fprintln(w, line); err != nil {
		slog.Error("failed to write output", "error", err)
	}
}

// confirm asks before a destructive step unless force is set.
func confirm(cmd *cobra.Command, force bool, question string) (bool, error) {
	if force {
		return true, nil
	}
	prompter := cli.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
	ok, err := prompter.Confirm(cmd.Context(), question)
	if errors.Is(err, cli.ErrInputTerminated) {
		return false, nil
	}
	return ok, err
}

func formatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}

func formatRelativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%d minutes ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%d days ago", int(d.Hours()/24))
	default:
		return t.Format(dateLayout)
	}
}
