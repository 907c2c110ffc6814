package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// CheckpointMetadata contains metadata about a checkpoint.
type CheckpointMetadata struct {
	CreatedAt   time.Time      `json:"created_at"`
	RowCounts   map[string]int `json:"row_counts"`
	ID          string         `json:"id"`
	Description string         `json:"description"`
	FileSize    int64          `json:"file_size"`
	IsAuto      bool           `json:"is_auto"`
}

// Checkpoint errors.
var (
	ErrCheckpointNotFound  = errors.New("checkpoint not found")
	ErrCheckpointCorrupted = errors.New("checkpoint integrity check failed")
	ErrCheckpointExists    = errors.New("checkpoint already exists")
	ErrCheckpointInMemory  = errors.New("in-memory databases cannot be checkpointed")
)

const maxAutoCheckpoints = 5

// CheckpointManager copies the database file aside and back.
type CheckpointManager struct {
	store          *Store
	checkpointsDir string
}

// NewCheckpointManager creates a checkpoint manager storing copies next to
// the database in a "checkpoints" directory.
func NewCheckpointManager(store *Store) (*CheckpointManager, error) {
	if store.Path() == MemoryPath {
		return nil, ErrCheckpointInMemory
	}

	dbPath, err := filepath.Abs(store.Path())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database path: %w", err)
	}
	checkpointsDir := filepath.Join(filepath.Dir(dbPath), "checkpoints")

	if err := os.MkdirAll(checkpointsDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create checkpoints directory: %w", err)
	}

	return &CheckpointManager{
		store:          store,
		checkpointsDir: checkpointsDir,
	}, nil
}

// Create writes a consistent copy of the database under tag.
func (cm *CheckpointManager) Create(ctx context.Context, tag, description string) (*CheckpointMetadata, error) {
	if tag == "" {
		tag = fmt.Sprintf("checkpoint-%s", time.Now().Format("2006-01-02-150405"))
	}
	if err := validateTag(tag); err != nil {
		return nil, err
	}

	checkpointPath := cm.dataPath(tag)
	if _, err := os.Stat(checkpointPath); err == nil {
		return nil, ErrCheckpointExists
	}

	rowCounts, err := cm.collectRowCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to collect row counts: %w", err)
	}

	if err := cm.backupDatabase(ctx, checkpointPath); err != nil {
		return nil, fmt.Errorf("failed to backup database: %w", err)
	}

	info, err := os.Stat(checkpointPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat checkpoint: %w", err)
	}

	metadata := CheckpointMetadata{
		ID:          tag,
		CreatedAt:   time.Now(),
		Description: description,
		FileSize:    info.Size(),
		RowCounts:   rowCounts,
	}

	if err := cm.saveMetadata(metadata); err != nil {
		if rmErr := os.Remove(checkpointPath); rmErr != nil {
			slog.Error("failed to remove checkpoint file after metadata save failure", "error", rmErr)
		}
		return nil, fmt.Errorf("failed to save metadata: %w", err)
	}

	slog.Info("created checkpoint", "id", tag, "size", metadata.FileSize)
	return &metadata, nil
}

// AutoCheckpoint creates a checkpoint before a destructive operation and
// keeps only the most recent automatic ones.
func (cm *CheckpointManager) AutoCheckpoint(ctx context.Context, operation string) (*CheckpointMetadata, error) {
	tag := fmt.Sprintf("auto-%s-%s", operation, time.Now().Format("2006-01-02-150405.000"))
	metadata, err := cm.Create(ctx, tag, fmt.Sprintf("Automatic checkpoint before %s", operation))
	if err != nil {
		return nil, fmt.Errorf("failed to create auto-checkpoint: %w", err)
	}

	metadata.IsAuto = true
	if err := cm.saveMetadata(*metadata); err != nil {
		slog.Error("failed to mark checkpoint as automatic", "id", tag, "error", err)
	}

	if err := cm.cleanupOldAutoCheckpoints(ctx); err != nil {
		slog.Warn("failed to clean up old auto-checkpoints", "error", err)
	}
	return metadata, nil
}

// List returns all checkpoints, newest first.
func (cm *CheckpointManager) List(_ context.Context) ([]CheckpointMetadata, error) {
	entries, err := os.ReadDir(cm.checkpointsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoints directory: %w", err)
	}

	checkpoints := make([]CheckpointMetadata, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".meta.json") {
			continue
		}
		metadata, err := cm.loadMetadata(filepath.Join(cm.checkpointsDir, entry.Name()))
		if err != nil {
			slog.Debug("skipping unreadable checkpoint metadata", "file", entry.Name(), "error", err)
			continue
		}
		checkpoints = append(checkpoints, *metadata)
	}

	sort.Slice(checkpoints, func(i, j int) bool {
		return checkpoints[i].CreatedAt.After(checkpoints[j].CreatedAt)
	})
	return checkpoints, nil
}

// Restore replaces every table saved in the checkpoint with its saved
// definition and rows. The live connection stays open; the checkpoint is
// attached and copied over inside one transaction.
func (cm *CheckpointManager) Restore(ctx context.Context, checkpointID string) error {
	if err := validateTag(checkpointID); err != nil {
		return err
	}

	checkpointPath := cm.dataPath(checkpointID)
	if _, err := os.Stat(checkpointPath); err != nil {
		if os.IsNotExist(err) {
			return ErrCheckpointNotFound
		}
		return fmt.Errorf("failed to access checkpoint: %w", err)
	}

	if _, err := cm.store.db.ExecContext(ctx, "ATTACH DATABASE ? AS checkpoint", checkpointPath); err != nil {
		return fmt.Errorf("failed to attach checkpoint: %w", err)
	}
	defer func() {
		if _, err := cm.store.db.ExecContext(context.Background(), "DETACH DATABASE checkpoint"); err != nil {
			slog.Error("failed to detach checkpoint", "error", err)
		}
	}()

	var result string
	if err := cm.store.db.QueryRowContext(ctx, "PRAGMA checkpoint.integrity_check").Scan(&result); err != nil || result != "ok" {
		return ErrCheckpointCorrupted
	}

	tables, err := cm.checkpointTables(ctx)
	if err != nil {
		return err
	}
	sequenced, err := cm.checkpointHasSequence(ctx)
	if err != nil {
		return err
	}

	return cm.store.withTx(ctx, func(tx *sql.Tx) error {
		for _, table := range tables {
			statements := []string{
				"DROP TABLE IF EXISTS main." + quoteIdent(table.name),
				table.schema,
				fmt.Sprintf("INSERT INTO main.%s SELECT * FROM checkpoint.%s", quoteIdent(table.name), quoteIdent(table.name)),
			}
			for _, stmt := range statements {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("failed to restore table %s: %w", table.name, err)
				}
			}
			if sequenced {
				if err := restoreSequence(ctx, tx, table.name); err != nil {
					return err
				}
			}
		}
		slog.Info("restored checkpoint", "id", checkpointID, "tables", len(tables))
		return nil
	})
}

// Delete removes a checkpoint.
func (cm *CheckpointManager) Delete(_ context.Context, checkpointID string) error {
	if err := validateTag(checkpointID); err != nil {
		return err
	}

	checkpointPath := cm.dataPath(checkpointID)
	if _, err := os.Stat(checkpointPath); err != nil {
		if os.IsNotExist(err) {
			return ErrCheckpointNotFound
		}
		return fmt.Errorf("failed to access checkpoint: %w", err)
	}

	if err := os.Remove(checkpointPath); err != nil {
		return fmt.Errorf("failed to remove checkpoint file: %w", err)
	}
	if err := os.Remove(cm.metaPath(checkpointID)); err != nil {
		slog.Debug("failed to remove metadata file", "error", err, "id", checkpointID)
	}
	return nil
}

func (cm *CheckpointManager) dataPath(id string) string {
	return filepath.Join(cm.checkpointsDir, id+".db")
}

func (cm *CheckpointManager) metaPath(id string) string {
	return filepath.Join(cm.checkpointsDir, id+".meta.json")
}

func validateTag(tag string) error {
	if strings.Contains(tag, "/") || strings.Contains(tag, "\\") || strings.Contains(tag, "..") {
		return errors.New("invalid checkpoint tag: cannot contain path separators")
	}
	return nil
}

func (cm *CheckpointManager) collectRowCounts(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	for _, table := range cm.store.Tables() {
		var count int
		query := "SELECT COUNT(*) FROM " + quoteIdent(table)
		if err := cm.store.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		counts[table] = count
	}
	return counts, nil
}

type checkpointTable struct {
	name   string
	schema string
}

func (cm *CheckpointManager) checkpointTables(ctx context.Context) ([]checkpointTable, error) {
	rows, err := cm.store.db.QueryContext(ctx,
		"SELECT name, sql FROM checkpoint.sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoint tables: %w", err)
	}
	defer rows.Close()

	var tables []checkpointTable
	for rows.Next() {
		var t checkpointTable
		if err := rows.Scan(&t.name, &t.schema); err != nil {
			return nil, fmt.Errorf("failed to scan table definition: %w", err)
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

func (cm *CheckpointManager) checkpointHasSequence(ctx context.Context) (bool, error) {
	var n int
	err := cm.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM checkpoint.sqlite_master WHERE type = 'table' AND name = 'sqlite_sequence'").Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to inspect checkpoint: %w", err)
	}
	return n > 0, nil
}

// restoreSequence sets the autoincrement counter of table to the saved one.
// Re-inserting rows leaves it at max(id), which would hand out ids deleted
// before the checkpoint was taken.
func restoreSequence(ctx context.Context, tx *sql.Tx, table string) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM main.sqlite_sequence WHERE name = ?", table); err != nil {
		return fmt.Errorf("failed to reset sequence of %s: %w", table, err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO main.sqlite_sequence (name, seq) SELECT name, seq FROM checkpoint.sqlite_sequence WHERE name = ?", table); err != nil {
		return fmt.Errorf("failed to restore sequence of %s: %w", table, err)
	}
	return nil
}

func (cm *CheckpointManager) backupDatabase(ctx context.Context, destPath string) error {
	if strings.ContainsAny(destPath, `'";`) {
		return fmt.Errorf("invalid destination path: contains forbidden characters")
	}
	// #nosec G201 - destPath is validated above
	query := fmt.Sprintf("VACUUM INTO '%s'", destPath)
	if _, err := cm.store.db.ExecContext(ctx, query); err != nil {
		return err
	}
	return nil
}

func (cm *CheckpointManager) saveMetadata(metadata CheckpointMetadata) error {
	data, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return err
	}

	path := cm.metaPath(metadata.ID)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

func (cm *CheckpointManager) loadMetadata(path string) (*CheckpointMetadata, error) {
	f, err := os.Open(path) // #nosec G304 - path is built from the checkpoints directory
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	var metadata CheckpointMetadata
	if err := json.Unmarshal(data, &metadata); err != nil {
		return nil, err
	}
	return &metadata, nil
}

func (cm *CheckpointManager) cleanupOldAutoCheckpoints(ctx context.Context) error {
	checkpoints, err := cm.List(ctx)
	if err != nil {
		return err
	}

	autoCount := 0
	for _, cp := range checkpoints {
		if !cp.IsAuto {
			continue
		}
		autoCount++
		if autoCount > maxAutoCheckpoints {
			if err := cm.Delete(ctx, cp.ID); err != nil {
				slog.Debug("failed to delete old auto-checkpoint during cleanup", "error", err, "checkpoint", cp.ID)
			}
		}
	}
	return nil
}
