package tui

import "time"

type snapshotLoadedMsg struct {
	err      error
	snapshot Snapshot
}

type tickMsg time.Time
