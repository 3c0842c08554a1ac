package ports

import "github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/domain"

type EntryID uint64

// Journal is the durable, append-only record of captured entries.
type Journal interface {
	Append(e *domain.CaptureEntry) (EntryID, error)
	Iterate(from EntryID, fn func(id EntryID, e *domain.CaptureEntry) error) error
	Commit(upto EntryID) error
	Reset() error
	Stats() JournalStats
}

type JournalStats struct {
	OldestUncommitted EntryID
	LatestAppended    EntryID
	SizeBytes         int64
}
