package ports

import "github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/domain"

type QueuedEntry struct {
	ID    EntryID
	Entry *domain.CaptureEntry
}

// EntryQueue buffers journaled entries until the archive sink accepts them.
type EntryQueue interface {
	Enqueue(id EntryID, e *domain.CaptureEntry) bool
	DequeueBatch(max int) []QueuedEntry
	Len() int
}
