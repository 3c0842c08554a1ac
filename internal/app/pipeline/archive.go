package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/adapters/observability"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/domain"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/ports"
)

var (
	ErrJournalFull = errors.New("journal full")
	ErrQueueFull   = errors.New("archive queue full")
	ErrClosed      = errors.New("archiver closed")
)

// readyQueue is implemented by queues that can wake the ingest loop instead
// of letting it poll.
type readyQueue interface {
	Ready() <-chan struct{}
}

type clearableQueue interface {
	Clear() int
}

// maxRetryDelay caps the wait between attempts to write a failed batch.
const maxRetryDelay = 5 * time.Second

// Archiver journals captured entries and drains them to the archive sink.
// Without a sink it only journals, so the capture log survives restarts.
//
// The journal is committed only up to the oldest entry that has not reached
// the sink yet, so a failed batch is never skipped by a later successful one.
type Archiver struct {
	journal ports.Journal
	queue   ports.EntryQueue
	sink    ports.Sink
	pol     ports.Policy
	obs     ports.Observability

	mu          sync.Mutex
	gen         uint64
	outstanding map[ports.EntryID]struct{}
	latest      ports.EntryID
	committed   ports.EntryID
	pending     *pendingBatch

	closeOnce sync.Once
	closed    chan struct{}
}

// pendingBatch is a batch the sink rejected; it is written again before
// anything else leaves the queue.
type pendingBatch struct {
	entries []*domain.CaptureEntry
	ids     []ports.EntryID
	gen     uint64
}

func NewArchiver(j ports.Journal, q ports.EntryQueue, sink ports.Sink, pol ports.Policy, obs ports.Observability) *Archiver {
	if pol.IdleSleep <= 0 {
		pol.IdleSleep = 5 * time.Millisecond
	}
	return &Archiver{
		journal: j,
		queue:   q,
		sink:    sink,
		pol:     pol,
		obs:     observability.OrNop(obs),

		outstanding: map[ports.EntryID]struct{}{},
		closed:      make(chan struct{}),
	}
}

// Record journals e and queues it for the sink. It has the shape of a
// capture session entry hook.
func (a *Archiver) Record(e domain.CaptureEntry) {
	if err := a.record(&e); err != nil {
		a.obs.IncCounter(observability.ArchiveDropped, 1)
		a.obs.LogError("archive_record_dropped", err, ports.Field{Key: "timestamp", Value: e.Timestamp})
	}
}

func (a *Archiver) record(e *domain.CaptureEntry) error {
	if err := a.waitForJournalCapacity(); err != nil {
		return err
	}

	a.mu.Lock()
	id, err := a.journal.Append(e)
	if err == nil && a.sink != nil {
		a.track(id)
	}
	a.mu.Unlock()
	if err != nil {
		a.obs.LogCritical("journal_append_failed", err)
		return err
	}
	a.obs.SetGauge(observability.JournalSize, float64(a.journal.Stats().SizeBytes))

	if a.sink == nil {
		return nil
	}
	if err := a.enqueueWithPolicy(id, e); err != nil {
		if errors.Is(err, ErrQueueFull) {
			// dropped by policy; it no longer holds back the commit watermark
			a.settle(a.generation(), []ports.EntryID{id})
		}
		return err
	}
	return nil
}

// track marks id as journaled but not yet archived. Callers hold a.mu.
func (a *Archiver) track(id ports.EntryID) {
	a.outstanding[id] = struct{}{}
	if id > a.latest {
		a.latest = id
	}
}

func (a *Archiver) generation() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.gen
}

func (a *Archiver) waitForJournalCapacity() error {
	if a.pol.MaxJournalSizeBytes <= 0 {
		return nil
	}
	for {
		stats := a.journal.Stats()
		if stats.SizeBytes < a.pol.MaxJournalSizeBytes {
			return nil
		}

		switch a.pol.OnJournalFull {
		case "block":
			if !a.sleep() {
				return ErrClosed
			}
		case "drop":
			return fmt.Errorf("%w: size=%d limit=%d", ErrJournalFull, stats.SizeBytes, a.pol.MaxJournalSizeBytes)
		default:
			return fmt.Errorf("invalid on_journal_full policy %q", a.pol.OnJournalFull)
		}
	}
}

func (a *Archiver) enqueueWithPolicy(id ports.EntryID, e *domain.CaptureEntry) error {
	for {
		if a.queue.Enqueue(id, e) {
			a.obs.SetGauge(observability.ArchiveQueueLen, float64(a.queue.Len()))
			return nil
		}

		switch a.pol.OnQueueFull {
		case "block":
			if !a.sleep() {
				return ErrClosed
			}
		case "drop":
			return fmt.Errorf("%w: capacity %d", ErrQueueFull, a.pol.MaxQueueLen)
		default:
			return fmt.Errorf("invalid on_queue_full policy %q", a.pol.OnQueueFull)
		}
	}
}

// sleep waits one idle period; false means the archiver was closed.
func (a *Archiver) sleep() bool {
	t := time.NewTimer(a.pol.IdleSleep)
	defer t.Stop()
	select {
	case <-a.closed:
		return false
	case <-t.C:
		return true
	}
}

// Entries reads back every journaled entry, oldest first.
func (a *Archiver) Entries() ([]domain.CaptureEntry, error) {
	var out []domain.CaptureEntry
	err := a.journal.Iterate(0, func(_ ports.EntryID, e *domain.CaptureEntry) error {
		out = append(out, *e)
		return nil
	})
	return out, err
}

// Replay queues every entry that was uncommitted when it started. When the
// queue fills up it flushes a batch inline, so it cannot wait on a loop that
// is not running yet. It keeps retrying while the sink fails.
func (a *Archiver) Replay(ctx context.Context) error {
	if a.sink == nil {
		return nil
	}
	stats := a.journal.Stats()
	start, end := stats.OldestUncommitted, stats.LatestAppended
	if end == 0 || start == 0 || start > end {
		return nil
	}

	a.mu.Lock()
	gen := a.gen
	if start-1 > a.committed {
		a.committed = start - 1
	}
	err := a.journal.Iterate(start, func(id ports.EntryID, _ *domain.CaptureEntry) error {
		if id <= end {
			a.track(id)
		}
		return nil
	})
	a.mu.Unlock()
	if err != nil {
		return err
	}

	var (
		queued []ports.EntryID
		delay  time.Duration
	)
	err = a.journal.Iterate(start, func(id ports.EntryID, e *domain.CaptureEntry) error {
		if id > end {
			return nil
		}
		for !a.queue.Enqueue(id, e) {
			if a.pol.OnQueueFull == "drop" {
				return fmt.Errorf("%w during journal replay", ErrQueueFull)
			}
			if a.flush() {
				delay = 0
				continue
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if !a.backoff(ctx, &delay) {
				return ErrClosed
			}
		}
		queued = append(queued, id)
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrQueueFull) {
			a.releaseUnqueued(gen, start, end, queued)
		}
		return err
	}
	if len(queued) > 0 {
		a.obs.LogInfo("journal_replay_complete",
			ports.Field{Key: "entries", Value: len(queued)},
			ports.Field{Key: "from_id", Value: start})
	}
	return nil
}

// releaseUnqueued stops tracking replayed ids that never reached the queue.
func (a *Archiver) releaseUnqueued(gen uint64, start, end ports.EntryID, queued []ports.EntryID) {
	last := start - 1
	if n := len(queued); n > 0 {
		last = queued[n-1]
	}
	var ids []ports.EntryID
	a.mu.Lock()
	for id := range a.outstanding {
		if id > last && id <= end {
			ids = append(ids, id)
		}
	}
	a.mu.Unlock()
	a.settle(gen, ids)
}

// Run drains the queue into the sink until ctx is cancelled or the archiver
// is closed. A batch the sink rejects is retried with exponential backoff
// before the next one is taken.
func (a *Archiver) Run(ctx context.Context) {
	if a.sink == nil {
		return
	}
	var ready <-chan struct{}
	if rq, ok := a.queue.(readyQueue); ok {
		ready = rq.Ready()
	}

	var delay time.Duration
	for {
		if a.flush() {
			delay = 0
			continue
		}
		if a.hasPending() {
			if !a.backoff(ctx, &delay) {
				return
			}
			continue
		}
		if ready != nil {
			select {
			case <-ctx.Done():
				return
			case <-a.closed:
				return
			case <-ready:
			}
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-a.closed:
			return
		case <-time.After(a.pol.IdleSleep):
		}
	}
}

// backoff waits *delay, starting at the idle sleep and doubling up to
// maxRetryDelay. False means ctx was cancelled or the archiver closed.
func (a *Archiver) backoff(ctx context.Context, delay *time.Duration) bool {
	switch {
	case *delay <= 0:
		*delay = a.pol.IdleSleep
	case *delay < maxRetryDelay:
		*delay *= 2
		if *delay > maxRetryDelay {
			*delay = maxRetryDelay
		}
	}
	t := time.NewTimer(*delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-a.closed:
		return false
	case <-t.C:
		return true
	}
}

func (a *Archiver) hasPending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pending != nil
}

// flush writes one batch to the sink, the previously rejected one first. It
// reports whether a batch was archived or dead-lettered; false means there
// was nothing to do or the sink failed.
func (a *Archiver) flush() bool {
	batch, ok := a.nextBatch()
	if !ok {
		return false
	}
	if len(batch.entries) == 0 {
		a.settle(batch.gen, batch.ids)
		return true
	}

	start := time.Now()
	if err := a.sink.WriteBatch(batch.entries); err != nil {
		a.obs.LogError("sink_write_failed", err,
			ports.Field{Key: "sink", Value: a.sink.Name()},
			ports.Field{Key: "entries", Value: len(batch.entries)})
		a.mu.Lock()
		if a.gen == batch.gen {
			a.pending = batch
		}
		a.mu.Unlock()
		return false
	}
	a.obs.ObserveLatency(observability.SinkLatency, time.Since(start).Seconds())
	a.obs.IncCounter(observability.Archived, float64(len(batch.entries)))
	a.settle(batch.gen, batch.ids)
	return true
}

// nextBatch returns the pending batch or the next one from the queue, with
// unparseable entries already sent to the DLQ.
func (a *Archiver) nextBatch() (*pendingBatch, bool) {
	a.mu.Lock()
	if p := a.pending; p != nil {
		a.pending = nil
		a.mu.Unlock()
		return p, true
	}
	gen := a.gen
	items := a.queue.DequeueBatch(a.pol.MaxBatchSize)
	a.mu.Unlock()
	if len(items) == 0 {
		return nil, false
	}
	a.obs.SetGauge(observability.ArchiveQueueLen, float64(a.queue.Len()))

	batch := &pendingBatch{
		entries: make([]*domain.CaptureEntry, 0, len(items)),
		ids:     make([]ports.EntryID, 0, len(items)),
		gen:     gen,
	}
	for _, item := range items {
		batch.ids = append(batch.ids, item.ID)
		if _, ok := item.Entry.CapturedAt(); !ok {
			a.obs.RecordDLQ(item.ID, item.Entry, fmt.Errorf("unparseable timestamp %q", item.Entry.Timestamp))
			continue
		}
		batch.entries = append(batch.entries, item.Entry)
	}
	return batch, true
}

// settle marks ids as done and commits the journal up to the oldest entry
// still waiting for the sink. Ids from before a Reset are ignored.
func (a *Archiver) settle(gen uint64, ids []ports.EntryID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != a.gen {
		return
	}
	for _, id := range ids {
		delete(a.outstanding, id)
	}

	upto := a.latest
	for id := range a.outstanding {
		if id <= upto {
			upto = id - 1
		}
	}
	if upto <= a.committed {
		return
	}
	if err := a.journal.Commit(upto); err != nil {
		a.obs.LogError("journal_commit_failed", err)
		return
	}
	a.committed = upto
}

// Reset empties the journal and drops everything still queued.
func (a *Archiver) Reset() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.journal.Reset(); err != nil {
		return err
	}
	a.gen++
	a.pending = nil
	a.outstanding = map[ports.EntryID]struct{}{}
	a.committed = a.latest
	if cq, ok := a.queue.(clearableQueue); ok {
		cq.Clear()
	} else {
		for len(a.queue.DequeueBatch(0)) > 0 {
		}
	}
	a.obs.SetGauge(observability.JournalSize, 0)
	a.obs.SetGauge(observability.ArchiveQueueLen, 0)
	return nil
}

// Close releases blocked Record calls and stops Run. It does not close the
// journal or the sink.
func (a *Archiver) Close() {
	a.closeOnce.Do(func() { close(a.closed) })
}
