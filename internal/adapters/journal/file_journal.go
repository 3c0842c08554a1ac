// Package journal persists capture entries so the capture log survives a
// restart and entries the archive sink has not yet accepted can be replayed.
package journal

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/domain"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/ports"
)

const (
	recordHeaderLen = 12
	logName         = "journal.log"
	metaName        = "journal.meta"
)

var ErrClosed = errors.New("journal closed")

// FileJournal is an append-only log of capture entries plus a marker file
// holding the highest id the archive sink has committed.
type FileJournal struct {
	mu        sync.Mutex
	path      string
	metaPath  string
	file      *os.File
	writer    *bufio.Writer
	fsync     bool
	nextID    ports.EntryID
	committed ports.EntryID
	sizeBytes int64
}

var _ ports.Journal = (*FileJournal)(nil)

type Option func(*FileJournal)

// WithSync fsyncs the log after every append.
func WithSync(enabled bool) Option {
	return func(j *FileJournal) { j.fsync = enabled }
}

func Open(dir string, opts ...Option) (*FileJournal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, logName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}

	j := &FileJournal{
		path:     path,
		metaPath: filepath.Join(dir, metaName),
		file:     f,
		writer:   bufio.NewWriterSize(f, 64<<10),
	}
	for _, opt := range opts {
		opt(j)
	}
	if err := j.bootstrap(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return j, nil
}

func (j *FileJournal) bootstrap() error {
	if err := j.scanExisting(); err != nil {
		return err
	}
	if err := j.loadCommitted(); err != nil {
		return err
	}
	if j.nextID < j.committed {
		j.nextID = j.committed
	}
	_, err := j.file.Seek(0, io.SeekEnd)
	return err
}

// scanExisting finds the last complete record and cuts off a torn write.
func (j *FileJournal) scanExisting() error {
	rf, err := os.Open(j.path)
	if err != nil {
		return err
	}
	defer rf.Close()

	reader := bufio.NewReader(rf)
	var (
		offset int64
		lastID ports.EntryID
	)
	for {
		var hdr [recordHeaderLen]byte
		if _, err := io.ReadFull(reader, hdr[:]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return fmt.Errorf("journal scan header: %w", err)
		}
		id := ports.EntryID(binary.BigEndian.Uint64(hdr[0:8]))
		length := int64(binary.BigEndian.Uint32(hdr[8:12]))
		if _, err := io.CopyN(io.Discard, reader, length); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return fmt.Errorf("journal scan body: %w", err)
		}
		offset += recordHeaderLen + length
		lastID = id
	}

	if err := j.file.Truncate(offset); err != nil {
		return err
	}
	j.sizeBytes = offset
	j.nextID = lastID
	return nil
}

func (j *FileJournal) loadCommitted() error {
	data, err := os.ReadFile(j.metaPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	val := strings.TrimSpace(string(data))
	if val == "" {
		return nil
	}
	u, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return fmt.Errorf("journal meta parse: %w", err)
	}
	j.committed = ports.EntryID(u)
	return nil
}

func (j *FileJournal) Append(e *domain.CaptureEntry) (ports.EntryID, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.file == nil {
		return 0, ErrClosed
	}

	b, err := json.Marshal(e)
	if err != nil {
		return 0, err
	}
	id := j.nextID + 1

	// record: [8 bytes id][4 bytes len][len bytes json]
	var hdr [recordHeaderLen]byte
	binary.BigEndian.PutUint64(hdr[0:8], uint64(id))
	binary.BigEndian.PutUint32(hdr[8:12], uint32(len(b)))

	if _, err := j.writer.Write(hdr[:]); err != nil {
		return 0, err
	}
	if _, err := j.writer.Write(b); err != nil {
		return 0, err
	}
	if err := j.writer.Flush(); err != nil {
		return 0, err
	}
	if j.fsync {
		if err := j.file.Sync(); err != nil {
			return 0, err
		}
	}

	j.nextID = id
	j.sizeBytes += int64(len(b) + len(hdr))
	return id, nil
}

// Iterate calls fn for every entry with id >= from, in append order.
func (j *FileJournal) Iterate(from ports.EntryID, fn func(id ports.EntryID, e *domain.CaptureEntry) error) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.file == nil {
		return ErrClosed
	}
	if err := j.writer.Flush(); err != nil {
		return err
	}

	f, err := os.Open(j.path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	for {
		var hdr [recordHeaderLen]byte
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("journal truncated header: %w", err)
		}
		id := ports.EntryID(binary.BigEndian.Uint64(hdr[0:8]))
		b := make([]byte, binary.BigEndian.Uint32(hdr[8:12]))
		if _, err := io.ReadFull(r, b); err != nil {
			return fmt.Errorf("corrupt journal: %w", err)
		}
		if id < from {
			continue
		}

		var e domain.CaptureEntry
		if err := json.Unmarshal(b, &e); err != nil {
			return fmt.Errorf("corrupt journal entry %d: %w", id, err)
		}
		if err := fn(id, &e); err != nil {
			return err
		}
	}
}

func (j *FileJournal) Commit(upto ports.EntryID) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if upto > j.nextID {
		upto = j.nextID
	}
	if upto <= j.committed {
		return nil
	}
	j.committed = upto
	return j.persistMetaLocked()
}

// Reset empties the log. Ids keep increasing across a reset.
func (j *FileJournal) Reset() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.file == nil {
		return ErrClosed
	}
	j.writer.Reset(j.file)
	if err := j.file.Truncate(0); err != nil {
		return err
	}
	if _, err := j.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	j.sizeBytes = 0
	j.committed = j.nextID
	return j.persistMetaLocked()
}

func (j *FileJournal) Stats() ports.JournalStats {
	j.mu.Lock()
	defer j.mu.Unlock()
	return ports.JournalStats{
		OldestUncommitted: j.committed + 1,
		LatestAppended:    j.nextID,
		SizeBytes:         j.sizeBytes,
	}
}

func (j *FileJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.file == nil {
		return nil
	}
	flushErr := j.writer.Flush()
	closeErr := j.file.Close()
	j.file = nil
	return errors.Join(flushErr, closeErr)
}

func (j *FileJournal) persistMetaLocked() error {
	tmp := j.metaPath + ".tmp"
	if err := os.WriteFile(tmp, []byte(fmt.Sprintf("%d\n", j.committed)), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, j.metaPath)
}
