// Package journal implements the append-only binary event log and the
// replay engine that reconstructs position and PnL state from it. Ported
// from the original source's BinaryEventLog/ReplayEngine, which wrote a
// fixed-size C struct header followed by a raw payload to an fstream; the
// Go version uses encoding/binary over a buffered *os.File and fsyncs on
// Close rather than flushing after every record.
package journal

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"
)

// Kind mirrors the original EventType enum.
type Kind uint8

const (
	KindTick Kind = iota + 1
	KindDecision
	KindOrder
	KindFill
	KindPnL
	KindDisconnect
	KindReconnect
)

// Record is one persisted event: a monotonic ID, a timestamp, a kind, and
// an opaque payload the caller serialized beforehand.
type Record struct {
	EventID uint64
	TSNano  int64
	Kind    Kind
	Payload []byte
}

const headerSize = 8 + 8 + 1 + 4 // event_id + ts_ns + kind + payload size

// Log is an append-only event journal. Append holds an internal mutex, so
// concurrent Append calls are serialized and each gets its own event_id.
type Log struct {
	mu     sync.Mutex
	f      *os.File
	w      *bufio.Writer
	nextID uint64
}

// Create opens path for append, truncating any existing journal. Use Open
// to append to an existing journal without losing its event_id sequence.
func Create(path string) (*Log, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("journal: create %s: %w", path, err)
	}
	return &Log{f: f, w: bufio.NewWriter(f), nextID: 1}, nil
}

// Open appends to an existing journal, resuming event_id numbering after
// the highest ID found by replaying the file once.
func Open(path string) (*Log, error) {
	lastID, err := lastEventID(path)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}
	return &Log{f: f, w: bufio.NewWriter(f), nextID: lastID + 1}, nil
}

func lastEventID(path string) (uint64, error) {
	r, err := NewReader(path)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	defer r.Close()

	var last uint64
	for {
		rec, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
		last = rec.EventID
	}
	return last, nil
}

// Append writes one record, assigning it the next monotonic event_id.
// Returns the assigned ID.
func (l *Log) Append(tsNano int64, kind Kind, payload []byte) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.nextID
	l.nextID++

	hdr := make([]byte, headerSize)
	binary.BigEndian.PutUint64(hdr[0:8], id)
	binary.BigEndian.PutUint64(hdr[8:16], uint64(tsNano))
	hdr[16] = byte(kind)
	binary.BigEndian.PutUint32(hdr[17:21], uint32(len(payload)))

	if _, err := l.w.Write(hdr); err != nil {
		return 0, fmt.Errorf("journal: write header: %w", err)
	}
	if len(payload) > 0 {
		if _, err := l.w.Write(payload); err != nil {
			return 0, fmt.Errorf("journal: write payload: %w", err)
		}
	}
	return id, nil
}

// Close flushes buffered writes and fsyncs the file: append-only,
// fsync-on-close.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.w.Flush(); err != nil {
		return fmt.Errorf("journal: flush: %w", err)
	}
	if err := l.f.Sync(); err != nil {
		return fmt.Errorf("journal: fsync: %w", err)
	}
	return l.f.Close()
}

// Reader replays a journal file from the beginning, one record at a time.
type Reader struct {
	f *os.File
	r *bufio.Reader
}

func NewReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Reader{f: f, r: bufio.NewReader(f)}, nil
}

// Next returns the next record, or io.EOF once the journal is exhausted.
func (r *Reader) Next() (Record, error) {
	hdr := make([]byte, headerSize)
	if _, err := io.ReadFull(r.r, hdr); err != nil {
		if err == io.ErrUnexpectedEOF {
			return Record{}, io.EOF
		}
		return Record{}, err
	}

	rec := Record{
		EventID: binary.BigEndian.Uint64(hdr[0:8]),
		TSNano:  int64(binary.BigEndian.Uint64(hdr[8:16])),
		Kind:    Kind(hdr[16]),
	}
	size := binary.BigEndian.Uint32(hdr[17:21])
	if size > 0 {
		payload := make([]byte, size)
		if _, err := io.ReadFull(r.r, payload); err != nil {
			return Record{}, fmt.Errorf("journal: truncated payload: %w", err)
		}
		rec.Payload = payload
	}
	return rec, nil
}

func (r *Reader) Close() error {
	return r.f.Close()
}
