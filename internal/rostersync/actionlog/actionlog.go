// Package actionlog appends every dispatched store action to a JSON-lines file. Each
// entry carries the hash of the previous one, so edits or gaps in the file are
// detected by Verify.
package actionlog

import (
	"bufio"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/anand-gl/jsoncanonicalizer"
	jsonitor "github.com/json-iterator/go"
	"github.com/tansive/rostersync/internal/rostersync/store"
)

var json = jsonitor.ConfigCompatibleWithStandardLibrary

// ErrBrokenChain is returned by Verify when an entry does not link to its predecessor
// or its hash does not match its content.
var ErrBrokenChain = errors.New("action log hash chain is broken")

// Entry is one line of the log.
type Entry struct {
	Seq      uint64              `json:"seq"`
	Type     string              `json:"type"`
	Payload  jsonitor.RawMessage `json:"payload"`
	PrevHash string              `json:"prevHash"`
	Hash     string              `json:"hash"`
}

// Writer buffers entries and writes them every flushInterval records.
type Writer struct {
	file          *os.File
	out           io.Writer
	flushInterval int
	mu            sync.Mutex
	buffer        []Entry
	prevHash      string
	closed        bool
}

var _ store.Recorder = (*Writer)(nil)

// NewWriter opens or creates the log at path. An existing log is verified and the
// chain continues from its last entry.
func NewWriter(path string, flushInterval int) (*Writer, error) {
	if flushInterval < 1 {
		flushInterval = 1
	}
	prevHash := ""
	if existing, err := os.Open(path); err == nil {
		last, verr := lastEntry(existing)
		existing.Close()
		if verr != nil {
			return nil, fmt.Errorf("existing action log %s: %w", path, verr)
		}
		if last != nil {
			prevHash = last.Hash
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return &Writer{
		file:          f,
		out:           f,
		flushInterval: flushInterval,
		buffer:        make([]Entry, 0, flushInterval),
		prevHash:      prevHash,
	}, nil
}

// Record appends the action as the next entry in the chain.
func (w *Writer) Record(seq uint64, a store.Action) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to marshal action: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return os.ErrClosed
	}

	entry := Entry{
		Seq:      seq,
		Type:     a.Type(),
		Payload:  payload,
		PrevHash: w.prevHash,
	}
	entry.Hash, err = hashEntry(entry)
	if err != nil {
		return err
	}
	w.prevHash = entry.Hash

	w.buffer = append(w.buffer, entry)
	if len(w.buffer) >= w.flushInterval {
		return w.flushLocked()
	}
	return nil
}

// flushLocked drops each entry from the buffer once it is written, so a failed
// flush resumes with the first unwritten entry. Must be called with w.mu held.
func (w *Writer) flushLocked() error {
	for len(w.buffer) > 0 {
		b, err := json.Marshal(w.buffer[0])
		if err != nil {
			return fmt.Errorf("failed to marshal entry: %w", err)
		}
		if _, err := w.out.Write(append(b, '\n')); err != nil {
			return fmt.Errorf("failed to write entry: %w", err)
		}
		w.buffer = w.buffer[1:]
	}
	return nil
}

// Flush writes all buffered entries.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.flushLocked()
}

// Close flushes remaining entries and closes the file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	if err := w.flushLocked(); err != nil {
		return err
	}
	w.closed = true
	return w.file.Close()
}

// Verify reads a log and checks every link of the chain. It returns the number of
// valid entries read.
func Verify(r io.Reader) (int, error) {
	n := 0
	err := scan(r, func(Entry) { n++ })
	return n, err
}

func lastEntry(r io.Reader) (*Entry, error) {
	var last *Entry
	err := scan(r, func(e Entry) { last = &e })
	return last, err
}

func scan(r io.Reader, visit func(Entry)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	prevHash := ""
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if e.PrevHash != prevHash {
			return fmt.Errorf("line %d: %w", line, ErrBrokenChain)
		}
		want, err := hashEntry(e)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if want != e.Hash {
			return fmt.Errorf("line %d: %w", line, ErrBrokenChain)
		}
		prevHash = e.Hash
		visit(e)
	}
	return scanner.Err()
}

// hashEntry hashes the canonical form of everything but the hash itself, so the
// result does not depend on key order or whitespace.
func hashEntry(e Entry) (string, error) {
	data, err := json.Marshal(struct {
		Seq      uint64              `json:"seq"`
		Type     string              `json:"type"`
		Payload  jsonitor.RawMessage `json:"payload"`
		PrevHash string              `json:"prevHash"`
	}{
		Seq:      e.Seq,
		Type:     e.Type,
		Payload:  e.Payload,
		PrevHash: e.PrevHash,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal entry: %w", err)
	}
	canonical, err := jsoncanonicalizer.Transform(data)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize entry: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return fmt.Sprintf("%x", sum[:]), nil
}
