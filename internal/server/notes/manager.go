// Package notes manages the note files kept in the notes directory.
//
// A Manager hands out shared *os.File handles: the first Acquire of a name
// opens the file, later ones reuse it, and the last Release closes it.
// Handles are shared, so readers should use ReadAt/WriteAt rather than
// moving the common offset.
package notes

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/dmitrijs2005/notekeeper/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
)

// entry is one filename's slot in the lock table. users counts goroutines
// holding or waiting on mu and is guarded by Manager.mu; count and file
// are guarded by mu.
type entry struct {
	mu    sync.Mutex
	users int
	count int
	file  *os.File
}

// Manager is the occupancy table for one directory. Operations on
// different names never wait on each other's file I/O.
type Manager struct {
	dir    string
	logger logging.Logger
	gauge  prometheus.Gauge

	openFile  func(path string) (*os.File, error)
	closeFile func(f *os.File) error

	mu      sync.Mutex
	entries map[string]*entry
	open    atomic.Int64
}

type Option func(*Manager)

func WithLogger(l logging.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithOpenFilesGauge reports the number of physically open files.
func WithOpenFilesGauge(g prometheus.Gauge) Option {
	return func(m *Manager) { m.gauge = g }
}

func NewManager(dir string, opts ...Option) *Manager {
	m := &Manager{
		dir:     dir,
		logger:  logging.Nop{},
		entries: make(map[string]*entry),
		openFile: func(path string) (*os.File, error) {
			return os.OpenFile(path, os.O_RDWR, 0)
		},
		closeFile: func(f *os.File) error { return f.Close() },
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("module", "notes")
	return m
}

// Dir returns the notes directory.
func (m *Manager) Dir() string { return m.dir }

// Acquire returns the open handle for name, opening it on first use. The
// file must already exist; it is never created. Every successful Acquire
// must be paired with a Release.
func (m *Manager) Acquire(name string) (*os.File, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	e := m.join(name)
	defer m.leave(name, e)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.count == 0 {
		f, err := m.openFile(filepath.Join(m.dir, name))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: note file %q", common.ErrorNotFound, name)
			}
			return nil, fmt.Errorf("open note file: %w", err)
		}
		e.file = f
		m.opened(name)
	}

	e.count++
	return e.file, nil
}

// Release drops one reference to name and closes the file when it was the
// last. common.ErrNotOpen when name is not held.
func (m *Manager) Release(name string) error {
	if err := validateName(name); err != nil {
		return err
	}

	m.mu.Lock()
	e, ok := m.entries[name]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %q", common.ErrNotOpen, name)
	}
	e.users++
	m.mu.Unlock()
	defer m.leave(name, e)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.count == 0 {
		return fmt.Errorf("%w: %q", common.ErrNotOpen, name)
	}

	e.count--
	if e.count > 0 {
		return nil
	}

	f := e.file
	e.file = nil
	m.closed(name)
	if err := m.closeFile(f); err != nil {
		return fmt.Errorf("close note file: %w", err)
	}
	return nil
}

// With acquires name for the duration of fn.
func (m *Manager) With(name string, fn func(f *os.File) error) (err error) {
	f, err := m.Acquire(name)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, m.Release(name))
	}()
	return fn(f)
}

// Count returns the number of outstanding references to name.
func (m *Manager) Count(name string) int {
	m.mu.Lock()
	e, ok := m.entries[name]
	if !ok {
		m.mu.Unlock()
		return 0
	}
	e.users++
	m.mu.Unlock()
	defer m.leave(name, e)

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.count
}

// Len returns the number of files currently open.
func (m *Manager) Len() int {
	return int(m.open.Load())
}

// join returns name's entry, creating it if needed, and registers the
// caller as a user of it.
func (m *Manager) join(name string) *entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[name]
	if !ok {
		e = &entry{}
		m.entries[name] = e
	}
	e.users++
	return e
}

// leave unregisters the caller and drops the entry once nobody uses it and
// no reference is outstanding.
func (m *Manager) leave(name string, e *entry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e.users--
	if e.users == 0 && e.count == 0 {
		delete(m.entries, name)
	}
}

func (m *Manager) tracked(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[name]
	return ok
}

func (m *Manager) opened(name string) {
	m.open.Add(1)
	if m.gauge != nil {
		m.gauge.Inc()
	}
	m.logger.Debug(context.Background(), "note file opened", "name", name)
}

func (m *Manager) closed(name string) {
	m.open.Add(-1)
	if m.gauge != nil {
		m.gauge.Dec()
	}
	m.logger.Debug(context.Background(), "note file closed", "name", name)
}

func validateName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`+"\x00") || filepath.Base(name) != name {
		return fmt.Errorf("%w: %q", common.ErrInvalidNoteName, name)
	}
	return nil
}
