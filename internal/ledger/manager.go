// Package ledger implements the mutation and snapshot engine over a
// plain-text double-entry ledger file: a cached parsed view, aggregation
// with currency conversion, and line-addressed textual mutations committed
// atomically behind a cross-process lock.
package ledger

import (
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"beanbook/internal/config"
	"beanbook/internal/domain"
	"beanbook/internal/ports"
)

// Snapshot is an immutable parsed view of the ledger file. Text is always
// the exact byte-for-byte source Entries and Errors were derived from. A
// snapshot is replaced wholesale on reload, never mutated in place.
type Snapshot struct {
	Entries []domain.Directive
	Errors  []ports.ParseError
	Text    string
	Prices  *domain.PriceIndex
	ModTime time.Time
	Size    int64
}

// ErrorMessages renders the snapshot's validation problems for transport.
func (s *Snapshot) ErrorMessages() []string {
	msgs := make([]string, 0, len(s.Errors))
	for _, e := range s.Errors {
		msgs = append(msgs, e.String())
	}
	return msgs
}

// Manager provides the high-level operations over one ledger file. It is
// safe for concurrent use; reads operate on an immutable snapshot obtained
// under the cache mutex, and writes additionally serialize across processes
// via the file lock.
type Manager struct {
	cfg       *config.Config
	parser    ports.Parser
	evaluator ports.QueryEvaluator
	log       logrus.FieldLogger

	mu   sync.Mutex
	snap *Snapshot
}

// NewManager wires a manager from its collaborators. evaluator may be nil
// when query support is not needed.
func NewManager(cfg *config.Config, parser ports.Parser, evaluator ports.QueryEvaluator, log logrus.FieldLogger) *Manager {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Manager{
		cfg:       cfg,
		parser:    parser,
		evaluator: evaluator,
		log:       log.WithField("ledger", cfg.Ledger.Path),
	}
}

// Path returns the ledger file path the manager operates on.
func (m *Manager) Path() string { return m.cfg.Ledger.Path }

// Snapshot returns a current parsed view of the ledger, re-parsing only
// when forced or when the file's (mtime, size) changed since the cached
// snapshot was built. Parser validation problems are carried inside the
// snapshot; only an unreadable file or a parser crash fails the load.
func (m *Manager) Snapshot(force bool) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadLocked(force)
}

// loadLocked implements the cache policy. Callers must hold m.mu.
func (m *Manager) loadLocked(force bool) (*Snapshot, error) {
	path := m.cfg.Ledger.Path
	stat, err := os.Stat(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	if !force && m.snap != nil && m.snap.ModTime.Equal(stat.ModTime()) && m.snap.Size == stat.Size() {
		return m.snap, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	text := string(raw)
	entries, parseErrs, err := m.parser.Parse(text)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	snap := &Snapshot{
		Entries: entries,
		Errors:  parseErrs,
		Text:    text,
		Prices:  domain.BuildPriceIndex(entries),
		ModTime: stat.ModTime(),
		Size:    stat.Size(),
	}
	m.snap = snap
	m.log.WithFields(logrus.Fields{
		"entries": len(entries),
		"errors":  len(parseErrs),
		"size":    stat.Size(),
	}).Debug("ledger snapshot loaded")
	return snap, nil
}
