package ledger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"beanbook/internal/locking"
)

// backupTimeFormat has microsecond resolution so rapid successive writes
// cannot collide on the same backup name.
const backupTimeFormat = "20060102-150405.000000"

// commit replaces the ledger file with new text: cross-process lock,
// timestamped backup, retention pruning, then an atomic same-directory
// rename. The in-memory snapshot is force-reloaded before returning so the
// change is visible to subsequent reads.
func (m *Manager) commit(text string) error {
	path := m.cfg.Ledger.Path
	lock := locking.New(path, m.cfg.LockTimeoutDuration())
	if err := lock.Acquire(); err != nil {
		return err
	}
	defer lock.Release()

	if err := m.backup(); err != nil {
		return err
	}
	if err := replaceFile(path, text); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	_, err := m.loadLocked(true)
	return err
}

// backup copies the current on-disk ledger into the backup directory and
// prunes old backups beyond the configured retention.
func (m *Manager) backup() error {
	path := m.cfg.Ledger.Path
	dir := m.cfg.Ledger.BackupDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating backup directory: %w", err)
	}

	stamp := time.Now().UTC().Format(backupTimeFormat)
	name := fmt.Sprintf("%s.%s.bak", filepath.Base(path), stamp)
	if err := copyFile(path, filepath.Join(dir, name)); err != nil {
		return fmt.Errorf("writing backup: %w", err)
	}
	if err := m.pruneBackups(); err != nil {
		return err
	}
	return nil
}

// pruneBackups keeps the most recent retention backups; 0 means unlimited.
func (m *Manager) pruneBackups() error {
	retention := m.cfg.Ledger.BackupRetention
	if retention <= 0 {
		return nil
	}
	prefix := filepath.Base(m.cfg.Ledger.Path) + "."
	entries, err := os.ReadDir(m.cfg.Ledger.BackupDir)
	if err != nil {
		return fmt.Errorf("listing backups: %w", err)
	}
	var backups []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".bak") {
			backups = append(backups, name)
		}
	}
	// Timestamped names sort chronologically; newest last.
	sort.Strings(backups)
	for len(backups) > retention {
		victim := backups[0]
		backups = backups[1:]
		if err := os.Remove(filepath.Join(m.cfg.Ledger.BackupDir, victim)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("pruning backup %s: %w", victim, err)
		}
		m.log.WithField("backup", victim).Debug("pruned old backup")
	}
	return nil
}

// replaceFile writes text to a temporary file next to the target, carries
// over the target's permission bits when obtainable, and renames it into
// place. The target is never visible half-written.
func replaceFile(path, text string) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing temporary file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temporary file: %w", err)
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing ledger file: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}
