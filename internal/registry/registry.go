// Package registry implements the file-backed block store and index.
//
// Blocks are stored under a publish directory at
// <dir>/<first-2-hex>/<hash>.tref - a two-character fan-out keeps directory
// entry counts bounded. An index.json alongside answers "does this ID
// exist" and "list all IDs" without scanning the filesystem:
//
//	{"v": 1, "blocks": [{"id": "sha256:...", "added": "..."}]}
//
// Concurrency: the exists-check and index append of a Put are one critical
// section, guarded by a file lock (index.lock) so concurrent publishers
// cannot lose index entries to a read-modify-write race. Block and index
// files are written atomically via temp file plus rename.
//
// The core never sees this package; the registry calls the identity and
// block surfaces like any other collaborator.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/trefhq/tref/internal/block"
	"github.com/trefhq/tref/internal/identity"
	"github.com/trefhq/tref/internal/log"
)

const (
	// Ext is the canonical block file extension.
	Ext = ".tref"

	// AltExt is the alternate, explicitly-JSON extension accepted on read.
	AltExt = ".tref.json"

	// MIMEType identifies serialized blocks in transport contexts.
	MIMEType = "application/vnd.tref+json"

	indexFile = "index.json"
	lockFile  = "index.lock"

	lockRetryDelay = 25 * time.Millisecond
)

var (
	// ErrNotFound indicates no block with the requested ID is stored.
	ErrNotFound = errors.New("block not found")

	// ErrIntegrity indicates a stored block's id does not match its
	// recomputed hash - tampering or a hand-edited file. Distinct from a
	// structural error because the remediation differs.
	ErrIntegrity = errors.New("id does not match content hash")
)

// Entry is one index record.
type Entry struct {
	ID    string `json:"id"`
	Added string `json:"added"` // RFC 3339, when the block entered this registry
}

// Index is the on-disk registry index document.
type Index struct {
	V      int     `json:"v"`
	Blocks []Entry `json:"blocks"`
}

// Store is a block registry rooted at one publish directory. Safe for
// concurrent use across goroutines and processes; coordination happens
// through the file lock, not in-memory state.
type Store struct {
	dir    string
	logger log.Logger
	now    func() time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock replaces the timestamp source for index entries.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// Open creates the publish directory if needed and returns a Store. A nil
// logger is replaced with a no-op logger.
func Open(dir string, logger log.Logger, opts ...StoreOption) (*Store, error) {
	if dir == "" {
		return nil, errors.New("publish directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating publish directory: %w", err)
	}
	if logger == nil {
		logger = log.NewNop()
	}

	s := &Store{dir: dir, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the store's publish directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns where a block with the given ID is (or would be) stored.
func (s *Store) Path(id string) (string, error) {
	if !identity.IsValid(id) {
		return "", fmt.Errorf("%w: %q", block.ErrInvalidID, id)
	}
	hash := strings.TrimPrefix(id, identity.Prefix)
	return filepath.Join(s.dir, hash[:2], hash+Ext), nil
}

// Put stores a block and records it in the index. The block is checked for
// structure and integrity first; nothing invalid ever reaches disk.
// Publishing an already-registered ID is a no-op: content addressing makes
// the operation idempotent.
func (s *Store) Put(ctx context.Context, b *block.Block) error {
	if b == nil {
		return errors.New("block is nil")
	}
	if err := b.Validate(); err != nil {
		return fmt.Errorf("invalid block: %w", err)
	}
	if !identity.Verify(b) {
		return fmt.Errorf("%w: refusing to store %s", ErrIntegrity, b.ID)
	}

	path, err := s.Path(b.ID)
	if err != nil {
		return err
	}

	unlock, err := s.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	idx, err := s.readIndex()
	if err != nil {
		return err
	}
	if idx.contains(b.ID) {
		s.logger.Debug("block already registered", "id", b.ID)
		return nil
	}

	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding block: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating fan-out directory: %w", err)
	}
	if err := atomicWrite(path, append(data, '\n')); err != nil {
		return fmt.Errorf("writing block file: %w", err)
	}

	idx.Blocks = append(idx.Blocks, Entry{
		ID:    b.ID,
		Added: s.now().UTC().Format(time.RFC3339),
	})
	if err := s.writeIndex(idx); err != nil {
		return err
	}

	s.logger.Info("block stored", "id", b.ID, "path", path)
	return nil
}

// Get loads a block by ID, re-checking structure and integrity. A missing
// file is ErrNotFound; a well-formed file whose hash no longer matches is
// ErrIntegrity.
func (s *Store) Get(id string) (*block.Block, error) {
	path, err := s.Path(id)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		// Alternate extension written by other implementations.
		data, err = os.ReadFile(strings.TrimSuffix(path, Ext) + AltExt)
	}
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("reading block file: %w", err)
	}

	b, err := block.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("stored block %s: %w", id, err)
	}
	if b.ID != id {
		return nil, fmt.Errorf("%w: file for %s holds id %s", ErrIntegrity, id, b.ID)
	}
	if !identity.Verify(b) {
		return nil, fmt.Errorf("%w: %s", ErrIntegrity, id)
	}
	return b, nil
}

// Exists reports whether an ID is registered in the index.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	if !identity.IsValid(id) {
		return false, fmt.Errorf("%w: %q", block.ErrInvalidID, id)
	}

	unlock, err := s.lock(ctx)
	if err != nil {
		return false, err
	}
	defer unlock()

	idx, err := s.readIndex()
	if err != nil {
		return false, err
	}
	return idx.contains(id), nil
}

// List returns all index entries in registration order.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	unlock, err := s.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	idx, err := s.readIndex()
	if err != nil {
		return nil, err
	}
	return idx.Blocks, nil
}

// lock acquires the registry file lock, retrying until ctx is done.
func (s *Store) lock(ctx context.Context) (func(), error) {
	fl := flock.New(filepath.Join(s.dir, lockFile))
	ok, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("acquiring registry lock: %w", err)
	}
	if !ok {
		return nil, errors.New("acquiring registry lock: not acquired")
	}
	return func() {
		if err := fl.Unlock(); err != nil {
			s.logger.Warn("releasing registry lock", "error", err)
		}
	}, nil
}

// readIndex loads the index, returning an empty one when none exists yet.
// Callers must hold the lock.
func (s *Store) readIndex() (*Index, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, indexFile))
	if errors.Is(err, os.ErrNotExist) {
		return &Index{V: 1}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading index: %w", err)
	}

	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("parsing index: %w", err)
	}
	if idx.V != 1 {
		return nil, fmt.Errorf("unsupported index version %d", idx.V)
	}
	return &idx, nil
}

// writeIndex persists the index atomically. Callers must hold the lock.
func (s *Store) writeIndex(idx *Index) error {
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding index: %w", err)
	}
	if err := atomicWrite(filepath.Join(s.dir, indexFile), append(data, '\n')); err != nil {
		return fmt.Errorf("writing index: %w", err)
	}
	return nil
}

func (idx *Index) contains(id string) bool {
	for _, e := range idx.Blocks {
		if e.ID == id {
			return true
		}
	}
	return false
}

// atomicWrite writes data to a uuid-suffixed temp file in the target's
// directory, then renames it into place.
func atomicWrite(path string, data []byte) error {
	tmp := path + "." + uuid.NewString() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
