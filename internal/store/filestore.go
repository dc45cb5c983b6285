package store

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/heysubinoy/rpkv/internal/codec"
	"github.com/heysubinoy/rpkv/pkg/kv"
)

const fileMode = 0o644

// FileStore is a kv.Store persisted as one encoded snapshot in a single
// file. Every operation reopens the file; nothing is cached between calls.
//
// FileStore does no locking. Concurrent Puts, from goroutines or
// processes, race on the read-modify-write cycle and may lose updates.
type FileStore struct {
	path   string
	atomic bool
	log    zerolog.Logger
}

// Compile-time check to ensure FileStore implements kv.Store.
var _ kv.Store = (*FileStore)(nil)

type Option func(*FileStore)

// WithAtomicSave makes Save write a temp file next to the target and
// rename it into place, so a failed write never leaves a truncated store.
func WithAtomicSave(enabled bool) Option {
	return func(s *FileStore) { s.atomic = enabled }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *FileStore) { s.log = l }
}

// NewFileStore returns a store backed by the file at path. The file is
// not touched until the first operation.
func NewFileStore(path string, opts ...Option) *FileStore {
	s := &FileStore{
		path: path,
		log:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With().Str("path", path).Logger()
	return s
}

// Path returns the location of the persisted file.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the whole snapshot, creating the file if it does not exist.
// Bytes that do not decode as a snapshot yield an empty snapshot rather
// than an error, so a corrupt file reads the same as a fresh one.
func (s *FileStore) Load() (kv.Snapshot, error) {
	f, err := os.OpenFile(s.path, os.O_RDWR|os.O_CREATE, fileMode)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", kv.ErrIO, s.path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", kv.ErrIO, s.path, err)
	}

	snap, err := codec.DecodeSnapshot(data)
	if err != nil {
		if len(data) > 0 {
			s.log.Warn().Err(err).Int("size", len(data)).Msg("undecodable snapshot, using empty store")
		}
		return kv.Snapshot{}, nil
	}

	return snap, nil
}

// Save replaces the file's entire content with the encoded snapshot.
func (s *FileStore) Save(snap kv.Snapshot) error {
	data, err := codec.EncodeSnapshot(snap)
	if err != nil {
		return err
	}

	if s.atomic {
		return s.saveAtomic(data)
	}

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fileMode)
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", kv.ErrIO, s.path, err)
	}

	if err := writeBuffered(f, data); err != nil {
		f.Close()
		return fmt.Errorf("%w: write %s: %w", kv.ErrIO, s.path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", kv.ErrIO, s.path, err)
	}

	s.log.Debug().Int("entries", len(snap)).Int("bytes", len(data)).Msg("snapshot saved")
	return nil
}

func (s *FileStore) saveAtomic(data []byte) error {
	mode, err := s.targetMode()
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".rpkv-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp for %s: %w", kv.ErrIO, s.path, err)
	}
	tmpName := tmp.Name()

	if err := writeBuffered(tmp, data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: write %s: %w", kv.ErrIO, tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: sync %s: %w", kv.ErrIO, tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: close %s: %w", kv.ErrIO, tmpName, err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: chmod %s: %w", kv.ErrIO, tmpName, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: rename %s: %w", kv.ErrIO, tmpName, err)
	}

	s.log.Debug().Int("bytes", len(data)).Msg("snapshot saved atomically")
	return nil
}

// targetMode returns the permission bits the renamed file should carry:
// those of the existing store, or what OpenFile would give a new one
// under the process umask.
func (s *FileStore) targetMode() (os.FileMode, error) {
	info, err := os.Stat(s.path)
	if os.IsNotExist(err) {
		f, cerr := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE, fileMode)
		if cerr != nil {
			return 0, fmt.Errorf("%w: create %s: %w", kv.ErrIO, s.path, cerr)
		}
		f.Close()
		info, err = os.Stat(s.path)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: stat %s: %w", kv.ErrIO, s.path, err)
	}
	return info.Mode().Perm(), nil
}

func writeBuffered(w io.Writer, data []byte) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(data); err != nil {
		return err
	}
	return bw.Flush()
}

// Put loads the store, sets key to value and saves the whole store back.
func (s *FileStore) Put(key, value string) error {
	snap, err := s.Load()
	if err != nil {
		return err
	}

	snap[key] = value
	return s.Save(snap)
}

// Get loads the store and looks up key.
func (s *FileStore) Get(key string) (string, bool, error) {
	snap, err := s.Load()
	if err != nil {
		return "", false, err
	}

	value, ok := snap[key]
	return value, ok, nil
}
