package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"sunswitch/internal/core/domain"
	"sunswitch/internal/core/port"

	"go.uber.org/zap"
)

// FileOwnershipStore keeps the script-ownership flags in a small JSON file so
// they survive restarts. A missing or unreadable file is not an error: the
// controller falls back to "script owns nothing", which can never take a
// user-owned device away from the user.
type FileOwnershipStore struct {
	path   string
	logger *zap.Logger
}

func NewFileOwnershipStore(path string, log *zap.Logger) *FileOwnershipStore {
	return &FileOwnershipStore{
		path:   path,
		logger: log.With(zap.String("state_file", path)),
	}
}

func (s *FileOwnershipStore) Load() domain.OwnershipState {
	var state domain.OwnershipState
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("could not read ownership state file, assuming defaults", zap.Error(err))
		}
		return state
	}
	if err := json.Unmarshal(data, &state); err != nil {
		s.logger.Warn("ownership state file is corrupt, assuming defaults", zap.Error(err))
		return domain.OwnershipState{}
	}
	return state
}

func (s *FileOwnershipStore) Record(device domain.DeviceKind, ownedByScript bool) error {
	state := s.Load()
	state.SetOwnedByScript(device, ownedByScript)
	return s.write(state)
}

// write replaces the whole file through a rename so a crash mid-write cannot
// leave a truncated record behind.
func (s *FileOwnershipStore) write(state domain.OwnershipState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode ownership state: %w", err)
	}
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".ownership-*")
	if err != nil {
		return fmt.Errorf("create ownership temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write ownership state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close ownership temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace ownership state file: %w", err)
	}
	return nil
}

var _ port.OwnershipStore = (*FileOwnershipStore)(nil)
