package storage

import (
	"os"
	"path/filepath"
	"testing"

	"sunswitch/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testStore(t *testing.T) *FileOwnershipStore {
	t.Helper()
	return NewFileOwnershipStore(filepath.Join(t.TempDir(), "ownership.json"), zap.NewNop())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	store := testStore(t)

	state := store.Load()
	assert.False(t, state.RelayTurnedOnByScript)
	assert.False(t, state.LampTurnedOnByScript)
}

func TestRecordCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ownership.json")
	store := NewFileOwnershipStore(path, zap.NewNop())

	require.NoError(t, store.Record(domain.DeviceRelay, true))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestRecordRoundTrip(t *testing.T) {
	store := testStore(t)

	require.NoError(t, store.Record(domain.DeviceRelay, true))

	state := store.Load()
	assert.True(t, state.RelayTurnedOnByScript)
	assert.False(t, state.LampTurnedOnByScript)
}

// Record must merge into the existing record, not overwrite the other flag.
func TestRecordPreservesOtherDevice(t *testing.T) {
	store := testStore(t)

	require.NoError(t, store.Record(domain.DeviceLamp, true))
	require.NoError(t, store.Record(domain.DeviceRelay, true))
	require.NoError(t, store.Record(domain.DeviceRelay, false))

	state := store.Load()
	assert.False(t, state.RelayTurnedOnByScript)
	assert.True(t, state.LampTurnedOnByScript)
}

func TestLoadCorruptFileReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ownership.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	store := NewFileOwnershipStore(path, zap.NewNop())

	state := store.Load()
	assert.False(t, state.RelayTurnedOnByScript)
	assert.False(t, state.LampTurnedOnByScript)

	// a corrupt file must still be recoverable by the next write
	require.NoError(t, store.Record(domain.DeviceLamp, true))
	assert.True(t, store.Load().LampTurnedOnByScript)
}

func TestOnDiskFieldNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ownership.json")
	store := NewFileOwnershipStore(path, zap.NewNop())

	require.NoError(t, store.Record(domain.DeviceRelay, true))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "relay_turned_on_by_script")
	assert.Contains(t, string(data), "lamp_turned_on_by_script")
}
