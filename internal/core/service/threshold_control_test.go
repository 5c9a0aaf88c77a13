package service

import (
	"testing"

	"sunswitch/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testPolicy() *DefaultThresholdControlLogic {
	return &DefaultThresholdControlLogic{
		HighThresholdWatt: 1000,
		LowThresholdWatt:  200,
		Logger:            zap.NewNop(),
	}
}

func snaps(relayOn, relayOwned, lampOn, lampOwned bool) []domain.DeviceSnapshot {
	return []domain.DeviceSnapshot{
		{Device: domain.DeviceRelay, On: relayOn, OwnedByScript: relayOwned},
		{Device: domain.DeviceLamp, On: lampOn, OwnedByScript: lampOwned},
	}
}

func TestHighPowerTurnsOnAllDevices(t *testing.T) {
	policy := testPolicy()

	result := policy.EvaluateTick(1200, snaps(false, false, false, false))

	require.Len(t, result.Commands, 2)
	assert.Equal(t, domain.SwitchCommand{Device: domain.DeviceRelay, On: true}, result.Commands[0])
	assert.Equal(t, domain.SwitchCommand{Device: domain.DeviceLamp, On: true}, result.Commands[1])
	assert.Empty(t, result.Updates)
}

func TestHighPowerAdoptsDevicesAlreadyOn(t *testing.T) {
	policy := testPolicy()

	// relay is on but not ours, lamp is on and already ours
	result := policy.EvaluateTick(1200, snaps(true, false, true, true))

	assert.Empty(t, result.Commands, "devices already on must not be commanded again")
	require.Len(t, result.Updates, 1)
	assert.Equal(t, domain.OwnershipUpdate{Device: domain.DeviceRelay, OwnedByScript: true}, result.Updates[0])
}

func TestPowerWithinThresholdsTakesNoAction(t *testing.T) {
	policy := testPolicy()

	for _, devices := range [][]domain.DeviceSnapshot{
		snaps(false, false, false, false),
		snaps(true, true, true, true),
		snaps(true, false, false, true),
	} {
		result := policy.EvaluateTick(500, devices)
		assert.Empty(t, result.Commands)
		assert.Empty(t, result.Updates)
	}
}

func TestLowPowerTurnsOffOnlyScriptOwnedDevices(t *testing.T) {
	policy := testPolicy()

	// relay turned on by us, lamp turned on by a person
	result := policy.EvaluateTick(150, snaps(true, true, true, false))

	require.Len(t, result.Commands, 1)
	assert.Equal(t, domain.SwitchCommand{Device: domain.DeviceRelay, On: false}, result.Commands[0])
	assert.Empty(t, result.Updates)
}

func TestLowPowerIgnoresDevicesAlreadyOff(t *testing.T) {
	policy := testPolicy()

	result := policy.EvaluateTick(150, snaps(false, true, false, false))

	assert.Empty(t, result.Commands)
	assert.Empty(t, result.Updates)
}

func TestThresholdBoundariesAreExclusive(t *testing.T) {
	policy := testPolicy()

	// exactly at a threshold is within the dead zone
	result := policy.EvaluateTick(1000, snaps(false, false, false, false))
	assert.Empty(t, result.Commands)

	result = policy.EvaluateTick(200, snaps(true, true, true, true))
	assert.Empty(t, result.Commands)
}

// Walks one day's worth of readings through the policy, applying commands and
// updates to an in-memory world between ticks.
func TestTickSequenceOverOneDay(t *testing.T) {
	policy := testPolicy()

	on := map[domain.DeviceKind]bool{}
	owned := map[domain.DeviceKind]bool{}

	world := func() []domain.DeviceSnapshot {
		return snaps(on[domain.DeviceRelay], owned[domain.DeviceRelay],
			on[domain.DeviceLamp], owned[domain.DeviceLamp])
	}
	apply := func(result domain.TickResult) {
		for _, cmd := range result.Commands {
			on[cmd.Device] = cmd.On
			owned[cmd.Device] = cmd.On
		}
		for _, update := range result.Updates {
			owned[update.Device] = update.OwnedByScript
		}
	}

	// morning: plenty of sun
	result := policy.EvaluateTick(1200, world())
	require.Len(t, result.Commands, 2)
	apply(result)
	assert.True(t, on[domain.DeviceRelay])
	assert.True(t, on[domain.DeviceLamp])

	// afternoon: sun dips into the dead zone, nothing moves
	result = policy.EvaluateTick(500, world())
	assert.Empty(t, result.Commands)
	assert.Empty(t, result.Updates)
	apply(result)

	// evening: below low, both devices are ours, both go off
	result = policy.EvaluateTick(150, world())
	require.Len(t, result.Commands, 2)
	apply(result)
	assert.False(t, on[domain.DeviceRelay])
	assert.False(t, on[domain.DeviceLamp])
}

func TestReconcileStartupHandsOnDevicesToUser(t *testing.T) {
	policy := testPolicy()

	// relay found on without a recorded transition, lamp off with a stale flag
	updates := policy.ReconcileStartup(snaps(true, false, false, true))

	require.Len(t, updates, 1)
	assert.Equal(t, domain.OwnershipUpdate{Device: domain.DeviceRelay, OwnedByScript: false}, updates[0])
}

func TestReconcileStartupIsQuietWhenConsistent(t *testing.T) {
	policy := testPolicy()

	updates := policy.ReconcileStartup(snaps(false, false, true, true))
	assert.Empty(t, updates)
}
