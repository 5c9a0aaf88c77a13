package actor

import (
	"errors"
	"testing"
	"time"

	"sunswitch/internal/core/domain"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func spawnSwitchActor(t *testing.T, gateway *TestSwitchGateway) (*actor.ActorSystem, *actor.RootContext, *actor.PID) {
	t.Helper()
	as := actor.NewActorSystem()
	context := as.Root

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewSwitchActor(gateway, zap.NewNop())
	})
	pid, err := context.SpawnNamed(props, "switchgw")
	require.NoError(t, err)
	return as, context, pid
}

func TestSwitchActorGetState(t *testing.T) {

	gateway := CreateTestSwitchGateway()
	gateway.SetLiveState(domain.DeviceLamp, true)

	as, context, pid := spawnSwitchActor(t, gateway)
	defer as.Shutdown()

	res, err := context.RequestFuture(pid, domain.GetSwitchStateRequest{Device: domain.DeviceLamp}, 5*time.Second).Result()
	require.NoError(t, err)
	state, ok := res.(domain.GetSwitchStateResponse)
	require.True(t, ok)
	assert.False(t, state.HasResponseError())
	assert.Equal(t, domain.DeviceLamp, state.Device)
	assert.True(t, state.On)

	res, err = context.RequestFuture(pid, domain.GetSwitchStateRequest{Device: domain.DeviceRelay}, 5*time.Second).Result()
	require.NoError(t, err)
	state, ok = res.(domain.GetSwitchStateResponse)
	require.True(t, ok)
	assert.False(t, state.On)

	context.Stop(pid)
}

// A failed state read is answered as off without an error, so the control
// loop keeps running and never turns off a device it cannot see.
func TestSwitchActorGetStateFailureDefaultsToOff(t *testing.T) {

	gateway := CreateTestSwitchGateway()
	gateway.GetErr = errors.New("device unreachable")

	as, context, pid := spawnSwitchActor(t, gateway)
	defer as.Shutdown()

	res, err := context.RequestFuture(pid, domain.GetSwitchStateRequest{Device: domain.DeviceRelay}, 5*time.Second).Result()
	require.NoError(t, err)
	state, ok := res.(domain.GetSwitchStateResponse)
	require.True(t, ok)
	assert.False(t, state.HasResponseError())
	assert.False(t, state.On)

	context.Stop(pid)
}

func TestSwitchActorSetState(t *testing.T) {

	gateway := CreateTestSwitchGateway()

	as, context, pid := spawnSwitchActor(t, gateway)
	defer as.Shutdown()

	res, err := context.RequestFuture(pid, domain.SetSwitchStateRequest{Device: domain.DeviceRelay, On: true}, 5*time.Second).Result()
	require.NoError(t, err)
	state, ok := res.(domain.SetSwitchStateResponse)
	require.True(t, ok)
	assert.False(t, state.HasResponseError())
	assert.Equal(t, domain.DeviceRelay, state.Device)
	assert.True(t, state.On)

	commands := gateway.RecordedCommands()
	require.Len(t, commands, 1)
	assert.Equal(t, domain.SwitchCommand{Device: domain.DeviceRelay, On: true}, commands[0])

	context.Stop(pid)
}

func TestSwitchActorSetStateFailure(t *testing.T) {

	gateway := CreateTestSwitchGateway()
	gateway.SetErr = errors.New("device unreachable")

	as, context, pid := spawnSwitchActor(t, gateway)
	defer as.Shutdown()

	res, err := context.RequestFuture(pid, domain.SetSwitchStateRequest{Device: domain.DeviceLamp, On: true}, 5*time.Second).Result()
	require.NoError(t, err)
	state, ok := res.(domain.SetSwitchStateResponse)
	require.True(t, ok)
	assert.True(t, state.HasResponseError())
	assert.Empty(t, gateway.RecordedCommands())

	context.Stop(pid)
}
