package actor

import (
	"errors"
	"testing"
	"time"

	"sunswitch/internal/core/domain"
	"sunswitch/pkg/powermeter"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPowerMeterActorReading(t *testing.T) {

	as := actor.NewActorSystem()
	context := as.Root
	logger := zap.NewNop()

	reader := powermeter.CreateTestReader(1500)

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewPowerMeterActor(reader, logger)
	})
	pid, err := context.SpawnNamed(props, "powermeter")
	require.NoError(t, err)

	res, err := context.RequestFuture(pid, domain.GetPowerReadingRequest{}, 5*time.Second).Result()
	require.NoError(t, err)

	reading, ok := res.(domain.GetPowerReadingResponse)
	require.True(t, ok)
	assert.False(t, reading.HasResponseError())
	assert.Equal(t, int64(1500), reading.PowerWatt)
	assert.False(t, reading.At.IsZero())

	context.Stop(pid)
	as.Shutdown()
}

func TestPowerMeterActorReadError(t *testing.T) {

	as := actor.NewActorSystem()
	context := as.Root
	logger := zap.NewNop()

	reader := &powermeter.TestReader{Err: errors.New("connection refused")}

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewPowerMeterActor(reader, logger)
	})
	pid, err := context.SpawnNamed(props, "powermeter")
	require.NoError(t, err)

	res, err := context.RequestFuture(pid, domain.GetPowerReadingRequest{}, 5*time.Second).Result()
	require.NoError(t, err)

	reading, ok := res.(domain.GetPowerReadingResponse)
	require.True(t, ok)
	assert.True(t, reading.HasResponseError())

	context.Stop(pid)
	as.Shutdown()
}

func TestPowerMeterActorSequence(t *testing.T) {

	as := actor.NewActorSystem()
	context := as.Root
	logger := zap.NewNop()

	reader := &powermeter.TestReader{Sequence: []int64{1200, 500, 150}}

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewPowerMeterActor(reader, logger)
	})
	pid, err := context.SpawnNamed(props, "powermeter")
	require.NoError(t, err)

	for _, expected := range []int64{1200, 500, 150, 150} {
		res, err := context.RequestFuture(pid, domain.GetPowerReadingRequest{}, 5*time.Second).Result()
		require.NoError(t, err)
		reading, ok := res.(domain.GetPowerReadingResponse)
		require.True(t, ok)
		assert.Equal(t, expected, reading.PowerWatt)
	}

	context.Stop(pid)
	as.Shutdown()
}
