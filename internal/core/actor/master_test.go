package actor

import (
	"testing"
	"time"

	adactor "sunswitch/internal/adapter/actor"
	"sunswitch/internal/core/domain"
	"sunswitch/internal/core/service"
	"sunswitch/internal/util"
	"sunswitch/pkg/powermeter"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMasterActorHealth(t *testing.T) {

	as := actor.NewActorSystem()
	context := as.Root

	cfg := util.LoadTestConfig(t.TempDir())
	cfg.Control.PollIntervalSeconds = 1
	logCfg := zap.NewDevelopmentConfig()
	logCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
	logger := zap.Must(logCfg.Build())

	store := &memOwnershipStore{}
	calendar := &fakeCalendar{}
	policy := &service.DefaultThresholdControlLogic{
		HighThresholdWatt: cfg.Thresholds.HighWatts,
		LowThresholdWatt:  cfg.Thresholds.LowWatts,
		Logger:            logger,
	}

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewMasterActor(cfg, func() *adactor.PowerMeterActor {
			return adactor.NewPowerMeterActor(powermeter.CreateTestReader(500), logger)
		}, func() *adactor.SwitchActor {
			return adactor.NewSwitchActor(adactor.CreateTestSwitchGateway(), logger)
		}, func(es *eventstream.EventStream) *adactor.MQTTActor {
			return adactor.NewMQTTActor(&cfg, es, logger)
		}, store, calendar, policy, logger)
	})
	pid, err := context.SpawnNamed(props, "master")
	require.NoError(t, err)

	time.Sleep(2 * time.Second)

	res, err := context.RequestFuture(pid, domain.ActorHealthRequest{}, 10*time.Second).Result()
	require.NoError(t, err)

	healthResp, ok := res.(domain.ActorHealthResponse)
	assert.True(t, ok)
	assert.True(t, healthResp.Healthy, "healthy is true")
	assert.Equal(t, domain.ACTOR_ID_MASTER, healthResp.Id)

	context.Stop(pid)

	as.Shutdown()
}

func TestMasterActorRunsControlLoop(t *testing.T) {

	as := actor.NewActorSystem()
	context := as.Root

	cfg := util.LoadTestConfig(t.TempDir())
	cfg.Control.PollIntervalSeconds = 1
	logger := zap.NewNop()

	gateway := adactor.CreateTestSwitchGateway()
	store := &memOwnershipStore{}
	calendar := &fakeCalendar{}
	policy := &service.DefaultThresholdControlLogic{
		HighThresholdWatt: cfg.Thresholds.HighWatts,
		LowThresholdWatt:  cfg.Thresholds.LowWatts,
		Logger:            logger,
	}

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewMasterActor(cfg, func() *adactor.PowerMeterActor {
			return adactor.NewPowerMeterActor(powermeter.CreateTestReader(1500), logger)
		}, func() *adactor.SwitchActor {
			return adactor.NewSwitchActor(gateway, logger)
		}, func(es *eventstream.EventStream) *adactor.MQTTActor {
			return adactor.NewMQTTActor(&cfg, es, logger)
		}, store, calendar, policy, logger)
	})
	pid, err := context.SpawnNamed(props, "master")
	require.NoError(t, err)

	time.Sleep(2500 * time.Millisecond)

	commands := gateway.RecordedCommands()
	assert.Contains(t, commands, domain.SwitchCommand{Device: domain.DeviceRelay, On: true})
	assert.Contains(t, commands, domain.SwitchCommand{Device: domain.DeviceLamp, On: true})

	context.Stop(pid)

	as.Shutdown()
}
