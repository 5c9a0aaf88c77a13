package actor

import (
	"errors"
	"fmt"
	"log"
	"time"

	adactor "sunswitch/internal/adapter/actor"
	"sunswitch/internal/config"
	"sunswitch/internal/core/domain"
	"sunswitch/internal/core/port"
	. "sunswitch/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"go.uber.org/zap"
)

type MeterActorProvider func() *adactor.PowerMeterActor

type SwitchActorProvider func() *adactor.SwitchActor

type MQTTActorProvider func(*eventstream.EventStream) *adactor.MQTTActor

// MasterActor owns the actor tree: the two device adapters, the optional MQTT
// publisher and the control loop. Adapter children restart with exponential
// backoff so a flaky meter or gateway does not take the whole tree down.
type MasterActor struct {
	config   config.Config
	behavior actor.Behavior
	stash    *Stash

	currentHealthCheck healthCheckResult
	eventStream        *eventstream.EventStream
	meterActor         *actor.PID
	switchActor        *actor.PID
	mqttActor          *actor.PID
	controlActor       *actor.PID

	meterActorProvider  MeterActorProvider
	switchActorProvider SwitchActorProvider
	mqttActorProvider   MQTTActorProvider
	store               port.OwnershipStore
	calendar            port.SolarCalendar
	policy              port.ThresholdControlLogic

	logger *zap.Logger
}

type healthCheckResult struct {
	healthyById    map[string]bool
	checksExpected int
	checksReceived int
	respondTo      *actor.PID
}

func NewMasterActor(config config.Config, meterActorProvider MeterActorProvider,
	switchActorProvider SwitchActorProvider, mqttActorProvider MQTTActorProvider,
	store port.OwnershipStore, calendar port.SolarCalendar, policy port.ThresholdControlLogic,
	logger *zap.Logger) *MasterActor {
	act := &MasterActor{
		config:              config,
		behavior:            actor.NewBehavior(),
		stash:               &Stash{},
		logger:              ActorLogger(domain.ACTOR_ID_MASTER, logger),
		eventStream:         &eventstream.EventStream{},
		meterActorProvider:  meterActorProvider,
		switchActorProvider: switchActorProvider,
		mqttActorProvider:   mqttActorProvider,
		store:               store,
		calendar:            calendar,
		policy:              policy,
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *MasterActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MasterActor) EventStream() *eventstream.EventStream {
	return state.eventStream
}

func (state *MasterActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("master@starting started")

		state.currentHealthCheck = healthCheckResult{}
		state.currentHealthCheck.reset(state.expectedChecks())

		meterActorPID, err := state.startMeterActor(ctx)
		if err != nil {
			panic(err)
		}
		state.meterActor = meterActorPID

		switchActorPID, err := state.startSwitchActor(ctx)
		if err != nil {
			panic(err)
		}
		state.switchActor = switchActorPID

		if state.config.MQTT.Enabled() {
			mqttActorPID, err := state.startMQTTActor(ctx)
			if err != nil {
				panic(err)
			}
			state.mqttActor = mqttActorPID
		}

		controlActorPID, err := state.startControlActor(ctx)
		if err != nil {
			panic(err)
		}
		state.controlActor = controlActorPID

		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("master@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("master@default ActorHealthRequest")
		state.currentHealthCheck.reset(state.expectedChecks())
		state.currentHealthCheck.respondTo = ctx.Sender()

		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.meterActor, domain.ActorHealthRequest{}, 500*time.Millisecond), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_METER,
				Healthy: false,
			}
		})
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.switchActor, domain.ActorHealthRequest{}, 500*time.Millisecond), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_SWITCH,
				Healthy: false,
			}
		})
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.controlActor, domain.ActorHealthRequest{}, 500*time.Millisecond), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_CONTROL,
				Healthy: false,
			}
		})
		if state.mqttActor != nil {
			PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.mqttActor, domain.ActorHealthRequest{}, 500*time.Millisecond), func(err error) any {
				return domain.ActorHealthResponse{
					Id:      domain.ACTOR_ID_MQTT,
					Healthy: false,
				}
			})
		}

		ctx.SetReceiveTimeout(1 * time.Second)

		state.behavior.BecomeStacked(state.HealthCheckReceive)
	case *actor.Terminated:
		// if an adapter gives up on boot, terminate the whole service
		if msg.Who.Id == childId(domain.ACTOR_ID_METER) {
			state.logger.Error("master@default power meter terminated")
			panic(errors.New("power meter terminated"))
		}
		if msg.Who.Id == childId(domain.ACTOR_ID_SWITCH) {
			state.logger.Error("master@default switch gateway terminated")
			panic(errors.New("switch gateway terminated"))
		}
	default:
		state.logger.Debug("master@default stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterActor) HealthCheckReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.ReceiveTimeout:
		// a child that does not answer counts as unhealthy
		ctx.SetReceiveTimeout(0)
		state.currentHealthCheck.respond(ctx)
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case domain.ActorHealthResponse:
		state.logger.Debug("master@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		state.currentHealthCheck.checksReceived++
		state.currentHealthCheck.healthyById[msg.Id] = msg.Healthy
		if state.currentHealthCheck.allReceived() {
			ctx.SetReceiveTimeout(0)
			state.currentHealthCheck.respond(ctx)
			state.behavior.UnbecomeStacked()
			state.stash.UnstashAll(ctx)
		} else {
			ctx.SetReceiveTimeout(1 * time.Second)
		}
	default:
		state.logger.Debug("master@healthcheck stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterActor) startMeterActor(ctx actor.Context) (*actor.PID, error) {
	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	meterProps := actor.PropsFromProducer(func() actor.Actor {
		return state.meterActorProvider()
	}, actor.WithSupervisor(supervisor))
	return ctx.SpawnNamed(meterProps, domain.ACTOR_ID_METER)
}

func (state *MasterActor) startSwitchActor(ctx actor.Context) (*actor.PID, error) {
	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	switchProps := actor.PropsFromProducer(func() actor.Actor {
		return state.switchActorProvider()
	}, actor.WithSupervisor(supervisor))
	return ctx.SpawnNamed(switchProps, domain.ACTOR_ID_SWITCH)
}

func (state *MasterActor) startMQTTActor(ctx actor.Context) (*actor.PID, error) {
	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	mqttProps := actor.PropsFromProducer(func() actor.Actor {
		return state.mqttActorProvider(state.eventStream)
	}, actor.WithSupervisor(supervisor))
	return ctx.SpawnNamed(mqttProps, domain.ACTOR_ID_MQTT)
}

func (state *MasterActor) startControlActor(ctx actor.Context) (*actor.PID, error) {
	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for child. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(1, 10*time.Second, decider)

	controlProps := actor.PropsFromProducer(func() actor.Actor {
		return NewControlActor(&state.config, state.meterActor, state.switchActor,
			state.store, state.calendar, state.policy, state.eventStream, state.logger)
	}, actor.WithSupervisor(supervisor))
	return ctx.SpawnNamed(controlProps, domain.ACTOR_ID_CONTROL)
}

func (state *MasterActor) expectedChecks() int {
	if state.config.MQTT.Enabled() {
		return 4
	}
	return 3
}

func childId(id string) string {
	return fmt.Sprintf("%s/%s", domain.ACTOR_ID_MASTER, id)
}

func (state *healthCheckResult) reset(expected int) {
	state.healthyById = map[string]bool{}
	state.checksExpected = expected
	state.checksReceived = 0
	state.respondTo = nil
}

func (state *healthCheckResult) allReceived() bool {
	return state.checksReceived == state.checksExpected
}

func (state *healthCheckResult) allHealthy() bool {
	if len(state.healthyById) < state.checksExpected {
		return false
	}
	for _, healthy := range state.healthyById {
		if !healthy {
			return false
		}
	}
	return true
}

func (state *healthCheckResult) respond(ctx actor.Context) {
	resp := domain.ActorHealthResponse{
		Id:      domain.ACTOR_ID_MASTER,
		Healthy: state.allHealthy(),
	}
	if state.respondTo != nil {
		ctx.Send(state.respondTo, resp)
	}
}
