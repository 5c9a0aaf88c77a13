package actor

import (
	"fmt"
	"time"

	"sunswitch/internal/config"
	"sunswitch/internal/core/domain"
	"sunswitch/internal/core/events"
	"sunswitch/internal/core/port"
	. "sunswitch/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"
)

// ControlActor runs the supervisory loop: every poll interval during daylight
// it samples solar power, reads the live device states and applies the
// threshold policy. After sunset it parks until the next sunrise on a
// cancellable timer, so shutdown never has to wait the night out.
type ControlActor struct {
	ActorWithStates
	scheduler   *scheduler.TimerScheduler
	stash       *Stash
	meterActor  *actor.PID
	switchActor *actor.PID
	config      *config.Config
	store       port.OwnershipStore
	calendar    port.SolarCalendar
	policy      port.ThresholdControlLogic
	eventStream *eventstream.EventStream

	ownership    domain.OwnershipState
	pollInterval time.Duration
	tick         tickData
	cancelTimer  scheduler.CancelFunc

	logger *zap.Logger
}

type controlTick struct {
}

type sunriseWake struct {
}

// tickData accumulates one tick's worth of device responses. Queries and
// commands run one at a time through the switch actor.
type tickData struct {
	power    int64
	states   map[domain.DeviceKind]bool
	queries  []domain.DeviceKind
	commands []domain.SwitchCommand
}

func NewControlActor(config *config.Config, meterActor, switchActor *actor.PID,
	store port.OwnershipStore, calendar port.SolarCalendar, policy port.ThresholdControlLogic,
	eventStream *eventstream.EventStream, logger *zap.Logger) *ControlActor {
	act := &ControlActor{
		config:       config,
		meterActor:   meterActor,
		switchActor:  switchActor,
		store:        store,
		calendar:     calendar,
		policy:       policy,
		eventStream:  eventStream,
		stash:        &Stash{},
		pollInterval: time.Duration(config.Control.PollIntervalSeconds) * time.Second,
		logger:       ActorLogger(domain.ACTOR_ID_CONTROL, logger),
		ActorWithStates: ActorWithStates{
			Behavior: actor.NewBehavior(),
		},
	}
	act.Become(CtrlStartingState{
		actor: act,
	})
	return act
}

func (state *ControlActor) Receive(context actor.Context) {
	state.Behavior.Receive(context)
}

// Starting state

type CtrlStartingState struct {
	ActorState
	actor *ControlActor
}

func (state CtrlStartingState) Name() string {
	return "starting"
}

func (state CtrlStartingState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.actor.logger.Debug("control@starting started")

		state.actor.scheduler = scheduler.NewTimerScheduler(ctx)
		state.actor.ownership = state.actor.store.Load()
		for _, device := range domain.AllDeviceKinds() {
			state.actor.publish(events.OwnershipToUpdateEvent(device, state.actor.ownership.OwnedByScript(device)))
		}

		state.actor.tick = newTickData()
		state.actor.Become(CtrlReconcilingState{
			actor: state.actor,
		})
		state.actor.queryNextDevice(ctx)
	case *actor.Restarting:
	default:
		state.actor.logger.Debug("control@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.actor.stash.Stash(ctx, msg)
	}
}

// Reconciling state. Collects the live state of every device once, then
// hands flags for devices the script does not actually hold back to the user.

type CtrlReconcilingState struct {
	ActorState
	actor *ControlActor
}

func (state CtrlReconcilingState) Name() string {
	return "reconciling"
}

func (state CtrlReconcilingState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.GetSwitchStateResponse:
		state.actor.collectSwitchState(msg)
		if len(state.actor.tick.queries) > 0 {
			state.actor.queryNextDevice(ctx)
			return
		}
		for _, update := range state.actor.policy.ReconcileStartup(state.actor.snapshots()) {
			state.actor.recordOwnership(update.Device, update.OwnedByScript)
		}
		state.actor.enterDayOrNight(ctx, true)
		state.actor.stash.UnstashAll(ctx)
	default:
		state.actor.logger.Debug("control@reconciling: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.actor.stash.Stash(ctx, msg)
	}
}

// Day state

type CtrlDayState struct {
	ActorState
	actor *ControlActor
}

func (state CtrlDayState) Name() string {
	return "day"
}

func (state CtrlDayState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.actor.logger.Debug("control@day: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_CONTROL,
			Healthy: true,
			State:   state.Name(),
		})
	case controlTick:
		state.actor.logger.Debug("control@day controlTick")
		state.actor.tick = newTickData()
		state.actor.BecomeStacked(CtrlAwaitPowerState{
			actor: state.actor,
		}.OnEnterAction(ctx))
	case domain.GetPowerReadingResponse:
		if msg.HasResponseError() {
			state.actor.logger.Warn("control@day: failed to get solar output, skipping tick",
				zap.Error(msg.GetResponseError()))
			state.actor.finishTick(ctx)
			return
		}
		state.actor.logger.Sugar().Infof("control@day: solar power %d W (high: %d W, low: %d W)",
			msg.PowerWatt, state.actor.config.Thresholds.HighWatts, state.actor.config.Thresholds.LowWatts)
		state.actor.tick.power = msg.PowerWatt
		for _, ev := range events.PowerReadingToUpdateEvents(msg.PowerWatt) {
			state.actor.publish(ev)
		}
		state.actor.queryNextDevice(ctx)
	case domain.GetSwitchStateResponse:
		state.actor.collectSwitchState(msg)
		if len(state.actor.tick.queries) > 0 {
			state.actor.queryNextDevice(ctx)
			return
		}
		state.actor.evaluateTick(ctx)
	case domain.SetSwitchStateResponse:
		if msg.HasResponseError() {
			state.actor.logger.Error("control@day: switch command failed",
				zap.Stringer("device", msg.Device), zap.Bool("on", msg.On),
				zap.Error(msg.GetResponseError()))
		} else {
			state.actor.recordOwnership(msg.Device, msg.On)
			state.actor.publish(events.SwitchStateToUpdateEvent(msg.Device, msg.On))
		}
		state.actor.commandNextDevice(ctx)
	case *actor.Stopping:
		state.actor.cancelPendingTimer()
	default:
		state.actor.logger.Debug("control@day: recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

// Night state

type CtrlNightState struct {
	ActorState
	actor *ControlActor
}

func (state CtrlNightState) Name() string {
	return "sleeping"
}

func (state CtrlNightState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.actor.logger.Debug("control@sleeping: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_CONTROL,
			Healthy: true,
			State:   state.Name(),
		})
	case sunriseWake:
		state.actor.logger.Info("control@sleeping: woke up at sunrise")
		state.actor.cancelTimer = nil
		state.actor.enterDay(ctx)
	case *actor.Stopping:
		state.actor.cancelPendingTimer()
	default:
		state.actor.logger.Debug("control@sleeping: recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

// Await power reading state

type CtrlAwaitPowerState struct {
	ActorState
	actor *ControlActor
}

func (state CtrlAwaitPowerState) Name() string {
	return "awaitPowerReading"
}

func (state CtrlAwaitPowerState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.GetPowerReadingResponse:
		state.actor.logger.Debug("control@awaitPowerReading: GetPowerReadingResponse")
		ctx.RequestWithCustomSender(ctx.Self(), msg, ctx.Sender())
		state.actor.UnbecomeStacked()
		state.actor.stash.UnstashAll(ctx)
	default:
		state.actor.logger.Debug("control@awaitPowerReading: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.actor.stash.Stash(ctx, msg)
	}
}

func (state CtrlAwaitPowerState) OnEnterAction(ctx actor.Context) CtrlAwaitPowerState {
	PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.actor.meterActor,
		domain.GetPowerReadingRequest{}, 5*time.Second),
		func(err error) any {
			return domain.GetPowerReadingResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: err,
				},
			}
		})
	return state
}

// Await switch state response state

type CtrlAwaitSwitchStateState struct {
	ActorState
	actor  *ControlActor
	device domain.DeviceKind
}

func (state CtrlAwaitSwitchStateState) Name() string {
	return "awaitSwitchState"
}

func (state CtrlAwaitSwitchStateState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.GetSwitchStateResponse:
		state.actor.logger.Debug("control@awaitSwitchState: GetSwitchStateResponse",
			zap.Stringer("device", msg.Device))
		ctx.RequestWithCustomSender(ctx.Self(), msg, ctx.Sender())
		state.actor.UnbecomeStacked()
		state.actor.stash.UnstashAll(ctx)
	default:
		state.actor.logger.Debug("control@awaitSwitchState: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.actor.stash.Stash(ctx, msg)
	}
}

func (state CtrlAwaitSwitchStateState) OnEnterAction(ctx actor.Context) CtrlAwaitSwitchStateState {
	device := state.device
	PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.actor.switchActor,
		domain.GetSwitchStateRequest{Device: device}, 5*time.Second),
		func(err error) any {
			return domain.GetSwitchStateResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: err,
				},
				Device: device,
				On:     false,
			}
		})
	return state
}

// Await switch command response state

type CtrlAwaitSetState struct {
	ActorState
	actor   *ControlActor
	command domain.SwitchCommand
}

func (state CtrlAwaitSetState) Name() string {
	return "awaitSwitchCommand"
}

func (state CtrlAwaitSetState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.SetSwitchStateResponse:
		state.actor.logger.Debug("control@awaitSwitchCommand: SetSwitchStateResponse",
			zap.Stringer("device", msg.Device))
		ctx.RequestWithCustomSender(ctx.Self(), msg, ctx.Sender())
		state.actor.UnbecomeStacked()
		state.actor.stash.UnstashAll(ctx)
	default:
		state.actor.logger.Debug("control@awaitSwitchCommand: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.actor.stash.Stash(ctx, msg)
	}
}

func (state CtrlAwaitSetState) OnEnterAction(ctx actor.Context) CtrlAwaitSetState {
	command := state.command
	PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.actor.switchActor,
		domain.SetSwitchStateRequest{Device: command.Device, On: command.On}, 5*time.Second),
		func(err error) any {
			return domain.SetSwitchStateResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: err,
				},
				Device: command.Device,
				On:     command.On,
			}
		})
	return state
}

// Tick helpers

func newTickData() tickData {
	return tickData{
		states:  map[domain.DeviceKind]bool{},
		queries: domain.AllDeviceKinds(),
	}
}

func (state *ControlActor) queryNextDevice(ctx actor.Context) {
	device := state.tick.queries[0]
	state.BecomeStacked(CtrlAwaitSwitchStateState{
		actor:  state,
		device: device,
	}.OnEnterAction(ctx))
}

func (state *ControlActor) collectSwitchState(msg domain.GetSwitchStateResponse) {
	on := msg.On
	if msg.HasResponseError() {
		// a device we could not read is treated as off, which the policy
		// never acts on
		state.logger.Warn("control: could not read device state, assuming off",
			zap.Stringer("device", msg.Device), zap.Error(msg.GetResponseError()))
		on = false
	}
	state.tick.states[msg.Device] = on
	if len(state.tick.queries) > 0 && state.tick.queries[0] == msg.Device {
		state.tick.queries = state.tick.queries[1:]
	}
}

func (state *ControlActor) snapshots() []domain.DeviceSnapshot {
	var snaps []domain.DeviceSnapshot
	for _, device := range domain.AllDeviceKinds() {
		snaps = append(snaps, domain.DeviceSnapshot{
			Device:        device,
			On:            state.tick.states[device],
			OwnedByScript: state.ownership.OwnedByScript(device),
		})
	}
	return snaps
}

func (state *ControlActor) evaluateTick(ctx actor.Context) {
	result := state.policy.EvaluateTick(state.tick.power, state.snapshots())
	for _, update := range result.Updates {
		state.recordOwnership(update.Device, update.OwnedByScript)
	}
	state.tick.commands = result.Commands
	state.commandNextDevice(ctx)
}

func (state *ControlActor) commandNextDevice(ctx actor.Context) {
	if len(state.tick.commands) == 0 {
		state.finishTick(ctx)
		return
	}
	command := state.tick.commands[0]
	state.tick.commands = state.tick.commands[1:]
	state.logger.Sugar().Infof("control@day: turning %s %s", command.Device, onOff(command.On))
	state.BecomeStacked(CtrlAwaitSetState{
		actor:   state,
		command: command,
	}.OnEnterAction(ctx))
}

func (state *ControlActor) finishTick(ctx actor.Context) {
	state.enterDayOrNight(ctx, false)
}

// enterDayOrNight decides day vs night from the calendar. A calendar error is
// logged and treated as day so the loop keeps polling.
func (state *ControlActor) enterDayOrNight(ctx actor.Context, immediateTick bool) {
	sunsetPassed, err := state.calendar.HasPassed(port.SunEventSunset)
	if err != nil {
		state.logger.Error("control: could not compute sunset, staying in day mode", zap.Error(err))
		sunsetPassed = false
	}
	if sunsetPassed {
		state.enterNight(ctx)
		return
	}
	if immediateTick {
		state.enterDay(ctx)
		return
	}
	state.Become(CtrlDayState{
		actor: state,
	})
	state.cancelTimer = state.scheduler.RequestOnce(state.pollInterval, ctx.Self(), controlTick{})
}

func (state *ControlActor) enterDay(ctx actor.Context) {
	state.publish(events.ControlStateToUpdateEvent("day"))
	state.Become(CtrlDayState{
		actor: state,
	})
	ctx.Send(ctx.Self(), controlTick{})
}

func (state *ControlActor) enterNight(ctx actor.Context) {
	sleep, err := state.calendar.SleepUntilNextSunrise()
	if err != nil {
		state.logger.Error("control: could not compute next sunrise, retrying in one hour", zap.Error(err))
		sleep = 1 * time.Hour
	}
	state.logger.Sugar().Infof("control: sun has set, sleeping %s until next sunrise", sleep.Round(time.Second))
	state.publish(events.ControlStateToUpdateEvent("night"))
	state.Become(CtrlNightState{
		actor: state,
	})
	state.cancelTimer = state.scheduler.RequestOnce(sleep, ctx.Self(), sunriseWake{})
}

// recordOwnership persists a changed flag and publishes it. An unchanged flag
// is not rewritten.
func (state *ControlActor) recordOwnership(device domain.DeviceKind, ownedByScript bool) {
	if state.ownership.OwnedByScript(device) == ownedByScript {
		return
	}
	state.ownership.SetOwnedByScript(device, ownedByScript)
	if err := state.store.Record(device, ownedByScript); err != nil {
		state.logger.Warn("control: could not persist ownership state",
			zap.Stringer("device", device), zap.Error(err))
	}
	state.publish(events.OwnershipToUpdateEvent(device, ownedByScript))
}

func (state *ControlActor) publish(event any) {
	state.eventStream.Publish(event)
}

func (state *ControlActor) cancelPendingTimer() {
	if state.cancelTimer != nil {
		state.cancelTimer()
		state.cancelTimer = nil
	}
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
