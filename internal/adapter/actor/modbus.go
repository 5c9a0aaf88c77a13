package actor

import (
	"fmt"
	"time"

	"sunswitch/internal/core/domain"
	"sunswitch/internal/util/actorutil"
	"sunswitch/pkg/powermeter"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/reugn/go-quartz/logger"
	"go.uber.org/zap"
)

// PowerMeterActor serializes access to the Modbus power meter. One read is in
// flight at a time; requests arriving mid-read are stashed.
type PowerMeterActor struct {
	behavior actor.Behavior
	stash    *actorutil.Stash
	reader   powermeter.Reader
	logger   *zap.Logger
}

type backgroundTaskResult struct {
	message any
	replyTo *actor.PID
}

func NewPowerMeterActor(reader powermeter.Reader, log *zap.Logger) *PowerMeterActor {
	act := &PowerMeterActor{
		reader:   reader,
		behavior: actor.NewBehavior(),
		stash:    &actorutil.Stash{},
		logger:   actorutil.ActorLogger(domain.ACTOR_ID_METER, log),
	}
	act.behavior.Become(act.DefaultReceive)
	return act
}

func (state *PowerMeterActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *PowerMeterActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("powermeter@default: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_METER,
			Healthy: true,
			State:   "idle",
		})
	case domain.GetPowerReadingRequest:
		state.logger.Debug("powermeter@default: GetPowerReadingRequest")
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)

		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, state.readPower),
			mapTaskResult[domain.GetPowerReadingResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.GetPowerReadingResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				},
				replyTo: sender,
			}
		}).WithTimeout(2 * time.Second).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingModbus)
	default:
		state.logger.Debug("powermeter@default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *PowerMeterActor) WaitingModbus(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case backgroundTaskResult:
		state.logger.Debug("powermeter@waiting backgroundTaskResult", zap.String("type", fmt.Sprintf("%T", msg.message)))
		ctx.Send(msg.replyTo, msg.message)
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("powermeter@waiting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (a *PowerMeterActor) readPower() (*domain.GetPowerReadingResponse, error) {
	watts, err := a.reader.ReadPower()
	if err != nil {
		logger.Error(err)
		return nil, err
	}
	return &domain.GetPowerReadingResponse{
		PowerWatt: watts,
		At:        time.Now(),
	}, nil
}

func mapTaskResult[T any](sender *actor.PID) func(t *T) *backgroundTaskResult {
	return func(t *T) *backgroundTaskResult {
		return &backgroundTaskResult{
			message: *t,
			replyTo: sender,
		}
	}
}
