package actor

import (
	"fmt"
	"time"

	"sunswitch/internal/core/domain"
	"sunswitch/internal/core/port"
	"sunswitch/internal/util/actorutil"
	"sunswitch/pkg/shelly"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

// ShellyGateway implements the switch gateway over one Shelly HTTP client per
// controlled device.
type ShellyGateway struct {
	clients map[domain.DeviceKind]*shelly.Client
}

func NewShellyGateway(relayHost, lampHost string, timeout time.Duration, log *zap.Logger) *ShellyGateway {
	return &ShellyGateway{
		clients: map[domain.DeviceKind]*shelly.Client{
			domain.DeviceRelay: shelly.NewClient(relayHost, timeout, log.With(zap.String("device", domain.DeviceRelay.String()))),
			domain.DeviceLamp:  shelly.NewClient(lampHost, timeout, log.With(zap.String("device", domain.DeviceLamp.String()))),
		},
	}
}

func (g *ShellyGateway) GetState(device domain.DeviceKind) (bool, error) {
	client, ok := g.clients[device]
	if !ok {
		return false, fmt.Errorf("no gateway configured for device %s", device)
	}
	return client.GetState(device.ControlPath())
}

func (g *ShellyGateway) SetState(device domain.DeviceKind, on bool) error {
	client, ok := g.clients[device]
	if !ok {
		return fmt.Errorf("no gateway configured for device %s", device)
	}
	_, err := client.SetState(device.ControlPath(), on)
	return err
}

// ensure interface compliance
var _ port.SwitchGateway = (*ShellyGateway)(nil)

// SwitchActor serializes device queries and commands through the gateway.
// A state read that fails is answered as "off": the policy only ever turns a
// device off that it found on, so off is the no-action failure mode.
type SwitchActor struct {
	behavior actor.Behavior
	stash    *actorutil.Stash
	gateway  port.SwitchGateway
	logger   *zap.Logger
}

func NewSwitchActor(gateway port.SwitchGateway, log *zap.Logger) *SwitchActor {
	act := &SwitchActor{
		gateway:  gateway,
		behavior: actor.NewBehavior(),
		stash:    &actorutil.Stash{},
		logger:   actorutil.ActorLogger(domain.ACTOR_ID_SWITCH, log),
	}
	act.behavior.Become(act.DefaultReceive)
	return act
}

func (state *SwitchActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *SwitchActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("switchgw@default: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_SWITCH,
			Healthy: true,
			State:   "idle",
		})
	case domain.GetSwitchStateRequest:
		state.logger.Debug("switchgw@default: GetSwitchStateRequest", zap.Stringer("device", msg.Device))
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)
		device := msg.Device

		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, func() (*domain.GetSwitchStateResponse, error) {
			return state.getState(device)
		}), mapTaskResult[domain.GetSwitchStateResponse](sender)).Recover(func(err error) backgroundTaskResult {
			state.logger.Warn("switchgw: could not read device state, assuming off",
				zap.Stringer("device", device), zap.Error(err))
			return backgroundTaskResult{
				message: domain.GetSwitchStateResponse{
					Device: device,
					On:     false,
				},
				replyTo: sender,
			}
		}).WithTimeout(5 * time.Second).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingGateway)
	case domain.SetSwitchStateRequest:
		state.logger.Debug("switchgw@default: SetSwitchStateRequest",
			zap.Stringer("device", msg.Device), zap.Bool("on", msg.On))
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)
		device := msg.Device
		on := msg.On

		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, func() (*domain.SetSwitchStateResponse, error) {
			return state.setState(device, on)
		}), mapTaskResult[domain.SetSwitchStateResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.SetSwitchStateResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
					Device: device,
					On:     on,
				},
				replyTo: sender,
			}
		}).WithTimeout(5 * time.Second).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingGateway)
	default:
		state.logger.Debug("switchgw@default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *SwitchActor) WaitingGateway(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case backgroundTaskResult:
		state.logger.Debug("switchgw@waiting backgroundTaskResult", zap.String("type", fmt.Sprintf("%T", msg.message)))
		ctx.Send(msg.replyTo, msg.message)
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("switchgw@waiting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *SwitchActor) getState(device domain.DeviceKind) (*domain.GetSwitchStateResponse, error) {
	on, err := state.gateway.GetState(device)
	if err != nil {
		return nil, err
	}
	return &domain.GetSwitchStateResponse{
		Device: device,
		On:     on,
	}, nil
}

func (state *SwitchActor) setState(device domain.DeviceKind, on bool) (*domain.SetSwitchStateResponse, error) {
	if err := state.gateway.SetState(device, on); err != nil {
		return nil, err
	}
	return &domain.SetSwitchStateResponse{
		Device: device,
		On:     on,
	}, nil
}
