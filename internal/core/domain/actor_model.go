package domain

import "time"

const (
	ACTOR_ID_MASTER  = "master"
	ACTOR_ID_METER   = "powermeter"
	ACTOR_ID_SWITCH  = "switchgw"
	ACTOR_ID_MQTT    = "mqtt"
	ACTOR_ID_CONTROL = "control"
)

type GetPowerReadingRequest struct {
	ActorRequestMixIn
}

// GetPowerReadingResponse carries one meter sample. A response with
// ResponseError set means "no reading this tick"; callers must treat that as
// routine and skip policy evaluation, not as a fault.
type GetPowerReadingResponse struct {
	ActorResponseMixIn
	PowerWatt int64
	At        time.Time
}

type GetSwitchStateRequest struct {
	ActorRequestMixIn
	Device DeviceKind
}

type GetSwitchStateResponse struct {
	ActorResponseMixIn
	Device DeviceKind
	On     bool
}

type SetSwitchStateRequest struct {
	ActorRequestMixIn
	Device DeviceKind
	On     bool
}

type SetSwitchStateResponse struct {
	ActorResponseMixIn
	Device DeviceKind
	On     bool
}

type PublishMessageRequest struct {
	ActorRequestMixIn
	Topic   string
	Payload string
	Retain  bool
}

type PublishMessageResponse struct {
	ActorResponseMixIn
}

type PublishSensorUpdateRequest struct {
	ActorRequestMixIn
	Retain bool
	Event  SensorUpdateEvent
}

type PublishSensorUpdateResponse struct {
	ActorResponseMixIn
}

type ActorHealthRequest struct {
	ActorRequestMixIn
}

type ActorHealthResponse struct {
	ActorResponseMixIn
	Id      string
	Healthy bool
	State   string
}
