package events

import (
	. "sunswitch/internal/core/domain"
)

const (
	SENSOR_ID_BRIDGE_STATE  = "bridge"
	SENSOR_ID_SOLAR_POWER   = "solar_power"
	SENSOR_ID_CONTROL_STATE = "control_state"

	SWITCH_ID_RELAY = "relay"
	SWITCH_ID_LAMP  = "lamp"

	SENSOR_ID_RELAY_SCRIPT_OWNED = "relay_script_owned"
	SENSOR_ID_LAMP_SCRIPT_OWNED  = "lamp_script_owned"
)

func SwitchSensorId(device DeviceKind) string {
	if device == DeviceLamp {
		return SWITCH_ID_LAMP
	}
	return SWITCH_ID_RELAY
}

func OwnershipSensorId(device DeviceKind) string {
	if device == DeviceLamp {
		return SENSOR_ID_LAMP_SCRIPT_OWNED
	}
	return SENSOR_ID_RELAY_SCRIPT_OWNED
}

func PowerReadingToUpdateEvents(powerWatt int64) []any {
	var events []any
	events = append(events, FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_SOLAR_POWER,
		},
		Value:    float64(powerWatt),
		Decimals: 0,
	})
	return events
}

func SwitchStateToUpdateEvent(device DeviceKind, on bool) any {
	return SwitchSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SwitchSensorId(device),
		},
		Value: on,
	}
}

func OwnershipToUpdateEvent(device DeviceKind, ownedByScript bool) any {
	return BinarySensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: OwnershipSensorId(device),
		},
		Value: ownedByScript,
	}
}

func ControlStateToUpdateEvent(state string) any {
	return TextSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_CONTROL_STATE,
		},
		Value: state,
	}
}

func BridgeStateToUpdateEvent(online bool) any {
	return BridgeStateUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_BRIDGE_STATE,
		},
		Value: online,
	}
}
