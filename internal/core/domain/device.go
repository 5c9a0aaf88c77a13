package domain

// DeviceKind enumerates the loads this controller is allowed to switch.
// Adding a kind means adding a variant here plus its control path; nothing
// branches on device names anywhere else.
type DeviceKind int

const (
	DeviceRelay DeviceKind = iota
	DeviceLamp
)

func AllDeviceKinds() []DeviceKind {
	return []DeviceKind{DeviceRelay, DeviceLamp}
}

func (d DeviceKind) String() string {
	switch d {
	case DeviceRelay:
		return "relay"
	case DeviceLamp:
		return "lamp"
	default:
		return "unknown"
	}
}

// ControlPath is the Shelly Gen1 HTTP path used for both state queries and
// switch commands of this device kind.
func (d DeviceKind) ControlPath() string {
	switch d {
	case DeviceLamp:
		return "light/0"
	default:
		return "relay/0"
	}
}

// OwnershipState tracks, per device, whether the last transition to ON was
// performed by this process. The JSON field names are the on-disk format and
// must stay stable across versions.
type OwnershipState struct {
	RelayTurnedOnByScript bool `json:"relay_turned_on_by_script"`
	LampTurnedOnByScript  bool `json:"lamp_turned_on_by_script"`
}

func (s OwnershipState) OwnedByScript(d DeviceKind) bool {
	switch d {
	case DeviceLamp:
		return s.LampTurnedOnByScript
	default:
		return s.RelayTurnedOnByScript
	}
}

func (s *OwnershipState) SetOwnedByScript(d DeviceKind, owned bool) {
	switch d {
	case DeviceLamp:
		s.LampTurnedOnByScript = owned
	default:
		s.RelayTurnedOnByScript = owned
	}
}
