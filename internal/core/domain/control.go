package domain

// DeviceSnapshot is the observed truth about one device at the start of a
// tick: its live switch state and the persisted ownership flag.
type DeviceSnapshot struct {
	Device        DeviceKind
	On            bool
	OwnedByScript bool
}

// SwitchCommand is one device command decided by the tick policy. Ownership
// must be recorded equal to On only after the command succeeds.
type SwitchCommand struct {
	Device DeviceKind
	On     bool
}

// OwnershipUpdate rewrites a persisted flag without touching the device.
type OwnershipUpdate struct {
	Device        DeviceKind
	OwnedByScript bool
}

// TickResult is the outcome of one policy evaluation. Commands carry an
// implied ownership update on success; Updates apply immediately.
type TickResult struct {
	Commands []SwitchCommand
	Updates  []OwnershipUpdate
}
