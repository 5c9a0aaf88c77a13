package port

import (
	"time"

	"sunswitch/internal/core/domain"
)

// PowerReader performs one connect/read/disconnect cycle against the solar
// power meter. Implementations must bound the call with a timeout.
type PowerReader interface {
	ReadPower() (int64, error)
}

// SwitchGateway queries and commands one controlled load. It has no
// persistence responsibility; ownership bookkeeping stays with the caller.
type SwitchGateway interface {
	GetState(device domain.DeviceKind) (bool, error)
	SetState(device domain.DeviceKind, on bool) error
}

// OwnershipStore persists the per-device script-ownership flags. Load never
// fails the caller: on a missing or corrupt file it returns the all-false
// default. Record read-merge-writes the whole record.
type OwnershipStore interface {
	Load() domain.OwnershipState
	Record(device domain.DeviceKind, ownedByScript bool) error
}

type SunEvent string

const (
	SunEventSunrise SunEvent = "sunrise"
	SunEventSunset  SunEvent = "sunset"
)

type SunTimes struct {
	Sunrise time.Time
	Sunset  time.Time
}

// SolarCalendar answers sun-event questions for the configured location.
// Implementations are stateless: every call recomputes from the wall clock,
// which keeps answers correct across midnight rollovers and restarts.
type SolarCalendar interface {
	SunTimes(date time.Time) (SunTimes, error)
	HasPassed(event SunEvent) (bool, error)
	SleepUntilNextSunrise() (time.Duration, error)
}

// ThresholdControlLogic is the pure tick policy. It decides which switch
// commands to issue and which ownership flags to rewrite, given one power
// sample and the live state of every device.
type ThresholdControlLogic interface {
	EvaluateTick(powerWatt int64, devices []domain.DeviceSnapshot) domain.TickResult
	ReconcileStartup(devices []domain.DeviceSnapshot) []domain.OwnershipUpdate
}
