package service

import (
	"sunswitch/internal/core/domain"
	"sunswitch/internal/core/port"

	"go.uber.org/zap"
)

// DefaultThresholdControlLogic implements the hysteresis policy:
//
//	power > high  => every device ends the tick ON and script-owned
//	power < low   => devices turned on by this process are switched off;
//	                 devices turned on by a person are left alone
//	low..high     => no action
//
// Decisions are taken against live switch state, so a device already in the
// desired position produces no command.
type DefaultThresholdControlLogic struct {
	HighThresholdWatt int64
	LowThresholdWatt  int64
	Logger            *zap.Logger
}

func (cfg *DefaultThresholdControlLogic) EvaluateTick(powerWatt int64, devices []domain.DeviceSnapshot) domain.TickResult {
	var result domain.TickResult

	switch {
	case powerWatt > cfg.HighThresholdWatt:
		cfg.Logger.Info("power exceeds high threshold, turning on devices if not already on",
			zap.Int64("power_watt", powerWatt))
		for _, dev := range devices {
			if !dev.On {
				result.Commands = append(result.Commands, domain.SwitchCommand{Device: dev.Device, On: true})
			} else if !dev.OwnedByScript {
				// Already on: no command, but the policy claims the device so
				// a later low-threshold crossing is allowed to switch it off.
				result.Updates = append(result.Updates, domain.OwnershipUpdate{Device: dev.Device, OwnedByScript: true})
			}
		}
	case powerWatt < cfg.LowThresholdWatt:
		cfg.Logger.Info("power below low threshold, turning off devices turned on by this controller",
			zap.Int64("power_watt", powerWatt))
		for _, dev := range devices {
			if !dev.On {
				cfg.Logger.Debug("device already off, no action needed", zap.Stringer("device", dev.Device))
				continue
			}
			if dev.OwnedByScript {
				result.Commands = append(result.Commands, domain.SwitchCommand{Device: dev.Device, On: false})
			} else {
				cfg.Logger.Info("device was not turned on by this controller, no action taken",
					zap.Stringer("device", dev.Device))
			}
		}
	default:
		cfg.Logger.Info("power is within the thresholds, no action taken",
			zap.Int64("power_watt", powerWatt))
	}

	return result
}

// ReconcileStartup corrects stale ownership flags once, before the first tick.
// A device found ON without a recorded script transition is marked user-owned
// so the loop never switches off something a person turned on before boot.
// It issues no device commands.
func (cfg *DefaultThresholdControlLogic) ReconcileStartup(devices []domain.DeviceSnapshot) []domain.OwnershipUpdate {
	var updates []domain.OwnershipUpdate
	for _, dev := range devices {
		if dev.On && !dev.OwnedByScript {
			cfg.Logger.Info("device is on but not script-owned, assuming user turned it on",
				zap.Stringer("device", dev.Device))
			updates = append(updates, domain.OwnershipUpdate{Device: dev.Device, OwnedByScript: false})
		}
	}
	return updates
}

// ensure interface compliance
var _ port.ThresholdControlLogic = (*DefaultThresholdControlLogic)(nil)
