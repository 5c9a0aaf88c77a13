package service

import (
	"fmt"
	"time"

	"sunswitch/internal/core/port"

	"github.com/sj14/astral/pkg/astral"
	"go.uber.org/zap"
)

// AstralSolarCalendar computes sunrise/sunset with the astral library for a
// fixed observer and timezone. It keeps no cached state: every answer is
// derived from the wall clock at call time, so the calendar stays correct
// across midnight rollovers and process restarts.
type AstralSolarCalendar struct {
	observer astral.Observer
	location *time.Location
	clock    func() time.Time
	logger   *zap.Logger
}

func NewAstralSolarCalendar(observer astral.Observer, location *time.Location, logger *zap.Logger) *AstralSolarCalendar {
	return &AstralSolarCalendar{
		observer: observer,
		location: location,
		clock:    time.Now,
		logger:   logger,
	}
}

// WithClock replaces the wall clock. Tests only.
func (c *AstralSolarCalendar) WithClock(clock func() time.Time) *AstralSolarCalendar {
	c.clock = clock
	return c
}

func (c *AstralSolarCalendar) now() time.Time {
	return c.clock().In(c.location)
}

func (c *AstralSolarCalendar) SunTimes(date time.Time) (port.SunTimes, error) {
	sunrise, err := astral.Sunrise(c.observer, date)
	if err != nil {
		return port.SunTimes{}, fmt.Errorf("sun calendar: sunrise: %w", err)
	}
	sunset, err := astral.Sunset(c.observer, date)
	if err != nil {
		return port.SunTimes{}, fmt.Errorf("sun calendar: sunset: %w", err)
	}
	return port.SunTimes{
		Sunrise: sunrise.In(c.location),
		Sunset:  sunset.In(c.location),
	}, nil
}

func (c *AstralSolarCalendar) HasPassed(event port.SunEvent) (bool, error) {
	now := c.now()
	today, err := c.SunTimes(now)
	if err != nil {
		return false, err
	}
	switch event {
	case port.SunEventSunrise:
		return now.After(today.Sunrise), nil
	case port.SunEventSunset:
		return now.After(today.Sunset), nil
	default:
		return false, fmt.Errorf("sun calendar: unknown event %q", event)
	}
}

// SleepUntilNextSunrise returns the time left until tomorrow's sunrise.
// Callers are expected to invoke it after sunset and treat the result as one
// long quiescent sleep, not a polling interval.
func (c *AstralSolarCalendar) SleepUntilNextSunrise() (time.Duration, error) {
	now := c.now()
	tomorrow, err := c.SunTimes(now.AddDate(0, 0, 1))
	if err != nil {
		return 0, err
	}
	d := tomorrow.Sunrise.Sub(now)
	if d < 0 {
		d = 0
	}
	c.logger.Info("next sunrise computed",
		zap.Time("next_sunrise", tomorrow.Sunrise),
		zap.Duration("sleep", d))
	return d, nil
}

// ensure interface compliance
var _ port.SolarCalendar = (*AstralSolarCalendar)(nil)
