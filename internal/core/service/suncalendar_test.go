package service

import (
	"testing"
	"time"

	"sunswitch/internal/core/port"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func madridCalendar(t *testing.T, clock time.Time) *AstralSolarCalendar {
	t.Helper()
	observer, err := ResolveCity("Madrid", "Spain")
	require.NoError(t, err)
	location, err := time.LoadLocation("Europe/Madrid")
	require.NoError(t, err)
	return NewAstralSolarCalendar(observer, location, zap.NewNop()).
		WithClock(func() time.Time { return clock })
}

func TestSunTimesOrdering(t *testing.T) {
	noon := time.Date(2026, 6, 21, 12, 0, 0, 0, time.UTC)
	calendar := madridCalendar(t, noon)

	times, err := calendar.SunTimes(noon)
	require.NoError(t, err)

	assert.True(t, times.Sunrise.Before(times.Sunset), "sunrise must come before sunset")
	assert.Equal(t, noon.In(times.Sunrise.Location()).Day(), times.Sunrise.Day())
}

func TestHasPassedAtNoon(t *testing.T) {
	noon := time.Date(2026, 6, 21, 10, 0, 0, 0, time.UTC)
	calendar := madridCalendar(t, noon)

	sunrisePassed, err := calendar.HasPassed(port.SunEventSunrise)
	require.NoError(t, err)
	assert.True(t, sunrisePassed)

	sunsetPassed, err := calendar.HasPassed(port.SunEventSunset)
	require.NoError(t, err)
	assert.False(t, sunsetPassed)
}

func TestHasPassedLateEvening(t *testing.T) {
	// 20:30 UTC is 22:30 in Madrid, well after the June sunset
	lateEvening := time.Date(2026, 6, 21, 20, 30, 0, 0, time.UTC)
	calendar := madridCalendar(t, lateEvening)

	sunsetPassed, err := calendar.HasPassed(port.SunEventSunset)
	require.NoError(t, err)
	assert.True(t, sunsetPassed)
}

func TestHasPassedUnknownEvent(t *testing.T) {
	calendar := madridCalendar(t, time.Date(2026, 6, 21, 12, 0, 0, 0, time.UTC))

	_, err := calendar.HasPassed(port.SunEvent("noon"))
	assert.Error(t, err)
}

func TestSleepUntilNextSunrise(t *testing.T) {
	lateEvening := time.Date(2026, 6, 21, 20, 30, 0, 0, time.UTC)
	calendar := madridCalendar(t, lateEvening)

	sleep, err := calendar.SleepUntilNextSunrise()
	require.NoError(t, err)

	tomorrow, err := calendar.SunTimes(lateEvening.AddDate(0, 0, 1))
	require.NoError(t, err)

	assert.Greater(t, sleep, time.Duration(0))
	assert.Less(t, sleep, 24*time.Hour)
	assert.Equal(t, tomorrow.Sunrise.Sub(lateEvening), sleep)
}

func TestResolveCityKnown(t *testing.T) {
	observer, err := ResolveCity("Madrid", "Spain")
	require.NoError(t, err)
	assert.InDelta(t, 40.4168, observer.Latitude, 0.001)
	assert.InDelta(t, -3.7038, observer.Longitude, 0.001)

	// region is optional when the city name is unambiguous
	observer, err = ResolveCity("berlin", "")
	require.NoError(t, err)
	assert.InDelta(t, 52.52, observer.Latitude, 0.001)
}

func TestResolveCityUnknown(t *testing.T) {
	_, err := ResolveCity("Atlantis", "")
	assert.ErrorIs(t, err, ErrUnknownLocation)

	_, err = ResolveCity("Madrid", "France")
	assert.ErrorIs(t, err, ErrUnknownLocation)
}
