package config

import (
	"errors"

	"go.uber.org/zap/zapcore"
)

type Config struct {
	LogLevel   zapcore.Level
	Location   LocationConfig      `mapstructure:"location"`
	Thresholds ThresholdConfig     `mapstructure:"thresholds"`
	PowerMeter PowerMeterTCPConfig `mapstructure:"power_meter_modbus_tcp"`
	Devices    DevicesConfig       `mapstructure:"devices"`
	Control    ControlConfig       `mapstructure:"control"`
	MQTT       MQTTConfig          `mapstructure:"mqtt"`
	Port       uint                `mapstructure:"port"`
	HttpLog    bool                `mapstructure:"http_log"`
}

type LocationConfig struct {
	CityName   string `mapstructure:"city_name"`
	RegionName string `mapstructure:"region_name"`
	Timezone   string `mapstructure:"timezone"`
	// Latitude/Longitude override the built-in city table when both are set.
	Latitude  float64 `mapstructure:"latitude"`
	Longitude float64 `mapstructure:"longitude"`
}

func (l LocationConfig) HasCoordinates() bool {
	return l.Latitude != 0 || l.Longitude != 0
}

type ThresholdConfig struct {
	HighWatts int64 `mapstructure:"high_watts"`
	LowWatts  int64 `mapstructure:"low_watts"`
}

type PowerMeterTCPConfig struct {
	Host          string `mapstructure:"host"`
	Port          uint   `mapstructure:"port"`
	UnitId        uint   `mapstructure:"unit_id"`
	PowerRegister uint16 `mapstructure:"power_register"`
}

type DevicesConfig struct {
	RelayHost            string `mapstructure:"relay_host"`
	LampHost             string `mapstructure:"lamp_host"`
	RequestTimeoutMillis uint32 `mapstructure:"request_timeout_millis"`
}

type ControlConfig struct {
	PollIntervalSeconds uint32 `mapstructure:"poll_interval_seconds"`
	StateFile           string `mapstructure:"state_file"`
}

type MQTTConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	BaseTopic string `mapstructure:"base_topic"`
}

// Enabled reports whether MQTT status publishing is configured at all. The
// controller runs fine without a broker.
func (c MQTTConfig) Enabled() bool {
	return c.Host != ""
}

// CheckBounds validates everything that does not require I/O. Location and
// timezone resolution happen at startup in cmd, where failure is fatal.
func (c *Config) CheckBounds() error {
	if c.Thresholds.LowWatts >= c.Thresholds.HighWatts {
		return errors.New("config param thresholds.low_watts must be < thresholds.high_watts")
	}
	if c.Control.PollIntervalSeconds < 1 {
		return errors.New("config param control.poll_interval_seconds should be >= 1")
	}
	if c.Control.StateFile == "" {
		return errors.New("config param control.state_file is required")
	}
	if c.PowerMeter.Host == "" {
		return errors.New("config param power_meter_modbus_tcp.host is required")
	}
	if c.Devices.RelayHost == "" || c.Devices.LampHost == "" {
		return errors.New("config params devices.relay_host and devices.lamp_host are required")
	}
	if c.Location.CityName == "" && !c.Location.HasCoordinates() {
		return errors.New("config param location.city_name or explicit coordinates are required")
	}
	if c.Location.Timezone == "" {
		return errors.New("config param location.timezone is required")
	}
	return nil
}
