package util

import (
	"path/filepath"

	"sunswitch/internal/config"

	"go.uber.org/zap"
)

func LoadTestConfig(tmpDir string) config.Config {
	return config.Config{
		LogLevel: zap.DebugLevel,
		Location: config.LocationConfig{
			CityName:   "Madrid",
			RegionName: "Spain",
			Timezone:   "Europe/Madrid",
		},
		Thresholds: config.ThresholdConfig{
			HighWatts: 1000,
			LowWatts:  200,
		},
		PowerMeter: config.PowerMeterTCPConfig{
			Host:          "-.-.-.-",
			Port:          502,
			UnitId:        1,
			PowerRegister: 5029,
		},
		Devices: config.DevicesConfig{
			RelayHost:            "-.-.-.-",
			LampHost:             "-.-.-.-",
			RequestTimeoutMillis: 1000,
		},
		Control: config.ControlConfig{
			PollIntervalSeconds: 5,
			StateFile:           filepath.Join(tmpDir, "ownership.json"),
		},
		MQTT: config.MQTTConfig{
			BaseTopic: "sunswitch",
		},
		Port: 8080,
	}
}
