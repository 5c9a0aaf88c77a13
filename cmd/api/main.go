package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adactor "sunswitch/internal/adapter/actor"
	"sunswitch/internal/adapter/storage"
	"sunswitch/internal/config"
	"sunswitch/internal/core/actor"
	"sunswitch/internal/core/port"
	"sunswitch/internal/core/service"
	"sunswitch/internal/mqtt"
	"sunswitch/internal/server"
	"sunswitch/internal/util/actorutil"
	"sunswitch/pkg/powermeter"

	pactor "github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/carlmjohnson/versioninfo"
	"github.com/sj14/astral/pkg/astral"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *http.Server, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	log.Println("shutting down gracefully, press Ctrl+C again to force")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown with error: %v", err)
	}

	log.Println("Server exiting")

	done <- true
}

func main() {

	// load and print config
	cfg, err := initConfig()
	if err != nil {
		slog.Error("config errors", "error", err)
		return
	}
	safePrintConfig(*cfg)

	// zap logger
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)

	logger := zap.Must(zapCfg.Build())

	logger.Info("sunswitch starting", zap.String("version", versioninfo.Short()))

	// resolve observer and timezone. failure here is fatal: without sun
	// times the day/night loop cannot run.
	calendar, err := buildCalendar(cfg, logger)
	if err != nil {
		logger.Fatal("could not set up solar calendar", zap.Error(err))
	}
	logSunTimes(calendar, logger)

	policy := &service.DefaultThresholdControlLogic{
		HighThresholdWatt: cfg.Thresholds.HighWatts,
		LowThresholdWatt:  cfg.Thresholds.LowWatts,
		Logger:            logger,
	}
	store := storage.NewFileOwnershipStore(cfg.Control.StateFile, logger)

	// init actor system
	as := actorutil.NewActorSystemWithZapLogger(logger)
	ctx := as.Root

	defer logger.Sync()

	meterProv, err := meterActorProvider(cfg, logger)
	if err != nil {
		panic(err)
	}

	props := pactor.PropsFromProducer(func() pactor.Actor {
		return actor.NewMasterActor(*cfg, meterProv, switchActorProvider(cfg, logger),
			mqttActorProvider(cfg, logger), store, calendar, policy, logger)
	})
	pid, err := ctx.SpawnNamed(props, "master")
	if err != nil {
		return
	}

	server := server.NewServer(*cfg, ctx, pid)
	done := make(chan bool, 1)

	go gracefulShutdown(server, done)

	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		panic(fmt.Sprintf("http server error: %s", err))
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Println("Graceful shutdown complete.")

	ctx.Stop(pid)
	as.Shutdown()
}

func initConfig() (*config.Config, error) {

	// alias PORT => SUNSWITCH_PORT
	if port := os.Getenv("PORT"); port != "" {
		os.Setenv("SUNSWITCH_PORT", port)
	}

	setConfigDefaults()

	viper.SetEnvPrefix("sunswitch")
	viper.AutomaticEnv()

	// if defined, try to load config from yaml file
	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		if _, err := os.Stat(cfgFile); err == nil {
			slog.Info("Using config", "file", cfgFile)
			viper.SetConfigFile(cfgFile)

			err = viper.ReadInConfig()
			if err != nil {
				slog.Error("Error reading config file", "error", err)
			}
		}
	}

	var cfg config.Config

	err := viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	// parse log level
	switch viper.GetString("log_level") {
	case "trace":
		cfg.LogLevel = zap.DebugLevel
	case "debug":
		cfg.LogLevel = zap.DebugLevel
	case "info":
		cfg.LogLevel = zap.InfoLevel
	case "error":
		cfg.LogLevel = zap.ErrorLevel
	case "warn":
		cfg.LogLevel = zap.WarnLevel
	case "fatal":
		cfg.LogLevel = zap.FatalLevel
	default:
		cfg.LogLevel = zap.InfoLevel
	}

	// check and fix base topic
	if cfg.MQTT.Enabled() {
		baseTopic, err := mqtt.CheckTopic(cfg.MQTT.BaseTopic)
		if err != nil {
			return nil, errors.New("invalid base topic. can only contain letters, numbers and underscores")
		}
		cfg.MQTT.BaseTopic = baseTopic
	}

	if err := cfg.CheckBounds(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func buildCalendar(cfg *config.Config, logger *zap.Logger) (port.SolarCalendar, error) {
	var observer astral.Observer
	if cfg.Location.HasCoordinates() {
		observer = astral.Observer{
			Latitude:  cfg.Location.Latitude,
			Longitude: cfg.Location.Longitude,
		}
	} else {
		var err error
		observer, err = service.ResolveCity(cfg.Location.CityName, cfg.Location.RegionName)
		if err != nil {
			return nil, err
		}
	}
	location, err := time.LoadLocation(cfg.Location.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Location.Timezone, err)
	}
	return service.NewAstralSolarCalendar(observer, location, logger), nil
}

func logSunTimes(calendar port.SolarCalendar, logger *zap.Logger) {
	today, err := calendar.SunTimes(time.Now())
	if err != nil {
		logger.Warn("could not compute today's sun times", zap.Error(err))
		return
	}
	logger.Info("today's sun times",
		zap.Time("sunrise", today.Sunrise),
		zap.Time("sunset", today.Sunset),
		zap.Time("now", time.Now()))
}

func meterActorProvider(cfg *config.Config, logger *zap.Logger) (actor.MeterActorProvider, error) {

	reader, err := powermeter.CreateModbusReader(cfg.PowerMeter.Host, cfg.PowerMeter.Port,
		uint8(cfg.PowerMeter.UnitId), cfg.PowerMeter.PowerRegister, 1*time.Second, logger, nil)

	if err != nil {
		return nil, err
	}

	return func() *adactor.PowerMeterActor {
		return adactor.NewPowerMeterActor(reader, logger)
	}, nil
}

func switchActorProvider(cfg *config.Config, logger *zap.Logger) actor.SwitchActorProvider {
	timeout := time.Duration(cfg.Devices.RequestTimeoutMillis) * time.Millisecond
	return func() *adactor.SwitchActor {
		gateway := adactor.NewShellyGateway(cfg.Devices.RelayHost, cfg.Devices.LampHost, timeout, logger)
		return adactor.NewSwitchActor(gateway, logger)
	}
}

func mqttActorProvider(cfg *config.Config, logger *zap.Logger) actor.MQTTActorProvider {
	return func(es *eventstream.EventStream) *adactor.MQTTActor {
		return adactor.NewMQTTActor(cfg, es, logger)
	}
}

func setConfigDefaults() {
	viper.SetDefault("log_level", "info")
	viper.SetDefault("power_meter_modbus_tcp.port", 502)
	viper.SetDefault("power_meter_modbus_tcp.unit_id", 1)
	viper.SetDefault("power_meter_modbus_tcp.power_register", 5029)
	viper.SetDefault("devices.request_timeout_millis", 3000)
	viper.SetDefault("control.poll_interval_seconds", 5)
	viper.SetDefault("control.state_file", "script_state.json")
	viper.SetDefault("mqtt.port", 1883)
	viper.SetDefault("mqtt.base_topic", "sunswitch")
	viper.SetDefault("port", 8080)
}

func safePrintConfig(cfg config.Config) {
	cfg.MQTT.Username = "*redacted*"
	cfg.MQTT.Password = "*redacted*"
	slog.Info("Using", "config", cfg)
}
