// Command fridge-controller runs the refrigeration unit control loop: it reads
// the cabinet and evaporator probes, drives the compressor, fan and heater
// relays, and syncs with the coordinator.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/sweeney/fridge-controller/internal/config"
	"github.com/sweeney/fridge-controller/internal/controller"
	"github.com/sweeney/fridge-controller/internal/gpio"
	"github.com/sweeney/fridge-controller/internal/logger"
	"github.com/sweeney/fridge-controller/internal/logic"
	"github.com/sweeney/fridge-controller/internal/metrics"
	"github.com/sweeney/fridge-controller/internal/mqtt"
	"github.com/sweeney/fridge-controller/internal/persist"
	"github.com/sweeney/fridge-controller/internal/relay"
	"github.com/sweeney/fridge-controller/internal/sensor"
	"github.com/sweeney/fridge-controller/internal/status"
	"github.com/sweeney/fridge-controller/internal/uplink"
	"github.com/sweeney/fridge-controller/internal/web"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	log := logger.New(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(); err != nil {
		log.Fatalw("invalid configuration", "error", err)
	}
	if err := run(cfg, log); err != nil {
		log.Fatalw("fatal", "error", err)
	}
}

func run(cfg config.Config, log *logger.Logger) error {
	out, err := gpio.NewRealWriter(cfg.Relays.Chip, gpio.Pins{
		logic.Compressor:  cfg.Relays.Compressor,
		logic.Ventilation: cfg.Relays.Ventilation,
		logic.Heater:      cfg.Relays.Heater,
	}, cfg.Relays.ActiveLow)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	relays := relay.New(out, log.Named("relay"))
	defer func() {
		if err := relays.Release(); err != nil {
			log.Errorw("release gpio", "error", err)
		}
	}()

	acq, closeSensors, err := buildSensors(cfg, log.Named("sensor"))
	if err != nil {
		return err
	}
	defer closeSensors()

	store := persist.NewFileStore(cfg.StatePath, time.Now)
	st, found, err := store.Restore(cfg.DefaultState())
	switch {
	case err != nil && found:
		log.Warnw("state partially restored", "path", store.Path(), "error", err, "mode", st.Mode, "target", st.TargetTemperature)
	case err != nil:
		log.Warnw("state restore failed, using defaults", "path", store.Path(), "error", err)
	case found:
		log.Infow("state restored", "path", store.Path(), "mode", st.Mode, "target", st.TargetTemperature)
	default:
		log.Infow("no saved state, using defaults", "path", store.Path())
	}

	client := uplink.NewHTTPClient(cfg.Uplink.URL, cfg.Uplink.Username, cfg.Uplink.Password)
	client.Timeout = cfg.Uplink.Timeout
	syncer := uplink.NewSynchronizer(client, cfg.DeviceID, log.Named("uplink"))

	publisher := newPublisher(cfg.MQTT, log.Named("mqtt"))
	defer publisher.Close()

	rec := metrics.New()
	tracker := status.NewTracker(time.Now(), status.Config{
		TickMs:      cfg.Loop.Tick.Milliseconds(),
		SensorMs:    cfg.Loop.Sensors.Milliseconds(),
		UploadMs:    cfg.Loop.Upload.Milliseconds(),
		SaveMs:      cfg.Loop.Save.Milliseconds(),
		HeartbeatMs: cfg.Loop.Heartbeat.Milliseconds(),
		Broker:      cfg.MQTT.Broker,
		HTTPPort:    cfg.HTTP.Addr,
		UplinkURL:   cfg.Uplink.URL,
		DeviceID:    cfg.DeviceID,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker, rec.Handler(), log.Named("http"))
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorw("http server error", "error", err)
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
		log.Infow("http status server listening", "addr", cfg.HTTP.Addr)
	}

	loop := controller.New(st, controller.Deps{
		Sensors:    acq,
		Relays:     relays,
		Uplink:     syncer,
		Store:      store,
		Publisher:  publisher,
		MQTTStatus: publisher,
		Tracker:    tracker,
		Metrics:    rec,
		Network:    readNetworkInfo,
		Log:        log.Named("loop"),
	}, controller.Config{
		Sensors:      cfg.Loop.Sensors,
		Upload:       cfg.Loop.Upload,
		Save:         cfg.Loop.Save,
		Heartbeat:    cfg.Loop.Heartbeat,
		Regulator:    cfg.RegulatorConfig(),
		StableCycles: cfg.Control.StableCycles,
	}, time.Now)

	log.Infow("started",
		"device_id", cfg.DeviceID,
		"tick", cfg.Loop.Tick,
		"uplink", cfg.Uplink.URL,
		"broker", cfg.MQTT.Broker,
		"heartbeat", cfg.Loop.Heartbeat,
	)

	ticker := time.NewTicker(cfg.Loop.Tick)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	return loop.Run(ticker.C, sigCh)
}

// buildSensors wires the probes, humidity sensor and tag reader. The
// returned func releases the tag reader.
func buildSensors(cfg config.Config, log *logger.Logger) (*sensor.Acquirer, func(), error) {
	primaryID, evaporatorID, err := sensor.SelectProbes(cfg.Sensors.W1Base, cfg.Sensors.PrimaryID, cfg.Sensors.EvaporatorID)
	if err != nil {
		log.Warnw("probe discovery failed", "base", cfg.Sensors.W1Base, "error", err)
	}
	primary := probe(cfg.Sensors.W1Base, primaryID)
	evaporator := probe(cfg.Sensors.W1Base, evaporatorID)
	log.Infow("temperature probes", "primary", primaryID, "evaporator", evaporatorID)

	humidity := sensor.NewHumidityFilter(sensor.IIOHumidity{Path: cfg.Sensors.HumidityPath})

	closer := func() {}
	var identity *sensor.Identity
	if cfg.Tag.Enabled {
		trusted, err := sensor.ParseUID(cfg.Tag.TrustedUID)
		if err != nil {
			return nil, nil, fmt.Errorf("trusted uid: %w", err)
		}
		reader, err := sensor.NewMFRC522(cfg.Tag.SPIPort, cfg.Tag.ResetPin, cfg.Tag.IRQPin)
		if err != nil {
			// Without a reader the unit runs unprivileged.
			log.Warnw("tag reader unavailable", "error", err)
		} else {
			identity = sensor.NewIdentity(reader, trusted, cfg.Tag.Timeout)
			closer = func() {
				if err := reader.Close(); err != nil {
					log.Warnw("close tag reader", "error", err)
				}
			}
		}
	}

	return sensor.NewAcquirer(primary, evaporator, humidity, identity, log, time.Now), closer, nil
}

// probe returns nil for an unassigned id so the acquirer reports it absent.
func probe(base, id string) sensor.TemperatureProbe {
	if id == "" {
		return nil
	}
	return sensor.NewProbe(sensor.ProbePath(base, id))
}

type telemetry interface {
	mqtt.Publisher
	mqtt.ConnectionStatus
}

// newPublisher connects to the broker. An empty broker or a failed connect
// leaves telemetry disabled; control never depends on it.
func newPublisher(cfg config.MQTTConfig, log *logger.Logger) telemetry {
	if cfg.Broker == "" {
		log.Infow("mqtt disabled")
		return mqtt.NopPublisher{}
	}
	p, err := mqtt.NewRealPublisher(mqtt.Options{
		Broker:     cfg.Broker,
		ClientID:   cfg.ClientID,
		Username:   cfg.Username,
		Password:   cfg.Password,
		BufferSize: cfg.BufferSize,
	}, log)
	if err != nil {
		log.Warnw("mqtt unavailable, telemetry disabled", "broker", cfg.Broker, "error", err)
		return mqtt.NopPublisher{}
	}
	return p
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
