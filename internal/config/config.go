// Package config loads daemon configuration from defaults, an optional YAML
// file, FRIDGE_* environment variables and command-line flags, in that order
// of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sweeney/fridge-controller/internal/logger"
	"github.com/sweeney/fridge-controller/internal/logic"
	"github.com/sweeney/fridge-controller/internal/sensor"
)

// EnvPrefix is prepended to environment variable names.
const EnvPrefix = "FRIDGE"

// Config is the full daemon configuration.
type Config struct {
	LogLevel  string        `mapstructure:"log_level"`
	DeviceID  string        `mapstructure:"device_id"`
	StatePath string        `mapstructure:"state_path"`
	Loop      LoopConfig    `mapstructure:"loop"`
	Control   ControlConfig `mapstructure:"control"`
	Relays    RelayConfig   `mapstructure:"relays"`
	Sensors   SensorConfig  `mapstructure:"sensors"`
	Tag       TagConfig     `mapstructure:"tag"`
	Uplink    UplinkConfig  `mapstructure:"uplink"`
	MQTT      MQTTConfig    `mapstructure:"mqtt"`
	HTTP      HTTPConfig    `mapstructure:"http"`
}

// LoopConfig holds the scheduler intervals.
type LoopConfig struct {
	Tick      time.Duration `mapstructure:"tick"`
	Sensors   time.Duration `mapstructure:"sensors"`
	Upload    time.Duration `mapstructure:"upload"`
	Save      time.Duration `mapstructure:"save"`
	Heartbeat time.Duration `mapstructure:"heartbeat"` // 0 disables
}

// ControlConfig holds setpoint defaults and controller tuning.
type ControlConfig struct {
	TargetTemperature float64       `mapstructure:"target_temperature"`
	DefrostThreshold  float64       `mapstructure:"defrost_threshold"`
	DefrostType       string        `mapstructure:"defrost_type"`
	CompressorMargin  float64       `mapstructure:"compressor_margin"`
	DefrostMargin     float64       `mapstructure:"defrost_margin"`
	MinOn             time.Duration `mapstructure:"min_on"`
	MinOff            time.Duration `mapstructure:"min_off"`
	StableCycles      int           `mapstructure:"stable_cycles"`
}

// RelayConfig describes the relay board wiring.
type RelayConfig struct {
	Chip        string `mapstructure:"chip"`
	Compressor  int    `mapstructure:"compressor"`
	Ventilation int    `mapstructure:"ventilation"`
	Heater      int    `mapstructure:"heater"`
	ActiveLow   bool   `mapstructure:"active_low"`
}

// SensorConfig locates the temperature and humidity sensors.
type SensorConfig struct {
	W1Base       string `mapstructure:"w1_base"`
	PrimaryID    string `mapstructure:"primary_id"`
	EvaporatorID string `mapstructure:"evaporator_id"`
	HumidityPath string `mapstructure:"humidity_path"`
}

// TagConfig configures the MFRC522 identity reader.
type TagConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	SPIPort    string        `mapstructure:"spi_port"`
	ResetPin   string        `mapstructure:"reset_pin"`
	IRQPin     string        `mapstructure:"irq_pin"`
	TrustedUID string        `mapstructure:"trusted_uid"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// UplinkConfig points at the coordination service.
type UplinkConfig struct {
	URL      string        `mapstructure:"url"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// MQTTConfig configures telemetry; an empty broker disables it.
type MQTTConfig struct {
	Broker     string `mapstructure:"broker"`
	ClientID   string `mapstructure:"client_id"`
	Username   string `mapstructure:"username"`
	Password   string `mapstructure:"password"`
	BufferSize int    `mapstructure:"buffer_size"`
}

// HTTPConfig configures the status server; an empty address disables it.
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", logger.InfoLevel)
	v.SetDefault("device_id", "fridge-1")
	v.SetDefault("state_path", "system_state.json")

	v.SetDefault("loop.tick", 250*time.Millisecond)
	v.SetDefault("loop.sensors", 4*time.Second)
	v.SetDefault("loop.upload", 5*time.Second)
	v.SetDefault("loop.save", 120*time.Second)
	v.SetDefault("loop.heartbeat", 15*time.Minute)

	v.SetDefault("control.target_temperature", 4.0)
	v.SetDefault("control.defrost_threshold", -10.0)
	v.SetDefault("control.defrost_type", string(logic.DefrostAuto))
	v.SetDefault("control.compressor_margin", 3.0)
	v.SetDefault("control.defrost_margin", 2.0)
	v.SetDefault("control.min_on", 1*time.Second)
	v.SetDefault("control.min_off", 9*time.Second)
	v.SetDefault("control.stable_cycles", logic.DefaultStableCycles)

	v.SetDefault("relays.chip", "gpiochip0")
	v.SetDefault("relays.compressor", 26)
	v.SetDefault("relays.ventilation", 20)
	v.SetDefault("relays.heater", 21)
	v.SetDefault("relays.active_low", true)

	v.SetDefault("sensors.w1_base", sensor.DefaultW1Base)
	v.SetDefault("sensors.primary_id", "")
	v.SetDefault("sensors.evaporator_id", "")
	v.SetDefault("sensors.humidity_path", sensor.DefaultHumidityPath)

	v.SetDefault("tag.enabled", true)
	v.SetDefault("tag.spi_port", "")
	v.SetDefault("tag.reset_pin", "GPIO25")
	v.SetDefault("tag.irq_pin", "")
	v.SetDefault("tag.trusted_uid", "")
	v.SetDefault("tag.timeout", 100*time.Millisecond)

	v.SetDefault("uplink.url", "http://localhost:5050/api/sensors")
	v.SetDefault("uplink.username", "")
	v.SetDefault("uplink.password", "")
	v.SetDefault("uplink.timeout", 5*time.Second)

	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.client_id", "fridge-controller")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.buffer_size", 500)

	v.SetDefault("http.addr", ":8080")
}

// flagBindings maps command-line flags to config keys.
var flagBindings = map[string]string{
	"log-level":  "log_level",
	"device-id":  "device_id",
	"state":      "state_path",
	"tick":       "loop.tick",
	"heartbeat":  "loop.heartbeat",
	"uplink-url": "uplink.url",
	"broker":     "mqtt.broker",
	"http":       "http.addr",
	"gpio-chip":  "relays.chip",
}

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("config", "", "Path to YAML config file")
	fs.String("log-level", logger.InfoLevel, "Log level (debug, info, warn, error)")
	fs.String("device-id", "", "Device id sent with every upload")
	fs.String("state", "", "Path of the persisted state snapshot")
	fs.Duration("tick", 0, "Control loop tick interval")
	fs.Duration("heartbeat", 0, "Heartbeat interval (0 to disable)")
	fs.String("uplink-url", "", "Coordinator upload URL")
	fs.String("broker", "", "MQTT broker address (empty to disable)")
	fs.String("http", "", "Status HTTP listen address (empty to disable)")
	fs.String("gpio-chip", "", "GPIO character device name")
	return fs
}

// Load parses args (without the program name) and returns the merged
// configuration. A config file given with --config must exist; the default
// locations are optional.
func Load(args []string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	fs := newFlagSet("fridge-controller")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	for flag, key := range flagBindings {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return Config{}, fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path, _ := fs.GetString("config")
	if err := readConfigFile(v, path, "fridge-controller"); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

func readConfigFile(v *viper.Viper, path, app string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/" + app)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Validate rejects configurations the daemon cannot run with.
func (c Config) Validate() error {
	var errs []error

	if !logger.ValidLevel(c.LogLevel) {
		errs = append(errs, fmt.Errorf("log_level %q: must be debug, info, warn or error", c.LogLevel))
	}
	for name, d := range map[string]time.Duration{
		"loop.tick":      c.Loop.Tick,
		"loop.sensors":   c.Loop.Sensors,
		"loop.upload":    c.Loop.Upload,
		"loop.save":      c.Loop.Save,
		"uplink.timeout": c.Uplink.Timeout,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", name, d))
		}
	}
	if c.Loop.Heartbeat < 0 {
		errs = append(errs, fmt.Errorf("loop.heartbeat must not be negative"))
	}
	if c.Control.MinOn < 0 || c.Control.MinOff < 0 {
		errs = append(errs, fmt.Errorf("control dwell times must not be negative"))
	}
	if c.Control.StableCycles < 1 {
		errs = append(errs, fmt.Errorf("control.stable_cycles must be at least 1"))
	}
	if _, err := logic.ParseDefrostType(c.Control.DefrostType); err != nil {
		errs = append(errs, fmt.Errorf("control.defrost_type %q: %w", c.Control.DefrostType, err))
	}

	pins := map[int]string{}
	for name, pin := range map[string]int{
		"compressor":  c.Relays.Compressor,
		"ventilation": c.Relays.Ventilation,
		"heater":      c.Relays.Heater,
	} {
		if pin < 0 {
			errs = append(errs, fmt.Errorf("relays.%s: invalid pin %d", name, pin))
		}
		if other, ok := pins[pin]; ok {
			errs = append(errs, fmt.Errorf("relays.%s and relays.%s share pin %d", name, other, pin))
		}
		pins[pin] = name
	}

	if _, err := sensor.ParseUID(c.Tag.TrustedUID); err != nil {
		errs = append(errs, fmt.Errorf("tag.trusted_uid: %w", err))
	}
	if c.Uplink.URL == "" {
		errs = append(errs, fmt.Errorf("uplink.url is required"))
	}
	if c.StatePath == "" {
		errs = append(errs, fmt.Errorf("state_path is required"))
	}

	return errors.Join(errs...)
}

// DefaultState returns the operating state built from configured setpoints.
func (c Config) DefaultState() logic.OperatingState {
	dt, err := logic.ParseDefrostType(c.Control.DefrostType)
	if err != nil {
		dt = logic.DefrostAuto
	}
	return logic.NewOperatingState(c.Control.TargetTemperature, c.Control.DefrostThreshold, dt)
}

// RegulatorConfig returns the controller tuning.
func (c Config) RegulatorConfig() logic.RegulatorConfig {
	return logic.RegulatorConfig{
		CompressorMargin: c.Control.CompressorMargin,
		DefrostMargin:    c.Control.DefrostMargin,
		MinOn:            c.Control.MinOn,
		MinOff:           c.Control.MinOff,
	}
}
