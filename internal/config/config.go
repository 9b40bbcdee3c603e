package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/dotfeel/dotbridged/internal/errors"
)

// XDG helpers
func getConfigBaseDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, ConfigDirName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", ConfigDirName)
}

func getConfigPath(filename string) string {
	return filepath.Join(getConfigBaseDir(), filename)
}

// Config represents the application configuration
type Config struct {
	OSC     OSCConfig      `mapstructure:"osc"`
	Bus     BusConfig      `mapstructure:"bus"`
	Devices []DeviceConfig `mapstructure:"devices"`
	Bridge  BridgeConfig   `mapstructure:"bridge"`
	API     APIConfig      `mapstructure:"api"`
	Logging LoggingConfig  `mapstructure:"logging"`
}

// OSCConfig configures the UDP ingest boundary.
type OSCConfig struct {
	ListenAddress string `mapstructure:"listen_address"`
	QueueCapacity int    `mapstructure:"queue_capacity"`
}

// BusConfig configures the shared device bus transport.
type BusConfig struct {
	// Transport selects the driver: "serial" or "fake".
	Transport string `mapstructure:"transport"`
	Port      string `mapstructure:"port"`
	Baud      int    `mapstructure:"baud"`
	// WritesPerSecond caps aggregate bus transactions; 0 disables the cap.
	WritesPerSecond float64 `mapstructure:"writes_per_second"`
}

// DeviceConfig is one roster entry. The roster is fixed for the process
// lifetime; entries are never added or removed at runtime.
type DeviceConfig struct {
	Address uint8  `mapstructure:"address"`
	Name    string `mapstructure:"name"`
}

// BridgeConfig holds the synchronization tuning knobs.
type BridgeConfig struct {
	MinUpdateInterval time.Duration `mapstructure:"min_update_interval"`
	TickInterval      time.Duration `mapstructure:"tick_interval"`
	SmoothingAlpha    float64       `mapstructure:"smoothing_alpha"`
	NoiseStep         int           `mapstructure:"noise_step"`
	SampleHistory     int           `mapstructure:"sample_history"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	RetryDelay        time.Duration `mapstructure:"retry_delay"`
	MaxAttempts       int           `mapstructure:"max_attempts"`
	// ReadBack enables the telemetry read after each successful write.
	ReadBack bool `mapstructure:"read_back"`
}

// APIConfig configures the HTTP status API.
type APIConfig struct {
	ListenAddress     string `mapstructure:"listen_address"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute"`
}

// LoggingConfig represents the logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads configuration from a file and environment variables.
// An empty configFile falls back to the XDG config path; a missing file is
// not an error, defaults apply.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigFile(getConfigPath(DaemonConfigFilename))
	}

	// Viper falls back to defaults when the file is absent.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Bind environment variables
	v.SetEnvPrefix("DOTBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if len(cfg.Devices) == 0 {
		cfg.Devices = DefaultRoster()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("osc.listen_address", DefaultOSCListenAddress)
	v.SetDefault("osc.queue_capacity", DefaultQueueCapacity)

	v.SetDefault("bus.transport", "serial")
	v.SetDefault("bus.port", "/dev/ttyUSB0")
	v.SetDefault("bus.baud", DefaultSerialBaud)
	v.SetDefault("bus.writes_per_second", DefaultBusWritesPerSecond)

	v.SetDefault("bridge.min_update_interval", DefaultMinUpdateInterval)
	v.SetDefault("bridge.tick_interval", DefaultTickInterval)
	v.SetDefault("bridge.smoothing_alpha", DefaultSmoothingAlpha)
	v.SetDefault("bridge.noise_step", DefaultNoiseStep)
	v.SetDefault("bridge.sample_history", DefaultSampleHistory)
	v.SetDefault("bridge.write_timeout", DefaultWriteTimeout)
	v.SetDefault("bridge.retry_delay", DefaultRetryDelay)
	v.SetDefault("bridge.max_attempts", DefaultMaxAttempts)
	v.SetDefault("bridge.read_back", false)

	v.SetDefault("api.listen_address", DefaultAPIListenAddress)
	v.SetDefault("api.requests_per_minute", 120)

	v.SetDefault("logging.level", LogLevelInfo)
	v.SetDefault("logging.format", LogFormatText)
}

// DefaultRoster returns the standard four-device roster.
func DefaultRoster() []DeviceConfig {
	roster := make([]DeviceConfig, 0, MaxDevices)
	for i := 1; i <= MaxDevices; i++ {
		roster = append(roster, DeviceConfig{
			Address: uint8(i),
			Name:    fmt.Sprintf("dot-%d", i),
		})
	}
	return roster
}

// Validate checks cross-field constraints that defaults alone can't guarantee.
func (c *Config) Validate() error {
	seen := make(map[uint8]bool, len(c.Devices))
	for _, d := range c.Devices {
		if d.Address == 0 {
			return errors.InvalidInputf("device address 0 is reserved")
		}
		if seen[d.Address] {
			return errors.InvalidInputf("duplicate device address %d", d.Address)
		}
		seen[d.Address] = true
	}

	if c.Bridge.SmoothingAlpha <= 0 || c.Bridge.SmoothingAlpha > 1 {
		return errors.InvalidInputf("smoothing_alpha %v outside (0, 1]", c.Bridge.SmoothingAlpha)
	}
	if c.Bridge.NoiseStep < 1 || c.Bridge.NoiseStep > 255 {
		return errors.InvalidInputf("noise_step %d outside [1, 255]", c.Bridge.NoiseStep)
	}
	if c.Bridge.MaxAttempts < 1 {
		return errors.InvalidInputf("max_attempts must be at least 1")
	}
	if c.Bridge.MinUpdateInterval <= 0 {
		return errors.InvalidInputf("min_update_interval must be positive")
	}
	if c.Bridge.TickInterval <= 0 {
		return errors.InvalidInputf("tick_interval must be positive")
	}
	if c.OSC.QueueCapacity < 1 {
		return errors.InvalidInputf("queue_capacity must be at least 1")
	}
	return nil
}
