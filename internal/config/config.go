package config

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Mode        string
	Port        string
	Environment string
	LogLevel    string

	Slots int
	Rates Rates

	OTel OTelConfig
}

type Rates struct {
	Car   float64
	Bike  float64
	Truck float64
}

type OTelConfig struct {
	Enabled     bool
	ServiceName string
	Endpoint    string
}

var validModes = map[string]bool{"cli": true, "server": true, "both": true}

// Load resolves configuration from defaults, an optional parking.yaml, the
// environment and finally command-line flags, in increasing precedence.
func Load(args []string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	fs := pflag.NewFlagSet("parking-lot", pflag.ContinueOnError)
	fs.String("mode", "cli", "Mode to run: cli, server, or both")
	fs.String("port", "8080", "Port for HTTP server")
	fs.Int("slots", 5, "Number of parking slots")
	fs.String("log-level", "info", "Log level")
	configFile := fs.String("config", "", "Path to a config file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	for key, flag := range map[string]string{
		"mode":      "mode",
		"port":      "port",
		"slots":     "slots",
		"log_level": "log-level",
	} {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}

	v.SetEnvPrefix("PARKING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("port", "PARKING_PORT", "PORT")
	_ = v.BindEnv("environment", "PARKING_ENVIRONMENT", "ENVIRONMENT")
	_ = v.BindEnv("otel.service_name", "PARKING_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	_ = v.BindEnv("otel.endpoint", "PARKING_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
	_ = v.BindEnv("otel.sdk_disabled", "OTEL_SDK_DISABLED")

	if err := readConfigFile(v, *configFile); err != nil {
		return nil, err
	}

	cfg := &Config{
		Mode:        strings.ToLower(v.GetString("mode")),
		Port:        v.GetString("port"),
		Environment: v.GetString("environment"),
		LogLevel:    v.GetString("log_level"),
		Slots:       v.GetInt("slots"),
		Rates: Rates{
			Car:   v.GetFloat64("rates.car"),
			Bike:  v.GetFloat64("rates.bike"),
			Truck: v.GetFloat64("rates.truck"),
		},
		OTel: OTelConfig{
			Enabled:     v.GetBool("otel.enabled") && !v.GetBool("otel.sdk_disabled"),
			ServiceName: v.GetString("otel.service_name"),
			Endpoint:    v.GetString("otel.endpoint"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("rates.car", 20)
	v.SetDefault("rates.bike", 10)
	v.SetDefault("rates.truck", 40)
	v.SetDefault("otel.enabled", true)
	v.SetDefault("otel.sdk_disabled", false)
	v.SetDefault("otel.service_name", "parking-lot-service")
	v.SetDefault("otel.endpoint", "http://localhost:4318")
}

func readConfigFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName("parking")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func (c *Config) validate() error {
	if !validModes[c.Mode] {
		return fmt.Errorf("invalid mode: %s. Must be cli, server, or both", c.Mode)
	}
	if c.Slots <= 0 {
		return fmt.Errorf("slots must be greater than 0, got %d", c.Slots)
	}
	for _, rate := range []float64{c.Rates.Car, c.Rates.Bike, c.Rates.Truck} {
		if rate < 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
			return errors.New("rates must be finite and not negative")
		}
	}
	if c.Port == "" {
		return errors.New("port is required")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
