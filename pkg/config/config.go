package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/kass/go-geo-zones/pkg/postgis"
	"github.com/kass/go-geo-zones/pkg/zones"
)

const (
	EnvPrefix         = "GEOZONES"
	DefaultConfigName = "go-geo-zones"
)

// Input sources
const (
	SourceJSON    = "json"
	SourcePostGIS = "postgis"
)

type Input struct {
	Source string `mapstructure:"source"`
	File   string `mapstructure:"file"`
}

type Config struct {
	Grid        zones.Config   `mapstructure:"grid"`
	Input       Input          `mapstructure:"input"`
	PostGIS     postgis.Config `mapstructure:"postgis"`
	Attribute   string         `mapstructure:"attribute"`
	Workers     int            `mapstructure:"workers"`
	SkipInvalid bool           `mapstructure:"skip_invalid"`
}

// New returns a viper instance with defaults and environment lookup configured
func New() *viper.Viper {
	v := viper.New()

	grid := zones.DefaultConfig()
	v.SetDefault("grid.min_latitude", grid.MinLatitude)
	v.SetDefault("grid.max_latitude", grid.MaxLatitude)
	v.SetDefault("grid.step_latitude", grid.StepLatitude)
	v.SetDefault("grid.min_longitude", grid.MinLongitude)
	v.SetDefault("grid.max_longitude", grid.MaxLongitude)
	v.SetDefault("grid.step_longitude", grid.StepLongitude)
	v.SetDefault("grid.earth_radius_km", grid.EarthRadiusKm)

	v.SetDefault("input.source", SourceJSON)
	v.SetDefault("input.file", "agents.json")

	v.SetDefault("postgis.host", "localhost")
	v.SetDefault("postgis.port", 5432)
	v.SetDefault("postgis.user", "postgres")
	v.SetDefault("postgis.password", "")
	v.SetDefault("postgis.database", "geodb")
	v.SetDefault("postgis.sslmode", "disable")

	v.SetDefault("attribute", zones.AgreeablenessAttribute)
	v.SetDefault("workers", runtime.NumCPU())
	v.SetDefault("skip_invalid", false)

	// Environment variables take precedence over the config file
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// BindFlags binds command flags to config keys, e.g. {"file": "input.file"}
func BindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) error {
	for flag, key := range keys {
		f := flags.Lookup(flag)
		if f == nil {
			return fmt.Errorf("unknown flag %q", flag)
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %q: %w", flag, err)
		}
	}
	return nil
}

// Load reads the config file (if any) and decodes the merged configuration.
// An explicit path must exist; without one, go-geo-zones.yaml in the working
// directory is used when present.
func Load(v *viper.Viper, path string) (Config, error) {
	var c Config

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return c, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// Validate checks the grid and input settings
func (c Config) Validate() error {
	if err := c.Grid.Validate(); err != nil {
		return err
	}
	switch c.Input.Source {
	case SourceJSON:
		if c.Input.File == "" {
			return fmt.Errorf("input.file is required for the %s source", SourceJSON)
		}
	case SourcePostGIS:
	default:
		return fmt.Errorf("unknown input source %q", c.Input.Source)
	}
	return nil
}

// UsedFile returns the config file viper read, or "" if none
func UsedFile(v *viper.Viper) string {
	f := v.ConfigFileUsed()
	if f == "" {
		return ""
	}
	if _, err := os.Stat(f); err != nil {
		return ""
	}
	return f
}
