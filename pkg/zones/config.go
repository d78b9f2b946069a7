package zones

import (
	"errors"
	"fmt"
	"math"
)

const (
	DefaultMinLatitude   = -90.0
	DefaultMaxLatitude   = 90.0
	DefaultStepLatitude  = 1.0
	DefaultMinLongitude  = -180.0
	DefaultMaxLongitude  = 180.0
	DefaultStepLongitude = 1.0
	EarthRadiusKm        = 6371.0

	// binTolerance absorbs float error when checking that a span is a whole number of steps
	binTolerance = 1e-9
)

// ErrInvalidConfig is returned by Config.Validate
var ErrInvalidConfig = errors.New("invalid grid config")

// Config describes a uniform grid over the half-open ranges
// [MinLatitude, MaxLatitude) x [MinLongitude, MaxLongitude).
type Config struct {
	MinLatitude   float64 `mapstructure:"min_latitude" yaml:"min_latitude"`
	MaxLatitude   float64 `mapstructure:"max_latitude" yaml:"max_latitude"`
	StepLatitude  float64 `mapstructure:"step_latitude" yaml:"step_latitude"`
	MinLongitude  float64 `mapstructure:"min_longitude" yaml:"min_longitude"`
	MaxLongitude  float64 `mapstructure:"max_longitude" yaml:"max_longitude"`
	StepLongitude float64 `mapstructure:"step_longitude" yaml:"step_longitude"`
	EarthRadiusKm float64 `mapstructure:"earth_radius_km" yaml:"earth_radius_km"`
}

// DefaultConfig returns the global 1 degree grid
func DefaultConfig() Config {
	return Config{
		MinLatitude:   DefaultMinLatitude,
		MaxLatitude:   DefaultMaxLatitude,
		StepLatitude:  DefaultStepLatitude,
		MinLongitude:  DefaultMinLongitude,
		MaxLongitude:  DefaultMaxLongitude,
		StepLongitude: DefaultStepLongitude,
		EarthRadiusKm: EarthRadiusKm,
	}
}

// Validate checks that the config tiles its range with a positive, whole number of cells
func (c Config) Validate() error {
	if c.StepLatitude <= 0 || c.StepLongitude <= 0 {
		return fmt.Errorf("%w: steps must be positive (lat=%v, lon=%v)", ErrInvalidConfig, c.StepLatitude, c.StepLongitude)
	}
	if c.EarthRadiusKm <= 0 {
		return fmt.Errorf("%w: earth radius must be positive, got %v", ErrInvalidConfig, c.EarthRadiusKm)
	}
	if c.MaxLatitude <= c.MinLatitude {
		return fmt.Errorf("%w: empty latitude range [%v, %v)", ErrInvalidConfig, c.MinLatitude, c.MaxLatitude)
	}
	if c.MaxLongitude <= c.MinLongitude {
		return fmt.Errorf("%w: empty longitude range [%v, %v)", ErrInvalidConfig, c.MinLongitude, c.MaxLongitude)
	}
	if !wholeSteps(c.MaxLatitude-c.MinLatitude, c.StepLatitude) {
		return fmt.Errorf("%w: latitude span %v is not a multiple of step %v", ErrInvalidConfig, c.MaxLatitude-c.MinLatitude, c.StepLatitude)
	}
	if !wholeSteps(c.MaxLongitude-c.MinLongitude, c.StepLongitude) {
		return fmt.Errorf("%w: longitude span %v is not a multiple of step %v", ErrInvalidConfig, c.MaxLongitude-c.MinLongitude, c.StepLongitude)
	}
	return nil
}

func wholeSteps(span, step float64) bool {
	n := span / step
	return math.Abs(n-math.Round(n)) < binTolerance
}

// LatitudeBins returns the number of rows in the grid
func (c Config) LatitudeBins() int {
	return int(math.Round((c.MaxLatitude - c.MinLatitude) / c.StepLatitude))
}

// LongitudeBins returns the number of columns in the grid
func (c Config) LongitudeBins() int {
	return int(math.Round((c.MaxLongitude - c.MinLongitude) / c.StepLongitude))
}

// ZoneCount returns the total number of zones
func (c Config) ZoneCount() int {
	return c.LatitudeBins() * c.LongitudeBins()
}

// Width returns the east-west extent of a zone in km
func (c Config) Width() float64 {
	return c.StepLongitude * math.Pi / 180.0 * c.EarthRadiusKm
}

// Height returns the north-south extent of a zone in km
func (c Config) Height() float64 {
	return c.StepLatitude * math.Pi / 180.0 * c.EarthRadiusKm
}

// Area returns the area of every zone in square km.
// It is a flat approximation and ignores the narrowing of longitude with latitude.
func (c Config) Area() float64 {
	return c.Width() * c.Height()
}
