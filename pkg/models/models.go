package models

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/spf13/cast"
)

var (
	// ErrMissingAttribute is returned when an agent has no value for a requested attribute
	ErrMissingAttribute = errors.New("missing attribute")
	// ErrNonNumericAttribute is returned when an attribute cannot be read as a number
	ErrNonNumericAttribute = errors.New("non-numeric attribute")
)

// Position represents a geographic position in degrees
type Position struct {
	LatitudeDegrees  float64 `json:"latitude"`
	LongitudeDegrees float64 `json:"longitude"`
}

// NewPosition creates a position. Values are not range checked.
func NewPosition(latitudeDegrees, longitudeDegrees float64) Position {
	return Position{LatitudeDegrees: latitudeDegrees, LongitudeDegrees: longitudeDegrees}
}

// LatitudeRadians returns the latitude in radians
func (p Position) LatitudeRadians() float64 {
	return p.LatitudeDegrees * math.Pi / 180.0
}

// LongitudeRadians returns the longitude in radians
func (p Position) LongitudeRadians() float64 {
	return p.LongitudeDegrees * math.Pi / 180.0
}

func (p Position) String() string {
	return fmt.Sprintf("(%.6f, %.6f)", p.LatitudeDegrees, p.LongitudeDegrees)
}

// BoundingBox represents a rectangular area defined by two corners
type BoundingBox struct {
	BottomLeft Position
	TopRight   Position
}

// Contains reports whether p lies inside the half-open box [BottomLeft, TopRight)
func (b BoundingBox) Contains(p Position) bool {
	return p.LatitudeDegrees >= b.BottomLeft.LatitudeDegrees &&
		p.LatitudeDegrees < b.TopRight.LatitudeDegrees &&
		p.LongitudeDegrees >= b.BottomLeft.LongitudeDegrees &&
		p.LongitudeDegrees < b.TopRight.LongitudeDegrees
}

// Center returns the midpoint of the box
func (b BoundingBox) Center() Position {
	return Position{
		LatitudeDegrees:  (b.BottomLeft.LatitudeDegrees + b.TopRight.LatitudeDegrees) / 2,
		LongitudeDegrees: (b.BottomLeft.LongitudeDegrees + b.TopRight.LongitudeDegrees) / 2,
	}
}

// Agent is a located entity carrying an open set of named scalar attributes
type Agent struct {
	ID         string         `json:"id"`
	Position   Position       `json:"position"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// NewAgent creates an agent with a random ID
func NewAgent(position Position, attributes map[string]any) *Agent {
	if attributes == nil {
		attributes = make(map[string]any)
	}
	return &Agent{
		ID:         uuid.NewString(),
		Position:   position,
		Attributes: attributes,
	}
}

// Attribute returns the raw value stored under name
func (a *Agent) Attribute(name string) (any, bool) {
	v, ok := a.Attributes[name]
	return v, ok
}

// Float returns the named attribute as a float64
func (a *Agent) Float(name string) (float64, error) {
	v, ok := a.Attribute(name)
	if !ok || v == nil {
		return 0, fmt.Errorf("agent %s: %q: %w", a.ID, name, ErrMissingAttribute)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, fmt.Errorf("agent %s: %q: %w: %v", a.ID, name, ErrNonNumericAttribute, err)
	}
	return f, nil
}
