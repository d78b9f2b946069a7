package models

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPositionRadians(t *testing.T) {
	testCases := []struct {
		name       string
		lat, lon   float64
		latR, lonR float64
	}{
		{"origin", 0, 0, 0, 0},
		{"north pole", 90, 0, math.Pi / 2, 0},
		{"antimeridian", 0, -180, 0, -math.Pi},
		{"out of range passes through", 270, 540, 3 * math.Pi / 2, 3 * math.Pi},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewPosition(tc.lat, tc.lon)
			assert.InDelta(t, tc.latR, p.LatitudeRadians(), 1e-12)
			assert.InDelta(t, tc.lonR, p.LongitudeRadians(), 1e-12)
			assert.Equal(t, tc.lat, p.LatitudeDegrees)
			assert.Equal(t, tc.lon, p.LongitudeDegrees)
		})
	}
}

func TestBoundingBoxContains(t *testing.T) {
	box := BoundingBox{BottomLeft: NewPosition(0, 0), TopRight: NewPosition(1, 1)}

	assert.True(t, box.Contains(NewPosition(0, 0)))
	assert.True(t, box.Contains(NewPosition(0.5, 0.99)))
	assert.False(t, box.Contains(NewPosition(1, 0.5)))
	assert.False(t, box.Contains(NewPosition(0.5, 1)))
	assert.False(t, box.Contains(NewPosition(-0.1, 0.5)))
	assert.Equal(t, NewPosition(0.5, 0.5), box.Center())
}

func TestAgentFloat(t *testing.T) {
	agent := NewAgent(NewPosition(1, 2), map[string]any{
		"agreeableness": 0.75,
		"age":           42,
		"score":         "3.5",
		"json":          json.Number("1.25"),
		"name":          "carol",
		"empty":         nil,
	})
	require.NotEmpty(t, agent.ID)

	testCases := []struct {
		attr     string
		expected float64
		err      error
	}{
		{"agreeableness", 0.75, nil},
		{"age", 42, nil},
		{"score", 3.5, nil},
		{"json", 1.25, nil},
		{"name", 0, ErrNonNumericAttribute},
		{"empty", 0, ErrMissingAttribute},
		{"missing", 0, ErrMissingAttribute},
	}

	for _, tc := range testCases {
		t.Run(tc.attr, func(t *testing.T) {
			v, err := agent.Float(tc.attr)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, v)
		})
	}
}

func TestAgentAttribute(t *testing.T) {
	agent := NewAgent(NewPosition(0, 0), map[string]any{"city": "lyon", "empty": nil})

	v, ok := agent.Attribute("city")
	assert.True(t, ok)
	assert.Equal(t, "lyon", v)

	v, ok = agent.Attribute("empty")
	assert.True(t, ok)
	assert.Nil(t, v)

	_, ok = agent.Attribute("missing")
	assert.False(t, ok)
}

func TestNewAgentUniqueIDs(t *testing.T) {
	a := NewAgent(NewPosition(0, 0), nil)
	b := NewAgent(NewPosition(0, 0), nil)
	assert.NotEqual(t, a.ID, b.ID)
	assert.NotNil(t, a.Attributes)
}
