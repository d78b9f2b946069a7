package zones

import (
	"fmt"
	"sync"

	"github.com/kass/go-geo-zones/pkg/models"
)

// AgreeablenessAttribute is the attribute plotted by default
const AgreeablenessAttribute = "agreeableness"

// Zone is one grid cell. Its bounds never change and its agent list only grows.
type Zone struct {
	Index      int
	Row        int
	Col        int
	BottomLeft models.Position
	TopRight   models.Position

	config *Config
	mu     sync.RWMutex
	agents []*models.Agent
}

// ID returns a stable identifier of the form zone_<row>_<col>
func (z *Zone) ID() string {
	return fmt.Sprintf("zone_%d_%d", z.Row, z.Col)
}

// Bounds returns the zone rectangle
func (z *Zone) Bounds() models.BoundingBox {
	return models.BoundingBox{BottomLeft: z.BottomLeft, TopRight: z.TopRight}
}

// Center returns the midpoint of the zone
func (z *Zone) Center() models.Position {
	return z.Bounds().Center()
}

// Contains reports whether p falls inside the zone
func (z *Zone) Contains(p models.Position) bool {
	return z.Bounds().Contains(p)
}

// AddAgent appends an agent to the zone. Safe for concurrent use.
func (z *Zone) AddAgent(agent *models.Agent) {
	z.mu.Lock()
	z.agents = append(z.agents, agent)
	z.mu.Unlock()
}

// Agents returns a copy of the zone members in insertion order
func (z *Zone) Agents() []*models.Agent {
	z.mu.RLock()
	defer z.mu.RUnlock()
	out := make([]*models.Agent, len(z.agents))
	copy(out, z.agents)
	return out
}

// Population returns the number of agents in the zone
func (z *Zone) Population() int {
	z.mu.RLock()
	defer z.mu.RUnlock()
	return len(z.agents)
}

// Config returns the configuration of the grid the zone belongs to
func (z *Zone) Config() Config {
	return *z.config
}

// Area returns the grid-wide zone area in square km
func (z *Zone) Area() float64 {
	return z.config.Area()
}

// Density returns agents per square km
func (z *Zone) Density() float64 {
	return float64(z.Population()) / z.Area()
}

// AttributeMean returns the arithmetic mean of the named attribute over the zone's agents.
// An empty zone has a mean of 0. Any agent lacking the attribute fails the whole zone.
func (z *Zone) AttributeMean(name string) (float64, error) {
	z.mu.RLock()
	defer z.mu.RUnlock()

	if len(z.agents) == 0 {
		return 0, nil
	}

	var sum float64
	for _, agent := range z.agents {
		v, err := agent.Float(name)
		if err != nil {
			return 0, fmt.Errorf("zone %s: %w", z.ID(), err)
		}
		sum += v
	}
	return sum / float64(len(z.agents)), nil
}

// Agreeableness returns the mean agreeableness of the zone
func (z *Zone) Agreeableness() (float64, error) {
	return z.AttributeMean(AgreeablenessAttribute)
}
