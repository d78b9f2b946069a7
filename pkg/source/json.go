// Package source reads agent records from external inputs.
package source

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cast"

	"github.com/kass/go-geo-zones/pkg/models"
)

// Field names with special meaning in a record. Everything else becomes an attribute.
const (
	LatitudeField  = "latitude"
	LongitudeField = "longitude"
	IDField        = "id"
)

// FromRecord builds an agent from a decoded record. The position and id fields
// are removed from the attribute set; the record map is not modified.
func FromRecord(record map[string]any) (*models.Agent, error) {
	lat, err := coordinate(record, LatitudeField)
	if err != nil {
		return nil, err
	}
	lon, err := coordinate(record, LongitudeField)
	if err != nil {
		return nil, err
	}

	attrs := make(map[string]any, len(record))
	for k, v := range record {
		switch k {
		case LatitudeField, LongitudeField, IDField:
			continue
		}
		attrs[k] = v
	}

	id := uuid.NewString()
	if v, ok := record[IDField]; ok && v != nil {
		if id, err = cast.ToStringE(v); err != nil {
			return nil, fmt.Errorf("%s: %w", IDField, err)
		}
	}

	return &models.Agent{
		ID:         id,
		Position:   models.NewPosition(lat, lon),
		Attributes: attrs,
	}, nil
}

func coordinate(record map[string]any, field string) (float64, error) {
	v, ok := record[field]
	if !ok || v == nil {
		return 0, fmt.Errorf("%q: %w", field, models.ErrMissingAttribute)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, fmt.Errorf("%q: %w: %v", field, models.ErrNonNumericAttribute, err)
	}
	return f, nil
}

// ReadJSON decodes a JSON array of agent records, one element at a time
func ReadJSON(r io.Reader) ([]*models.Agent, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, fmt.Errorf("expected JSON array of agents, got %v", tok)
	}

	var agents []*models.Agent
	for i := 0; dec.More(); i++ {
		var record map[string]any
		if err := dec.Decode(&record); err != nil {
			return nil, fmt.Errorf("record %d: failed to decode: %w", i, err)
		}
		agent, err := FromRecord(record)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		agents = append(agents, agent)
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("failed to read end of array: %w", err)
	}
	return agents, nil
}

// LoadFile reads agents from a JSON file
func LoadFile(path string) ([]*models.Agent, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ReadJSON(file)
}
