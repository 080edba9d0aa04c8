package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Attrs is the free-form metadata map carried by calls, call events and audit
// entries. Values are restricted to a small closed set of variants (string,
// number, bool, nested map) so serialization round-trips are well-defined.
type Attrs map[string]any

// Normalize returns a copy of the map with every value coerced into one of
// the supported variants. Unsupported values are rendered as strings.
func (a Attrs) Normalize() Attrs {
	if a == nil {
		return nil
	}
	out := make(Attrs, len(a))
	for k, v := range a {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case nil, string, bool, float64:
		return val
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case uint:
		return float64(val)
	case float32:
		return float64(val)
	case Attrs:
		return val.Normalize()
	case map[string]any:
		return Attrs(val).Normalize()
	default:
		return fmt.Sprintf("%v", val)
	}
}

// Value implements driver.Valuer so gorm stores the map as jsonb
func (a Attrs) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	return json.Marshal(a.Normalize())
}

// Scan implements sql.Scanner
func (a *Attrs) Scan(value interface{}) error {
	if value == nil {
		*a = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported attrs column type %T", value)
	}
	return json.Unmarshal(data, a)
}
