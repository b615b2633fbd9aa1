package analyzer

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/replicatedhq/testlog-analyzer/pkg/multitype"
)

// Facets written for every analyzed text log.
const (
	FacetLines    = "lines"
	FacetErrors   = "errors"
	FacetWarnings = "warnings"
)

// MetricKey identifies a metric by the category that produced it and the facet
// it measures. Run level metrics such as total_errors have an empty category.
type MetricKey struct {
	Category string
	Facet    string
}

// String renders the flat "{category}_{facet}" form used in reports.
func (k MetricKey) String() string {
	if k.Category == "" {
		return k.Facet
	}
	return k.Category + "_" + k.Facet
}

// Metrics is an insertion ordered mapping of metric keys to values.
// Setting an existing key replaces its value but keeps its position.
type Metrics struct {
	keys   []MetricKey
	values map[MetricKey]multitype.Value
}

func NewMetrics() *Metrics {
	return &Metrics{
		values: map[MetricKey]multitype.Value{},
	}
}

func (m *Metrics) Set(key MetricKey, value multitype.Value) {
	if m.values == nil {
		m.values = map[MetricKey]multitype.Value{}
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

func (m *Metrics) Get(key MetricKey) (multitype.Value, bool) {
	if m == nil {
		return multitype.Value{}, false
	}
	v, ok := m.values[key]
	return v, ok
}

// GetInt returns the integer value stored under key, or 0 when it is absent or not an int.
func (m *Metrics) GetInt(key MetricKey) int64 {
	v, ok := m.Get(key)
	if !ok || v.Type != multitype.Int {
		return 0
	}
	return v.IntVal
}

// Lookup finds a metric by its rendered name.
func (m *Metrics) Lookup(name string) (multitype.Value, bool) {
	if m == nil {
		return multitype.Value{}, false
	}
	for _, k := range m.keys {
		if k.String() == name {
			return m.values[k], true
		}
	}
	return multitype.Value{}, false
}

// Keys returns the metric keys in insertion order.
func (m *Metrics) Keys() []MetricKey {
	if m == nil {
		return nil
	}
	keys := make([]MetricKey, len(m.keys))
	copy(keys, m.keys)
	return keys
}

func (m *Metrics) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

func (m *Metrics) Clone() *Metrics {
	clone := NewMetrics()
	for _, k := range m.Keys() {
		clone.Set(k, m.values[k])
	}
	return clone
}

// MarshalJSON writes the metrics as a flat JSON object, preserving insertion order.
func (m *Metrics) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(k.String())
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, errors.Wrapf(err, "failed to marshal metric %s", k.String())
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a flat JSON object in document order. The category/facet split
// cannot be recovered from a rendered name, so every key is read back as a facet.
func (m *Metrics) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("metrics must be a JSON object")
	}

	*m = *NewMetrics()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return errors.Errorf("unexpected metric key %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return errors.Wrapf(err, "failed to decode metric %s", name)
		}
		var value multitype.Value
		if err := json.Unmarshal(raw, &value); err != nil {
			return errors.Wrapf(err, "failed to decode metric %s", name)
		}
		m.Set(MetricKey{Facet: name}, value)
	}

	_, err = dec.Token()
	return err
}
