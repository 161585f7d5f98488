package session

import "sync"

// memoryStore holds the key/value pairs written by the set_memory tool.
// Cleared on disconnect.
type memoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]string{}}
}

func (m *memoryStore) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}

func (m *memoryStore) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.values[key]
	return value, ok
}

// Snapshot returns a copy of the stored values.
func (m *memoryStore) Snapshot() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()

	values := make(map[string]string, len(m.values))
	for key, value := range m.values {
		values[key] = value
	}
	return values
}

func (m *memoryStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = map[string]string{}
}

// Reading is a measured value with its unit, as reported by the weather
// lookup.
type Reading struct {
	Value float64 `json:"value"`
	Units string  `json:"units"`
}

// Marker is the last known geolocation result of the get_weather tool.
type Marker struct {
	Lat         float64  `json:"lat"`
	Lng         float64  `json:"lng"`
	Location    string   `json:"location,omitempty"`
	Temperature *Reading `json:"temperature,omitempty"`
	WindSpeed   *Reading `json:"wind_speed,omitempty"`
}

// MarkerPatch is a partial marker update. Set fields overwrite, nil fields
// preserve the current value.
type MarkerPatch struct {
	Lat         *float64
	Lng         *float64
	Location    *string
	Temperature *Reading
	WindSpeed   *Reading
}

// defaultMarker is the state the marker returns to on disconnect.
func defaultMarker() Marker {
	return Marker{}
}

// mergeMarker applies a shallow patch: incoming non-nil fields overwrite,
// absent fields keep their previous value.
func mergeMarker(current Marker, patch MarkerPatch) Marker {
	if patch.Lat != nil {
		current.Lat = *patch.Lat
	}
	if patch.Lng != nil {
		current.Lng = *patch.Lng
	}
	if patch.Location != nil {
		current.Location = *patch.Location
	}
	if patch.Temperature != nil {
		reading := *patch.Temperature
		current.Temperature = &reading
	}
	if patch.WindSpeed != nil {
		reading := *patch.WindSpeed
		current.WindSpeed = &reading
	}
	return current
}
