package driven

// ConfigStore holds settings under dot-separated keys such as
// "retrieval.top_k". Typed getters return the zero value when a key is
// missing or holds another type; use Get to tell the two apart.
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string

	// GetInt accepts any integer representation the backend produces.
	GetInt(key string) int

	// GetFloat widens integers, so "temperature = 1" reads as 1.0.
	GetFloat(key string) float64

	// Set stores value and persists it before returning.
	Set(key string, value any) error

	// Path names where values are persisted.
	Path() string
}
