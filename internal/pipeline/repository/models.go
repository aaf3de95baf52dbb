package repository

// Column is one configurable pipeline stage of a tenant.
type Column struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	Color       string `json:"color"`
	Probability int    `json:"probability"`
	Position    int    `json:"position"`
}
