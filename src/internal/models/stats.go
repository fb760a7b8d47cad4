package models

// AccountStats holds per-status account counts for the admin dashboard.
type AccountStats struct {
	Total    int64 `json:"total"`
	Active   int64 `json:"active"`
	Pending  int64 `json:"pending"`
	Disabled int64 `json:"disabled"`
}
