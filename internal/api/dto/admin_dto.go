package dto

// AdminStatsResponse aggregates marketplace analytics.
type AdminStatsResponse struct {
	Users      int64            `json:"users"`
	Listings   int64            `json:"listings"`
	ByType     map[string]int64 `json:"by_type"`
	ByStatus   map[string]int64 `json:"by_status"`
	ByProvider map[string]int64 `json:"by_provider"`
	Requests   map[string]int64 `json:"requests"`
	Errors     map[string]int64 `json:"errors"`
}
