package domain

// Location is an inventory location referenced by a user's active_location_id.
// It is owned by the inventory module; auth only reads it.
type Location struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Code     string `json:"code,omitempty"`
	Type     string `json:"type,omitempty"`
	IsActive bool   `json:"is_active"`
}
