package backend

// Category is one entry of the resource category list.
type Category struct {
	ID   string `json:"_id"`
	Name string `json:"categoryName"`
}

// Pagination is the platform API's server-side paging block.
type Pagination struct {
	Page  int `json:"page"`
	Pages int `json:"pages"`
	Total int `json:"total"`
}

// OrdersPage is one server page of report-delivery orders. Rows are kept in
// their server shape; report screens and the table browser access fields
// optionally.
type OrdersPage struct {
	Items      []map[string]any
	Pagination Pagination
}

// Astrologer is one consultant from the available-slots response.
type Astrologer struct {
	ID          string   `json:"_id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	ReportTypes []string `json:"reportTypes"`
}

// SlotAstrologer is the compact astrologer reference inside a slot.
type SlotAstrologer struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// AvailableSlot is one bookable consultation slot for a date and prefix.
type AvailableSlot struct {
	Time        string           `json:"time"`
	Capacity    int              `json:"capacity"`
	Astrologers []SlotAstrologer `json:"availableAstrologers"`
}

// SlotsResponse bundles the available slots with the astrologer roster the
// platform returns alongside them.
type SlotsResponse struct {
	Slots       []AvailableSlot
	Astrologers []Astrologer
}

// BlockedSlot is one admin-blocked time range.
type BlockedSlot struct {
	ID             string
	TimeRange      string
	IsActive       bool
	Reason         string
	BlockedBy      string
	Prefix         string
	AstrologerID   string
	AstrologerName string
}

// BlockSlotRequest creates a new blocked slot. An empty AstrologerID blocks
// the slot globally.
type BlockSlotRequest struct {
	Date         string
	TimeRange    string
	Prefix       string
	AstrologerID string
	BlockedBy    string
}
