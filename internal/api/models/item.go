package models

// Item represents a shopping list item as returned by the API.
type Item struct {
	ID           string     `json:"id"`
	GroupID      string     `json:"groupId"`
	Name         string     `json:"name"`
	Purchased    bool       `json:"purchased"`
	Order        int        `json:"order"`
	Location     *string    `json:"location,omitempty"`
	URL          *string    `json:"url,omitempty"`
	Quantity     *int       `json:"quantity,omitempty"`
	Deadline     *Timestamp `json:"deadline,omitempty"`
	Memo         *string    `json:"memo,omitempty"`
	RegisteredAt Timestamp  `json:"registeredAt"`
	Registrant   string     `json:"registrant"`
	Buyer        *string    `json:"buyer,omitempty"`
	PurchasedAt  *Timestamp `json:"purchasedAt,omitempty"`
}

// ItemCreateRequest is the request body for creating an item.
type ItemCreateRequest struct {
	Name     string     `json:"name" validate:"required,max=120"`
	Location *string    `json:"location,omitempty"`
	URL      *string    `json:"url,omitempty"`
	Quantity *int       `json:"quantity,omitempty"`
	Deadline *Timestamp `json:"deadline,omitempty"`
	Memo     *string    `json:"memo,omitempty"`
}

// ItemToggleRequest is the request body for toggling an item's
// purchased state.
type ItemToggleRequest struct {
	Purchased bool `json:"purchased"`
}

// ItemReorderRequest is the request body for reordering a group's items.
type ItemReorderRequest struct {
	ItemIDs []string `json:"itemIds" validate:"required,min=1"`
}

// ItemList is the response body for listing a group's items.
type ItemList struct {
	Items []Item `json:"items"`
}
