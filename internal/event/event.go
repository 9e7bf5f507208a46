// Package event defines the messages exchanged between the API and the
// worker over Pub/Sub, and the publisher that emits them.
package event

// ItemChange is published after a successful purchase toggle.
type ItemChange struct {
	GroupID   string `json:"group_id"`
	ItemID    string `json:"item_id"`
	ItemName  string `json:"item_name"`
	Purchased bool   `json:"purchased"`
}
