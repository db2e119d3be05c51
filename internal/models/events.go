package models

// EventType is the closed set of frame types exchanged over the
// WebSocket and webhook channels. Handlers switch exhaustively on
// these; anything else is dropped.
type EventType string

const (
	EventConnect    EventType = "connect"
	EventPurchase   EventType = "purchase"
	EventRestock    EventType = "restock"
	EventNewProduct EventType = "new_product"
	EventAddBLU     EventType = "addBLU"
	EventRemoveBLU  EventType = "removeBLU"
	EventAddRED     EventType = "addRED"
	EventRemoveRED  EventType = "removeRED"
	EventBuy        EventType = "buy"
)

// AddEvent returns the catalog-add event for a team ("BLU" or "RED").
func AddEvent(team string) EventType {
	if team == "RED" {
		return EventAddRED
	}
	return EventAddBLU
}

// RemoveEvent returns the catalog-remove event for a team.
func RemoveEvent(team string) EventType {
	if team == "RED" {
		return EventRemoveRED
	}
	return EventRemoveBLU
}

// Event is a server-to-client broadcast frame.
type Event struct {
	Type      EventType      `json:"type"`
	ID        string         `json:"id,omitempty"`
	Item      *Hat           `json:"item,omitempty"`
	Data      interface{}    `json:"data,omitempty"`
	Price     int            `json:"price,omitempty"`
	Funds     *int           `json:"funds,omitempty"`
	Timestamp int64          `json:"timestamp,omitempty"`
	Products  map[string]Hat `json:"products,omitempty"`
	Remote    map[string]Hat `json:"redProducts,omitempty"`
}

// ClientFrame is a client-to-server WebSocket message.
type ClientFrame struct {
	Type EventType `json:"type"`
	ID   string    `json:"id"`
}

// WebhookEvent is the body of a partner webhook call. Restock events
// reference an existing item by id; new_product events carry the
// item itself.
type WebhookEvent struct {
	Type     EventType `json:"type"`
	HatID    FlexID    `json:"hatId,omitempty"`
	Quantity int       `json:"quantity,omitempty"`
	Item     *Hat      `json:"item,omitempty"`
	Source   string    `json:"source,omitempty"`
}
