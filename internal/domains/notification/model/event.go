package model

import "strings"

// GameLine is one game on the confirmation.
type GameLine struct {
	Name  string  `json:"name"`
	Slot  string  `json:"slot,omitempty"`
	Price float64 `json:"price"`
}

type AddonLine struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// BookingConfirmedEvent is published once a paid booking exists upstream.
type BookingConfirmedEvent struct {
	TransactionID        string      `json:"transaction_id"`
	BookingID            string      `json:"booking_id"`
	BookingRef           string      `json:"booking_ref"`
	ParentName           string      `json:"parent_name"`
	ParentEmail          string      `json:"parent_email"`
	ParentPhone          string      `json:"parent_phone"`
	ChildName            string      `json:"child_name"`
	EventTitle           string      `json:"event_title"`
	EventDate            string      `json:"event_date"`
	VenueName            string      `json:"venue_name"`
	CityName             string      `json:"city_name"`
	Games                []GameLine  `json:"games"`
	Addons               []AddonLine `json:"addons,omitempty"`
	TotalAmount          float64     `json:"total_amount"`
	PaymentMethod        string      `json:"payment_method"`
	PhonePeTransactionID string      `json:"phonepe_transaction_id,omitempty"`
	ConfirmedAt          string      `json:"confirmed_at"`
}

// GameNames joins the game names for single-line channels.
func (e BookingConfirmedEvent) GameNames() string {
	names := make([]string, 0, len(e.Games))
	for _, game := range e.Games {
		names = append(names, game.Name)
	}

	return strings.Join(names, ", ")
}
