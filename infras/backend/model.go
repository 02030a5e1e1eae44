package backend

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// FlexString accepts a JSON string, number or null. The webhooks are not consistent about ids.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	if bytes.Equal(data, []byte("null")) {
		*f = ""

		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err //nolint:wrapcheck
		}

		*f = FlexString(s)

		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err //nolint:wrapcheck
	}

	*f = FlexString(n.String())

	return nil
}

func (f FlexString) String() string {
	return string(f)
}

// Int64 returns the numeric value or 0 when the id is not numeric.
func (f FlexString) Int64() int64 {
	n, err := strconv.ParseInt(string(f), 10, 64)
	if err != nil {
		return 0
	}

	return n
}

type PendingBookingRecord struct {
	TransactionID string     `json:"transaction_id"`
	UserID        FlexString `json:"user_id"`
	// BookingData arrives either as an object or as a serialized JSON string.
	BookingData json.RawMessage `json:"booking_data"`
	ExpiresAt   string          `json:"expires_at"`
	Status      string          `json:"status"`
	CreatedAt   string          `json:"created_at,omitempty"`

	// Partial is set when the upstream body needed repair to decode.
	Partial bool `json:"-"`
}

type transactionRequest struct {
	TransactionID string `json:"transaction_id"`
}

type BookingParent struct {
	UserID          FlexString `json:"user_id"`
	ParentName      string     `json:"parent_name"`
	Email           string     `json:"email"`
	AdditionalPhone string     `json:"additional_phone"`
}

type BookingChild struct {
	FullName    string `json:"full_name"`
	DateOfBirth string `json:"date_of_birth"`
	SchoolName  string `json:"school_name"`
	Gender      string `json:"gender"`
}

type BookingHeader struct {
	UserID                FlexString `json:"user_id"`
	EventID               FlexString `json:"event_id"`
	BookingRef            string     `json:"booking_ref"`
	TotalAmount           float64    `json:"total_amount"`
	PaymentMethod         string     `json:"payment_method"`
	PaymentStatus         string     `json:"payment_status"`
	Status                string     `json:"status"`
	TermsAccepted         bool       `json:"terms_accepted"`
	TransactionID         string     `json:"transaction_id"`
	MerchantTransactionID string     `json:"merchant_transaction_id"`
	PromoCode             string     `json:"promo_code,omitempty"`
	DiscountAmount        float64    `json:"discount_amount,omitempty"`
}

type BookingGame struct {
	GameID     FlexString `json:"game_id"`
	SlotID     FlexString `json:"slot_id,omitempty"`
	ChildIndex int        `json:"child_index"`
	GamePrice  float64    `json:"game_price"`
}

type BookingAddon struct {
	AddonID   FlexString `json:"addon_id"`
	VariantID FlexString `json:"variant_id,omitempty"`
	Quantity  int        `json:"quantity"`
}

// BookingPayload is the body of the booking creation webhook.
type BookingPayload struct {
	Parent        BookingParent  `json:"parent"`
	Child         BookingChild   `json:"child"`
	Booking       BookingHeader  `json:"booking"`
	BookingGames  []BookingGame  `json:"booking_games"`
	BookingAddons []BookingAddon `json:"booking_addons,omitempty"`
}

type CreatedBooking struct {
	BookingID  FlexString `json:"booking_id"`
	ID         FlexString `json:"id"`
	BookingRef string     `json:"booking_ref"`
}

// Identifier returns booking_id, or id for older webhook versions.
func (c CreatedBooking) Identifier() string {
	if c.BookingID != "" {
		return c.BookingID.String()
	}

	return c.ID.String()
}

type PaymentRecord struct {
	BookingID            FlexString `json:"booking_id"`
	TransactionID        string     `json:"transaction_id"`
	PhonePeTransactionID string     `json:"phonepe_transaction_id"`
	Amount               float64    `json:"amount"`
	PaymentMethod        string     `json:"payment_method"`
	PaymentStatus        string     `json:"payment_status"`
	PaymentDate          string     `json:"payment_date"`
	GatewayResponse      any        `json:"gateway_response,omitempty"`
}
