package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"nibog/infras/backend"
	"nibog/infras/httpclient"
	"nibog/shared/timezone"
	"strconv"
	"time"
)

const (
	EntityName = "pending_booking"

	StatusPending = "pending"

	transactionPrefix = "NIBOG"

	// DefaultTTL is how long a customer has to finish paying.
	DefaultTTL = 30 * time.Minute
)

// ExpiresAtLayouts are the timestamp formats the webhooks have been seen to return.
var ExpiresAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999-07",
	"2006-01-02 15:04:05",
}

var ErrInvalidTimestamp = errors.New("invalid timestamp")

type Parent struct {
	Name  string `json:"parent_name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type Child struct {
	FullName    string `json:"full_name"`
	DateOfBirth string `json:"date_of_birth"`
	SchoolName  string `json:"school_name,omitempty"`
	Gender      string `json:"gender"`
}

type Game struct {
	GameID backend.FlexString `json:"game_id"`
	SlotID backend.FlexString `json:"slot_id,omitempty"`
	Name   string             `json:"game_name,omitempty"`
	Price  float64            `json:"game_price"`
}

type Addon struct {
	AddonID   backend.FlexString `json:"addon_id"`
	VariantID backend.FlexString `json:"variant_id,omitempty"`
	Name      string             `json:"name,omitempty"`
	Quantity  int                `json:"quantity"`
	Price     float64            `json:"price"`
}

// BookingData is what the registration form captured before the customer went to pay.
type BookingData struct {
	UserID         backend.FlexString `json:"user_id"`
	Parent         Parent             `json:"parent"`
	Child          Child              `json:"child"`
	EventID        backend.FlexString `json:"event_id"`
	EventTitle     string             `json:"event_title,omitempty"`
	EventDate      string             `json:"event_date,omitempty"`
	VenueName      string             `json:"venue_name,omitempty"`
	CityName       string             `json:"city_name,omitempty"`
	Games          []Game             `json:"games"`
	Addons         []Addon            `json:"addons,omitempty"`
	PromoCode      string             `json:"promo_code,omitempty"`
	DiscountAmount float64            `json:"discount_amount,omitempty"`
	TotalAmount    float64            `json:"total_amount"`
	PaymentMethod  string             `json:"payment_method,omitempty"`
	TermsAccepted  bool               `json:"terms_accepted"`
}

type PendingBooking struct {
	TransactionID string      `json:"transaction_id"`
	UserID        string      `json:"user_id"`
	BookingData   BookingData `json:"booking_data"`
	// BookingDataRaw keeps the upstream payload when it could not be decoded in full.
	BookingDataRaw string    `json:"booking_data_raw,omitempty"`
	ExpiresAt      time.Time `json:"expires_at"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	Partial        bool      `json:"partial,omitempty"`
}

func (p PendingBooking) IsExpired(now time.Time) bool {
	return !p.ExpiresAt.IsZero() && !now.Before(p.ExpiresAt)
}

// GenerateTransactionID returns NIBOG_<userId>_<unix millis>.
func GenerateTransactionID(userID string, now time.Time) string {
	return fmt.Sprintf("%s_%s_%d", transactionPrefix, userID, now.UnixMilli())
}

// TransactionTime recovers the creation time embedded in a transaction id.
func TransactionTime(transactionID string) (time.Time, bool) {
	idx := len(transactionID) - 1
	for idx >= 0 && transactionID[idx] != '_' {
		idx--
	}

	if idx < 0 {
		return time.Time{}, false
	}

	ms, err := strconv.ParseInt(transactionID[idx+1:], 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}, false
	}

	return timezone.FromUnixMilli(ms), true
}

// ToRecord converts the booking into the webhook wire shape.
func (p PendingBooking) ToRecord() (backend.PendingBookingRecord, error) {
	data, err := json.Marshal(p.BookingData)
	if err != nil {
		return backend.PendingBookingRecord{}, fmt.Errorf("failed to marshal booking data: %w", err)
	}

	return backend.PendingBookingRecord{
		TransactionID: p.TransactionID,
		UserID:        backend.FlexString(p.UserID),
		BookingData:   data,
		ExpiresAt:     p.ExpiresAt.UTC().Format(time.RFC3339),
		Status:        p.Status,
		CreatedAt:     p.CreatedAt.UTC().Format(time.RFC3339),
	}, nil
}

// FromRecord decodes a webhook record. booking_data may be an object or a
// serialized JSON string; content that needs repair marks the booking partial.
func FromRecord(record backend.PendingBookingRecord) (PendingBooking, error) {
	booking := PendingBooking{
		TransactionID: record.TransactionID,
		UserID:        record.UserID.String(),
		Status:        record.Status,
		Partial:       record.Partial,
	}

	expiresAt, err := ParseTimestamp(record.ExpiresAt)
	if err != nil {
		return booking, fmt.Errorf("failed to parse expires_at: %w", err)
	}

	booking.ExpiresAt = expiresAt

	if record.CreatedAt != "" {
		if createdAt, err := ParseTimestamp(record.CreatedAt); err == nil {
			booking.CreatedAt = createdAt
		}
	}

	raw := record.BookingData
	if len(raw) > 0 && raw[0] == '"' {
		var serialized string
		if err := json.Unmarshal(raw, &serialized); err != nil {
			booking.BookingDataRaw = string(raw)
			booking.Partial = true

			return booking, nil
		}

		raw = json.RawMessage(serialized)
	}

	if len(raw) == 0 {
		booking.Partial = true

		return booking, nil
	}

	partial, err := httpclient.DecodeTolerant(raw, &booking.BookingData)
	if err != nil || partial {
		booking.BookingDataRaw = string(raw)
		booking.Partial = true
	}

	return booking, nil
}

// ParseTimestamp accepts RFC3339 and the naive layouts; naive values are read in UTC.
func ParseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, ErrInvalidTimestamp
	}

	for _, layout := range ExpiresAtLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return timezone.ToAppTime(t), nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, value)
}
