package model

import (
	"fmt"
	"time"
)

const (
	EntityName = "booking"

	PaymentMethodPhonePe = "PhonePe"
	PaymentStatusPaid    = "Paid"
	PaymentStatusSuccess = "successful"
	StatusConfirmed      = "Confirmed"

	bookingRefPrefix = "PPT"
	bookingRefDigits = 1_000_000
)

// Confirmation is what a completed reconciliation leaves behind.
type Confirmation struct {
	TransactionID        string    `json:"transaction_id"`
	BookingID            string    `json:"booking_id"`
	BookingRef           string    `json:"booking_ref"`
	PhonePeTransactionID string    `json:"phonepe_transaction_id"`
	Amount               float64   `json:"amount"`
	PaymentRecorded      bool      `json:"payment_recorded"`
	ConfirmedAt          time.Time `json:"confirmed_at"`
}

// GenerateBookingRef returns PPT<yymmdd><6 digits>. The same transaction time always yields the same reference.
func GenerateBookingRef(at time.Time) string {
	return fmt.Sprintf("%s%s%06d", bookingRefPrefix, at.Format("060102"), at.UnixMilli()%bookingRefDigits)
}
