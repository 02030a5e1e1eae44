package dto

import (
	"nibog/internal/domains/booking/model"
	"nibog/shared/constant"
	"nibog/shared/timezone"
)

// ConfirmRequest carries the captured payment that a booking is created for.
type ConfirmRequest struct {
	TransactionID        string `json:"transaction_id"         validate:"required,txnid"`
	PhonePeTransactionID string `json:"phonepe_transaction_id" validate:"omitempty,max=128"`
	AmountPaise          int64  `json:"amount_paise"           validate:"gte=0"`
	PaymentInstrument    string `json:"payment_instrument"     validate:"omitempty,max=64"`
	GatewayResponse      any    `json:"gateway_response,omitempty"`
}

type ConfirmResponse struct {
	TransactionID    string  `json:"transaction_id"`
	BookingID        string  `json:"booking_id"`
	BookingRef       string  `json:"booking_ref"`
	Amount           float64 `json:"amount"`
	PaymentRecorded  bool    `json:"payment_recorded"`
	AlreadyConfirmed bool    `json:"already_confirmed"`
	ConfirmedAt      string  `json:"confirmed_at"`
}

func (r *ConfirmResponse) FromModel(confirmation model.Confirmation) {
	r.TransactionID = confirmation.TransactionID
	r.BookingID = confirmation.BookingID
	r.BookingRef = confirmation.BookingRef
	r.Amount = confirmation.Amount
	r.PaymentRecorded = confirmation.PaymentRecorded
	r.ConfirmedAt = timezone.Format(confirmation.ConfirmedAt, constant.DateFormat)
}
