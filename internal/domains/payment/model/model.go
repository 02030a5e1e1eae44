package model

import (
	"math"
	"nibog/shared/constant"
	"nibog/shared/model"
	"strings"
)

const (
	TableName  = "payment_transactions"
	EntityName = "payment_transaction"

	FieldTransactionID        = "transaction_id"
	FieldUserID               = "user_id"
	FieldAmount               = "amount"
	FieldAmountPaise          = "amount_paise"
	FieldStatus               = "status"
	FieldPhonePeTransactionID = "phonepe_transaction_id"
	FieldPhonePeCode          = "phonepe_code"
	FieldPaymentInstrument    = "payment_instrument"
	FieldBookingID            = "booking_id"
	FieldBookingRef           = "booking_ref"
	FieldFailureReason        = "failure_reason"
	FieldReconcileAttempts    = "reconcile_attempts"
)

const (
	StatusInitiated     = "initiated"
	StatusPending       = "pending"
	StatusPaid          = "paid"
	StatusFailed        = "failed"
	StatusBooked        = "booked"
	StatusBookingFailed = "booking_failed"
)

// ReasonCapturedAmount is the failure reason of a booking_failed row held for manual review.
const ReasonCapturedAmount = "captured amount differs from the initiated amount"

// Transaction is one row of the payment ledger. Amount is kept both in rupees and in paise.
type Transaction struct {
	TransactionID        string  `db:"transaction_id"`
	UserID               string  `db:"user_id"`
	Amount               float64 `db:"amount"`
	AmountPaise          int64   `db:"amount_paise"`
	Status               string  `db:"status"`
	PhonePeTransactionID string  `db:"phonepe_transaction_id"`
	PhonePeCode          string  `db:"phonepe_code"`
	PaymentInstrument    string  `db:"payment_instrument"`
	BookingID            string  `db:"booking_id"`
	BookingRef           string  `db:"booking_ref"`
	FailureReason        string  `db:"failure_reason"`
	ReconcileAttempts    int     `db:"reconcile_attempts"`
	model.Metadata
}

// Settled reports whether nothing more can happen to the transaction.
func (t Transaction) Settled() bool {
	return t.Status == StatusBooked || t.Status == StatusFailed || t.Held()
}

// Held reports whether the gateway captured a different amount than was initiated.
// Such a row is never booked automatically.
func (t Transaction) Held() bool {
	return t.Status == StatusBookingFailed && t.FailureReason == ReasonCapturedAmount
}

// Captured reports whether the gateway has taken the money.
func (t Transaction) Captured() bool {
	return t.Status == StatusPaid || t.Status == StatusBooked || t.Status == StatusBookingFailed
}

// ToPaise converts a rupee amount, rounding to the nearest paisa.
func ToPaise(amount float64) int64 {
	return int64(math.Round(amount * constant.PaiseInRupee))
}

// MobileNumber keeps the last ten digits of a phone number, which is what the pay page accepts.
func MobileNumber(phone string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}

		return -1
	}, phone)

	const mobileDigits = 10
	if len(digits) < mobileDigits {
		return ""
	}

	return digits[len(digits)-mobileDigits:]
}
