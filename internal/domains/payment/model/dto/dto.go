package dto

import (
	"nibog/internal/domains/payment/model"
	"nibog/shared"
	gDto "nibog/shared/dto"
)

const (
	RedirectStatusSuccess = "success"
	RedirectStatusFailed  = "failed"
	RedirectStatusPending = "pending"
	RedirectStatusError   = "error"
)

type InitiateRequest struct {
	TransactionID string  `json:"transaction_id" validate:"required,txnid"`
	UserID        string  `json:"user_id"        validate:"required,max=64"`
	Amount        float64 `json:"amount"         validate:"required,gt=0"`
	Mobile        string  `json:"mobile"         validate:"omitempty,indianphone"`
}

type InitiateResponse struct {
	TransactionID string `json:"transaction_id"`
	RedirectURL   string `json:"redirect_url"`
	AmountPaise   int64  `json:"amount_paise"`
}

// CallbackRequest is the server-to-server notification from the gateway.
type CallbackRequest struct {
	Response string `json:"response"`
	XVerify  string `json:"-"`
}

type CallbackResponse struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
}

// StatusResponse is what the frontend polls after the redirect.
type StatusResponse struct {
	TransactionID        string  `json:"transaction_id"`
	Status               string  `json:"status"`
	Amount               float64 `json:"amount"`
	PhonePeTransactionID string  `json:"phonepe_transaction_id,omitempty"`
	PhonePeCode          string  `json:"phonepe_code,omitempty"`
	BookingID            string  `json:"booking_id,omitempty"`
	BookingRef           string  `json:"booking_ref,omitempty"`
	FailureReason        string  `json:"failure_reason,omitempty"`
}

func (r *StatusResponse) FromModel(txn model.Transaction) {
	r.TransactionID = txn.TransactionID
	r.Status = txn.Status
	r.Amount = txn.Amount
	r.PhonePeTransactionID = txn.PhonePeTransactionID
	r.PhonePeCode = txn.PhonePeCode
	r.BookingID = txn.BookingID
	r.BookingRef = txn.BookingRef
	r.FailureReason = txn.FailureReason
}

// RedirectStatus folds the ledger status into what the payment-callback page understands.
func (r StatusResponse) RedirectStatus() string {
	switch r.Status {
	case model.StatusBooked, model.StatusPaid:
		return RedirectStatusSuccess
	case model.StatusFailed:
		return RedirectStatusFailed
	case model.StatusBookingFailed:
		return RedirectStatusError
	default:
		return RedirectStatusPending
	}
}

type TransactionResponse struct {
	TransactionID        string  `json:"transaction_id"`
	UserID               string  `json:"user_id"`
	Amount               float64 `json:"amount"`
	AmountPaise          int64   `json:"amount_paise"`
	Status               string  `json:"status"`
	PhonePeTransactionID string  `json:"phonepe_transaction_id"`
	PhonePeCode          string  `json:"phonepe_code"`
	PaymentInstrument    string  `json:"payment_instrument"`
	BookingID            string  `json:"booking_id"`
	BookingRef           string  `json:"booking_ref"`
	FailureReason        string  `json:"failure_reason"`
	ReconcileAttempts    int     `json:"reconcile_attempts"`
	gDto.Metadata
}

func (r *TransactionResponse) FromModel(txn model.Transaction) {
	r.TransactionID = txn.TransactionID
	r.UserID = txn.UserID
	r.Amount = txn.Amount
	r.AmountPaise = txn.AmountPaise
	r.Status = txn.Status
	r.PhonePeTransactionID = txn.PhonePeTransactionID
	r.PhonePeCode = txn.PhonePeCode
	r.PaymentInstrument = txn.PaymentInstrument
	r.BookingID = txn.BookingID
	r.BookingRef = txn.BookingRef
	r.FailureReason = txn.FailureReason
	r.ReconcileAttempts = txn.ReconcileAttempts
	r.Metadata.FromModel(txn.Metadata)
}

type GetTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	TotalPage    int                   `json:"total_page"`
	TotalData    int                   `json:"total_data"`
}

func (r *GetTransactionsResponse) FromModels(models []model.Transaction, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Transactions = make([]TransactionResponse, len(models))
	for i, mod := range models {
		r.Transactions[i].FromModel(mod)
	}
}
