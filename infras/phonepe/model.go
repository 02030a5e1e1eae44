package phonepe

import "nibog/shared/constant"

const (
	CodePaymentInitiated = "PAYMENT_INITIATED"
	CodePaymentSuccess   = "PAYMENT_SUCCESS"
	CodePaymentError     = "PAYMENT_ERROR"
	CodePaymentPending   = "PAYMENT_PENDING"
	CodePaymentDeclined  = "PAYMENT_DECLINED"
	CodeTimedOut         = "TIMED_OUT"
	CodeInternalError    = "INTERNAL_SERVER_ERROR"

	StateCompleted = "COMPLETED"
	StateFailed    = "FAILED"
	StatePending   = "PENDING"

	instrumentPayPage = "PAY_PAGE"
	redirectModePost  = "POST"
)

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
	OutcomePending Outcome = "pending"
)

type paymentInstrument struct {
	Type string `json:"type"`
}

type payPayload struct {
	MerchantID            string            `json:"merchantId"`
	MerchantTransactionID string            `json:"merchantTransactionId"`
	MerchantUserID        string            `json:"merchantUserId"`
	Amount                int64             `json:"amount"`
	RedirectURL           string            `json:"redirectUrl"`
	RedirectMode          string            `json:"redirectMode"`
	CallbackURL           string            `json:"callbackUrl"`
	MobileNumber          string            `json:"mobileNumber,omitempty"`
	PaymentInstrument     paymentInstrument `json:"paymentInstrument"`
}

type payRequest struct {
	Request string `json:"request"`
}

// InitiateInput describes a pay page request. Amount is in paise.
type InitiateInput struct {
	TransactionID string
	UserID        string
	AmountPaise   int64
	Mobile        string
}

type InitiateResult struct {
	TransactionID string
	RedirectURL   string
	Code          string
	Message       string
}

type redirectInfo struct {
	URL    string `json:"url"`
	Method string `json:"method"`
}

type instrumentResponse struct {
	Type         string       `json:"type"`
	RedirectInfo redirectInfo `json:"redirectInfo"`
}

type initiateResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		MerchantID            string             `json:"merchantId"`
		MerchantTransactionID string             `json:"merchantTransactionId"`
		InstrumentResponse    instrumentResponse `json:"instrumentResponse"`
	} `json:"data"`
}

type PaymentInstrumentDetail struct {
	Type                   string `json:"type"`
	UTR                    string `json:"utr,omitempty"`
	CardType               string `json:"cardType,omitempty"`
	PgTransactionID        string `json:"pgTransactionId,omitempty"`
	BankTransactionID      string `json:"bankTransactionId,omitempty"`
	BankID                 string `json:"bankId,omitempty"`
	PgServiceTransactionID string `json:"pgServiceTransactionId,omitempty"`
}

type StatusData struct {
	MerchantID            string                  `json:"merchantId"`
	MerchantTransactionID string                  `json:"merchantTransactionId"`
	TransactionID         string                  `json:"transactionId"`
	Amount                int64                   `json:"amount"`
	State                 string                  `json:"state"`
	ResponseCode          string                  `json:"responseCode"`
	PaymentInstrument     PaymentInstrumentDetail `json:"paymentInstrument"`
}

// StatusResult is the body shared by the status API and the server-to-server callback.
type StatusResult struct {
	Success bool       `json:"success"`
	Code    string     `json:"code"`
	Message string     `json:"message"`
	Data    StatusData `json:"data"`
}

type callbackRequest struct {
	Response string `json:"response"`
}

// Outcome folds code and state into a terminal or pending result.
func (r StatusResult) Outcome() Outcome {
	switch {
	case r.Code == CodePaymentSuccess && (r.Data.State == "" || r.Data.State == StateCompleted):
		return OutcomeSuccess
	case r.Code == CodePaymentPending, r.Data.State == StatePending,
		r.Code == CodeInternalError, r.Code == CodePaymentInitiated:
		return OutcomePending
	case r.Code == CodePaymentError, r.Code == CodePaymentDeclined, r.Code == CodeTimedOut,
		r.Data.State == StateFailed:
		return OutcomeFailed
	}

	return OutcomePending
}

// AmountRupees converts the paise amount reported by the gateway.
func (r StatusResult) AmountRupees() float64 {
	return float64(r.Data.Amount) / constant.PaiseInRupee
}
