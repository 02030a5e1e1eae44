package validator_test

import (
	"net/http"
	"nibog/shared/failure"
	"nibog/shared/validator"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type paymentRequest struct {
	TransactionID string  `json:"transaction_id" validate:"required,txnid"`
	Phone         string  `json:"phone"          validate:"required,indianphone"`
	Email         string  `json:"email"          validate:"omitempty,email"`
	Amount        float64 `json:"amount"         validate:"gt=0"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name        string
		data        paymentRequest
		expectError string
	}{
		{
			name: "valid struct",
			data: paymentRequest{TransactionID: "NIBOG_114_1754290800000", Phone: "+91 98765 43210", Amount: 1800},
		},
		{
			name:        "missing transaction id",
			data:        paymentRequest{Phone: "9876543210", Amount: 1800},
			expectError: "TransactionID is required",
		},
		{
			name:        "malformed transaction id",
			data:        paymentRequest{TransactionID: "TXN_114", Phone: "9876543210", Amount: 1800},
			expectError: "TransactionID must look like NIBOG_<userId>_<timestamp>",
		},
		{
			name:        "landline phone",
			data:        paymentRequest{TransactionID: "NIBOG_114_1754290800000", Phone: "0402345678", Amount: 1800},
			expectError: "Phone must be a valid Indian mobile number",
		},
		{
			name:        "invalid email",
			data:        paymentRequest{TransactionID: "NIBOG_114_1754290800000", Phone: "9876543210", Email: "parent", Amount: 1800},
			expectError: "Email must be a valid email address",
		},
		{
			name:        "zero amount",
			data:        paymentRequest{TransactionID: "NIBOG_114_1754290800000", Phone: "9876543210"},
			expectError: "Amount must be greater than 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateStruct(&tt.data)

			if tt.expectError == "" {
				assert.NoError(t, err)

				return
			}

			assert.EqualError(t, err, tt.expectError)
			assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
		})
	}
}

func TestValidateVar(t *testing.T) {
	tests := []struct {
		name        string
		field       any
		tag         string
		expectError bool
	}{
		{name: "phone with country code", field: "919876543210", tag: "indianphone"},
		{name: "phone with leading zero", field: "09876543210", tag: "indianphone"},
		{name: "short phone", field: "98765", tag: "indianphone", expectError: true},
		{name: "transaction id", field: "NIBOG_guest-7_1754290800000", tag: "txnid"},
		{name: "transaction id with short timestamp", field: "NIBOG_7_123", tag: "txnid", expectError: true},
		{name: "valid oneof", field: "whatsapp", tag: "oneof=whatsapp email", expectError: false},
		{name: "invalid oneof", field: "sms", tag: "oneof=whatsapp email", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateVar(tt.field, tt.tag)

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		jsonBody    string
		expectError bool
	}{
		{
			name:     "valid JSON",
			jsonBody: `{"transaction_id":"NIBOG_114_1754290800000","phone":"9876543210","amount":1800}`,
		},
		{
			name:        "invalid field",
			jsonBody:    `{"transaction_id":"NIBOG_114_1754290800000","phone":"12345","amount":1800}`,
			expectError: true,
		},
		{
			name:        "malformed JSON",
			jsonBody:    `{"transaction_id":}`,
			expectError: true,
		},
		{
			name:        "empty JSON",
			jsonBody:    `{}`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req paymentRequest

			err := validator.Validate(strings.NewReader(tt.jsonBody), &req)
			if tt.expectError {
				assert.Error(t, err)
				assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
