package base64_test

import (
	stdBase64 "encoding/base64"
	"nibog/shared/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

type payload struct {
	MerchantID string `json:"merchantId"`
	Amount     int64  `json:"amount"`
}

func TestEncodeDecodeJSON(t *testing.T) {
	encoded, err := base64.EncodeJSON(payload{MerchantID: "NIBOGONLINE", Amount: 180000})
	assert.NoError(t, err)
	assert.Equal(t, stdBase64.StdEncoding.EncodeToString([]byte(`{"merchantId":"NIBOGONLINE","amount":180000}`)), encoded)

	var decoded payload
	assert.NoError(t, base64.DecodeJSON(encoded, &decoded))
	assert.Equal(t, "NIBOGONLINE", decoded.MerchantID)
	assert.Equal(t, int64(180000), decoded.Amount)
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{
			name:  "padded",
			input: stdBase64.StdEncoding.EncodeToString([]byte(`{"amount":1}`)),
		},
		{
			name:  "unpadded with whitespace",
			input: " " + stdBase64.RawStdEncoding.EncodeToString([]byte(`{"amount":1}`)) + "\n",
		},
		{
			name:    "not base64",
			input:   "%%%",
			wantErr: true,
		},
		{
			name:    "not json",
			input:   stdBase64.StdEncoding.EncodeToString([]byte(`amount=1`)),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var decoded payload

			err := base64.DecodeJSON(tt.input, &decoded)
			if tt.wantErr {
				assert.Error(t, err)

				return
			}

			assert.NoError(t, err)
			assert.Equal(t, int64(1), decoded.Amount)
		})
	}
}
