package s3_test

import (
	"context"
	"nibog/config"
	"nibog/infras/otel/mocks"
	"nibog/infras/s3"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublicURL(t *testing.T) {
	tests := []struct {
		domain string
		key    string
		want   string
	}{
		{domain: "https://cdn.nibog.in", key: "tickets/PPT261018123456.html", want: "https://cdn.nibog.in/tickets/PPT261018123456.html"},
		{domain: "https://cdn.nibog.in/", key: "/tickets/a.html", want: "https://cdn.nibog.in/tickets/a.html"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, s3.PublicURL(tt.domain, tt.key))
		})
	}
}

func TestS3_UploadWithoutConfig(t *testing.T) {
	storage := s3.New(&config.Config{}, mocks.NewOtel())

	assert.False(t, storage.Enabled())

	_, err := storage.UploadBytes(context.Background(), "tickets", "a.html", "text/html", []byte("<p>ticket</p>"))
	assert.ErrorIs(t, err, s3.ErrNotConfigured)
}
