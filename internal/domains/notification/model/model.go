package model

import "nibog/shared/model"

const (
	TableName  = "notification_logs"
	EntityName = "notification_log"

	FieldID                = "id"
	FieldTransactionID     = "transaction_id"
	FieldBookingRef        = "booking_ref"
	FieldChannel           = "channel"
	FieldRecipient         = "recipient"
	FieldTemplate          = "template"
	FieldStatus            = "status"
	FieldProviderMessageID = "provider_message_id"
	FieldError             = "error"
	FieldDocumentURL       = "document_url"
)

const (
	ChannelWhatsApp = "whatsapp"
	ChannelEmail    = "email"
	ChannelArchive  = "archive"
)

const (
	StatusSent    = "sent"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

type NotificationLog struct {
	ID                string `db:"id"`
	TransactionID     string `db:"transaction_id"`
	BookingRef        string `db:"booking_ref"`
	Channel           string `db:"channel"`
	Recipient         string `db:"recipient"`
	Template          string `db:"template"`
	Status            string `db:"status"`
	ProviderMessageID string `db:"provider_message_id"`
	Error             string `db:"error"`
	DocumentURL       string `db:"document_url"`
	model.Metadata
}
