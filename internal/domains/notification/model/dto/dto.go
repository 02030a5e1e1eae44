package dto

import (
	"nibog/internal/domains/notification/model"
	"nibog/shared"
	"nibog/shared/constant"
	gDto "nibog/shared/dto"
	"nibog/shared/timezone"
)

type GameLineRequest struct {
	Name  string  `json:"name"  validate:"required,max=255"`
	Slot  string  `json:"slot"  validate:"omitempty,max=64"`
	Price float64 `json:"price" validate:"gte=0"`
}

// DispatchRequest lets an admin resend a booking confirmation.
type DispatchRequest struct {
	TransactionID string            `json:"transaction_id" validate:"required,txnid"`
	BookingID     string            `json:"booking_id"     validate:"omitempty,max=64"`
	BookingRef    string            `json:"booking_ref"    validate:"required,max=32"`
	ParentName    string            `json:"parent_name"    validate:"required,max=255"`
	ParentEmail   string            `json:"parent_email"   validate:"omitempty,email"`
	ParentPhone   string            `json:"parent_phone"   validate:"omitempty,indianphone"`
	ChildName     string            `json:"child_name"     validate:"required,max=255"`
	EventTitle    string            `json:"event_title"    validate:"omitempty,max=255"`
	EventDate     string            `json:"event_date"     validate:"omitempty,max=64"`
	VenueName     string            `json:"venue_name"     validate:"omitempty,max=255"`
	CityName      string            `json:"city_name"      validate:"omitempty,max=255"`
	Games         []GameLineRequest `json:"games"          validate:"omitempty,dive"`
	TotalAmount   float64           `json:"total_amount"   validate:"required,gt=0"`
}

func (r *DispatchRequest) ToEvent() model.BookingConfirmedEvent {
	games := make([]model.GameLine, len(r.Games))
	for i, game := range r.Games {
		games[i] = model.GameLine{Name: game.Name, Slot: game.Slot, Price: game.Price}
	}

	return model.BookingConfirmedEvent{
		TransactionID: r.TransactionID,
		BookingID:     r.BookingID,
		BookingRef:    r.BookingRef,
		ParentName:    r.ParentName,
		ParentEmail:   r.ParentEmail,
		ParentPhone:   r.ParentPhone,
		ChildName:     r.ChildName,
		EventTitle:    r.EventTitle,
		EventDate:     r.EventDate,
		VenueName:     r.VenueName,
		CityName:      r.CityName,
		Games:         games,
		TotalAmount:   r.TotalAmount,
		PaymentMethod: "PhonePe",
		ConfirmedAt:   timezone.Format(timezone.Now(), constant.DateFormat),
	}
}

type ChannelResult struct {
	Channel     string `json:"channel"`
	Status      string `json:"status"`
	Recipient   string `json:"recipient,omitempty"`
	Template    string `json:"template,omitempty"`
	MessageID   string `json:"message_id,omitempty"`
	DocumentURL string `json:"document_url,omitempty"`
	Error       string `json:"error,omitempty"`
}

type DispatchResponse struct {
	TransactionID string          `json:"transaction_id"`
	BookingRef    string          `json:"booking_ref"`
	Channels      []ChannelResult `json:"channels"`
}

type NotificationLogResponse struct {
	ID                string `json:"id"`
	TransactionID     string `json:"transaction_id"`
	BookingRef        string `json:"booking_ref"`
	Channel           string `json:"channel"`
	Recipient         string `json:"recipient"`
	Template          string `json:"template"`
	Status            string `json:"status"`
	ProviderMessageID string `json:"provider_message_id"`
	Error             string `json:"error"`
	DocumentURL       string `json:"document_url"`
	gDto.Metadata
}

func (r *NotificationLogResponse) FromModel(log model.NotificationLog) {
	r.ID = log.ID
	r.TransactionID = log.TransactionID
	r.BookingRef = log.BookingRef
	r.Channel = log.Channel
	r.Recipient = log.Recipient
	r.Template = log.Template
	r.Status = log.Status
	r.ProviderMessageID = log.ProviderMessageID
	r.Error = log.Error
	r.DocumentURL = log.DocumentURL
	r.Metadata.FromModel(log.Metadata)
}

type GetNotificationLogsResponse struct {
	Logs      []NotificationLogResponse `json:"logs"`
	TotalPage int                       `json:"total_page"`
	TotalData int                       `json:"total_data"`
}

func (r *GetNotificationLogsResponse) FromModels(models []model.NotificationLog, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Logs = make([]NotificationLogResponse, len(models))
	for i, mod := range models {
		r.Logs[i].FromModel(mod)
	}
}
