package dto

import (
	"nibog/infras/backend"
	"nibog/internal/domains/pendingbooking/model"
	"nibog/shared/constant"
	"nibog/shared/timezone"
	"time"
)

type ParentRequest struct {
	Name  string `json:"parent_name" validate:"required,max=255"`
	Email string `json:"email"       validate:"required,email"`
	Phone string `json:"phone"       validate:"required,indianphone"`
}

type ChildRequest struct {
	FullName    string `json:"full_name"     validate:"required,max=255"`
	DateOfBirth string `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
	SchoolName  string `json:"school_name"   validate:"omitempty,max=255"`
	Gender      string `json:"gender"        validate:"required,oneof=male female other Male Female Other"`
}

type GameRequest struct {
	GameID string  `json:"game_id"   validate:"required"`
	SlotID string  `json:"slot_id"   validate:"omitempty"`
	Name   string  `json:"game_name" validate:"omitempty,max=255"`
	Price  float64 `json:"game_price" validate:"gte=0"`
}

type AddonRequest struct {
	AddonID   string  `json:"addon_id"   validate:"required"`
	VariantID string  `json:"variant_id" validate:"omitempty"`
	Name      string  `json:"name"       validate:"omitempty,max=255"`
	Quantity  int     `json:"quantity"   validate:"required,gte=1"`
	Price     float64 `json:"price"      validate:"gte=0"`
}

type CreatePendingBookingRequest struct {
	UserID         string         `json:"user_id"         validate:"required,alphanum,max=64"`
	Parent         ParentRequest  `json:"parent"          validate:"required"`
	Child          ChildRequest   `json:"child"           validate:"required"`
	EventID        string         `json:"event_id"        validate:"required"`
	EventTitle     string         `json:"event_title"     validate:"omitempty,max=255"`
	EventDate      string         `json:"event_date"      validate:"omitempty"`
	VenueName      string         `json:"venue_name"      validate:"omitempty,max=255"`
	CityName       string         `json:"city_name"       validate:"omitempty,max=255"`
	Games          []GameRequest  `json:"games"           validate:"required,min=1,dive"`
	Addons         []AddonRequest `json:"addons"          validate:"omitempty,dive"`
	PromoCode      string         `json:"promo_code"      validate:"omitempty,max=64"`
	DiscountAmount float64        `json:"discount_amount" validate:"gte=0"`
	TotalAmount    float64        `json:"total_amount"    validate:"required,gt=0"`
	PaymentMethod  string         `json:"payment_method"  validate:"omitempty,max=64"`
	TermsAccepted  bool           `json:"terms_accepted"  validate:"required"`
}

func (c *CreatePendingBookingRequest) ToModel(now time.Time, ttl time.Duration) model.PendingBooking {
	if ttl <= 0 {
		ttl = model.DefaultTTL
	}

	games := make([]model.Game, len(c.Games))
	for i, game := range c.Games {
		games[i] = model.Game{
			GameID: backend.FlexString(game.GameID),
			SlotID: backend.FlexString(game.SlotID),
			Name:   game.Name,
			Price:  game.Price,
		}
	}

	var addons []model.Addon
	for _, addon := range c.Addons {
		addons = append(addons, model.Addon{
			AddonID:   backend.FlexString(addon.AddonID),
			VariantID: backend.FlexString(addon.VariantID),
			Name:      addon.Name,
			Quantity:  addon.Quantity,
			Price:     addon.Price,
		})
	}

	return model.PendingBooking{
		TransactionID: model.GenerateTransactionID(c.UserID, now),
		UserID:        c.UserID,
		BookingData: model.BookingData{
			UserID: backend.FlexString(c.UserID),
			Parent: model.Parent{
				Name:  c.Parent.Name,
				Email: c.Parent.Email,
				Phone: c.Parent.Phone,
			},
			Child: model.Child{
				FullName:    c.Child.FullName,
				DateOfBirth: c.Child.DateOfBirth,
				SchoolName:  c.Child.SchoolName,
				Gender:      c.Child.Gender,
			},
			EventID:        backend.FlexString(c.EventID),
			EventTitle:     c.EventTitle,
			EventDate:      c.EventDate,
			VenueName:      c.VenueName,
			CityName:       c.CityName,
			Games:          games,
			Addons:         addons,
			PromoCode:      c.PromoCode,
			DiscountAmount: c.DiscountAmount,
			TotalAmount:    c.TotalAmount,
			PaymentMethod:  c.PaymentMethod,
			TermsAccepted:  c.TermsAccepted,
		},
		ExpiresAt: now.Add(ttl),
		Status:    model.StatusPending,
		CreatedAt: now,
	}
}

type CreatePendingBookingResponse struct {
	TransactionID string `json:"transaction_id"`
	ExpiresAt     string `json:"expires_at"`
}

type PendingBookingResponse struct {
	TransactionID  string            `json:"transaction_id"`
	UserID         string            `json:"user_id"`
	BookingData    model.BookingData `json:"booking_data"`
	BookingDataRaw string            `json:"booking_data_raw,omitempty"`
	ExpiresAt      string            `json:"expires_at"`
	Status         string            `json:"status"`
	CreatedAt      string            `json:"created_at,omitempty"`
	Partial        bool              `json:"partial"`
	Warning        string            `json:"warning,omitempty"`
}

const partialWarning = "booking data was only partially readable"

func (r *PendingBookingResponse) FromModel(booking model.PendingBooking) {
	r.TransactionID = booking.TransactionID
	r.UserID = booking.UserID
	r.BookingData = booking.BookingData
	r.BookingDataRaw = booking.BookingDataRaw
	r.ExpiresAt = timezone.Format(booking.ExpiresAt, constant.DateFormat)
	r.Status = booking.Status
	r.Partial = booking.Partial

	if !booking.CreatedAt.IsZero() {
		r.CreatedAt = timezone.Format(booking.CreatedAt, constant.DateFormat)
	}

	if booking.Partial {
		r.Warning = partialWarning
	}
}
