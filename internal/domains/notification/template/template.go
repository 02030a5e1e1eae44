package template

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	htmlTemplate "html/template"
	"nibog/internal/domains/notification/model"
	"strconv"
	"strings"
	textTemplate "text/template"

	"gopkg.in/yaml.v3"
)

const (
	catalogFile = "catalog.yaml"
	emailFile   = "booking_confirmation.html"
)

//go:embed catalog.yaml booking_confirmation.html
var files embed.FS

var (
	ErrUnknownTemplate  = errors.New("unknown whatsapp template")
	ErrMissingParameter = errors.New("missing template parameter")
	ErrUnknownField     = errors.New("unknown template field")
)

type Parameter struct {
	Field    string `yaml:"field"`
	Required bool   `yaml:"required"`
	Default  string `yaml:"default"`
}

type WhatsAppTemplate struct {
	Name       string      `yaml:"name"`
	Language   string      `yaml:"language"`
	Parameters []Parameter `yaml:"parameters"`
}

type catalogFileSchema struct {
	WhatsApp     []WhatsAppTemplate `yaml:"whatsapp"`
	TextFallback string             `yaml:"text_fallback"`
	EmailSubject string             `yaml:"email_subject"`
}

// Catalog holds the parsed message templates. It is safe for concurrent use.
type Catalog struct {
	whatsapp map[string]WhatsAppTemplate
	text     *textTemplate.Template
	subject  *textTemplate.Template
	email    *htmlTemplate.Template
}

// Load parses the embedded catalog.
func Load() (*Catalog, error) {
	raw, err := files.ReadFile(catalogFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read template catalog: %w", err)
	}

	var schema catalogFileSchema
	if err = yaml.Unmarshal(raw, &schema); err != nil {
		return nil, fmt.Errorf("failed to parse template catalog: %w", err)
	}

	catalog := &Catalog{whatsapp: make(map[string]WhatsAppTemplate, len(schema.WhatsApp))}

	for _, tmpl := range schema.WhatsApp {
		for _, param := range tmpl.Parameters {
			if _, err := fieldValue(model.BookingConfirmedEvent{}, param.Field); err != nil {
				return nil, fmt.Errorf("template %s: %w", tmpl.Name, err)
			}
		}

		catalog.whatsapp[tmpl.Name] = tmpl
	}

	if catalog.text, err = textTemplate.New("text").Parse(schema.TextFallback); err != nil {
		return nil, fmt.Errorf("failed to parse text fallback: %w", err)
	}

	if catalog.subject, err = textTemplate.New("subject").Parse(schema.EmailSubject); err != nil {
		return nil, fmt.Errorf("failed to parse email subject: %w", err)
	}

	if catalog.email, err = htmlTemplate.ParseFS(files, emailFile); err != nil {
		return nil, fmt.Errorf("failed to parse email template: %w", err)
	}

	return catalog, nil
}

// MustLoad is Load for wiring code; the catalog is embedded so a failure is a build defect.
func MustLoad() *Catalog {
	catalog, err := Load()
	if err != nil {
		panic(err)
	}

	return catalog
}

func (c *Catalog) WhatsApp(name string) (WhatsAppTemplate, error) {
	tmpl, ok := c.whatsapp[name]
	if !ok {
		return WhatsAppTemplate{}, fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
	}

	return tmpl, nil
}

// BodyParams fills the template parameters in order. Required values must be present in the event.
func (t WhatsAppTemplate) BodyParams(event model.BookingConfirmedEvent) ([]string, error) {
	params := make([]string, 0, len(t.Parameters))

	for _, param := range t.Parameters {
		value, err := fieldValue(event, param.Field)
		if err != nil {
			return nil, err
		}

		value = strings.TrimSpace(value)
		if value == "" {
			if param.Required {
				return nil, fmt.Errorf("%w: %s", ErrMissingParameter, param.Field)
			}

			value = param.Default
		}

		params = append(params, value)
	}

	return params, nil
}

func (c *Catalog) Text(event model.BookingConfirmedEvent) (string, error) {
	return execute(c.text, event)
}

func (c *Catalog) EmailSubject(event model.BookingConfirmedEvent) (string, error) {
	return execute(c.subject, event)
}

func (c *Catalog) EmailHTML(event model.BookingConfirmedEvent) (string, error) {
	var buf bytes.Buffer
	if err := c.email.Execute(&buf, event); err != nil {
		return "", fmt.Errorf("failed to render email: %w", err)
	}

	return buf.String(), nil
}

func execute(tmpl *textTemplate.Template, event model.BookingConfirmedEvent) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, event); err != nil {
		return "", fmt.Errorf("failed to render %s template: %w", tmpl.Name(), err)
	}

	return buf.String(), nil
}

func fieldValue(event model.BookingConfirmedEvent, field string) (string, error) {
	switch field {
	case "parent_name":
		return event.ParentName, nil
	case "child_name":
		return event.ChildName, nil
	case "event_title":
		return event.EventTitle, nil
	case "event_date":
		return event.EventDate, nil
	case "venue_name":
		return event.VenueName, nil
	case "city_name":
		return event.CityName, nil
	case "games":
		return event.GameNames(), nil
	case "booking_ref":
		return event.BookingRef, nil
	case "booking_id":
		return event.BookingID, nil
	case "transaction_id":
		return event.TransactionID, nil
	case "total_amount":
		if event.TotalAmount <= 0 {
			return "", nil
		}

		return strconv.FormatFloat(event.TotalAmount, 'f', 2, 64), nil
	case "payment_method":
		return event.PaymentMethod, nil
	}

	return "", fmt.Errorf("%w: %s", ErrUnknownField, field)
}
