package notify

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

// Template names, one per file under templates/.
const (
	TemplateBookingRequest      = "booking-request"
	TemplateBookingApproved     = "booking-approved"
	TemplateBookingRejected     = "booking-rejected"
	TemplateBookingCancelled    = "booking-cancelled"
	TemplateBookingReminder     = "booking-reminder"
	TemplateChangeRequestStatus = "change-request-status"
)

type Renderer struct {
	templates *template.Template
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("email").Option("missingkey=zero").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}
	return &Renderer{templates: tmpl}, nil
}

func (r *Renderer) Render(name string, data map[string]string) (string, error) {
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, name+".html", data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
