package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"

	"trailer-booking/config"
	"trailer-booking/internal/domain"
)

// sendFunc matches smtp.SendMail
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailService handles sending booking requests via SMTP
type EmailService struct {
	host      string
	port      string
	username  string
	password  string
	fromEmail string
	toEmail   string
	send      sendFunc
}

// BookingRow is one answered question in the booking email
type BookingRow struct {
	Label string
	Value string
}

// BookingEmailData holds the data for booking emails
type BookingEmailData struct {
	Name  string
	Email string
	Rows  []BookingRow
}

// NewEmailService creates a new email service with Brevo SMTP configuration
func NewEmailService(cfg *config.Config) *EmailService {
	from := cfg.SMTPFromEmail
	if from == "" {
		from = cfg.SMTPUsername // Brevo uses login email as from address
	}
	return &EmailService{
		host:      cfg.SMTPHost,
		port:      cfg.SMTPPort,
		username:  cfg.SMTPUsername,
		password:  cfg.SMTPPassword,
		fromEmail: from,
		toEmail:   cfg.BookingEmailTo,
		send:      smtp.SendMail,
	}
}

var bookingEmailTemplate = template.Must(template.New("booking").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>New Trailer Rental Request</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #1f3b57; color: white; padding: 20px; text-align: center; }
        table { width: 100%; border-collapse: collapse; background: #f9f9f9; }
        td { padding: 8px 12px; border-bottom: 1px solid #e2e2e2; vertical-align: top; }
        td.label { font-weight: bold; color: #555; width: 45%; }
        .footer { text-align: center; padding: 20px; color: #888; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>New Trailer Rental Request</h1>
        </div>
        <table>
            {{- range .Rows}}
            <tr><td class="label">{{.Label}}</td><td>{{.Value}}</td></tr>
            {{- end}}
        </table>
        <div class="footer">
            <p>This email was sent from the trailer booking form.</p>
            {{- if .Email}}
            <p>To reply, send an email to: {{.Email}}</p>
            {{- end}}
        </div>
    </div>
</body>
</html>`))

func (s *EmailService) Name() string {
	return "email"
}

// ProcessBooking emails the booking to the rental desk
func (s *EmailService) ProcessBooking(ctx context.Context, fields domain.BookingFields) (string, error) {
	if !s.IsConfigured() {
		return "", domain.ErrBackendUnavailable
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data := NewBookingEmailData(fields)
	body, err := RenderBookingEmail(data)
	if err != nil {
		return "", err
	}

	subject := "Trailer Rental Request"
	if data.Name != "" {
		subject = fmt.Sprintf("Trailer Rental Request: %s", data.Name)
	}

	headers := fmt.Sprintf("From: %s\r\nTo: %s\r\n", s.fromEmail, s.toEmail)
	if data.Email != "" {
		headers += fmt.Sprintf("Reply-To: %s\r\n", data.Email)
	}
	msg := []byte(headers +
		fmt.Sprintf("Subject: %s\r\n", subject) +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=UTF-8\r\n" +
		"\r\n" +
		body)

	auth := smtp.PlainAuth("", s.username, s.password, s.host)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	if err := s.send(addr, auth, s.fromEmail, []string{s.toEmail}, msg); err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}

	return domain.MsgBookingReceived, nil
}

// NewBookingEmailData lays the answers out in form order. Header values drop
// line breaks.
func NewBookingEmailData(fields domain.BookingFields) BookingEmailData {
	data := BookingEmailData{
		Name:  headerSafe(fields[domain.LabelName]),
		Email: headerSafe(fields[domain.LabelEmail]),
	}
	for _, label := range domain.QuestionOrder() {
		if value, ok := fields[label]; ok {
			data.Rows = append(data.Rows, BookingRow{Label: label, Value: value})
		}
	}
	return data
}

// RenderBookingEmail executes the HTML body template
func RenderBookingEmail(data BookingEmailData) (string, error) {
	var body bytes.Buffer
	if err := bookingEmailTemplate.Execute(&body, data); err != nil {
		return "", fmt.Errorf("failed to execute email template: %w", err)
	}
	return body.String(), nil
}

// IsConfigured checks if the email service has valid SMTP configuration
func (s *EmailService) IsConfigured() bool {
	return s.host != "" && s.username != "" && s.password != "" && s.toEmail != ""
}

func headerSafe(v string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(strings.TrimSpace(v))
}
