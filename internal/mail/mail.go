// Package mail sends the OTP emails.
//
// The service layer depends on the Mailer interface, not the SMTP
// implementation — tests substitute an in-memory fake, and the registration
// flow's rollback-on-delivery-failure behaviour can be exercised without a
// mail server.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"

	gomail "github.com/wneessen/go-mail"
)

// Mailer is the outbound mail contract the auth flows need. Either call
// returns nil once the message has been accepted for delivery; any failure
// is reported uniformly — the caller doesn't care whether it was a dial
// error, an auth rejection, or a bounced recipient.
type Mailer interface {
	SendRegistrationOTP(ctx context.Context, email, name, code string) error
	SendPasswordResetOTP(ctx context.Context, email, name, code string) error
}

// SMTPConfig holds the mail transport credentials.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string // e.g. "Media Gallery <no-reply@example.com>"
}

// SMTPMailer sends OTP mails over SMTP using wneessen/go-mail.
type SMTPMailer struct {
	cfg    SMTPConfig
	logger *slog.Logger
}

// NewSMTPMailer creates an SMTPMailer. It doesn't dial — connections are
// made per send, so a mail outage at startup doesn't stop the server.
func NewSMTPMailer(cfg SMTPConfig, logger *slog.Logger) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, logger: logger}
}

// SendRegistrationOTP mails the email-verification code issued during
// registration.
func (m *SMTPMailer) SendRegistrationOTP(ctx context.Context, email, name, code string) error {
	return m.send(ctx, email, "Email Verification - Media Gallery", registrationBody, name, code)
}

// SendPasswordResetOTP mails the code issued by the forgot-password flow.
func (m *SMTPMailer) SendPasswordResetOTP(ctx context.Context, email, name, code string) error {
	return m.send(ctx, email, "Password Reset - Media Gallery", resetBody, name, code)
}

func (m *SMTPMailer) send(ctx context.Context, to, subject string, tmpl *template.Template, name, code string) error {
	var body bytes.Buffer
	if err := tmpl.Execute(&body, otpMailData{Name: name, Code: code}); err != nil {
		return fmt.Errorf("mail: rendering %q: %w", subject, err)
	}

	msg := gomail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("mail: setting sender: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("mail: setting recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, body.String())

	client, err := gomail.NewClient(m.cfg.Host,
		gomail.WithPort(m.cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(m.cfg.Username),
		gomail.WithPassword(m.cfg.Password),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	)
	if err != nil {
		return fmt.Errorf("mail: creating SMTP client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("mail: sending %q to %s: %w", subject, to, err)
	}

	m.logger.Info("otp mail sent",
		slog.String("to", to),
		slog.String("subject", subject),
	)
	return nil
}

type otpMailData struct {
	Name string
	Code string
}

// The mail bodies are simple inline-styled HTML — most mail clients strip
// everything fancier.
var registrationBody = template.Must(template.New("registration").Parse(`
<div style="max-width:600px;margin:0 auto;padding:20px;font-family:Arial,sans-serif;">
  <h1 style="text-align:center;">Media Gallery</h1>
  <h2>Hello {{.Name}}!</h2>
  <p>Welcome to Media Gallery! To complete your registration, please verify
  your email address using the OTP code below:</p>
  <div style="text-align:center;padding:20px;border:2px dashed #667eea;border-radius:8px;">
    <h1 style="letter-spacing:8px;margin:0;">{{.Code}}</h1>
  </div>
  <p><strong>Important:</strong> This OTP will expire in 10 minutes. If you
  didn't request this verification, please ignore this email.</p>
</div>`))

var resetBody = template.Must(template.New("reset").Parse(`
<div style="max-width:600px;margin:0 auto;padding:20px;font-family:Arial,sans-serif;">
  <h1 style="text-align:center;">Media Gallery</h1>
  <h2>Hello {{.Name}}!</h2>
  <p>We received a request to reset your password. Use the OTP code below to
  reset your password:</p>
  <div style="text-align:center;padding:20px;border:2px dashed #f5576c;border-radius:8px;">
    <h1 style="letter-spacing:8px;margin:0;">{{.Code}}</h1>
  </div>
  <p><strong>Important:</strong> This OTP will expire in 10 minutes. If you
  didn't request this password reset, please ignore this email and your
  password will remain unchanged.</p>
</div>`))
