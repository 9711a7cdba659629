package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/sirupsen/logrus"
	"github.com/wneessen/go-mail"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// otpMail is the data rendered into templates/otp.html.
type otpMail struct {
	Title    string
	Heading  string
	Intro    string
	Username string
	OTP      string
	ValidFor string
}

// SMTPMailer sends one-time codes over SMTP.
type SMTPMailer struct {
	cfg  Config
	log  logrus.FieldLogger
	send func(ctx context.Context, msg *mail.Msg) error
}

func New(cfg Config, log logrus.FieldLogger) *SMTPMailer {
	m := &SMTPMailer{cfg: cfg, log: log.WithField("component", "mailer")}
	m.send = m.dialAndSend
	return m
}

// SendVerification mails the account verification code.
func (m *SMTPMailer) SendVerification(ctx context.Context, to, username, otp string) error {
	return m.sendOTP(ctx, to, "OTP for email verification", otpMail{
		Title:    "Verify your email",
		Heading:  "Welcome to Pixora",
		Intro:    "Use the code below to verify your email address.",
		Username: username,
		OTP:      otp,
		ValidFor: "24 hours",
	})
}

// SendPasswordReset mails the password reset code.
func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to, username, otp string) error {
	return m.sendOTP(ctx, to, "Password Reset OTP (valid for 5 min)", otpMail{
		Title:    "Reset your password",
		Heading:  "Password reset",
		Intro:    "Use the code below to reset your password.",
		Username: username,
		OTP:      otp,
		ValidFor: "5 minutes",
	})
}

func (m *SMTPMailer) sendOTP(ctx context.Context, to, subject string, data otpMail) error {
	msg, err := m.compose(to, subject, data)
	if err != nil {
		return err
	}
	if err := m.send(ctx, msg); err != nil {
		m.log.WithError(err).WithField("subject", subject).Error("email delivery failed")
		return fmt.Errorf("send email: %w", err)
	}
	m.log.WithField("subject", subject).Info("email sent")
	return nil
}

func (m *SMTPMailer) compose(to, subject string, data otpMail) (*mail.Msg, error) {
	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, "otp.html", data); err != nil {
		return nil, fmt.Errorf("render email: %w", err)
	}

	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", m.cfg.From, err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", to, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, body.String())
	msg.AddAlternativeString(mail.TypeTextPlain, fmt.Sprintf("Your Pixora code is %s. It is valid for %s.", data.OTP, data.ValidFor))
	return msg, nil
}

func (m *SMTPMailer) dialAndSend(ctx context.Context, msg *mail.Msg) error {
	client, err := mail.NewClient(m.cfg.Host,
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return err
	}
	return client.DialAndSendWithContext(ctx, msg)
}
