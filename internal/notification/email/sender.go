package email

import (
	"context"
	"fmt"
	"net/smtp"
	"os"

	"github.com/dabd2323/music-store/pkg/mylogger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Sender interface {
	SendWelcomeEmail(ctx context.Context, to string, name string) error
	SendReceiptEmail(ctx context.Context, to string, orderID int64, amount int64) error
	SendNewsletter(ctx context.Context, to []string, subject, body string) error
}

type smtpSender struct {
	from     string
	password string
	host     string
	port     string
	logger   *zap.Logger
	tracer   trace.Tracer
}

func NewSMTPSender(logger *zap.Logger) Sender {
	return &smtpSender{
		from:     os.Getenv("SMTP_USER"),
		password: os.Getenv("SMTP_PASSWORD"),
		host:     os.Getenv("SMTP_HOST"),
		port:     os.Getenv("SMTP_PORT"),
		logger:   logger,
		tracer:   otel.Tracer("notification/email"),
	}
}

func (s *smtpSender) send(ctx context.Context, to []string, subject, body string) error {
	mime := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"
	msg := []byte("Subject: " + subject + "\n" + mime + body)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	auth := smtp.PlainAuth("", s.from, s.password, s.host)

	if err := smtp.SendMail(addr, auth, s.from, to, msg); err != nil {
		mylogger.Error(
			ctx,
			s.logger,
			"Error sending email",
			zap.String("subject", subject),
			zap.Error(err),
		)

		return fmt.Errorf("failed to send mail: %v", err)
	}

	return nil
}

func (s *smtpSender) SendWelcomeEmail(ctx context.Context, to string, name string) error {
	ctx, span := s.tracer.Start(ctx, "smtp.SendWelcomeEmail")
	defer span.End()

	span.SetAttributes(
		attribute.String("to.email", to),
	)

	body := fmt.Sprintf(`
		<h1>Welcome to the store, %s! 🎵</h1>
		<p>Your account is ready. Browse the catalog and start building your collection.</p>
	`, name)

	mylogger.Info(
		ctx,
		s.logger,
		"Sending welcome email",
		zap.String("to", to),
	)

	return s.send(ctx, []string{to}, "Welcome to the Music Store!", body)
}

func (s *smtpSender) SendReceiptEmail(ctx context.Context, to string, orderID int64, amount int64) error {
	ctx, span := s.tracer.Start(ctx, "smtp.SendReceiptEmail")
	defer span.End()

	span.SetAttributes(
		attribute.String("to.email", to),
		attribute.Int64("order_id", orderID),
	)

	body := fmt.Sprintf(`
		<h1>Thanks for your purchase! 🎧</h1>
		<p>Order #%d is paid (%.2f). Your downloads are waiting in your account.</p>
	`, orderID, float64(amount)/100)

	mylogger.Info(
		ctx,
		s.logger,
		"Sending receipt email",
		zap.String("to", to),
		zap.Int64("order_id", orderID),
	)

	return s.send(ctx, []string{to}, fmt.Sprintf("Receipt for order #%d", orderID), body)
}

func (s *smtpSender) SendNewsletter(ctx context.Context, to []string, subject, body string) error {
	ctx, span := s.tracer.Start(ctx, "smtp.SendNewsletter")
	defer span.End()

	span.SetAttributes(
		attribute.Int("recipients", len(to)),
	)

	mylogger.Info(
		ctx,
		s.logger,
		"Sending newsletter",
		zap.String("subject", subject),
		zap.Int("recipients", len(to)),
	)

	return s.send(ctx, to, subject, body)
}
