// Package mail sends account and order emails.
package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"eshop/config"
	"eshop/logging"
	"eshop/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Sender interface {
	SendPasswordResetCode(ctx context.Context, user *models.User, code string) error
	SendOrderConfirmation(ctx context.Context, user *models.User, order *models.Order) error
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type smtpSender struct {
	cfg    config.SMTP
	logger *zap.Logger
	tracer trace.Tracer
	send   sendFunc
}

// New returns an SMTP sender, or a sender that only logs when no SMTP host
// is configured.
func New(cfg config.SMTP, logger *zap.Logger) Sender {
	if cfg.Host == "" {
		return &logSender{logger: logger}
	}
	return &smtpSender{
		cfg:    cfg,
		logger: logger,
		tracer: otel.Tracer("eshop/mail"),
		send:   smtp.SendMail,
	}
}

func (s *smtpSender) SendPasswordResetCode(ctx context.Context, user *models.User, code string) error {
	return s.deliver(ctx, "smtp.SendPasswordResetCode", resetCodeMessage(user, code))
}

func (s *smtpSender) SendOrderConfirmation(ctx context.Context, user *models.User, order *models.Order) error {
	return s.deliver(ctx, "smtp.SendOrderConfirmation", orderMessage(user, order))
}

func (s *smtpSender) deliver(ctx context.Context, op string, msg message) error {
	ctx, span := s.tracer.Start(ctx, op)
	defer span.End()
	span.SetAttributes(attribute.String("to.email", msg.to))

	addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)

	if err := s.send(addr, auth, s.cfg.User, []string{msg.to}, msg.bytes(s.cfg.From)); err != nil {
		span.RecordError(err)
		logging.Error(ctx, s.logger, "Error sending email", zap.String("to", msg.to), zap.String("subject", msg.subject), zap.Error(err))
		return fmt.Errorf("failed to send mail: %w", err)
	}

	logging.Info(ctx, s.logger, "Email sent", zap.String("to", msg.to), zap.String("subject", msg.subject))
	return nil
}

type logSender struct {
	logger *zap.Logger
}

func (s *logSender) SendPasswordResetCode(ctx context.Context, user *models.User, code string) error {
	logging.Info(ctx, s.logger, "smtp disabled, reset code not mailed", zap.String("to", user.Email))
	return nil
}

func (s *logSender) SendOrderConfirmation(ctx context.Context, user *models.User, order *models.Order) error {
	logging.Info(ctx, s.logger, "smtp disabled, order confirmation not mailed",
		zap.String("to", user.Email), zap.Uint("order_id", order.ID))
	return nil
}

type message struct {
	to      string
	subject string
	body    string
}

func (m message) bytes(from string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", m.to)
	fmt.Fprintf(&b, "Subject: %s\r\n", m.subject)
	b.WriteString("MIME-version: 1.0;\r\nContent-Type: text/plain; charset=\"UTF-8\";\r\n\r\n")
	b.WriteString(m.body)
	return []byte(b.String())
}

func resetCodeMessage(user *models.User, code string) message {
	return message{
		to:      user.Email,
		subject: "Your password reset code (valid for 10 minutes)",
		body: fmt.Sprintf("Hi %s,\nWe received a request to reset the password on your E-shop Account.\n%s\nEnter this code to complete the reset.\n",
			user.Name, code),
	}
}

func orderMessage(user *models.User, order *models.Order) message {
	return message{
		to:      user.Email,
		subject: fmt.Sprintf("Your E-shop order #%d", order.ID),
		body: fmt.Sprintf("Hi %s,\nThanks for your order #%d.\nItems: %d\nTotal: %.2f\nPayment: %s\n",
			user.Name, order.ID, len(order.Items), order.TotalOrderPrice, order.PaymentMethodType),
	}
}
