package notification

import (
	"context"
	"log/slog"
)

const (
	// KindLoginOTP carries a login code to the phone that requested it.
	KindLoginOTP = "login_otp"
	// KindDeliveryOTP carries a delivery confirmation code to the order owner.
	KindDeliveryOTP = "delivery_otp"
)

// Message describes an outbound text message.
type Message struct {
	Kind        string
	Destination string
	Body        string
}

// Sender delivers a message to its destination over an external channel.
type Sender interface {
	Send(ctx context.Context, message Message) error
}

// LogSender writes messages to the structured logger instead of sending them.
// It is the development fallback when no SMS provider is configured.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender constructs a logging sender.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LogSender) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("[DEV OTP] notification", "kind", message.Kind, "destination", message.Destination, "body", message.Body)
	return nil
}
