package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/medicine-cart/medicine_cart/internal/notification"
	"github.com/medicine-cart/medicine_cart/internal/otp"
	"github.com/medicine-cart/medicine_cart/internal/phone"
)

// Dispatcher queues an outbound message without waiting for delivery.
type Dispatcher interface {
	Dispatch(ctx context.Context, message notification.Message) bool
}

// Service runs the phone + OTP login flow.
type Service struct {
	engine     *otp.Engine
	issuer     *Issuer
	dispatcher Dispatcher
	logger     *slog.Logger
}

// NewService wires the login flow.
func NewService(engine *otp.Engine, issuer *Issuer, dispatcher Dispatcher, logger *slog.Logger) *Service {
	return &Service{engine: engine, issuer: issuer, dispatcher: dispatcher, logger: logger}
}

// SendOTP normalizes rawPhone, issues a login code and queues it for
// delivery. It returns the code lifetime.
func (s *Service) SendOTP(ctx context.Context, rawPhone string) (time.Duration, error) {
	identity, err := phone.Normalize(rawPhone)
	if err != nil {
		s.logger.Warn("invalid phone number format", slog.String("phone", rawPhone))
		return 0, err
	}

	code, err := s.engine.Issue(ctx, otp.LoginKey(identity), 0)
	if err != nil {
		return 0, err
	}
	s.logger.Info("login otp stored", slog.String("phone", identity))

	s.dispatcher.Dispatch(ctx, notification.Message{
		Kind:        notification.KindLoginOTP,
		Destination: identity,
		Body:        fmt.Sprintf("Your OTP is %s", code),
	})
	return s.engine.TTL(), nil
}

// VerifyOTP consumes the login code for rawPhone and mints an access token.
func (s *Service) VerifyOTP(ctx context.Context, rawPhone, code string) (Credential, error) {
	identity, err := phone.Normalize(rawPhone)
	if err != nil {
		return Credential{}, err
	}

	if err := s.engine.Verify(ctx, otp.LoginKey(identity), code); err != nil {
		s.logger.Warn("login otp rejected", slog.String("phone", identity), slog.Any("error", err))
		return Credential{}, err
	}

	cred, err := s.issuer.Issue(identity)
	if err != nil {
		return Credential{}, err
	}
	s.logger.Info("access token issued", slog.String("phone", identity), slog.String("jti", cred.TokenID))
	return cred, nil
}

// Logout revokes the presented token.
func (s *Service) Logout(ctx context.Context, claims Claims) error {
	if err := s.issuer.Revoke(ctx, claims); err != nil {
		return err
	}
	s.logger.Info("access token revoked", slog.String("phone", claims.Subject), slog.String("jti", claims.ID))
	return nil
}
