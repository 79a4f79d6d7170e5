package order

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/medicine-cart/medicine_cart/internal/clock"
	"github.com/medicine-cart/medicine_cart/internal/metrics"
	"github.com/medicine-cart/medicine_cart/internal/notification"
	"github.com/medicine-cart/medicine_cart/internal/otp"
)

// Dispatcher queues an outbound message without waiting for delivery.
type Dispatcher interface {
	Dispatch(ctx context.Context, message notification.Message) bool
}

// DeliveryService confirms hand-over of an order with a one-time code sent
// to the phone on the order.
type DeliveryService struct {
	repo       Repository
	engine     *otp.Engine
	dispatcher Dispatcher
	clock      clock.Clock
	logger     *slog.Logger
}

// NewDeliveryService wires the delivery confirmation workflow.
func NewDeliveryService(repo Repository, engine *otp.Engine, dispatcher Dispatcher, clk clock.Clock, logger *slog.Logger) *DeliveryService {
	if clk == nil {
		clk = clock.New()
	}
	return &DeliveryService{repo: repo, engine: engine, dispatcher: dispatcher, clock: clk, logger: logger}
}

// SendDeliveryOTP issues a delivery code for the order, moves it to
// Awaiting Delivery OTP and queues the code for the owner's phone. It
// returns the destination phone and the code lifetime.
func (s *DeliveryService) SendDeliveryOTP(ctx context.Context, rawID string) (string, time.Duration, error) {
	id, err := parseOrderID(rawID)
	if err != nil {
		return "", 0, err
	}
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", 0, err
	}
	phone := o.Phone
	if phone == "" {
		return "", 0, ErrMissingPhone
	}
	if o.Status.Terminal() {
		return "", 0, ErrInvalidTransition
	}

	code, err := s.engine.Issue(ctx, otp.DeliveryKey(id), 0)
	if err != nil {
		return "", 0, err
	}
	if o.Status != StatusAwaitingDelivery {
		if err := s.repo.UpdateStatus(ctx, id, StatusAwaitingDelivery); err != nil {
			return "", 0, err
		}
		metrics.OrderTransitions.WithLabelValues(string(StatusAwaitingDelivery)).Inc()
	}
	s.logger.Info("delivery otp stored", slog.String("order_id", id), slog.String("phone", phone))

	s.dispatcher.Dispatch(ctx, notification.Message{
		Kind:        notification.KindDeliveryOTP,
		Destination: phone,
		Body:        fmt.Sprintf("Your OTP is %s", code),
	})
	return phone, s.engine.TTL(), nil
}

// VerifyDelivery consumes the delivery code and completes the order,
// decrementing stock exactly once.
func (s *DeliveryService) VerifyDelivery(ctx context.Context, rawID, code string) (Order, error) {
	id, err := parseOrderID(rawID)
	if err != nil {
		return Order{}, err
	}
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if _, err := stockChanges(o.Items); err != nil {
		return Order{}, err
	}

	if err := s.engine.Verify(ctx, otp.DeliveryKey(id), code); err != nil {
		s.logger.Warn("delivery otp rejected", slog.String("order_id", id), slog.Any("error", err))
		return Order{}, err
	}

	at := s.clock.Now().UTC()
	if err := s.repo.CompleteDelivery(ctx, id, o.Items, at); err != nil {
		return Order{}, err
	}
	metrics.OrderTransitions.WithLabelValues(string(StatusDelivered)).Inc()
	s.logger.Info("order delivered", slog.String("order_id", id))

	o.Status = StatusDelivered
	o.DeliveredAt = &at
	return o, nil
}
