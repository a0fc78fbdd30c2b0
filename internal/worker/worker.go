package worker

import (
	"context"
	"log"

	"storefront-service/internal/broker"
	"storefront-service/internal/cart"
	"storefront-service/internal/models"
	"storefront-service/internal/notify"
	"storefront-service/internal/util"
)

// CheckoutWorker reacts to payment outcomes coming back from the
// provider: a completed payment empties the paying session's cart, a
// failed one surfaces an error notification. Clearing an already-empty
// cart is a no-op, so replayed events are harmless.
type CheckoutWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	registry     *cart.Registry
}

// NewCheckoutWorker creates a new checkout worker
func NewCheckoutWorker(consumer *broker.Consumer, registry *cart.Registry) *CheckoutWorker {
	w := &CheckoutWorker{
		consumer: consumer,
		registry: registry,
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnPaymentCompleted(w.handlePaymentCompleted)
	eventHandler.OnPaymentFailed(w.handlePaymentFailed)
	w.eventHandler = eventHandler

	return w
}

func (w *CheckoutWorker) handlePaymentCompleted(ctx context.Context, event *models.PaymentCompletedEvent) error {
	util.WorkerEventsTotal.WithLabelValues(models.EventTypePaymentCompleted).Inc()

	store := w.registry.Get(ctx, event.SessionID)
	store.Dispatch(ctx, cart.ClearCart{})
	store.Notifier().Publish(notify.Message{
		Title:       "Payment received",
		Description: "Your order is confirmed",
		Variant:     notify.VariantSuccess,
	})

	log.Printf("Payment completed for session %s, checkout %s", event.SessionID, event.CheckoutID)
	return nil
}

func (w *CheckoutWorker) handlePaymentFailed(ctx context.Context, event *models.PaymentFailedEvent) error {
	util.WorkerEventsTotal.WithLabelValues(models.EventTypePaymentFailed).Inc()

	store := w.registry.Get(ctx, event.SessionID)
	store.Notifier().Publish(notify.Message{
		Title:       "Payment failed",
		Description: event.Reason,
		Variant:     notify.VariantError,
	})

	log.Printf("Payment failed for session %s: %s", event.SessionID, event.Reason)
	return nil
}

// Start starts the worker
func (w *CheckoutWorker) Start(ctx context.Context) error {
	log.Println("Starting checkout worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *CheckoutWorker) Stop() error {
	log.Println("Stopping checkout worker...")
	return w.consumer.Close()
}
