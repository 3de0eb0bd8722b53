package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
	"go.uber.org/multierr"

	"github.com/dukerupert/loomworks/internal/billing"
	"github.com/dukerupert/loomworks/internal/domain"
	"github.com/dukerupert/loomworks/internal/email"
	"github.com/dukerupert/loomworks/internal/events"
	"github.com/dukerupert/loomworks/internal/telemetry"
)

// OrderNotifier sends the paid-order emails. *email.Service satisfies it.
type OrderNotifier interface {
	SendOrderConfirmation(ctx context.Context, order *domain.Order) email.Result
	SendOperatorNotification(ctx context.Context, order *domain.Order) email.Result
}

// EventClaimer deduplicates provider deliveries by event id.
// *idempotency.Guard satisfies it.
type EventClaimer interface {
	Claim(ctx context.Context, eventID string) (bool, error)
	Release(ctx context.Context, eventID string) error
}

// ReconcileOutcome describes how a completed checkout was handled.
type ReconcileOutcome string

const (
	OutcomeReconciled ReconcileOutcome = "reconciled"
	OutcomeDuplicate  ReconcileOutcome = "duplicate"
	OutcomeIgnored    ReconcileOutcome = "ignored"
)

// ReconcileResult is returned for every acknowledged event.
type ReconcileResult struct {
	Outcome ReconcileOutcome
	OrderID string

	// SideEffects collects failures from stock, email and event tasks.
	// They are reported but never fail the webhook.
	SideEffects error
}

// PaymentReconciler turns a completed checkout into a paid order.
type PaymentReconciler interface {
	// HandleCheckoutCompleted marks the order paid and runs the follow-up
	// tasks. An error means the provider should redeliver.
	HandleCheckoutCompleted(ctx context.Context, eventID string, session *billing.CompletedSession) (*ReconcileResult, error)
}

// ReconcilerDeps wires the reconciler's collaborators. Only Orders is
// required; nil Claimer, Notifier or Publisher disable that step.
type ReconcilerDeps struct {
	Orders    OrderService
	Inventory InventoryService
	Notifier  OrderNotifier
	Publisher events.Publisher
	Claimer   EventClaimer
}

type paymentReconciler struct {
	deps   ReconcilerDeps
	logger *slog.Logger
}

// NewPaymentReconciler creates a PaymentReconciler.
func NewPaymentReconciler(deps ReconcilerDeps, logger *slog.Logger) PaymentReconciler {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Publisher == nil {
		deps.Publisher = events.NopPublisher{}
	}
	return &paymentReconciler{deps: deps, logger: logger.With("service", "reconcile")}
}

func (r *paymentReconciler) HandleCheckoutCompleted(ctx context.Context, eventID string, session *billing.CompletedSession) (*ReconcileResult, error) {
	const op = "reconcile.checkout_completed"

	if session == nil || session.OrderID == "" {
		r.logger.Warn("completed checkout without order id", "event_id", eventID)
		return &ReconcileResult{Outcome: OutcomeIgnored}, nil
	}
	orderID := session.OrderID
	logger := r.logger.With("event_id", eventID, "order_id", orderID)

	claimed := false
	if r.deps.Claimer != nil && eventID != "" {
		ok, err := r.deps.Claimer.Claim(ctx, eventID)
		switch {
		case err != nil:
			// Without the ledger we fall back to the order state machine and
			// the per-line stock ledger for idempotency.
			logger.Warn("event ledger unavailable", "error", err)
		case !ok:
			logger.Info("duplicate webhook delivery")
			telemetry.Business.RecordWebhookDuplicate()
			return &ReconcileResult{Outcome: OutcomeDuplicate, OrderID: orderID}, nil
		default:
			claimed = true
		}
	}

	order, err := r.deps.Orders.UpdateOrderPaymentStatus(ctx, orderID, domain.PaymentStatusPaid, session.PaymentMethod)
	if err != nil {
		if claimed {
			if rerr := r.deps.Claimer.Release(context.WithoutCancel(ctx), eventID); rerr != nil {
				logger.Error("failed to release event claim", "error", rerr)
			}
		}

		// Retrying cannot fix an unknown order or a refused transition.
		// Anything else, write contention included, goes back to the provider.
		if domain.IsNotFound(err) || errors.Is(err, domain.ErrInvalidPaymentTransition) {
			logger.Error("payment not applied", "error", err)
			telemetry.Business.RecordWebhookFailed(domain.ErrorCode(err))
			telemetry.CaptureErrorFromContext(ctx, err, map[string]interface{}{
				"event_id": eventID,
				"order_id": orderID,
			})
			return &ReconcileResult{Outcome: OutcomeIgnored, OrderID: orderID}, nil
		}

		telemetry.Business.RecordWebhookFailed("persistence")
		return nil, fmt.Errorf("%s: mark order %s paid: %w", op, orderID, err)
	}

	telemetry.Business.RecordPaymentConfirmed(order.Total)
	logger.Info("order paid",
		"payment_method", order.PaymentMethod,
		"total", order.Total,
	)

	if order.Status == domain.OrderStatusCancelled {
		logger.Warn("payment received for cancelled order, operator review required")
		telemetry.CaptureErrorFromContext(ctx, errPaidWhileCancelled, map[string]interface{}{
			"event_id": eventID,
			"order_id": orderID,
		})
	}

	// Follow-up work must finish even if the provider hangs up.
	sideEffects := r.runSideEffects(context.WithoutCancel(ctx), order, logger)

	return &ReconcileResult{Outcome: OutcomeReconciled, OrderID: orderID, SideEffects: sideEffects}, nil
}

type task struct {
	name string
	run  func(ctx context.Context) error
}

// runSideEffects runs every follow-up concurrently. Each failure is logged
// and reported, and none stops the others.
func (r *paymentReconciler) runSideEffects(ctx context.Context, order *domain.Order, logger *slog.Logger) error {
	var (
		mu   sync.Mutex
		errs error
		wg   conc.WaitGroup
	)
	for _, t := range r.tasksFor(order) {
		wg.Go(func() {
			err := runTask(ctx, t)
			if err == nil {
				return
			}
			logger.Error("post-payment task failed", "task", t.name, "error", err)
			telemetry.CaptureError(err, map[string]interface{}{
				"task":     t.name,
				"order_id": order.ID,
			})

			mu.Lock()
			multierr.AppendInto(&errs, fmt.Errorf("%s: %w", t.name, err))
			mu.Unlock()
		})
	}
	wg.Wait()

	return errs
}

// runTask converts a panic into an error so siblings keep running.
func runTask(ctx context.Context, t task) error {
	var (
		pc  panics.Catcher
		err error
	)
	pc.Try(func() { err = t.run(ctx) })
	if rec := pc.Recovered(); rec != nil {
		return rec.AsError()
	}
	return err
}

// errPaidWhileCancelled flags a payment that landed on a cancelled order.
var errPaidWhileCancelled = errors.New("payment received for cancelled order")

// tasksFor lists the follow-ups for a paid order. A cancelled order keeps
// its stock and gets no customer confirmation; only the operator hears
// about it.
func (r *paymentReconciler) tasksFor(order *domain.Order) []task {
	var tasks []task
	cancelled := order.Status == domain.OrderStatusCancelled

	if r.deps.Inventory != nil && !cancelled {
		for _, item := range stockLines(order.Items) {
			tasks = append(tasks, task{
				name: "stock:" + item.ProductID,
				run: func(ctx context.Context) error {
					_, err := r.deps.Inventory.DecrementForOrderLine(ctx, order.ID, item)
					return err
				},
			})
		}
	}

	if r.deps.Notifier != nil {
		if !cancelled {
			tasks = append(tasks, task{name: "email:customer", run: func(ctx context.Context) error {
				return emailErr("order_confirmation", r.deps.Notifier.SendOrderConfirmation(ctx, order))
			}})
		}
		tasks = append(tasks, task{name: "email:operator", run: func(ctx context.Context) error {
			return emailErr("operator_new_order", r.deps.Notifier.SendOperatorNotification(ctx, order))
		}})
	}

	tasks = append(tasks, task{name: "event:order_paid", run: func(ctx context.Context) error {
		err := r.deps.Publisher.PublishOrderPaid(ctx, events.OrderPaid{
			OrderID:       order.ID,
			UserID:        order.UserID,
			Total:         order.Total,
			ItemCount:     order.ItemCount(),
			PaymentMethod: order.PaymentMethod,
			PaidAt:        order.UpdatedAt,
		})
		if err != nil {
			telemetry.Business.RecordEventPublishFailed()
		}
		return err
	}})

	return tasks
}

// stockLines folds lines naming the same product into one, keeping the
// first line's position, so the per-product stock ledger sees the whole
// quantity.
func stockLines(items []domain.OrderItem) []domain.OrderItem {
	merged := make([]domain.OrderItem, 0, len(items))
	index := make(map[string]int, len(items))
	for _, item := range items {
		if i, ok := index[item.ProductID]; ok {
			merged[i].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(merged)
		merged = append(merged, item)
	}
	return merged
}

func emailErr(kind string, res email.Result) error {
	telemetry.Business.RecordEmail(kind, string(res.Status))
	if res.Status == email.StatusFailed {
		if res.Err != nil {
			return res.Err
		}
		return fmt.Errorf("send failed")
	}
	return nil
}
