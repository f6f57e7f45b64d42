package billing

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/tillpoint/internal/domain/catalog"
	"github.com/xenking/tillpoint/internal/domain/till"
)

var (
	tracer = otel.Tracer("tillpoint/billing")
	meter  = otel.Meter("tillpoint/billing")
)

// Tx bundles the repositories bound to one purchase transaction. Every
// operation reached through it participates in the same atomic unit.
type Tx interface {
	Catalog() catalog.TxRepository
	Till() till.TxPool
	Invoices() Writer
}

// UnitOfWork runs fn inside a single transaction: all writes performed
// through the Tx are committed when fn returns nil and discarded entirely
// when it returns an error. Row locks taken inside fn are held until
// commit or rollback.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Notifier delivers a post-commit notification for a created invoice.
// Best effort: failures are logged and never affect the purchase.
type Notifier interface {
	NotifyInvoiceCreated(ctx context.Context, contact, invoiceID string) error
}

// PurchaseRequest holds the input for a purchase transaction.
type PurchaseRequest struct {
	Contact string
	Lines   []CartLine
	Paid    decimal.Decimal
}

// Service coordinates purchase transactions and invoice reads.
type Service struct {
	uow      UnitOfWork
	invoices Repository
	alloc    till.Allocator
	notifier Notifier
	lg       *zap.Logger

	now   func() time.Time
	newID func() string

	committed metric.Int64Counter
	rejected  metric.Int64Counter
}

// NewService creates a purchase Service with the required collaborators.
func NewService(
	uow UnitOfWork,
	invoices Repository,
	alloc till.Allocator,
	notifier Notifier,
	lg *zap.Logger,
) *Service {
	if lg == nil {
		lg = zap.NewNop()
	}
	committed, _ := meter.Int64Counter("tillpoint.purchases.committed")
	rejected, _ := meter.Int64Counter("tillpoint.purchases.rejected")
	return &Service{
		uow:       uow,
		invoices:  invoices,
		alloc:     alloc,
		notifier:  notifier,
		lg:        lg,
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
		committed: committed,
		rejected:  rejected,
	}
}

// Purchase runs one purchase transaction: price the cart against row-locked
// catalog rows, validate the payment, allocate exact change from the locked
// denomination pool, and commit the stock decrements, pool decrements, and
// the invoice as one atomic unit. Any failure leaves storage untouched.
//
// Shared rows are never mutated while validating: all decrements are
// computed against the locked snapshot and applied only after every
// precondition has passed.
func (s *Service) Purchase(ctx context.Context, req PurchaseRequest) (*Invoice, error) {
	ctx, span := tracer.Start(ctx, "billing.Purchase")
	defer span.End()

	var inv *Invoice
	err := s.uow.Do(ctx, func(ctx context.Context, tx Tx) error {
		ids := collectProductIDs(req.Lines)
		if len(ids) == 0 {
			return ErrEmptyCart
		}

		// Lock the touched products for the whole transaction.
		products, err := tx.Catalog().GetForUpdate(ctx, ids)
		if err != nil {
			return errors.Wrap(err, "lock products")
		}
		byID := make(map[string]catalog.Product, len(products))
		for _, p := range products {
			byID[p.ID] = p
		}

		cart, err := PriceCart(req.Lines, byID)
		if err != nil {
			return err
		}

		if req.Paid.LessThan(cart.Total) {
			return &InsufficientPaymentError{Total: cart.Total, Paid: req.Paid}
		}
		balance := req.Paid.Sub(cart.Total)

		// Allocate change against the locked pool snapshot. Denominations
		// are integral, so a fractional part of the balance is not
		// returned as change.
		pool, err := tx.Till().ListForUpdateDesc(ctx)
		if err != nil {
			return errors.Wrap(err, "lock denomination pool")
		}
		change, err := s.alloc.Allocate(balance.IntPart(), pool)
		if err != nil {
			return err
		}

		// Every precondition passed: apply the computed deltas.
		reserved := cart.ReservedQuantities()
		for _, p := range products {
			qty := reserved[p.ID]
			if qty == 0 {
				continue
			}
			if err := tx.Catalog().UpdateStock(ctx, p.ID, p.Stock-qty); err != nil {
				return errors.Wrapf(err, "reserve stock for %s", p.ID)
			}
		}
		available := make(map[int64]int64, len(pool))
		for _, d := range pool {
			available[d.Value] = d.Available
		}
		for _, c := range change {
			if err := tx.Till().UpdateAvailable(ctx, c.Value, available[c.Value]-c.Count); err != nil {
				return errors.Wrapf(err, "consume denomination %d", c.Value)
			}
		}

		inv = BuildInvoice(s.newID(), req.Contact, cart.Lines, cart.Total, req.Paid, balance, change, s.now())
		if err := tx.Invoices().Create(ctx, inv); err != nil {
			return errors.Wrap(err, "create invoice")
		}
		return nil
	})
	if err != nil {
		s.rejected.Add(ctx, 1)
		return nil, err
	}
	s.committed.Add(ctx, 1)

	s.lg.Info("purchase committed",
		zap.String("invoice_id", inv.ID),
		zap.String("total", inv.Total.String()),
		zap.String("balance", inv.Balance.String()),
	)
	s.notifyCreated(ctx, inv)

	return inv, nil
}

// notifyCreated hands the post-commit notification off to a detached
// goroutine. It runs outside the transaction's critical section and its
// failure is swallowed.
func (s *Service) notifyCreated(ctx context.Context, inv *Invoice) {
	if s.notifier == nil {
		return
	}
	link := trace.LinkFromContext(ctx)
	contact, id := inv.Contact, inv.ID
	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		ctx, span := tracer.Start(ctx, "billing.NotifyInvoiceCreated", trace.WithLinks(link))
		defer span.End()

		if err := s.notifier.NotifyInvoiceCreated(ctx, contact, id); err != nil {
			s.lg.Warn("invoice notification failed",
				zap.String("invoice_id", id),
				zap.Error(err),
			)
		}
	}()
}

// GetInvoice returns a committed invoice by id, or ErrInvoiceNotFound.
func (s *Service) GetInvoice(ctx context.Context, id string) (*Invoice, error) {
	return s.invoices.GetByID(ctx, id)
}

// ListInvoices returns all committed invoices, most recent first.
func (s *Service) ListInvoices(ctx context.Context) ([]Invoice, error) {
	return s.invoices.List(ctx)
}

// collectProductIDs returns the distinct product ids of lines that pass the
// lenient pre-filter (non-empty id, positive quantity).
func collectProductIDs(lines []CartLine) []string {
	seen := make(map[string]struct{}, len(lines))
	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		if line.ProductID == "" || line.Quantity <= 0 {
			continue
		}
		if _, ok := seen[line.ProductID]; ok {
			continue
		}
		seen[line.ProductID] = struct{}{}
		ids = append(ids, line.ProductID)
	}
	return ids
}
