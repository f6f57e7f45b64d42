// Package notify delivers post-commit invoice notifications. The current
// implementation renders the message and logs it instead of speaking SMTP;
// the delivery contract is best effort either way.
package notify

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xenking/tillpoint/internal/domain/billing"
)

var _ billing.Notifier = (*Mailer)(nil)

// Mailer renders invoice notification emails. Delivery is stubbed out: the
// rendered message is logged at the configured sender address.
type Mailer struct {
	lg       *zap.Logger
	invoices billing.Repository
	from     string
}

// NewMailer creates a Mailer that reads invoice details from the given
// repository.
func NewMailer(lg *zap.Logger, invoices billing.Repository, from string) *Mailer {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Mailer{lg: lg, invoices: invoices, from: from}
}

// NotifyInvoiceCreated renders and "sends" the invoice email for a committed
// purchase. The invoice is re-read from storage, so the notification observes
// only committed state.
func (m *Mailer) NotifyInvoiceCreated(ctx context.Context, contact, invoiceID string) error {
	inv, err := m.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return fmt.Errorf("loading invoice %q: %w", invoiceID, err)
	}

	m.lg.Info("sending invoice email",
		zap.String("from", m.from),
		zap.String("to", contact),
		zap.String("invoice_id", inv.ID),
		zap.String("body", RenderInvoiceBody(inv)),
	)
	return nil
}

// RenderInvoiceBody renders the plain-text body of the invoice notification.
func RenderInvoiceBody(inv *billing.Invoice) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Invoice %s\n", inv.ID)
	fmt.Fprintf(&b, "Total: %s\nPaid: %s\nBalance: %s\n", inv.Total, inv.Paid, inv.Balance)

	b.WriteString("Items:\n")
	for _, line := range inv.Lines {
		fmt.Fprintf(&b, "  %s x%d = %s (tax %s)\n", line.ProductID, line.Quantity, line.Price, line.Tax)
	}
	if len(inv.Change) > 0 {
		b.WriteString("Change:\n")
		for _, c := range inv.Change {
			fmt.Fprintf(&b, "  %d x %d\n", c.Value, c.Count)
		}
	}
	return b.String()
}
