package invoice

import (
	"context"
	"time"

	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/id"
)

// Store is the invoice view of the storage layer.
//
// Creation and deletion are absent on purpose: an invoice only comes into
// existence through the unified store's atomic generate operation and only
// leaves through the atomic void operation.
type Store interface {
	Get(ctx context.Context, invID id.InvoiceID) (*Invoice, error)
	List(ctx context.Context, parentID id.ParentID, opts ListOpts) ([]*Invoice, error)

	// UpdateStatus applies a caller-driven status transition.
	UpdateStatus(ctx context.Context, invID id.InvoiceID, to Status, at time.Time) error
}
