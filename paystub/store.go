package paystub

import (
	"context"
	"time"

	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/id"
)

// Store is the pay stub view of the storage layer.
//
// As with invoices, creation and deletion happen only through the unified
// store's atomic generate and void operations.
type Store interface {
	Get(ctx context.Context, stubID id.PayStubID) (*PayStub, error)
	List(ctx context.Context, tutorID id.TutorID, opts ListOpts) ([]*PayStub, error)

	// UpdateStatus applies a caller-driven status transition.
	UpdateStatus(ctx context.Context, stubID id.PayStubID, to Status, at time.Time) error
}
