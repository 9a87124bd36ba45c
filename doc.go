// Package billing provides the billing and payroll reconciliation engine for
// the AMK Tutors back office.
//
// The engine is a library, not a service. It turns completed and scheduled
// tutoring sessions into monetary billing records — invoices to parents and
// pay stubs to tutors — tracks which sessions have already been billed or
// paid out, and reverses billing ("void") while keeping the session ledger
// and the billing records mutually consistent. It provides:
//
//   - Eligible-session selection with rate resolution per subject
//   - Atomic invoice and pay stub generation with conflict detection
//   - Gapless, transactional record numbering
//   - Void/revert keyed by live back-references
//   - Pluggable lifecycle hooks for audit, metrics, and rendering
//
// # Quick Start
//
// Create an engine with your preferred store:
//
//	import (
//	    billing "github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000"
//	    "github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/store/memory"
//	)
//
//	eng := billing.New(memory.New())
//
//	if err := eng.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Stop()
//
// List a parent's unbilled work and bill it:
//
//	eligible, err := eng.ListUnbilledForParent(ctx, parentID, nil)
//
//	ids := make([]billing.ID, len(eligible))
//	for i, bs := range eligible {
//	    ids[i] = bs.Session.ID
//	}
//
//	inv, err := eng.GenerateInvoice(ctx, parentID, ids, "September tuition")
//
// # Consistency Model
//
// Sessions and billing records are independent documents linked by copied
// id strings. A session's billing flags are true if and only if the matching
// back-reference is set, and the only code paths allowed to touch those
// fields are the store's atomic commit and void operations. Generation fails
// whole — never partially — when a selected session was claimed concurrently,
// and void re-derives the affected sessions from the ledger's live
// back-references rather than the record's own line-item snapshot.
//
// All monetary calculations use integer arithmetic to avoid floating-point
// precision issues. The Money type represents amounts in cents.
//
// # TypeID
//
// All entities use TypeID for globally unique, type-safe identifiers:
//
//	sess_01h2xcejqtf2nbrexx3vqjhp41  // Session ID
//	inv_01h455vb4pex5vsknk084sn02q   // Invoice ID
//	stub_01h455vb4pex5vsknk084sn02q  // Pay stub ID
//
// TypeIDs are K-sortable, making them ideal for database indexes and
// providing natural time-ordering of entities.
package billing
