package billing

import "github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/types"

// Re-export common types for convenience so users don't have to import the
// types package.

// Money is re-exported from the types package.
type Money = types.Money

// Entity is re-exported from the types package.
type Entity = types.Entity

// DateRange is re-exported from the types package.
type DateRange = types.DateRange

// LineItem is re-exported from the types package.
type LineItem = types.LineItem

// Re-export Money constructors
var (
	Cents   = types.Cents
	Dollars = types.Dollars
	Sum     = types.Sum
)

// Re-export Entity constructor
var NewEntity = types.NewEntity
