package billing

import "github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/id"

// ID is the primary identifier type for all billing entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
