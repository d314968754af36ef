package benefits

import "github.com/xraph/benefits/id"

// ID is the primary identifier type for all benefits records.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
