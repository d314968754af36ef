package benefits

import (
	"github.com/xraph/benefits/subscription"
	"github.com/xraph/benefits/types"
)

// Re-export common types for convenience so users don't have to import types package.

// Money is re-exported from types package.
type Money = types.Money

// Entity is re-exported from types package.
type Entity = types.Entity

// Role is re-exported from types package.
type Role = types.Role

// Item is re-exported from subscription package.
type Item = subscription.Item

// Re-export Money constructors
var (
	USD  = types.USD
	EUR  = types.EUR
	GBP  = types.GBP
	Zero = types.Zero
	Sum  = types.Sum
)

// Re-export roles
const (
	RoleEmployee = types.RoleEmployee
	RoleSpouse   = types.RoleSpouse
	RoleChild    = types.RoleChild
)

// Re-export Entity constructor
var NewEntity = types.NewEntity
