package economy

import (
	"fmt"
	"math/rand"
)

// Role is the social rank of an actor.
type Role string

const (
	RoleKing     Role = "KING"
	RoleBaron    Role = "BARON"
	RoleMerchant Role = "MERCHANT"
	RoleSoldier  Role = "SOLDIER"
	RolePeasant  Role = "PEASANT"
)

// Roles returns every role from highest to lowest rank.
func Roles() []Role {
	return []Role{RoleKing, RoleBaron, RoleMerchant, RoleSoldier, RolePeasant}
}

// Valid reports whether r is one of the enumerated roles.
func (r Role) Valid() bool {
	switch r {
	case RoleKing, RoleBaron, RoleMerchant, RoleSoldier, RolePeasant:
		return true
	}
	return false
}

// InitialResourcesFor returns the starting allocation for role from the default tuning.
// It panics if role is not one of the enumerated roles.
func InitialResourcesFor(role Role) Resources {
	return Default().InitialResourcesFor(role)
}

// InitialResourcesFor returns the starting allocation for role.
// It panics if role is not one of the enumerated roles.
func (t *Tuning) InitialResourcesFor(role Role) Resources {
	alloc, ok := t.Roles[role]
	if !ok || !role.Valid() {
		panic(fmt.Sprintf("economy: no initial resources for role %q", role))
	}
	return alloc.Clone()
}

const (
	RegionCapital = "capital"
	RegionEast    = "region_ost"
	RegionWest    = "region_vest"
)

// RoleAssignment is the role and region handed to one actor by AssignRoles.
type RoleAssignment struct {
	Role     Role
	RegionID string
}

// AssignRoles shuffles ids and hands out one king in the capital, up to two barons
// (east then west) and peasants alternating between the two baronies.
func AssignRoles(ids []string, rng *rand.Rand) map[string]RoleAssignment {
	out := make(map[string]RoleAssignment, len(ids))
	if len(ids) == 0 {
		return out
	}

	shuffled := make([]string, len(ids))
	copy(shuffled, ids)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	out[shuffled[0]] = RoleAssignment{Role: RoleKing, RegionID: RegionCapital}
	rest := shuffled[1:]

	barons := min(2, len(rest))
	for i := 0; i < barons; i++ {
		region := RegionEast
		if i == 1 {
			region = RegionWest
		}
		out[rest[i]] = RoleAssignment{Role: RoleBaron, RegionID: region}
	}

	for i, id := range rest[barons:] {
		region := RegionEast
		if i%2 == 1 {
			region = RegionWest
		}
		out[id] = RoleAssignment{Role: RolePeasant, RegionID: region}
	}

	return out
}

// StartingReputation is the reputation a freshly assigned actor of role begins with.
func StartingReputation(role Role) float64 {
	switch role {
	case RoleKing:
		return 50
	case RoleBaron:
		return 40
	default:
		return 10
	}
}
