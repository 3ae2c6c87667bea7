// Package hierarchy resolves a flat role list and a child->parent map
// into execution depth order and peer groups. The resolver is pure and is
// shared by the agent round scheduler and any visualization layer.
package hierarchy

import (
	"errors"
	"fmt"
	"sort"

	"github.com/rankpilot/rankpilot/pkg/models"
)

// maxDepth is the hard cap on hierarchy depth. It backstops the explicit
// cycle detection for malformed configurations.
const maxDepth = 5

// ErrCyclicHierarchy indicates the child->parent map contains a cycle.
var ErrCyclicHierarchy = errors.New("cyclic role hierarchy")

// Resolver answers depth, ordering, and peer-group queries for one
// role configuration.
type Resolver struct {
	roles   []models.Role
	parents models.Hierarchy
	depths  map[string]int
}

// New validates the hierarchy and precomputes every role's depth.
// It fails with ErrCyclicHierarchy when the parent map loops, and rejects
// parents that are not in the role list.
func New(roles []models.Role, parents models.Hierarchy) (*Resolver, error) {
	r := &Resolver{
		roles:   roles,
		parents: parents,
		depths:  make(map[string]int, len(roles)),
	}

	known := make(map[string]bool, len(roles))
	for _, role := range roles {
		known[role.ID] = true
	}
	for child, parent := range parents {
		if !known[parent] {
			return nil, fmt.Errorf("role %s reports to unknown role %s", child, parent)
		}
	}

	for _, role := range roles {
		d, err := r.resolveDepth(role.ID, make(map[string]bool))
		if err != nil {
			return nil, err
		}
		r.depths[role.ID] = d
	}

	return r, nil
}

// resolveDepth walks child->parent links, tracking visited IDs so a cycle
// fails fast instead of only tripping the depth ceiling.
func (r *Resolver) resolveDepth(roleID string, seen map[string]bool) (int, error) {
	if seen[roleID] {
		return 0, fmt.Errorf("%w: role %s reports to itself through its chain", ErrCyclicHierarchy, roleID)
	}
	seen[roleID] = true

	parent, ok := r.parents[roleID]
	if !ok {
		return 0, nil
	}
	if len(seen) > maxDepth {
		return 0, fmt.Errorf("%w: depth cap (%d) exceeded at role %s", ErrCyclicHierarchy, maxDepth, roleID)
	}

	parentDepth, err := r.resolveDepth(parent, seen)
	if err != nil {
		return 0, err
	}
	return parentDepth + 1, nil
}

// Depth returns a role's distance from its root (0 for roots).
func (r *Resolver) Depth(roleID string) int {
	return r.depths[roleID]
}

// Order returns the roles sorted ascending by depth: the root runs first
// and its reports after it. Ties keep the input list order, so peers at
// the same depth execute in a stable, configuration-defined sequence.
func (r *Resolver) Order() []models.Role {
	ordered := make([]models.Role, len(r.roles))
	copy(ordered, r.roles)
	sort.SliceStable(ordered, func(i, j int) bool {
		return r.depths[ordered[i].ID] < r.depths[ordered[j].ID]
	})
	return ordered
}

// Peers returns the roles sharing roleID's parent, excluding the role
// itself. Roots are peers of the other roots.
func (r *Resolver) Peers(roleID string) []models.Role {
	parent, hasParent := r.parents[roleID]

	var peers []models.Role
	for _, role := range r.roles {
		if role.ID == roleID {
			continue
		}
		otherParent, otherHas := r.parents[role.ID]
		if hasParent == otherHas && parent == otherParent {
			peers = append(peers, role)
		}
	}
	return peers
}

// PeerGroups returns every peer group keyed by parent role ID; roots are
// grouped under the empty key.
func (r *Resolver) PeerGroups() map[string][]models.Role {
	groups := make(map[string][]models.Role)
	for _, role := range r.roles {
		groups[r.parents[role.ID]] = append(groups[r.parents[role.ID]], role)
	}
	return groups
}

// Superior returns a role's parent role, if it has one.
func (r *Resolver) Superior(roleID string) (models.Role, bool) {
	parentID, ok := r.parents[roleID]
	if !ok {
		return models.Role{}, false
	}
	for _, role := range r.roles {
		if role.ID == parentID {
			return role, true
		}
	}
	return models.Role{}, false
}
