package services

import (
	"fmt"
	"sort"

	"lorekeeper-backend/domain/core/entities"
	"lorekeeper-backend/domain/core/valueobjects"
)

// HierarchyResolver answers structural queries over the timeline forest.
// It is a pure service over an in-memory collection; parent-pointer cycles
// are a data-integrity condition to be reported, never recursed into.
type HierarchyResolver struct{}

// NewHierarchyResolver creates a hierarchy resolver
func NewHierarchyResolver() *HierarchyResolver {
	return &HierarchyResolver{}
}

// TimelineNode is a timeline with its resolved children
type TimelineNode struct {
	Timeline *entities.Timeline `json:"timeline"`
	Children []*TimelineNode    `json:"children"`
}

// Roots returns timelines with no parent
func (r *HierarchyResolver) Roots(timelines []*entities.Timeline) []*entities.Timeline {
	roots := []*entities.Timeline{}
	for _, tl := range timelines {
		if tl.ParentID() == nil {
			roots = append(roots, tl)
		}
	}
	return roots
}

// Children returns timelines whose parent is the given timeline
func (r *HierarchyResolver) Children(timelines []*entities.Timeline, id valueobjects.TimelineID) []*entities.Timeline {
	children := []*entities.Timeline{}
	for _, tl := range timelines {
		if tl.ParentID() != nil && tl.ParentID().Equals(id) {
			children = append(children, tl)
		}
	}
	return children
}

// Expand resolves the subtree rooted at the given timeline. When the
// descent re-enters a timeline it already visited, expansion stops there
// and an error-severity constraint names the offending timelines.
func (r *HierarchyResolver) Expand(timelines []*entities.Timeline, id valueobjects.TimelineID) (*TimelineNode, []ChronologyConstraint) {
	root := findTimeline(timelines, id)
	if root == nil {
		return nil, []ChronologyConstraint{{
			Type:        ConstraintContradiction,
			Severity:    SeverityError,
			Message:     fmt.Sprintf("timeline %s not present in collection", id),
			TimelineIDs: []string{id.String()},
		}}
	}

	constraints := []ChronologyConstraint{}
	visited := map[string]bool{}

	var descend func(tl *entities.Timeline) *TimelineNode
	descend = func(tl *entities.Timeline) *TimelineNode {
		visited[tl.ID().String()] = true
		node := &TimelineNode{Timeline: tl, Children: []*TimelineNode{}}

		for _, child := range r.Children(timelines, tl.ID()) {
			if visited[child.ID().String()] {
				constraints = append(constraints, cycleConstraint(tl.ID(), child.ID()))
				continue
			}
			node.Children = append(node.Children, descend(child))
		}
		return node
	}

	return descend(root), constraints
}

// Ancestors walks parent pointers upward from the given timeline, stopping
// at the first root or on cycle detection. The result is ordered nearest
// ancestor first and never includes the starting timeline.
func (r *HierarchyResolver) Ancestors(timelines []*entities.Timeline, id valueobjects.TimelineID) ([]*entities.Timeline, []ChronologyConstraint) {
	ancestors := []*entities.Timeline{}
	constraints := []ChronologyConstraint{}

	visited := map[string]bool{id.String(): true}
	current := findTimeline(timelines, id)
	if current == nil {
		return ancestors, constraints
	}

	for current.ParentID() != nil {
		parent := findTimeline(timelines, *current.ParentID())
		if parent == nil {
			constraints = append(constraints, ChronologyConstraint{
				Type:        ConstraintContradiction,
				Severity:    SeverityError,
				Message:     fmt.Sprintf("timeline %s references missing parent %s", current.ID(), current.ParentID()),
				TimelineIDs: []string{current.ID().String(), current.ParentID().String()},
			})
			break
		}
		if visited[parent.ID().String()] {
			constraints = append(constraints, cycleConstraint(current.ID(), parent.ID()))
			break
		}
		visited[parent.ID().String()] = true
		ancestors = append(ancestors, parent)
		current = parent
	}

	return ancestors, constraints
}

// Siblings returns timelines sharing the given timeline's parent
func (r *HierarchyResolver) Siblings(timelines []*entities.Timeline, id valueobjects.TimelineID) []*entities.Timeline {
	tl := findTimeline(timelines, id)
	if tl == nil {
		return nil
	}

	siblings := []*entities.Timeline{}
	for _, other := range timelines {
		if other.ID().Equals(id) {
			continue
		}
		switch {
		case tl.ParentID() == nil && other.ParentID() == nil:
			siblings = append(siblings, other)
		case tl.ParentID() != nil && other.ParentID() != nil && other.ParentID().Equals(*tl.ParentID()):
			siblings = append(siblings, other)
		}
	}
	return siblings
}

// Recommended ranks timelines for the quick-select view: ongoing timelines
// always rank above closed ones; within the same open/closed status, the
// more recently updated timeline ranks first.
func (r *HierarchyResolver) Recommended(timelines []*entities.Timeline, limit int) []*entities.Timeline {
	ranked := make([]*entities.Timeline, len(timelines))
	copy(ranked, timelines)

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].IsOngoing() != ranked[j].IsOngoing() {
			return ranked[i].IsOngoing()
		}
		return ranked[i].UpdatedAt().After(ranked[j].UpdatedAt())
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// Validate sweeps the whole collection for parent-pointer integrity:
// missing parents and cycles both surface as error-severity constraints.
func (r *HierarchyResolver) Validate(timelines []*entities.Timeline) []ChronologyConstraint {
	constraints := []ChronologyConstraint{}
	seen := map[string]bool{}

	for _, tl := range timelines {
		_, found := r.Ancestors(timelines, tl.ID())
		for _, constraint := range found {
			key := constraint.Message
			if !seen[key] {
				seen[key] = true
				constraints = append(constraints, constraint)
			}
		}
	}
	return constraints
}

func findTimeline(timelines []*entities.Timeline, id valueobjects.TimelineID) *entities.Timeline {
	for _, tl := range timelines {
		if tl.ID().Equals(id) {
			return tl
		}
	}
	return nil
}

func cycleConstraint(a, b valueobjects.TimelineID) ChronologyConstraint {
	return ChronologyConstraint{
		Type:        ConstraintContradiction,
		Severity:    SeverityError,
		Message:     fmt.Sprintf("timeline parentage cycle detected between %s and %s", a, b),
		TimelineIDs: []string{a.String(), b.String()},
	}
}
