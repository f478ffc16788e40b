package store

import (
	"slices"

	"github.com/tansive/rostersync/internal/rostersync/collection"
	"github.com/tansive/rostersync/internal/rostersync/domain"
)

// Slice is the part of the state owned by one entity kind.
type Slice[E domain.Entity] struct {
	List []E `json:"list"`
}

// Reduce applies a to the slice and returns the next slice. Actions for other entity
// kinds, and updates or removals of ids the slice does not hold, return s as is.
func Reduce[E domain.Entity](s Slice[E], a Action) Slice[E] {
	switch act := a.(type) {
	case RefreshList[E]:
		return Slice[E]{List: slices.Clone(act.Entities)}
	case AddEntity[E]:
		// A refresh that raced the add may already hold the new id.
		if collection.IndexOf(s.List, act.Entity) >= 0 {
			return Slice[E]{List: collection.WithUpdatedElement(s.List, act.Entity)}
		}
		return Slice[E]{List: collection.WithElement(s.List, act.Entity)}
	case UpdateEntity[E]:
		if collection.IndexOf(s.List, act.Entity) < 0 {
			return s
		}
		return Slice[E]{List: collection.WithUpdatedElement(s.List, act.Entity)}
	case RemoveEntity[E]:
		if collection.IndexOf(s.List, act.Entity) < 0 {
			return s
		}
		return Slice[E]{List: collection.WithoutElement(s.List, act.Entity)}
	}
	return s
}
