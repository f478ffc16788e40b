// Package collection provides copy-on-write helpers over ordered entity sequences.
// Elements are matched by their server-assigned id only; the input slice is never
// modified.
package collection

import (
	"github.com/tansive/rostersync/internal/rostersync/domain"
)

// WithElement returns a new sequence with e appended.
func WithElement[E domain.Entity](seq []E, e E) []E {
	out := make([]E, 0, len(seq)+1)
	out = append(out, seq...)
	return append(out, e)
}

// WithoutElement returns a new sequence without the element sharing e's id.
// If nothing matches the result is an equal copy of seq.
func WithoutElement[E domain.Entity](seq []E, e E) []E {
	out := make([]E, 0, len(seq))
	for _, cur := range seq {
		if domain.SameIdentity(cur, e) {
			continue
		}
		out = append(out, cur)
	}
	return out
}

// WithUpdatedElement returns a new sequence where the element sharing e's id is
// replaced by e in the same position.
func WithUpdatedElement[E domain.Entity](seq []E, e E) []E {
	out := make([]E, len(seq))
	for i, cur := range seq {
		if domain.SameIdentity(cur, e) {
			out[i] = e
			continue
		}
		out[i] = cur
	}
	return out
}

// IndexOf returns the position of the element sharing e's id, or -1.
func IndexOf[E domain.Entity](seq []E, e E) int {
	for i, cur := range seq {
		if domain.SameIdentity(cur, e) {
			return i
		}
	}
	return -1
}

// FindByID returns the element with the given id.
func FindByID[E domain.Entity](seq []E, id int64) (E, bool) {
	for _, cur := range seq {
		if cid, ok := cur.Identity(); ok && cid == id {
			return cur, true
		}
	}
	var zero E
	return zero, false
}
