package domain

import "slices"

// Ordered id lists are shared between room versions, so every helper here
// returns a fresh slice and never writes into its input.

func ContainsID(ids []UserID, id UserID) bool {
	return slices.Contains(ids, id)
}

func AppendID(ids []UserID, id UserID) []UserID {
	out := make([]UserID, 0, len(ids)+1)
	out = append(out, ids...)
	return append(out, id)
}

func WithoutID(ids []UserID, id UserID) []UserID {
	out := make([]UserID, 0, len(ids))
	for _, cur := range ids {
		if cur != id {
			out = append(out, cur)
		}
	}
	return out
}

// NextAfter returns the id following after in order, wrapping around. When
// after is not present the first id is returned.
func NextAfter(order []UserID, after UserID) (UserID, bool) {
	if len(order) == 0 {
		return "", false
	}
	i := slices.Index(order, after)
	return order[(i+1)%len(order)], true
}
