package matrix

// The functions below compute new ordered lists without touching their
// input. Callers store the result with Matrix.ReplaceSection.

// IndexOf returns the position of id in items, or -1.
func IndexOf(items []Item, id string) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// Clamp limits index to [0, n].
func Clamp(index, n int) int {
	if index < 0 {
		return 0
	}
	if index > n {
		return n
	}
	return index
}

// RemoveByID returns items without the first item matching id, and that item.
func RemoveByID(items []Item, id string) ([]Item, Item, bool) {
	i := IndexOf(items, id)
	if i < 0 {
		return items, Item{}, false
	}
	out := make([]Item, 0, len(items)-1)
	out = append(out, items[:i]...)
	out = append(out, items[i+1:]...)
	return out, items[i], true
}

// InsertAt returns items with it inserted at index, clamped to [0, len].
// A nil index appends.
func InsertAt(items []Item, it Item, index *int) []Item {
	pos := len(items)
	if index != nil {
		pos = Clamp(*index, len(items))
	}
	out := make([]Item, 0, len(items)+1)
	out = append(out, items[:pos]...)
	out = append(out, it)
	out = append(out, items[pos:]...)
	return out
}

// MoveWithin reorders id inside one list. index is expressed against the list
// before removal, so it is shifted down by one when it lies past the item's
// original position.
func MoveWithin(items []Item, id string, index int) ([]Item, bool) {
	from := IndexOf(items, id)
	if from < 0 {
		return items, false
	}
	if index > from {
		index--
	}
	rest, it, _ := RemoveByID(items, id)
	index = Clamp(index, len(rest))
	return InsertAt(rest, it, &index), true
}
