// Package collection provides a fixed-capacity ordered list used for the
// bounded tables held by managers (probes, cloud links, observers).
package collection

// List is an ordered sequence whose capacity is fixed at construction.
// Storage is allocated once; Add never grows it.
type List[T any] struct {
	items []T
}

// New returns an empty List able to hold capacity elements.
// A negative capacity is treated as zero.
func New[T any](capacity int) *List[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &List[T]{items: make([]T, 0, capacity)}
}

// Len returns the number of stored elements.
func (l *List[T]) Len() int { return len(l.items) }

// Cap returns the fixed capacity.
func (l *List[T]) Cap() int { return cap(l.items) }

// Full reports whether no more elements can be added.
func (l *List[T]) Full() bool { return len(l.items) == cap(l.items) }

// Add appends v. It returns false and leaves the list unchanged when full.
func (l *List[T]) Add(v T) bool {
	if l.Full() {
		return false
	}
	l.items = append(l.items, v)
	return true
}

// AddZero appends a zero-valued element and returns its index.
func (l *List[T]) AddZero() (int, bool) {
	var zero T
	if !l.Add(zero) {
		return -1, false
	}
	return len(l.items) - 1, true
}

// Delete removes the element at i, shifting later elements down by one.
// An out-of-range index leaves the list unchanged and returns false.
func (l *List[T]) Delete(i int) bool {
	if i < 0 || i >= len(l.items) {
		return false
	}
	copy(l.items[i:], l.items[i+1:])
	var zero T
	l.items[len(l.items)-1] = zero
	l.items = l.items[:len(l.items)-1]
	return true
}

// Clear removes every element. Capacity is retained.
func (l *List[T]) Clear() {
	clear(l.items)
	l.items = l.items[:0]
}

// At returns the element at i.
func (l *List[T]) At(i int) (T, bool) {
	if i < 0 || i >= len(l.items) {
		var zero T
		return zero, false
	}
	return l.items[i], true
}

// Ref returns a pointer to the element at i for in-place mutation, or nil
// when i is out of range. The pointer is invalidated by Delete and Clear.
func (l *List[T]) Ref(i int) *T {
	if i < 0 || i >= len(l.items) {
		return nil
	}
	return &l.items[i]
}

// Set replaces the element at i.
func (l *List[T]) Set(i int, v T) bool {
	if i < 0 || i >= len(l.items) {
		return false
	}
	l.items[i] = v
	return true
}

// Each calls fn for every element in order until fn returns false.
func (l *List[T]) Each(fn func(i int, v T) bool) {
	for i, v := range l.items {
		if !fn(i, v) {
			return
		}
	}
}

// IndexFunc returns the index of the first element satisfying pred, or -1.
func (l *List[T]) IndexFunc(pred func(T) bool) int {
	for i, v := range l.items {
		if pred(v) {
			return i
		}
	}
	return -1
}

// Slice returns a copy of the stored elements.
func (l *List[T]) Slice() []T {
	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}
