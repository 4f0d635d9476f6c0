// Package utils holds small generic helpers with no domain meaning of
// their own.
package utils

// Value dereferences v, substituting the zero value when v is nil.
func Value[T any](v *T) T {
	if v == nil {
		return *new(T)
	}
	return *v
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
