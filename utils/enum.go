package utils

// CycleEnumPtr steps an enum value forward or backward, wrapping at max.
func CycleEnumPtr[T ~int](current *T, direction int, max T) {
	*current = (*current + T(direction) + max + 1) % (max + 1)
}
