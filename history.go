package booking

// TruncateRecent keeps the most recent limit entries of list, assuming the
// list is ordered oldest first. A limit of zero or less disables truncation.
func TruncateRecent[T any](list []T, limit int) []T {
	if limit <= 0 || len(list) <= limit {
		return list
	}
	return list[len(list)-limit:]
}
