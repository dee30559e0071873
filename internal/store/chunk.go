package store

// DefaultBatchSize caps the rows written by a single statement.
const DefaultBatchSize = 500

// Chunk splits items into consecutive slices of at most size elements.
// A non-positive size uses DefaultBatchSize.
func Chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var out [][]T
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, items[start:end:end])
	}
	return out
}
