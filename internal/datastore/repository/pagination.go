package repository

const (
	// DefaultLimit is the page size used when none is requested.
	DefaultLimit = 10
	// MinLimit and MaxLimit bound the page size.
	MinLimit = 1
	MaxLimit = 100
)

// clampPage forces limit into [MinLimit, MaxLimit] and offset to be non-negative.
func clampPage(limit, offset int) (clampedLimit, clampedOffset int) {
	switch {
	case limit < MinLimit:
		limit = MinLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}
	return limit, max(offset, 0)
}
