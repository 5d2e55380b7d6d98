package usecase

// Page is one slice of a listing plus the size of the whole listing.
type Page[T any] struct {
	Items  []T
	Total  int64
	Limit  int
	Offset int
}
