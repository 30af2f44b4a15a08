package domain

// Service is a billable catalog entry. Price is carried as a decimal string
// exactly as the numeric column stores it.
type Service struct {
	ID     string
	Title  string
	Price  string
	Active bool
}
