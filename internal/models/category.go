package models

// Category is a label referenced by records
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
