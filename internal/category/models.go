package category

import "github.com/abduss/forum/internal/user"

// Category groups posts. Role is the minimum role allowed to see it.
type Category struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Role        user.Role `json:"role"`
}

// Page is one page of categories.
type Page struct {
	Count      int        `json:"count"`
	Categories []Category `json:"categories"`
}

// Input carries the editable fields of a category.
type Input struct {
	Name        string
	Description string
	Role        user.Role
}
