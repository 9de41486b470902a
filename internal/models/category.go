package models

// Category is a user-defined top-level transaction classification.
// Its subcategories are owned exclusively and removed with it.
type Category struct {
	Base
	UserID uint   `gorm:"not null;index" json:"user_id"`
	Name   string `gorm:"serializer:protected;not null" json:"name"`

	// Relationships
	SubCategories []SubCategory `gorm:"foreignKey:CategoryID" json:"subcategories,omitempty"`
}

// SubCategory is a second-level classification belonging to one category.
// The back-reference is used only for membership checks.
type SubCategory struct {
	Base
	CategoryID uint   `gorm:"not null;index" json:"category_id"`
	Name       string `gorm:"serializer:protected;not null" json:"name"`
}
