package model

// Category mirrors one node of the remote category tree. The table is
// reference data: every refresh rebuilds it wholesale, so rows carry no
// state of their own.
type Category struct {
	BaseModel

	// --- Source identity ---
	ApiID int64  `gorm:"index;not null"` // stable id assigned by the catalog source
	Name  string `gorm:"size:255"`

	// --- Hierarchy ---
	ParentCategoryID *int64     `gorm:"index"`
	Subcategories    []Category `gorm:"foreignKey:ParentCategoryID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	HasSubcategories bool       `gorm:"default:false"` // false marks a leaf, the unit of product-fetch work
	MenuLevel        int        `gorm:"default:0"`

	// --- Display metadata ---
	SectionName string `gorm:"size:100"`
	Layout      string `gorm:"size:50"`
	ContentType string `gorm:"size:50"`
	GridLayout  string `gorm:"size:50"`
	Key         string `gorm:"size:100"`
	Redirected  bool   `gorm:"default:false"`
	Selected    bool   `gorm:"default:false"`
	Irrelevant  bool   `gorm:"default:false"`
}

func (Category) TableName() string {
	return "categories"
}

// IsLeaf reports whether products are fetched directly under this category.
func (c *Category) IsLeaf() bool {
	return !c.HasSubcategories
}
