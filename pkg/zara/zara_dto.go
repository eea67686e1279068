package zara

// Raw documents returned by the catalog source. The source adds fields
// freely, so DTOs only name what the pipeline reads and encoding/json
// ignores the rest.

// ==================== Category tree ====================

type CategoriesResponse struct {
	Categories []CategoryDTO `json:"categories"`
}

type CategoryDTO struct {
	ID               int64         `json:"id"`
	Name             string        `json:"name"`
	SectionName      string        `json:"sectionName"`
	Layout           string        `json:"layout"`
	ContentType      string        `json:"contentType"`
	GridLayout       string        `json:"gridLayout"`
	Key              string        `json:"key"`
	Redirected       bool          `json:"redirected"`
	Selected         bool          `json:"selected"`
	HasSubcategories bool          `json:"hasSubcategories"`
	Irrelevant       bool          `json:"irrelevant"`
	MenuLevel        int           `json:"menuLevel"`
	Subcategories    []CategoryDTO `json:"subcategories"`
}

// ==================== Category product listing ====================

type ProductGroupsResponse struct {
	ProductGroups []ProductGroup `json:"productGroups"`
}

type ProductGroup struct {
	Type     string           `json:"type"`
	Elements []ProductElement `json:"elements"`
}

type ProductElement struct {
	ID                   string                `json:"id"`
	Name                 string                `json:"name"`
	Type                 string                `json:"type"`
	Layout               string                `json:"layout"`
	CommercialComponents []CommercialComponent `json:"commercialComponents"`
}

// CommercialComponent is one sellable item in a listing. The listing is a
// coarse stub: full color/size data only comes from the per-item detail
// document, addressed through the Seo identifiers.
type CommercialComponent struct {
	ID            int64  `json:"id"`
	Reference     string `json:"reference"`
	Type          string `json:"type"`
	Kind          string `json:"kind"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	Price         int64  `json:"price"` // minor units
	FamilyName    string `json:"familyName"`
	SubfamilyName string `json:"subfamilyName"`
	Seo           *Seo   `json:"seo"`
}

type Seo struct {
	Keyword          string `json:"keyword"`
	SeoProductID     string `json:"seoProductId"`
	DiscernProductID string `json:"discernProductId"`
}

// ==================== Product detail ====================

// ProductResponse wraps the detail page payload.
type ProductResponse struct {
	Product ProductNode `json:"product"`
}

type ProductNode struct {
	Detail *DetailDTO `json:"detail"`
}

// ProductsDetailsItem is one entry of the batch products-details payload,
// which is a bare JSON array.
type ProductsDetailsItem struct {
	Detail *DetailDTO `json:"detail"`
}

type DetailDTO struct {
	DisplayReference string     `json:"displayReference"`
	Colors           []ColorDTO `json:"colors"`
}

type ColorDTO struct {
	Name    string    `json:"name"`
	HexCode string    `json:"hexCode"`
	Price   int64     `json:"price"` // minor units
	Xmedia  []XMedia  `json:"xmedia"`
	Sizes   []SizeDTO `json:"sizes"`
}

type XMedia struct {
	Datatype string `json:"datatype"`
	Set      int    `json:"set"`
	Type     string `json:"type"`
	Kind     string `json:"kind"`
	Path     string `json:"path"`
	Name     string `json:"name"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	URL      string `json:"url"` // templated with a {width} placeholder
}

type SizeDTO struct {
	Name         string `json:"name"`
	Availability string `json:"availability"`
}
