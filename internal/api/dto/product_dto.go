package dto

// SizeResp is one size row with its last observed availability.
type SizeResp struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Availability string `json:"availability"`
}

// ProductResp is the API view of one (code, color) product variant.
type ProductResp struct {
	ID            int64      `json:"id"`
	ProductCode   string     `json:"product_code"`
	Color         string     `json:"color"`
	Name          string     `json:"name"`
	Description   string     `json:"description,omitempty"`
	Price         string     `json:"price"`
	FamilyName    string     `json:"family_name,omitempty"`
	SubfamilyName string     `json:"subfamily_name,omitempty"`
	ImageURL      string     `json:"image_url,omitempty"`
	ProductLink   string     `json:"product_link,omitempty"`
	Sizes         []SizeResp `json:"sizes"`
}

// ProductListResp is the paginated product listing envelope.
type ProductListResp struct {
	Code     int           `json:"code"`
	Message  string        `json:"message"`
	Data     []ProductResp `json:"data"`
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}

// SubscriptionResp is the API view of one subscription.
type SubscriptionResp struct {
	ID               int64  `json:"id"`
	ChatID           string `json:"chat_id"`
	ProductCode      string `json:"product_code"`
	Color            string `json:"color"`
	Size             string `json:"size"`
	LastAvailability string `json:"last_availability"`
	Active           bool   `json:"active"`
	WaitingResponse  bool   `json:"waiting_for_response"`
	SubscriptionDate string `json:"subscription_date"`
	LastUpdate       string `json:"last_update"`
}
