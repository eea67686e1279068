package dto

// SubscribeRequest captures one watch request: the exact
// (chat, product code, color, size) tuple plus the availability observed
// at subscribe time.
type SubscribeRequest struct {
	ChatID       string `json:"chat_id" binding:"required"`
	ProductCode  string `json:"product_code" binding:"required"`
	Color        string `json:"color" binding:"required"`
	Size         string `json:"size" binding:"required"`
	Availability string `json:"availability"`
}
