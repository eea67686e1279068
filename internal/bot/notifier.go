package bot

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/keremmican/zara-bot/internal/model"
)

const placeholderImageURL = "https://via.placeholder.com/300"

const summaryDateLayout = "02 January 2006, 15:04"

// Notifier sends subscription lifecycle messages over the Telegram bot API.
type Notifier struct {
	api *tgbotapi.BotAPI
}

func NewNotifier(api *tgbotapi.BotAPI) *Notifier {
	return &Notifier{api: api}
}

// SendAvailabilityAlert announces that the watched size came back in stock
// and asks the user to keep or end the subscription.
func (n *Notifier) SendAvailabilityAlert(subscription *model.Subscription, size *model.Size) error {
	chatID, err := parseChatID(subscription.ChatID)
	if err != nil {
		return err
	}

	text := fmt.Sprintf(
		"🎉 Ürün stokta!\n\n%s (%s / %s) şu anda satışta.\n%s\n\nAboneliğinize devam etmek istiyor musunuz?",
		subscription.ProductName, subscription.Color, size.Name, subscription.ProductLink)

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Aboneliğe devam et", ContinueCallback(subscription.ID)),
			tgbotapi.NewInlineKeyboardButtonData("Aboneliği sonlandır", CancelCallback(subscription.ID)),
		),
	)
	_, err = n.api.Send(msg)
	return err
}

// SendTimeoutNotice tells the user their subscription went passive because
// the in-stock alert was never answered.
func (n *Notifier) SendTimeoutNotice(subscription *model.Subscription) error {
	chatID, err := parseChatID(subscription.ChatID)
	if err != nil {
		return err
	}

	text := fmt.Sprintf(
		"⏰ *Aboneliğiniz zaman aşımına uğradı!*\n\n%s (%s / %s) aboneliğiniz yanıt alınamadığı için pasif hale getirildi.",
		subscription.ProductName, subscription.Color, subscription.Size)

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, err = n.api.Send(msg)
	return err
}

// SendSubscriptionSummary sends one digest listing the given subscriptions.
func (n *Notifier) SendSubscriptionSummary(chatIDText string, subscriptions []model.Subscription) error {
	chatID, err := parseChatID(chatIDText)
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString("📜 Güncel Abonelik Listesi:\n")
	for i, subscription := range subscriptions {
		b.WriteString(fmt.Sprintf("\n%d. %s (%s / %s)\n   Başlangıç: %s\n   %s\n",
			i+1,
			subscription.ProductName,
			subscription.Color,
			subscription.Size,
			subscription.SubscriptionDate.Format(summaryDateLayout),
			subscription.ProductLink))
	}

	_, err = n.api.Send(tgbotapi.NewMessage(chatID, b.String()))
	return err
}

// SendText sends a plain text reply.
func (n *Notifier) SendText(chatIDText, text string) error {
	chatID, err := parseChatID(chatIDText)
	if err != nil {
		return err
	}
	_, err = n.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

// SendProductCard sends the product photo with a caption describing it.
func (n *Notifier) SendProductCard(chatID int64, product *model.Product) error {
	imageURL := product.ImageURL
	if imageURL == "" {
		imageURL = placeholderImageURL
	}

	caption := fmt.Sprintf("%s\n\nFiyat: %s TL\n%s",
		product.Name, product.Price.StringFixed(2), product.ProductLink)

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(imageURL))
	photo.Caption = caption
	_, err := n.api.Send(photo)
	return err
}

// SendColorOptions offers one button per color variant of a product code.
func (n *Notifier) SendColorOptions(chatID int64, productCode string, products []model.Product) error {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(products))
	for _, product := range products {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(product.Color, ColorCallback(productCode, product.Color)),
		))
	}

	msg := tgbotapi.NewMessage(chatID, "Lütfen bir renk seçin:")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	_, err := n.api.Send(msg)
	return err
}

// SendSizeOptions offers one button per size, labelled with its live
// availability.
func (n *Notifier) SendSizeOptions(chatID int64, sizes []model.Size) error {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(sizes))
	for _, size := range sizes {
		label := fmt.Sprintf("%s (%s)", size.Name, size.Availability)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, SizeCallback(size.ID)),
		))
	}

	msg := tgbotapi.NewMessage(chatID, "Lütfen bir beden seçin:")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	_, err := n.api.Send(msg)
	return err
}

func parseChatID(chatIDText string) (int64, error) {
	chatID, err := strconv.ParseInt(chatIDText, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed chat id %q: %w", chatIDText, err)
	}
	return chatID, nil
}
