package bot

import (
	"context"
	"log"
	"regexp"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/keremmican/zara-bot/internal/api/dto"
	"github.com/keremmican/zara-bot/internal/model"
	"github.com/keremmican/zara-bot/internal/service"
)

// productCodeRe matches the reference printed on labels, e.g. 1255/768.
var productCodeRe = regexp.MustCompile(`^\d+/\d+$`)

const handlerTimeout = 30 * time.Second

const usageText = "Merhaba! 👋\n\n" +
	"Bu bot ile Zara ürünlerinin stok durumunu takip edebilirsiniz.\n\n" +
	"Kullanım:\n" +
	"1. Takip etmek istediğiniz ürünün kodunu gönderin (örn. 1255/768).\n" +
	"2. Renk ve beden seçin.\n" +
	"3. Seçtiğiniz beden stoka girdiğinde size haber veririz!\n\n" +
	"Komutlar:\n" +
	"/bilgi - Bu yardım mesajını gösterir\n" +
	"/list - Aktif aboneliklerinizi listeler"

// Bot drives the Telegram conversation: product lookups, the color and
// size picking flow, and the continue/cancel replies to alerts.
type Bot struct {
	api                 *tgbotapi.BotAPI
	notifier            *Notifier
	productService      *service.ProductService
	subscriptionService *service.SubscriptionService
}

func NewBot(
	api *tgbotapi.BotAPI,
	notifier *Notifier,
	productService *service.ProductService,
	subscriptionService *service.SubscriptionService,
) *Bot {
	return &Bot{
		api:                 api,
		notifier:            notifier,
		productService:      productService,
		subscriptionService: subscriptionService,
	}
}

// Start consumes updates via long polling until ctx is cancelled. Updates
// are handled sequentially; a panic-free handler error is logged and the
// loop moves on.
func (b *Bot) Start(ctx context.Context) {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60

	updates := b.api.GetUpdatesChan(updateConfig)
	log.Printf("[Bot] authorized as @%s, polling for updates", b.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			handleCtx, cancel := context.WithTimeout(ctx, handlerTimeout)
			b.handleUpdate(handleCtx, update)
			cancel()
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

// ==================== Messages ====================

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	chatIDText := strconv.FormatInt(chatID, 10)

	switch message.Command() {
	case "start", "bilgi":
		if err := b.notifier.SendText(chatIDText, usageText); err != nil {
			log.Printf("[Bot] usage reply failed for chat %d: %v", chatID, err)
		}
		return
	case "list":
		if err := b.subscriptionService.SendUserSubscriptionList(ctx, chatIDText); err != nil {
			log.Printf("[Bot] list reply failed for chat %d: %v", chatID, err)
		}
		return
	}

	text := message.Text
	if !productCodeRe.MatchString(text) {
		if err := b.notifier.SendText(chatIDText,
			"Geçersiz format! Ürün kodu şu şekilde olmalıdır: 1255/768"); err != nil {
			log.Printf("[Bot] format reply failed for chat %d: %v", chatID, err)
		}
		return
	}

	b.handleProductCode(ctx, chatID, text)
}

// handleProductCode looks the code up in the store and opens the color
// picking flow.
func (b *Bot) handleProductCode(ctx context.Context, chatID int64, productCode string) {
	chatIDText := strconv.FormatInt(chatID, 10)

	products, err := b.productService.FindAllByCode(ctx, productCode)
	if err != nil {
		log.Printf("[Bot] product lookup failed for %s: %v", productCode, err)
		b.sendOrLog(chatIDText, "Bir hata oluştu, lütfen daha sonra tekrar deneyin.")
		return
	}
	if len(products) == 0 {
		b.sendOrLog(chatIDText, "Bu koda ait bir ürün bulunamadı. Kodu kontrol edip tekrar deneyin.")
		return
	}

	if err := b.notifier.SendProductCard(chatID, &products[0]); err != nil {
		log.Printf("[Bot] product card failed for chat %d: %v", chatID, err)
	}
	if err := b.notifier.SendColorOptions(chatID, productCode, products); err != nil {
		log.Printf("[Bot] color options failed for chat %d: %v", chatID, err)
	}
}

// ==================== Callbacks ====================

func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	// Acknowledge first so the client stops its spinner regardless of how
	// the command fares.
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		log.Printf("[Bot] callback ack failed: %v", err)
	}

	chatID := query.Message.Chat.ID
	chatIDText := strconv.FormatInt(chatID, 10)

	callback, err := ParseCallback(query.Data)
	if err != nil {
		log.Printf("[Bot] %v", err)
		return
	}

	switch callback.Command {
	case CommandContinue:
		if err := b.subscriptionService.ProcessContinue(ctx, chatIDText, callback.SubscriptionID); err != nil {
			log.Printf("[Bot] continue failed for subscription %d: %v", callback.SubscriptionID, err)
		}
	case CommandCancel:
		if err := b.subscriptionService.ProcessCancel(ctx, chatIDText, callback.SubscriptionID); err != nil {
			log.Printf("[Bot] cancel failed for subscription %d: %v", callback.SubscriptionID, err)
		}
	case CommandColor:
		b.handleColorPick(ctx, chatID, callback.ProductCode, callback.Color)
	case CommandSize:
		b.handleSizePick(ctx, chatID, callback.SizeID)
	}
}

func (b *Bot) handleColorPick(ctx context.Context, chatID int64, productCode, color string) {
	chatIDText := strconv.FormatInt(chatID, 10)

	sizes, err := b.productService.FindSizesByCodeAndColor(ctx, productCode, color)
	if err != nil {
		log.Printf("[Bot] size lookup failed for %s/%s: %v", productCode, color, err)
		b.sendOrLog(chatIDText, "Bir hata oluştu, lütfen daha sonra tekrar deneyin.")
		return
	}
	if len(sizes) == 0 {
		b.sendOrLog(chatIDText, "Bu renk için beden bilgisi bulunamadı.")
		return
	}

	if err := b.notifier.SendSizeOptions(chatID, sizes); err != nil {
		log.Printf("[Bot] size options failed for chat %d: %v", chatID, err)
	}
}

// handleSizePick finishes the flow: refresh the product, then either tell
// the user the size is already purchasable or create the subscription.
func (b *Bot) handleSizePick(ctx context.Context, chatID int64, sizeID int64) {
	chatIDText := strconv.FormatInt(chatID, 10)

	size, err := b.productService.GetSizeByID(ctx, sizeID)
	if err != nil || size == nil {
		log.Printf("[Bot] size %d lookup failed: %v", sizeID, err)
		b.sendOrLog(chatIDText, "Seçtiğiniz beden bulunamadı, lütfen tekrar deneyin.")
		return
	}

	product, err := b.productService.GetProductBySizeID(ctx, sizeID)
	if err != nil || product == nil {
		log.Printf("[Bot] product lookup for size %d failed: %v", sizeID, err)
		b.sendOrLog(chatIDText, "Ürün bulunamadı, lütfen tekrar deneyin.")
		return
	}

	// Pull live availability before committing; the stored row may be
	// hours old.
	probe := &model.Subscription{
		ProductCode: product.ProductCode,
		Color:       product.Color,
		Size:        size.Name,
	}
	refreshed, err := b.productService.RefreshSubscribedProduct(ctx, probe)
	if err != nil {
		log.Printf("[Bot] live refresh failed for %s/%s: %v", product.ProductCode, product.Color, err)
	}
	if refreshed != nil {
		if current := refreshed.FindSize(size.Name); current != nil {
			size = current
		}
	}

	if size.Availability.Purchasable() {
		b.sendOrLog(chatIDText, "Seçtiğiniz beden zaten stokta.")
		b.sendOrLog(chatIDText, "Başka bir ürün takip isteğiniz varsa iletebilirsiniz!")
		return
	}

	created, err := b.subscriptionService.Subscribe(ctx, dto.SubscribeRequest{
		ChatID:       chatIDText,
		ProductCode:  product.ProductCode,
		Color:        product.Color,
		Size:         size.Name,
		Availability: string(size.Availability),
	})
	if err != nil {
		log.Printf("[Bot] subscribe failed for chat %d: %v", chatID, err)
		b.sendOrLog(chatIDText, "Abonelik oluşturulamadı, lütfen daha sonra tekrar deneyin.")
		return
	}

	if created {
		b.sendOrLog(chatIDText, "Abonelik başarıyla oluşturuldu! Beden stoka girdiğinde size haber vereceğiz.")
	} else {
		b.sendOrLog(chatIDText, "Bu ürüne zaten abonesiniz!")
	}
	b.sendOrLog(chatIDText, "Başka bir ürün takip isteğiniz varsa iletebilirsiniz!")
}

func (b *Bot) sendOrLog(chatIDText, text string) {
	if err := b.notifier.SendText(chatIDText, text); err != nil {
		log.Printf("[Bot] reply failed for chat %s: %v", chatIDText, err)
	}
}
