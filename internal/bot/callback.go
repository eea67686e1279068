package bot

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Callback data commands carried by inline keyboard buttons.
const (
	CommandContinue = "continue"
	CommandCancel   = "cancel"
	CommandColor    = "color"
	CommandSize     = "size"
)

// Callback is the decoded form of one inline button press.
type Callback struct {
	Command        string
	SubscriptionID int64
	SizeID         int64
	ProductCode    string
	Color          string
}

// ContinueCallback encodes the keep-watching choice for a subscription.
func ContinueCallback(subscriptionID int64) string {
	return fmt.Sprintf("%s_%d", CommandContinue, subscriptionID)
}

// CancelCallback encodes the stop-watching choice for a subscription.
func CancelCallback(subscriptionID int64) string {
	return fmt.Sprintf("%s_%d", CommandCancel, subscriptionID)
}

// ColorCallback encodes a color pick. The color name is query-escaped so
// names with spaces or underscores survive the underscore-delimited format.
func ColorCallback(productCode, color string) string {
	return fmt.Sprintf("%s_%s_%s", CommandColor, productCode, url.QueryEscape(color))
}

// SizeCallback encodes a size pick by its row id.
func SizeCallback(sizeID int64) string {
	return fmt.Sprintf("%s_%d", CommandSize, sizeID)
}

// ParseCallback decodes callback data back into its command and arguments.
func ParseCallback(data string) (Callback, error) {
	parts := strings.SplitN(data, "_", 3)
	if len(parts) < 2 {
		return Callback{}, fmt.Errorf("malformed callback data %q", data)
	}

	callback := Callback{Command: parts[0]}
	switch parts[0] {
	case CommandContinue, CommandCancel:
		id, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return Callback{}, fmt.Errorf("malformed subscription id in %q: %w", data, err)
		}
		callback.SubscriptionID = id
	case CommandSize:
		id, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return Callback{}, fmt.Errorf("malformed size id in %q: %w", data, err)
		}
		callback.SizeID = id
	case CommandColor:
		if len(parts) < 3 {
			return Callback{}, fmt.Errorf("malformed callback data %q", data)
		}
		color, err := url.QueryUnescape(parts[2])
		if err != nil {
			return Callback{}, fmt.Errorf("malformed color in %q: %w", data, err)
		}
		callback.ProductCode = parts[1]
		callback.Color = color
	default:
		return Callback{}, fmt.Errorf("unknown callback command %q", parts[0])
	}
	return callback, nil
}
