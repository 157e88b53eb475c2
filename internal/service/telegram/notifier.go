package telegram

import (
	"context"
	"fmt"
	"time"

	xhttp "PulseGate/pkg/http"
	xlogger "PulseGate/pkg/logger"

	"github.com/sony/gobreaker"
)

// MaxMessageLen is the bot API hard cap minus formatting headroom.
const MaxMessageLen = 3900

// Notifier delivers rendered alerts through the Telegram bot API. Sends run
// behind a circuit breaker so a dead bot channel cannot stall evaluator
// invocations with repeated timeouts.
type Notifier struct {
	apiURL  string
	chatID  string
	http    *xhttp.Client
	breaker *gobreaker.CircuitBreaker
	logger  *xlogger.Logger
}

type sendMessageReq struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type sendMessageResp struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code,omitempty"`
	Description string `json:"description,omitempty"`
}

// New creates a Telegram notifier.
func New(botToken, chatID string, timeout time.Duration, logger *xlogger.Logger) *Notifier {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "telegram",
		Timeout: 2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
	return &Notifier{
		apiURL:  fmt.Sprintf("https://api.telegram.org/bot%s", botToken),
		chatID:  chatID,
		http:    xhttp.NewClient(xhttp.WithTimeout(timeout)),
		breaker: breaker,
		logger:  logger,
	}
}

// Name returns the provider name.
func (n *Notifier) Name() string { return "telegram" }

// Send delivers one message, truncating to the API cap.
func (n *Notifier) Send(ctx context.Context, text string) error {
	if len(text) > MaxMessageLen {
		text = text[:MaxMessageLen]
	}

	_, err := n.breaker.Execute(func() (interface{}, error) {
		var resp sendMessageResp
		err := n.http.SendAndParse(ctx, &xhttp.RequestOptions{
			Method: xhttp.MethodPost,
			URL:    n.apiURL + "/sendMessage",
			Body: sendMessageReq{
				ChatID:                n.chatID,
				Text:                  text,
				DisableWebPagePreview: true,
			},
		}, &resp)
		if err != nil {
			return nil, fmt.Errorf("telegram send: %w", err)
		}
		if !resp.OK {
			return nil, fmt.Errorf("telegram api error %d: %s", resp.ErrorCode, resp.Description)
		}
		return nil, nil
	})
	if err != nil {
		n.logger.Error("telegram delivery failed", xlogger.Error(err))
		return err
	}
	return nil
}

// NopNotifier drops messages; used when telegram is disabled.
type NopNotifier struct{}

func (NopNotifier) Send(context.Context, string) error { return nil }
func (NopNotifier) Name() string                       { return "nop" }
