// Package line delivers reply messages through the LINE Messaging API.
package line

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/morinaga/stockbot-backend/internal/logger"
	"github.com/morinaga/stockbot-backend/internal/utils"
)

// The reply endpoint accepts at most this many messages per reply token.
const maxMessagesPerReply = 5

type Client interface {
	// Reply sends one or more text messages for a reply token.
	// Fire-and-forget from the engine's viewpoint: no delivery confirmation
	// is surfaced beyond the error.
	Reply(ctx context.Context, replyToken string, texts []string) error
}

type client struct {
	http *resty.Client
	log  *logger.Logger
}

func NewClient(log *logger.Logger) (Client, error) {
	token := strings.TrimSpace(utils.GetEnv("LINE_CHANNEL_ACCESS_TOKEN", "", nil))
	if token == "" {
		return nil, fmt.Errorf("missing LINE_CHANNEL_ACCESS_TOKEN")
	}
	baseURL := utils.GetEnv("LINE_API_BASE_URL", "https://api.line.me", log)

	http := resty.New()
	http.SetBaseURL(baseURL)
	http.SetAuthToken(token)
	http.SetTimeout(10 * time.Second)

	return &client{http: http, log: log.With("client", "LineClient")}, nil
}

type textMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type replyRequest struct {
	ReplyToken string        `json:"replyToken"`
	Messages   []textMessage `json:"messages"`
}

func (lc *client) Reply(ctx context.Context, replyToken string, texts []string) error {
	if replyToken == "" {
		return fmt.Errorf("reply token required")
	}
	if len(texts) == 0 {
		return nil
	}
	if len(texts) > maxMessagesPerReply {
		lc.log.Warn("Truncating reply messages", "count", len(texts), "max", maxMessagesPerReply)
		texts = texts[:maxMessagesPerReply]
	}

	messages := make([]textMessage, 0, len(texts))
	for _, t := range texts {
		messages = append(messages, textMessage{Type: "text", Text: t})
	}

	resp, err := lc.http.R().
		SetContext(ctx).
		SetBody(replyRequest{ReplyToken: replyToken, Messages: messages}).
		Post("/v2/bot/message/reply")
	if err != nil {
		return fmt.Errorf("reply request: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("reply request failed: status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
