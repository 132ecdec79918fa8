package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/morinaga/stockbot-backend/internal/clients/line"
	redisclient "github.com/morinaga/stockbot-backend/internal/clients/redis"
	"github.com/morinaga/stockbot-backend/internal/logger"
	"github.com/morinaga/stockbot-backend/internal/services"
)

// eventConcurrency bounds the per-request fanout over webhook events.
const eventConcurrency = 8

type WebhookHandler struct {
	log          *logger.Logger
	userService  services.UserService
	stockService services.StockService
	lineClient   line.Client
	deduper      redisclient.Deduper // nil disables dedup
}

func NewWebhookHandler(
	log *logger.Logger,
	userService services.UserService,
	stockService services.StockService,
	lineClient line.Client,
	deduper redisclient.Deduper,
) *WebhookHandler {
	handlerLog := log.With("handler", "WebhookHandler")
	return &WebhookHandler{
		log:          handlerLog,
		userService:  userService,
		stockService: stockService,
		lineClient:   lineClient,
		deduper:      deduper,
	}
}

type webhookPayload struct {
	Destination string         `json:"destination"`
	Events      []webhookEvent `json:"events"`
}

type webhookEvent struct {
	Type            string `json:"type"`
	WebhookEventID  string `json:"webhookEventId"`
	DeliveryContext struct {
		IsRedelivery bool `json:"isRedelivery"`
	} `json:"deliveryContext"`
	ReplyToken string `json:"replyToken"`
	Source     struct {
		Type   string `json:"type"`
		UserID string `json:"userId"`
	} `json:"source"`
	Message struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"message"`
}

// Handle fans the batch's events out concurrently. A failing event is logged
// and never fails the batch: the platform treats non-200 as "redeliver
// everything", which would replay the already-processed events too.
func (wh *WebhookHandler) Handle(c *gin.Context) {
	var payload webhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	g, ctx := errgroup.WithContext(c.Request.Context())
	g.SetLimit(eventConcurrency)
	for _, event := range payload.Events {
		event := event
		g.Go(func() error {
			wh.handleEvent(ctx, event)
			return nil
		})
	}
	_ = g.Wait()

	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

func (wh *WebhookHandler) handleEvent(ctx context.Context, event webhookEvent) {
	traceID := event.WebhookEventID
	if traceID == "" {
		traceID = uuid.NewString()
	}
	log := wh.log.With("event_id", traceID, "event_type", event.Type)

	if wh.deduper != nil && event.WebhookEventID != "" {
		seen, err := wh.deduper.Seen(ctx, event.WebhookEventID)
		if err != nil {
			log.Warn("Event dedup check failed, processing anyway", "error", err)
		} else if seen {
			log.Debug("Skipping already-processed event", "redelivery", event.DeliveryContext.IsRedelivery)
			return
		}
	}

	switch event.Type {
	case "follow":
		if _, err := wh.userService.ResolveOrCreate(ctx, event.Source.UserID); err != nil {
			log.Error("Failed to register followed user", "error", err)
		}
	case "message":
		wh.handleMessageEvent(ctx, log, event)
	default:
		log.Debug("Ignoring event type")
	}
}

func (wh *WebhookHandler) handleMessageEvent(ctx context.Context, log *logger.Logger, event webhookEvent) {
	if event.Message.Type != "text" || event.Source.UserID == "" {
		return
	}

	user, err := wh.userService.ResolveOrCreate(ctx, event.Source.UserID)
	if err != nil {
		log.Error("Failed to resolve user", "error", err)
		return
	}

	replies, err := wh.stockService.HandleMessage(ctx, user.ID, event.Message.Text)
	if err != nil {
		log.Error("Failed to handle message", "user_id", user.ID, "error", err)
		return
	}
	if len(replies) == 0 {
		return
	}

	if err := wh.lineClient.Reply(ctx, event.ReplyToken, replies); err != nil {
		log.Error("Failed to deliver replies", "count", len(replies), "error", err)
	}
}
