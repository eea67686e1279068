package controller

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/keremmican/zara-bot/internal/api/dto"
	"github.com/keremmican/zara-bot/internal/service"
	"github.com/keremmican/zara-bot/internal/task"
)

type SubscriptionController struct {
	subscriptionService *service.SubscriptionService
	subscriptionTask    *task.SubscriptionTask
}

func NewSubscriptionController(
	subscriptionService *service.SubscriptionService,
	subscriptionTask *task.SubscriptionTask,
) *SubscriptionController {
	return &SubscriptionController{
		subscriptionService: subscriptionService,
		subscriptionTask:    subscriptionTask,
	}
}

// GetSubscriptions lists one chat's subscriptions.
func (ctrl *SubscriptionController) GetSubscriptions(c *gin.Context) {
	chatID := c.Query("chat_id")
	if chatID == "" {
		c.JSON(400, gin.H{"code": 400, "message": "chat_id is required"})
		return
	}

	ctx := c.Request.Context()
	subscriptions, err := ctrl.subscriptionService.ListByChatID(ctx, chatID)
	if err != nil {
		c.JSON(500, gin.H{"code": 500, "message": "query failed: " + err.Error()})
		return
	}

	respList := make([]dto.SubscriptionResp, 0, len(subscriptions))
	for _, subscription := range subscriptions {
		respList = append(respList, dto.SubscriptionResp{
			ID:               subscription.ID,
			ChatID:           subscription.ChatID,
			ProductCode:      subscription.ProductCode,
			Color:            subscription.Color,
			Size:             subscription.Size,
			LastAvailability: subscription.LastAvailability,
			Active:           subscription.Active,
			WaitingResponse:  subscription.WaitingForResponse,
			SubscriptionDate: formatTime(subscription.SubscriptionDate),
			LastUpdate:       formatTime(subscription.LastUpdate),
		})
	}

	c.JSON(200, gin.H{
		"code":    0,
		"message": "success",
		"data":    respList,
	})
}

// CreateSubscription creates a subscription on behalf of a chat.
func (ctrl *SubscriptionController) CreateSubscription(c *gin.Context) {
	var req dto.SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"code": 400, "message": "invalid payload: " + err.Error()})
		return
	}

	ctx := c.Request.Context()
	created, err := ctrl.subscriptionService.Subscribe(ctx, req)
	if err != nil {
		c.JSON(500, gin.H{"code": 500, "message": "subscribe failed: " + err.Error()})
		return
	}
	if !created {
		c.JSON(409, gin.H{"code": 409, "message": "subscription already exists or product unknown"})
		return
	}

	c.JSON(201, gin.H{"code": 0, "message": "success"})
}

// TriggerAvailabilityCheck runs one change-detection pass outside the
// schedule.
func (ctrl *SubscriptionController) TriggerAvailabilityCheck(c *gin.Context) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := ctrl.subscriptionTask.RunAvailabilityCheck(ctx); err != nil {
			log.Printf("[SubscriptionController] manual check failed: %v", err)
		}
	}()

	c.JSON(202, gin.H{"code": 0, "message": "availability check started"})
}
