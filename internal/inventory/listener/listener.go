package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/omnipos-catalog-service/internal/inventory"
	"github.com/fekuna/omnipos-catalog-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-catalog-service/internal/model"
	"github.com/fekuna/omnipos-catalog-service/pkg/broker"
	"github.com/fekuna/omnipos-catalog-service/pkg/database"
	"github.com/fekuna/omnipos-catalog-service/pkg/logger"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	EventOrderCreated = "OrderCreated"
	SystemActor       = "system"
)

type InventoryListener struct {
	consumer   broker.Consumer
	uc         inventory.UseCase
	tx         database.TxManager
	logger     logger.ZapLogger
	retryDelay time.Duration
}

func NewInventoryListener(consumer broker.Consumer, uc inventory.UseCase, tx database.TxManager, logger logger.ZapLogger) *InventoryListener {
	return &InventoryListener{
		consumer:   consumer,
		uc:         uc,
		tx:         tx,
		logger:     logger,
		retryDelay: time.Second,
	}
}

// Start consumes until ctx is cancelled. Messages are handled one at a time.
func (l *InventoryListener) Start(ctx context.Context) {
	l.logger.Info("Starting Inventory Kafka Listener")
	for {
		msg, err := l.consumer.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				l.logger.Info("Stopping Inventory Kafka Listener")
				return
			}
			l.logger.Error("Failed to read kafka message", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(l.retryDelay):
			}
			continue
		}
		l.processMessage(broker.ExtractTraceContext(ctx, msg), msg)
	}
}

type OrderCreatedEvent struct {
	EventID   string       `json:"event_id"`
	EventType string       `json:"event_type"`
	Payload   OrderPayload `json:"payload"`
	Timestamp time.Time    `json:"timestamp"`
}

type OrderPayload struct {
	ID      string             `json:"id"`
	StoreID string             `json:"store_id"`
	Items   []OrderItemPayload `json:"items"`
}

type OrderItemPayload struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

func (l *InventoryListener) processMessage(ctx context.Context, msg kafka.Message) {
	var event OrderCreatedEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err), zap.Int64("offset", msg.Offset))
		return
	}

	if event.EventType != EventOrderCreated {
		return
	}

	l.logger.Info("Processing OrderCreated event", zap.String("order_id", event.Payload.ID))

	// An order is applied as a whole: if any item cannot be deducted, none are.
	var failed string
	err := l.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		for _, item := range event.Payload.Items {
			if item.Quantity <= 0 {
				l.logger.Warn("Skipping order item without quantity",
					zap.String("order_id", event.Payload.ID),
					zap.String("product_id", item.ProductID),
				)
				continue
			}

			input := &dto.AdjustInventoryInput{
				ProductID:      item.ProductID,
				StoreID:        event.Payload.StoreID,
				ChangeType:     model.ChangeSale,
				QuantityChange: -item.Quantity,
				Reason:         "Order Sale",
				ReferenceID:    event.Payload.ID,
				ReferenceType:  model.RefOrder,
				ActorID:        SystemActor,
			}
			if _, err := l.uc.AdjustInventory(ctx, input); err != nil {
				failed = item.ProductID
				return err
			}
		}
		return nil
	})
	if err != nil {
		l.logger.Error("Failed to apply order to inventory; no items were deducted",
			zap.String("order_id", event.Payload.ID),
			zap.String("product_id", failed),
			zap.Error(err),
		)
	}
}
