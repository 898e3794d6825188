package stock

import (
	"context"
	"fmt"

	"github.com/jnardiello/printfarmhq-sub002/internal/converter"
	"github.com/jnardiello/printfarmhq-sub002/internal/model"
	"github.com/jnardiello/printfarmhq-sub002/platform/kafka"
)

// Producer publishes low-stock advisories keyed by material id, so all
// events for one material land on the same partition in order.
type Producer struct {
	producer kafka.Producer
}

func NewProducer(producer kafka.Producer) *Producer {
	return &Producer{producer: producer}
}

func (p *Producer) NotifyLowStock(ctx context.Context, event model.LowStockEvent) error {
	value, err := converter.LowStockEventToJSON(event)
	if err != nil {
		return fmt.Errorf("encode low stock event: %w", err)
	}

	return p.producer.Send(ctx, []byte(event.MaterialID.String()), value)
}
