package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/safar/go-marketplace/internal/models"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Producer publishes order events asynchronously through an inbox channel so
// checkout latency never waits on the broker. Publishing is best-effort:
// a committed order stands whether or not its event made it out.
type Producer struct {
	w       *kafka.Writer
	inbox   chan kafka.Message
	closeCh chan struct{}
	service string
	logger  *zap.Logger

	mu      sync.Mutex
	stopped bool
}

func NewProducer(brokers []string, topic, service string, logger *zap.Logger) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Async:        true,
		},
		inbox:   make(chan kafka.Message, 256),
		closeCh: make(chan struct{}),
		service: service,
		logger:  logger,
	}
}

func (p *Producer) Start(ctx context.Context) {
	go func() {
		defer close(p.closeCh)
		for {
			select {
			case <-ctx.Done():
				p.shutdown()
				return
			case m := <-p.inbox:
				p.write(m)
			}
		}
	}()
}

// shutdown stops intake, then drains what was enqueued before the stop. The
// inbox is never closed: handlers finishing in-flight requests may still call
// PublishOrderPlaced after cancellation, and their sends must not panic.
func (p *Producer) shutdown() {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()

	for {
		select {
		case m := <-p.inbox:
			p.write(m)
		default:
			_ = p.w.Close()
			return
		}
	}
}

// Done is closed once the producer has drained and released its writer.
func (p *Producer) Done() <-chan struct{} {
	return p.closeCh
}

func (p *Producer) write(m kafka.Message) {
	if err := p.w.WriteMessages(context.Background(), m); err != nil {
		p.logger.Warn("publish order event failed",
			zap.String("key", string(m.Key)),
			zap.Error(err))
	}
}

// PublishOrderPlaced enqueues an OrderPlaced envelope for a committed order.
func (p *Producer) PublishOrderPlaced(order *models.Order) {
	lines := make([]OrderLinePayload, 0, len(order.Lines))
	for _, l := range order.Lines {
		lines = append(lines, OrderLinePayload{
			ProductID: l.ProductID,
			SellerID:  l.SellerID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice.String(),
			Subtotal:  l.Subtotal.String(),
		})
	}

	ev := Envelope{
		EventID:      uuid.NewString(),
		EventType:    EventOrderPlaced,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     p.service,
		Payload: MustMarshal(OrderPlacedPayload{
			OrderID:     order.OrderID,
			CustomerID:  order.CustomerID,
			Lines:       lines,
			TotalAmount: order.TotalAmount.String(),
			PlacedAt:    order.PlacedAt,
		}),
	}

	value, err := json.Marshal(ev)
	if err != nil {
		p.logger.Warn("encode order event failed", zap.Error(err))
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		p.logger.Warn("producer stopped, dropping order event",
			zap.String("order_id", order.OrderID))
		return
	}

	select {
	case p.inbox <- kafka.Message{
		Key:   PartitionKey(order.OrderID),
		Value: value,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "x-event-type", Value: []byte(EventOrderPlaced)},
			{Key: "x-event-version", Value: []byte("1")},
		},
	}:
	default:
		p.logger.Warn("order event inbox full, dropping",
			zap.String("order_id", order.OrderID))
	}
}
