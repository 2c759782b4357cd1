// Package notification — fire-and-forget доставка подтверждений заказа.
// Диспетчер вызывается строго после коммита; его сбои логируются
// и никогда не влияют на результат транзакции.
package notification

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/messaging/kafka"
)

const defaultQueueSize = 256

// Publisher — транспорт, доставляющий подтверждение наружу.
type Publisher interface {
	Publish(confirmation domain.OrderConfirmation) error
}

// KafkaPublisher публикует подтверждение как событие order.confirmed.
type KafkaPublisher struct {
	producer *kafka.Producer
}

// NewKafkaPublisher оборачивает producer в Publisher.
func NewKafkaPublisher(producer *kafka.Producer) *KafkaPublisher {
	return &KafkaPublisher{producer: producer}
}

// Publish отправляет событие в топик уведомлений, ключ — id заказа.
func (p *KafkaPublisher) Publish(confirmation domain.OrderConfirmation) error {
	event := kafka.NewOrderConfirmedEvent(confirmation)
	return p.producer.PublishEvent(kafka.TopicOrderNotifications, event.OrderID, event)
}

// Dispatcher — очередь подтверждений с одним воркером-доставщиком.
type Dispatcher struct {
	queue     chan domain.OrderConfirmation
	publisher Publisher
	logger    *log.Entry

	startOnce sync.Once
	done      chan struct{}
}

// Option настраивает Dispatcher.
type Option func(*Dispatcher)

// WithQueueSize задаёт ёмкость очереди подтверждений.
func WithQueueSize(size int) Option {
	return func(d *Dispatcher) {
		if size > 0 {
			d.queue = make(chan domain.OrderConfirmation, size)
		}
	}
}

// WithLogger задаёт logger диспетчера.
func WithLogger(logger *log.Entry) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDispatcher создаёт диспетчер поверх транспорта доставки.
func NewDispatcher(publisher Publisher, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		queue:     make(chan domain.OrderConfirmation, defaultQueueSize),
		publisher: publisher,
		logger:    log.New().WithField("component", "notification"),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start запускает воркер доставки; повторные вызовы игнорируются.
func (d *Dispatcher) Start(ctx context.Context) {
	d.startOnce.Do(func() {
		go d.run(ctx)
	})
}

func (d *Dispatcher) run(ctx context.Context) {
	defer close(d.done)
	for {
		select {
		case <-ctx.Done():
			// Дорабатываем то, что уже в очереди, и выходим.
			for {
				select {
				case confirmation := <-d.queue:
					d.deliver(confirmation)
				default:
					return
				}
			}
		case confirmation := <-d.queue:
			d.deliver(confirmation)
		}
	}
}

func (d *Dispatcher) deliver(confirmation domain.OrderConfirmation) {
	if err := d.publisher.Publish(confirmation); err != nil {
		// Заказ уже закоммичен: сбой доставки только логируем.
		d.logger.WithError(err).WithField("order_id", confirmation.Summary.ID).
			Warn("failed to deliver order confirmation")
		return
	}
	d.logger.WithFields(log.Fields{
		"order_id":  confirmation.Summary.ID,
		"recipient": confirmation.RecipientEmail,
	}).Debug("order confirmation dispatched")
}

// NotifyOrderConfirmed ставит подтверждение в очередь, не блокируя
// вызывающего; при переполненной очереди подтверждение отбрасывается.
func (d *Dispatcher) NotifyOrderConfirmed(confirmation domain.OrderConfirmation) {
	select {
	case d.queue <- confirmation:
	default:
		d.logger.WithField("order_id", confirmation.Summary.ID).
			Warn("notification queue full, confirmation dropped")
	}
}

// Wait блокируется до завершения воркера (после отмены контекста Start).
func (d *Dispatcher) Wait() {
	<-d.done
}

// LogDispatcher пишет подтверждение в лог; используется, когда Kafka
// не сконфигурирована.
type LogDispatcher struct {
	logger *log.Entry
}

// NewLogDispatcher создаёт лог-диспетчер.
func NewLogDispatcher(logger *log.Entry) *LogDispatcher {
	if logger == nil {
		logger = log.New().WithField("component", "notification-log")
	}
	return &LogDispatcher{logger: logger}
}

// NotifyOrderConfirmed логирует подтверждение вместо доставки.
func (l *LogDispatcher) NotifyOrderConfirmed(confirmation domain.OrderConfirmation) {
	l.logger.WithFields(log.Fields{
		"order_id":  confirmation.Summary.ID,
		"recipient": confirmation.RecipientEmail,
		"subject":   confirmation.EmailSubject(),
	}).Info("order confirmed")
}

var _ domain.NotificationDispatcher = (*Dispatcher)(nil)
var _ domain.NotificationDispatcher = (*LogDispatcher)(nil)
