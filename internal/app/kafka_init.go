package app

import (
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/messaging/kafka"
)

// initKafkaProducer создаёт producer, если брокеры заданы. Недоступный
// брокер не валит запуск: сервис продолжает без Kafka.
func initKafkaProducer(brokers []string, logger *log.Entry) *kafka.Producer {
	if len(brokers) == 0 {
		return nil
	}

	producer, err := kafka.NewProducer(brokers)
	if err != nil {
		logger.WithError(err).Warn("kafka producer не создан, продолжаем без kafka")
		return nil
	}

	logger.WithField("brokers", brokers).Info("kafka producer инициализирован")
	return producer
}

// closeKafka закрывает producer, если он был создан.
func closeKafka(producer *kafka.Producer, logger *log.Entry) {
	if producer == nil {
		return
	}

	if err := producer.Close(); err != nil {
		logger.WithError(err).Warn("ошибка закрытия kafka producer")
	} else {
		logger.Info("kafka producer закрыт")
	}
}
