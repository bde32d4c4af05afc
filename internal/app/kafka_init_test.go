package app

import (
	"testing"

	log "github.com/sirupsen/logrus"
)

func TestInitKafkaProducer_Disabled(t *testing.T) {
	logger := log.WithField("test", "kafka")

	// Пустой и пробельный POS_KAFKA_BROKERS — Kafka отключена,
	// события заказов уходят в logPublisher.
	for _, brokers := range []string{"", "   ", " , , "} {
		producer, err := initKafkaProducer(brokers, logger)
		if err != nil {
			t.Errorf("brokers %q: expected no error, got %v", brokers, err)
		}
		if producer != nil {
			t.Errorf("brokers %q: expected nil producer", brokers)
		}
	}
}

func TestInitKafkaProducer_UnreachableBrokers(t *testing.T) {
	logger := log.WithField("test", "kafka")

	producer, err := initKafkaProducer("pos-kafka-1:9999", logger)
	if err == nil {
		t.Error("expected error for unreachable broker")
	}
	if producer != nil {
		t.Error("expected nil producer on error")
	}
}

func TestSplitBrokers(t *testing.T) {
	brokers := splitBrokers(" pos-kafka-1:9092, ,pos-kafka-2:9092 ")
	if len(brokers) != 2 {
		t.Fatalf("unexpected brokers count: got=%d want=2", len(brokers))
	}
	if brokers[0] != "pos-kafka-1:9092" || brokers[1] != "pos-kafka-2:9092" {
		t.Fatalf("unexpected brokers: %+v", brokers)
	}
}

func TestCloseKafka_NilProducer(t *testing.T) {
	logger := log.WithField("test", "kafka")

	// Не должно паниковать
	closeKafka(nil, logger)
}
