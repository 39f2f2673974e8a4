package events

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 3

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, errors.Wrap(err, "kafka producer")
	}
	return newKafkaPublisher(producer, topic), nil
}

func newKafkaPublisher(producer sarama.SyncProducer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

// Publish keys messages by subject so events of one transfer stay ordered
// within a partition.
func (p *KafkaPublisher) Publish(_ context.Context, e Event) {
	data, err := json.Marshal(e)
	if err != nil {
		logrus.Errorf("marshal %s event: %v", e.Type, err)
		return
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(e.Subject),
		Value: sarama.ByteEncoder(data),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(e.Type)},
		},
	}

	if _, _, err := p.producer.SendMessage(msg); err != nil {
		logrus.WithField("subject", e.Subject).Errorf("send %s event: %v", e.Type, err)
		return
	}
	logrus.Debugf("published %s for %s", e.Type, e.Subject)
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
