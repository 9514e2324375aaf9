package producer

import (
	"github.com/Shopify/sarama"

	"fixsession/pkg/utils"
)

// Producer publishes session traffic to a single kafka topic.
type Producer struct {
	producer sarama.SyncProducer
	topic    string
}

func NewProducer(brokers []string, topic string) (*Producer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForLocal

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, err
	}

	return NewProducerWith(producer, topic), nil
}

// NewProducerWith wraps an existing sync producer.
func NewProducerWith(producer sarama.SyncProducer, topic string) *Producer {
	return &Producer{producer: producer, topic: topic}
}

func (p *Producer) Topic() string {
	return p.topic
}

// Send publishes value keyed by key, so messages of one session stay on one partition.
func (p *Producer) Send(key string, value []byte) error {
	message := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(value),
	}

	partition, offset, err := p.producer.SendMessage(message)
	if err != nil {
		return err
	}

	utils.Logger.Debug().
		Str("topic", p.topic).
		Int32("partition", partition).
		Int64("offset", offset).
		Msg("kafka message sent")
	return nil
}

func (p *Producer) Close() error {
	return p.producer.Close()
}
