package kafka

import (
	"context"
	"fmt"
	"strconv"

	"github.com/segmentio/kafka-go"
)

// DLQTopicPrefix namespaces dead-letter topics.
const DLQTopicPrefix = TopicPrefix + ".dlq"

func DLQTopic(originalTopic string) string {
	return DLQTopicPrefix + "." + originalTopic
}

// DeadLetterWriter forwards messages a consumer gave up on, with the
// failure recorded in headers.
type DeadLetterWriter struct {
	writer messageWriter
}

func NewDeadLetterWriter(brokers []string) *DeadLetterWriter {
	return &DeadLetterWriter{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.LeastBytes{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}}
}

func (d *DeadLetterWriter) Publish(ctx context.Context, msg kafka.Message, cause error, group string) error {
	headers := make([]kafka.Header, 0, len(msg.Headers)+5)
	headers = append(headers, msg.Headers...)
	headers = append(headers,
		kafka.Header{Key: "dlq.original_topic", Value: []byte(msg.Topic)},
		kafka.Header{Key: "dlq.original_partition", Value: []byte(strconv.Itoa(msg.Partition))},
		kafka.Header{Key: "dlq.original_offset", Value: []byte(strconv.FormatInt(msg.Offset, 10))},
		kafka.Header{Key: "dlq.consumer_group", Value: []byte(group)},
	)
	if cause != nil {
		headers = append(headers, kafka.Header{Key: "dlq.error", Value: []byte(cause.Error())})
	}

	topic := DLQTopic(msg.Topic)
	if err := d.writer.WriteMessages(ctx, kafka.Message{Topic: topic, Key: msg.Key, Value: msg.Value, Headers: headers}); err != nil {
		return fmt.Errorf("publish to DLQ %s: %w", topic, err)
	}
	return nil
}

func (d *DeadLetterWriter) Close() error {
	return d.writer.Close()
}
