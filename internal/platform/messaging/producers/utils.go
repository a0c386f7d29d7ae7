package producers

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// createKafkaTopicIfNotExists makes sure a topic is present before the first
// produce. Partition reads are retried because the broker may still be
// coming up when the process starts.
func createKafkaTopicIfNotExists(conn *kafka.Conn, topic string, partitions, replicationFactor int, log *slog.Logger) error {
	var (
		existing []kafka.Partition
		err      error
	)

	log.Info("Checking Kafka topic", "topic", topic)
	for attempt := 1; attempt <= 5; attempt++ {
		existing, err = conn.ReadPartitions(topic)
		if err == nil {
			break
		}
		log.Warn("Partition read failed", "topic", topic, "attempt", attempt, "error", err)
		time.Sleep(2 * time.Second)
	}

	if len(existing) > 0 {
		log.Info("Kafka topic already exists", "topic", topic)
		return nil
	}

	if partitions == 0 {
		partitions = 1
	}
	if replicationFactor == 0 {
		replicationFactor = 1
	}

	log.Info("Creating Kafka topic", "topic", topic, "partitions", partitions, "replication_factor", replicationFactor)
	if err := conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     partitions,
		ReplicationFactor: replicationFactor,
	}); err != nil {
		return fmt.Errorf("failed to create kafka topic %s: %w", topic, err)
	}

	log.Info("Created Kafka topic", "topic", topic)
	return nil
}
