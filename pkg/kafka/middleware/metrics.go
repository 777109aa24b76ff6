package kafka_middleware

import (
	"context"
	"time"

	"bikerent/pkg/kafka"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	PublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_published_total",
			Help: "Kafka messages published, by topic and result.",
		},
		[]string{"topic", "result"},
	)

	PublishDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kafka_publish_duration_seconds",
			Help:    "Time spent publishing a Kafka message.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"topic"},
	)
)

func init() {
	prometheus.MustRegister(PublishedTotal, PublishDuration)
}

// MetricsProducerMiddleware records publish outcomes and latency
func MetricsProducerMiddleware() kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()
		err := next(ctx, msg)
		PublishDuration.WithLabelValues(msg.Topic).Observe(time.Since(start).Seconds())

		result := "success"
		if err != nil {
			result = kafka.ClassifyError(err).String()
		}
		PublishedTotal.WithLabelValues(msg.Topic, result).Inc()

		return err
	}
}
