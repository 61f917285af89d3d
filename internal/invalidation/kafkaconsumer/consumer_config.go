package kafkaconsumer

import "time"

type Config struct {
	Brokers             []string
	Topic               string
	GroupID             string
	SessionTimeout      time.Duration
	Heartbeat           time.Duration
	RebalanceTimeout    time.Duration
	InitialOffsetOldest bool
}

// Default fills in the consumer-group tuning for a broker set; the
// caller supplies topic routing from its own configuration.
func Default(brokers []string, topic, groupID string) Config {
	if topic == "" {
		topic = "layer-invalidation"
	}
	if groupID == "" {
		groupID = "shptiles-invalidator"
	}
	return Config{
		Brokers:             brokers,
		Topic:               topic,
		GroupID:             groupID,
		SessionTimeout:      30 * time.Second,
		Heartbeat:           3 * time.Second,
		RebalanceTimeout:    30 * time.Second,
		InitialOffsetOldest: true,
	}
}
