package rabbitmq

import (
	"context"
	"fmt"
	"log"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Handler processes one delivery. subscription is the filter the message
// arrived on, not the concrete topic.
type Handler func(subscription string, msg mqtt.Message) error

// Consumer subscribes a handler to one or more topic filters.
type Consumer struct {
	client  mqtt.Client
	topics  []string
	handler Handler
}

func NewConsumer(client mqtt.Client, handler Handler, topics ...string) *Consumer {
	return &Consumer{client: client, topics: topics, handler: handler}
}

// QoSFor returns the delivery guarantee used for a topic: readings and
// decisions at least once, everything else at most once.
func QoSFor(topic string) byte {
	t := strings.TrimSpace(topic)
	if strings.HasPrefix(t, "sensor/aggregated") ||
		strings.HasPrefix(t, "event/irrigationDecision") {
		return 1
	}
	return 0
}

// Subscribe registers every topic and returns once all subscriptions are
// acknowledged. The topics are released when ctx is done.
func (c *Consumer) Subscribe(ctx context.Context) error {
	if c.handler == nil {
		return fmt.Errorf("consumer: no handler for %v", c.topics)
	}
	for _, topic := range c.topics {
		topic := topic
		token := c.client.Subscribe(topic, QoSFor(topic), func(_ mqtt.Client, msg mqtt.Message) {
			if err := c.handler(topic, msg); err != nil {
				log.Printf("consumer: handle topic=%s err=%v", msg.Topic(), err)
			}
		})
		if token.Wait() && token.Error() != nil {
			return fmt.Errorf("subscribe %s: %w", topic, token.Error())
		}
		log.Printf("consumer: subscribed topic=%s qos=%d", topic, QoSFor(topic))
	}

	go func() {
		<-ctx.Done()
		if c.client.IsConnected() {
			c.client.Unsubscribe(c.topics...).Wait()
		}
	}()
	return nil
}
