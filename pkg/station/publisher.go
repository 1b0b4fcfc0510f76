package station

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub"

	"github.com/igorvan/omniscan/pkg/scanning"
)

// Publisher - station side, publishes decode results to the station topic
type Publisher struct {
	topic *pubsub.Topic
}

// NewPublisher - creates the station topic when it does not exist yet
func NewPublisher(ctx context.Context, client *pubsub.Client, topicID, name string) (*Publisher, error) {
	if client == nil {
		return nil, fmt.Errorf("cannot instantiate a station Publisher, no pubsub client provided")
	}
	topic := client.Topic(topicID)
	ok, err := topic.Exists(ctx)
	if err != nil {
		return nil, mapErr(err)
	}
	if !ok {
		cfg := &pubsub.TopicConfig{}
		if name != "" {
			cfg.Labels = map[string]string{LabelKey: name}
		}
		topic, err = client.CreateTopicWithConfig(ctx, topicID, cfg)
		if err != nil {
			return nil, mapErr(err)
		}
	}
	return &Publisher{topic: topic}, nil
}

// Publish - sends a decode result and waits for the server ack
func (p *Publisher) Publish(ctx context.Context, res scanning.DecodeResult) error {
	_, err := p.topic.Publish(ctx, NewMessage(res)).Get(ctx)
	return err
}

// Stop - flushes pending messages
func (p *Publisher) Stop() {
	p.topic.Stop()
}
