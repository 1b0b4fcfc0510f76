package station

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/igorvan/omniscan/pkg/camera"
	"github.com/igorvan/omniscan/pkg/logging"
	"github.com/igorvan/omniscan/pkg/scanning"
)

// sessionExpiration - idle lifetime of a capture subscription left behind by a crash
const sessionExpiration = 24 * time.Hour

// Decoder - remote scanner stations over Pub/Sub: every topic carrying the
// prefix is one capture device, its messages are decode results.
// Each capture session gets its own subscription, so results published
// while no capture was running are never delivered.
type Decoder struct {
	client      *pubsub.Client
	topicPrefix string
	subPrefix   string
	log         *slog.Logger

	mtx    sync.Mutex
	sub    *pubsub.Subscription
	cancel context.CancelFunc
	done   chan struct{}
}

// New - Decoder constructor
func New(client *pubsub.Client, topicPrefix, subPrefix string, log *slog.Logger) (*Decoder, error) {
	if client == nil {
		return nil, fmt.Errorf("cannot instantiate a station Decoder, no pubsub client provided")
	}
	return &Decoder{
		client:      client,
		topicPrefix: topicPrefix,
		subPrefix:   subPrefix,
		log:         logging.OrDiscard(log),
	}, nil
}

// Cameras - lists station topics
func (d *Decoder) Cameras(ctx context.Context) ([]camera.Device, error) {
	var devices []camera.Device
	it := d.client.Topics(ctx)
	for {
		t, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, mapErr(err)
		}
		id := t.ID()
		if !strings.HasPrefix(id, d.topicPrefix) || strings.HasSuffix(id, ConfigSuffix) {
			continue
		}
		device := camera.Device{ID: id}
		if cfg, err := t.Config(ctx); err == nil {
			device.Label = cfg.Labels[LabelKey]
		}
		devices = append(devices, device)
	}
	return devices, nil
}

// Start - subscribes to the station topic and forwards its decode results
func (d *Decoder) Start(ctx context.Context, deviceID string, cfg scanning.DecoderConfig,
	onSuccess func(scanning.DecodeResult), onFailure func(error)) error {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	if d.cancel != nil {
		return fmt.Errorf("station capture already running")
	}

	topic := d.client.Topic(deviceID)
	ok, err := topic.Exists(ctx)
	if err != nil {
		return mapErr(err)
	}
	if !ok {
		return fmt.Errorf("station topic %s not found", deviceID)
	}

	if err := d.configure(ctx, deviceID, cfg); err != nil {
		return err
	}

	sub, err := d.subscription(ctx, topic, cfg)
	if err != nil {
		return err
	}

	recvCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		err := sub.Receive(recvCtx, func(_ context.Context, m *pubsub.Message) {
			m.Ack()
			res, err := Parse(m)
			if err != nil {
				onFailure(err)
				return
			}
			onSuccess(*res)
		})
		if err != nil {
			d.log.Error(fmt.Sprintf("station %s receive stopped: %s", deviceID, err))
		}
	}()

	d.sub, d.cancel, d.done = sub, cancel, done
	d.log.Info(fmt.Sprintf("Listening to station %s", deviceID))
	return nil
}

// Stop - stops receiving, waits for the receive loop to exit and drops the
// session subscription
func (d *Decoder) Stop(ctx context.Context) error {
	d.mtx.Lock()
	sub, cancel, done := d.sub, d.cancel, d.done
	d.sub, d.cancel, d.done = nil, nil, nil
	d.mtx.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := sub.Delete(ctx); err != nil && status.Code(err) != codes.NotFound {
		return fmt.Errorf("cannot delete subscription %s: %w", sub.ID(), mapErr(err))
	}
	return nil
}

// configure - hands the decoder config to stations listening on the config topic
func (d *Decoder) configure(ctx context.Context, deviceID string, cfg scanning.DecoderConfig) error {
	topic := d.client.Topic(deviceID + ConfigSuffix)
	defer topic.Stop()
	ok, err := topic.Exists(ctx)
	if err != nil {
		return mapErr(err)
	}
	if !ok {
		d.log.Debug("station has no config topic", "device", deviceID)
		return nil
	}
	b, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	if _, err := topic.Publish(ctx, &pubsub.Message{Data: b}).Get(ctx); err != nil {
		return fmt.Errorf("cannot publish decoder config to %s: %w", deviceID, mapErr(err))
	}
	return nil
}

// subscription - creates the subscription of a new capture session
func (d *Decoder) subscription(ctx context.Context, topic *pubsub.Topic, cfg scanning.DecoderConfig) (*pubsub.Subscription, error) {
	subID := fmt.Sprintf("%s%s-%s", d.subPrefix, topic.ID(), uuid.NewString())
	sub, err := d.client.CreateSubscription(ctx, subID, pubsub.SubscriptionConfig{
		Topic:            topic,
		Filter:           Filter(cfg.FormatsToSupport),
		ExpirationPolicy: sessionExpiration,
	})
	if err != nil {
		return nil, mapErr(err)
	}
	sub.ReceiveSettings.MaxOutstandingMessages = cfg.FPS
	return sub, nil
}

// Filter - subscription filter accepting only whitelisted symbologies
func Filter(formats []scanning.Format) string {
	parts := make([]string, 0, len(formats))
	for _, f := range formats {
		parts = append(parts, fmt.Sprintf("attributes.%s = %q", FormatAttribute, f))
	}
	return strings.Join(parts, " OR ")
}

func mapErr(err error) error {
	if status.Code(err) == codes.PermissionDenied {
		return fmt.Errorf("%w: %s", camera.ErrPermissionDenied, err)
	}
	return err
}
