package station

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/stretchr/testify/suite"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/igorvan/omniscan/pkg/camera"
	"github.com/igorvan/omniscan/pkg/scanning"
)

type DecoderSuite struct {
	suite.Suite
	srv    *pstest.Server
	conn   *grpc.ClientConn
	client *pubsub.Client
}

func TestDecoderSuite(t *testing.T) {
	suite.Run(t, &DecoderSuite{})
}

func (s *DecoderSuite) SetupTest() {
	s.srv = pstest.NewServer()
	var err error
	s.conn, err = grpc.Dial(s.srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	s.Require().NoError(err)
	s.client, err = pubsub.NewClient(context.Background(), "test-project", option.WithGRPCConn(s.conn))
	s.Require().NoError(err)
}

func (s *DecoderSuite) TearDownTest() {
	_ = s.client.Close()
	_ = s.conn.Close()
	_ = s.srv.Close()
}

func (s *DecoderSuite) TestNew() {
	res, err := New(nil, "scanner-", "omniscan-", nil)
	s.Nil(res)
	s.Error(err)
}

func (s *DecoderSuite) TestCameras() {
	ctx := context.Background()
	_, err := s.client.CreateTopicWithConfig(ctx, "scanner-dock", &pubsub.TopicConfig{
		Labels: map[string]string{LabelKey: "dock"},
	})
	s.Require().NoError(err)
	_, err = s.client.CreateTopic(ctx, "scanner-bench")
	s.Require().NoError(err)
	_, err = s.client.CreateTopic(ctx, "scanner-bench"+ConfigSuffix)
	s.Require().NoError(err)
	_, err = s.client.CreateTopic(ctx, "billing-events")
	s.Require().NoError(err)

	dec, err := New(s.client, "scanner-", "omniscan-", nil)
	s.Require().NoError(err)

	devices, err := dec.Cameras(ctx)
	s.NoError(err)
	s.ElementsMatch([]camera.Device{
		{ID: "scanner-dock", Label: "dock"},
		{ID: "scanner-bench"},
	}, devices)
}

func (s *DecoderSuite) TestStartReceivesResults() {
	ctx := context.Background()
	pub, err := NewPublisher(ctx, s.client, "scanner-dock", "dock")
	s.Require().NoError(err)
	defer pub.Stop()
	cfgTopic, err := s.client.CreateTopic(ctx, "scanner-dock"+ConfigSuffix)
	s.Require().NoError(err)
	cfgSub, err := s.client.CreateSubscription(ctx, "station-config", pubsub.SubscriptionConfig{Topic: cfgTopic})
	s.Require().NoError(err)

	dec, err := New(s.client, "scanner-", "omniscan-", nil)
	s.Require().NoError(err)

	var (
		mtx      sync.Mutex
		results  []scanning.DecodeResult
		failures int
	)
	err = dec.Start(ctx, "scanner-dock", scanning.DefaultDecoderConfig(),
		func(res scanning.DecodeResult) {
			mtx.Lock()
			defer mtx.Unlock()
			results = append(results, res)
		},
		func(error) {
			mtx.Lock()
			defer mtx.Unlock()
			failures++
		})
	s.Require().NoError(err)
	s.Error(dec.Start(ctx, "scanner-dock", scanning.DefaultDecoderConfig(), nil, nil))

	at := time.UnixMilli(1_700_000_000_000)
	s.Require().NoError(pub.Publish(ctx, scanning.DecodeResult{Text: "HELLO", Format: scanning.QRCode, At: at}))

	s.Eventually(func() bool {
		mtx.Lock()
		defer mtx.Unlock()
		return len(results) == 1
	}, 5*time.Second, 20*time.Millisecond)

	mtx.Lock()
	s.Equal(scanning.DecodeResult{Text: "HELLO", Format: scanning.QRCode, At: at}, results[0])
	mtx.Unlock()

	// decoder config reached the station
	msgs := s.srv.Messages()
	var configured bool
	for _, m := range msgs {
		if len(m.Data) > 0 && m.Attributes[FormatAttribute] == "" {
			configured = true
		}
	}
	s.True(configured)
	s.NotNil(cfgSub)

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	s.NoError(dec.Stop(stopCtx))
	s.NoError(dec.Stop(stopCtx))
}

func (s *DecoderSuite) TestRestartSkipsResultsWhileStopped() {
	ctx := context.Background()
	pub, err := NewPublisher(ctx, s.client, "scanner-dock", "dock")
	s.Require().NoError(err)
	defer pub.Stop()

	dec, err := New(s.client, "scanner-", "omniscan-", nil)
	s.Require().NoError(err)

	var (
		mtx   sync.Mutex
		texts []string
	)
	received := func(res scanning.DecodeResult) {
		mtx.Lock()
		defer mtx.Unlock()
		texts = append(texts, res.Text)
	}
	count := func() int {
		mtx.Lock()
		defer mtx.Unlock()
		return len(texts)
	}
	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	s.Require().NoError(dec.Start(ctx, "scanner-dock", scanning.DefaultDecoderConfig(), received, func(error) {}))
	s.Require().NoError(pub.Publish(ctx, scanning.DecodeResult{Text: "LIVE", Format: scanning.QRCode}))
	s.Eventually(func() bool { return count() == 1 }, 5*time.Second, 20*time.Millisecond)
	s.Require().NoError(dec.Stop(stopCtx))

	// session subscription is gone with the session
	it := s.client.Subscriptions(ctx)
	_, err = it.Next()
	s.ErrorIs(err, iterator.Done)

	s.Require().NoError(pub.Publish(ctx, scanning.DecodeResult{Text: "MISSED", Format: scanning.QRCode}))

	s.Require().NoError(dec.Start(ctx, "scanner-dock", scanning.DefaultDecoderConfig(), received, func(error) {}))
	s.Require().NoError(pub.Publish(ctx, scanning.DecodeResult{Text: "AGAIN", Format: scanning.QRCode}))
	s.Eventually(func() bool { return count() == 2 }, 5*time.Second, 20*time.Millisecond)
	s.Require().NoError(dec.Stop(stopCtx))

	mtx.Lock()
	defer mtx.Unlock()
	s.Equal([]string{"LIVE", "AGAIN"}, texts)
}

func (s *DecoderSuite) TestStartUnknownTopic() {
	dec, err := New(s.client, "scanner-", "omniscan-", nil)
	s.Require().NoError(err)
	err = dec.Start(context.Background(), "scanner-missing", scanning.DefaultDecoderConfig(),
		func(scanning.DecodeResult) {}, func(error) {})
	s.Error(err)
}

func (s *DecoderSuite) TestParse() {
	testCases := []struct {
		title    string
		msg      *pubsub.Message
		expected *scanning.DecodeResult
	}{
		{
			title:    "result with timestamp",
			msg:      &pubsub.Message{Data: []byte(`{"text":"A1","format":"CODE_39","ts":1000}`)},
			expected: &scanning.DecodeResult{Text: "A1", Format: scanning.Code39, At: time.UnixMilli(1000)},
		},
		{
			title: "format from attribute",
			msg: &pubsub.Message{
				Data:       []byte(`{"text":"A1"}`),
				Attributes: map[string]string{FormatAttribute: "ITF"},
			},
			expected: &scanning.DecodeResult{Text: "A1", Format: scanning.ITF},
		},
		{title: "frame failure", msg: &pubsub.Message{Data: []byte(`{"error":"NotFoundException"}`)}},
		{title: "no text", msg: &pubsub.Message{Data: []byte(`{"format":"QR_CODE"}`)}},
		{title: "garbage", msg: &pubsub.Message{Data: []byte(`not json`)}},
	}

	for _, tc := range testCases {
		s.Run(tc.title, func() {
			res, err := Parse(tc.msg)
			if tc.expected == nil {
				s.Error(err)
				s.Nil(res)
				return
			}
			s.NoError(err)
			s.Equal(tc.expected, res)
		})
	}
}

func (s *DecoderSuite) TestFilter() {
	s.Equal(`attributes.format = "QR_CODE" OR attributes.format = "EAN_8"`,
		Filter([]scanning.Format{scanning.QRCode, scanning.EAN8}))
}

func (s *DecoderSuite) TestMapErr() {
	err := mapErr(status.Error(codes.PermissionDenied, "caller lacks pubsub.topics.list"))
	s.True(errors.Is(err, camera.ErrPermissionDenied))

	other := status.Error(codes.Unavailable, "down")
	s.Equal(other, mapErr(other))
}
