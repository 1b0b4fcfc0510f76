package station

import (
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub"

	"github.com/igorvan/omniscan/pkg/scanning"
)

const (
	// FormatAttribute - message attribute carrying the symbology, used for filtering
	FormatAttribute = "format"
	// LabelKey - topic label holding the human readable station name
	LabelKey = "name"
	// ConfigSuffix - suffix of the topic a station reads its decoder config from
	ConfigSuffix = "-config"
)

// Message - decode result published by a scanner station
type Message struct {
	Text      string `json:"text,omitempty"`
	Format    string `json:"format,omitempty"`
	Timestamp int64  `json:"ts,omitempty"`
	Error     string `json:"error,omitempty"`
}

// NewMessage - wire message for a decode result
func NewMessage(res scanning.DecodeResult) *pubsub.Message {
	m := Message{Text: res.Text, Format: res.Format.String()}
	if !res.At.IsZero() {
		m.Timestamp = res.At.UnixMilli()
	}
	b, _ := json.Marshal(m)
	return &pubsub.Message{
		Data:       b,
		Attributes: map[string]string{FormatAttribute: m.Format},
	}
}

// Parse - splits a station message into a decode result or a frame failure
func Parse(m *pubsub.Message) (*scanning.DecodeResult, error) {
	msg := unmarshal[Message](m.Data)
	if msg == nil {
		return nil, fmt.Errorf("cannot parse station message [%s]", m.Data)
	}
	if msg.Error != "" {
		return nil, fmt.Errorf("decode failed: %s", msg.Error)
	}
	if msg.Text == "" {
		return nil, fmt.Errorf("no code in frame")
	}
	format := msg.Format
	if format == "" {
		format = m.Attributes[FormatAttribute]
	}
	res := &scanning.DecodeResult{Text: msg.Text, Format: scanning.Format(format)}
	if msg.Timestamp > 0 {
		res.At = time.UnixMilli(msg.Timestamp)
	}
	return res, nil
}

func unmarshal[T any](b []byte) *T {
	var res T
	err := json.Unmarshal(b, &res)
	if err != nil {
		return nil
	}
	return &res
}
