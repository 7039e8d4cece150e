package events

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	p := LogPublisher{Log: slog.New(slog.NewTextHandler(&buf, nil))}
	if err := p.Publish(context.Background(), Event{Type: TypeOrderPlaced, Key: "ord_1", Email: "demo@shop.com"}); err != nil {
		t.Fatal(err)
	}
	if out := buf.String(); !strings.Contains(out, "type=order_placed") || !strings.Contains(out, "key=ord_1") {
		t.Errorf("unexpected log line: %s", out)
	}
}

var _ Publisher = (*KafkaPublisher)(nil)
