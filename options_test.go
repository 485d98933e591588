package mqtt5

import (
	"testing"
	"time"

	"github.com/golang-io/mqtt5/packet"
)

func TestOptionsDefaults(t *testing.T) {
	o := newOptions()
	if o.ReconnectTime != time.Second {
		t.Errorf("ReconnectTime = %v, want 1s", o.ReconnectTime)
	}
	if o.ConnectTimeout != 10*time.Second {
		t.Errorf("ConnectTimeout = %v, want 10s", o.ConnectTimeout)
	}
	if o.PublishDeserializeOptions != packet.PayloadFormatIndicator {
		t.Errorf("PublishDeserializeOptions = %v, want PayloadFormatIndicator", o.PublishDeserializeOptions)
	}
	if o.Logger == nil {
		t.Error("Logger should default to a non-nil logger")
	}
}

func TestOptionsOverrides(t *testing.T) {
	o := newOptions(
		WithReconnectTime(0),
		WithConnectTimeout(2*time.Second),
		WithClientID("fixed-id"),
		WithPublishDeserializeOptions(packet.DataReader),
	)
	if o.ReconnectTime != 0 {
		t.Errorf("ReconnectTime = %v, want 0", o.ReconnectTime)
	}
	if o.ConnectTimeout != 2*time.Second {
		t.Errorf("ConnectTimeout = %v, want 2s", o.ConnectTimeout)
	}
	if o.ClientID != "fixed-id" {
		t.Errorf("ClientID = %q, want fixed-id", o.ClientID)
	}
	if o.PublishDeserializeOptions != packet.DataReader {
		t.Errorf("PublishDeserializeOptions = %v, want DataReader", o.PublishDeserializeOptions)
	}
}
