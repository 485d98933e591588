package mqtt5

import (
	"log"
	"time"

	"github.com/golang-io/mqtt5/mstat"
	"github.com/golang-io/mqtt5/packet"
)

// Options configures a Client. Grounded in the teacher's options.go Options
// struct and functional-options pattern, generalized from the teacher's
// broker-URL/version/subscription fields to the spec's reconnect/timeout/
// deserialize knobs, plus the ambient-stack additions (logger, metrics).
type Options struct {
	ClientID string

	ReconnectTime  time.Duration
	ConnectTimeout time.Duration

	PublishDeserializeOptions packet.PublishDeserializeOptions

	Logger  *log.Logger
	Metrics *mstat.Registry
}

// Option mutates an Options during construction.
type Option func(*Options)

func newOptions(opts ...Option) Options {
	o := Options{
		ReconnectTime:             1000 * time.Millisecond,
		ConnectTimeout:            10000 * time.Millisecond,
		PublishDeserializeOptions: packet.PayloadFormatIndicator,
		Logger:                    log.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithClientID sets the ClientID to send in Connect, overriding the
// Connect packet's own ClientID. If never set (or set to "") and the
// Connect packet passed to New has no ClientID either, the engine
// generates one with idgen.New() at construction time.
func WithClientID(id string) Option {
	return func(o *Options) { o.ClientID = id }
}

// WithReconnectTime sets the delay between reconnect attempts. 0 disables
// automatic reconnection.
func WithReconnectTime(d time.Duration) Option {
	return func(o *Options) { o.ReconnectTime = d }
}

// WithConnectTimeout sets how long the engine awaits a ConnAck after
// writing Connect.
func WithConnectTimeout(d time.Duration) Option {
	return func(o *Options) { o.ConnectTimeout = d }
}

// WithPublishDeserializeOptions selects how inbound Publish payloads are
// decoded (see packet.PublishDeserializeOptions).
func WithPublishDeserializeOptions(opts packet.PublishDeserializeOptions) Option {
	return func(o *Options) { o.PublishDeserializeOptions = opts }
}

// WithLogger overrides the engine's logger (default log.Default()).
func WithLogger(l *log.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithMetrics attaches a Prometheus metrics registry the engine increments
// alongside its lifecycle events.
func WithMetrics(r *mstat.Registry) Option {
	return func(o *Options) { o.Metrics = r }
}
