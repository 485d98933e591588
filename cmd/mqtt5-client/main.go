// mqtt5-client is a small reference program exercising the mqtt5.Client
// session engine against a live broker: it subscribes to a filter given on
// the command line, logs every inbound publish, and periodically publishes
// a timestamp of its own, until interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt5 "github.com/golang-io/mqtt5"
	"github.com/golang-io/mqtt5/packet"
	"golang.org/x/sync/errgroup"
)

func main() {
	addr := flag.String("addr", "tcp://127.0.0.1:1883", "broker address (tcp://, ws://, wss://)")
	filter := flag.String("filter", "+", "topic filter to subscribe")
	topic := flag.String("topic", "mqtt5-client/heartbeat", "topic to publish a heartbeat to")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := mqtt5.New(*addr, &packet.Connect{CleanStart: true, KeepAlive: 30})

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case ev, ok := <-c.Events():
				if !ok {
					return nil
				}
				switch e := ev.(type) {
				case mqtt5.PacketEvent:
					if pub, ok := e.Packet.(*packet.Publish); ok {
						var payload []byte
						if pub.ContentIsText {
							payload = []byte(pub.ContentText)
						} else {
							payload = pub.ContentBytes
						}
						log.Printf("publish: topic=%s payload=%q", pub.Topic, payload)
					}
				case mqtt5.ConnectionClosed:
					log.Printf("connection closed: %s", e.Reason)
				case mqtt5.FailedConnectionAttempt:
					log.Printf("connect attempt failed: %v", e.Reason)
				case mqtt5.PingFailed:
					log.Printf("ping failed, reconnecting")
				}
			}
		}
	})

	group.Go(func() error {
		if _, err := c.Subscribe(&packet.Subscribe{
			Subscriptions: []packet.Subscription{{TopicFilter: *filter, QoS: 1}},
		}); err != nil {
			return fmt.Errorf("subscribe: %w", err)
		}
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
			err := c.Publish(&packet.Publish{
				Topic:         *topic,
				ContentIsText: true,
				ContentText:   time.Now().Format(time.RFC3339),
			})
			if err != nil {
				log.Printf("publish: %v", err)
			}
		}
	})

	group.Go(func() error {
		defer cancel()
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case s := <-sig:
			return fmt.Errorf("got signal: %s", s)
		}
	})

	if err := group.Wait(); err != nil {
		log.Printf("shutting down: %v", err)
	}
	_ = c.Close(nil)
}
