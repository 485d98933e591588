// Package transport dials the low-level duplex byte connection a Session
// Engine reads and writes packets over. Grounded in the teacher's
// (*Client).dial scheme switch in client.go, narrowed to the client-dialing
// directions actually reachable from this module (tcp/mqtt/ws/wss — TLS
// dialing is a non-goal and is not implemented here).
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"

	"golang.org/x/net/websocket"
)

// ErrTransport wraps every dial/scheme failure this package returns.
var ErrTransport = errors.New("transport: dial failed")

// Conn is the duplex the Session Engine reads decoded-packet bytes from and
// writes encoded-packet bytes to. Closing it closes both directions at
// once — grounded in the teacher's conn.go, where the single rwc net.Conn
// (TCP or *websocket.Conn) plays the same role.
type Conn interface {
	io.ReadWriteCloser
}

// Dial connects to addr (a URL with scheme tcp, mqtt, ws, or wss) and
// returns the duplex connection. For tcp and mqtt, ctx governs only the
// dial itself; the ws and wss dial does not observe ctx. Once established
// the Conn has no further deadline.
func Dial(ctx context.Context, addr string) (Conn, error) {
	u, err := url.Parse(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	switch u.Scheme {
	case "tcp", "mqtt", "":
		host := u.Host
		if host == "" {
			host = u.Opaque
		}
		if _, _, err := net.SplitHostPort(host); err != nil {
			host = net.JoinHostPort(host, "1883")
		}
		conn, err := (&net.Dialer{}).DialContext(ctx, "tcp", host)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTransport, err)
		}
		if tc, ok := conn.(*net.TCPConn); ok {
			_ = tc.SetNoDelay(true)
		}
		return conn, nil

	case "ws", "wss":
		path := u.Path
		if path == "" {
			path = "/mqtt"
		}
		loc := &url.URL{Scheme: u.Scheme, Host: u.Host, Path: path}
		originScheme := "http"
		if u.Scheme == "wss" {
			originScheme = "https"
		}
		origin := &url.URL{Scheme: originScheme, Host: u.Host}

		cfg, err := websocket.NewConfig(loc.String(), origin.String())
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTransport, err)
		}
		cfg.Protocol = []string{"mqtt"}
		ws, err := websocket.DialConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTransport, err)
		}
		ws.PayloadType = websocket.BinaryFrame
		return ws, nil

	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrTransport, u.Scheme)
	}
}
