package packet

import (
	"io"

	"github.com/golang-io/mqtt5/wire"
)

// PingReq and PingResp carry no variable header or payload; each is always
// the same two bytes on the wire, so encode is a precomputed slice write
// rather than a pooled-writer round trip.
var (
	pingReqBytes  = []byte{byte(KindPingReq) << 4, 0x00}
	pingRespBytes = []byte{byte(KindPingResp) << 4, 0x00}
)

type PingReq struct{}

func (PingReq) Kind() ControlPacketType { return KindPingReq }

func (PingReq) Pack(dst io.Writer) error {
	_, err := dst.Write(pingReqBytes)
	return err
}

func decodePingReq(h FixedHeader, r *wire.Reader) (Packet, error) { return PingReq{}, nil }

type PingResp struct{}

func (PingResp) Kind() ControlPacketType { return KindPingResp }

func (PingResp) Pack(dst io.Writer) error {
	_, err := dst.Write(pingRespBytes)
	return err
}

func decodePingResp(h FixedHeader, r *wire.Reader) (Packet, error) { return PingResp{}, nil }
