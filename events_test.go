package mqtt5

import "testing"

func TestCustomPacketKindsAreAboveProtocolRange(t *testing.T) {
	for _, e := range []Event{
		ConnectionClosed{},
		FailedConnectionAttempt{},
		PingFailed{},
		Error{},
	} {
		if e.Kind() < 100 {
			t.Errorf("%T.Kind() = %d, want >= 100", e, e.Kind())
		}
	}
}

func TestConnectionClosedReasonString(t *testing.T) {
	cases := map[ConnectionClosedReason]string{
		ClosedLocally:    "closed locally",
		ClosedRemotely:   "closed remotely",
		ClosedPingFailed: "ping failed",
	}
	for reason, want := range cases {
		if got := reason.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", reason, got, want)
		}
	}
}
