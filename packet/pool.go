package packet

import (
	"sync"

	"github.com/golang-io/mqtt5/wire"
)

// writerPool reuses *wire.Writer buffers across encodes, grounded in the
// teacher's sync.Pool-backed packet.GetBuffer/PutBuffer in packet/pool.go.
var writerPool = sync.Pool{
	New: func() any { return wire.NewWriter(256) },
}

func getWriter() *wire.Writer {
	w := writerPool.Get().(*wire.Writer)
	w.Reset()
	return w
}

func putWriter(w *wire.Writer) {
	writerPool.Put(w)
}
