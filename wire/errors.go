package wire

import "errors"

// ErrBufferUnderflow is returned when a read would consume bytes past the
// end of the buffer.
var ErrBufferUnderflow = errors.New("wire: buffer underflow")

// ErrVarIntTooLong is returned when a variable-byte integer's continuation
// bit is still set after 4 bytes.
var ErrVarIntTooLong = errors.New("wire: variable-byte integer longer than 4 bytes")

// ErrVarIntTooLarge is returned when an encoder is asked to write a value
// above the protocol's variable-byte integer ceiling.
var ErrVarIntTooLarge = errors.New("wire: value exceeds variable-byte integer range")

// MaxVarInt is the largest value a 4-byte variable-byte integer can hold.
const MaxVarInt = 268_435_455
