package sdrapi

import (
	"unsafe"

	"github.com/radiokit-dev/radiokit/sdrapi/driver"
)

// SC16Q11 is one I/Q sample as signed 16-bit components in Q11 fixed point.
type SC16Q11 struct {
	I int16
	Q int16
}

// SC8Q7 is one I/Q sample as signed 8-bit components in Q7 fixed point.
type SC8Q7 struct {
	I int8
	Q int8
}

// Sample is the set of encodings a stream can be configured for. The
// encoding is a type parameter of the stream handle, so reading into or
// writing from a buffer of the wrong encoding does not compile.
type Sample interface {
	SC16Q11 | SC8Q7
}

func formatOf[F Sample]() driver.Format {
	var f F
	switch any(f).(type) {
	case SC8Q7:
		return driver.FormatSC8Q7
	default:
		return driver.FormatSC16Q11
	}
}

// sampleBytes exposes a sample buffer as the byte view the driver boundary
// expects. The driver does not retain the slice past the call.
func sampleBytes[F Sample](buf []F) []byte {
	if len(buf) == 0 {
		return nil
	}
	size := int(unsafe.Sizeof(buf[0]))
	return unsafe.Slice((*byte)(unsafe.Pointer(&buf[0])), len(buf)*size)
}
