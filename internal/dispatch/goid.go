package dispatch

import (
	"bytes"
	"runtime"
	"strconv"
)

var stackPrefix = []byte("goroutine ")

// goroutineID returns the runtime ID of the calling goroutine, parsed
// from the stack trace header ("goroutine N [running]:"). The runtime
// exposes no direct accessor; this is the same technique x/net/http2
// uses for its serialization checks. The ID is only compared for
// equality against the captured owner identity, never interpreted.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := bytes.TrimPrefix(buf[:n], stackPrefix)
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	id, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		panic("dispatch: cannot parse goroutine ID from stack header")
	}
	return id
}
