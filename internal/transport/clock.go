package transport

import "time"

// SystemClock is the production Clock, backed by time.Now's monotonic
// reading: the wall clock is sampled once at process start and every later
// reading adds the monotonic time elapsed since then, so it never goes
// backwards.
type SystemClock struct{}

var clockStart = time.Now()

func (SystemClock) NowNano() uint64 {
	return uint64(clockStart.UnixNano() + int64(time.Since(clockStart)))
}
