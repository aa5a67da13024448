package object

import (
	"fmt"
	"math"
	"runtime"
	"runtime/debug"
	"unsafe"
)

// MaxObjects is the upper bound of a single list allocation, whatever the memory limit.
const MaxObjects = 1 << 26

// Lists up to this many elements are never checked against the memory limit.
const smallList = 256

var objectSize = int64(unsafe.Sizeof(Object(nil)))

// headroom is what is left under GOMEMLIMIT, negative when already over it.
// Without a limit set it is close to math.MaxInt64.
func headroom() int64 {
	limit := debug.SetMemoryLimit(-1)
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	if ms.HeapAlloc > math.MaxInt64 {
		return 0
	}
	return limit - int64(ms.HeapAlloc)
}

func fits(n int) bool {
	free := headroom()
	return free > 0 && int64(n) < free/objectSize
}

// MakeObjectSlice is make([]Object, 0, n) that refuses sizes which can't fit
// (ranges like 0..1_000_000_000_000) instead of getting the process killed.
func MakeObjectSlice(n int) ([]Object, error) {
	switch {
	case n < 0:
		return nil, fmt.Errorf("invalid size %d", n)
	case n > MaxObjects:
		return nil, fmt.Errorf("requesting %d objects exceeds the %d maximum", n, MaxObjects)
	case n <= smallList:
		return make([]Object, 0, n), nil
	}
	if !fits(n) {
		runtime.GC()
		if !fits(n) {
			return nil, fmt.Errorf("would exceed the memory limit requesting %d objects, %d bytes free", n, headroom())
		}
	}
	return make([]Object, 0, n), nil
}
