package progressive

import "time"

// BatchSize is the number of files processed per batch before the
// inter-batch delay (§4.7).
const BatchSize = 10

// BatchDelay is the pause between batches.
const BatchDelay = time.Second

// YieldEvery is how many files, counted across the whole run rather
// than within one batch, are processed between explicit scheduler
// yields (§4.7, §5's "explicit yields ... after every N
// progressive-indexing files").
const YieldEvery = 50

// batches splits a priority-sorted file list into fixed-size batches.
func batches(files []string) [][]string {
	if len(files) == 0 {
		return nil
	}
	out := make([][]string, 0, (len(files)+BatchSize-1)/BatchSize)
	for i := 0; i < len(files); i += BatchSize {
		end := i + BatchSize
		if end > len(files) {
			end = len(files)
		}
		out = append(out, files[i:end])
	}
	return out
}

// cpuThrottle approximates §4.7's "CPU budget" guard. There is no
// portable per-process CPU-time API in the standard library, so this
// treats wall-clock time actually spent inside file processing as a
// proxy for CPU time — a reasonable approximation for the
// single-threaded batch loop this throttle guards.
type cpuThrottle struct {
	budget      float64
	windowStart time.Time
	busy        time.Duration
	now         func() time.Time
	sleep       func(time.Duration)
}

// sampleInterval is how often the throttle compares accumulated busy
// time against the budget.
const sampleInterval = 100 * time.Millisecond

// throttleSleep is how long the throttle sleeps once the budget is exceeded.
const throttleSleep = 50 * time.Millisecond

func newCPUThrottle(budget float64) *cpuThrottle {
	return &cpuThrottle{
		budget:      budget,
		windowStart: time.Now(),
		now:         time.Now,
		sleep:       time.Sleep,
	}
}

// recordWork accounts d as time spent doing indexing work, and checks
// whether the current sampling window has exceeded its budget.
func (t *cpuThrottle) recordWork(d time.Duration) {
	t.busy += d

	elapsed := t.now().Sub(t.windowStart)
	if elapsed < sampleInterval {
		return
	}

	if t.budget > 0 && float64(t.busy)/float64(elapsed) > t.budget {
		t.sleep(throttleSleep)
	}
	t.windowStart = t.now()
	t.busy = 0
}
