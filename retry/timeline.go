package retry

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/aponysus/atmos/classify"
)

// AttemptRecord describes one attempt within a single Do/DoValue
// invocation, grounded on the teacher's observe.AttemptRecord.
type AttemptRecord struct {
	Attempt        int
	Start          time.Time
	End            time.Time
	Err            error
	Classification classify.Classification
	Backoff        time.Duration
}

// Timeline is the structured record of one driver invocation and all of
// its attempts, grounded on the teacher's observe.Timeline.
type Timeline struct {
	Name     string
	Start    time.Time
	End      time.Time
	Attempts []AttemptRecord
	FinalErr error
}

// TimelineCapture holds a Timeline that becomes available once the
// invocation that populated it completes. Safe for concurrent reads.
type TimelineCapture struct {
	tl atomic.Pointer[Timeline]
}

// Timeline returns the captured timeline, or nil if the invocation has
// not completed yet (or no capture was requested).
func (c *TimelineCapture) Timeline() *Timeline {
	if c == nil {
		return nil
	}
	return c.tl.Load()
}

func (c *TimelineCapture) store(tl *Timeline) {
	if c == nil || tl == nil {
		return
	}
	c.tl.Store(tl)
}

type timelineCaptureKey struct{}

// RecordTimeline returns a context derived from ctx that requests timeline
// capture for the next Do/DoValue call made with it, plus a holder for
// retrieving the completed timeline. Grounded on the teacher's
// observe.RecordTimeline.
func RecordTimeline(ctx context.Context) (context.Context, *TimelineCapture) {
	capture := &TimelineCapture{}
	return context.WithValue(ctx, timelineCaptureKey{}, capture), capture
}

func timelineCaptureFromContext(ctx context.Context) (*TimelineCapture, bool) {
	v, ok := ctx.Value(timelineCaptureKey{}).(*TimelineCapture)
	return v, ok && v != nil
}
