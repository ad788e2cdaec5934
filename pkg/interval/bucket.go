package interval

import (
	"time"
)

// BucketIndex returns floor(ms / interval). Timestamps before the epoch
// still land in the bucket that contains them.
func (i Interval) BucketIndex(ms int64) int64 {
	size := i.Millis()
	idx := ms / size
	if ms%size != 0 && ms < 0 {
		idx--
	}
	return idx
}

// BucketStart returns the start instant of bucket idx.
func (i Interval) BucketStart(idx int64) time.Time {
	return time.UnixMilli(idx * i.Millis()).UTC()
}

// GetBucketRange returns the start and end time of bucket idx.
func (i Interval) GetBucketRange(idx int64) (start, end time.Time) {
	start = i.BucketStart(idx)
	end = start.Add(i.Duration)
	return start, end
}

// CalculateBucketTime calculates the start time of the interval bucket.
func (i Interval) CalculateBucketTime(timestamp time.Time) time.Time {
	return i.BucketStart(i.BucketIndex(timestamp.UnixMilli()))
}

// IsInBucket checks if a timestamp falls within the same bucket as another timestamp
func (i Interval) IsInBucket(timestamp1, timestamp2 time.Time) bool {
	return i.BucketIndex(timestamp1.UnixMilli()) == i.BucketIndex(timestamp2.UnixMilli())
}
