package util

import "time"

// StepFor returns the sample spacing of a history granularity.
func StepFor(granularity string) (time.Duration, bool) {
	switch granularity {
	case "minute":
		return time.Minute, true
	case "hour":
		return time.Hour, true
	case "day":
		return 24 * time.Hour, true
	default:
		return 0, false
	}
}

// BucketStart truncates t to the start of its granularity bucket in UTC.
// Unknown granularities truncate to the minute.
func BucketStart(t time.Time, granularity string) time.Time {
	step, ok := StepFor(granularity)
	if !ok {
		step = time.Minute
	}
	return t.UTC().Truncate(step)
}

// FromUnix converts provider epoch seconds into UTC time.
func FromUnix(ts int64) time.Time {
	return time.Unix(ts, 0).UTC()
}
