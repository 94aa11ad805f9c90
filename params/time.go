package params

import "time"

// UnixSecondsToTime converts a Unix-epoch seconds field (licenseExpiredAt,
// disablingDate) to time.Time. Zero maps to the zero time.
func UnixSecondsToTime(ts uint64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(int64(ts), 0).UTC()
}
