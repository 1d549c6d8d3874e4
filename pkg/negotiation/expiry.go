package negotiation

import "time"

// Remaining is the decomposed time left until an offer expires. Days, Hours
// and Minutes are only populated while the offer is still live.
type Remaining struct {
	Expired  bool          `json:"expired"`
	TimeLeft time.Duration `json:"time_left_ms"`
	Days     int           `json:"days,omitempty"`
	Hours    int           `json:"hours,omitempty"`
	Minutes  int           `json:"minutes,omitempty"`
}

// TimeRemaining computes the time left until expiresAt. An offer whose
// deadline equals now is already expired.
func TimeRemaining(expiresAt, now time.Time) Remaining {
	left := expiresAt.Sub(now)
	if left <= 0 {
		return Remaining{Expired: true, TimeLeft: 0}
	}

	return Remaining{
		Expired:  false,
		TimeLeft: left,
		Days:     int(left / (24 * time.Hour)),
		Hours:    int(left%(24*time.Hour)) / int(time.Hour),
		Minutes:  int(left%time.Hour) / int(time.Minute),
	}
}

// ShouldWarn implements the debounced expiry reminder policy: warn only while
// the offer is live, inside the warning window, and not more often than the
// cooldown allows. The caller supplies when the previous warning went out;
// this function schedules nothing itself.
func (p Policy) ShouldWarn(expiresAt, now time.Time, lastWarningSentAt *time.Time) bool {
	left := expiresAt.Sub(now)
	if left <= 0 {
		return false
	}
	if left > p.WarningWindow {
		return false
	}
	if lastWarningSentAt != nil && now.Sub(*lastWarningSentAt) < p.WarningCooldown {
		return false
	}
	return true
}
