package enums

import "fmt"

// NotificationKind categorizes user-facing notifications produced from
// offer lifecycle events.
type NotificationKind string

const (
	NotificationOfferReceived      NotificationKind = "offer_received"
	NotificationOfferAccepted      NotificationKind = "offer_accepted"
	NotificationOfferRejected      NotificationKind = "offer_rejected"
	NotificationOfferCountered     NotificationKind = "offer_countered"
	NotificationOfferExpiring      NotificationKind = "offer_expiring"
	NotificationOfferExpired       NotificationKind = "offer_expired"
	NotificationReservationExpired NotificationKind = "reservation_expired"
)

var validNotificationKinds = []NotificationKind{
	NotificationOfferReceived,
	NotificationOfferAccepted,
	NotificationOfferRejected,
	NotificationOfferCountered,
	NotificationOfferExpiring,
	NotificationOfferExpired,
	NotificationReservationExpired,
}

// String implements fmt.Stringer.
func (n NotificationKind) String() string {
	return string(n)
}

// IsValid reports whether the value is a known NotificationKind.
func (n NotificationKind) IsValid() bool {
	for _, candidate := range validNotificationKinds {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationKind converts raw input into a NotificationKind.
func ParseNotificationKind(value string) (NotificationKind, error) {
	for _, candidate := range validNotificationKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification kind %q", value)
}
