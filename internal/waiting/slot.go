package waiting

import "time"

// Slot is one of the two fixed daily registration windows.
type Slot string

const (
	SlotAm Slot = "am"
	SlotPm Slot = "pm"
)

// KST is the fixed offset used for all day-type decisions. The venue is in
// Korea; DST does not apply.
var KST = time.FixedZone("KST", 9*60*60)

// ParseSlot maps an incoming slot field to a Slot, defaulting to am.
func ParseSlot(s string) Slot {
	if s == string(SlotPm) {
		return SlotPm
	}
	return SlotAm
}

// Label returns the Korean label used in replies and notifications.
func (s Slot) Label() string {
	if s == SlotPm {
		return "오후"
	}
	return "오전"
}

// TargetHourUTC is the exact wall-clock hour (UTC, on the hour) at which the
// slot's registration should fire: 10:00 KST for am, 16:00 KST for pm.
func (s Slot) TargetHourUTC() int {
	if s == SlotPm {
		return 7
	}
	return 1
}
