package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type Shift string

const (
	ShiftMorning   Shift = "morning"
	ShiftAfternoon Shift = "afternoon"
	ShiftEvening   Shift = "evening"
	ShiftNight     Shift = "night"
	ShiftFullDay   Shift = "full_day"
)

// Slot is one day/shift cell of a week.
type Slot struct {
	Day   time.Weekday `json:"day"`
	Shift Shift        `json:"shift"`
}

// Slots is a worker's declared availability, stored as jsonb.
type Slots []Slot

func (s Slots) Value() (driver.Value, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Slot(s))
}

func (s *Slots) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("scan slots: unsupported type %T", value)
	}

	var slots []Slot
	if err := json.Unmarshal(data, &slots); err != nil {
		return fmt.Errorf("scan slots: %w", err)
	}
	*s = slots
	return nil
}

// Covers reports whether the availability satisfies a required slot.
// A full-day slot covers every daytime shift; a full-day requirement is also
// met by both morning and afternoon.
func (s Slots) Covers(required Slot) bool {
	has := func(shift Shift) bool {
		for _, slot := range s {
			if slot.Day == required.Day && slot.Shift == shift {
				return true
			}
		}
		return false
	}

	if required.Shift != ShiftNight && has(ShiftFullDay) {
		return true
	}
	if required.Shift == ShiftFullDay {
		return has(ShiftMorning) && has(ShiftAfternoon)
	}
	return has(required.Shift)
}

type ScheduleKind string

const (
	ScheduleWeekly  ScheduleKind = "weekly"
	ScheduleLiveIn  ScheduleKind = "live_in"
	ScheduleOneTime ScheduleKind = "one_time"
)

// ScheduleDetails is implemented only by Weekly, LiveIn and OneTime.
type ScheduleDetails interface {
	Kind() ScheduleKind
	Slots() []Slot
	isScheduleDetails()
}

// Weekly lists the exact slots a recurring job needs.
type Weekly struct {
	Required []Slot `json:"slots"`
}

func (Weekly) Kind() ScheduleKind { return ScheduleWeekly }

func (w Weekly) Slots() []Slot { return w.Required }

func (Weekly) isScheduleDetails() {}

// LiveIn covers every day of the week except the days off.
type LiveIn struct {
	DaysOff []time.Weekday `json:"daysOff"`
}

func (LiveIn) Kind() ScheduleKind { return ScheduleLiveIn }

func (l LiveIn) Slots() []Slot {
	off := make(map[time.Weekday]bool, len(l.DaysOff))
	for _, d := range l.DaysOff {
		off[d] = true
	}

	slots := make([]Slot, 0, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		if !off[d] {
			slots = append(slots, Slot{Day: d, Shift: ShiftFullDay})
		}
	}
	return slots
}

func (LiveIn) isScheduleDetails() {}

// OneTime is a single dated engagement.
type OneTime struct {
	Date   time.Time `json:"date"`
	Shifts []Shift   `json:"shifts"`
}

func (OneTime) Kind() ScheduleKind { return ScheduleOneTime }

func (o OneTime) Slots() []Slot {
	slots := make([]Slot, 0, len(o.Shifts))
	for _, shift := range o.Shifts {
		slots = append(slots, Slot{Day: o.Date.Weekday(), Shift: shift})
	}
	return slots
}

func (OneTime) isScheduleDetails() {}

// Schedule wraps one ScheduleDetails variant. The zero value has no slots.
type Schedule struct {
	Details ScheduleDetails
}

func (s Schedule) Slots() []Slot {
	if s.Details == nil {
		return nil
	}
	return s.Details.Slots()
}

func (s Schedule) MarshalJSON() ([]byte, error) {
	if s.Details == nil {
		return []byte("null"), nil
	}

	body, err := json.Marshal(s.Details)
	if err != nil {
		return nil, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	kind, _ := json.Marshal(s.Details.Kind())
	fields["kind"] = kind

	return json.Marshal(fields)
}

func (s *Schedule) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		s.Details = nil
		return nil
	}

	var head struct {
		Kind ScheduleKind `json:"kind"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return fmt.Errorf("decode schedule: %w", err)
	}

	var details ScheduleDetails
	switch head.Kind {
	case ScheduleWeekly:
		var w Weekly
		if err := json.Unmarshal(data, &w); err != nil {
			return fmt.Errorf("decode weekly schedule: %w", err)
		}
		details = w
	case ScheduleLiveIn:
		var l LiveIn
		if err := json.Unmarshal(data, &l); err != nil {
			return fmt.Errorf("decode live-in schedule: %w", err)
		}
		details = l
	case ScheduleOneTime:
		var o OneTime
		if err := json.Unmarshal(data, &o); err != nil {
			return fmt.Errorf("decode one-time schedule: %w", err)
		}
		details = o
	default:
		return fmt.Errorf("decode schedule: unknown kind %q", head.Kind)
	}

	s.Details = details
	return nil
}
