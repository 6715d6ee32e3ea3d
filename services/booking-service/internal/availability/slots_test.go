package availability

import (
	"reflect"
	"testing"

	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
)

func intp(v int) *int { return &v }

func rule(start, end int) *model.WorkingHoursRule {
	return &model.WorkingHoursRule{StartMinute: start, EndMinute: end, IsAvailable: true}
}

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"disjoint", Interval{540, 570}, Interval{600, 630}, false},
		{"adjacent", Interval{600, 630}, Interval{630, 660}, false},
		{"adjacent reversed", Interval{630, 660}, Interval{600, 630}, false},
		{"partial", Interval{600, 660}, Interval{630, 690}, true},
		{"contained", Interval{600, 720}, Interval{630, 660}, true},
		{"identical", Interval{600, 630}, Interval{600, 630}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Overlaps(tc.a, tc.b); got != tc.want {
				t.Fatalf("Overlaps(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
			if got := Overlaps(tc.b, tc.a); got != tc.want {
				t.Fatalf("Overlaps is not symmetric for %v, %v", tc.a, tc.b)
			}
		})
	}
}

func TestSlots_MorningScenario(t *testing.T) {
	slots := Slots(Input{Rule: rule(9*60, 12*60), DurationMinutes: 60, Granularity: 30})

	var available, unavailable []string
	for _, s := range slots {
		if s.Available {
			available = append(available, model.FormatClock(s.StartMinute))
		} else {
			unavailable = append(unavailable, model.FormatClock(s.StartMinute))
		}
	}
	wantAvail := []string{"09:00", "09:30", "10:00", "10:30", "11:00"}
	if !reflect.DeepEqual(available, wantAvail) {
		t.Fatalf("available = %v, want %v", available, wantAvail)
	}
	if !reflect.DeepEqual(unavailable, []string{"11:30"}) {
		t.Fatalf("unavailable = %v, want [11:30]", unavailable)
	}
	if slots[len(slots)-1].Reason != model.ReasonExceedsWorkingHours {
		t.Fatalf("unexpected reason %q", slots[len(slots)-1].Reason)
	}
}

func TestSlots_NeverExceedsWorkingEnd(t *testing.T) {
	for _, dur := range []int{15, 30, 45, 60, 90, 200} {
		for _, gran := range []int{10, 15, 30} {
			r := rule(8*60+10, 17*60+5)
			for _, s := range Slots(Input{Rule: r, DurationMinutes: dur, Granularity: gran}) {
				if s.Available && s.StartMinute+dur > r.EndMinute {
					t.Fatalf("dur=%d gran=%d: slot %s available past end", dur, gran, model.FormatClock(s.StartMinute))
				}
			}
		}
	}
}

func TestSlots_Reasons(t *testing.T) {
	r := rule(9*60, 13*60)
	r.BreakStart, r.BreakEnd = intp(12*60), intp(12*60+30)

	slots := Slots(Input{
		Rule: r,
		Blocked: []model.BlockedInterval{
			{StartMinute: 9 * 60, EndMinute: 9*60 + 30, Reason: "late start"},
		},
		Bookings: []model.Booking{
			{ID: "b1", StartMinute: 10 * 60, DurationMinutes: 30, Status: model.StatusConfirmed},
			{ID: "b2", StartMinute: 11 * 60, DurationMinutes: 30, Status: model.StatusCancelled},
		},
		DurationMinutes: 30,
	})

	want := map[string]string{
		"09:00": model.ReasonBlocked,
		"09:30": "",
		"10:00": model.ReasonBooked,
		"10:30": "",
		"11:00": "",
		"11:30": "",
		"12:00": model.ReasonBreak,
		"12:30": "",
	}
	if len(slots) != len(want) {
		t.Fatalf("expected %d slots, got %d", len(want), len(slots))
	}
	for _, s := range slots {
		clock := model.FormatClock(s.StartMinute)
		if s.Reason != want[clock] {
			t.Fatalf("%s: reason %q, want %q", clock, s.Reason, want[clock])
		}
		if s.Available != (s.Reason == "") {
			t.Fatalf("%s: available flag disagrees with reason", clock)
		}
	}
}

func TestSlots_ReasonPrecedence(t *testing.T) {
	r := rule(9*60, 10*60)
	r.BreakStart, r.BreakEnd = intp(9*60+30), intp(10*60)
	slots := Slots(Input{
		Rule:            r,
		Blocked:         []model.BlockedInterval{{StartMinute: 9 * 60, EndMinute: 10 * 60}},
		Bookings:        []model.Booking{{StartMinute: 9 * 60, DurationMinutes: 60, Status: model.StatusPending}},
		DurationMinutes: 60,
	})
	if slots[0].Reason != model.ReasonBreak {
		t.Fatalf("09:00: expected break to win over blocked and booked, got %q", slots[0].Reason)
	}
	if slots[1].Reason != model.ReasonExceedsWorkingHours {
		t.Fatalf("09:30: expected working hours to win, got %q", slots[1].Reason)
	}
}

func TestSlots_NonWorkingDay(t *testing.T) {
	if got := Slots(Input{Rule: nil, DurationMinutes: 30}); len(got) != 0 {
		t.Fatalf("expected no slots without a rule, got %d", len(got))
	}
	closed := rule(9*60, 17*60)
	closed.IsAvailable = false
	if got := Slots(Input{Rule: closed, DurationMinutes: 30}); len(got) != 0 {
		t.Fatalf("expected no slots on a closed day, got %d", len(got))
	}
}

func TestSlots_Idempotent(t *testing.T) {
	in := Input{
		Rule:            rule(9*60, 18*60),
		Bookings:        []model.Booking{{StartMinute: 14 * 60, DurationMinutes: 45, Status: model.StatusPending}},
		Blocked:         []model.BlockedInterval{{StartMinute: 16 * 60, EndMinute: 16*60 + 30}},
		DurationMinutes: 45,
		Granularity:     15,
	}
	first := Slots(in)
	second := Slots(in)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("identical inputs produced different slots")
	}
}

func TestCheckWindow(t *testing.T) {
	r := rule(9*60, 17*60)
	r.BreakStart, r.BreakEnd = intp(13*60), intp(14*60)
	blocked := []model.BlockedInterval{{StartMinute: 15 * 60, EndMinute: 15*60 + 30}}

	cases := []struct {
		name       string
		start, dur int
		ok         bool
	}{
		{"inside", 10 * 60, 30, true},
		{"ends at close", 16*60 + 30, 30, true},
		{"before open", 8*60 + 30, 60, false},
		{"past close", 16*60 + 45, 30, false},
		{"touches break", 12*60 + 30, 60, false},
		{"after break", 14 * 60, 60, true},
		{"blocked", 14*60 + 45, 30, false},
		{"zero duration", 10 * 60, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckWindow(r, blocked, tc.start, tc.dur)
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
