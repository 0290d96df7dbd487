package schedule

import (
	"errors"
	"testing"
	"time"

	sferrors "github.com/stepflow/stepflow/pkg/common/errors"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestPeriod_IsZero(t *testing.T) {
	if !(Period{}).IsZero() {
		t.Error("empty period should be zero")
	}
	if (Period{Millis: 1}).IsZero() {
		t.Error("period with millis should not be zero")
	}
}

func TestPeriod_String(t *testing.T) {
	tests := []struct {
		p    Period
		want string
	}{
		{Period{}, "0"},
		{Period{Months: 1}, "1mo"},
		{Period{Years: 1, Days: 2, Minutes: 30}, "1y2d30m"},
		{Period{Weeks: 2, Seconds: 5, Millis: 250}, "2w5s250ms"},
	}
	for _, tt := range tests {
		if got := tt.p.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestStdCalendar_AddPeriod(t *testing.T) {
	cal := StdCalendar{}

	tests := []struct {
		name string
		t    time.Time
		p    Period
		want time.Time
	}{
		{
			name: "one month",
			t:    epoch,
			p:    Period{Months: 1},
			want: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "month end normalizes like AddDate",
			t:    time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
			p:    Period{Months: 1},
			want: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "leap year day",
			t:    time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC),
			p:    Period{Days: 1},
			want: time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "compound increment applied atomically",
			t:    epoch,
			p:    Period{Months: 1, Weeks: 1, Hours: 2, Millis: 500},
			want: time.Date(2024, 2, 8, 2, 0, 0, 500e6, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cal.AddPeriod(tt.t, tt.p); !got.Equal(tt.want) {
				t.Errorf("AddPeriod() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSchedule_Validate(t *testing.T) {
	tests := []struct {
		name    string
		s       Schedule
		wantErr bool
	}{
		{"one shot", Once(epoch), false},
		{"periodic finite", Every(epoch, Period{Months: 1}, 3), false},
		{"periodic forever", Every(epoch, Period{Days: 1}, Forever), false},
		{"cron", FromCron(epoch, "0 9 * * MON", Forever), false},
		{"cron with seconds", FromCron(epoch, "30 0 9 * * *", 5), false},
		{"cron descriptor", FromCron(epoch, "@daily", Forever), false},
		{"bounded", Every(epoch, Period{Weeks: 1}, Forever).Until(epoch.AddDate(1, 0, 0)), false},

		{"zero start", Every(time.Time{}, Period{Days: 1}, 1), true},
		{"end before start", Once(epoch).Until(epoch.Add(-time.Second)), true},
		{"zero period", Schedule{Start: epoch, Period: Period{}, Cron: "", Repeat: 2}, true},
		{"negative period unit", Every(epoch, Period{Days: -1}, 2), true},
		{"both period and cron", Schedule{Start: epoch, Period: Period{Days: 1}, Cron: "@daily", Repeat: 2}, true},
		{"bad cron", FromCron(epoch, "not a cron", 1), true},
		{"zero repeat with recurrence", Every(epoch, Period{Days: 1}, 0), true},
		{"negative repeat", Every(epoch, Period{Days: 1}, -2), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.s.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, sferrors.ErrInvalidSchedule) {
				t.Errorf("error should unwrap to ErrInvalidSchedule, got %v", err)
			}
		})
	}
}

func TestSchedule_Validate_NormalizesOneShot(t *testing.T) {
	s := Once(epoch)
	s.Repeat = 0
	if err := s.Validate(); err != nil {
		t.Fatal(err)
	}
	if got := s.Occurrences(); got != 1 {
		t.Errorf("one-shot occurrences = %d, want 1", got)
	}
}

func TestSchedule_Occurrence_Monthly(t *testing.T) {
	s := Every(epoch, Period{Months: 1}, 3)
	if err := s.Validate(); err != nil {
		t.Fatal(err)
	}

	want := []time.Time{
		epoch,
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	for n, w := range want {
		got, err := s.Occurrence(Std, n)
		if err != nil {
			t.Fatalf("Occurrence(%d): %v", n, err)
		}
		if !got.Equal(w) {
			t.Errorf("Occurrence(%d) = %v, want %v", n, got, w)
		}
	}

	if _, err := s.Occurrence(Std, 3); !errors.Is(err, sferrors.ErrExhausted) {
		t.Errorf("Occurrence(3) error = %v, want ErrExhausted", err)
	}
}

func TestSchedule_Occurrence_EndBound(t *testing.T) {
	s := Every(epoch, Period{Months: 1}, 12).Until(time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC))
	if err := s.Validate(); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Occurrence(Std, 1); err != nil {
		t.Fatalf("occurrence inside bound: %v", err)
	}
	if _, err := s.Occurrence(Std, 2); !errors.Is(err, sferrors.ErrExhausted) {
		t.Errorf("occurrence past end = %v, want ErrExhausted", err)
	}
}

func TestSchedule_Occurrence_Cron(t *testing.T) {
	s := FromCron(epoch.Add(30*time.Minute), "0 * * * *", Forever)
	if err := s.Validate(); err != nil {
		t.Fatal(err)
	}

	// Occurrence 0 is the anchor itself; later occurrences follow the
	// expression from there.
	got0, err := s.Occurrence(Std, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !got0.Equal(epoch.Add(30 * time.Minute)) {
		t.Errorf("Occurrence(0) = %v, want anchor", got0)
	}

	got2, err := s.Occurrence(Std, 2)
	if err != nil {
		t.Fatal(err)
	}
	if want := epoch.Add(2 * time.Hour); !got2.Equal(want) {
		t.Errorf("Occurrence(2) = %v, want %v", got2, want)
	}
}

func TestSchedule_NextAfter_FastForward(t *testing.T) {
	s := Every(epoch, Period{Months: 1}, Forever)
	if err := s.Validate(); err != nil {
		t.Fatal(err)
	}

	// Registration happens mid-February: January and February occurrences
	// are skipped, not fired in bulk.
	now := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)
	n, at, err := s.NextAfter(Std, 0, now)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("next occurrence index = %d, want 2", n)
	}
	if want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC); !at.Equal(want) {
		t.Errorf("next occurrence at %v, want %v", at, want)
	}
}

func TestSchedule_NextAfter_Exact(t *testing.T) {
	s := Every(epoch, Period{Days: 1}, 5)
	if err := s.Validate(); err != nil {
		t.Fatal(err)
	}

	// An occurrence exactly at "now" is still due.
	n, at, err := s.NextAfter(Std, 1, epoch.AddDate(0, 0, 1))
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 || !at.Equal(epoch.AddDate(0, 0, 1)) {
		t.Errorf("NextAfter = (%d, %v), want (1, %v)", n, at, epoch.AddDate(0, 0, 1))
	}
}

func TestSchedule_NextAfter_Exhausted(t *testing.T) {
	s := Every(epoch, Period{Days: 1}, 3)
	if err := s.Validate(); err != nil {
		t.Fatal(err)
	}

	_, _, err := s.NextAfter(Std, 0, epoch.AddDate(0, 1, 0))
	if !errors.Is(err, sferrors.ErrExhausted) {
		t.Errorf("NextAfter past all occurrences = %v, want ErrExhausted", err)
	}
}

func TestSchedule_Occurrence_Deterministic(t *testing.T) {
	s := Every(time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC), Period{Months: 1}, Forever)
	if err := s.Validate(); err != nil {
		t.Fatal(err)
	}

	// Same derivation twice must agree exactly; independent executors rely
	// on this.
	for n := 0; n < 24; n++ {
		a, err1 := s.Occurrence(Std, n)
		b, err2 := s.Occurrence(Std, n)
		if err1 != nil || err2 != nil {
			t.Fatalf("occurrence %d: %v %v", n, err1, err2)
		}
		if !a.Equal(b) {
			t.Fatalf("occurrence %d not deterministic: %v vs %v", n, a, b)
		}
	}
}
