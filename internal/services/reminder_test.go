package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"paycal/internal/calendar"
	"paycal/internal/core"
)

func TestReminderPolicies(t *testing.T) {
	tests := []struct {
		name     string
		status   calendar.Status
		days     int
		leadDays int
		want     bool
		wantErr  bool
	}{
		{name: "overdue always", status: calendar.StatusOverdue, days: -30, leadDays: 0, want: true},
		{name: "today always", status: calendar.StatusToday, days: 0, leadDays: 0, want: true},
		{name: "upcoming inside lead", status: calendar.StatusUpcoming, days: 3, leadDays: 3, want: true},
		{name: "upcoming outside lead", status: calendar.StatusUpcoming, days: 4, leadDays: 3, want: false},
		{name: "pending inside long lead", status: calendar.StatusPending, days: 10, leadDays: 14, want: true},
		{name: "completed has no policy", status: calendar.StatusCompleted, wantErr: true},
		{name: "future has no policy", status: calendar.StatusFuture, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy, err := GetReminderPolicy(tt.status)
			if (err != nil) != tt.wantErr {
				t.Fatalf("GetReminderPolicy(%s) error = %v, wantErr %v", tt.status, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			ap := calendar.AnnotatedPayment{Classification: calendar.Classification{Status: tt.status, DaysUntil: tt.days}}
			if got := policy.ShouldRemind(ap, tt.leadDays); got != tt.want {
				t.Errorf("ShouldRemind() = %v, want %v", got, tt.want)
			}
		})
	}
}

type neverPolicy struct{}

func (neverPolicy) ShouldRemind(calendar.AnnotatedPayment, int) bool { return false }

func TestRegisterReminderPolicy(t *testing.T) {
	original, err := GetReminderPolicy(calendar.StatusToday)
	if err != nil {
		t.Fatalf("GetReminderPolicy() error = %v", err)
	}
	t.Cleanup(func() { RegisterReminderPolicy(calendar.StatusToday, original) })

	RegisterReminderPolicy(calendar.StatusToday, neverPolicy{})
	p := NewReminderProcessor(seededStore(), NewOverdueDetector(seededStore(), 0, nil), &fakePublisher{}, 3, nil)
	got, err := p.Select(context.Background(), testNow)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	for _, r := range got {
		if r.Status == string(calendar.StatusToday) {
			t.Errorf("today reminder %q selected after policy override", r.Title)
		}
	}

	RegisterReminderPolicy(calendar.StatusToday, nil)
	if _, err := GetReminderPolicy(calendar.StatusToday); err == nil {
		t.Error("nil registration should remove the policy")
	}
}

func TestReminderProcessorSelect(t *testing.T) {
	tests := []struct {
		name     string
		leadDays int
		want     []string
	}{
		{"overdue and today only", 0, []string{"Rent", "Laptop", "Internet"}},
		{"three day lead", 3, []string{"Rent", "Laptop", "Internet", "Bike"}},
		{"week lead", 7, []string{"Rent", "Laptop", "Internet", "Bike", "Gym"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := seededStore()
			p := NewReminderProcessor(store, NewOverdueDetector(store, 0, nil), &fakePublisher{}, tt.leadDays, nil)
			got, err := p.Select(context.Background(), testNow)
			if err != nil {
				t.Fatalf("Select() error = %v", err)
			}
			var titles []string
			for _, r := range got {
				titles = append(titles, r.Title)
			}
			if diff := cmp.Diff(tt.want, titles); diff != "" {
				t.Errorf("selected reminders mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReminderProcessorSelectAcrossMonthEnd(t *testing.T) {
	store := newFakeStore()
	store.fixed[1] = core.FixedPayment{
		ID: 1, Name: "Rent", Amount: core.NewMoney(800), Category: "Housing", DueDay: 1, IsActive: true,
		PaidMonths: map[string]bool{"2024-03": true},
	}
	now := time.Date(2024, time.March, 30, 9, 0, 0, 0, time.UTC)

	p := NewReminderProcessor(store, nil, &fakePublisher{}, 3, nil)
	got, err := p.Select(context.Background(), now)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d reminders, want 1: %+v", len(got), got)
	}
	r := got[0]
	if !r.DueDate.Equal(core.NewDate(2024, time.April, 1)) || r.DaysUntil != 2 || r.Status != string(calendar.StatusUpcoming) {
		t.Errorf("reminder = %+v, want April 1 upcoming in 2 days", r)
	}
	if r.IsOverdue() {
		t.Error("upcoming reminder reported as overdue")
	}
}

func TestReminderProcessorProcess(t *testing.T) {
	store := seededStore()
	pub := &fakePublisher{}
	p := NewReminderProcessor(store, NewOverdueDetector(store, 0, nil), pub, 3, nil)
	ctx := context.Background()

	n, err := p.Process(ctx, testNow)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if n != 4 {
		t.Errorf("first run published %d, want 4", n)
	}

	n, err = p.Process(ctx, testNow.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if n != 0 {
		t.Errorf("same-day rerun published %d, want 0", n)
	}

	n, err = p.Process(ctx, testNow.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if n != 4 {
		t.Errorf("next-day run published %d, want 4", n)
	}

	want := []string{"Rent", "Laptop", "Internet", "Bike", "Rent", "Laptop", "Internet", "Bike"}
	if diff := cmp.Diff(want, pub.titles()); diff != "" {
		t.Errorf("published mismatch (-want +got):\n%s", diff)
	}
}

func TestReminderProcessorRetriesFailedPublish(t *testing.T) {
	store := seededStore()
	pub := &fakePublisher{failFor: map[int64]bool{10: true}}
	p := NewReminderProcessor(store, NewOverdueDetector(store, 0, nil), pub, 3, nil)
	ctx := context.Background()

	n, err := p.Process(ctx, testNow)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if n != 3 {
		t.Errorf("published %d with one failure, want 3", n)
	}

	pub.mu.Lock()
	pub.failFor = nil
	pub.mu.Unlock()

	n, err = p.Process(ctx, testNow)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if n != 1 {
		t.Errorf("retry published %d, want 1", n)
	}
}

func TestReminderProcessorNotInitialized(t *testing.T) {
	p := NewReminderProcessor(nil, nil, nil, 3, nil)
	if _, err := p.Process(context.Background(), testNow); err == nil {
		t.Error("Process() with no store should fail")
	}
}
