package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"paycal/internal/calendar"
	"paycal/internal/core"
	"paycal/internal/storage"
)

var testNow = time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// fakeStore is an in-memory PaymentRepository.
type fakeStore struct {
	mu           sync.Mutex
	fixed        map[int64]core.FixedPayment
	installments map[int64]core.InstallmentPayment
	history      map[int64][]core.InstallmentRecord
	nextID       int64
	listErr      error
}

var _ PaymentRepository = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		fixed:        make(map[int64]core.FixedPayment),
		installments: make(map[int64]core.InstallmentPayment),
		history:      make(map[int64][]core.InstallmentRecord),
		nextID:       100,
	}
}

// seededStore holds the payments most tests run against, as seen on 2024-03-15.
func seededStore() *fakeStore {
	s := newFakeStore()
	for _, p := range []core.FixedPayment{
		{ID: 1, Name: "Rent", Amount: core.NewMoney(800), Category: "Housing", DueDay: 1, IsActive: true},
		{ID: 2, Name: "Gym", Amount: core.NewMoney(30), Category: "Health", DueDay: 20, IsActive: true},
		{ID: 3, Name: "Internet", Amount: core.NewMoney(25), Category: "Utilities", DueDay: 15, IsActive: true},
		{ID: 4, Name: "Phone", Amount: core.NewMoney(15), Category: "Utilities", DueDay: 10, IsActive: true,
			PaidMonths: map[string]bool{"2024-03": true}},
		{ID: 5, Name: "Old storage unit", Amount: core.NewMoney(40), Category: "Housing", DueDay: 2, IsActive: false},
	} {
		s.fixed[p.ID] = p
	}
	for _, p := range []core.InstallmentPayment{
		{ID: 10, ItemName: "Laptop", Category: "Electronics", TotalAmount: core.NewMoney(1200), InstallmentAmount: core.NewMoney(100),
			TotalInstallments: 12, PaidInstallments: 3, StartDate: core.NewDate(2023, time.December, 12), NextPaymentDate: "2024-03-12", IsActive: true},
		{ID: 11, ItemName: "Sofa", Category: "Home", TotalAmount: core.NewMoney(600), InstallmentAmount: core.NewMoney(100),
			TotalInstallments: 6, PaidInstallments: 6, StartDate: core.NewDate(2023, time.September, 20), IsActive: true},
		{ID: 12, ItemName: "Bike", Category: "Sport", TotalAmount: core.NewMoney(500), InstallmentAmount: core.NewMoney(50),
			TotalInstallments: 10, PaidInstallments: 2, StartDate: core.NewDate(2024, time.January, 18), NextPaymentDate: "2024-03-18", IsActive: true},
	} {
		s.installments[p.ID] = p
	}
	return s
}

func (s *fakeStore) ListFixedPayments(_ context.Context, activeOnly bool) ([]core.FixedPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []core.FixedPayment
	for _, p := range s.fixed {
		if activeOnly && !p.IsActive {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStore) ListInstallmentPayments(_ context.Context, activeOnly bool) ([]core.InstallmentPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []core.InstallmentPayment
	for _, p := range s.installments {
		if activeOnly && !p.IsActive {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStore) CreateFixedPayment(_ context.Context, p core.FixedPayment) (core.FixedPayment, error) {
	if err := p.Validate(); err != nil {
		return core.FixedPayment{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	p.ID = s.nextID
	p.IsActive = true
	s.fixed[p.ID] = p
	return p, nil
}

func (s *fakeStore) GetFixedPayment(_ context.Context, id int64) (core.FixedPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.fixed[id]
	if !ok {
		return core.FixedPayment{}, storage.ErrNotFound
	}
	return p, nil
}

func (s *fakeStore) UpdateFixedPayment(_ context.Context, p core.FixedPayment) (core.FixedPayment, error) {
	if err := p.Validate(); err != nil {
		return core.FixedPayment{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.fixed[p.ID]
	if !ok {
		return core.FixedPayment{}, storage.ErrNotFound
	}
	p.PaidMonths = current.PaidMonths
	s.fixed[p.ID] = p
	return p, nil
}

func (s *fakeStore) DeleteFixedPayment(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.fixed[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.fixed, id)
	return nil
}

func (s *fakeStore) MarkFixedPaid(_ context.Context, id int64, year int, month time.Month, _ time.Time) (core.FixedPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.fixed[id]
	if !ok {
		return core.FixedPayment{}, storage.ErrNotFound
	}
	if p.IsPaidFor(year, month) {
		return core.FixedPayment{}, storage.ErrAlreadyPaid
	}
	paid := make(map[string]bool, len(p.PaidMonths)+1)
	for k, v := range p.PaidMonths {
		paid[k] = v
	}
	paid[core.MonthKey(year, month)] = true
	p.PaidMonths = paid
	s.fixed[id] = p
	return p, nil
}

func (s *fakeStore) CreateInstallmentPayment(_ context.Context, p core.InstallmentPayment, now time.Time) (core.InstallmentPayment, error) {
	if err := p.Validate(); err != nil {
		return core.InstallmentPayment{}, err
	}
	if p.NextPaymentDate == "" && !p.IsComplete() {
		d, err := calendar.ResolveInstallmentDate(p, now)
		if err != nil {
			return core.InstallmentPayment{}, err
		}
		p.NextPaymentDate = d.String()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	p.ID = s.nextID
	p.IsActive = true
	s.installments[p.ID] = p
	return p, nil
}

func (s *fakeStore) GetInstallmentPayment(_ context.Context, id int64) (core.InstallmentPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.installments[id]
	if !ok {
		return core.InstallmentPayment{}, storage.ErrNotFound
	}
	return p, nil
}

func (s *fakeStore) UpdateInstallmentPayment(_ context.Context, p core.InstallmentPayment, now time.Time) (core.InstallmentPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.installments[p.ID]
	if !ok {
		return core.InstallmentPayment{}, storage.ErrNotFound
	}
	p.PaidInstallments = current.PaidInstallments
	if p.StartDate.IsEmpty() {
		p.StartDate = current.StartDate
	}
	if err := p.Validate(); err != nil {
		return core.InstallmentPayment{}, err
	}
	p.NextPaymentDate = ""
	if !p.IsComplete() {
		d, err := calendar.ResolveInstallmentDate(p, now)
		if err != nil {
			return core.InstallmentPayment{}, err
		}
		p.NextPaymentDate = d.String()
	}
	s.installments[p.ID] = p
	return p, nil
}

func (s *fakeStore) InstallmentHistory(_ context.Context, id int64) ([]core.InstallmentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.installments[id]; !ok {
		return nil, storage.ErrNotFound
	}
	return append([]core.InstallmentRecord(nil), s.history[id]...), nil
}

func (s *fakeStore) DeleteInstallmentPayment(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.installments[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.installments, id)
	return nil
}

func (s *fakeStore) RecordInstallmentPayment(_ context.Context, id int64, now time.Time) (core.InstallmentPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.installments[id]
	if !ok {
		return core.InstallmentPayment{}, storage.ErrNotFound
	}
	if p.IsComplete() {
		return core.InstallmentPayment{}, core.ErrInstallmentsComplete
	}
	p.PaidInstallments++
	p.NextPaymentDate = ""
	if !p.IsComplete() {
		d, err := calendar.ResolveInstallmentDate(p, now)
		if err != nil {
			return core.InstallmentPayment{}, err
		}
		p.NextPaymentDate = d.String()
	}
	s.installments[id] = p
	s.history[id] = append(s.history[id], core.InstallmentRecord{Number: p.PaidInstallments, Amount: p.InstallmentAmount, PaidAt: now})
	return p, nil
}

func (s *fakeStore) ListCategories(_ context.Context, kind core.PaymentKind) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]bool{}
	switch kind {
	case core.KindFixed:
		for _, p := range s.fixed {
			seen[p.Category] = true
		}
	case core.KindInstallment:
		for _, p := range s.installments {
			seen[p.Category] = true
		}
	default:
		return nil, core.ErrUnsupportedPaymentKind
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out, nil
}

// fakePublisher records reminders and fails for the payment ids in failFor.
type fakePublisher struct {
	mu        sync.Mutex
	published []core.Reminder
	failFor   map[int64]bool
}

func (p *fakePublisher) PublishReminder(_ context.Context, r core.Reminder) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failFor[r.PaymentID] {
		return errors.New("broker unavailable")
	}
	p.published = append(p.published, r)
	return nil
}

func (p *fakePublisher) titles() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.published))
	for _, r := range p.published {
		out = append(out, r.Title)
	}
	return out
}

func annotatedTitles(ps []calendar.AnnotatedPayment) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Payment.Title())
	}
	return out
}
