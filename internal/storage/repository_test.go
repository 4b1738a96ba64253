package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"paycal/internal/core"
)

var testNow = time.Date(2024, time.March, 15, 9, 0, 0, 0, time.UTC)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "paycal.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func rent() core.FixedPayment {
	return core.FixedPayment{
		Name:     "Rent",
		Amount:   core.MoneyFromCents(95050),
		Category: "Housing",
		DueDay:   31,
		IsActive: true,
	}
}

func laptop() core.InstallmentPayment {
	return core.InstallmentPayment{
		ItemName:          "Laptop",
		Category:          "Tech",
		TotalAmount:       core.MoneyFromCents(36000),
		InstallmentAmount: core.MoneyFromCents(12000),
		TotalInstallments: 3,
		StartDate:         core.NewDate(2024, time.January, 31),
		Vendor:            "Shop",
		IsActive:          true,
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paycal.db")
	if err := RunMigrations(path); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := RunMigrations(path); err != nil {
		t.Fatalf("second run: %v", err)
	}
}

func TestFixedPaymentLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	created, err := repo.CreateFixedPayment(ctx, rent())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected an id")
	}

	got, err := repo.GetFixedPayment(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Rent" || got.Amount.String() != "950.50" || got.DueDay != 31 || !got.IsActive {
		t.Fatalf("unexpected payment %+v", got)
	}

	paid, err := repo.MarkFixedPaid(ctx, created.ID, 2024, time.March, testNow)
	if err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if !paid.IsPaidFor(2024, time.March) {
		t.Fatal("expected March to be paid")
	}
	if _, err := repo.MarkFixedPaid(ctx, created.ID, 2024, time.March, testNow); !errors.Is(err, ErrAlreadyPaid) {
		t.Fatalf("expected ErrAlreadyPaid, got %v", err)
	}

	list, err := repo.ListFixedPayments(ctx, true)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || !list[0].IsPaidFor(2024, time.March) || list[0].IsPaidFor(2024, time.April) {
		t.Fatalf("unexpected list %+v", list)
	}

	if err := repo.DeleteFixedPayment(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetFixedPayment(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.DeleteFixedPayment(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestFixedPaymentValidation(t *testing.T) {
	repo := newTestRepo(t)
	bad := rent()
	bad.DueDay = 40
	if _, err := repo.CreateFixedPayment(context.Background(), bad); !errors.Is(err, core.ErrInvalidDueDay) {
		t.Fatalf("expected ErrInvalidDueDay, got %v", err)
	}
	if _, err := repo.MarkFixedPaid(context.Background(), 1, 2024, 13, testNow); err == nil {
		t.Fatal("expected error for invalid month")
	}
}

func TestListFixedPaymentsActiveFilter(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	inactive := rent()
	inactive.Name = "Old gym"
	inactive.IsActive = false
	for _, p := range []core.FixedPayment{rent(), inactive} {
		if _, err := repo.CreateFixedPayment(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	active, err := repo.ListFixedPayments(ctx, true)
	if err != nil {
		t.Fatal(err)
	}
	all, err := repo.ListFixedPayments(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 1 || len(all) != 2 {
		t.Fatalf("expected 1 active of 2, got %d of %d", len(active), len(all))
	}
}

func TestInstallmentLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	created, err := repo.CreateInstallmentPayment(ctx, laptop(), testNow)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.NextPaymentDate != "2024-02-29" {
		t.Fatalf("expected first installment on 2024-02-29, got %q", created.NextPaymentDate)
	}

	var nexts []string
	for i := 0; i < 3; i++ {
		p, err := repo.RecordInstallmentPayment(ctx, created.ID, testNow)
		if err != nil {
			t.Fatalf("record %d: %v", i+1, err)
		}
		nexts = append(nexts, p.NextPaymentDate)
	}
	if diff := cmp.Diff(nexts, []string{"2024-03-31", "2024-04-30", ""}); diff != "" {
		t.Errorf("next payment dates mismatch (-got +want):\n%s", diff)
	}

	if _, err := repo.RecordInstallmentPayment(ctx, created.ID, testNow); !errors.Is(err, core.ErrInstallmentsComplete) {
		t.Fatalf("expected ErrInstallmentsComplete, got %v", err)
	}

	got, err := repo.GetInstallmentPayment(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsComplete() || got.CompletionPercentage() != 100 {
		t.Fatalf("expected complete plan, got %+v", got)
	}

	history, err := repo.InstallmentHistory(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 3 || history[2].Number != 3 || history[0].Amount.String() != "120.00" || !history[0].PaidAt.Equal(testNow) {
		t.Fatalf("unexpected history %+v", history)
	}

	if err := repo.DeleteInstallmentPayment(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetInstallmentPayment(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.RecordInstallmentPayment(ctx, created.ID, testNow); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.InstallmentHistory(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for history of a deleted plan, got %v", err)
	}
}

func TestUpdateFixedPayment(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	created, err := repo.CreateFixedPayment(ctx, rent())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := repo.MarkFixedPaid(ctx, created.ID, 2024, time.March, testNow); err != nil {
		t.Fatal(err)
	}

	edit := rent()
	edit.ID = created.ID
	edit.Name = "Flat rent"
	edit.Amount = core.MoneyFromCents(99000)
	edit.DueDay = 5
	edit.IsActive = false
	got, err := repo.UpdateFixedPayment(ctx, edit)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Name != "Flat rent" || got.Amount.String() != "990.00" || got.DueDay != 5 || got.IsActive {
		t.Fatalf("unexpected payment %+v", got)
	}
	if !got.IsPaidFor(2024, time.March) {
		t.Error("update must keep paid months")
	}

	edit.DueDay = 0
	if _, err := repo.UpdateFixedPayment(ctx, edit); !errors.Is(err, core.ErrInvalidDueDay) {
		t.Fatalf("expected ErrInvalidDueDay, got %v", err)
	}
	missing := rent()
	missing.ID = created.ID + 100
	if _, err := repo.UpdateFixedPayment(ctx, missing); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateInstallmentPayment(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	created, err := repo.CreateInstallmentPayment(ctx, laptop(), testNow)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := repo.RecordInstallmentPayment(ctx, created.ID, testNow); err != nil {
		t.Fatal(err)
	}

	edit := laptop()
	edit.ID = created.ID
	edit.ItemName = "Laptop Pro"
	edit.TotalAmount = core.MoneyFromCents(48000)
	edit.TotalInstallments = 4
	edit.StartDate = core.Date{}
	edit.PaidInstallments = 0
	got, err := repo.UpdateInstallmentPayment(ctx, edit, testNow)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.ItemName != "Laptop Pro" || got.TotalInstallments != 4 || got.TotalAmount.String() != "480.00" {
		t.Fatalf("unexpected plan %+v", got)
	}
	if got.PaidInstallments != 1 {
		t.Errorf("paid installments = %d, want 1 kept", got.PaidInstallments)
	}
	if !got.StartDate.Equal(core.NewDate(2024, time.January, 31)) {
		t.Errorf("start date = %s, want kept 2024-01-31", got.StartDate)
	}
	if got.NextPaymentDate != "2024-03-31" {
		t.Errorf("next payment date = %q, want 2024-03-31", got.NextPaymentDate)
	}

	edit.TotalInstallments = 1
	got, err = repo.UpdateInstallmentPayment(ctx, edit, testNow)
	if err != nil {
		t.Fatalf("shrink to paid count: %v", err)
	}
	if !got.IsComplete() || got.NextPaymentDate != "" {
		t.Fatalf("expected complete plan without next date, got %+v", got)
	}

	if _, err := repo.RecordInstallmentPayment(ctx, created.ID, testNow); !errors.Is(err, core.ErrInstallmentsComplete) {
		t.Fatalf("expected ErrInstallmentsComplete, got %v", err)
	}
	edit.TotalInstallments = 4
	if _, err := repo.UpdateInstallmentPayment(ctx, edit, testNow); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.RecordInstallmentPayment(ctx, created.ID, testNow); err != nil {
		t.Fatal(err)
	}
	edit.TotalInstallments = 1
	if _, err := repo.UpdateInstallmentPayment(ctx, edit, testNow); !errors.Is(err, core.ErrPaidExceedsTotal) {
		t.Fatalf("expected ErrPaidExceedsTotal below the paid count, got %v", err)
	}

	edit.ID = created.ID + 100
	if _, err := repo.UpdateInstallmentPayment(ctx, edit, testNow); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestInstallmentKeepsServerDate(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	p := laptop()
	p.NextPaymentDate = "2024-06-01"
	created, err := repo.CreateInstallmentPayment(ctx, p, testNow)
	if err != nil {
		t.Fatal(err)
	}
	if created.NextPaymentDate != "2024-06-01" {
		t.Fatalf("expected supplied date to be kept, got %q", created.NextPaymentDate)
	}

	list, err := repo.ListInstallmentPayments(ctx, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || !list[0].StartDate.Equal(core.NewDate(2024, time.January, 31)) {
		t.Fatalf("unexpected list %+v", list)
	}
}

func TestListCategories(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	utilities := rent()
	utilities.Name = "Power"
	utilities.Category = "Utilities"
	for _, p := range []core.FixedPayment{rent(), utilities, rent()} {
		if _, err := repo.CreateFixedPayment(ctx, p); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := repo.CreateInstallmentPayment(ctx, laptop(), testNow); err != nil {
		t.Fatal(err)
	}

	fixed, err := repo.ListCategories(ctx, core.KindFixed)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(fixed, []string{"Housing", "Utilities"}); diff != "" {
		t.Errorf("fixed categories mismatch (-got +want):\n%s", diff)
	}
	inst, err := repo.ListCategories(ctx, core.KindInstallment)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(inst, []string{"Tech"}); diff != "" {
		t.Errorf("installment categories mismatch (-got +want):\n%s", diff)
	}
	if _, err := repo.ListCategories(ctx, "weekly"); !errors.Is(err, core.ErrUnsupportedPaymentKind) {
		t.Fatalf("expected ErrUnsupportedPaymentKind, got %v", err)
	}
}
