package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"paycal/internal/core"
)

var hundred = decimal.NewFromInt(100)

// InstallmentSummary aggregates every stored installment plan.
type InstallmentSummary struct {
	TotalPlans           int
	ActivePlans          int
	TotalDebt            core.Money // sum of active plan totals
	TotalPaid            core.Money
	TotalRemaining       core.Money
	MonthlyTotal         core.Money // per-month charge of active, unfinished plans
	CompletionPercentage int
}

// FixedMonthlyTotal is the monthly cost of active fixed payments.
type FixedMonthlyTotal struct {
	TotalAmount core.Money
	Count       int
}

// InstallmentSummary totals the installment plans. Paid amounts are capped
// at each plan's total.
func (s *PaymentService) InstallmentSummary(ctx context.Context) (InstallmentSummary, error) {
	plans, err := s.repo.ListInstallmentPayments(ctx, false)
	if err != nil {
		return InstallmentSummary{}, fmt.Errorf("list installment payments: %w", err)
	}

	var sum InstallmentSummary
	sum.TotalPlans = len(plans)
	for _, p := range plans {
		if !p.IsActive {
			continue
		}
		sum.ActivePlans++
		sum.TotalDebt = sum.TotalDebt.Add(p.TotalAmount)

		paid := p.InstallmentAmount.Mul(p.PaidInstallments)
		if paid.GreaterThan(p.TotalAmount.Decimal) {
			paid = p.TotalAmount
		}
		sum.TotalPaid = sum.TotalPaid.Add(paid)

		if !p.IsComplete() {
			sum.MonthlyTotal = sum.MonthlyTotal.Add(p.InstallmentAmount)
		}
	}
	sum.TotalRemaining = sum.TotalDebt.Sub(sum.TotalPaid)
	if sum.TotalDebt.IsPositive() {
		sum.CompletionPercentage = int(sum.TotalPaid.Decimal.Mul(hundred).Div(sum.TotalDebt.Decimal).Round(0).IntPart())
	}
	return sum, nil
}

// FixedMonthlyTotal sums the amounts of active fixed payments.
func (s *PaymentService) FixedMonthlyTotal(ctx context.Context) (FixedMonthlyTotal, error) {
	fixed, err := s.repo.ListFixedPayments(ctx, true)
	if err != nil {
		return FixedMonthlyTotal{}, fmt.Errorf("list fixed payments: %w", err)
	}
	var total FixedMonthlyTotal
	for _, p := range fixed {
		total.TotalAmount = total.TotalAmount.Add(p.Amount)
		total.Count++
	}
	return total, nil
}
