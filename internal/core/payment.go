package core

// Payment is the closed set of recurring payment shapes the calendar knows
// how to resolve: FixedPayment and InstallmentPayment.
type Payment interface {
	Kind() PaymentKind
	PaymentID() int64
	Title() string
	DueAmount() Money
	PaymentCategory() string

	isPayment()
}

var (
	_ Payment = FixedPayment{}
	_ Payment = InstallmentPayment{}
)

func (FixedPayment) Kind() PaymentKind { return KindFixed }
func (p FixedPayment) PaymentID() int64 { return p.ID }
func (p FixedPayment) Title() string { return p.Name }
func (p FixedPayment) DueAmount() Money { return p.Amount }
func (p FixedPayment) PaymentCategory() string { return p.Category }
func (FixedPayment) isPayment() {}

func (InstallmentPayment) Kind() PaymentKind { return KindInstallment }
func (p InstallmentPayment) PaymentID() int64 { return p.ID }
func (p InstallmentPayment) Title() string { return p.ItemName }
func (p InstallmentPayment) DueAmount() Money { return p.InstallmentAmount }
func (p InstallmentPayment) PaymentCategory() string { return p.Category }
func (InstallmentPayment) isPayment() {}

// ParseKind maps a wire value to a PaymentKind.
func ParseKind(s string) (PaymentKind, error) {
	switch PaymentKind(s) {
	case KindFixed, KindInstallment:
		return PaymentKind(s), nil
	}
	return "", ErrUnsupportedPaymentKind
}
