package storage

type FixedPayment struct {
	ID        int64
	Name      string
	Amount    string
	Category  string
	DueDay    int64
	IsActive  bool
	CreatedAt string
	UpdatedAt string
}

type FixedPaymentHistory struct {
	ID             int64
	FixedPaymentID int64
	Year           int64
	Month          int64
	Amount         string
	PaidAt         string
}

type InstallmentPayment struct {
	ID                int64
	ItemName          string
	Category          string
	TotalAmount       string
	InstallmentAmount string
	TotalInstallments int64
	PaidInstallments  int64
	StartDate         string
	NextPaymentDate   string
	Vendor            string
	Notes             string
	IsActive          bool
	CreatedAt         string
	UpdatedAt         string
}

type InstallmentPaymentHistory struct {
	ID                   int64
	InstallmentPaymentID int64
	InstallmentNumber    int64
	Amount               string
	PaidAt               string
}
