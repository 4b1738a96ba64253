package sheets

import (
	"context"
	"time"

	"paycal/internal/core"
)

// ScheduleRow is one payment line of a monthly schedule report.
type ScheduleRow struct {
	Date     core.Date
	Title    string
	Kind     core.PaymentKind
	Category string
	Amount   core.Money
	Status   string
}

// Values returns the row as spreadsheet cells: Date, Title, Kind, Category, Amount, Status.
func (r ScheduleRow) Values() []any {
	return []any{r.Date.String(), r.Title, string(r.Kind), r.Category, r.Amount.String(), r.Status}
}

// Ports for outbound adapters.
type (
	// ScheduleExporter writes the payment schedule of one month somewhere
	// outside the service.
	ScheduleExporter interface {
		// ExportMonth appends rows for (year, month) and returns a reference
		// to where they were written.
		ExportMonth(ctx context.Context, year int, month time.Month, rows []ScheduleRow) (ref string, err error)
	}
)
