package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// AgingBucket labels one column of the aging schedule.
type AgingBucket string

const (
	AgingCurrent  AgingBucket = "current"
	AgingDays0030 AgingBucket = "0-30"
	AgingDays3160 AgingBucket = "31-60"
	AgingDays6190 AgingBucket = "61-90"
	AgingOver90   AgingBucket = "over_90"
)

// OutstandingInvoice is one open balance feeding the aging computation.
// Balance is the point-in-time amount still due as of the report date.
// DueDate may be zero, in which case InvoiceDate stands in for it.
type OutstandingInvoice struct {
	InvoiceID     int
	InvoiceNumber string
	CustomerID    int
	InvoiceDate   time.Time
	DueDate       time.Time
	Balance       decimal.Decimal
}

// AgingSummary accumulates outstanding balances per bucket. The bucket
// amounts always sum exactly to TotalOutstanding.
type AgingSummary struct {
	Current          decimal.Decimal `json:"current"`
	Days0030         decimal.Decimal `json:"days_0_30"`
	Days3160         decimal.Decimal `json:"days_31_60"`
	Days6190         decimal.Decimal `json:"days_61_90"`
	Over90           decimal.Decimal `json:"over_90"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
}

// BucketFor classifies one due date against the as-of date. Dates are
// compared at day granularity. An invoice due after the as-of date is
// current; one due exactly on it (0 days overdue) falls in 0-30.
func BucketFor(dueDate, asOf time.Time) AgingBucket {
	due := truncateToDay(dueDate)
	ref := truncateToDay(asOf)
	if ref.Before(due) {
		return AgingCurrent
	}
	daysOverdue := int(ref.Sub(due).Hours() / 24)
	switch {
	case daysOverdue <= 30:
		return AgingDays0030
	case daysOverdue <= 60:
		return AgingDays3160
	case daysOverdue <= 90:
		return AgingDays6190
	default:
		return AgingOver90
	}
}

// ComputeAgingBuckets buckets every balance above the payment tolerance
// by how many days it is past due as of the report date. Invoices without
// a due date age from their invoice date.
func ComputeAgingBuckets(invoices []OutstandingInvoice, asOf time.Time) AgingSummary {
	var summary AgingSummary
	for _, inv := range invoices {
		if inv.Balance.LessThanOrEqual(PaymentTolerance) {
			continue
		}
		due := inv.DueDate
		if due.IsZero() {
			due = inv.InvoiceDate
		}
		switch BucketFor(due, asOf) {
		case AgingCurrent:
			summary.Current = summary.Current.Add(inv.Balance)
		case AgingDays0030:
			summary.Days0030 = summary.Days0030.Add(inv.Balance)
		case AgingDays3160:
			summary.Days3160 = summary.Days3160.Add(inv.Balance)
		case AgingDays6190:
			summary.Days6190 = summary.Days6190.Add(inv.Balance)
		case AgingOver90:
			summary.Over90 = summary.Over90.Add(inv.Balance)
		}
		summary.TotalOutstanding = summary.TotalOutstanding.Add(inv.Balance)
	}
	return summary
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
