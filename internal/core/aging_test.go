package core_test

import (
	"testing"
	"time"

	"backoffice/internal/core"
)

func TestBucketFor(t *testing.T) {
	asOf := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		dueDate  time.Time
		expected core.AgingBucket
	}{
		{"due in the future", asOf.AddDate(0, 0, 10), core.AgingCurrent},
		{"due tomorrow", asOf.AddDate(0, 0, 1), core.AgingCurrent},
		{"due today counts as 0-30", asOf, core.AgingDays0030},
		{"30 days overdue", asOf.AddDate(0, 0, -30), core.AgingDays0030},
		{"31 days overdue", asOf.AddDate(0, 0, -31), core.AgingDays3160},
		{"60 days overdue", asOf.AddDate(0, 0, -60), core.AgingDays3160},
		{"61 days overdue", asOf.AddDate(0, 0, -61), core.AgingDays6190},
		{"90 days overdue", asOf.AddDate(0, 0, -90), core.AgingDays6190},
		{"91 days overdue", asOf.AddDate(0, 0, -91), core.AgingOver90},
		{"a year overdue", asOf.AddDate(-1, 0, 0), core.AgingOver90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := core.BucketFor(tt.dueDate, asOf)
			if got != tt.expected {
				t.Errorf("BucketFor(%s, %s) = %s, want %s",
					tt.dueDate.Format("2006-01-02"), asOf.Format("2006-01-02"), got, tt.expected)
			}
		})
	}

	t.Run("time of day is ignored", func(t *testing.T) {
		due := time.Date(2026, 6, 16, 23, 59, 0, 0, time.UTC)
		lateAsOf := time.Date(2026, 6, 15, 23, 0, 0, 0, time.UTC)
		if got := core.BucketFor(due, lateAsOf); got != core.AgingCurrent {
			t.Errorf("due tomorrow late in the day = %s, want current", got)
		}
	})
}

func TestComputeAgingBuckets(t *testing.T) {
	asOf := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	day := func(offset int) time.Time { return asOf.AddDate(0, 0, offset) }

	invoices := []core.OutstandingInvoice{
		{InvoiceNumber: "INV-2026-00001", DueDate: day(10), Balance: dec("100.00")},
		{InvoiceNumber: "INV-2026-00002", DueDate: day(-5), Balance: dec("250.00")},
		{InvoiceNumber: "INV-2026-00003", DueDate: day(-45), Balance: dec("80.00")},
		{InvoiceNumber: "INV-2026-00004", DueDate: day(-75), Balance: dec("40.00")},
		{InvoiceNumber: "INV-2026-00005", DueDate: day(-120), Balance: dec("15.50")},
		// residual within tolerance, must not appear anywhere
		{InvoiceNumber: "INV-2026-00006", DueDate: day(-10), Balance: dec("0.004")},
		// no due date, ages from invoice date
		{InvoiceNumber: "INV-2026-00007", InvoiceDate: day(-40), Balance: dec("60.00")},
	}

	summary := core.ComputeAgingBuckets(invoices, asOf)

	if !summary.Current.Equal(dec("100.00")) {
		t.Errorf("current = %s, want 100.00", summary.Current)
	}
	if !summary.Days0030.Equal(dec("250.00")) {
		t.Errorf("0-30 = %s, want 250.00", summary.Days0030)
	}
	if !summary.Days3160.Equal(dec("140.00")) {
		t.Errorf("31-60 = %s, want 140.00 (incl. invoice aged from its invoice date)", summary.Days3160)
	}
	if !summary.Days6190.Equal(dec("40.00")) {
		t.Errorf("61-90 = %s, want 40.00", summary.Days6190)
	}
	if !summary.Over90.Equal(dec("15.50")) {
		t.Errorf("over 90 = %s, want 15.50", summary.Over90)
	}

	bucketSum := summary.Current.
		Add(summary.Days0030).
		Add(summary.Days3160).
		Add(summary.Days6190).
		Add(summary.Over90)
	if !bucketSum.Equal(summary.TotalOutstanding) {
		t.Errorf("bucket sum %s != total outstanding %s", bucketSum, summary.TotalOutstanding)
	}
	if !summary.TotalOutstanding.Equal(dec("545.50")) {
		t.Errorf("total outstanding = %s, want 545.50", summary.TotalOutstanding)
	}
}
