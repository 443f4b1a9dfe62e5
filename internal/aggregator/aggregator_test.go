package aggregator

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/donation-receipts/internal/types"
)

var issueDate = time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

func record(row int, last, first, amount string, date time.Time) types.DonationRecord {
	return types.DonationRecord{
		RowNumber:      row,
		LastName:       last,
		FirstName:      first,
		Street:         "Musterweg 1",
		PostalCityLine: "12345 Musterstadt",
		Amount:         decimal.RequireFromString(amount),
		Date:           date,
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAggregate_ExactSum(t *testing.T) {
	records := []types.DonationRecord{
		record(1, "Mustermensch", "Erika", "50.00", day(2025, 1, 1)),
		record(2, "Menschmuster", "Max", "100.00", day(2025, 7, 15)),
	}

	summary := Aggregate(records, issueDate)

	assert.Equal(t, "150.00", summary.TotalAmount.StringFixed(2))
	assert.True(t, summary.TotalAmount.Equal(decimal.RequireFromString("150")))
	assert.Equal(t, 2, summary.RecordCount)
	assert.Equal(t, issueDate, summary.IssueDate)
	assert.Nil(t, summary.Donor, "two different donors")
}

func TestAggregate_NoFloatDrift(t *testing.T) {
	var records []types.DonationRecord
	for i := 0; i < 10; i++ {
		records = append(records, record(i+1, "Muster", "Erika", "0.10", day(2025, 1, 1)))
	}

	summary := Aggregate(records, issueDate)

	assert.Equal(t, "1.00", summary.TotalAmount.StringFixed(2))
	assert.True(t, summary.TotalAmount.Equal(decimal.NewFromInt(1)))
}

func TestAggregate_SortsByDateStable(t *testing.T) {
	records := []types.DonationRecord{
		record(1, "Muster", "Erika", "10", day(2025, 5, 1)),
		record(2, "Muster", "Erika", "20", day(2025, 2, 1)),
		record(3, "muster", "ERIKA", "30", day(2025, 5, 1)),
	}

	summary := Aggregate(records, issueDate)

	require.Len(t, summary.Records, 3)
	assert.Equal(t, []int{2, 1, 3}, []int{summary.Records[0].RowNumber, summary.Records[1].RowNumber, summary.Records[2].RowNumber})
	assert.Equal(t, day(2025, 2, 1), summary.FirstDate)
	assert.Equal(t, day(2025, 5, 1), summary.LastDate)

	require.NotNil(t, summary.Donor, "names match ignoring case")
	assert.Equal(t, "Muster", summary.Donor.LastName)

	assert.Equal(t, 1, records[0].RowNumber, "input is not reordered")
}

func TestAggregate_Empty(t *testing.T) {
	summary := Aggregate(nil, issueDate)

	assert.True(t, summary.TotalAmount.IsZero())
	assert.Equal(t, 0, summary.RecordCount)
	assert.Nil(t, summary.Donor)
}

func TestAggregate_Deterministic(t *testing.T) {
	records := []types.DonationRecord{
		record(1, "A", "a", "1.10", day(2025, 3, 1)),
		record(2, "B", "b", "2.20", day(2025, 1, 1)),
	}

	assert.Equal(t, Aggregate(records, issueDate), Aggregate(records, issueDate))
}

func TestGroupByDonor(t *testing.T) {
	records := []types.DonationRecord{
		record(1, "Mustermensch", "Erika", "50", day(2025, 3, 1)),
		record(2, "Menschmuster", "Max", "100", day(2025, 7, 15)),
		record(3, "MUSTERMENSCH", "erika", "25.50", day(2025, 1, 1)),
	}

	groups := GroupByDonor(records, issueDate)

	require.Len(t, groups, 2)

	assert.Equal(t, 2, groups[0].RecordCount)
	assert.Equal(t, "75.50", groups[0].TotalAmount.StringFixed(2))
	assert.Equal(t, 3, groups[0].Records[0].RowNumber, "earliest donation first")
	require.NotNil(t, groups[0].Donor)

	assert.Equal(t, 1, groups[1].RecordCount)
	assert.Equal(t, "Menschmuster", groups[1].Donor.LastName)
}
