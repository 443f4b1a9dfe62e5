// =============================================================================
// Donation Receipt Generator - Aggregator
// =============================================================================
//
// The aggregator derives the data of collective receipts from validated
// donation records.
//
// MODES:
//   Aggregate    - one summary over all records (the combined collective
//                  receipt of a run)
//   GroupByDonor - one summary per donor, donors ordered by first appearance
//
// Both functions are pure: the same records and issue date always produce the
// same summaries. Sums use decimal arithmetic, so 50.00 + 100.00 is exactly
// 150.00.
//
// =============================================================================

package aggregator

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/donation-receipts/internal/types"
)

// Aggregate builds a single summary over all records.
//
// PARAMETERS:
//   - records: The validated donations. The slice is not modified.
//   - issueDate: The receipt issue date, fixed at run start.
//
// RETURNS:
//   - The summary. For no records the total is zero and the dates are zero.
func Aggregate(records []types.DonationRecord, issueDate time.Time) types.AggregateSummary {
	sorted := sortByDate(records)

	summary := types.AggregateSummary{
		TotalAmount: decimal.Zero,
		RecordCount: len(sorted),
		IssueDate:   issueDate,
		Records:     sorted,
	}

	for _, r := range sorted {
		summary.TotalAmount = summary.TotalAmount.Add(r.Amount)
	}

	if len(sorted) > 0 {
		summary.FirstDate = sorted[0].Date
		summary.LastDate = sorted[len(sorted)-1].Date

		if singleDonor(sorted) {
			donor := sorted[0]
			summary.Donor = &donor
		}
	}

	return summary
}

// GroupByDonor builds one summary per donor.
//
// GROUPING LOGIC:
//   Records belong to the same donor when last and first name match, ignoring
//   letter case. Groups appear in the order of each donor's first record in
//   the input.
func GroupByDonor(records []types.DonationRecord, issueDate time.Time) []types.AggregateSummary {
	groups := make(map[string][]types.DonationRecord)
	groupOrder := []string{}

	for _, r := range records {
		key := r.DonorKey()
		if _, exists := groups[key]; !exists {
			groupOrder = append(groupOrder, key)
		}
		groups[key] = append(groups[key], r)
	}

	summaries := make([]types.AggregateSummary, len(groupOrder))
	for i, key := range groupOrder {
		summaries[i] = Aggregate(groups[key], issueDate)
	}

	return summaries
}

// sortByDate returns a date-ordered copy; equal dates keep input order.
func sortByDate(records []types.DonationRecord) []types.DonationRecord {
	sorted := append([]types.DonationRecord(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	return sorted
}

func singleDonor(records []types.DonationRecord) bool {
	key := records[0].DonorKey()
	for _, r := range records[1:] {
		if r.DonorKey() != key {
			return false
		}
	}
	return true
}
