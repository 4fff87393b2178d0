package service

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"procurement/models"
)

// RankedBid is a scored bid with its 1-based rank in the project.
type RankedBid struct {
	models.Bid
	Rank int `json:"rank"`
}

// RankedBids returns the project's scored bids ordered by comparisonScore
// descending. Ties break on creation time, then id, so the ranking is
// deterministic.
func (s *BidService) RankedBids(ctx context.Context, projectID int) ([]RankedBid, error) {
	bids, err := s.store.GetScoredBids(ctx, projectID)
	if err != nil {
		return nil, err
	}
	ranked := make([]RankedBid, len(bids))
	for i, b := range bids {
		ranked[i] = RankedBid{Bid: b, Rank: i + 1}
	}
	return ranked, nil
}

type ComparisonEntry struct {
	BidID           int              `json:"bidId"`
	BidNumber       string           `json:"bidNumber"`
	SupplierID      *int             `json:"supplierId"`
	Status          models.BidStatus `json:"status"`
	Total           decimal.Decimal  `json:"total"`
	ComparisonScore *float64         `json:"comparisonScore"`
}

type BidComparison struct {
	Bids         []models.Bid      `json:"bids"`
	Comparison   []ComparisonEntry `json:"comparison"`
	LowestBid    *models.Bid       `json:"lowestBid"`
	HighestBid   *models.Bid       `json:"highestBid"`
	AverageTotal decimal.Decimal   `json:"averageTotal"`
}

// CompareBids loads the project's bids, optionally filtered by a
// case-insensitive scope-of-work substring, and summarizes their totals.
func (s *BidService) CompareBids(ctx context.Context, projectID int, scopeFilter string) (*BidComparison, error) {
	all, err := s.store.GetBidsForProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	bids := all
	if scopeFilter != "" {
		needle := strings.ToLower(scopeFilter)
		bids = []models.Bid{}
		for _, b := range all {
			if strings.Contains(strings.ToLower(b.ScopeOfWork), needle) {
				bids = append(bids, b)
			}
		}
	}

	cmp := &BidComparison{Bids: bids, Comparison: make([]ComparisonEntry, len(bids))}
	sum := decimal.Zero
	for i := range bids {
		b := &bids[i]
		cmp.Comparison[i] = ComparisonEntry{
			BidID:           b.ID,
			BidNumber:       b.BidNumber,
			SupplierID:      b.SupplierID,
			Status:          b.Status,
			Total:           b.Total,
			ComparisonScore: b.ComparisonScore,
		}
		sum = sum.Add(b.Total)
		if cmp.LowestBid == nil || b.Total.LessThan(cmp.LowestBid.Total) {
			cmp.LowestBid = b
		}
		if cmp.HighestBid == nil || b.Total.GreaterThan(cmp.HighestBid.Total) {
			cmp.HighestBid = b
		}
	}
	if len(bids) > 0 {
		cmp.AverageTotal = sum.Div(decimal.NewFromInt(int64(len(bids)))).Round(2)
	}
	return cmp, nil
}

type BidStatistics struct {
	TotalBids         int                    `json:"totalBids"`
	SubmittedCount    int                    `json:"submittedCount"`
	AwardedCount      int                    `json:"awardedCount"`
	ByType            map[models.BidType]int `json:"byType"`
	TotalAwardedValue decimal.Decimal        `json:"totalAwardedValue"`
}

// BidStatistics counts the project's bids by status and type.
// totalAwardedValue sums totals over AWARDED bids only.
func (s *BidService) BidStatistics(ctx context.Context, projectID int) (*BidStatistics, error) {
	bids, err := s.store.GetBidsForProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	stats := &BidStatistics{
		TotalBids:         len(bids),
		ByType:            map[models.BidType]int{},
		TotalAwardedValue: decimal.Zero,
	}
	for _, b := range bids {
		stats.ByType[b.BidType]++
		switch b.Status {
		case models.BidStatusSubmitted:
			stats.SubmittedCount++
		case models.BidStatusAwarded:
			stats.AwardedCount++
			stats.TotalAwardedValue = stats.TotalAwardedValue.Add(b.Total)
		}
	}
	return stats, nil
}

// ExportComparisonCSV writes one row per bid in the project with the header
// `Bid Number,Supplier,Total`. Totals render as plain decimal amounts.
func (s *BidService) ExportComparisonCSV(ctx context.Context, projectID int, w io.Writer) error {
	rows, err := s.store.ComparisonRows(ctx, projectID)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Bid Number", "Supplier", "Total"}); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write([]string{r.BidNumber, r.SupplierName, r.Total.String()}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
