package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"procurement/models"
)

const uniqueViolation = "23505"

func (s *BidService) CreateProject(ctx context.Context, name string) (*models.Project, error) {
	p := &models.Project{Name: name}
	if err := checkInput(s.validate, p); err != nil {
		return nil, err
	}
	if err := s.store.CreateProject(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *BidService) CreateSupplier(ctx context.Context, name, contactEmail string) (*models.Supplier, error) {
	sp := &models.Supplier{Name: name, ContactEmail: contactEmail}
	if err := checkInput(s.validate, sp); err != nil {
		return nil, err
	}
	if err := s.store.CreateSupplier(ctx, sp); err != nil {
		return nil, err
	}
	return sp, nil
}

type CreateBidInput struct {
	ProjectID    int            `json:"projectId" validate:"required"`
	SupplierID   *int           `json:"supplierId"`
	BidType      models.BidType `json:"bidType" validate:"required,oneof=LUMP_SUM UNIT_PRICE COST_PLUS TIME_AND_MATERIALS"`
	ScopeOfWork  string         `json:"scopeOfWork" validate:"required,max=2000"`
	TaxPercent   decimal.Decimal
	BondRequired bool
	BondAmount   decimal.NullDecimal
}

// CreateBid creates a DRAFT bid with zero totals and a generated bid number
// BID-<project initials>-<NNNN>. The sequence part starts at the project's
// bid count + 1 and advances past unique-constraint conflicts.
func (s *BidService) CreateBid(ctx context.Context, in CreateBidInput) (*models.Bid, error) {
	if err := checkInput(s.validate, in); err != nil {
		return nil, err
	}

	project, err := s.store.GetProject(ctx, in.ProjectID)
	if err != nil {
		return nil, asNotFound(err, "project", in.ProjectID)
	}
	count, err := s.store.CountProjectBids(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}

	b := &models.Bid{
		ProjectID:    in.ProjectID,
		SupplierID:   in.SupplierID,
		BidType:      in.BidType,
		ScopeOfWork:  in.ScopeOfWork,
		Status:       models.BidStatusDraft,
		TaxPercent:   in.TaxPercent,
		BondRequired: in.BondRequired,
		BondAmount:   in.BondAmount,
	}

	initials := projectInitials(project.Name)
	for seq := count + 1; ; seq++ {
		b.BidNumber = newBidNumber(initials, seq)
		err = s.store.CreateBid(ctx, b)
		if err == nil {
			break
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			continue
		}
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"bidId":     b.ID,
		"bidNumber": b.BidNumber,
		"projectId": b.ProjectID,
	}).Info("bid created")
	return b, nil
}

func (s *BidService) GetBid(ctx context.Context, id int) (*models.Bid, error) {
	b, err := s.store.GetBid(ctx, id)
	if err != nil {
		return nil, asNotFound(err, "bid", id)
	}
	return b, nil
}

func (s *BidService) ListProjectBids(ctx context.Context, projectID int) ([]models.Bid, error) {
	return s.store.GetBidsForProject(ctx, projectID)
}

func (s *BidService) DeleteBid(ctx context.Context, id int) error {
	if err := s.store.DeleteBid(ctx, id); err != nil {
		return asNotFound(err, "bid", id)
	}
	s.log.WithField("bidId", id).Info("bid deleted")
	return nil
}

// Line-item ledger. Each mutation persists the affected row and recomputes
// the parent bid's subtotal/tax/total in the same storage transaction, so
// callers never observe a stale aggregate.

type LineItemInput struct {
	Description          string `validate:"required,max=500"`
	Quantity             decimal.Decimal
	Unit                 string `validate:"required,max=50"`
	UnitPrice            decimal.Decimal
	Notes                *string
	LinkedEstimateLineID *int
	SortOrder            *int
}

func (s *BidService) AddLineItem(ctx context.Context, bidID int, in LineItemInput) (*models.BidLineItem, error) {
	if err := checkInput(s.validate, in); err != nil {
		return nil, err
	}

	sortOrder := 0
	if in.SortOrder != nil {
		sortOrder = *in.SortOrder
	} else {
		items, err := s.store.GetBidLineItems(ctx, bidID)
		if err != nil {
			return nil, err
		}
		sortOrder = len(items)
	}

	li := &models.BidLineItem{
		BidID:                bidID,
		Description:          in.Description,
		Quantity:             in.Quantity,
		Unit:                 in.Unit,
		UnitPrice:            in.UnitPrice,
		Total:                models.LineItemTotal(in.Quantity, in.UnitPrice),
		Notes:                in.Notes,
		LinkedEstimateLineID: in.LinkedEstimateLineID,
		SortOrder:            sortOrder,
	}
	if err := s.store.CreateBidLineItem(ctx, li); err != nil {
		return nil, asNotFound(err, "bid", bidID)
	}

	s.log.WithFields(logrus.Fields{"bidId": bidID, "lineItemId": li.ID}).Info("line item added")
	return li, nil
}

type LineItemPatch struct {
	Description          *string
	Quantity             *decimal.Decimal
	Unit                 *string
	UnitPrice            *decimal.Decimal
	Notes                *string
	LinkedEstimateLineID *int
	SortOrder            *int
}

func (s *BidService) UpdateLineItem(ctx context.Context, id int, patch LineItemPatch) (*models.BidLineItem, error) {
	li, err := s.store.GetBidLineItem(ctx, id)
	if err != nil {
		return nil, asNotFound(err, "line item", id)
	}

	if patch.Description != nil {
		li.Description = *patch.Description
	}
	if patch.Quantity != nil {
		li.Quantity = *patch.Quantity
	}
	if patch.Unit != nil {
		li.Unit = *patch.Unit
	}
	if patch.UnitPrice != nil {
		li.UnitPrice = *patch.UnitPrice
	}
	if patch.Notes != nil {
		li.Notes = patch.Notes
	}
	if patch.LinkedEstimateLineID != nil {
		li.LinkedEstimateLineID = patch.LinkedEstimateLineID
	}
	if patch.SortOrder != nil {
		li.SortOrder = *patch.SortOrder
	}
	li.Total = models.LineItemTotal(li.Quantity, li.UnitPrice)

	if err := s.store.UpdateBidLineItem(ctx, li); err != nil {
		return nil, asNotFound(err, "line item", id)
	}
	s.log.WithFields(logrus.Fields{"bidId": li.BidID, "lineItemId": id}).Info("line item updated")
	return li, nil
}

func (s *BidService) DeleteLineItem(ctx context.Context, id int) error {
	if err := s.store.DeleteBidLineItem(ctx, id); err != nil {
		return asNotFound(err, "line item", id)
	}
	s.log.WithField("lineItemId", id).Info("line item deleted")
	return nil
}

// State machine. AWARDED/DECLINED/EXPIRED are terminal; there is no path
// back to DRAFT once submitted.

func (s *BidService) SubmitBid(ctx context.Context, id int) (*models.Bid, error) {
	b, err := s.GetBid(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status.Terminal() {
		return nil, models.NewInvalidStateError("Cannot submit a bid in a terminal status")
	}
	now := time.Now().UTC()
	b.Status = models.BidStatusSubmitted
	b.SubmittedDate = &now
	if err := s.store.UpdateBidStatus(ctx, b); err != nil {
		return nil, err
	}
	s.log.WithField("bidId", id).Info("bid submitted")
	return b, nil
}

func (s *BidService) StartReview(ctx context.Context, id int) (*models.Bid, error) {
	b, err := s.GetBid(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status != models.BidStatusSubmitted {
		return nil, models.NewInvalidStateError("Can only review submitted bids")
	}
	b.Status = models.BidStatusUnderReview
	if err := s.store.UpdateBidStatus(ctx, b); err != nil {
		return nil, err
	}
	s.log.WithField("bidId", id).Info("bid under review")
	return b, nil
}

func (s *BidService) AwardBid(ctx context.Context, id int) (*models.Bid, error) {
	b, err := s.GetBid(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status != models.BidStatusSubmitted && b.Status != models.BidStatusUnderReview {
		return nil, models.NewInvalidStateError("Can only award submitted or reviewed bids")
	}
	now := time.Now().UTC()
	b.Status = models.BidStatusAwarded
	b.AwardedDate = &now
	if err := s.store.UpdateBidStatus(ctx, b); err != nil {
		return nil, err
	}
	s.log.WithField("bidId", id).Info("bid awarded")
	return b, nil
}

func (s *BidService) DeclineBid(ctx context.Context, id int, reason string) (*models.Bid, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, models.NewValidationError("Decline reason is required")
	}
	b, err := s.GetBid(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status.Terminal() {
		return nil, models.NewInvalidStateError("Cannot decline a bid in a terminal status")
	}
	b.Status = models.BidStatusDeclined
	b.DeclinedReason = &reason
	if err := s.store.UpdateBidStatus(ctx, b); err != nil {
		return nil, err
	}
	s.log.WithField("bidId", id).Info("bid declined")
	return b, nil
}

func (s *BidService) ExpireBid(ctx context.Context, id int) (*models.Bid, error) {
	b, err := s.GetBid(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status.Terminal() {
		return nil, models.NewInvalidStateError("Cannot expire a bid in a terminal status")
	}
	b.Status = models.BidStatusExpired
	if err := s.store.UpdateBidStatus(ctx, b); err != nil {
		return nil, err
	}
	s.log.WithField("bidId", id).Info("bid expired")
	return b, nil
}

// ScoreBid persists the weighted comparison score. The bid's status is
// untouched.
func (s *BidService) ScoreBid(ctx context.Context, id int, criteria models.ScoringCriteria, scores models.CriteriaScores) (*models.Bid, error) {
	if err := criteria.Validate(); err != nil {
		return nil, err
	}
	b, err := s.GetBid(ctx, id)
	if err != nil {
		return nil, err
	}
	score := models.ComparisonScore(criteria, scores)
	if err := s.store.SetBidComparisonScore(ctx, id, score); err != nil {
		return nil, asNotFound(err, "bid", id)
	}
	b.ComparisonScore = &score
	s.log.WithFields(logrus.Fields{"bidId": id, "comparisonScore": score}).Info("bid scored")
	return b, nil
}

// Bid packages

type CreateBidPackageInput struct {
	ProjectID   int    `validate:"required"`
	Name        string `validate:"required,max=200"`
	ScopeOfWork string `validate:"max=2000"`
	DueDate     *time.Time
}

func (s *BidService) CreateBidPackage(ctx context.Context, in CreateBidPackageInput) (*models.BidPackage, error) {
	if err := checkInput(s.validate, in); err != nil {
		return nil, err
	}
	if _, err := s.store.GetProject(ctx, in.ProjectID); err != nil {
		return nil, asNotFound(err, "project", in.ProjectID)
	}
	p := &models.BidPackage{
		ProjectID:   in.ProjectID,
		Name:        in.Name,
		ScopeOfWork: in.ScopeOfWork,
		DueDate:     in.DueDate,
	}
	if err := s.store.CreateBidPackage(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *BidService) InviteSupplier(ctx context.Context, packageID, supplierID, inviterID int, note *string) (*models.BidPackageInvitation, error) {
	if _, err := s.store.GetBidPackage(ctx, packageID); err != nil {
		return nil, asNotFound(err, "bid package", packageID)
	}
	if _, err := s.store.GetSupplier(ctx, supplierID); err != nil {
		return nil, asNotFound(err, "supplier", supplierID)
	}
	inv := &models.BidPackageInvitation{
		PackageID:  packageID,
		SupplierID: supplierID,
		InviterID:  inviterID,
		Note:       note,
	}
	if err := s.store.CreateBidPackageInvitation(ctx, inv); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"packageId": packageID, "supplierId": supplierID}).Info("supplier invited")
	return inv, nil
}

func (s *BidService) ListPackageInvitations(ctx context.Context, packageID int) ([]models.BidPackageInvitation, error) {
	if _, err := s.store.GetBidPackage(ctx, packageID); err != nil {
		return nil, asNotFound(err, "bid package", packageID)
	}
	return s.store.GetPackageInvitations(ctx, packageID)
}

// projectInitials takes the upper-cased first letter of up to three words of
// the project name.
func projectInitials(name string) string {
	var initials []rune
	for _, word := range strings.Fields(name) {
		initials = append(initials, unicode.ToUpper([]rune(word)[0]))
		if len(initials) == 3 {
			break
		}
	}
	if len(initials) == 0 {
		return "PRJ"
	}
	return string(initials)
}

func newBidNumber(initials string, seq int) string {
	return fmt.Sprintf("BID-%s-%04d", initials, seq)
}
