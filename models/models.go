package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bid lifecycle. AWARDED, DECLINED and EXPIRED are terminal.
type BidStatus string

const (
	BidStatusDraft       BidStatus = "DRAFT"
	BidStatusSubmitted   BidStatus = "SUBMITTED"
	BidStatusUnderReview BidStatus = "UNDER_REVIEW"
	BidStatusAwarded     BidStatus = "AWARDED"
	BidStatusDeclined    BidStatus = "DECLINED"
	BidStatusExpired     BidStatus = "EXPIRED"
)

func (s BidStatus) Terminal() bool {
	return s == BidStatusAwarded || s == BidStatusDeclined || s == BidStatusExpired
}

type BidType string

const (
	BidTypeLumpSum          BidType = "LUMP_SUM"
	BidTypeUnitPrice        BidType = "UNIT_PRICE"
	BidTypeCostPlus         BidType = "COST_PLUS"
	BidTypeTimeAndMaterials BidType = "TIME_AND_MATERIALS"
)

type MeasurementType string

const (
	MeasurementTypeArea   MeasurementType = "AREA"
	MeasurementTypeLinear MeasurementType = "LINEAR"
	MeasurementTypeVolume MeasurementType = "VOLUME"
	MeasurementTypeCount  MeasurementType = "COUNT"
)

type Project struct {
	ID        int       `db:"id" json:"id"`
	Name      string    `db:"name" json:"name" validate:"required,max=200"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type Supplier struct {
	ID           int       `db:"id" json:"id"`
	Name         string    `db:"name" json:"name" validate:"required,max=200"`
	ContactEmail string    `db:"contact_email" json:"contactEmail" validate:"omitempty,email"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// Bid owns an ordered set of line items. The subtotal/tax_amount/total
// columns are a cached projection of the line items and are rewritten by a
// full recompute inside every child mutation, never patched incrementally.
type Bid struct {
	ID              int                 `db:"id" json:"id"`
	BidNumber       string              `db:"bid_number" json:"bidNumber"`
	ProjectID       int                 `db:"project_id" json:"projectId" validate:"required"`
	SupplierID      *int                `db:"supplier_id" json:"supplierId"`
	BidType         BidType             `db:"bid_type" json:"bidType" validate:"required,oneof=LUMP_SUM UNIT_PRICE COST_PLUS TIME_AND_MATERIALS"`
	ScopeOfWork     string              `db:"scope_of_work" json:"scopeOfWork" validate:"required,max=2000"`
	Status          BidStatus           `db:"status" json:"status"`
	Subtotal        decimal.Decimal     `db:"subtotal" json:"subtotal"`
	TaxPercent      decimal.Decimal     `db:"tax_percent" json:"taxPercent"`
	TaxAmount       decimal.Decimal     `db:"tax_amount" json:"taxAmount"`
	Total           decimal.Decimal     `db:"total" json:"total"`
	BondRequired    bool                `db:"bond_required" json:"bondRequired"`
	BondAmount      decimal.NullDecimal `db:"bond_amount" json:"bondAmount"`
	ComparisonScore *float64            `db:"comparison_score" json:"comparisonScore"`
	SubmittedDate   *time.Time          `db:"submitted_date" json:"submittedDate"`
	AwardedDate     *time.Time          `db:"awarded_date" json:"awardedDate"`
	DeclinedReason  *string             `db:"declined_reason" json:"declinedReason"`
	CreatedAt       time.Time           `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time           `db:"updated_at" json:"-"`
}

type BidLineItem struct {
	ID                   int             `db:"id" json:"id"`
	BidID                int             `db:"bid_id" json:"bidId"`
	Description          string          `db:"description" json:"description" validate:"required,max=500"`
	Quantity             decimal.Decimal `db:"quantity" json:"quantity"`
	Unit                 string          `db:"unit" json:"unit" validate:"required,max=50"`
	UnitPrice            decimal.Decimal `db:"unit_price" json:"unitPrice"`
	Total                decimal.Decimal `db:"total" json:"total"`
	Notes                *string         `db:"notes" json:"notes"`
	LinkedEstimateLineID *int            `db:"linked_estimate_line_id" json:"linkedEstimateLineId"`
	SortOrder            int             `db:"sort_order" json:"sortOrder"`
	CreatedAt            time.Time       `db:"created_at" json:"createdAt"`
}

type BidPackage struct {
	ID          int        `db:"id" json:"id"`
	ProjectID   int        `db:"project_id" json:"projectId" validate:"required"`
	Name        string     `db:"name" json:"name" validate:"required,max=200"`
	ScopeOfWork string     `db:"scope_of_work" json:"scopeOfWork" validate:"max=2000"`
	DueDate     *time.Time `db:"due_date" json:"dueDate"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
}

// Pure association data, no derived state.
type BidPackageInvitation struct {
	ID         int       `db:"id" json:"id"`
	PackageID  int       `db:"package_id" json:"packageId"`
	SupplierID int       `db:"supplier_id" json:"supplierId"`
	InviterID  int       `db:"inviter_id" json:"inviterId"`
	Note       *string   `db:"note" json:"note"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// Takeoff owns layers and measurements. total_quantity is a cached
// projection of the measurement set, maintained like Bid totals.
type Takeoff struct {
	ID               int       `db:"id" json:"id"`
	ProjectID        int       `db:"project_id" json:"projectId" validate:"required"`
	Name             string    `db:"name" json:"name" validate:"required,max=200"`
	LinkedEstimateID *int      `db:"linked_estimate_id" json:"linkedEstimateId"`
	Unit             string    `db:"unit" json:"unit" validate:"required,max=50"`
	Status           string    `db:"status" json:"status"`
	TotalQuantity    float64   `db:"total_quantity" json:"totalQuantity"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time `db:"updated_at" json:"-"`
}

type TakeoffLayer struct {
	ID        int       `db:"id" json:"id"`
	TakeoffID int       `db:"takeoff_id" json:"takeoffId"`
	Name      string    `db:"name" json:"name" validate:"required,max=200"`
	Color     string    `db:"color" json:"color" validate:"max=20"`
	Visible   bool      `db:"visible" json:"visible"`
	SortOrder int       `db:"sort_order" json:"sortOrder"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// LayerID is a weak reference: deleting a layer clears it (FK SET NULL)
// and never removes the measurement.
type TakeoffMeasurement struct {
	ID              int             `db:"id" json:"id"`
	TakeoffID       int             `db:"takeoff_id" json:"takeoffId"`
	LayerID         *int            `db:"layer_id" json:"layerId"`
	MeasurementType MeasurementType `db:"measurement_type" json:"measurementType"`
	Description     string          `db:"description" json:"description"`
	Unit            string          `db:"unit" json:"unit"`
	Quantity        float64         `db:"quantity" json:"quantity"`
	Length          *float64        `db:"length" json:"length"`
	Width           *float64        `db:"width" json:"width"`
	Height          *float64        `db:"height" json:"height"`
	Area            *float64        `db:"area" json:"area"`
	Volume          *float64        `db:"volume" json:"volume"`
	CreatedAt       time.Time       `db:"created_at" json:"createdAt"`
}

// BidComparisonRow backs the comparison CSV export.
type BidComparisonRow struct {
	BidNumber    string          `db:"bid_number"`
	SupplierName string          `db:"supplier_name"`
	Total        decimal.Decimal `db:"total"`
}

// TakeoffExportRow backs the takeoff CSV export.
type TakeoffExportRow struct {
	LayerName       string          `db:"layer_name"`
	Description     string          `db:"description"`
	MeasurementType MeasurementType `db:"measurement_type"`
	Quantity        float64         `db:"quantity"`
	Unit            string          `db:"unit"`
}
