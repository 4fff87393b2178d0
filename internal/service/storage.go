package service

import (
	"context"

	"procurement/models"
)

type BidStorage interface {
	CreateProject(ctx context.Context, p *models.Project) error
	GetProject(ctx context.Context, id int) (*models.Project, error)
	CreateSupplier(ctx context.Context, sp *models.Supplier) error
	GetSupplier(ctx context.Context, id int) (*models.Supplier, error)

	CreateBid(ctx context.Context, b *models.Bid) error
	GetBid(ctx context.Context, id int) (*models.Bid, error)
	DeleteBid(ctx context.Context, id int) error
	GetBidsForProject(ctx context.Context, projectID int) ([]models.Bid, error)
	CountProjectBids(ctx context.Context, projectID int) (int, error)
	UpdateBidStatus(ctx context.Context, b *models.Bid) error
	SetBidComparisonScore(ctx context.Context, bidID int, score float64) error
	GetScoredBids(ctx context.Context, projectID int) ([]models.Bid, error)
	ComparisonRows(ctx context.Context, projectID int) ([]models.BidComparisonRow, error)

	CreateBidLineItem(ctx context.Context, li *models.BidLineItem) error
	GetBidLineItem(ctx context.Context, id int) (*models.BidLineItem, error)
	GetBidLineItems(ctx context.Context, bidID int) ([]models.BidLineItem, error)
	UpdateBidLineItem(ctx context.Context, li *models.BidLineItem) error
	DeleteBidLineItem(ctx context.Context, id int) error

	CreateBidPackage(ctx context.Context, p *models.BidPackage) error
	GetBidPackage(ctx context.Context, id int) (*models.BidPackage, error)
	CreateBidPackageInvitation(ctx context.Context, inv *models.BidPackageInvitation) error
	GetPackageInvitations(ctx context.Context, packageID int) ([]models.BidPackageInvitation, error)
}

type TakeoffStorage interface {
	CreateTakeoff(ctx context.Context, t *models.Takeoff) error
	GetTakeoff(ctx context.Context, id int) (*models.Takeoff, error)
	DeleteTakeoff(ctx context.Context, id int) error
	GetTakeoffsForProject(ctx context.Context, projectID int) ([]models.Takeoff, error)
	DuplicateTakeoff(ctx context.Context, takeoffID int, newName string) (*models.Takeoff, error)

	CreateTakeoffLayer(ctx context.Context, l *models.TakeoffLayer) error
	GetTakeoffLayer(ctx context.Context, id int) (*models.TakeoffLayer, error)
	UpdateTakeoffLayer(ctx context.Context, l *models.TakeoffLayer) error
	DeleteTakeoffLayer(ctx context.Context, id int) error
	GetTakeoffLayers(ctx context.Context, takeoffID int) ([]models.TakeoffLayer, error)

	CreateTakeoffMeasurement(ctx context.Context, m *models.TakeoffMeasurement) error
	GetTakeoffMeasurement(ctx context.Context, id int) (*models.TakeoffMeasurement, error)
	GetTakeoffMeasurements(ctx context.Context, takeoffID int) ([]models.TakeoffMeasurement, error)
	UpdateTakeoffMeasurement(ctx context.Context, m *models.TakeoffMeasurement) error
	DeleteTakeoffMeasurement(ctx context.Context, id int) error

	TakeoffExportRows(ctx context.Context, takeoffID int) ([]models.TakeoffExportRow, error)
}
