package service_test

import (
	"context"
	"database/sql"
	"io"
	"sort"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"procurement/models"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// fakeBidStore keeps everything in maps and mirrors the storage layer's
// semantics: child mutations recompute the parent bid's totals, missing rows
// come back as sql.ErrNoRows, and duplicate bid numbers fail with the
// unique-violation code the real driver reports.
type fakeBidStore struct {
	nextID      int
	now         time.Time
	projects    map[int]models.Project
	suppliers   map[int]models.Supplier
	bids        map[int]models.Bid
	lineItems   map[int]models.BidLineItem
	packages    map[int]models.BidPackage
	invitations map[int]models.BidPackageInvitation
}

func newFakeBidStore() *fakeBidStore {
	return &fakeBidStore{
		now:         time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		projects:    map[int]models.Project{},
		suppliers:   map[int]models.Supplier{},
		bids:        map[int]models.Bid{},
		lineItems:   map[int]models.BidLineItem{},
		packages:    map[int]models.BidPackage{},
		invitations: map[int]models.BidPackageInvitation{},
	}
}

func (f *fakeBidStore) id() int {
	f.nextID++
	return f.nextID
}

func (f *fakeBidStore) tick() time.Time {
	f.now = f.now.Add(time.Second)
	return f.now
}

func (f *fakeBidStore) recalcBid(bidID int) {
	b, ok := f.bids[bidID]
	if !ok {
		return
	}
	totals := f.lineItemTotals(bidID)
	agg := models.RecomputeBid(b.TaxPercent, totals)
	b.Subtotal = agg.Subtotal
	b.TaxAmount = agg.TaxAmount
	b.Total = agg.Total
	f.bids[bidID] = b
}

func (f *fakeBidStore) lineItemTotals(bidID int) []decimal.Decimal {
	var totals []decimal.Decimal
	for _, li := range f.lineItems {
		if li.BidID == bidID {
			totals = append(totals, li.Total)
		}
	}
	return totals
}

func (f *fakeBidStore) CreateProject(_ context.Context, p *models.Project) error {
	p.ID = f.id()
	p.CreatedAt = f.tick()
	f.projects[p.ID] = *p
	return nil
}

func (f *fakeBidStore) GetProject(_ context.Context, id int) (*models.Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &p, nil
}

func (f *fakeBidStore) CreateSupplier(_ context.Context, sp *models.Supplier) error {
	sp.ID = f.id()
	sp.CreatedAt = f.tick()
	f.suppliers[sp.ID] = *sp
	return nil
}

func (f *fakeBidStore) GetSupplier(_ context.Context, id int) (*models.Supplier, error) {
	sp, ok := f.suppliers[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &sp, nil
}

func (f *fakeBidStore) CreateBid(_ context.Context, b *models.Bid) error {
	for _, existing := range f.bids {
		if existing.BidNumber == b.BidNumber {
			return &pq.Error{Code: "23505"}
		}
	}
	b.ID = f.id()
	b.CreatedAt = f.tick()
	f.bids[b.ID] = *b
	return nil
}

func (f *fakeBidStore) GetBid(_ context.Context, id int) (*models.Bid, error) {
	b, ok := f.bids[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &b, nil
}

func (f *fakeBidStore) DeleteBid(_ context.Context, id int) error {
	if _, ok := f.bids[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.bids, id)
	for liID, li := range f.lineItems {
		if li.BidID == id {
			delete(f.lineItems, liID)
		}
	}
	return nil
}

func (f *fakeBidStore) GetBidsForProject(_ context.Context, projectID int) ([]models.Bid, error) {
	var bids []models.Bid
	for _, b := range f.bids {
		if b.ProjectID == projectID {
			bids = append(bids, b)
		}
	}
	sort.Slice(bids, func(i, j int) bool { return bids[i].ID < bids[j].ID })
	return bids, nil
}

func (f *fakeBidStore) CountProjectBids(_ context.Context, projectID int) (int, error) {
	count := 0
	for _, b := range f.bids {
		if b.ProjectID == projectID {
			count++
		}
	}
	return count, nil
}

func (f *fakeBidStore) UpdateBidStatus(_ context.Context, b *models.Bid) error {
	if _, ok := f.bids[b.ID]; !ok {
		return sql.ErrNoRows
	}
	f.bids[b.ID] = *b
	return nil
}

func (f *fakeBidStore) SetBidComparisonScore(_ context.Context, bidID int, score float64) error {
	b, ok := f.bids[bidID]
	if !ok {
		return sql.ErrNoRows
	}
	b.ComparisonScore = &score
	f.bids[bidID] = b
	return nil
}

func (f *fakeBidStore) GetScoredBids(_ context.Context, projectID int) ([]models.Bid, error) {
	var bids []models.Bid
	for _, b := range f.bids {
		if b.ProjectID == projectID && b.ComparisonScore != nil {
			bids = append(bids, b)
		}
	}
	sort.Slice(bids, func(i, j int) bool {
		if *bids[i].ComparisonScore != *bids[j].ComparisonScore {
			return *bids[i].ComparisonScore > *bids[j].ComparisonScore
		}
		if !bids[i].CreatedAt.Equal(bids[j].CreatedAt) {
			return bids[i].CreatedAt.Before(bids[j].CreatedAt)
		}
		return bids[i].ID < bids[j].ID
	})
	return bids, nil
}

func (f *fakeBidStore) ComparisonRows(_ context.Context, projectID int) ([]models.BidComparisonRow, error) {
	bids, _ := f.GetBidsForProject(context.Background(), projectID)
	rows := make([]models.BidComparisonRow, 0, len(bids))
	for _, b := range bids {
		row := models.BidComparisonRow{BidNumber: b.BidNumber, Total: b.Total}
		if b.SupplierID != nil {
			if sp, ok := f.suppliers[*b.SupplierID]; ok {
				row.SupplierName = sp.Name
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (f *fakeBidStore) CreateBidLineItem(_ context.Context, li *models.BidLineItem) error {
	if _, ok := f.bids[li.BidID]; !ok {
		return sql.ErrNoRows
	}
	li.ID = f.id()
	li.CreatedAt = f.tick()
	f.lineItems[li.ID] = *li
	f.recalcBid(li.BidID)
	return nil
}

func (f *fakeBidStore) GetBidLineItem(_ context.Context, id int) (*models.BidLineItem, error) {
	li, ok := f.lineItems[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &li, nil
}

func (f *fakeBidStore) GetBidLineItems(_ context.Context, bidID int) ([]models.BidLineItem, error) {
	var items []models.BidLineItem
	for _, li := range f.lineItems {
		if li.BidID == bidID {
			items = append(items, li)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].SortOrder != items[j].SortOrder {
			return items[i].SortOrder < items[j].SortOrder
		}
		return items[i].ID < items[j].ID
	})
	return items, nil
}

func (f *fakeBidStore) UpdateBidLineItem(_ context.Context, li *models.BidLineItem) error {
	if _, ok := f.lineItems[li.ID]; !ok {
		return sql.ErrNoRows
	}
	f.lineItems[li.ID] = *li
	f.recalcBid(li.BidID)
	return nil
}

func (f *fakeBidStore) DeleteBidLineItem(_ context.Context, id int) error {
	li, ok := f.lineItems[id]
	if !ok {
		return sql.ErrNoRows
	}
	delete(f.lineItems, id)
	f.recalcBid(li.BidID)
	return nil
}

func (f *fakeBidStore) CreateBidPackage(_ context.Context, p *models.BidPackage) error {
	p.ID = f.id()
	p.CreatedAt = f.tick()
	f.packages[p.ID] = *p
	return nil
}

func (f *fakeBidStore) GetBidPackage(_ context.Context, id int) (*models.BidPackage, error) {
	p, ok := f.packages[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &p, nil
}

func (f *fakeBidStore) CreateBidPackageInvitation(_ context.Context, inv *models.BidPackageInvitation) error {
	inv.ID = f.id()
	inv.CreatedAt = f.tick()
	f.invitations[inv.ID] = *inv
	return nil
}

func (f *fakeBidStore) GetPackageInvitations(_ context.Context, packageID int) ([]models.BidPackageInvitation, error) {
	var invs []models.BidPackageInvitation
	for _, inv := range f.invitations {
		if inv.PackageID == packageID {
			invs = append(invs, inv)
		}
	}
	sort.Slice(invs, func(i, j int) bool { return invs[i].ID < invs[j].ID })
	return invs, nil
}

// fakeTakeoffStore mirrors the takeoff storage: measurement mutations
// recompute the parent's totalQuantity, deleting a layer clears the weak
// references on its measurements, and duplication deep-copies with fresh ids.
type fakeTakeoffStore struct {
	nextID       int
	takeoffs     map[int]models.Takeoff
	layers       map[int]models.TakeoffLayer
	measurements map[int]models.TakeoffMeasurement
}

func newFakeTakeoffStore() *fakeTakeoffStore {
	return &fakeTakeoffStore{
		takeoffs:     map[int]models.Takeoff{},
		layers:       map[int]models.TakeoffLayer{},
		measurements: map[int]models.TakeoffMeasurement{},
	}
}

func (f *fakeTakeoffStore) id() int {
	f.nextID++
	return f.nextID
}

func (f *fakeTakeoffStore) recalcTakeoff(takeoffID int) {
	t, ok := f.takeoffs[takeoffID]
	if !ok {
		return
	}
	ms, _ := f.GetTakeoffMeasurements(context.Background(), takeoffID)
	t.TotalQuantity = models.TakeoffTotal(ms)
	f.takeoffs[takeoffID] = t
}

func (f *fakeTakeoffStore) CreateTakeoff(_ context.Context, t *models.Takeoff) error {
	t.ID = f.id()
	f.takeoffs[t.ID] = *t
	return nil
}

func (f *fakeTakeoffStore) GetTakeoff(_ context.Context, id int) (*models.Takeoff, error) {
	t, ok := f.takeoffs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &t, nil
}

func (f *fakeTakeoffStore) DeleteTakeoff(_ context.Context, id int) error {
	if _, ok := f.takeoffs[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.takeoffs, id)
	for lID, l := range f.layers {
		if l.TakeoffID == id {
			delete(f.layers, lID)
		}
	}
	for mID, m := range f.measurements {
		if m.TakeoffID == id {
			delete(f.measurements, mID)
		}
	}
	return nil
}

func (f *fakeTakeoffStore) GetTakeoffsForProject(_ context.Context, projectID int) ([]models.Takeoff, error) {
	var ts []models.Takeoff
	for _, t := range f.takeoffs {
		if t.ProjectID == projectID {
			ts = append(ts, t)
		}
	}
	sort.Slice(ts, func(i, j int) bool { return ts[i].ID < ts[j].ID })
	return ts, nil
}

func (f *fakeTakeoffStore) DuplicateTakeoff(ctx context.Context, takeoffID int, newName string) (*models.Takeoff, error) {
	src, ok := f.takeoffs[takeoffID]
	if !ok {
		return nil, sql.ErrNoRows
	}

	dup := src
	dup.ID = f.id()
	dup.Name = newName

	layerIDs := map[int]int{}
	srcLayers, _ := f.GetTakeoffLayers(ctx, takeoffID)
	for _, l := range srcLayers {
		copied := l
		copied.ID = f.id()
		copied.TakeoffID = dup.ID
		f.layers[copied.ID] = copied
		layerIDs[l.ID] = copied.ID
	}

	srcMeasurements, _ := f.GetTakeoffMeasurements(ctx, takeoffID)
	for _, m := range srcMeasurements {
		copied := m
		copied.ID = f.id()
		copied.TakeoffID = dup.ID
		if m.LayerID != nil {
			mapped := layerIDs[*m.LayerID]
			copied.LayerID = &mapped
		}
		f.measurements[copied.ID] = copied
	}

	dup.TotalQuantity = models.TakeoffTotal(srcMeasurements)
	f.takeoffs[dup.ID] = dup
	return &dup, nil
}

func (f *fakeTakeoffStore) CreateTakeoffLayer(_ context.Context, l *models.TakeoffLayer) error {
	if _, ok := f.takeoffs[l.TakeoffID]; !ok {
		return sql.ErrNoRows
	}
	l.ID = f.id()
	f.layers[l.ID] = *l
	return nil
}

func (f *fakeTakeoffStore) GetTakeoffLayer(_ context.Context, id int) (*models.TakeoffLayer, error) {
	l, ok := f.layers[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &l, nil
}

func (f *fakeTakeoffStore) UpdateTakeoffLayer(_ context.Context, l *models.TakeoffLayer) error {
	if _, ok := f.layers[l.ID]; !ok {
		return sql.ErrNoRows
	}
	f.layers[l.ID] = *l
	return nil
}

func (f *fakeTakeoffStore) DeleteTakeoffLayer(_ context.Context, id int) error {
	l, ok := f.layers[id]
	if !ok {
		return sql.ErrNoRows
	}
	delete(f.layers, id)
	for mID, m := range f.measurements {
		if m.LayerID != nil && *m.LayerID == id {
			m.LayerID = nil
			f.measurements[mID] = m
		}
	}
	f.recalcTakeoff(l.TakeoffID)
	return nil
}

func (f *fakeTakeoffStore) GetTakeoffLayers(_ context.Context, takeoffID int) ([]models.TakeoffLayer, error) {
	var ls []models.TakeoffLayer
	for _, l := range f.layers {
		if l.TakeoffID == takeoffID {
			ls = append(ls, l)
		}
	}
	sort.Slice(ls, func(i, j int) bool {
		if ls[i].SortOrder != ls[j].SortOrder {
			return ls[i].SortOrder < ls[j].SortOrder
		}
		return ls[i].ID < ls[j].ID
	})
	return ls, nil
}

func (f *fakeTakeoffStore) CreateTakeoffMeasurement(_ context.Context, m *models.TakeoffMeasurement) error {
	if _, ok := f.takeoffs[m.TakeoffID]; !ok {
		return sql.ErrNoRows
	}
	m.ID = f.id()
	f.measurements[m.ID] = *m
	f.recalcTakeoff(m.TakeoffID)
	return nil
}

func (f *fakeTakeoffStore) GetTakeoffMeasurement(_ context.Context, id int) (*models.TakeoffMeasurement, error) {
	m, ok := f.measurements[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &m, nil
}

func (f *fakeTakeoffStore) GetTakeoffMeasurements(_ context.Context, takeoffID int) ([]models.TakeoffMeasurement, error) {
	var ms []models.TakeoffMeasurement
	for _, m := range f.measurements {
		if m.TakeoffID == takeoffID {
			ms = append(ms, m)
		}
	}
	sort.Slice(ms, func(i, j int) bool { return ms[i].ID < ms[j].ID })
	return ms, nil
}

func (f *fakeTakeoffStore) UpdateTakeoffMeasurement(_ context.Context, m *models.TakeoffMeasurement) error {
	if _, ok := f.measurements[m.ID]; !ok {
		return sql.ErrNoRows
	}
	f.measurements[m.ID] = *m
	f.recalcTakeoff(m.TakeoffID)
	return nil
}

func (f *fakeTakeoffStore) DeleteTakeoffMeasurement(_ context.Context, id int) error {
	m, ok := f.measurements[id]
	if !ok {
		return sql.ErrNoRows
	}
	delete(f.measurements, id)
	f.recalcTakeoff(m.TakeoffID)
	return nil
}

func (f *fakeTakeoffStore) TakeoffExportRows(ctx context.Context, takeoffID int) ([]models.TakeoffExportRow, error) {
	ms, _ := f.GetTakeoffMeasurements(ctx, takeoffID)
	rows := make([]models.TakeoffExportRow, 0, len(ms))
	for _, m := range ms {
		row := models.TakeoffExportRow{
			Description:     m.Description,
			MeasurementType: m.MeasurementType,
			Quantity:        m.Quantity,
			Unit:            m.Unit,
		}
		if m.LayerID != nil {
			if l, ok := f.layers[*m.LayerID]; ok {
				row.LayerName = l.Name
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
