package db

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"procurement/models"
)

// Bid

func (s *Storage) CreateBid(ctx context.Context, b *models.Bid) error {
	query := `
        INSERT INTO bid
            (bid_number, project_id, supplier_id, bid_type, scope_of_work, status,
             tax_percent, bond_required, bond_amount)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id, subtotal, tax_amount, total, created_at, updated_at`
	return s.db.QueryRowContext(ctx, query,
		b.BidNumber, b.ProjectID, b.SupplierID, b.BidType, b.ScopeOfWork, b.Status,
		b.TaxPercent, b.BondRequired, b.BondAmount).
		Scan(&b.ID, &b.Subtotal, &b.TaxAmount, &b.Total, &b.CreatedAt, &b.UpdatedAt)
}

func (s *Storage) GetBid(ctx context.Context, id int) (*models.Bid, error) {
	b := &models.Bid{}
	query := `SELECT * FROM bid WHERE id=$1`
	err := s.db.GetContext(ctx, b, query, id)
	return b, err
}

func (s *Storage) DeleteBid(ctx context.Context, id int) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM bid WHERE id=$1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *Storage) GetBidsForProject(ctx context.Context, projectID int) ([]models.Bid, error) {
	bids := []models.Bid{}
	query := `
        SELECT * FROM bid
        WHERE project_id = $1
        ORDER BY created_at ASC, id ASC`
	err := s.db.SelectContext(ctx, &bids, query, projectID)
	return bids, err
}

func (s *Storage) CountProjectBids(ctx context.Context, projectID int) (int, error) {
	var count int
	query := `SELECT COUNT(1) FROM bid WHERE project_id = $1`
	err := s.db.GetContext(ctx, &count, query, projectID)
	return count, err
}

// UpdateBidStatus persists a state-machine transition: status plus the
// transition-owned date/reason fields.
func (s *Storage) UpdateBidStatus(ctx context.Context, b *models.Bid) error {
	query := `
        UPDATE bid
        SET status=$1, submitted_date=$2, awarded_date=$3, declined_reason=$4, updated_at=NOW()
        WHERE id=$5`
	_, err := s.db.ExecContext(ctx, query,
		b.Status, b.SubmittedDate, b.AwardedDate, b.DeclinedReason, b.ID)
	return err
}

func (s *Storage) SetBidComparisonScore(ctx context.Context, bidID int, score float64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE bid SET comparison_score=$1, updated_at=NOW() WHERE id=$2`, score, bidID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// GetScoredBids returns the project's scored bids ordered by score
// descending; ties break on creation time, then id, so ranks are stable.
func (s *Storage) GetScoredBids(ctx context.Context, projectID int) ([]models.Bid, error) {
	bids := []models.Bid{}
	query := `
        SELECT * FROM bid
        WHERE project_id = $1 AND comparison_score IS NOT NULL
        ORDER BY comparison_score DESC, created_at ASC, id ASC`
	err := s.db.SelectContext(ctx, &bids, query, projectID)
	return bids, err
}

func (s *Storage) ComparisonRows(ctx context.Context, projectID int) ([]models.BidComparisonRow, error) {
	rows := []models.BidComparisonRow{}
	query := `
        SELECT b.bid_number, COALESCE(sp.name, '') AS supplier_name, b.total
        FROM bid b
        LEFT JOIN supplier sp ON b.supplier_id = sp.id
        WHERE b.project_id = $1
        ORDER BY b.created_at ASC, b.id ASC`
	err := s.db.SelectContext(ctx, &rows, query, projectID)
	return rows, err
}

// Line items
//
// Every line-item mutation runs inside one transaction that locks the parent
// bid row, applies the child write, reloads the full line-item set and
// rewrites the bid aggregate. Concurrent mutations on the same bid serialize
// on the row lock, so a recompute never reads a partial child set.

func (s *Storage) withBidRecalc(ctx context.Context, bidID int, mutate func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var taxPercent decimal.Decimal
	if err := tx.GetContext(ctx, &taxPercent,
		`SELECT tax_percent FROM bid WHERE id = $1 FOR UPDATE`, bidID); err != nil {
		return err
	}

	if err := mutate(tx); err != nil {
		return err
	}

	var totals []decimal.Decimal
	if err := tx.SelectContext(ctx, &totals,
		`SELECT total FROM bid_line_item WHERE bid_id = $1`, bidID); err != nil {
		return err
	}
	agg := models.RecomputeBid(taxPercent, totals)

	if _, err := tx.ExecContext(ctx, `
        UPDATE bid
        SET subtotal = $1, tax_amount = $2, total = $3, updated_at = NOW()
        WHERE id = $4`,
		agg.Subtotal, agg.TaxAmount, agg.Total, bidID); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Storage) CreateBidLineItem(ctx context.Context, li *models.BidLineItem) error {
	return s.withBidRecalc(ctx, li.BidID, func(tx *sqlx.Tx) error {
		query := `
            INSERT INTO bid_line_item
                (bid_id, description, quantity, unit, unit_price, total, notes,
                 linked_estimate_line_id, sort_order)
            VALUES
                ($1, $2, $3, $4, $5, $6, $7, $8, $9)
            RETURNING id, created_at`
		return tx.QueryRowContext(ctx, query,
			li.BidID, li.Description, li.Quantity, li.Unit, li.UnitPrice, li.Total,
			li.Notes, li.LinkedEstimateLineID, li.SortOrder).
			Scan(&li.ID, &li.CreatedAt)
	})
}

func (s *Storage) GetBidLineItem(ctx context.Context, id int) (*models.BidLineItem, error) {
	li := &models.BidLineItem{}
	query := `SELECT * FROM bid_line_item WHERE id=$1`
	err := s.db.GetContext(ctx, li, query, id)
	return li, err
}

func (s *Storage) GetBidLineItems(ctx context.Context, bidID int) ([]models.BidLineItem, error) {
	items := []models.BidLineItem{}
	query := `
        SELECT * FROM bid_line_item
        WHERE bid_id = $1
        ORDER BY sort_order ASC, id ASC`
	err := s.db.SelectContext(ctx, &items, query, bidID)
	return items, err
}

func (s *Storage) UpdateBidLineItem(ctx context.Context, li *models.BidLineItem) error {
	return s.withBidRecalc(ctx, li.BidID, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
            UPDATE bid_line_item
            SET description=$1, quantity=$2, unit=$3, unit_price=$4, total=$5,
                notes=$6, linked_estimate_line_id=$7, sort_order=$8
            WHERE id=$9`,
			li.Description, li.Quantity, li.Unit, li.UnitPrice, li.Total,
			li.Notes, li.LinkedEstimateLineID, li.SortOrder, li.ID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return sql.ErrNoRows
		}
		return nil
	})
}

func (s *Storage) DeleteBidLineItem(ctx context.Context, id int) error {
	var bidID int
	if err := s.db.GetContext(ctx, &bidID,
		`SELECT bid_id FROM bid_line_item WHERE id = $1`, id); err != nil {
		return err
	}
	return s.withBidRecalc(ctx, bidID, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM bid_line_item WHERE id = $1`, id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return sql.ErrNoRows
		}
		return nil
	})
}

// Bid packages

func (s *Storage) CreateBidPackage(ctx context.Context, p *models.BidPackage) error {
	query := `
        INSERT INTO bid_package (project_id, name, scope_of_work, due_date)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at`
	return s.db.QueryRowContext(ctx, query,
		p.ProjectID, p.Name, p.ScopeOfWork, p.DueDate).
		Scan(&p.ID, &p.CreatedAt)
}

func (s *Storage) GetBidPackage(ctx context.Context, id int) (*models.BidPackage, error) {
	p := &models.BidPackage{}
	query := `SELECT * FROM bid_package WHERE id=$1`
	err := s.db.GetContext(ctx, p, query, id)
	return p, err
}

func (s *Storage) CreateBidPackageInvitation(ctx context.Context, inv *models.BidPackageInvitation) error {
	query := `
        INSERT INTO bid_package_invitation (package_id, supplier_id, inviter_id, note)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at`
	return s.db.QueryRowContext(ctx, query,
		inv.PackageID, inv.SupplierID, inv.InviterID, inv.Note).
		Scan(&inv.ID, &inv.CreatedAt)
}

func (s *Storage) GetPackageInvitations(ctx context.Context, packageID int) ([]models.BidPackageInvitation, error) {
	invitations := []models.BidPackageInvitation{}
	query := `
        SELECT * FROM bid_package_invitation
        WHERE package_id = $1
        ORDER BY created_at ASC, id ASC`
	err := s.db.SelectContext(ctx, &invitations, query, packageID)
	return invitations, err
}
