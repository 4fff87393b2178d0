package db

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"procurement/models"
)

// Takeoff

func (s *Storage) CreateTakeoff(ctx context.Context, t *models.Takeoff) error {
	query := `
        INSERT INTO takeoff (project_id, name, linked_estimate_id, unit, status)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, total_quantity, created_at, updated_at`
	return s.db.QueryRowContext(ctx, query,
		t.ProjectID, t.Name, t.LinkedEstimateID, t.Unit, t.Status).
		Scan(&t.ID, &t.TotalQuantity, &t.CreatedAt, &t.UpdatedAt)
}

func (s *Storage) GetTakeoff(ctx context.Context, id int) (*models.Takeoff, error) {
	t := &models.Takeoff{}
	query := `SELECT * FROM takeoff WHERE id=$1`
	err := s.db.GetContext(ctx, t, query, id)
	return t, err
}

func (s *Storage) DeleteTakeoff(ctx context.Context, id int) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM takeoff WHERE id=$1`, id)
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

func (s *Storage) GetTakeoffsForProject(ctx context.Context, projectID int) ([]models.Takeoff, error) {
	takeoffs := []models.Takeoff{}
	query := `
        SELECT * FROM takeoff
        WHERE project_id = $1
        ORDER BY created_at ASC, id ASC`
	err := s.db.SelectContext(ctx, &takeoffs, query, projectID)
	return takeoffs, err
}

// Layers

func (s *Storage) CreateTakeoffLayer(ctx context.Context, l *models.TakeoffLayer) error {
	query := `
        INSERT INTO takeoff_layer (takeoff_id, name, color, visible, sort_order)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at`
	return s.db.QueryRowContext(ctx, query,
		l.TakeoffID, l.Name, l.Color, l.Visible, l.SortOrder).
		Scan(&l.ID, &l.CreatedAt)
}

func (s *Storage) GetTakeoffLayer(ctx context.Context, id int) (*models.TakeoffLayer, error) {
	l := &models.TakeoffLayer{}
	query := `SELECT * FROM takeoff_layer WHERE id=$1`
	err := s.db.GetContext(ctx, l, query, id)
	return l, err
}

func (s *Storage) UpdateTakeoffLayer(ctx context.Context, l *models.TakeoffLayer) error {
	res, err := s.db.ExecContext(ctx, `
        UPDATE takeoff_layer
        SET name=$1, color=$2, visible=$3, sort_order=$4
        WHERE id=$5`,
		l.Name, l.Color, l.Visible, l.SortOrder, l.ID)
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

// DeleteTakeoffLayer removes the layer only. The layer_id FK on
// takeoff_measurement is ON DELETE SET NULL, so measurements survive with
// the reference cleared and the aggregate is unaffected; the recompute is
// still re-run inside the same transaction.
func (s *Storage) DeleteTakeoffLayer(ctx context.Context, id int) error {
	var takeoffID int
	if err := s.db.GetContext(ctx, &takeoffID,
		`SELECT takeoff_id FROM takeoff_layer WHERE id = $1`, id); err != nil {
		return err
	}
	return s.withTakeoffRecalc(ctx, takeoffID, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM takeoff_layer WHERE id = $1`, id)
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

func (s *Storage) GetTakeoffLayers(ctx context.Context, takeoffID int) ([]models.TakeoffLayer, error) {
	layers := []models.TakeoffLayer{}
	query := `
        SELECT * FROM takeoff_layer
        WHERE takeoff_id = $1
        ORDER BY sort_order ASC, id ASC`
	err := s.db.SelectContext(ctx, &layers, query, takeoffID)
	return layers, err
}

// Measurements
//
// Same discipline as bid line items: lock the parent takeoff row, apply the
// child write, reload all measurements, rewrite total_quantity.

func (s *Storage) withTakeoffRecalc(ctx context.Context, takeoffID int, mutate func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var id int
	if err := tx.GetContext(ctx, &id,
		`SELECT id FROM takeoff WHERE id = $1 FOR UPDATE`, takeoffID); err != nil {
		return err
	}

	if err := mutate(tx); err != nil {
		return err
	}

	measurements := []models.TakeoffMeasurement{}
	if err := tx.SelectContext(ctx, &measurements,
		`SELECT * FROM takeoff_measurement WHERE takeoff_id = $1`, takeoffID); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE takeoff SET total_quantity = $1, updated_at = NOW() WHERE id = $2`,
		models.TakeoffTotal(measurements), takeoffID); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Storage) CreateTakeoffMeasurement(ctx context.Context, m *models.TakeoffMeasurement) error {
	return s.withTakeoffRecalc(ctx, m.TakeoffID, func(tx *sqlx.Tx) error {
		query := `
            INSERT INTO takeoff_measurement
                (takeoff_id, layer_id, measurement_type, description, unit, quantity,
                 length, width, height, area, volume)
            VALUES
                ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
            RETURNING id, created_at`
		return tx.QueryRowContext(ctx, query,
			m.TakeoffID, m.LayerID, m.MeasurementType, m.Description, m.Unit, m.Quantity,
			m.Length, m.Width, m.Height, m.Area, m.Volume).
			Scan(&m.ID, &m.CreatedAt)
	})
}

func (s *Storage) GetTakeoffMeasurement(ctx context.Context, id int) (*models.TakeoffMeasurement, error) {
	m := &models.TakeoffMeasurement{}
	query := `SELECT * FROM takeoff_measurement WHERE id=$1`
	err := s.db.GetContext(ctx, m, query, id)
	return m, err
}

func (s *Storage) GetTakeoffMeasurements(ctx context.Context, takeoffID int) ([]models.TakeoffMeasurement, error) {
	measurements := []models.TakeoffMeasurement{}
	query := `
        SELECT * FROM takeoff_measurement
        WHERE takeoff_id = $1
        ORDER BY created_at ASC, id ASC`
	err := s.db.SelectContext(ctx, &measurements, query, takeoffID)
	return measurements, err
}

func (s *Storage) UpdateTakeoffMeasurement(ctx context.Context, m *models.TakeoffMeasurement) error {
	return s.withTakeoffRecalc(ctx, m.TakeoffID, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
            UPDATE takeoff_measurement
            SET layer_id=$1, description=$2, unit=$3, quantity=$4,
                length=$5, width=$6, height=$7, area=$8, volume=$9
            WHERE id=$10`,
			m.LayerID, m.Description, m.Unit, m.Quantity,
			m.Length, m.Width, m.Height, m.Area, m.Volume, m.ID)
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

func (s *Storage) DeleteTakeoffMeasurement(ctx context.Context, id int) error {
	var takeoffID int
	if err := s.db.GetContext(ctx, &takeoffID,
		`SELECT takeoff_id FROM takeoff_measurement WHERE id = $1`, id); err != nil {
		return err
	}
	return s.withTakeoffRecalc(ctx, takeoffID, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM takeoff_measurement WHERE id = $1`, id)
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

// DuplicateTakeoff deep-copies the takeoff with all layers and measurements
// in one transaction. Every copied row gets a fresh id and measurements are
// remapped onto the copied layers, so the duplicate is fully independent.
func (s *Storage) DuplicateTakeoff(ctx context.Context, takeoffID int, newName string) (*models.Takeoff, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	src := models.Takeoff{}
	if err := tx.GetContext(ctx, &src, `SELECT * FROM takeoff WHERE id=$1`, takeoffID); err != nil {
		return nil, err
	}

	dup := models.Takeoff{
		ProjectID:        src.ProjectID,
		Name:             newName,
		LinkedEstimateID: src.LinkedEstimateID,
		Unit:             src.Unit,
		Status:           src.Status,
	}
	if err := tx.QueryRowContext(ctx, `
        INSERT INTO takeoff (project_id, name, linked_estimate_id, unit, status)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, total_quantity, created_at, updated_at`,
		dup.ProjectID, dup.Name, dup.LinkedEstimateID, dup.Unit, dup.Status).
		Scan(&dup.ID, &dup.TotalQuantity, &dup.CreatedAt, &dup.UpdatedAt); err != nil {
		return nil, err
	}

	layers := []models.TakeoffLayer{}
	if err := tx.SelectContext(ctx, &layers, `
        SELECT * FROM takeoff_layer
        WHERE takeoff_id = $1
        ORDER BY sort_order ASC, id ASC`, takeoffID); err != nil {
		return nil, err
	}
	layerIDs := make(map[int]int, len(layers))
	for _, l := range layers {
		var newID int
		if err := tx.QueryRowContext(ctx, `
            INSERT INTO takeoff_layer (takeoff_id, name, color, visible, sort_order)
            VALUES ($1, $2, $3, $4, $5)
            RETURNING id`,
			dup.ID, l.Name, l.Color, l.Visible, l.SortOrder).Scan(&newID); err != nil {
			return nil, err
		}
		layerIDs[l.ID] = newID
	}

	measurements := []models.TakeoffMeasurement{}
	if err := tx.SelectContext(ctx, &measurements, `
        SELECT * FROM takeoff_measurement
        WHERE takeoff_id = $1
        ORDER BY created_at ASC, id ASC`, takeoffID); err != nil {
		return nil, err
	}
	for _, m := range measurements {
		var layerID *int
		if m.LayerID != nil {
			if mapped, ok := layerIDs[*m.LayerID]; ok {
				layerID = &mapped
			}
		}
		if _, err := tx.ExecContext(ctx, `
            INSERT INTO takeoff_measurement
                (takeoff_id, layer_id, measurement_type, description, unit, quantity,
                 length, width, height, area, volume)
            VALUES
                ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			dup.ID, layerID, m.MeasurementType, m.Description, m.Unit, m.Quantity,
			m.Length, m.Width, m.Height, m.Area, m.Volume); err != nil {
			return nil, err
		}
	}

	dup.TotalQuantity = models.TakeoffTotal(measurements)
	if _, err := tx.ExecContext(ctx,
		`UPDATE takeoff SET total_quantity = $1, updated_at = NOW() WHERE id = $2`,
		dup.TotalQuantity, dup.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &dup, nil
}

func (s *Storage) TakeoffExportRows(ctx context.Context, takeoffID int) ([]models.TakeoffExportRow, error) {
	rows := []models.TakeoffExportRow{}
	query := `
        SELECT COALESCE(l.name, '') AS layer_name, m.description, m.measurement_type, m.quantity, m.unit
        FROM takeoff_measurement m
        LEFT JOIN takeoff_layer l ON m.layer_id = l.id
        WHERE m.takeoff_id = $1
        ORDER BY m.created_at ASC, m.id ASC`
	err := s.db.SelectContext(ctx, &rows, query, takeoffID)
	return rows, err
}
