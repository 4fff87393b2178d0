package service

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"procurement/models"
)

type CreateTakeoffInput struct {
	ProjectID        int    `json:"projectId" validate:"required"`
	Name             string `json:"name" validate:"required,max=200"`
	Unit             string `json:"unit" validate:"required,max=50"`
	LinkedEstimateID *int   `json:"linkedEstimateId"`
}

func (s *TakeoffService) CreateTakeoff(ctx context.Context, in CreateTakeoffInput) (*models.Takeoff, error) {
	if err := checkInput(s.validate, in); err != nil {
		return nil, err
	}
	t := &models.Takeoff{
		ProjectID:        in.ProjectID,
		Name:             in.Name,
		LinkedEstimateID: in.LinkedEstimateID,
		Unit:             in.Unit,
		Status:           "ACTIVE",
	}
	if err := s.store.CreateTakeoff(ctx, t); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"takeoffId": t.ID, "projectId": t.ProjectID}).Info("takeoff created")
	return t, nil
}

func (s *TakeoffService) GetTakeoff(ctx context.Context, id int) (*models.Takeoff, error) {
	t, err := s.store.GetTakeoff(ctx, id)
	if err != nil {
		return nil, asNotFound(err, "takeoff", id)
	}
	return t, nil
}

func (s *TakeoffService) ListProjectTakeoffs(ctx context.Context, projectID int) ([]models.Takeoff, error) {
	return s.store.GetTakeoffsForProject(ctx, projectID)
}

func (s *TakeoffService) DeleteTakeoff(ctx context.Context, id int) error {
	if err := s.store.DeleteTakeoff(ctx, id); err != nil {
		return asNotFound(err, "takeoff", id)
	}
	s.log.WithField("takeoffId", id).Info("takeoff deleted")
	return nil
}

// Layers

type LayerInput struct {
	Name      string `validate:"required,max=200"`
	Color     string `validate:"max=20"`
	Visible   *bool
	SortOrder *int
}

func (s *TakeoffService) CreateLayer(ctx context.Context, takeoffID int, in LayerInput) (*models.TakeoffLayer, error) {
	if err := checkInput(s.validate, in); err != nil {
		return nil, err
	}
	if _, err := s.store.GetTakeoff(ctx, takeoffID); err != nil {
		return nil, asNotFound(err, "takeoff", takeoffID)
	}

	visible := true
	if in.Visible != nil {
		visible = *in.Visible
	}
	sortOrder := 0
	if in.SortOrder != nil {
		sortOrder = *in.SortOrder
	} else {
		layers, err := s.store.GetTakeoffLayers(ctx, takeoffID)
		if err != nil {
			return nil, err
		}
		sortOrder = len(layers)
	}

	l := &models.TakeoffLayer{
		TakeoffID: takeoffID,
		Name:      in.Name,
		Color:     in.Color,
		Visible:   visible,
		SortOrder: sortOrder,
	}
	if err := s.store.CreateTakeoffLayer(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

type LayerPatch struct {
	Name      *string
	Color     *string
	Visible   *bool
	SortOrder *int
}

func (s *TakeoffService) UpdateLayer(ctx context.Context, id int, patch LayerPatch) (*models.TakeoffLayer, error) {
	l, err := s.store.GetTakeoffLayer(ctx, id)
	if err != nil {
		return nil, asNotFound(err, "layer", id)
	}
	if patch.Name != nil {
		l.Name = *patch.Name
	}
	if patch.Color != nil {
		l.Color = *patch.Color
	}
	if patch.Visible != nil {
		l.Visible = *patch.Visible
	}
	if patch.SortOrder != nil {
		l.SortOrder = *patch.SortOrder
	}
	if err := s.store.UpdateTakeoffLayer(ctx, l); err != nil {
		return nil, asNotFound(err, "layer", id)
	}
	return l, nil
}

// DeleteLayer removes only the layer; measurements that referenced it keep
// existing with the reference cleared, so the takeoff total is unchanged.
func (s *TakeoffService) DeleteLayer(ctx context.Context, id int) error {
	if err := s.store.DeleteTakeoffLayer(ctx, id); err != nil {
		return asNotFound(err, "layer", id)
	}
	s.log.WithField("layerId", id).Info("layer deleted")
	return nil
}

// Measurements. Every add/update/delete re-derives the measurement's
// quantity from its raw dimensions and recomputes the takeoff's
// totalQuantity in the same storage transaction.

type AreaMeasurementInput struct {
	Description string
	Unit        string `validate:"required,max=50"`
	Length      float64
	Width       float64
	LayerID     *int
}

func (s *TakeoffService) AddAreaMeasurement(ctx context.Context, takeoffID int, in AreaMeasurementInput) (*models.TakeoffMeasurement, error) {
	if err := checkInput(s.validate, in); err != nil {
		return nil, err
	}
	m := &models.TakeoffMeasurement{
		TakeoffID:       takeoffID,
		LayerID:         in.LayerID,
		MeasurementType: models.MeasurementTypeArea,
		Description:     in.Description,
		Unit:            in.Unit,
		Length:          &in.Length,
		Width:           &in.Width,
	}
	return s.addMeasurement(ctx, m)
}

type LinearMeasurementInput struct {
	Description string
	Unit        string `validate:"required,max=50"`
	Length      float64
	LayerID     *int
}

func (s *TakeoffService) AddLinearMeasurement(ctx context.Context, takeoffID int, in LinearMeasurementInput) (*models.TakeoffMeasurement, error) {
	if err := checkInput(s.validate, in); err != nil {
		return nil, err
	}
	m := &models.TakeoffMeasurement{
		TakeoffID:       takeoffID,
		LayerID:         in.LayerID,
		MeasurementType: models.MeasurementTypeLinear,
		Description:     in.Description,
		Unit:            in.Unit,
		Length:          &in.Length,
	}
	return s.addMeasurement(ctx, m)
}

type VolumeMeasurementInput struct {
	Description string
	Unit        string `validate:"required,max=50"`
	Length      float64
	Width       float64
	Height      float64
	LayerID     *int
}

func (s *TakeoffService) AddVolumeMeasurement(ctx context.Context, takeoffID int, in VolumeMeasurementInput) (*models.TakeoffMeasurement, error) {
	if err := checkInput(s.validate, in); err != nil {
		return nil, err
	}
	m := &models.TakeoffMeasurement{
		TakeoffID:       takeoffID,
		LayerID:         in.LayerID,
		MeasurementType: models.MeasurementTypeVolume,
		Description:     in.Description,
		Unit:            in.Unit,
		Length:          &in.Length,
		Width:           &in.Width,
		Height:          &in.Height,
	}
	return s.addMeasurement(ctx, m)
}

type CountMeasurementInput struct {
	Description string
	Unit        string `validate:"required,max=50"`
	Quantity    float64
	LayerID     *int
}

func (s *TakeoffService) AddCountMeasurement(ctx context.Context, takeoffID int, in CountMeasurementInput) (*models.TakeoffMeasurement, error) {
	if err := checkInput(s.validate, in); err != nil {
		return nil, err
	}
	m := &models.TakeoffMeasurement{
		TakeoffID:       takeoffID,
		LayerID:         in.LayerID,
		MeasurementType: models.MeasurementTypeCount,
		Description:     in.Description,
		Unit:            in.Unit,
		Quantity:        in.Quantity,
	}
	return s.addMeasurement(ctx, m)
}

func (s *TakeoffService) addMeasurement(ctx context.Context, m *models.TakeoffMeasurement) (*models.TakeoffMeasurement, error) {
	m.Derive()
	if err := s.store.CreateTakeoffMeasurement(ctx, m); err != nil {
		return nil, asNotFound(err, "takeoff", m.TakeoffID)
	}
	s.log.WithFields(logrus.Fields{
		"takeoffId":     m.TakeoffID,
		"measurementId": m.ID,
		"type":          m.MeasurementType,
	}).Info("measurement added")
	return m, nil
}

type MeasurementPatch struct {
	Description *string
	Unit        *string
	LayerID     *int
	Length      *float64
	Width       *float64
	Height      *float64
	Quantity    *float64
}

// UpdateMeasurement applies the present fields and re-derives the quantity
// per the measurement's type. Dimension fields foreign to the type are
// ignored, and Quantity is only writable on COUNT measurements.
func (s *TakeoffService) UpdateMeasurement(ctx context.Context, id int, patch MeasurementPatch) (*models.TakeoffMeasurement, error) {
	m, err := s.store.GetTakeoffMeasurement(ctx, id)
	if err != nil {
		return nil, asNotFound(err, "measurement", id)
	}

	if patch.Description != nil {
		m.Description = *patch.Description
	}
	if patch.Unit != nil {
		m.Unit = *patch.Unit
	}
	if patch.LayerID != nil {
		m.LayerID = patch.LayerID
	}
	switch m.MeasurementType {
	case models.MeasurementTypeArea:
		if patch.Length != nil {
			m.Length = patch.Length
		}
		if patch.Width != nil {
			m.Width = patch.Width
		}
	case models.MeasurementTypeVolume:
		if patch.Length != nil {
			m.Length = patch.Length
		}
		if patch.Width != nil {
			m.Width = patch.Width
		}
		if patch.Height != nil {
			m.Height = patch.Height
		}
	case models.MeasurementTypeLinear:
		if patch.Length != nil {
			m.Length = patch.Length
		}
	case models.MeasurementTypeCount:
		if patch.Quantity != nil {
			m.Quantity = *patch.Quantity
		}
	}
	m.Derive()

	if err := s.store.UpdateTakeoffMeasurement(ctx, m); err != nil {
		return nil, asNotFound(err, "measurement", id)
	}
	s.log.WithFields(logrus.Fields{"takeoffId": m.TakeoffID, "measurementId": id}).Info("measurement updated")
	return m, nil
}

func (s *TakeoffService) DeleteMeasurement(ctx context.Context, id int) error {
	if err := s.store.DeleteTakeoffMeasurement(ctx, id); err != nil {
		return asNotFound(err, "measurement", id)
	}
	s.log.WithField("measurementId", id).Info("measurement deleted")
	return nil
}

// ConvertMeasurementUnits rescales the measurement's raw dimensions by the
// linear conversion factor, re-derives the quantity and relabels the unit.
// See models.TakeoffMeasurement.ConvertUnits for the factor semantics.
func (s *TakeoffService) ConvertMeasurementUnits(ctx context.Context, id int, targetUnit string, factor float64) (*models.TakeoffMeasurement, error) {
	if strings.TrimSpace(targetUnit) == "" {
		return nil, models.NewValidationError("Target unit is required")
	}
	m, err := s.store.GetTakeoffMeasurement(ctx, id)
	if err != nil {
		return nil, asNotFound(err, "measurement", id)
	}
	m.ConvertUnits(targetUnit, factor)
	if err := s.store.UpdateTakeoffMeasurement(ctx, m); err != nil {
		return nil, asNotFound(err, "measurement", id)
	}
	s.log.WithFields(logrus.Fields{
		"measurementId": id,
		"targetUnit":    targetUnit,
		"factor":        factor,
	}).Info("measurement converted")
	return m, nil
}

// Summary and export

type TypeSummary struct {
	MeasurementType models.MeasurementType `json:"measurementType"`
	Count           int                    `json:"count"`
	TotalQuantity   float64                `json:"totalQuantity"`
}

type LayerSummary struct {
	LayerName string `json:"layerName"`
	Count     int    `json:"count"`
}

type TakeoffSummary struct {
	MeasurementCount int            `json:"measurementCount"`
	LayerCount       int            `json:"layerCount"`
	ByType           []TypeSummary  `json:"byType"`
	ByLayer          []LayerSummary `json:"byLayer"`
}

// GetTakeoffSummary groups the takeoff's measurements by type and by layer
// name. Unassigned measurements get their own byLayer entry with an empty
// name.
func (s *TakeoffService) GetTakeoffSummary(ctx context.Context, takeoffID int) (*TakeoffSummary, error) {
	if _, err := s.store.GetTakeoff(ctx, takeoffID); err != nil {
		return nil, asNotFound(err, "takeoff", takeoffID)
	}
	measurements, err := s.store.GetTakeoffMeasurements(ctx, takeoffID)
	if err != nil {
		return nil, err
	}
	layers, err := s.store.GetTakeoffLayers(ctx, takeoffID)
	if err != nil {
		return nil, err
	}

	summary := &TakeoffSummary{
		MeasurementCount: len(measurements),
		LayerCount:       len(layers),
	}

	typeCounts := map[models.MeasurementType]*TypeSummary{}
	layerCounts := map[int]int{}
	unassigned := 0
	for _, m := range measurements {
		ts := typeCounts[m.MeasurementType]
		if ts == nil {
			ts = &TypeSummary{MeasurementType: m.MeasurementType}
			typeCounts[m.MeasurementType] = ts
		}
		ts.Count++
		ts.TotalQuantity += m.Quantity
		if m.LayerID != nil {
			layerCounts[*m.LayerID]++
		} else {
			unassigned++
		}
	}

	for _, mt := range []models.MeasurementType{
		models.MeasurementTypeArea,
		models.MeasurementTypeLinear,
		models.MeasurementTypeVolume,
		models.MeasurementTypeCount,
	} {
		if ts := typeCounts[mt]; ts != nil {
			summary.ByType = append(summary.ByType, *ts)
		}
	}

	for _, l := range layers {
		if count := layerCounts[l.ID]; count > 0 {
			summary.ByLayer = append(summary.ByLayer, LayerSummary{LayerName: l.Name, Count: count})
		}
	}
	if unassigned > 0 {
		summary.ByLayer = append(summary.ByLayer, LayerSummary{LayerName: "", Count: unassigned})
	}
	return summary, nil
}

// DuplicateTakeoff deep-copies the takeoff under a new name. The copy is
// fully independent: fresh ids throughout, layer references remapped, total
// recomputed from the copied measurements.
func (s *TakeoffService) DuplicateTakeoff(ctx context.Context, id int, newName string, actorID int) (*models.Takeoff, error) {
	if strings.TrimSpace(newName) == "" {
		return nil, models.NewValidationError("New takeoff name is required")
	}
	dup, err := s.store.DuplicateTakeoff(ctx, id, newName)
	if err != nil {
		return nil, asNotFound(err, "takeoff", id)
	}
	s.log.WithFields(logrus.Fields{
		"sourceTakeoffId": id,
		"takeoffId":       dup.ID,
		"actorId":         actorID,
	}).Info("takeoff duplicated")
	return dup, nil
}

// ExportTakeoffCSV writes one row per measurement with the header
// `Layer,Description,Type,Quantity,Unit`. Layer is empty for unassigned
// measurements.
func (s *TakeoffService) ExportTakeoffCSV(ctx context.Context, takeoffID int, w io.Writer) error {
	if _, err := s.store.GetTakeoff(ctx, takeoffID); err != nil {
		return asNotFound(err, "takeoff", takeoffID)
	}
	rows, err := s.store.TakeoffExportRows(ctx, takeoffID)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Layer", "Description", "Type", "Quantity", "Unit"}); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write([]string{
			r.LayerName,
			r.Description,
			string(r.MeasurementType),
			strconv.FormatFloat(r.Quantity, 'f', -1, 64),
			r.Unit,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
