package models

// Derive recomputes the measurement's geometry and quantity from its raw
// dimensions according to its type. Dimension fields that do not belong to
// the type are left untouched and ignored.
func (m *TakeoffMeasurement) Derive() {
	switch m.MeasurementType {
	case MeasurementTypeArea:
		area := deref(m.Length) * deref(m.Width)
		m.Area = &area
		m.Quantity = area
	case MeasurementTypeVolume:
		volume := deref(m.Length) * deref(m.Width) * deref(m.Height)
		m.Volume = &volume
		m.Quantity = volume
	case MeasurementTypeLinear:
		m.Quantity = deref(m.Length)
	case MeasurementTypeCount:
		// quantity is entered directly, no derived geometry
	}
}

// ConvertUnits scales the measurement into targetUnit by applying factor to
// each linear dimension once and re-deriving the quantity.
//
// The factor is linear: for AREA it ends up applied to both length and width
// (so an area scales by factor squared) and for VOLUME to all three
// dimensions (factor cubed). Callers must therefore always pass the linear
// conversion factor, never a pre-squared area factor. COUNT has no geometric
// dimension, so only the unit label changes.
func (m *TakeoffMeasurement) ConvertUnits(targetUnit string, factor float64) {
	switch m.MeasurementType {
	case MeasurementTypeLinear:
		scale(m.Length, factor)
	case MeasurementTypeArea:
		scale(m.Length, factor)
		scale(m.Width, factor)
	case MeasurementTypeVolume:
		scale(m.Length, factor)
		scale(m.Width, factor)
		scale(m.Height, factor)
	case MeasurementTypeCount:
	}
	m.Unit = targetUnit
	m.Derive()
}

// TakeoffTotal is the sum of all measurement quantities, regardless of type.
// Quantities across differing units are summed as-is; keeping the takeoff's
// measurements in a coherent unit convention is the caller's responsibility.
func TakeoffTotal(measurements []TakeoffMeasurement) float64 {
	var total float64
	for _, m := range measurements {
		total += m.Quantity
	}
	return total
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

func scale(f *float64, factor float64) {
	if f != nil {
		*f *= factor
	}
}
