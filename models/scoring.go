package models

import "math"

const weightTolerance = 1e-9

// ScoringCriteria are the comparison weights. They must sum to exactly 1.0
// within floating tolerance.
type ScoringCriteria struct {
	PriceWeight      float64 `json:"priceWeight"`
	TimelineWeight   float64 `json:"timelineWeight"`
	ExperienceWeight float64 `json:"experienceWeight"`
	QualityWeight    float64 `json:"qualityWeight"`
}

func (c ScoringCriteria) Validate() error {
	sum := c.PriceWeight + c.TimelineWeight + c.ExperienceWeight + c.QualityWeight
	if math.Abs(sum-1.0) > weightTolerance {
		return NewValidationError("Criteria weights must sum to 1.0")
	}
	return nil
}

// CriteriaScores are on a 0-10 scale. The engine does not range-check them;
// out-of-range inputs simply skew the result.
type CriteriaScores struct {
	PriceScore      float64 `json:"priceScore"`
	TimelineScore   float64 `json:"timelineScore"`
	ExperienceScore float64 `json:"experienceScore"`
	QualityScore    float64 `json:"qualityScore"`
}

// ComparisonScore is the weighted mean of the scores normalized to [0,1]
// for in-range inputs.
func ComparisonScore(c ScoringCriteria, s CriteriaScores) float64 {
	weighted := s.PriceScore*c.PriceWeight +
		s.TimelineScore*c.TimelineWeight +
		s.ExperienceScore*c.ExperienceWeight +
		s.QualityScore*c.QualityWeight
	return weighted / 10
}
