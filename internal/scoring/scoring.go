package scoring

import (
	"math"

	"peerprep/interview/internal/models"
)

// ScoreResponse converts an evaluation into the stored score record. Missing dimensions
// count as 0; the model's own overall wins when it stated one.
func ScoreResponse(eval models.EvaluationRecord) models.ScoreRecord {
	record := models.ScoreRecord{
		Correctness:   dimensionScore(eval.Correctness),
		Reasoning:     dimensionScore(eval.Reasoning),
		Communication: dimensionScore(eval.Communication),
		Structure:     dimensionScore(eval.Structure),
		Confidence:    dimensionScore(eval.Confidence),
	}

	if eval.Overall != nil {
		record.Overall = clamp(*eval.Overall)
	} else {
		sum := record.Correctness + record.Reasoning + record.Communication + record.Structure + record.Confidence
		record.Overall = roundHalfUp(float64(sum) / 5)
	}
	return record
}

func dimensionScore(d models.DimensionScore) int {
	if !d.Present {
		return 0
	}
	return clamp(d.Score)
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
