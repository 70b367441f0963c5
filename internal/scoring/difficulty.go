package scoring

import (
	"fmt"

	"peerprep/interview/internal/models"
)

type Direction string

const (
	DirectionIncrease Direction = "increase"
	DirectionDecrease Direction = "decrease"
	DirectionMaintain Direction = "maintain"
)

const (
	decisionWindow = 3
	increaseAt     = 85
	decreaseAt     = 45
)

type Decision struct {
	Adjust    bool
	Direction Direction
	Reason    string
}

// DifficultyDecision looks at up to the last three scores and recommends a one-tier move.
func DifficultyDecision(scores []int, current models.Difficulty) Decision {
	if len(scores) == 0 {
		return Decision{Direction: DirectionMaintain, Reason: "Not enough answers to judge difficulty"}
	}
	if len(scores) > decisionWindow {
		scores = scores[len(scores)-decisionWindow:]
	}

	sum := 0
	for _, s := range scores {
		sum += s
	}
	mean := float64(sum) / float64(len(scores))

	switch {
	case mean >= increaseAt && current != models.DifficultyExpert:
		return Decision{
			Adjust:    true,
			Direction: DirectionIncrease,
			Reason:    fmt.Sprintf("Consistently strong answers (average %d%%)", roundHalfUp(mean)),
		}
	case mean <= decreaseAt && current != models.DifficultyEasy:
		return Decision{
			Adjust:    true,
			Direction: DirectionDecrease,
			Reason:    fmt.Sprintf("Struggling at the current level (average %d%%)", roundHalfUp(mean)),
		}
	}
	return Decision{Direction: DirectionMaintain, Reason: "Performance matches the current level"}
}

// Apply returns the tier the decision moves current to.
func (d Decision) Apply(current models.Difficulty) models.Difficulty {
	if !d.Adjust {
		return current
	}
	switch d.Direction {
	case DirectionIncrease:
		return current.Step(1)
	case DirectionDecrease:
		return current.Step(-1)
	}
	return current
}

// RecentScores returns the overall scores of the last three scored responses in order.
func RecentScores(responses []models.ResponseRecord) []int {
	scores := make([]int, 0, decisionWindow)
	for i := len(responses) - 1; i >= 0 && len(scores) < decisionWindow; i-- {
		if responses[i].Scores != nil {
			scores = append(scores, responses[i].Scores.Overall)
		}
	}
	for i, j := 0, len(scores)-1; i < j; i, j = i+1, j-1 {
		scores[i], scores[j] = scores[j], scores[i]
	}
	return scores
}
