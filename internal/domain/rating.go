package domain

// Ratings are shown as 0-4 star levels but stored as numeric scores.
// levelScores maps star level n to the score written back for level n.
// Score 2 is the "low mark": it falls inside level 1's display band but
// is a distinct below-level value with its own transitions.
var levelScores = [4]int{3, 5, 7, 9}

// LowMark is the special below-level-1 score.
const LowMark = 2

// StarLevel maps a numeric score to its 0-4 display tier.
func StarLevel(rating *int) int {
	if rating == nil {
		return 0
	}
	switch r := *rating; {
	case r < 1:
		return 0
	case r < 5:
		return 1
	case r < 7:
		return 2
	case r < 9:
		return 3
	default:
		return 4
	}
}

// ScoreForLevel returns the score written back for a 1-4 star level.
func ScoreForLevel(level int) (int, bool) {
	if level < 1 || level > len(levelScores) {
		return 0, false
	}
	return levelScores[level-1], true
}

// RatingForLevel computes the next stored rating after the user selects
// star level 1-4. Selecting the current level clears the rating, with
// one exception: a level-1 click on a low mark promotes it to the
// level-1 score instead of clearing.
func RatingForLevel(current *int, level int) *int {
	score, ok := ScoreForLevel(level)
	if !ok {
		return current
	}
	if current != nil && *current == LowMark && level == 1 {
		return &score
	}
	if StarLevel(current) == level {
		return nil
	}
	return &score
}

// CycleLowMark advances the dedicated low-mark affordance:
// unrated -> low mark -> level-1 score -> unrated.
func CycleLowMark(current *int) *int {
	if current == nil {
		low := LowMark
		return &low
	}
	switch *current {
	case LowMark:
		promoted := levelScores[0]
		return &promoted
	case levelScores[0]:
		return nil
	default:
		low := LowMark
		return &low
	}
}
