package services

import (
	"fmt"
	"math"
	"strings"

	"github.com/gamifylearn/gamification-api/model"
)

// GradeResult is the outcome of automatic grading
type GradeResult struct {
	Score    float64
	Matched  []string
	Missing  []string
	Feedback string
}

// Grader scores answers against a marking guide by keyword coverage
type Grader struct{}

func NewGrader() *Grader {
	return &Grader{}
}

// Grade awards highest * matched/total keywords, rounded to two decimals.
// A guide without keywords awards full marks when the answer contains the expected answer.
func (g *Grader) Grade(guide model.MarkingGuide, highest float64, answers ...string) GradeResult {
	text := normalize(strings.Join(answers, " "))

	keywords := make([]string, 0, len(guide.Keywords))
	for _, k := range guide.Keywords {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}

	if len(keywords) == 0 {
		expected := normalize(guide.ExpectedAnswer)
		if expected != "" && strings.Contains(text, expected) {
			return GradeResult{Score: highest, Feedback: "Answer matches the expected answer."}
		}
		return GradeResult{Score: 0, Feedback: "Answer does not match the expected answer."}
	}

	result := GradeResult{Matched: []string{}, Missing: []string{}}
	for _, k := range keywords {
		if strings.Contains(text, normalize(k)) {
			result.Matched = append(result.Matched, k)
		} else {
			result.Missing = append(result.Missing, k)
		}
	}

	result.Score = roundScore(highest * float64(len(result.Matched)) / float64(len(keywords)))
	result.Feedback = fmt.Sprintf("Matched %d of %d keywords.", len(result.Matched), len(keywords))
	if len(result.Missing) > 0 {
		result.Feedback += " Missing: " + strings.Join(result.Missing, ", ") + "."
	}
	return result
}

func roundScore(v float64) float64 {
	return math.Round(v*100) / 100
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
