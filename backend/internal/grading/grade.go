// Package grading derives totals and letter grades from component scores.
// Every function is pure; malformed numeric input counts as zero.
package grading

import (
	"math"
	"strconv"
	"strings"
)

// Grade is a letter grade
type Grade string

const (
	GradeAPlus Grade = "A+"
	GradeA     Grade = "A"
	GradeBPlus Grade = "B+"
	GradeB     Grade = "B"
	GradeC     Grade = "C"
	GradeF     Grade = "F"
)

// Upper bounds of each score component.
const (
	MaxMid        = 20
	MaxAssignment = 10
	MaxAttendance = 10
	MaxExternal   = 50
)

// gradeBands is evaluated top-down; the first band whose lower bound is met wins.
var gradeBands = []struct {
	min   float64
	grade Grade
}{
	{85, GradeAPlus},
	{75, GradeA},
	{65, GradeBPlus},
	{55, GradeB},
	{45, GradeC},
}

// ScoreComponents is a fully validated set of component scores
type ScoreComponents struct {
	Mid1       float64 `json:"mid1"`
	Mid2       float64 `json:"mid2"`
	Assignment float64 `json:"assignment"`
	Attendance float64 `json:"attendance"`
	External   float64 `json:"external"`
}

// Scores is a score submission or a stored score set. A nil component is
// missing, which is distinct from zero.
type Scores struct {
	Mid1       *float64 `bson:"mid1,omitempty" json:"mid1" validate:"required,min=0,max=20"`
	Mid2       *float64 `bson:"mid2,omitempty" json:"mid2" validate:"required,min=0,max=20"`
	Assignment *float64 `bson:"assignment,omitempty" json:"assignment" validate:"required,min=0,max=10"`
	Attendance *float64 `bson:"attendance,omitempty" json:"attendance" validate:"required,min=0,max=10"`
	External   *float64 `bson:"external,omitempty" json:"external" validate:"required,min=0,max=50"`
}

// RawScores is the editor view of a score set: every component as text,
// empty when missing.
type RawScores struct {
	Mid1       string `json:"mid1"`
	Mid2       string `json:"mid2"`
	Assignment string `json:"assignment"`
	Attendance string `json:"attendance"`
	External   string `json:"external"`
}

// CoerceNumericOrZero parses s as a number. Empty, non-numeric, NaN and
// infinite input all yield 0.
func CoerceNumericOrZero(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// ComputeTotal sums all five components after coercion. The result is not
// capped.
func ComputeTotal(raw RawScores) float64 {
	return CoerceNumericOrZero(raw.Mid1) +
		CoerceNumericOrZero(raw.Mid2) +
		CoerceNumericOrZero(raw.Assignment) +
		CoerceNumericOrZero(raw.Attendance) +
		CoerceNumericOrZero(raw.External)
}

// BestOfTwoMid returns the higher of the two mid-term scores.
func BestOfTwoMid(raw RawScores) float64 {
	return math.Max(CoerceNumericOrZero(raw.Mid1), CoerceNumericOrZero(raw.Mid2))
}

// ComputeGrade grades on mid1+mid2+assignment only. Attendance and external
// marks never influence the letter grade.
func ComputeGrade(mid1, mid2, assignment float64) Grade {
	sum := mid1 + mid2 + assignment
	for _, band := range gradeBands {
		if sum >= band.min {
			return band.grade
		}
	}
	return GradeF
}

// Total sums all five components
func (c ScoreComponents) Total() float64 {
	return c.Mid1 + c.Mid2 + c.Assignment + c.Attendance + c.External
}

// BestOfTwo returns max(Mid1, Mid2)
func (c ScoreComponents) BestOfTwo() float64 {
	return math.Max(c.Mid1, c.Mid2)
}

// Grade computes the letter grade for the components
func (c ScoreComponents) Grade() Grade {
	return ComputeGrade(c.Mid1, c.Mid2, c.Assignment)
}

// Scores converts validated components into a submission with every field set.
func (c ScoreComponents) Scores() Scores {
	return Scores{
		Mid1:       Float(c.Mid1),
		Mid2:       Float(c.Mid2),
		Assignment: Float(c.Assignment),
		Attendance: Float(c.Attendance),
		External:   Float(c.External),
	}
}

// Components returns the score set with missing values as zero.
func (s Scores) Components() ScoreComponents {
	return ScoreComponents{
		Mid1:       valueOrZero(s.Mid1),
		Mid2:       valueOrZero(s.Mid2),
		Assignment: valueOrZero(s.Assignment),
		Attendance: valueOrZero(s.Attendance),
		External:   valueOrZero(s.External),
	}
}

// Raw formats the score set for an editor; missing values become "".
func (s Scores) Raw() RawScores {
	return RawScores{
		Mid1:       formatScore(s.Mid1),
		Mid2:       formatScore(s.Mid2),
		Assignment: formatScore(s.Assignment),
		Attendance: formatScore(s.Attendance),
		External:   formatScore(s.External),
	}
}

// Float returns a pointer to v
func Float(v float64) *float64 {
	return &v
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func formatScore(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
