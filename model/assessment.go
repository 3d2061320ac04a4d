package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MarkingGuide is the rubric used for automatic grading
type MarkingGuide struct {
	Question       string   `bson:"question" json:"question"`
	ExpectedAnswer string   `bson:"expectedAnswer" json:"expectedAnswer"`
	Keywords       []string `bson:"keywords" json:"keywords"`
}

// Assessment is a gradable task attached to a course
type Assessment struct {
	ID                     primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	CourseID               primitive.ObjectID `bson:"courseId" json:"courseId"`
	InstructorID           primitive.ObjectID `bson:"instructorId" json:"instructorId"`
	Title                  string             `bson:"title" json:"title"`
	Question               string             `bson:"question" json:"question"`
	HighestAttainableScore float64            `bson:"highestAttainableScore" json:"highestAttainableScore"`
	MarkingGuide           *MarkingGuide      `bson:"markingGuide,omitempty" json:"markingGuide,omitempty"`
	File                   string             `bson:"file,omitempty" json:"file,omitempty"`
	CreatedAt              time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt              time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// GradingMode records which path produced a submission's score
type GradingMode string

const (
	GradingModeManual    GradingMode = "manual"
	GradingModeAutomatic GradingMode = "automatic"
)

// Submission is a learner's answer to an assessment. It is graded at most once.
type Submission struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	AssessmentID  primitive.ObjectID  `bson:"assessmentId" json:"assessmentId"`
	LearnerID     primitive.ObjectID  `bson:"learnerId" json:"learnerId"`
	AnswerText    string              `bson:"answerText" json:"answerText"`
	File          string              `bson:"file,omitempty" json:"file,omitempty"`
	ExtractedText string              `bson:"extractedText,omitempty" json:"-"`
	Score         *float64            `bson:"score" json:"score"`
	Comments      string              `bson:"comments,omitempty" json:"comments,omitempty"`
	Graded        bool                `bson:"graded" json:"graded"`
	GradedBy      *primitive.ObjectID `bson:"gradedBy,omitempty" json:"gradedBy,omitempty"`
	GradingMode   GradingMode         `bson:"gradingMode,omitempty" json:"gradingMode,omitempty"`
	GradedAt      *time.Time          `bson:"gradedAt,omitempty" json:"gradedAt,omitempty"`
	CreatedAt     time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// Grade is the outcome recorded on a submission
type Grade struct {
	Score    float64
	Comments string
	GradedBy primitive.ObjectID
	Mode     GradingMode
	GradedAt time.Time
}
