package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Course is an offering owned by a single instructor
type Course struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Title        string               `bson:"title" json:"title"`
	Objective    string               `bson:"objective" json:"objective"`
	Price        float64              `bson:"price" json:"price"`
	Duration     string               `bson:"duration" json:"duration"`
	LessonFormat string               `bson:"lessonFormat" json:"lessonFormat"`
	InstructorID primitive.ObjectID   `bson:"instructorId" json:"instructorId"` // never updated after creation
	LearnerIDs   []primitive.ObjectID `bson:"learnerIds" json:"learnerIds"`
	CreatedAt    time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// IsOwnedBy reports whether the given instructor created the course
func (c *Course) IsOwnedBy(instructorID primitive.ObjectID) bool {
	return c != nil && c.InstructorID == instructorID
}

// HasLearner reports whether the learner is enrolled
func (c *Course) HasLearner(learnerID primitive.ObjectID) bool {
	for _, id := range c.LearnerIDs {
		if id == learnerID {
			return true
		}
	}
	return false
}

// CourseContent is a curriculum unit under a course
type CourseContent struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	CourseID   primitive.ObjectID `bson:"courseId" json:"courseId"`
	Title      string             `bson:"title" json:"title"`
	Objectives string             `bson:"objectives" json:"objectives"`
	Link       string             `bson:"link" json:"link"`
	Files      []string           `bson:"files" json:"files"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Announcement is broadcast to the learners of one course.
// CourseIDs holds a single course id; the plural name matches the stored documents.
type Announcement struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Title     string             `bson:"title" json:"title"`
	Details   string             `bson:"details" json:"details"`
	CourseIDs primitive.ObjectID `bson:"courseIds" json:"courseIds"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
