package database

import (
	"context"
	"errors"

	"github.com/gamifylearn/gamification-api/model"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrDuplicate     = errors.New("duplicate record")
	ErrAlreadyGraded = errors.New("submission already graded")
)

// Storage defines the interface that all document store implementations must satisfy
type Storage interface {
	// Lifecycle methods
	Init(ctx context.Context) error
	Close(ctx context.Context) error
	HealthCheck(ctx context.Context) error

	CourseStore
	AssessmentStore
	UserStore
	GroupStore
}

type CourseStore interface {
	CreateCourse(ctx context.Context, course *model.Course) error
	GetCourse(ctx context.Context, id primitive.ObjectID) (*model.Course, error)
	ListCoursesByInstructor(ctx context.Context, instructorID primitive.ObjectID) ([]model.Course, error)
	// FindOwnedCourses returns the courses among ids created by instructorID
	FindOwnedCourses(ctx context.Context, ids []primitive.ObjectID, instructorID primitive.ObjectID) ([]model.Course, error)
	AddLearnerToCourse(ctx context.Context, courseID, learnerID primitive.ObjectID) error

	CreateCourseContent(ctx context.Context, content *model.CourseContent) error
	ListCourseContent(ctx context.Context, courseID primitive.ObjectID) ([]model.CourseContent, error)

	CreateAnnouncements(ctx context.Context, announcements []*model.Announcement) error
	ListAnnouncementsByCourse(ctx context.Context, courseID primitive.ObjectID) ([]model.Announcement, error)
}

type AssessmentStore interface {
	CreateAssessment(ctx context.Context, assessment *model.Assessment) error
	GetAssessment(ctx context.Context, id primitive.ObjectID) (*model.Assessment, error)

	// CreateSubmission returns ErrDuplicate when the learner already answered the assessment
	CreateSubmission(ctx context.Context, submission *model.Submission) error
	GetSubmission(ctx context.Context, id primitive.ObjectID) (*model.Submission, error)
	// GetSubmissionByLearner returns ErrNotFound until the learner has answered the assessment
	GetSubmissionByLearner(ctx context.Context, assessmentID, learnerID primitive.ObjectID) (*model.Submission, error)
	ListSubmissionsByAssessment(ctx context.Context, assessmentID primitive.ObjectID) ([]model.Submission, error)
	// GradeSubmission applies grade only while the submission is ungraded.
	// It returns ErrAlreadyGraded when another grade won.
	GradeSubmission(ctx context.Context, id primitive.ObjectID, grade model.Grade) (*model.Submission, error)
}

type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id primitive.ObjectID) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context, limit, offset int64) ([]model.User, int64, error)
	UpdateUserRole(ctx context.Context, id primitive.ObjectID, role string) (*model.User, error)

	CreateSuperAdmin(ctx context.Context, admin *model.SuperAdmin) error
	GetSuperAdmin(ctx context.Context, id primitive.ObjectID) (*model.SuperAdmin, error)
	GetSuperAdminByEmail(ctx context.Context, email string) (*model.SuperAdmin, error)
}

type GroupStore interface {
	CreateGroup(ctx context.Context, group *model.Group) error
	GetGroup(ctx context.Context, id primitive.ObjectID) (*model.Group, error)
	UpdateGroup(ctx context.Context, id primitive.ObjectID, update model.GroupUpdate) (*model.Group, error)
}
