package assessment

import (
	"errors"
	"fmt"

	"github.com/gamifylearn/gamification-api/database"
	"github.com/gamifylearn/gamification-api/model"
	"github.com/gamifylearn/gamification-api/services"
	"github.com/gamifylearn/gamification-api/services/storage"
	"github.com/gamifylearn/gamification-api/utils/apperror"
	"github.com/gamifylearn/gamification-api/utils/middleware"
	"github.com/gamifylearn/gamification-api/utils/response"
	"github.com/gamifylearn/gamification-api/utils/validation"
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	assessmentFolder = "assessments"
	submissionFolder = "submissions"
)

// TextExtractor pulls plain text out of an uploaded document
type TextExtractor interface {
	ExtractText(content []byte) (string, error)
}

// AssessmentHandler handles assessments, submissions and grading
type AssessmentHandler struct {
	store     database.Storage
	uploader  storage.Uploader
	notifier  services.Notifier
	grader    *services.Grader
	extractor TextExtractor
}

// NewAssessmentHandler creates a new assessment handler; uploader and notifier may be nil
func NewAssessmentHandler(store database.Storage, uploader storage.Uploader, notifier services.Notifier) *AssessmentHandler {
	return &AssessmentHandler{
		store:     store,
		uploader:  uploader,
		notifier:  notifier,
		grader:    services.NewGrader(),
		extractor: services.NewPDFExtractor(),
	}
}

// CreateAssessment handles POST /api/v1/assessment/create/:courseId
func (h *AssessmentHandler) CreateAssessment(c *fiber.Ctx) error {
	admin, err := middleware.CurrentAdmin(c)
	if err != nil {
		return err
	}

	in := validation.InputFrom(c)
	courseID, err := in.ParamObjectID("courseId", "Invalid course id")
	if err != nil {
		return err
	}

	ctx := c.UserContext()
	course, err := h.store.GetCourse(ctx, courseID)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return apperror.Internal(err)
	}
	if !course.IsOwnedBy(admin.ID) {
		return apperror.Forbidden("You are not authorized to create assessments for this course")
	}

	highest, _ := in.Float("highestAttainableScore")
	assessment := &model.Assessment{
		CourseID:               courseID,
		InstructorID:           admin.ID,
		Title:                  in.String("title"),
		Question:               in.String("question"),
		HighestAttainableScore: highest,
	}

	if in.Has("markingGuide") {
		var guide model.MarkingGuide
		if err := in.Decode("markingGuide", &guide); err != nil {
			return apperror.BadRequest("Marking guide must be an object").Wrap(err)
		}
		assessment.MarkingGuide = &guide
	}

	if fh := in.File("file"); fh != nil {
		uploaded, err := storage.UploadFile(ctx, h.uploader, fh, assessmentFolder)
		if err != nil {
			return apperror.Internal(fmt.Errorf("upload assessment file: %w", err))
		}
		assessment.File = uploaded.SecureURL
	}

	if err := h.store.CreateAssessment(ctx, assessment); err != nil {
		return apperror.Internal(err)
	}

	return response.Success(c, assessment, "Assessment created successfully", fiber.StatusCreated)
}

// GetAssessment handles GET /api/v1/assessment/:assessmentId
func (h *AssessmentHandler) GetAssessment(c *fiber.Ctx) error {
	in := validation.InputFrom(c)
	assessmentID, err := in.ParamObjectID("assessmentId", "Invalid assessment id")
	if err != nil {
		return err
	}

	assessment, err := h.findAssessment(c, assessmentID)
	if err != nil {
		return err
	}

	return response.Success(c, assessment, "Assessment fetched successfully")
}

// GetSubmissionsForAssessment handles GET /api/v1/assessment/submissions/:assessmentId
func (h *AssessmentHandler) GetSubmissionsForAssessment(c *fiber.Ctx) error {
	admin, err := middleware.CurrentAdmin(c)
	if err != nil {
		return err
	}

	in := validation.InputFrom(c)
	assessmentID, err := in.ParamObjectID("assessmentId", "Invalid assessment id")
	if err != nil {
		return err
	}

	assessment, err := h.findAssessment(c, assessmentID)
	if err != nil {
		return err
	}
	if assessment.InstructorID != admin.ID {
		return apperror.Forbidden("You are not authorized to view submissions for this assessment")
	}

	submissions, err := h.store.ListSubmissionsByAssessment(c.UserContext(), assessmentID)
	if err != nil {
		return apperror.Internal(err)
	}

	return response.Success(c, submissions, "Submissions fetched successfully")
}

func (h *AssessmentHandler) findAssessment(c *fiber.Ctx, id primitive.ObjectID) (*model.Assessment, error) {
	assessment, err := h.store.GetAssessment(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, apperror.NotFound("Assessment not found")
		}
		return nil, apperror.Internal(err)
	}
	return assessment, nil
}
