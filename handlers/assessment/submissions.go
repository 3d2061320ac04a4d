package assessment

import (
	"errors"
	"fmt"

	"github.com/gamifylearn/gamification-api/database"
	"github.com/gamifylearn/gamification-api/model"
	"github.com/gamifylearn/gamification-api/services/storage"
	"github.com/gamifylearn/gamification-api/utils/apperror"
	"github.com/gamifylearn/gamification-api/utils/auth"
	"github.com/gamifylearn/gamification-api/utils/middleware"
	"github.com/gamifylearn/gamification-api/utils/response"
	"github.com/gamifylearn/gamification-api/utils/validation"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// SubmitAssessment handles POST /api/v1/assessment/submit/:assessmentId
func (h *AssessmentHandler) SubmitAssessment(c *fiber.Ctx) error {
	learner, err := middleware.CurrentLearner(c)
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

	ctx := c.UserContext()
	course, err := h.store.GetCourse(ctx, assessment.CourseID)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return apperror.Internal(err)
	}
	if course == nil || !course.HasLearner(learner.ID) {
		return apperror.Forbidden("You are not enrolled in the course for this assessment")
	}

	if _, err := h.store.GetSubmissionByLearner(ctx, assessmentID, learner.ID); err == nil {
		return apperror.Conflict("You have already submitted this assessment")
	} else if !errors.Is(err, database.ErrNotFound) {
		return apperror.Internal(err)
	}

	submission := &model.Submission{
		AssessmentID: assessmentID,
		LearnerID:    learner.ID,
		AnswerText:   in.String("answerText"),
	}

	if fh := in.File("file"); fh != nil {
		data, err := storage.ReadFile(fh)
		if err != nil {
			return apperror.BadRequest("Could not read the uploaded file").Wrap(err)
		}
		if h.uploader == nil {
			return apperror.Internal(storage.ErrUploaderUnavailable)
		}

		mimeType := storage.ContentType(fh)
		uploaded, err := h.uploader.Upload(ctx, data, mimeType, submissionFolder)
		if err != nil {
			return apperror.Internal(fmt.Errorf("upload submission file: %w", err))
		}
		submission.File = uploaded.SecureURL

		if mimeType == "application/pdf" && h.extractor != nil {
			text, err := h.extractor.ExtractText(data)
			if err != nil {
				log.Warnf("submission by %s: pdf text extraction failed: %v", learner.ID.Hex(), err)
			}
			submission.ExtractedText = text
		}
	}

	if err := h.store.CreateSubmission(ctx, submission); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return apperror.Conflict("You have already submitted this assessment")
		}
		return apperror.Internal(err)
	}

	return response.Success(c, submission, "Assessment submitted successfully", fiber.StatusCreated)
}

// GetSubmission handles GET /api/v1/assessment/submission/:submissionId.
// Only the submitting learner and the owning instructor may read it.
func (h *AssessmentHandler) GetSubmission(c *fiber.Ctx) error {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		return apperror.Unauthorized("")
	}

	in := validation.InputFrom(c)
	submissionID, err := in.ParamObjectID("submissionId", "Invalid submission id")
	if err != nil {
		return err
	}

	submission, err := h.findSubmission(c, submissionID)
	if err != nil {
		return err
	}

	switch who := caller.(type) {
	case *auth.Learner:
		if submission.LearnerID != who.ID {
			return apperror.Forbidden("You are not authorized to view this submission")
		}
	case *auth.Admin:
		assessment, err := h.findAssessment(c, submission.AssessmentID)
		if err != nil {
			return err
		}
		if assessment.InstructorID != who.ID {
			return apperror.Forbidden("You are not authorized to view this submission")
		}
	case *auth.SuperAdmin:
	}

	return response.Success(c, submission, "Submission fetched successfully")
}
