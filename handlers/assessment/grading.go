package assessment

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gamifylearn/gamification-api/database"
	"github.com/gamifylearn/gamification-api/model"
	"github.com/gamifylearn/gamification-api/services"
	"github.com/gamifylearn/gamification-api/utils/apperror"
	"github.com/gamifylearn/gamification-api/utils/middleware"
	"github.com/gamifylearn/gamification-api/utils/response"
	"github.com/gamifylearn/gamification-api/utils/validation"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GradeSubmission handles PUT /api/v1/assessment/grade/:submissionId.
// With useAI and a marking guide the keyword grader sets the score.
func (h *AssessmentHandler) GradeSubmission(c *fiber.Ctx) error {
	admin, err := middleware.CurrentAdmin(c)
	if err != nil {
		return err
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

	assessment, err := h.findAssessment(c, submission.AssessmentID)
	if err != nil {
		return err
	}
	if assessment.InstructorID != admin.ID {
		return apperror.Forbidden("You are not authorized to grade this submission")
	}
	if submission.Graded {
		return apperror.Conflict("Submission has already been graded")
	}

	highest := assessment.HighestAttainableScore
	score, _ := in.Float("score")
	if score < 0 || score > highest {
		return apperror.BadRequest(fmt.Sprintf("Score must be between 0 and %s", strconv.FormatFloat(highest, 'f', -1, 64)))
	}

	grade := model.Grade{
		Score:    score,
		Comments: in.String("comments"),
		GradedBy: admin.ID,
		Mode:     model.GradingModeManual,
		GradedAt: time.Now(),
	}

	if in.Bool("useAI") && assessment.MarkingGuide != nil {
		result := h.grader.Grade(*assessment.MarkingGuide, highest, submission.AnswerText, submission.ExtractedText)
		grade.Score = result.Score
		grade.Mode = model.GradingModeAutomatic
		if grade.Comments == "" {
			grade.Comments = result.Feedback
		}
	}

	ctx := c.UserContext()
	graded, err := h.store.GradeSubmission(ctx, submissionID, grade)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrAlreadyGraded):
			return apperror.Conflict("Submission has already been graded")
		case errors.Is(err, database.ErrNotFound):
			return apperror.NotFound("Submission not found")
		}
		return apperror.Internal(err)
	}

	if h.notifier != nil {
		_, err := h.notifier.CreateNotification(ctx, services.NotificationInput{
			UserID:   graded.LearnerID,
			CourseID: assessment.CourseID,
			Type:     model.NotificationTypeGrade,
			Title:    "Submission graded",
			Message:  fmt.Sprintf("Your submission for %s has been graded", assessment.Title),
			Metadata: map[string]any{
				"assessment_id": assessment.ID.Hex(),
				"submission_id": graded.ID.Hex(),
				"score":         grade.Score,
			},
		})
		if err != nil {
			log.Warnf("grade notification for submission %s failed: %v", graded.ID.Hex(), err)
		}
	}

	return response.Success(c, graded, "Submission graded successfully")
}

func (h *AssessmentHandler) findSubmission(c *fiber.Ctx, id primitive.ObjectID) (*model.Submission, error) {
	submission, err := h.store.GetSubmission(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, apperror.NotFound("Submission not found")
		}
		return nil, apperror.Internal(err)
	}
	return submission, nil
}
