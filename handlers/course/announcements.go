package course

import (
	"context"
	"fmt"

	"github.com/gamifylearn/gamification-api/model"
	"github.com/gamifylearn/gamification-api/services"
	"github.com/gamifylearn/gamification-api/utils/apperror"
	"github.com/gamifylearn/gamification-api/utils/fanout"
	"github.com/gamifylearn/gamification-api/utils/middleware"
	"github.com/gamifylearn/gamification-api/utils/response"
	"github.com/gamifylearn/gamification-api/utils/validation"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type recipient struct {
	learnerID primitive.ObjectID
	courseID  primitive.ObjectID
}

// CreateAnnouncement handles POST /api/v1/course/:courseId/announcement.
// One announcement is stored per listed course the caller owns.
func (h *CourseHandler) CreateAnnouncement(c *fiber.Ctx) error {
	admin, err := middleware.CurrentAdmin(c)
	if err != nil {
		return err
	}

	in := validation.InputFrom(c)
	title := in.String("title")
	details := in.String("details")
	ctx := c.UserContext()

	courses, err := h.store.FindOwnedCourses(ctx, in.ObjectIDs("courseList"), admin.ID)
	if err != nil {
		return apperror.Internal(err)
	}
	if len(courses) == 0 {
		return apperror.BadRequest("No valid courses found")
	}

	announcements := make([]*model.Announcement, 0, len(courses))
	for _, course := range courses {
		announcements = append(announcements, &model.Announcement{
			Title:     title,
			Details:   details,
			CourseIDs: course.ID,
		})
	}
	if err := h.store.CreateAnnouncements(ctx, announcements); err != nil {
		return apperror.Internal(err)
	}

	var warnings []string
	if in.Bool("sendEmail") {
		warnings = h.notifyLearners(ctx, courses, title)
	}

	return response.SuccessWithWarnings(c, announcements, "Announcements created and notifications sent", warnings, fiber.StatusCreated)
}

// notifyLearners tells every learner of every course about the announcement.
// Failures are returned as warnings and never abort the request.
func (h *CourseHandler) notifyLearners(ctx context.Context, courses []model.Course, title string) []string {
	var recipients []recipient
	for _, course := range courses {
		for _, learnerID := range course.LearnerIDs {
			recipients = append(recipients, recipient{learnerID: learnerID, courseID: course.ID})
		}
	}
	if len(recipients) == 0 {
		return nil
	}
	if h.notifier == nil {
		return []string{"Notifications are not configured; learners were not notified"}
	}

	message := fmt.Sprintf("New announcement: %s", title)
	results := fanout.Run(ctx, h.fanoutLimit, recipients, func(ctx context.Context, r recipient) (*model.UserNotification, error) {
		return h.notifier.CreateNotification(ctx, services.NotificationInput{
			UserID:   r.learnerID,
			CourseID: r.courseID,
			Type:     model.NotificationTypeAnnouncement,
			Title:    title,
			Message:  message,
		})
	})

	var warnings []string
	for i, r := range results {
		if r.Err == nil {
			continue
		}
		log.Warnf("announcement notification to %s failed: %v", recipients[i].learnerID.Hex(), r.Err)
		warnings = append(warnings, fmt.Sprintf("Failed to notify learner %s", recipients[i].learnerID.Hex()))
	}
	return warnings
}

// GetAllAnnouncementsByCourse handles GET /api/v1/course/:courseId/announcements
func (h *CourseHandler) GetAllAnnouncementsByCourse(c *fiber.Ctx) error {
	course, err := h.loadCourse(c)
	if err != nil {
		return err
	}

	announcements, err := h.store.ListAnnouncementsByCourse(c.UserContext(), course.ID)
	if err != nil {
		return apperror.Internal(err)
	}
	if announcements == nil {
		announcements = []model.Announcement{}
	}

	return response.Success(c, announcements, "Course announcements fetched successfully")
}
