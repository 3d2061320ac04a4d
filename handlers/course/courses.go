package course

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"

	"github.com/gamifylearn/gamification-api/database"
	"github.com/gamifylearn/gamification-api/model"
	"github.com/gamifylearn/gamification-api/services"
	"github.com/gamifylearn/gamification-api/services/storage"
	"github.com/gamifylearn/gamification-api/utils/apperror"
	"github.com/gamifylearn/gamification-api/utils/fanout"
	"github.com/gamifylearn/gamification-api/utils/middleware"
	"github.com/gamifylearn/gamification-api/utils/response"
	"github.com/gamifylearn/gamification-api/utils/validation"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

const contentFolder = "course-content"

// CourseHandler handles course, curriculum and announcement requests
type CourseHandler struct {
	store       database.CourseStore
	uploader    storage.Uploader
	notifier    services.Notifier
	fanoutLimit int
}

// NewCourseHandler creates a new course handler; uploader and notifier may be nil
func NewCourseHandler(store database.CourseStore, uploader storage.Uploader, notifier services.Notifier, fanoutLimit int) *CourseHandler {
	return &CourseHandler{
		store:       store,
		uploader:    uploader,
		notifier:    notifier,
		fanoutLimit: fanoutLimit,
	}
}

// CreateCourse handles POST /api/v1/course/create
func (h *CourseHandler) CreateCourse(c *fiber.Ctx) error {
	admin, err := middleware.CurrentAdmin(c)
	if err != nil {
		return err
	}

	in := validation.InputFrom(c)
	price, _ := in.Float("price")

	course := &model.Course{
		Title:        in.String("title"),
		Objective:    in.String("objective"),
		Price:        price,
		Duration:     in.String("duration"),
		LessonFormat: in.String("lessonFormat"),
		InstructorID: admin.ID,
	}

	if err := h.store.CreateCourse(c.UserContext(), course); err != nil {
		return apperror.Internal(err)
	}

	return response.Success(c, course, "Course created successfully", fiber.StatusCreated)
}

// GetCourse handles GET /api/v1/course/:courseId
func (h *CourseHandler) GetCourse(c *fiber.Ctx) error {
	in := validation.InputFrom(c)
	courseID, err := in.ParamObjectID("courseId", "Invalid course id")
	if err != nil {
		return err
	}

	course, err := h.store.GetCourse(c.UserContext(), courseID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return apperror.NotFound("Course not found")
		}
		return apperror.Internal(err)
	}

	return response.Success(c, course, "Course fetched successfully")
}

// ListInstructorCourses handles GET /api/v1/course/mine
func (h *CourseHandler) ListInstructorCourses(c *fiber.Ctx) error {
	admin, err := middleware.CurrentAdmin(c)
	if err != nil {
		return err
	}

	courses, err := h.store.ListCoursesByInstructor(c.UserContext(), admin.ID)
	if err != nil {
		return apperror.Internal(err)
	}

	return response.Success(c, courses, "Courses fetched successfully")
}

// CreateCourseContent handles POST /api/v1/course/:courseId/content.
// Files are uploaded concurrently; the ones that fail are reported as warnings.
func (h *CourseHandler) CreateCourseContent(c *fiber.Ctx) error {
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
		return apperror.Forbidden("You are not authorized to add contents to this course")
	}

	files := in.FileList("files")
	results := fanout.Run(ctx, h.fanoutLimit, files, func(ctx context.Context, fh *multipart.FileHeader) (storage.UploadResult, error) {
		return storage.UploadFile(ctx, h.uploader, fh, contentFolder)
	})

	urls := []string{}
	warnings := []string{}
	for i, r := range results {
		if r.Err != nil {
			log.Warnf("course %s: upload of %s failed: %v", courseID.Hex(), files[i].Filename, r.Err)
			warnings = append(warnings, fmt.Sprintf("Failed to upload %s", files[i].Filename))
			continue
		}
		if r.Value.SecureURL != "" {
			urls = append(urls, r.Value.SecureURL)
		}
	}

	content := &model.CourseContent{
		CourseID:   courseID,
		Title:      in.String("title"),
		Objectives: in.String("objectives"),
		Link:       in.String("link"),
		Files:      urls,
	}
	if err := h.store.CreateCourseContent(ctx, content); err != nil {
		return apperror.Internal(err)
	}

	curriculum, err := h.store.ListCourseContent(ctx, courseID)
	if err != nil {
		return apperror.Internal(err)
	}

	return response.SuccessWithWarnings(c, curriculum, "Course curriculum updated successfully", warnings, fiber.StatusOK)
}

// GetCourseCurriculum handles GET /api/v1/course/:courseId/curriculum
func (h *CourseHandler) GetCourseCurriculum(c *fiber.Ctx) error {
	course, err := h.loadCourse(c)
	if err != nil {
		return err
	}

	curriculum, err := h.store.ListCourseContent(c.UserContext(), course.ID)
	if err != nil {
		return apperror.Internal(err)
	}
	if curriculum == nil {
		curriculum = []model.CourseContent{}
	}

	return response.Success(c, curriculum, "Course curriculum fetched successfully")
}

// loadCourse fetches the :courseId course; absence is a 400 on these read endpoints
func (h *CourseHandler) loadCourse(c *fiber.Ctx) (*model.Course, error) {
	in := validation.InputFrom(c)
	courseID, err := in.ParamObjectID("courseId", "Invalid course id")
	if err != nil {
		return nil, err
	}

	course, err := h.store.GetCourse(c.UserContext(), courseID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, apperror.BadRequest("Course not found")
		}
		return nil, apperror.Internal(err)
	}
	return course, nil
}
