package course

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/gamifylearn/gamification-api/database"
	"github.com/gamifylearn/gamification-api/model"
	"github.com/gamifylearn/gamification-api/services"
	"github.com/gamifylearn/gamification-api/services/storage"
	"github.com/gamifylearn/gamification-api/utils/auth"
	"github.com/gamifylearn/gamification-api/utils/testutil"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeUploader struct {
	mu      sync.Mutex
	folders []string
}

func (u *fakeUploader) Upload(_ context.Context, data []byte, mimeType, folder string) (storage.UploadResult, error) {
	if bytes.Equal(data, []byte("fail")) {
		return storage.UploadResult{}, errors.New("bucket unavailable")
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.folders = append(u.folders, folder)
	return storage.UploadResult{SecureURL: "https://cdn.example.com/" + folder + "/" + mimeType, Key: folder}, nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	inputs []services.NotificationInput
	err    error
}

func (n *fakeNotifier) CreateNotification(_ context.Context, in services.NotificationInput) (*model.UserNotification, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.inputs = append(n.inputs, in)
	if n.err != nil {
		return nil, n.err
	}
	return &model.UserNotification{UserID: in.UserID.Hex(), Message: in.Message}, nil
}

type fixture struct {
	store    *database.MemoryStore
	uploader *fakeUploader
	notifier *fakeNotifier
	handler  *CourseHandler
	admin    *auth.Admin
}

func setup(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:    database.NewMemoryStore(),
		uploader: &fakeUploader{},
		notifier: &fakeNotifier{},
		admin:    &auth.Admin{ID: primitive.NewObjectID(), Email: "instructor@example.com"},
	}
	f.handler = NewCourseHandler(f.store, f.uploader, f.notifier, 2)
	return f
}

// app mounts the course routes for caller
func (f *fixture) app(caller auth.Caller) *fiber.App {
	app := testutil.NewApp()
	g := app.Group("/course", testutil.As(caller))
	g.Post("/create", CreateCourseValidator, f.handler.CreateCourse)
	g.Post("/:courseId/content", CreateCourseContentValidator, f.handler.CreateCourseContent)
	g.Get("/:courseId/curriculum", CourseIDValidator, f.handler.GetCourseCurriculum)
	g.Post("/:courseId/announcement", CreateAnnouncementValidator, f.handler.CreateAnnouncement)
	g.Get("/:courseId/announcements", CourseIDValidator, f.handler.GetAllAnnouncementsByCourse)
	g.Get("/:courseId", CourseIDValidator, f.handler.GetCourse)
	return app
}

func (f *fixture) course(t *testing.T, owner primitive.ObjectID, learners ...primitive.ObjectID) *model.Course {
	t.Helper()

	c := &model.Course{Title: "Go", InstructorID: owner, LearnerIDs: learners}
	require.NoError(t, f.store.CreateCourse(context.Background(), c))
	return c
}

func TestCreateCourse(t *testing.T) {
	f := setup(t)
	app := f.app(f.admin)

	tests := []struct {
		name       string
		body       map[string]any
		wantCode   int
		wantErrors map[string]string
	}{
		{
			name:     "missing title and price",
			body:     map[string]any{"objective": "Learn"},
			wantCode: fiber.StatusUnprocessableEntity,
			wantErrors: map[string]string{
				"title": "Please provide the title of the course",
				"price": "Please provide the price of the course as a number",
			},
		},
		{
			name:       "price not numeric",
			body:       map[string]any{"title": "Go", "price": "free"},
			wantCode:   fiber.StatusUnprocessableEntity,
			wantErrors: map[string]string{"price": "Please provide the price of the course as a number"},
		},
		{
			name:     "created",
			body:     map[string]any{"title": "Go", "price": "19.99", "duration": "4 weeks"},
			wantCode: fiber.StatusCreated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := testutil.Do(t, app, testutil.JSON(t, http.MethodPost, "/course/create", tt.body))
			assert.Equal(t, tt.wantCode, code)
			if tt.wantErrors != nil {
				assert.Equal(t, tt.wantErrors, testutil.Errors(body))
				return
			}
			data := body["data"].(map[string]any)
			assert.Equal(t, f.admin.ID.Hex(), data["instructorId"])
			assert.Equal(t, 19.99, data["price"])
			assert.Equal(t, []any{}, data["learnerIds"])
		})
	}
}

func TestGetCourse(t *testing.T) {
	f := setup(t)
	app := f.app(f.admin)
	c := f.course(t, f.admin.ID)

	code, body := testutil.Do(t, app, testutil.JSON(t, http.MethodGet, "/course/"+c.ID.Hex(), nil))
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, c.ID.Hex(), body["data"].(map[string]any)["_id"])

	code, body = testutil.Do(t, app, testutil.JSON(t, http.MethodGet, "/course/"+primitive.NewObjectID().Hex(), nil))
	assert.Equal(t, fiber.StatusNotFound, code)
	assert.Equal(t, "Course not found", testutil.ErrorMessage(body))

	code, body = testutil.Do(t, app, testutil.JSON(t, http.MethodGet, "/course/nope", nil))
	assert.Equal(t, fiber.StatusUnprocessableEntity, code)
	assert.Equal(t, "Invalid course id", testutil.Errors(body)["courseId"])
}

func TestCreateCourseContentRequiresOwnership(t *testing.T) {
	f := setup(t)
	foreign := f.course(t, primitive.NewObjectID())

	for _, courseID := range []string{foreign.ID.Hex(), primitive.NewObjectID().Hex()} {
		code, body := testutil.Do(t, f.app(f.admin), testutil.JSON(t, http.MethodPost, "/course/"+courseID+"/content", map[string]any{
			"title": "Week 1",
		}))
		assert.Equal(t, fiber.StatusForbidden, code)
		assert.Equal(t, "You are not authorized to add contents to this course", testutil.ErrorMessage(body))
	}

	contents, err := f.store.ListCourseContent(context.Background(), foreign.ID)
	require.NoError(t, err)
	assert.Empty(t, contents)
}

func TestCreateCourseContentLearnerForbidden(t *testing.T) {
	f := setup(t)
	c := f.course(t, f.admin.ID)
	learner := &auth.Learner{ID: primitive.NewObjectID()}

	code, _ := testutil.Do(t, f.app(learner), testutil.JSON(t, http.MethodPost, "/course/"+c.ID.Hex()+"/content", map[string]any{
		"title": "Week 1",
	}))
	assert.Equal(t, fiber.StatusForbidden, code)
}

func TestCreateCourseContentUploadsFiles(t *testing.T) {
	f := setup(t)
	c := f.course(t, f.admin.ID)

	req := testutil.Multipart(t, http.MethodPost, "/course/"+c.ID.Hex()+"/content",
		map[string]string{"title": "Week 1", "objectives": "Basics", "link": "https://example.com"},
		testutil.File{Field: "files", Name: "slides.pdf", ContentType: "application/pdf", Content: []byte("%PDF")},
		testutil.File{Field: "files", Name: "broken.png", ContentType: "image/png", Content: []byte("fail")},
	)
	code, body := testutil.Do(t, f.app(f.admin), req)

	require.Equal(t, fiber.StatusOK, code, body)
	assert.Equal(t, "Course curriculum updated successfully", body["message"])
	assert.Equal(t, []any{"Failed to upload broken.png"}, body["warnings"])

	curriculum := body["data"].([]any)
	require.Len(t, curriculum, 1)
	content := curriculum[0].(map[string]any)
	assert.Equal(t, "Week 1", content["title"])
	assert.Equal(t, []any{"https://cdn.example.com/course-content/application/pdf"}, content["files"])
	assert.Equal(t, []string{"course-content"}, f.uploader.folders)
}

func TestCreateCourseContentWithoutStorage(t *testing.T) {
	f := setup(t)
	f.handler = NewCourseHandler(f.store, nil, nil, 2)
	c := f.course(t, f.admin.ID)

	req := testutil.Multipart(t, http.MethodPost, "/course/"+c.ID.Hex()+"/content",
		map[string]string{"title": "Week 1"},
		testutil.File{Field: "files", Name: "slides.pdf", ContentType: "application/pdf", Content: []byte("%PDF")},
	)
	code, body := testutil.Do(t, f.app(f.admin), req)

	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, []any{"Failed to upload slides.pdf"}, body["warnings"])
	content := body["data"].([]any)[0].(map[string]any)
	assert.Equal(t, []any{}, content["files"])
}

func TestGetCourseCurriculum(t *testing.T) {
	f := setup(t)
	app := f.app(&auth.Learner{ID: primitive.NewObjectID()})
	c := f.course(t, f.admin.ID)

	code, body := testutil.Do(t, app, testutil.JSON(t, http.MethodGet, "/course/"+primitive.NewObjectID().Hex()+"/curriculum", nil))
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Equal(t, "Course not found", testutil.ErrorMessage(body))

	code, body = testutil.Do(t, app, testutil.JSON(t, http.MethodGet, "/course/"+c.ID.Hex()+"/curriculum", nil))
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, []any{}, body["data"])

	require.NoError(t, f.store.CreateCourseContent(context.Background(), &model.CourseContent{CourseID: c.ID, Title: "Week 1"}))
	code, body = testutil.Do(t, app, testutil.JSON(t, http.MethodGet, "/course/"+c.ID.Hex()+"/curriculum", nil))
	assert.Equal(t, fiber.StatusOK, code)
	assert.Len(t, body["data"], 1)
}

func TestCreateAnnouncementForeignCourses(t *testing.T) {
	f := setup(t)
	own := f.course(t, f.admin.ID)
	foreign := f.course(t, primitive.NewObjectID())

	tests := []struct {
		name string
		body map[string]any
	}{
		{name: "only foreign courses", body: map[string]any{"title": "Exam", "details": "Friday", "courseList": []string{foreign.ID.Hex()}}},
		{name: "unknown course", body: map[string]any{"title": "Exam", "details": "Friday", "courseList": []string{primitive.NewObjectID().Hex()}}},
		{name: "no course list", body: map[string]any{"title": "Exam", "details": "Friday"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := testutil.Do(t, f.app(f.admin), testutil.JSON(t, http.MethodPost, "/course/"+own.ID.Hex()+"/announcement", tt.body))
			assert.Equal(t, fiber.StatusBadRequest, code)
			assert.Equal(t, "No valid courses found", testutil.ErrorMessage(body))
		})
	}

	assert.Empty(t, f.store.Announcements())
}

func TestCreateAnnouncementValidation(t *testing.T) {
	f := setup(t)
	own := f.course(t, f.admin.ID)

	code, body := testutil.Do(t, f.app(f.admin), testutil.JSON(t, http.MethodPost, "/course/"+own.ID.Hex()+"/announcement", map[string]any{
		"courseList": []string{"bad-id"},
		"sendEmail":  "maybe",
	}))

	assert.Equal(t, fiber.StatusUnprocessableEntity, code)
	assert.Equal(t, map[string]string{
		"title":      "Please provide the title of the announcement",
		"details":    "Please provide the details of the announcement",
		"courseList": "Course list must contain valid course ids",
		"sendEmail":  "sendEmail must be a boolean",
	}, testutil.Errors(body))
}

func TestCreateAnnouncementNotifiesLearners(t *testing.T) {
	f := setup(t)
	learnerA, learnerB := primitive.NewObjectID(), primitive.NewObjectID()
	first := f.course(t, f.admin.ID, learnerA)
	second := f.course(t, f.admin.ID, learnerB)
	foreign := f.course(t, primitive.NewObjectID(), primitive.NewObjectID())

	code, body := testutil.Do(t, f.app(f.admin), testutil.JSON(t, http.MethodPost, "/course/"+first.ID.Hex()+"/announcement", map[string]any{
		"title":      "Exam",
		"details":    "Friday at noon",
		"courseList": []string{first.ID.Hex(), second.ID.Hex(), foreign.ID.Hex()},
		"sendEmail":  true,
	}))

	require.Equal(t, fiber.StatusCreated, code, body)
	assert.Equal(t, "Announcements created and notifications sent", body["message"])
	assert.Len(t, body["data"], 2)
	assert.NotContains(t, body, "warnings")

	stored := f.store.Announcements()
	require.Len(t, stored, 2)
	assert.ElementsMatch(t, []primitive.ObjectID{first.ID, second.ID}, []primitive.ObjectID{stored[0].CourseIDs, stored[1].CourseIDs})

	require.Len(t, f.notifier.inputs, 2)
	notified := []primitive.ObjectID{}
	for _, in := range f.notifier.inputs {
		notified = append(notified, in.UserID)
		assert.Equal(t, "New announcement: Exam", in.Message)
		assert.Equal(t, model.NotificationTypeAnnouncement, in.Type)
	}
	assert.ElementsMatch(t, []primitive.ObjectID{learnerA, learnerB}, notified)
}

func TestCreateAnnouncementNotificationFailuresAreWarnings(t *testing.T) {
	f := setup(t)
	f.notifier.err = errors.New("ledger down")
	learner := primitive.NewObjectID()
	c := f.course(t, f.admin.ID, learner)

	code, body := testutil.Do(t, f.app(f.admin), testutil.JSON(t, http.MethodPost, "/course/"+c.ID.Hex()+"/announcement", map[string]any{
		"title":      "Exam",
		"details":    "Friday",
		"courseList": []string{c.ID.Hex()},
		"sendEmail":  "true",
	}))

	require.Equal(t, fiber.StatusCreated, code)
	assert.Equal(t, []any{"Failed to notify learner " + learner.Hex()}, body["warnings"])
	assert.Len(t, f.store.Announcements(), 1)
}

func TestCreateAnnouncementWithoutEmail(t *testing.T) {
	f := setup(t)
	c := f.course(t, f.admin.ID, primitive.NewObjectID())

	code, _ := testutil.Do(t, f.app(f.admin), testutil.JSON(t, http.MethodPost, "/course/"+c.ID.Hex()+"/announcement", map[string]any{
		"title":      "Exam",
		"details":    "Friday",
		"courseList": []string{c.ID.Hex()},
	}))

	assert.Equal(t, fiber.StatusCreated, code)
	assert.Empty(t, f.notifier.inputs)
}

func TestGetAllAnnouncementsByCourse(t *testing.T) {
	f := setup(t)
	app := f.app(f.admin)
	c := f.course(t, f.admin.ID)
	require.NoError(t, f.store.CreateAnnouncements(context.Background(), []*model.Announcement{{Title: "Hi", CourseIDs: c.ID}}))

	code, body := testutil.Do(t, app, testutil.JSON(t, http.MethodGet, "/course/"+c.ID.Hex()+"/announcements", nil))
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, []any{}, body["data"])

	code, body = testutil.Do(t, app, testutil.JSON(t, http.MethodGet, "/course/"+primitive.NewObjectID().Hex()+"/announcements", nil))
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Equal(t, "Course not found", testutil.ErrorMessage(body))
}
