package assessment

import (
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
	folders []string
}

func (u *fakeUploader) Upload(_ context.Context, _ []byte, _, folder string) (storage.UploadResult, error) {
	u.folders = append(u.folders, folder)
	return storage.UploadResult{SecureURL: "https://cdn.example.com/" + folder + "/file", Key: folder}, nil
}

type fakeExtractor struct {
	text string
	err  error
}

func (e fakeExtractor) ExtractText([]byte) (string, error) {
	return e.text, e.err
}

type fakeNotifier struct {
	mu     sync.Mutex
	inputs []services.NotificationInput
}

func (n *fakeNotifier) CreateNotification(_ context.Context, in services.NotificationInput) (*model.UserNotification, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.inputs = append(n.inputs, in)
	return &model.UserNotification{}, nil
}

type fixture struct {
	store    *database.MemoryStore
	uploader *fakeUploader
	notifier *fakeNotifier
	handler  *AssessmentHandler
	admin    *auth.Admin
	learner  *auth.Learner
	course   *model.Course
}

func setup(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:    database.NewMemoryStore(),
		uploader: &fakeUploader{},
		notifier: &fakeNotifier{},
		admin:    &auth.Admin{ID: primitive.NewObjectID()},
		learner:  &auth.Learner{ID: primitive.NewObjectID()},
	}
	f.handler = NewAssessmentHandler(f.store, f.uploader, f.notifier)
	f.handler.extractor = fakeExtractor{text: "extracted pdf text"}

	f.course = &model.Course{Title: "Go", InstructorID: f.admin.ID, LearnerIDs: []primitive.ObjectID{f.learner.ID}}
	require.NoError(t, f.store.CreateCourse(context.Background(), f.course))
	return f
}

func (f *fixture) app(caller auth.Caller) *fiber.App {
	app := testutil.NewApp()
	g := app.Group("/assessment", testutil.As(caller))
	g.Post("/create/:courseId", CreateAssessmentValidator, f.handler.CreateAssessment)
	g.Put("/grade/:submissionId", GradeSubmissionValidator, f.handler.GradeSubmission)
	g.Get("/submissions/:assessmentId", ViewLearnersValidator, f.handler.GetSubmissionsForAssessment)
	g.Post("/submit/:assessmentId", SubmissionValidator, f.handler.SubmitAssessment)
	g.Get("/submission/:submissionId", SubmissionIDValidator, f.handler.GetSubmission)
	g.Get("/:assessmentId", ViewLearnersValidator, f.handler.GetAssessment)
	return app
}

func (f *fixture) assessment(t *testing.T, guide *model.MarkingGuide) *model.Assessment {
	t.Helper()

	a := &model.Assessment{
		CourseID:               f.course.ID,
		InstructorID:           f.admin.ID,
		Title:                  "Quiz 1",
		Question:               "What is a goroutine?",
		HighestAttainableScore: 10,
		MarkingGuide:           guide,
	}
	require.NoError(t, f.store.CreateAssessment(context.Background(), a))
	return a
}

func (f *fixture) submission(t *testing.T, assessmentID primitive.ObjectID, answer string) *model.Submission {
	t.Helper()

	s := &model.Submission{AssessmentID: assessmentID, LearnerID: f.learner.ID, AnswerText: answer}
	require.NoError(t, f.store.CreateSubmission(context.Background(), s))
	return s
}

func validAssessment() map[string]any {
	return map[string]any{
		"title":                  "Quiz 1",
		"question":               "What is a goroutine?",
		"highestAttainableScore": 10,
	}
}

func TestCreateAssessmentRejectsFileType(t *testing.T) {
	f := setup(t)

	req := testutil.Multipart(t, http.MethodPost, "/assessment/create/"+f.course.ID.Hex(),
		map[string]string{"title": "Quiz 1", "question": "Why?", "highestAttainableScore": "10"},
		testutil.File{Field: "file", Name: "run.sh", ContentType: "application/x-sh", Content: []byte("#!/bin/sh")},
	)
	code, body := testutil.Do(t, f.app(f.admin), req)

	assert.Equal(t, fiber.StatusUnprocessableEntity, code)
	assert.Equal(t, map[string]string{"file": "Invalid file type"}, testutil.Errors(body))
	assert.Equal(t, 0, f.store.AssessmentCount())
	assert.Empty(t, f.uploader.folders)
}

func TestCreateAssessmentMarkingGuideRules(t *testing.T) {
	f := setup(t)

	tests := []struct {
		name        string
		guide       any
		wantMessage string
	}{
		{name: "not an object", guide: "just text", wantMessage: "Marking guide must be an object"},
		{name: "missing question", guide: map[string]any{"expectedAnswer": "a", "keywords": []any{}}, wantMessage: "Marking guide must contain a valid question"},
		{name: "missing expected answer", guide: map[string]any{"question": "q", "keywords": []any{}}, wantMessage: "Marking guide must contain a valid expectedAnswer"},
		{name: "keywords not a list", guide: map[string]any{"question": "q", "expectedAnswer": "a", "keywords": "go"}, wantMessage: "Keywords must be an array of strings"},
		{name: "keyword not a string", guide: map[string]any{"question": "q", "expectedAnswer": "a", "keywords": []any{"go", 7}}, wantMessage: "All keywords must be valid strings"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := validAssessment()
			body["markingGuide"] = tt.guide

			code, res := testutil.Do(t, f.app(f.admin), testutil.JSON(t, http.MethodPost, "/assessment/create/"+f.course.ID.Hex(), body))
			assert.Equal(t, fiber.StatusUnprocessableEntity, code)
			assert.Equal(t, map[string]string{"markingGuide": tt.wantMessage}, testutil.Errors(res))
		})
	}
	assert.Equal(t, 0, f.store.AssessmentCount())
}

func TestCreateAssessmentReportsEveryField(t *testing.T) {
	f := setup(t)

	code, body := testutil.Do(t, f.app(f.admin), testutil.JSON(t, http.MethodPost, "/assessment/create/"+f.course.ID.Hex(), map[string]any{
		"title":        5,
		"markingGuide": map[string]any{"question": "q", "expectedAnswer": "a", "keywords": []any{"go", true}},
	}))

	assert.Equal(t, fiber.StatusUnprocessableEntity, code)
	assert.Equal(t, map[string]string{
		"title":                  "Please provide the title of the assessment",
		"question":               "Question is a required field",
		"highestAttainableScore": "Please provide the highest attaniable score and as an integer",
		"markingGuide":           "All keywords must be valid strings",
	}, testutil.Errors(body))
	assert.Equal(t, 0, f.store.AssessmentCount())
}

func TestCreateAssessmentMultipartMarkingGuide(t *testing.T) {
	f := setup(t)

	req := testutil.Multipart(t, http.MethodPost, "/assessment/create/"+f.course.ID.Hex(),
		map[string]string{
			"title":                  "Quiz 1",
			"question":               "What is a goroutine?",
			"highestAttainableScore": "10",
			"markingGuide":           `{"question":"What is a goroutine?","expectedAnswer":"A lightweight thread","keywords":["thread",42]}`,
		},
		testutil.File{Field: "file", Name: "quiz.pdf", ContentType: "application/pdf", Content: []byte("%PDF")},
	)
	code, body := testutil.Do(t, f.app(f.admin), req)

	assert.Equal(t, fiber.StatusUnprocessableEntity, code)
	assert.Equal(t, map[string]string{"markingGuide": "All keywords must be valid strings"}, testutil.Errors(body))
	assert.Equal(t, 0, f.store.AssessmentCount())
	assert.Empty(t, f.uploader.folders)
}

func TestCreateAssessmentRequiresOwnership(t *testing.T) {
	f := setup(t)
	other := &auth.Admin{ID: primitive.NewObjectID()}

	code, body := testutil.Do(t, f.app(other), testutil.JSON(t, http.MethodPost, "/assessment/create/"+f.course.ID.Hex(), validAssessment()))

	assert.Equal(t, fiber.StatusForbidden, code)
	assert.Equal(t, "You are not authorized to create assessments for this course", testutil.ErrorMessage(body))
	assert.Equal(t, 0, f.store.AssessmentCount())
}

func TestCreateAssessmentWithGuideAndFile(t *testing.T) {
	f := setup(t)

	req := testutil.Multipart(t, http.MethodPost, "/assessment/create/"+f.course.ID.Hex(),
		map[string]string{
			"title":                  "Quiz 1",
			"question":               "What is a goroutine?",
			"highestAttainableScore": "10",
			"markingGuide":           `{"question":"What is a goroutine?","expectedAnswer":"A lightweight thread","keywords":["lightweight","thread"]}`,
		},
		testutil.File{Field: "file", Name: "quiz.pdf", ContentType: "application/pdf", Content: []byte("%PDF")},
	)
	code, body := testutil.Do(t, f.app(f.admin), req)

	require.Equal(t, fiber.StatusCreated, code, body)
	data := body["data"].(map[string]any)
	assert.Equal(t, "https://cdn.example.com/assessments/file", data["file"])
	assert.Equal(t, float64(10), data["highestAttainableScore"])
	assert.Equal(t, f.admin.ID.Hex(), data["instructorId"])

	stored, err := f.store.GetAssessment(context.Background(), mustID(t, data["_id"]))
	require.NoError(t, err)
	require.NotNil(t, stored.MarkingGuide)
	assert.Equal(t, []string{"lightweight", "thread"}, stored.MarkingGuide.Keywords)
}

func TestGetAssessment(t *testing.T) {
	f := setup(t)
	a := f.assessment(t, nil)

	code, _ := testutil.Do(t, f.app(f.learner), testutil.JSON(t, http.MethodGet, "/assessment/"+a.ID.Hex(), nil))
	assert.Equal(t, fiber.StatusOK, code)

	code, body := testutil.Do(t, f.app(f.learner), testutil.JSON(t, http.MethodGet, "/assessment/"+primitive.NewObjectID().Hex(), nil))
	assert.Equal(t, fiber.StatusNotFound, code)
	assert.Equal(t, "Assessment not found", testutil.ErrorMessage(body))
}

func TestSubmitAssessment(t *testing.T) {
	f := setup(t)
	a := f.assessment(t, nil)
	path := "/assessment/submit/" + a.ID.Hex()
	stranger := &auth.Learner{ID: primitive.NewObjectID()}

	code, body := testutil.Do(t, f.app(stranger), testutil.JSON(t, http.MethodPost, path, map[string]any{"answerText": "A thread"}))
	assert.Equal(t, fiber.StatusForbidden, code)
	assert.Equal(t, "You are not enrolled in the course for this assessment", testutil.ErrorMessage(body))

	code, body = testutil.Do(t, f.app(f.learner), testutil.JSON(t, http.MethodPost, path, map[string]any{}))
	assert.Equal(t, fiber.StatusUnprocessableEntity, code)
	assert.Contains(t, testutil.Errors(body), "answerText")

	code, body = testutil.Do(t, f.app(f.learner), testutil.JSON(t, http.MethodPost, path, map[string]any{"answerText": "A thread"}))
	require.Equal(t, fiber.StatusCreated, code, body)
	data := body["data"].(map[string]any)
	assert.Equal(t, false, data["graded"])
	assert.Nil(t, data["score"])

	code, body = testutil.Do(t, f.app(f.learner), testutil.JSON(t, http.MethodPost, path, map[string]any{"answerText": "Again"}))
	assert.Equal(t, fiber.StatusConflict, code)
	assert.Equal(t, "You have already submitted this assessment", testutil.ErrorMessage(body))

	code, _ = testutil.Do(t, f.app(f.admin), testutil.JSON(t, http.MethodPost, path, map[string]any{"answerText": "A thread"}))
	assert.Equal(t, fiber.StatusForbidden, code)
}

func TestSubmitAssessmentExtractsPDFText(t *testing.T) {
	f := setup(t)
	a := f.assessment(t, nil)

	req := testutil.Multipart(t, http.MethodPost, "/assessment/submit/"+a.ID.Hex(),
		map[string]string{"answerText": "See attached"},
		testutil.File{Field: "file", Name: "answer.pdf", ContentType: "application/pdf", Content: []byte("%PDF")},
	)
	code, body := testutil.Do(t, f.app(f.learner), req)

	require.Equal(t, fiber.StatusCreated, code, body)
	data := body["data"].(map[string]any)
	assert.Equal(t, "https://cdn.example.com/submissions/file", data["file"])
	assert.NotContains(t, data, "extractedText")

	subs, err := f.store.ListSubmissionsByAssessment(context.Background(), a.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "extracted pdf text", subs[0].ExtractedText)
}

func TestSubmitAssessmentTwiceUploadsNothing(t *testing.T) {
	f := setup(t)
	a := f.assessment(t, nil)
	f.submission(t, a.ID, "A lightweight thread")

	req := testutil.Multipart(t, http.MethodPost, "/assessment/submit/"+a.ID.Hex(),
		map[string]string{"answerText": "Second try"},
		testutil.File{Field: "file", Name: "answer.pdf", ContentType: "application/pdf", Content: []byte("%PDF")},
	)
	code, body := testutil.Do(t, f.app(f.learner), req)

	assert.Equal(t, fiber.StatusConflict, code)
	assert.Equal(t, "You have already submitted this assessment", testutil.ErrorMessage(body))
	assert.Empty(t, f.uploader.folders)

	subs, err := f.store.ListSubmissionsByAssessment(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Len(t, subs, 1)
}

func TestSubmitAssessmentExtractionFailureIsTolerated(t *testing.T) {
	f := setup(t)
	f.handler.extractor = fakeExtractor{err: errors.New("corrupt pdf")}
	a := f.assessment(t, nil)

	req := testutil.Multipart(t, http.MethodPost, "/assessment/submit/"+a.ID.Hex(),
		map[string]string{"answerText": "See attached"},
		testutil.File{Field: "file", Name: "answer.pdf", ContentType: "application/pdf", Content: []byte("%PDF")},
	)
	code, _ := testutil.Do(t, f.app(f.learner), req)
	assert.Equal(t, fiber.StatusCreated, code)
}

func TestGradeSubmissionOnce(t *testing.T) {
	f := setup(t)
	a := f.assessment(t, nil)
	s := f.submission(t, a.ID, "A lightweight thread")
	path := "/assessment/grade/" + s.ID.Hex()

	code, body := testutil.Do(t, f.app(&auth.Admin{ID: primitive.NewObjectID()}), testutil.JSON(t, http.MethodPut, path, map[string]any{"score": 5, "useAI": false}))
	assert.Equal(t, fiber.StatusForbidden, code)
	assert.Equal(t, "You are not authorized to grade this submission", testutil.ErrorMessage(body))

	code, body = testutil.Do(t, f.app(f.admin), testutil.JSON(t, http.MethodPut, path, map[string]any{"score": 11, "useAI": false}))
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Equal(t, "Score must be between 0 and 10", testutil.ErrorMessage(body))

	code, body = testutil.Do(t, f.app(f.admin), testutil.JSON(t, http.MethodPut, path, map[string]any{"score": -1, "useAI": false}))
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, body = testutil.Do(t, f.app(f.admin), testutil.JSON(t, http.MethodPut, path, map[string]any{"score": 7.5, "comments": "Good", "useAI": false}))
	require.Equal(t, fiber.StatusOK, code, body)
	data := body["data"].(map[string]any)
	assert.Equal(t, 7.5, data["score"])
	assert.Equal(t, true, data["graded"])
	assert.Equal(t, "manual", data["gradingMode"])
	assert.Equal(t, f.admin.ID.Hex(), data["gradedBy"])

	code, body = testutil.Do(t, f.app(f.admin), testutil.JSON(t, http.MethodPut, path, map[string]any{"score": 9, "useAI": false}))
	assert.Equal(t, fiber.StatusConflict, code)
	assert.Equal(t, "Submission has already been graded", testutil.ErrorMessage(body))

	stored, err := f.store.GetSubmission(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, 7.5, *stored.Score)

	require.Len(t, f.notifier.inputs, 1)
	assert.Equal(t, f.learner.ID, f.notifier.inputs[0].UserID)
	assert.Equal(t, model.NotificationTypeGrade, f.notifier.inputs[0].Type)
}

func TestGradeSubmissionWithGrader(t *testing.T) {
	f := setup(t)
	a := f.assessment(t, &model.MarkingGuide{
		Question:       "What is a goroutine?",
		ExpectedAnswer: "A lightweight thread managed by the runtime",
		Keywords:       []string{"lightweight", "runtime"},
	})
	s := f.submission(t, a.ID, "It is a LIGHTWEIGHT thread")

	code, body := testutil.Do(t, f.app(f.admin), testutil.JSON(t, http.MethodPut, "/assessment/grade/"+s.ID.Hex(), map[string]any{
		"score": 0,
		"useAI": "true",
	}))

	require.Equal(t, fiber.StatusOK, code, body)
	data := body["data"].(map[string]any)
	assert.Equal(t, float64(5), data["score"])
	assert.Equal(t, "automatic", data["gradingMode"])
	assert.Equal(t, "Matched 1 of 2 keywords. Missing: runtime.", data["comments"])
}

func TestGradeSubmissionValidation(t *testing.T) {
	f := setup(t)

	code, body := testutil.Do(t, f.app(f.admin), testutil.JSON(t, http.MethodPut, "/assessment/grade/"+primitive.NewObjectID().Hex(), map[string]any{}))
	assert.Equal(t, fiber.StatusUnprocessableEntity, code)
	assert.Equal(t, map[string]string{
		"score": "Please provide the score as an integer",
		"useAI": "Please select if you want learners' submissions to be graded automatically or manually",
	}, testutil.Errors(body))

	code, body = testutil.Do(t, f.app(f.admin), testutil.JSON(t, http.MethodPut, "/assessment/grade/"+primitive.NewObjectID().Hex(), map[string]any{"score": 1, "useAI": false}))
	assert.Equal(t, fiber.StatusNotFound, code)
	assert.Equal(t, "Submission not found", testutil.ErrorMessage(body))
}

func TestGetSubmissionAccess(t *testing.T) {
	f := setup(t)
	a := f.assessment(t, nil)
	s := f.submission(t, a.ID, "answer")
	path := "/assessment/submission/" + s.ID.Hex()

	tests := []struct {
		name     string
		caller   auth.Caller
		wantCode int
	}{
		{name: "submitting learner", caller: f.learner, wantCode: fiber.StatusOK},
		{name: "other learner", caller: &auth.Learner{ID: primitive.NewObjectID()}, wantCode: fiber.StatusForbidden},
		{name: "owning instructor", caller: f.admin, wantCode: fiber.StatusOK},
		{name: "other instructor", caller: &auth.Admin{ID: primitive.NewObjectID()}, wantCode: fiber.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := testutil.Do(t, f.app(tt.caller), testutil.JSON(t, http.MethodGet, path, nil))
			assert.Equal(t, tt.wantCode, code)
		})
	}
}

func TestGetSubmissionsForAssessment(t *testing.T) {
	f := setup(t)
	a := f.assessment(t, nil)
	f.submission(t, a.ID, "answer")
	path := "/assessment/submissions/" + a.ID.Hex()

	code, _ := testutil.Do(t, f.app(&auth.Admin{ID: primitive.NewObjectID()}), testutil.JSON(t, http.MethodGet, path, nil))
	assert.Equal(t, fiber.StatusForbidden, code)

	code, body := testutil.Do(t, f.app(f.admin), testutil.JSON(t, http.MethodGet, path, nil))
	assert.Equal(t, fiber.StatusOK, code)
	assert.Len(t, body["data"], 1)
}

func mustID(t *testing.T, v any) primitive.ObjectID {
	t.Helper()

	s, _ := v.(string)
	id, err := primitive.ObjectIDFromHex(s)
	require.NoError(t, err)
	return id
}
