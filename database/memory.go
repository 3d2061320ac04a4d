package database

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gamifylearn/gamification-api/model"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore is an in-process Storage used with DB_DRIVER=memory and in tests.
// Records are kept in insertion order and copied on the way in and out.
type MemoryStore struct {
	mutex sync.RWMutex

	users         []*model.User
	superAdmins   []*model.SuperAdmin
	courses       []*model.Course
	contents      []*model.CourseContent
	announcements []*model.Announcement
	assessments   []*model.Assessment
	submissions   []*model.Submission
	groups        []*model.Group
}

var _ Storage = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(context.Context) error        { return nil }
func (s *MemoryStore) Close(context.Context) error       { return nil }
func (s *MemoryStore) HealthCheck(context.Context) error { return nil }

func cloneIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	out := make([]primitive.ObjectID, len(ids))
	copy(out, ids)
	return out
}

func cloneCourse(c *model.Course) *model.Course {
	out := *c
	out.LearnerIDs = cloneIDs(c.LearnerIDs)
	return &out
}

func cloneContent(c *model.CourseContent) *model.CourseContent {
	out := *c
	out.Files = append([]string{}, c.Files...)
	return &out
}

func cloneAssessment(a *model.Assessment) *model.Assessment {
	out := *a
	if a.MarkingGuide != nil {
		guide := *a.MarkingGuide
		guide.Keywords = append([]string{}, a.MarkingGuide.Keywords...)
		out.MarkingGuide = &guide
	}
	return &out
}

func cloneSubmission(sub *model.Submission) *model.Submission {
	out := *sub
	if sub.Score != nil {
		score := *sub.Score
		out.Score = &score
	}
	if sub.GradedBy != nil {
		by := *sub.GradedBy
		out.GradedBy = &by
	}
	if sub.GradedAt != nil {
		at := *sub.GradedAt
		out.GradedAt = &at
	}
	return &out
}

func cloneGroup(g *model.Group) *model.Group {
	out := *g
	out.MemberIDs = cloneIDs(g.MemberIDs)
	return &out
}

// ---- Courses ----

func (s *MemoryStore) CreateCourse(_ context.Context, course *model.Course) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	course.ID = primitive.NewObjectID()
	course.CreatedAt = now()
	course.UpdatedAt = course.CreatedAt
	if course.LearnerIDs == nil {
		course.LearnerIDs = []primitive.ObjectID{}
	}
	s.courses = append(s.courses, cloneCourse(course))
	return nil
}

func (s *MemoryStore) findCourse(id primitive.ObjectID) *model.Course {
	for _, c := range s.courses {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (s *MemoryStore) GetCourse(_ context.Context, id primitive.ObjectID) (*model.Course, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if c := s.findCourse(id); c != nil {
		return cloneCourse(c), nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListCoursesByInstructor(_ context.Context, instructorID primitive.ObjectID) ([]model.Course, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := []model.Course{}
	for i := len(s.courses) - 1; i >= 0; i-- {
		if s.courses[i].InstructorID == instructorID {
			out = append(out, *cloneCourse(s.courses[i]))
		}
	}
	return out, nil
}

func (s *MemoryStore) FindOwnedCourses(_ context.Context, ids []primitive.ObjectID, instructorID primitive.ObjectID) ([]model.Course, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	wanted := make(map[primitive.ObjectID]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	out := []model.Course{}
	for _, c := range s.courses {
		if _, ok := wanted[c.ID]; ok && c.InstructorID == instructorID {
			out = append(out, *cloneCourse(c))
		}
	}
	return out, nil
}

func (s *MemoryStore) AddLearnerToCourse(_ context.Context, courseID, learnerID primitive.ObjectID) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	c := s.findCourse(courseID)
	if c == nil {
		return ErrNotFound
	}
	if !c.HasLearner(learnerID) {
		c.LearnerIDs = append(c.LearnerIDs, learnerID)
		c.UpdatedAt = now()
	}
	return nil
}

func (s *MemoryStore) CreateCourseContent(_ context.Context, content *model.CourseContent) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	content.ID = primitive.NewObjectID()
	content.CreatedAt = now()
	content.UpdatedAt = content.CreatedAt
	if content.Files == nil {
		content.Files = []string{}
	}
	s.contents = append(s.contents, cloneContent(content))
	return nil
}

func (s *MemoryStore) ListCourseContent(_ context.Context, courseID primitive.ObjectID) ([]model.CourseContent, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := []model.CourseContent{}
	for _, c := range s.contents {
		if c.CourseID == courseID {
			out = append(out, *cloneContent(c))
		}
	}
	return out, nil
}

func (s *MemoryStore) CreateAnnouncements(_ context.Context, announcements []*model.Announcement) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	ts := now()
	for _, a := range announcements {
		a.ID = primitive.NewObjectID()
		a.CreatedAt = ts
		a.UpdatedAt = ts
		stored := *a
		s.announcements = append(s.announcements, &stored)
	}
	return nil
}

// ListAnnouncementsByCourse matches the MongoStore lookup on "courseId", a key
// stored announcements never carry, so it always returns an empty list.
func (s *MemoryStore) ListAnnouncementsByCourse(_ context.Context, _ primitive.ObjectID) ([]model.Announcement, error) {
	return []model.Announcement{}, nil
}

// Announcements returns every stored announcement, oldest first
func (s *MemoryStore) Announcements() []model.Announcement {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make([]model.Announcement, 0, len(s.announcements))
	for _, a := range s.announcements {
		out = append(out, *a)
	}
	return out
}

// ---- Assessments & submissions ----

func (s *MemoryStore) CreateAssessment(_ context.Context, assessment *model.Assessment) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	assessment.ID = primitive.NewObjectID()
	assessment.CreatedAt = now()
	assessment.UpdatedAt = assessment.CreatedAt
	s.assessments = append(s.assessments, cloneAssessment(assessment))
	return nil
}

func (s *MemoryStore) GetAssessment(_ context.Context, id primitive.ObjectID) (*model.Assessment, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	for _, a := range s.assessments {
		if a.ID == id {
			return cloneAssessment(a), nil
		}
	}
	return nil, ErrNotFound
}

// AssessmentCount reports how many assessments are stored
func (s *MemoryStore) AssessmentCount() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.assessments)
}

func (s *MemoryStore) CreateSubmission(_ context.Context, submission *model.Submission) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, existing := range s.submissions {
		if existing.AssessmentID == submission.AssessmentID && existing.LearnerID == submission.LearnerID {
			return ErrDuplicate
		}
	}

	submission.ID = primitive.NewObjectID()
	submission.CreatedAt = now()
	submission.UpdatedAt = submission.CreatedAt
	submission.Graded = false
	s.submissions = append(s.submissions, cloneSubmission(submission))
	return nil
}

func (s *MemoryStore) findSubmission(id primitive.ObjectID) *model.Submission {
	for _, sub := range s.submissions {
		if sub.ID == id {
			return sub
		}
	}
	return nil
}

func (s *MemoryStore) GetSubmission(_ context.Context, id primitive.ObjectID) (*model.Submission, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if sub := s.findSubmission(id); sub != nil {
		return cloneSubmission(sub), nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) GetSubmissionByLearner(_ context.Context, assessmentID, learnerID primitive.ObjectID) (*model.Submission, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	for _, sub := range s.submissions {
		if sub.AssessmentID == assessmentID && sub.LearnerID == learnerID {
			return cloneSubmission(sub), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListSubmissionsByAssessment(_ context.Context, assessmentID primitive.ObjectID) ([]model.Submission, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := []model.Submission{}
	for _, sub := range s.submissions {
		if sub.AssessmentID == assessmentID {
			out = append(out, *cloneSubmission(sub))
		}
	}
	return out, nil
}

func (s *MemoryStore) GradeSubmission(_ context.Context, id primitive.ObjectID, grade model.Grade) (*model.Submission, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	sub := s.findSubmission(id)
	if sub == nil {
		return nil, ErrNotFound
	}
	if sub.Graded {
		return nil, ErrAlreadyGraded
	}

	score := grade.Score
	by := grade.GradedBy
	at := grade.GradedAt.UTC().Truncate(time.Millisecond)
	sub.Score = &score
	sub.Comments = grade.Comments
	sub.Graded = true
	sub.GradedBy = &by
	sub.GradingMode = grade.Mode
	sub.GradedAt = &at
	sub.UpdatedAt = now()
	return cloneSubmission(sub), nil
}

// ---- Users ----

func (s *MemoryStore) CreateUser(_ context.Context, user *model.User) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return ErrDuplicate
		}
	}

	user.ID = primitive.NewObjectID()
	user.CreatedAt = now()
	user.UpdatedAt = user.CreatedAt
	if user.Role == "" {
		user.Role = model.RoleUser
	}
	stored := *user
	s.users = append(s.users, &stored)
	return nil
}

func (s *MemoryStore) GetUser(_ context.Context, id primitive.ObjectID) (*model.User, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	for _, u := range s.users {
		if u.ID == id {
			out := *u
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListUsers(_ context.Context, limit, offset int64) ([]model.User, int64, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	all := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		all = append(all, *u)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	total := int64(len(all))
	if offset >= total {
		return []model.User{}, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (s *MemoryStore) UpdateUserRole(_ context.Context, id primitive.ObjectID, role string) (*model.User, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, u := range s.users {
		if u.ID == id {
			u.Role = role
			u.UpdatedAt = now()
			out := *u
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) CreateSuperAdmin(_ context.Context, admin *model.SuperAdmin) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, a := range s.superAdmins {
		if strings.EqualFold(a.Email, admin.Email) {
			return ErrDuplicate
		}
	}

	admin.ID = primitive.NewObjectID()
	admin.CreatedAt = now()
	admin.UpdatedAt = admin.CreatedAt
	admin.Role = model.RoleSuperAdmin
	stored := *admin
	s.superAdmins = append(s.superAdmins, &stored)
	return nil
}

func (s *MemoryStore) GetSuperAdmin(_ context.Context, id primitive.ObjectID) (*model.SuperAdmin, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	for _, a := range s.superAdmins {
		if a.ID == id {
			out := *a
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) GetSuperAdminByEmail(_ context.Context, email string) (*model.SuperAdmin, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	for _, a := range s.superAdmins {
		if a.Email == email {
			out := *a
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

// ---- Groups ----

func (s *MemoryStore) CreateGroup(_ context.Context, group *model.Group) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	group.ID = primitive.NewObjectID()
	group.CreatedAt = now()
	group.UpdatedAt = group.CreatedAt
	if group.MemberIDs == nil {
		group.MemberIDs = []primitive.ObjectID{}
	}
	s.groups = append(s.groups, cloneGroup(group))
	return nil
}

func (s *MemoryStore) GetGroup(_ context.Context, id primitive.ObjectID) (*model.Group, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	for _, g := range s.groups {
		if g.ID == id {
			return cloneGroup(g), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UpdateGroup(_ context.Context, id primitive.ObjectID, update model.GroupUpdate) (*model.Group, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, g := range s.groups {
		if g.ID != id {
			continue
		}
		if update.Name != nil {
			g.Name = *update.Name
		}
		if update.MemberIDs != nil {
			g.MemberIDs = cloneIDs(update.MemberIDs)
		}
		g.UpdatedAt = now()
		return cloneGroup(g), nil
	}
	return nil, ErrNotFound
}
