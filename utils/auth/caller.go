package auth

import (
	"github.com/gamifylearn/gamification-api/model"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Caller is the authenticated identity of a request: an *Admin, a *Learner or a *SuperAdmin.
type Caller interface {
	AccountID() primitive.ObjectID
	Role() string
	AccountEmail() string
	caller()
}

// Admin is an instructor (a user with role "admin")
type Admin struct {
	ID       primitive.ObjectID
	Email    string
	Username string
}

// Learner is a regular user
type Learner struct {
	ID       primitive.ObjectID
	Email    string
	Username string
}

// SuperAdmin is a platform operator
type SuperAdmin struct {
	ID    primitive.ObjectID
	Email string
}

func (a *Admin) AccountID() primitive.ObjectID { return a.ID }
func (a *Admin) Role() string                  { return model.RoleAdmin }
func (a *Admin) AccountEmail() string          { return a.Email }
func (*Admin) caller()                         {}

func (l *Learner) AccountID() primitive.ObjectID { return l.ID }
func (l *Learner) Role() string                  { return model.RoleUser }
func (l *Learner) AccountEmail() string          { return l.Email }
func (*Learner) caller()                         {}

func (s *SuperAdmin) AccountID() primitive.ObjectID { return s.ID }
func (s *SuperAdmin) Role() string                  { return model.RoleSuperAdmin }
func (s *SuperAdmin) AccountEmail() string          { return s.Email }
func (*SuperAdmin) caller()                         {}

// CallerForUser maps a stored user to its identity by role
func CallerForUser(u *model.User) Caller {
	if u.Role == model.RoleAdmin {
		return &Admin{ID: u.ID, Email: u.Email, Username: u.Username}
	}
	return &Learner{ID: u.ID, Email: u.Email, Username: u.Username}
}
