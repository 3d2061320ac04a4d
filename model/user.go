package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "superAdmin"
)

// User is a learner or an instructor (role "admin")
type User struct {
	ID                    primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	Username              string              `bson:"username" json:"username"`
	FirstName             *string             `bson:"firstName" json:"firstName"`
	LastName              *string             `bson:"lastName" json:"lastName"`
	Email                 string              `bson:"email" json:"email"`
	Phone                 *string             `bson:"phone" json:"phone"`
	Organization          *primitive.ObjectID `bson:"organization" json:"organization"`
	Role                  string              `bson:"role" json:"role"`
	Password              string              `bson:"password" json:"-"` // bcrypt hash, never exposed
	YearOfExperience      *int                `bson:"yearOfExperience" json:"yearOfExperience"`
	HighestEducationLevel *string             `bson:"highestEducationLevel" json:"highestEducationLevel"`
	Gender                *string             `bson:"gender" json:"gender"`
	DateOfBirth           *string             `bson:"dateOfBirth" json:"dateOfBirth"`
	CreatedAt             time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt             time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// SuperAdmin is a platform operator stored apart from regular users
type SuperAdmin struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Username  *string            `bson:"username" json:"username"`
	Email     string             `bson:"email" json:"email"`
	FirstName *string            `bson:"firstName" json:"firstName"`
	LastName  *string            `bson:"lastName" json:"lastName"`
	Role      string             `bson:"role" json:"role"`
	Password  string             `bson:"password" json:"-"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
