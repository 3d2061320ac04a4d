package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group is a named set of users
type Group struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Name      string               `bson:"name" json:"name"`
	MemberIDs []primitive.ObjectID `bson:"memberIds" json:"memberIds"`
	CreatedBy primitive.ObjectID   `bson:"createdBy" json:"createdBy"`
	CreatedAt time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// GroupUpdate carries the optional fields of an edit; nil means unchanged
type GroupUpdate struct {
	Name      *string
	MemberIDs []primitive.ObjectID
}
