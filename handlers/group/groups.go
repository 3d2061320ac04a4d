package group

import (
	"errors"

	"github.com/gamifylearn/gamification-api/database"
	"github.com/gamifylearn/gamification-api/model"
	"github.com/gamifylearn/gamification-api/utils/apperror"
	"github.com/gamifylearn/gamification-api/utils/middleware"
	"github.com/gamifylearn/gamification-api/utils/response"
	"github.com/gamifylearn/gamification-api/utils/validation"
	"github.com/gofiber/fiber/v2"
)

// GroupHandler handles group requests
type GroupHandler struct {
	store database.GroupStore
}

// NewGroupHandler creates a new group handler
func NewGroupHandler(store database.GroupStore) *GroupHandler {
	return &GroupHandler{store: store}
}

var CreateGroupValidator = validation.Validate(
	validation.Body("name").NotEmpty().IsString().WithMessage("Please provide the name of the group"),
	validation.Body("memberIds").Optional().IsArray().WithMessage("Member ids must be an array").
		EachMongoID().WithMessage("Member ids must be valid ids"),
)

var EditGroupValidator = validation.Validate(
	validation.Param("groupId").IsMongoID().WithMessage("Invalid group id"),
	validation.Body("name").Optional().NotEmpty().IsString().WithMessage("Name must be a non empty string"),
	validation.Body("memberIds").Optional().IsArray().WithMessage("Member ids must be an array").
		EachMongoID().WithMessage("Member ids must be valid ids"),
)

// CreateGroup handles POST /api/v1/group/create
func (h *GroupHandler) CreateGroup(c *fiber.Ctx) error {
	admin, err := middleware.CurrentAdmin(c)
	if err != nil {
		return err
	}

	in := validation.InputFrom(c)
	group := &model.Group{
		Name:      in.String("name"),
		MemberIDs: in.ObjectIDs("memberIds"),
		CreatedBy: admin.ID,
	}

	if err := h.store.CreateGroup(c.UserContext(), group); err != nil {
		return apperror.Internal(err)
	}

	return response.Success(c, group, "Group created successfully", fiber.StatusCreated)
}

// EditGroup handles PUT /api/v1/group/edit/:groupId. Only the creator may edit.
func (h *GroupHandler) EditGroup(c *fiber.Ctx) error {
	admin, err := middleware.CurrentAdmin(c)
	if err != nil {
		return err
	}

	in := validation.InputFrom(c)
	groupID, err := in.ParamObjectID("groupId", "Invalid group id")
	if err != nil {
		return err
	}

	ctx := c.UserContext()
	group, err := h.store.GetGroup(ctx, groupID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return apperror.NotFound("Group not found")
		}
		return apperror.Internal(err)
	}
	if group.CreatedBy != admin.ID {
		return apperror.Forbidden("You are not authorized to edit this group")
	}

	var update model.GroupUpdate
	if in.Has("name") {
		name := in.String("name")
		update.Name = &name
	}
	if in.Has("memberIds") {
		update.MemberIDs = in.ObjectIDs("memberIds")
	}

	updated, err := h.store.UpdateGroup(ctx, groupID, update)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return apperror.NotFound("Group not found")
		}
		return apperror.Internal(err)
	}

	return response.Success(c, updated, "Group updated successfully")
}
