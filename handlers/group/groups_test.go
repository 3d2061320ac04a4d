package group

import (
	"context"
	"net/http"
	"testing"

	"github.com/gamifylearn/gamification-api/database"
	"github.com/gamifylearn/gamification-api/model"
	"github.com/gamifylearn/gamification-api/utils/auth"
	"github.com/gamifylearn/gamification-api/utils/testutil"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func setupApp(store database.GroupStore, caller auth.Caller) *fiber.App {
	h := NewGroupHandler(store)
	app := testutil.NewApp()
	g := app.Group("/group", testutil.As(caller))
	g.Post("/create", CreateGroupValidator, h.CreateGroup)
	g.Put("/edit/:groupId", EditGroupValidator, h.EditGroup)
	return app
}

func TestCreateGroup(t *testing.T) {
	store := database.NewMemoryStore()
	admin := &auth.Admin{ID: primitive.NewObjectID()}
	member := primitive.NewObjectID()

	tests := []struct {
		name       string
		body       map[string]any
		wantCode   int
		wantErrors map[string]string
	}{
		{
			name:       "missing name",
			body:       map[string]any{},
			wantCode:   fiber.StatusUnprocessableEntity,
			wantErrors: map[string]string{"name": "Please provide the name of the group"},
		},
		{
			name:       "bad member id",
			body:       map[string]any{"name": "Cohort", "memberIds": []string{"x"}},
			wantCode:   fiber.StatusUnprocessableEntity,
			wantErrors: map[string]string{"memberIds": "Member ids must be valid ids"},
		},
		{
			name:     "created",
			body:     map[string]any{"name": "Cohort", "memberIds": []string{member.Hex()}},
			wantCode: fiber.StatusCreated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := testutil.Do(t, setupApp(store, admin), testutil.JSON(t, http.MethodPost, "/group/create", tt.body))
			assert.Equal(t, tt.wantCode, code)
			if tt.wantErrors != nil {
				assert.Equal(t, tt.wantErrors, testutil.Errors(body))
				return
			}
			data := body["data"].(map[string]any)
			assert.Equal(t, admin.ID.Hex(), data["createdBy"])
			assert.Equal(t, []any{member.Hex()}, data["memberIds"])
		})
	}
}

func TestEditGroup(t *testing.T) {
	store := database.NewMemoryStore()
	owner := &auth.Admin{ID: primitive.NewObjectID()}
	group := &model.Group{Name: "Cohort", CreatedBy: owner.ID}
	require.NoError(t, store.CreateGroup(context.Background(), group))
	path := "/group/edit/" + group.ID.Hex()

	code, body := testutil.Do(t, setupApp(store, &auth.Admin{ID: primitive.NewObjectID()}), testutil.JSON(t, http.MethodPut, path, map[string]any{"name": "Mine"}))
	assert.Equal(t, fiber.StatusForbidden, code)
	assert.Equal(t, "You are not authorized to edit this group", testutil.ErrorMessage(body))

	code, body = testutil.Do(t, setupApp(store, owner), testutil.JSON(t, http.MethodPut, "/group/edit/"+primitive.NewObjectID().Hex(), map[string]any{"name": "X"}))
	assert.Equal(t, fiber.StatusNotFound, code)
	assert.Equal(t, "Group not found", testutil.ErrorMessage(body))

	code, body = testutil.Do(t, setupApp(store, owner), testutil.JSON(t, http.MethodPut, path, map[string]any{"name": ""}))
	assert.Equal(t, fiber.StatusUnprocessableEntity, code)
	assert.Equal(t, "Name must be a non empty string", testutil.Errors(body)["name"])

	member := primitive.NewObjectID()
	code, body = testutil.Do(t, setupApp(store, owner), testutil.JSON(t, http.MethodPut, path, map[string]any{"memberIds": []string{member.Hex()}}))
	require.Equal(t, fiber.StatusOK, code)
	data := body["data"].(map[string]any)
	assert.Equal(t, "Cohort", data["name"])
	assert.Equal(t, []any{member.Hex()}, data["memberIds"])

	code, body = testutil.Do(t, setupApp(store, owner), testutil.JSON(t, http.MethodPut, path, map[string]any{"name": "Renamed"}))
	require.Equal(t, fiber.StatusOK, code)
	data = body["data"].(map[string]any)
	assert.Equal(t, "Renamed", data["name"])
	assert.Equal(t, []any{member.Hex()}, data["memberIds"])
}

func TestGroupRequiresAdmin(t *testing.T) {
	store := database.NewMemoryStore()

	code, _ := testutil.Do(t, setupApp(store, &auth.Learner{ID: primitive.NewObjectID()}), testutil.JSON(t, http.MethodPost, "/group/create", map[string]any{"name": "Cohort"}))
	assert.Equal(t, fiber.StatusForbidden, code)
}
