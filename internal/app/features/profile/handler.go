// internal/app/features/profile/handler.go
package profile

import (
	"context"
	"errors"
	"net/http"

	"github.com/ugcampus/grouphub/internal/app/features/shared/api"
	"github.com/ugcampus/grouphub/internal/app/store/groups"
	"github.com/ugcampus/grouphub/internal/app/store/memberships"
	"github.com/ugcampus/grouphub/internal/app/store/users"
	"github.com/ugcampus/grouphub/internal/app/system/auth"
	"github.com/ugcampus/grouphub/internal/app/system/htmlsanitize"
	"github.com/ugcampus/grouphub/internal/app/system/limits"
	"github.com/ugcampus/grouphub/internal/app/system/timeouts"
	"github.com/ugcampus/grouphub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler owns the authenticated user's profile endpoints.
type Handler struct {
	Users       *userstore.Store
	Groups      *groupstore.Store
	Memberships *membershipstore.Store
	Log         *zap.Logger
}

// NewHandler constructs a Handler bound to the given Mongo database and logger.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Users:       userstore.New(db),
		Groups:      groupstore.New(db),
		Memberships: membershipstore.New(db),
		Log:         logger,
	}
}

// patchProfileRequest is the PATCH /me body. Absent fields are left untouched.
type patchProfileRequest struct {
	Bio           *string `json:"bio"`
	Division      *string `json:"division"`
	AcademicLevel *string `json:"academicLevel"`
	DegreeName    *string `json:"degreeName"`
}

// HandleMe returns the authenticated user's own document.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, api.KindUnauthorized, "sign in required")
		return
	}
	api.WriteJSON(w, http.StatusOK, user)
}

// HandlePatchMe applies a partial profile update and returns the fresh
// document.
func (h *Handler) HandlePatchMe(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, ok := auth.CurrentUser(r)
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, api.KindUnauthorized, "sign in required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBodySize)
	var req patchProfileRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.KindValidationFailed, "invalid request body")
		return
	}
	if req.Bio != nil {
		// Bios render as plain text everywhere, so markup is stripped
		// rather than sanitized.
		clean := htmlsanitize.StripTags(*req.Bio)
		req.Bio = &clean
	}

	err := h.Users.UpdateProfile(ctx, user.ID, userstore.ProfilePatch{
		Bio:           req.Bio,
		Division:      req.Division,
		AcademicLevel: req.AcademicLevel,
		DegreeName:    req.DegreeName,
	})
	if err != nil {
		h.Log.Error("profile update failed", zap.String("user_id", user.ID.Hex()), zap.Error(err))
		api.WriteInternal(w)
		return
	}

	updated, err := h.Users.GetByID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			api.WriteError(w, http.StatusNotFound, api.KindNotFound, "account no longer exists")
			return
		}
		h.Log.Error("reload profile failed", zap.String("user_id", user.ID.Hex()), zap.Error(err))
		api.WriteInternal(w)
		return
	}
	api.WriteJSON(w, http.StatusOK, updated)
}

// HandleGroupsIAmAdmin lists the groups where the caller holds the admin role.
func (h *Handler) HandleGroupsIAmAdmin(w http.ResponseWriter, r *http.Request) {
	h.listGroupsByRole(w, r, models.RoleAdmin)
}

// HandleGroupsIAmMember lists the groups where the caller holds the member
// role.
func (h *Handler) HandleGroupsIAmMember(w http.ResponseWriter, r *http.Request) {
	h.listGroupsByRole(w, r, models.RoleMember)
}

func (h *Handler) listGroupsByRole(w http.ResponseWriter, r *http.Request, role string) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, ok := auth.CurrentUser(r)
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, api.KindUnauthorized, "sign in required")
		return
	}

	ids, err := h.Memberships.GroupIDsByUserRole(ctx, user.ID, role)
	if err != nil {
		h.Log.Error("list group memberships failed",
			zap.String("user_id", user.ID.Hex()), zap.String("role", role), zap.Error(err))
		api.WriteInternal(w)
		return
	}
	groups, err := h.Groups.ListByIDs(ctx, ids)
	if err != nil {
		h.Log.Error("load member groups failed",
			zap.String("user_id", user.ID.Hex()), zap.Error(err))
		api.WriteInternal(w)
		return
	}
	api.WriteJSON(w, http.StatusOK, groups)
}
