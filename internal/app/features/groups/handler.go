// internal/app/features/groups/handler.go
package groups

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/ugcampus/grouphub/internal/app/features/shared/api"
	"github.com/ugcampus/grouphub/internal/app/policy/grouppolicy"
	"github.com/ugcampus/grouphub/internal/app/store/groups"
	"github.com/ugcampus/grouphub/internal/app/store/memberships"
	"github.com/ugcampus/grouphub/internal/app/store/users"
	"github.com/ugcampus/grouphub/internal/app/system/auth"
	"github.com/ugcampus/grouphub/internal/app/system/htmlsanitize"
	"github.com/ugcampus/grouphub/internal/app/system/limits"
	"github.com/ugcampus/grouphub/internal/app/system/timeouts"
	"github.com/ugcampus/grouphub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler owns the group CRUD and membership endpoints.
type Handler struct {
	DB          *mongo.Database
	Groups      *groupstore.Store
	Users       *userstore.Store
	Memberships *membershipstore.Store
	Log         *zap.Logger
}

// NewHandler constructs a Handler bound to the given Mongo database and logger.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:          db,
		Groups:      groupstore.New(db),
		Users:       userstore.New(db),
		Memberships: membershipstore.New(db),
		Log:         logger,
	}
}

// HandleCreate creates a group and makes the caller its sole admin.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, ok := auth.CurrentUser(r)
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, api.KindUnauthorized, "sign in required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBodySize)
	var req createGroupRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.KindValidationFailed, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		api.WriteError(w, http.StatusBadRequest, api.KindValidationFailed, "group name is required")
		return
	}
	accessibility, ok := normalizeAccessibility(req.Accessibility)
	if !ok {
		api.WriteError(w, http.StatusBadRequest, api.KindValidationFailed, "accessibility must be public or private")
		return
	}
	whoCanPublish, ok := normalizeWhoCanPublish(req.WhoCanPublish)
	if !ok {
		api.WriteError(w, http.StatusBadRequest, api.KindValidationFailed, "whoCanPublish must be everyone or admins")
		return
	}

	group, err := h.Groups.Create(ctx, models.Group{
		Name:          req.Name,
		Description:   htmlsanitize.Sanitize(req.Description),
		GroupImage:    strings.TrimSpace(req.GroupImage),
		GroupColor:    strings.TrimSpace(req.GroupColor),
		ExternalLink:  strings.TrimSpace(req.ExternalLink),
		Accessibility: accessibility,
		WhoCanPublish: whoCanPublish,
	})
	if err != nil {
		h.Log.Error("create group failed", zap.String("name", req.Name), zap.Error(err))
		api.WriteInternal(w)
		return
	}

	if err := h.Memberships.AddAdmin(ctx, group.ID, user.ID); err != nil {
		// Without its admin the group is unreachable; take it back out.
		if _, delErr := h.Groups.Delete(ctx, group.ID); delErr != nil {
			h.Log.Error("orphaned group cleanup failed",
				zap.String("group_id", group.ID.Hex()), zap.Error(delErr))
		}
		h.Log.Error("seed group admin failed",
			zap.String("group_id", group.ID.Hex()), zap.Error(err))
		api.WriteInternal(w)
		return
	}

	api.WriteJSON(w, http.StatusCreated, group)
}

// HandleGet returns a group by ID.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	groupID, ok := groupIDParam(w, r)
	if !ok {
		return
	}
	group, err := h.Groups.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			api.WriteError(w, http.StatusNotFound, api.KindNotFound, "group not found")
			return
		}
		h.Log.Error("load group failed", zap.String("group_id", groupID.Hex()), zap.Error(err))
		api.WriteInternal(w)
		return
	}
	api.WriteJSON(w, http.StatusOK, group)
}

// HandlePatch updates group metadata. Admins only.
func (h *Handler) HandlePatch(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, ok := auth.CurrentUser(r)
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, api.KindUnauthorized, "sign in required")
		return
	}
	groupID, ok := groupIDParam(w, r)
	if !ok {
		return
	}
	if !h.requireAdmin(ctx, w, groupID, user.ID) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBodySize)
	var req patchGroupRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.KindValidationFailed, "invalid request body")
		return
	}
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		if trimmed == "" {
			api.WriteError(w, http.StatusBadRequest, api.KindValidationFailed, "group name cannot be empty")
			return
		}
		req.Name = &trimmed
	}
	if req.Description != nil {
		clean := htmlsanitize.Sanitize(*req.Description)
		req.Description = &clean
	}

	err := h.Groups.UpdateInfo(ctx, groupID, groupstore.InfoPatch{
		Name:         req.Name,
		Description:  req.Description,
		GroupImage:   req.GroupImage,
		GroupColor:   req.GroupColor,
		ExternalLink: req.ExternalLink,
	})
	if err != nil {
		h.Log.Error("patch group failed", zap.String("group_id", groupID.Hex()), zap.Error(err))
		api.WriteInternal(w)
		return
	}

	group, err := h.Groups.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			api.WriteError(w, http.StatusNotFound, api.KindNotFound, "group not found")
			return
		}
		h.Log.Error("reload group failed", zap.String("group_id", groupID.Hex()), zap.Error(err))
		api.WriteInternal(w)
		return
	}
	api.WriteJSON(w, http.StatusOK, group)
}

// HandleDelete removes a group and all of its memberships. Admins only.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	user, ok := auth.CurrentUser(r)
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, api.KindUnauthorized, "sign in required")
		return
	}
	groupID, ok := groupIDParam(w, r)
	if !ok {
		return
	}
	if !h.requireAdmin(ctx, w, groupID, user.ID) {
		return
	}

	n, err := h.Groups.Delete(ctx, groupID)
	if err != nil {
		h.Log.Error("delete group failed", zap.String("group_id", groupID.Hex()), zap.Error(err))
		api.WriteInternal(w)
		return
	}
	if n == 0 {
		api.WriteError(w, http.StatusNotFound, api.KindNotFound, "group not found")
		return
	}
	if _, err := h.Memberships.DeleteByGroup(ctx, groupID); err != nil {
		// The group itself is gone; stranded memberships only affect
		// derived listings, so log and report success.
		h.Log.Error("cascade membership delete failed",
			zap.String("group_id", groupID.Hex()), zap.Error(err))
	}
	api.WriteJSON(w, http.StatusOK, messageResponse{Message: "group deleted"})
}

// HandleListAdmins lists a group's admins. Visible to admins and members.
func (h *Handler) HandleListAdmins(w http.ResponseWriter, r *http.Request) {
	h.listRole(w, r, models.RoleAdmin)
}

// HandleListMembers lists a group's members. Visible to admins and members.
func (h *Handler) HandleListMembers(w http.ResponseWriter, r *http.Request) {
	h.listRole(w, r, models.RoleMember)
}

// HandleListJoinRequests lists pending join requests. Admins only.
func (h *Handler) HandleListJoinRequests(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, ok := auth.CurrentUser(r)
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, api.KindUnauthorized, "sign in required")
		return
	}
	groupID, ok := groupIDParam(w, r)
	if !ok {
		return
	}
	if !h.requireAdmin(ctx, w, groupID, user.ID) {
		return
	}
	h.writeRoleListing(ctx, w, groupID, models.RoleJoinRequest)
}

// HandleJoin joins the caller to a group: members immediately for public
// groups, a pending join request for private ones.
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, ok := auth.CurrentUser(r)
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, api.KindUnauthorized, "sign in required")
		return
	}
	groupID, ok := groupIDParam(w, r)
	if !ok {
		return
	}

	group, err := h.Groups.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			api.WriteError(w, http.StatusNotFound, api.KindNotFound, "group not found")
			return
		}
		h.Log.Error("load group failed", zap.String("group_id", groupID.Hex()), zap.Error(err))
		api.WriteInternal(w)
		return
	}

	role, err := h.Memberships.Join(ctx, group, user.ID)
	if err != nil {
		h.writeMembershipError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, joinResponse{Role: role})
}

// HandleApprove flips a target's join request to membership. Admins only.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	h.membershipAction(w, r, h.Memberships.ApproveRequest)
}

// HandlePromote raises a target member to admin. Admins only.
func (h *Handler) HandlePromote(w http.ResponseWriter, r *http.Request) {
	h.membershipAction(w, r, h.Memberships.Promote)
}

// HandleRemove deletes a target's membership or join request. Admins only;
// removing the last admin is refused.
func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	h.membershipAction(w, r, h.Memberships.Remove)
}

// HandleLeave removes the caller's own membership. The last admin may not
// leave.
func (h *Handler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, ok := auth.CurrentUser(r)
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, api.KindUnauthorized, "sign in required")
		return
	}
	groupID, ok := groupIDParam(w, r)
	if !ok {
		return
	}
	if err := h.Memberships.Leave(ctx, groupID, user.ID); err != nil {
		h.writeMembershipError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, messageResponse{Message: "left group"})
}

// membershipAction runs an admin-driven transition against a target user
// named in the request body.
func (h *Handler) membershipAction(
	w http.ResponseWriter,
	r *http.Request,
	action func(ctx context.Context, groupID, adminID, targetID primitive.ObjectID) error,
) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, ok := auth.CurrentUser(r)
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, api.KindUnauthorized, "sign in required")
		return
	}
	groupID, ok := groupIDParam(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBodySize)
	var req targetRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.KindValidationFailed, "invalid request body")
		return
	}
	targetID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, api.KindValidationFailed, "userId must be a valid ID")
		return
	}

	if err := action(ctx, groupID, user.ID, targetID); err != nil {
		h.writeMembershipError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, messageResponse{Message: "ok"})
}

func (h *Handler) listRole(w http.ResponseWriter, r *http.Request, role string) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, ok := auth.CurrentUser(r)
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, api.KindUnauthorized, "sign in required")
		return
	}
	groupID, ok := groupIDParam(w, r)
	if !ok {
		return
	}

	allowed, err := grouppolicy.CanViewMembers(ctx, h.DB, groupID, user.ID)
	if err != nil {
		h.Log.Error("member visibility check failed",
			zap.String("group_id", groupID.Hex()), zap.Error(err))
		api.WriteInternal(w)
		return
	}
	if !allowed {
		api.WriteError(w, http.StatusUnauthorized, api.KindUnauthorized, "only group members can view the roster")
		return
	}
	h.writeRoleListing(ctx, w, groupID, role)
}

func (h *Handler) writeRoleListing(ctx context.Context, w http.ResponseWriter, groupID primitive.ObjectID, role string) {
	ids, err := h.Memberships.UserIDsByGroupRole(ctx, groupID, role)
	if err != nil {
		h.Log.Error("list memberships failed",
			zap.String("group_id", groupID.Hex()), zap.String("role", role), zap.Error(err))
		api.WriteInternal(w)
		return
	}
	users, err := h.Users.ListByIDs(ctx, ids)
	if err != nil {
		h.Log.Error("load member users failed",
			zap.String("group_id", groupID.Hex()), zap.Error(err))
		api.WriteInternal(w)
		return
	}

	summaries := make([]userSummary, 0, len(users))
	for _, u := range users {
		summaries = append(summaries, userSummary{
			ID:           u.ID.Hex(),
			FirstName:    u.FirstName,
			LastName:     u.LastName,
			ProfileImage: u.ProfileImage,
			UserType:     u.UserType,
			Division:     u.Division,
		})
	}
	api.WriteJSON(w, http.StatusOK, summaries)
}

// requireAdmin writes the error response and returns false unless userID is
// an admin of the group.
func (h *Handler) requireAdmin(ctx context.Context, w http.ResponseWriter, groupID, userID primitive.ObjectID) bool {
	isAdmin, err := grouppolicy.IsAdmin(ctx, h.DB, groupID, userID)
	if err != nil {
		h.Log.Error("admin check failed",
			zap.String("group_id", groupID.Hex()), zap.Error(err))
		api.WriteInternal(w)
		return false
	}
	if !isAdmin {
		api.WriteError(w, http.StatusUnauthorized, api.KindUnauthorized, "action reserved for group admins")
		return false
	}
	return true
}

func (h *Handler) writeMembershipError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, membershipstore.ErrAlreadyAssociated):
		api.WriteError(w, http.StatusConflict, api.KindConflict, err.Error())
	case errors.Is(err, membershipstore.ErrNotAdmin):
		api.WriteError(w, http.StatusUnauthorized, api.KindUnauthorized, err.Error())
	case errors.Is(err, membershipstore.ErrNotFound):
		api.WriteError(w, http.StatusNotFound, api.KindNotFound, err.Error())
	case errors.Is(err, membershipstore.ErrLastAdmin):
		api.WriteError(w, http.StatusBadRequest, api.KindInvariantViolation, err.Error())
	default:
		h.Log.Error("membership transition failed", zap.Error(err))
		api.WriteInternal(w)
	}
}

func groupIDParam(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, api.KindValidationFailed, "invalid group id")
		return primitive.NilObjectID, false
	}
	return id, true
}

func normalizeAccessibility(s string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return models.AccessibilityPublic, true
	case models.AccessibilityPublic:
		return models.AccessibilityPublic, true
	case models.AccessibilityPrivate:
		return models.AccessibilityPrivate, true
	default:
		return "", false
	}
}

func normalizeWhoCanPublish(s string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return models.WhoCanPublishEveryone, true
	case models.WhoCanPublishEveryone:
		return models.WhoCanPublishEveryone, true
	case models.WhoCanPublishAdmins:
		return models.WhoCanPublishAdmins, true
	default:
		return "", false
	}
}
