package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/focusstreak/middleware"
	"github.com/cppla/focusstreak/models"
	"github.com/cppla/focusstreak/store"
	"github.com/cppla/focusstreak/streak"
	"github.com/cppla/focusstreak/utils"
)

// StreakController exposes the Record Store over HTTP.
type StreakController struct {
	store store.Store
	clock streak.Clock
}

// UpsertResponse acknowledges a write and reports the server's clock stamp.
type UpsertResponse struct {
	OK        bool      `json:"ok"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewStreakController creates a new controller instance. A nil clock uses the wall clock.
func NewStreakController(s store.Store, clock streak.Clock) *StreakController {
	if clock == nil {
		clock = streak.SystemClock{}
	}
	return &StreakController{store: s, clock: clock}
}

// resolveUserID merges the requested id with the bearer identity, if any.
// It reports false after writing an error response.
func resolveUserID(ctx *gin.Context, requested string) (string, bool) {
	identity, ok := middleware.IdentityUserID(ctx)
	switch {
	case !ok && requested == "":
		utils.Error(ctx, http.StatusBadRequest, "Missing userId")
		return "", false
	case !ok:
		return requested, true
	case requested == "":
		return identity, true
	case requested != identity:
		utils.Error(ctx, http.StatusForbidden, "userId does not match token")
		return "", false
	default:
		return requested, true
	}
}

// GetStreak returns the stored record for ?userId=.
func (s *StreakController) GetStreak(ctx *gin.Context) {
	userID, ok := resolveUserID(ctx, ctx.Query("userId"))
	if !ok {
		return
	}

	rec, err := s.store.Get(ctx.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, "Not found")
			return
		}
		utils.Sugar.Errorw("load streak failed", "userId", userID, "error", err)
		utils.Error(ctx, http.StatusInternalServerError, "Failed to load streak")
		return
	}
	utils.Success(ctx, rec)
}

// UpsertStreak creates or shallow-merges the record named by the body's userId.
func (s *StreakController) UpsertStreak(ctx *gin.Context) {
	var patch models.StreakPatch
	if err := ctx.ShouldBindJSON(&patch); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	userID, ok := resolveUserID(ctx, patch.UserID)
	if !ok {
		return
	}
	patch.UserID = userID

	if err := store.Validate(patch); err != nil {
		utils.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := s.store.Upsert(ctx.Request.Context(), patch, s.clock.Now())
	if err != nil {
		utils.Sugar.Errorw("save streak failed", "userId", userID, "error", err)
		utils.Error(ctx, http.StatusInternalServerError, "Failed to save streak")
		return
	}
	utils.Sugar.Debugw("streak saved", "userId", userID, "currentStreak", rec.CurrentStreak, "goal", rec.Goal)
	utils.Success(ctx, UpsertResponse{OK: true, UpdatedAt: rec.UpdatedAt})
}

// Health reports liveness.
func Health(ctx *gin.Context) {
	utils.Success(ctx, gin.H{"status": "ok"})
}
