package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"social-hub/domain/dto"
	"social-hub/infrastructure/logger"
	"social-hub/usecase"
)

type IEngagementHandler interface {
	GetPostEngagement(ctx *gin.Context)
	SyncEngagement(ctx *gin.Context)
}

type EngagementHandler struct {
	engagementUsecase usecase.IEngagementUsecase
}

func NewEngagementHandler(uc usecase.IEngagementUsecase) IEngagementHandler {
	return &EngagementHandler{engagementUsecase: uc}
}

func (h *EngagementHandler) GetPostEngagement(ctx *gin.Context) {
	userID := ctx.GetString("user_id")
	if userID == "" {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized: missing user_id"})
		return
	}
	postID, err := strconv.ParseInt(ctx.Param("postId"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}
	engagement, err := h.engagementUsecase.GetPostEngagement(ctx.Request.Context(), userID, postID)
	if err != nil {
		if err.Error() == "post not found" {
			ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, dto.EngagementRes{PostID: postID, Engagement: engagement})
}

// SyncEngagement triggers an on-demand engagement sync for the caller's posts.
func (h *EngagementHandler) SyncEngagement(ctx *gin.Context) {
	userID := ctx.GetString("user_id")
	if userID == "" {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized: missing user_id"})
		return
	}
	synced, failed, err := h.engagementUsecase.SyncAllPostsEngagement(ctx.Request.Context(), userID)
	if err != nil {
		logger.GetLogger().WithField("user_id", userID).WithField("error", err.Error()).Warn("engagement sync failed")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, dto.SyncRes{Synced: synced, Failed: failed})
}
