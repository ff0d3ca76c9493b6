package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"social-hub/domain/dto"
	"social-hub/domain/model"
	"social-hub/infrastructure/logger"
	"social-hub/usecase"
)

type IPublishHandler interface {
	Publish(ctx *gin.Context)
}

type PublishHandler struct {
	publishUsecase usecase.IPublishUsecase
}

func NewPublishHandler(uc usecase.IPublishUsecase) IPublishHandler {
	return &PublishHandler{publishUsecase: uc}
}

// Publish fans content out to the requested platforms. The HTTP status only
// reflects request validity; per-platform failures ride inside the results.
func (h *PublishHandler) Publish(ctx *gin.Context) {
	userID := ctx.GetString("user_id")
	if userID == "" {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized: missing user_id"})
		return
	}
	var req dto.PublishReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	platforms := req.Normalize()
	modelReq := &model.PublishRequest{
		Content:  req.Content,
		ImageURL: req.Image,
	}
	for _, p := range platforms {
		modelReq.Platforms = append(modelReq.Platforms, model.Platform(p))
	}
	if len(req.Extras) > 0 {
		modelReq.Extras = make(map[model.Platform]model.PlatformExtras, len(req.Extras))
		for p, e := range req.Extras {
			modelReq.Extras[model.Platform(p)] = e
		}
	}

	results, err := h.publishUsecase.Publish(ctx.Request.Context(), userID, modelReq)
	if err != nil {
		logger.GetLogger().WithField("user_id", userID).WithField("error", err.Error()).Warn("publish request rejected")
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, dto.PublishRes{Success: true, Results: results})
}
