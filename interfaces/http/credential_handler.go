package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"social-hub/domain/dto"
	"social-hub/domain/model"
	"social-hub/domain/repository"
	"social-hub/infrastructure/logger"
)

type ICredentialHandler interface {
	ListConnections(ctx *gin.Context)
	Connect(ctx *gin.Context)
	Disconnect(ctx *gin.Context)
}

// CredentialHandler manages stored platform connections. Token material is
// accepted on write but never echoed back.
type CredentialHandler struct {
	credRepo repository.ICredential
}

func NewCredentialHandler(credRepo repository.ICredential) ICredentialHandler {
	return &CredentialHandler{credRepo: credRepo}
}

func (h *CredentialHandler) ListConnections(ctx *gin.Context) {
	userID := ctx.GetString("user_id")
	if userID == "" {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized: missing user_id"})
		return
	}
	connected, err := h.credRepo.ListPlatforms(ctx.Request.Context(), userID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	set := make(map[model.Platform]struct{}, len(connected))
	for _, p := range connected {
		set[p] = struct{}{}
	}
	statuses := make([]dto.ConnectionStatus, 0, len(model.AllPlatforms()))
	for _, p := range model.AllPlatforms() {
		status := dto.ConnectionStatus{Platform: p}
		if _, ok := set[p]; ok {
			status.Connected = true
			if cred, err := h.credRepo.Get(ctx.Request.Context(), userID, p); err == nil && cred != nil {
				if cred.ExpiresAt != nil {
					status.ExpiresAt = cred.ExpiresAt.UTC().Format(time.RFC3339)
				}
				status.Scopes = cred.Scopes
			}
		}
		statuses = append(statuses, status)
	}
	ctx.JSON(http.StatusOK, gin.H{"connections": statuses})
}

func (h *CredentialHandler) Connect(ctx *gin.Context) {
	userID := ctx.GetString("user_id")
	if userID == "" {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized: missing user_id"})
		return
	}
	platform := ctx.Param("platform")
	if !model.IsValidPlatform(platform) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "unsupported platform: " + platform})
		return
	}
	var req dto.ConnectReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.AccessToken == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "access_token required"})
		return
	}
	cred := &model.Credential{
		UserID:       userID,
		Platform:     model.Platform(platform),
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
		Scopes:       req.Scopes,
	}
	if req.ExpiresIn > 0 {
		expiry := time.Now().UTC().Add(time.Duration(req.ExpiresIn) * time.Second)
		cred.ExpiresAt = &expiry
	}
	if err := h.credRepo.Upsert(ctx.Request.Context(), cred); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	logger.GetLogger().WithField("platform", platform).WithField("user_id", userID).Info("platform connected")
	ctx.JSON(http.StatusOK, gin.H{"connected": true, "platform": platform})
}

func (h *CredentialHandler) Disconnect(ctx *gin.Context) {
	userID := ctx.GetString("user_id")
	if userID == "" {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized: missing user_id"})
		return
	}
	platform := ctx.Param("platform")
	if !model.IsValidPlatform(platform) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "unsupported platform: " + platform})
		return
	}
	if err := h.credRepo.Delete(ctx.Request.Context(), userID, model.Platform(platform)); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	logger.GetLogger().WithField("platform", platform).WithField("user_id", userID).Info("platform disconnected")
	ctx.JSON(http.StatusOK, gin.H{"connected": false, "platform": platform})
}
