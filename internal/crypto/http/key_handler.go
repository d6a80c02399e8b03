// Package http provides HTTP handlers for key inspection and rotation.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	cryptoDomain "github.com/allisson/rotavault/internal/crypto/domain"
	"github.com/allisson/rotavault/internal/crypto/http/dto"
	cryptoUseCase "github.com/allisson/rotavault/internal/crypto/usecase"
	"github.com/allisson/rotavault/internal/httputil"
	customValidation "github.com/allisson/rotavault/internal/validation"
)

// KeyHandler handles HTTP requests for the service's key versions.
type KeyHandler struct {
	keyUseCase cryptoUseCase.KeyUseCase
	keyring    cryptoUseCase.Keyring
	logger     *slog.Logger
}

// NewKeyHandler creates a new key handler operating on keyring.
func NewKeyHandler(
	keyUseCase cryptoUseCase.KeyUseCase,
	keyring cryptoUseCase.Keyring,
	logger *slog.Logger,
) *KeyHandler {
	return &KeyHandler{
		keyUseCase: keyUseCase,
		keyring:    keyring,
		logger:     logger,
	}
}

// InfoHandler returns the current key version and the known versions.
// GET /v1/keys
func (h *KeyHandler) InfoHandler(c *gin.Context) {
	c.JSON(http.StatusOK, dto.MapKeyInfoToResponse(h.keyUseCase.Info(h.keyring)))
}

// RotateHandler switches new encryptions to a greater key version. Existing secrets are
// not re-encrypted; use POST /v1/secrets/migrate for that.
// POST /v1/keys/rotate
func (h *KeyHandler) RotateHandler(c *gin.Context) {
	var req dto.RotateKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	rotated, err := h.keyUseCase.Rotate(c.Request.Context(), h.keyring, *req.Version)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	if !rotated {
		httputil.HandleErrorGin(c, cryptoDomain.ErrRotationRejected, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.RotateKeyResponse{
		Rotated:        true,
		CurrentVersion: h.keyring.CurrentVersion(),
	})
}
