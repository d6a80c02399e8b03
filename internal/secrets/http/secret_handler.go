// Package http provides HTTP handlers for storing, reading and migrating secrets.
package http

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	cryptoDomain "github.com/allisson/rotavault/internal/crypto/domain"
	"github.com/allisson/rotavault/internal/httputil"
	"github.com/allisson/rotavault/internal/secrets/http/dto"
	secretsUseCase "github.com/allisson/rotavault/internal/secrets/usecase"
	customValidation "github.com/allisson/rotavault/internal/validation"
)

// CurrentVersioner reports the key version new envelopes are sealed under.
type CurrentVersioner interface {
	CurrentVersion() uint
}

// SecretHandler handles HTTP requests for secret operations.
type SecretHandler struct {
	secretManager secretsUseCase.SecretManager
	keyring       CurrentVersioner
	logger        *slog.Logger
}

// NewSecretHandler creates a new secret handler.
func NewSecretHandler(
	secretManager secretsUseCase.SecretManager,
	keyring CurrentVersioner,
	logger *slog.Logger,
) *SecretHandler {
	return &SecretHandler{
		secretManager: secretManager,
		keyring:       keyring,
		logger:        logger,
	}
}

// PutHandler encrypts and stores a secret under the current key version.
// PUT /v1/secrets/:name
func (h *SecretHandler) PutHandler(c *gin.Context) {
	name := c.Param("name")

	var req dto.PutSecretRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	value, err := base64.StdEncoding.DecodeString(req.Value)
	if err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid base64 value: %w", err), h.logger)
		return
	}
	defer cryptoDomain.Zero(value)

	secret, err := h.secretManager.Store(c.Request.Context(), name, value)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapSecretToMetadataResponse(secret))
}

// GetHandler decrypts and returns a secret.
// GET /v1/secrets/:name
func (h *SecretHandler) GetHandler(c *gin.Context) {
	secret, err := h.secretManager.Retrieve(c.Request.Context(), c.Param("name"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	defer cryptoDomain.Zero(secret.Plaintext)

	c.JSON(http.StatusOK, dto.MapSecretToValueResponse(secret))
}

// VersionReportHandler reports how stored secrets are spread across key versions.
// GET /v1/secrets
func (h *SecretHandler) VersionReportHandler(c *gin.Context) {
	report, err := h.secretManager.VersionReport(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapVersionReportToResponse(report))
}

// MigrateHandler re-encrypts stored secrets under the requested key version, or the
// current version when none is given. An empty body is accepted.
// POST /v1/secrets/migrate
func (h *SecretHandler) MigrateHandler(c *gin.Context) {
	var req dto.MigrateSecretsRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httputil.HandleBadRequestGin(c, err, h.logger)
			return
		}
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	target := h.keyring.CurrentVersion()
	if req.TargetVersion != nil {
		target = *req.TargetVersion
	}

	report, err := h.secretManager.MigrateToKeyVersion(c.Request.Context(), target)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapMigrationReportToResponse(report))
}
