// Package handlers provides HTTP handlers for the nutrition API
package handlers

import (
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/alchemorsel/nutrition/internal/infrastructure/http/response"
	"github.com/alchemorsel/nutrition/internal/ports/inbound"
	apperrors "github.com/alchemorsel/nutrition/pkg/errors"
	"github.com/alchemorsel/nutrition/pkg/logger"
)

// analyzeRequest is the query string of GET /api/nutrition
type analyzeRequest struct {
	Query string `validate:"required"`
}

// NutritionAPIHandlers handles nutrition lookups
type NutritionAPIHandlers struct {
	service   inbound.NutritionService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewNutritionAPIHandlers creates a new handlers instance
func NewNutritionAPIHandlers(service inbound.NutritionService, logger *zap.Logger) *NutritionAPIHandlers {
	return &NutritionAPIHandlers{
		service:   service,
		validator: validator.New(),
		logger:    logger.Named("nutrition-api"),
	}
}

// Analyze handles GET /api/nutrition?q=...
func (h *NutritionAPIHandlers) Analyze(w http.ResponseWriter, r *http.Request) {
	requestID := chimiddleware.GetReqID(r.Context())
	log := logger.FromContext(r.Context(), h.logger)

	req := analyzeRequest{Query: strings.TrimSpace(r.URL.Query().Get("q"))}
	if err := h.validator.Struct(req); err != nil {
		response.Error(w, apperrors.NewMissingParameterError("q").WithCause(err), requestID, log)
		return
	}

	analysis, err := h.service.Analyze(r.Context(), req.Query)
	if err != nil {
		appErr := apperrors.Wrap(err, "Nutrition analysis failed")
		log.Error("Nutrition request failed",
			zap.String("code", string(appErr.Code)),
			zap.Error(err),
		)
		response.Error(w, appErr, requestID, log)
		return
	}

	response.JSON(w, http.StatusOK, analysis, log)
}
