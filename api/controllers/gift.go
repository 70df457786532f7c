package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/craftloom/craftloom-backend/api/responses"
	"github.com/craftloom/craftloom-backend/api/validators"
	giftaisvc "github.com/craftloom/craftloom-backend/internal/giftai"
	pkgerrors "github.com/craftloom/craftloom-backend/pkg/errors"
	"github.com/craftloom/craftloom-backend/pkg/logger"
)

// GiftStartBundle queues async gift bundle generation for the buyer.
func GiftStartBundle(svc giftaisvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "gift service unavailable"))
			return
		}

		buyerID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload giftBundleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		job, err := svc.StartBundleJob(r.Context(), buyerID, giftaisvc.BundleInput{
			Occasion:  validators.SanitizeString(payload.Occasion, 120),
			Budget:    payload.Budget,
			Recipient: validators.SanitizeString(payload.Recipient, 120),
			Notes:     validators.SanitizeString(payload.Notes, 500),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusAccepted, job)
	}
}

// GiftGetBundle polls the status of a bundle generation job.
func GiftGetBundle(svc giftaisvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "gift service unavailable"))
			return
		}

		jobID := strings.TrimSpace(chi.URLParam(r, "jobID"))
		if jobID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "missing jobID"))
			return
		}

		job, err := svc.GetBundleJob(r.Context(), jobID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, job)
	}
}

// GiftSearch resolves semantic catalog search against live listings.
func GiftSearch(svc giftaisvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "gift service unavailable"))
			return
		}

		query := strings.TrimSpace(r.URL.Query().Get("q"))
		limit, err := validators.ParseQueryInt(r, "limit", 10, 1, 25)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.SearchCatalog(r.Context(), query, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"query":    query,
			"count":    result.Stats.FoundItems,
			"bundles":  result.Bundles,
			"stats":    result.Stats,
			"warnings": result.Warnings,
		})
	}
}

type giftBundleRequest struct {
	Occasion  string  `json:"occasion" validate:"required,min=2,max=120"`
	Budget    float64 `json:"budget" validate:"omitempty,min=0"`
	Recipient string  `json:"recipient,omitempty"`
	Notes     string  `json:"notes,omitempty"`
}
