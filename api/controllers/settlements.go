package controllers

import (
	"net/http"

	"github.com/showsettle/showsettle-backend/api/responses"
	"github.com/showsettle/showsettle-backend/api/validators"
	"github.com/showsettle/showsettle-backend/internal/settlement"
	"github.com/showsettle/showsettle-backend/pkg/logger"
)

type settlementPreviewResponse struct {
	Input  settlement.Input   `json:"input"`
	Result *settlement.Result `json:"result"`
}

// SettlementPreview computes a settlement without persisting anything, so the
// calculator can run before a show is saved.
func SettlementPreview(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input settlement.Input
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := settlement.Compute(input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, settlementPreviewResponse{Input: input, Result: result})
	}
}
