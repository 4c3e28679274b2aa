package handlers

import (
	"context"
	"net/http"

	"billing-backend/internal/billing"
	"billing-backend/internal/middleware"
	"billing-backend/internal/models"
	"billing-backend/internal/services"
	"billing-backend/pkg/utils"
)

// statusForKind maps a failure kind to its HTTP status
func statusForKind(kind billing.ErrorKind) int {
	switch kind {
	case billing.KindValidation, billing.KindCalculation:
		return http.StatusUnprocessableEntity
	case billing.KindNotFound:
		return http.StatusNotFound
	case billing.KindConfirmation:
		return http.StatusConflict
	case billing.KindPermission:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// writeResult renders an operation result, using okStatus on success
func writeResult(w http.ResponseWriter, res services.OperationResult, okStatus int, body interface{}) {
	if res.Success {
		utils.JSON(w, okStatus, body)
		return
	}
	utils.JSON(w, statusForKind(res.ErrorKind), body)
}

// writeFailure renders err in the operation failure shape
func writeFailure(ctx context.Context, w http.ResponseWriter, err error) {
	res := services.Failure(ctx, err)
	utils.JSON(w, statusForKind(res.ErrorKind), res)
}

func principal(r *http.Request) models.Principal {
	p, _ := middleware.PrincipalFromContext(r.Context())
	return p
}
