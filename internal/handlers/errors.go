// internal/handlers/errors.go
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/rifas-backend/internal/i18n"
	"github.com/javajoker/rifas-backend/internal/services"
	"github.com/javajoker/rifas-backend/internal/store"
	"github.com/javajoker/rifas-backend/internal/utils"
)

// Seconds a client should wait before retrying a busy or unavailable call.
const retryAfterSeconds = 1

// respondError maps service errors onto the response envelope.
func respondError(c *gin.Context, err error) {
	lang := utils.GetLangFromContext(c)

	var unavailable *services.UnavailableError
	var verr *services.ValidationError

	switch {
	case errors.As(err, &verr):
		utils.ErrorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR",
			i18n.T(lang, i18n.KeyValidationInvalid, verr.Field),
			[]utils.ValidationError{{Field: verr.Field, Message: verr.Reason}})
	case errors.As(err, &unavailable):
		utils.ConflictResponse(c, "NUMBERS_UNAVAILABLE", i18n.T(lang, i18n.KeyRaffleNumbersUnavailable),
			gin.H{"unavailable": unavailable.Numbers})
	case errors.Is(err, services.ErrRaffleNotFound):
		utils.NotFoundResponse(c, "RAFFLE_NOT_FOUND", i18n.KeyRaffleNotFound)
	case errors.Is(err, services.ErrRaffleClosed):
		utils.ConflictResponse(c, "RAFFLE_CLOSED", i18n.T(lang, i18n.KeyRaffleClosed), nil)
	case errors.Is(err, services.ErrEmptySelection):
		utils.ErrorResponse(c, http.StatusBadRequest, "EMPTY_SELECTION", i18n.T(lang, i18n.KeyRaffleEmptySelection), nil)
	case errors.Is(err, services.ErrInvalidSellerCode):
		utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_SELLER_CODE", i18n.T(lang, i18n.KeySellerInvalidCode), nil)
	case errors.Is(err, services.ErrSellerNotFound):
		utils.NotFoundResponse(c, "SELLER_NOT_FOUND", i18n.KeySellerNotFound)
	case errors.Is(err, services.ErrSellerAlreadyRegistered):
		utils.ConflictResponse(c, "SELLER_ALREADY_REGISTERED", i18n.T(lang, i18n.KeySellerAlreadyRegistered), nil)
	case errors.Is(err, services.ErrCodeSpaceExhausted):
		logrus.WithError(err).Error("Seller code space exhausted")
		utils.ServiceUnavailableResponse(c, "CODE_SPACE_EXHAUSTED", i18n.T(lang, i18n.KeySellerCodeExhausted), retryAfterSeconds)
	case errors.Is(err, services.ErrUserExists):
		utils.ConflictResponse(c, "USER_EXISTS", i18n.T(lang, i18n.KeyAuthUserExists), nil)
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.ErrorResponse(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", i18n.T(lang, i18n.KeyAuthInvalidCredentials), nil)
	case errors.Is(err, services.ErrUserNotFound), errors.Is(err, services.ErrInvalidToken):
		utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthTokenExpired))
	case errors.Is(err, services.ErrFileTooLarge):
		utils.ErrorResponse(c, http.StatusBadRequest, "FILE_TOO_LARGE", i18n.T(lang, i18n.KeyFileTooLarge), nil)
	case errors.Is(err, services.ErrInvalidFileType):
		utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_FILE_TYPE", i18n.T(lang, i18n.KeyFileInvalidType), nil)
	case errors.Is(err, services.ErrBusy):
		utils.ServiceUnavailableResponse(c, "BUSY", i18n.T(lang, i18n.KeyRaffleBusy), retryAfterSeconds)
	case errors.Is(err, store.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		logrus.WithError(err).WithField("request_id", requestid.Get(c)).Error("Store unavailable")
		utils.ServiceUnavailableResponse(c, "STORE_UNAVAILABLE", i18n.T(lang, i18n.KeyStoreUnavailable), retryAfterSeconds)
	default:
		logrus.WithError(err).WithField("request_id", requestid.Get(c)).Error("Unhandled error")
		utils.InternalErrorResponse(c, i18n.T(lang, i18n.KeyInternalError))
	}
}

// bindError answers a malformed request body.
func bindError(c *gin.Context, err error) {
	utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationInvalid, "input"), err.Error())
}
