package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tuition-ledger-api/internal/middleware"
	"github.com/noah-isme/tuition-ledger-api/internal/models"
	appErrors "github.com/noah-isme/tuition-ledger-api/pkg/errors"
	"github.com/noah-isme/tuition-ledger-api/pkg/export"
	"github.com/noah-isme/tuition-ledger-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.Claims(c)
}

func bindFailure(err error, message string) *appErrors.Error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message)
}

// sendExport renders a roster export in the format named by the format query parameter.
func sendExport(c *gin.Context, name string, render func(export.Format) ([]byte, error)) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		response.Error(c, bindFailure(err, "format must be csv or pdf"))
		return
	}
	body, err := render(format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, name+"."+string(format), format.ContentType(), body)
}
