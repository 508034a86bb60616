package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tuition-ledger-api/internal/models"
	appErrors "github.com/noah-isme/tuition-ledger-api/pkg/errors"
	"github.com/noah-isme/tuition-ledger-api/pkg/response"
)

type statementService interface {
	StudentStatement(ctx context.Context, studentID string) (*models.StudentStatement, error)
}

type selfPayments interface {
	PayAsStudent(ctx context.Context, studentID string, req models.SelfPaymentRequest) (*models.Payment, error)
	ListPayments(ctx context.Context, studentID string) ([]models.Payment, error)
}

// StudentHandler serves the student self-service view. The student is always the caller;
// no route takes a student id.
type StudentHandler struct {
	statements statementService
	payments   selfPayments
}

// NewStudentHandler constructs the self-service handler.
func NewStudentHandler(statements statementService, payments selfPayments) *StudentHandler {
	return &StudentHandler{statements: statements, payments: payments}
}

func currentStudent(c *gin.Context) (string, bool) {
	claims := claimsFromContext(c)
	if claims == nil || claims.Role != models.RoleStudent {
		response.Error(c, appErrors.ErrUnauthorized)
		return "", false
	}
	return claims.UserID, true
}

// Statement godoc
// @Summary Own profile, courses, payments and fee status
// @Tags Student
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /student/me [get]
func (h *StudentHandler) Statement(c *gin.Context) {
	studentID, ok := currentStudent(c)
	if !ok {
		return
	}
	stmt, err := h.statements.StudentStatement(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stmt)
}

// Payments godoc
// @Summary Own payment history
// @Tags Student
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /student/me/payments [get]
func (h *StudentHandler) Payments(c *gin.Context) {
	studentID, ok := currentStudent(c)
	if !ok {
		return
	}
	payments, err := h.payments.ListPayments(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payments)
}

// Pay godoc
// @Summary Pay towards own fee
// @Description Dated today; method must be one of the self-service channels
// @Tags Student
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.SelfPaymentRequest true "Payment"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /student/me/payments [post]
func (h *StudentHandler) Pay(c *gin.Context) {
	studentID, ok := currentStudent(c)
	if !ok {
		return
	}
	var req models.SelfPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindFailure(err, "invalid payment payload"))
		return
	}
	payment, err := h.payments.PayAsStudent(c.Request.Context(), studentID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, payment)
}
