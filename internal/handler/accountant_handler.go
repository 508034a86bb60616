package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tuition-ledger-api/internal/models"
	"github.com/noah-isme/tuition-ledger-api/pkg/export"
	"github.com/noah-isme/tuition-ledger-api/pkg/response"
)

type paymentLedger interface {
	RecordPayment(ctx context.Context, req models.RecordPaymentRequest) (*models.Payment, error)
	ListPayments(ctx context.Context, studentID string) ([]models.Payment, error)
	LoadSummary(ctx context.Context, studentID string) (*models.FeeSummary, error)
}

type accountantReports interface {
	AccountantRoster(ctx context.Context) ([]models.AccountantRosterRow, error)
	ExportAccountantRoster(ctx context.Context, format export.Format) ([]byte, error)
}

// AccountantHandler serves the accountant dashboard.
type AccountantHandler struct {
	payments paymentLedger
	reports  accountantReports
}

// NewAccountantHandler constructs the accountant handler.
func NewAccountantHandler(payments paymentLedger, reports accountantReports) *AccountantHandler {
	return &AccountantHandler{payments: payments, reports: reports}
}

// Roster godoc
// @Summary Fee status of every student
// @Tags Accountant
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /accountant/roster [get]
func (h *AccountantHandler) Roster(c *gin.Context) {
	rows, err := h.reports.AccountantRoster(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, map[string]interface{}{"total": len(rows)})
}

// ExportRoster godoc
// @Summary Export the fee roster
// @Tags Accountant
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /accountant/roster/export [get]
func (h *AccountantHandler) ExportRoster(c *gin.Context) {
	sendExport(c, "fee-roster", func(f export.Format) ([]byte, error) {
		return h.reports.ExportAccountantRoster(c.Request.Context(), f)
	})
}

// StudentPayments godoc
// @Summary Payments of one student, most recent first
// @Tags Accountant
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /accountant/students/{id}/payments [get]
func (h *AccountantHandler) StudentPayments(c *gin.Context) {
	payments, err := h.payments.ListPayments(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payments)
}

// StudentSummary godoc
// @Summary Fee summary and status of one student
// @Tags Accountant
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /accountant/students/{id}/summary [get]
func (h *AccountantHandler) StudentSummary(c *gin.Context) {
	summary, err := h.payments.LoadSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary.View())
}

// RecordPayment godoc
// @Summary Record a payment on behalf of a student
// @Tags Accountant
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.RecordPaymentRequest true "Payment"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /accountant/payments [post]
func (h *AccountantHandler) RecordPayment(c *gin.Context) {
	var req models.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindFailure(err, "invalid payment payload"))
		return
	}
	payment, err := h.payments.RecordPayment(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, payment)
}
