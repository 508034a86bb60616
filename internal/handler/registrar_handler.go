package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tuition-ledger-api/internal/models"
	appErrors "github.com/noah-isme/tuition-ledger-api/pkg/errors"
	"github.com/noah-isme/tuition-ledger-api/pkg/export"
	"github.com/noah-isme/tuition-ledger-api/pkg/response"
)

// ConfirmDeleteHeader must echo the registration number being deleted.
const ConfirmDeleteHeader = "X-Confirm-Delete"

type enrollmentService interface {
	Register(ctx context.Context, req models.RegisterStudentRequest) (*models.RegistrationResult, error)
	GenerateSampleStudents(ctx context.Context, n int) (*models.SampleBatchResult, error)
	DeleteStudent(ctx context.Context, regNumber string) error
	Quote(ctx context.Context, req models.FeeQuoteRequest) (*models.FeeQuote, error)
	Programs() []string
}

type regNumberService interface {
	Next(ctx context.Context, year string) (string, error)
}

type registrarReports interface {
	RegistrarRoster(ctx context.Context) ([]models.RegistrarRosterRow, error)
	ExportRegistrarRoster(ctx context.Context, format export.Format) ([]byte, error)
}

// RegistrarHandler serves the registrar dashboard: registration, roster and deletion.
type RegistrarHandler struct {
	enrollment  enrollmentService
	regNumbers  regNumberService
	reports     registrarReports
	defaultYear string
}

// NewRegistrarHandler constructs the registrar handler. defaultYear is used when the
// registration-number preview is requested without a year.
func NewRegistrarHandler(enrollment enrollmentService, regNumbers regNumberService, reports registrarReports, defaultYear string) *RegistrarHandler {
	return &RegistrarHandler{enrollment: enrollment, regNumbers: regNumbers, reports: reports, defaultYear: defaultYear}
}

// NextRegistrationNumber godoc
// @Summary Preview the next registration number
// @Tags Registrar
// @Produce json
// @Security BearerAuth
// @Param year query string false "Four digit year"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /registrar/registration-number [get]
func (h *RegistrarHandler) NextRegistrationNumber(c *gin.Context) {
	year := c.DefaultQuery("year", h.defaultYear)
	next, err := h.regNumbers.Next(c.Request.Context(), year)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"year": year, "reg_number": next})
}

// Programs godoc
// @Summary List programs students can register for
// @Tags Registrar
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /registrar/programs [get]
func (h *RegistrarHandler) Programs(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.enrollment.Programs())
}

// RegisterStudent godoc
// @Summary Register a student with their courses
// @Description Generates the registration number when none is given and returns the total fee
// @Tags Registrar
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.RegisterStudentRequest true "Registration"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /registrar/students [post]
func (h *RegistrarHandler) RegisterStudent(c *gin.Context) {
	var req models.RegisterStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindFailure(err, "invalid registration payload"))
		return
	}
	res, err := h.enrollment.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// GenerateSamples godoc
// @Summary Generate sample students
// @Description Registers synthetic students through the normal registration path
// @Tags Registrar
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.SampleStudentsRequest true "Count"
// @Success 201 {object} response.Envelope
// @Success 207 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /registrar/students/samples [post]
func (h *RegistrarHandler) GenerateSamples(c *gin.Context) {
	var req models.SampleStudentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindFailure(err, "invalid sample payload"))
		return
	}
	res, err := h.enrollment.GenerateSampleStudents(c.Request.Context(), req.Count)
	switch {
	case err != nil && appErrors.Is(err, appErrors.ErrPartialFailure):
		response.Partial(c, res, err)
	case err != nil:
		response.Error(c, err)
	default:
		response.Created(c, res)
	}
}

// Roster godoc
// @Summary List registered students with their courses
// @Tags Registrar
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /registrar/students [get]
func (h *RegistrarHandler) Roster(c *gin.Context) {
	rows, err := h.reports.RegistrarRoster(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, map[string]interface{}{"total": len(rows)})
}

// ExportRoster godoc
// @Summary Export the registrar roster
// @Tags Registrar
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /registrar/roster/export [get]
func (h *RegistrarHandler) ExportRoster(c *gin.Context) {
	sendExport(c, "registrar-roster", func(f export.Format) ([]byte, error) {
		return h.reports.ExportRegistrarRoster(c.Request.Context(), f)
	})
}

// DeleteStudent godoc
// @Summary Delete a student with all enrollments and payments
// @Description The X-Confirm-Delete header must repeat the registration number
// @Tags Registrar
// @Produce json
// @Security BearerAuth
// @Param regNumber path string true "Registration number"
// @Param X-Confirm-Delete header string true "Registration number again"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /registrar/students/{regNumber} [delete]
func (h *RegistrarHandler) DeleteStudent(c *gin.Context) {
	regNumber := strings.TrimSpace(c.Param("regNumber"))
	if confirm := strings.TrimSpace(c.GetHeader(ConfirmDeleteHeader)); confirm == "" || confirm != regNumber {
		response.Error(c, appErrors.Clone(appErrors.ErrPreconditionFailed, ConfirmDeleteHeader+" must repeat the registration number"))
		return
	}
	if err := h.enrollment.DeleteStudent(c.Request.Context(), regNumber); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Quote godoc
// @Summary Price a course selection
// @Tags Registrar
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.FeeQuoteRequest true "Course ids"
// @Success 200 {object} response.Envelope
// @Router /registrar/fees/quote [post]
func (h *RegistrarHandler) Quote(c *gin.Context) {
	var req models.FeeQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindFailure(err, "invalid quote payload"))
		return
	}
	quote, err := h.enrollment.Quote(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, quote)
}
