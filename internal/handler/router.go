package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/tuition-ledger-api/internal/middleware"
	"github.com/noah-isme/tuition-ledger-api/internal/models"
)

// Router groups the handlers mounted under the API prefix.
type Router struct {
	Auth       *AuthHandler
	Registrar  *RegistrarHandler
	Courses    *CourseHandler
	Accountant *AccountantHandler
	Student    *StudentHandler
	Metrics    *MetricsHandler

	Tokens middleware.TokenValidator
	Audit  middleware.AuditRecorder
	Logger *zap.Logger
}

// Register mounts every route on api. Each role only reaches its own group.
func (r *Router) Register(api *gin.RouterGroup) {
	audit := func(action, resource string, idParams ...string) gin.HandlerFunc {
		return middleware.Audit(r.Audit, r.Logger, action, resource, idParams...)
	}

	api.POST("/auth/login", r.Auth.Login)

	secured := api.Group("")
	secured.Use(middleware.JWT(r.Tokens))
	secured.GET("/auth/me", r.Auth.Me)
	secured.GET("/courses", r.Courses.List)

	registrar := secured.Group("/registrar", middleware.RequireRoles(models.RoleRegistrar))
	registrar.GET("/programs", r.Registrar.Programs)
	registrar.GET("/registration-number", r.Registrar.NextRegistrationNumber)
	registrar.GET("/students", r.Registrar.Roster)
	registrar.POST("/students", audit(models.AuditActionStudentCreate, "student"), r.Registrar.RegisterStudent)
	registrar.POST("/students/samples", audit(models.AuditActionStudentCreate, "student"), r.Registrar.GenerateSamples)
	registrar.DELETE("/students/:regNumber", audit(models.AuditActionStudentDelete, "student", "regNumber"), r.Registrar.DeleteStudent)
	registrar.GET("/roster/export", r.Registrar.ExportRoster)
	registrar.POST("/fees/quote", r.Registrar.Quote)
	registrar.GET("/courses", r.Courses.List)
	registrar.POST("/courses", audit(models.AuditActionCourseCreate, "course"), r.Courses.Create)
	registrar.GET("/courses/:id", r.Courses.Get)
	registrar.PUT("/courses/:id", audit(models.AuditActionCourseUpdate, "course", "id"), r.Courses.Update)
	registrar.DELETE("/courses/:id", audit(models.AuditActionCourseDelete, "course", "id"), r.Courses.Delete)

	accountant := secured.Group("/accountant", middleware.RequireRoles(models.RoleAccountant))
	accountant.GET("/roster", r.Accountant.Roster)
	accountant.GET("/roster/export", r.Accountant.ExportRoster)
	accountant.GET("/students/:id/payments", r.Accountant.StudentPayments)
	accountant.GET("/students/:id/summary", r.Accountant.StudentSummary)
	accountant.POST("/payments", audit(models.AuditActionPaymentRecord, "payment"), r.Accountant.RecordPayment)

	student := secured.Group("/student", middleware.RequireRoles(models.RoleStudent))
	student.GET("/me", r.Student.Statement)
	student.GET("/me/payments", r.Student.Payments)
	student.POST("/me/payments", audit(models.AuditActionPaymentRecord, "payment"), r.Student.Pay)

	if r.Metrics != nil {
		secured.GET("/metrics/summary", middleware.RequireRoles(models.RoleRegistrar, models.RoleAccountant), r.Metrics.Summary)
	}
}
