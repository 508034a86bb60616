package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/tuition-ledger-api/internal/models"
	"github.com/noah-isme/tuition-ledger-api/internal/repository"
	appErrors "github.com/noah-isme/tuition-ledger-api/pkg/errors"
	"github.com/noah-isme/tuition-ledger-api/pkg/money"
)

type courseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*models.Course, error)
	List(ctx context.Context, program string) ([]models.Course, error)
	CountEnrollments(ctx context.Context, courseID string) (int, error)
}

// CourseService manages the registrar course catalog.
type CourseService struct {
	repo      courseRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
	programs  []string
}

// NewCourseService constructs the catalog service. A nil cache disables caching.
func NewCourseService(repo courseRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService, programs []string) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(programs) == 0 {
		programs = DefaultPrograms
	}
	return &CourseService{repo: repo, cache: cache, validator: validate, logger: logger, metrics: metrics, programs: programs}
}

func (s *CourseService) normalise(req models.CourseRequest) (models.CourseRequest, error) {
	req.Program = strings.TrimSpace(req.Program)
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return req, validationFailure(err, "invalid course payload")
	}
	known := false
	for _, p := range s.programs {
		if p == req.Program {
			known = true
			break
		}
	}
	if !known {
		return req, validationFailure(nil, fmt.Sprintf("unknown program %q", req.Program))
	}
	if req.Price.IsNegative() {
		return req, validationFailure(nil, "price must not be negative")
	}
	price, err := money.Normalize(req.Price)
	if err != nil {
		return req, validationFailure(err, err.Error())
	}
	req.Price = price
	return req, nil
}

// Add creates an active-semester course.
func (s *CourseService) Add(ctx context.Context, req models.CourseRequest) (*models.Course, error) {
	req, err := s.normalise(req)
	if err != nil {
		return nil, err
	}
	course := &models.Course{
		Program:  req.Program,
		Name:     req.Name,
		Price:    req.Price,
		Semester: models.ActiveSemester,
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, storeFailure(s.logger, s.metrics, "create course", err)
	}
	s.invalidate(ctx)
	return course, nil
}

// Get returns one course.
func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.courseError("load course", err)
	}
	return course, nil
}

// Update changes a course. Once students are enrolled the price and program are locked, so an
// enrolled student's total fee only moves when their enrollments do.
func (s *CourseService) Update(ctx context.Context, id string, req models.CourseRequest) (*models.Course, error) {
	req, err := s.normalise(req)
	if err != nil {
		return nil, err
	}
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.courseError("load course", err)
	}

	if !current.Price.Equal(req.Price) || current.Program != req.Program {
		enrolled, err := s.repo.CountEnrollments(ctx, id)
		if err != nil {
			return nil, storeFailure(s.logger, s.metrics, "count enrollments", err)
		}
		if enrolled > 0 {
			s.logger.Warn("course change rejected", zap.String("course_id", id), zap.Int("enrollments", enrolled))
			return nil, appErrors.Clone(appErrors.ErrConstraint, "price and program are locked while students are enrolled")
		}
	}

	current.Program = req.Program
	current.Name = req.Name
	current.Price = req.Price
	if err := s.repo.Update(ctx, current); err != nil {
		return nil, s.courseError("update course", err)
	}
	s.invalidate(ctx)
	return current, nil
}

// Delete removes a course that no student is enrolled in.
func (s *CourseService) Delete(ctx context.Context, id string) error {
	enrolled, err := s.repo.CountEnrollments(ctx, id)
	if err != nil {
		return storeFailure(s.logger, s.metrics, "count enrollments", err)
	}
	if enrolled > 0 {
		s.logger.Warn("course delete rejected", zap.String("course_id", id), zap.Int("enrollments", enrolled))
		return appErrors.Wrap(repository.ErrInUse, appErrors.ErrConstraint.Code, appErrors.ErrConstraint.Status, "course has enrolled students")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		appErr := s.courseError("delete course", err)
		if appErr.Code == appErrors.ErrConstraint.Code {
			return appErrors.Wrap(err, appErr.Code, appErr.Status, "course has enrolled students")
		}
		return appErr
	}
	s.invalidate(ctx)
	return nil
}

// List returns the active-semester catalog, optionally for one program.
func (s *CourseService) List(ctx context.Context, program string) ([]models.Course, error) {
	program = strings.TrimSpace(program)
	if courses, ok := s.cache.Courses(ctx, program); ok {
		return courses, nil
	}
	courses, err := s.repo.List(ctx, program)
	if err != nil {
		return nil, storeFailure(s.logger, s.metrics, "list courses", err)
	}
	s.cache.StoreCourses(ctx, program, courses)
	return courses, nil
}

func (s *CourseService) invalidate(ctx context.Context) {
	if err := s.cache.InvalidateCatalog(ctx); err != nil {
		s.logger.Warn("catalog cache left stale", zap.Error(err))
	}
}

func (s *CourseService) courseError(op string, err error) *appErrors.Error {
	appErr := storeFailure(s.logger, s.metrics, op, err)
	if appErr.Code == appErrors.ErrNotFound.Code {
		return appErrors.Wrap(err, appErr.Code, appErr.Status, "course not found")
	}
	return appErr
}
