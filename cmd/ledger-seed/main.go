package main

import (
	"context"
	"flag"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/tuition-ledger-api/internal/models"
	"github.com/noah-isme/tuition-ledger-api/internal/repository"
	"github.com/noah-isme/tuition-ledger-api/internal/service"
	"github.com/noah-isme/tuition-ledger-api/pkg/config"
	"github.com/noah-isme/tuition-ledger-api/pkg/database"
	appErrors "github.com/noah-isme/tuition-ledger-api/pkg/errors"
	"github.com/noah-isme/tuition-ledger-api/pkg/logger"
)

type catalogEntry struct {
	program string
	name    string
	price   string
}

var defaultCatalog = []catalogEntry{
	{"SOFTWARE ENGINEERING", "Programming Fundamentals", "450.00"},
	{"SOFTWARE ENGINEERING", "Data Structures", "500.00"},
	{"SOFTWARE ENGINEERING", "Databases", "400.00"},
	{"INFO MANAGEMENT", "Information Systems", "350.00"},
	{"INFO MANAGEMENT", "Records Management", "300.00"},
	{"INFO MANAGEMENT", "Business Analytics", "420.00"},
	{"NETWORKING", "Routing", "500.00"},
	{"NETWORKING", "Switching", "300.00"},
	{"NETWORKING", "Network Security", "480.00"},
}

func main() {
	var (
		migrate       bool
		seedCatalog   bool
		samples       int
		staffUsername string
		staffSecret   string
		staffName     string
		staffRole     string
		timeout       time.Duration
	)

	flag.BoolVar(&migrate, "migrate", true, "Apply pending schema migrations")
	flag.BoolVar(&seedCatalog, "catalog", false, "Insert the default course catalog when it is empty")
	flag.IntVar(&samples, "samples", 0, "Number of sample students to register")
	flag.StringVar(&staffUsername, "staff-username", "", "Create a staff account with this username")
	flag.StringVar(&staffSecret, "staff-secret", "", "Secret for the staff account")
	flag.StringVar(&staffName, "staff-name", "", "Full name for the staff account")
	flag.StringVar(&staffRole, "staff-role", string(models.RoleRegistrar), "REGISTRAR or ACCOUNTANT")
	flag.DurationVar(&timeout, "timeout", 2*time.Minute, "Overall timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	db, err := database.Open(cfg.Database)
	if err != nil {
		logr.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	if migrate {
		applied, err := database.Migrate(ctx, db)
		if err != nil {
			logr.Fatal("failed to migrate database", zap.Error(err))
		}
		logr.Info("migrations applied", zap.Strings("applied", applied))
	}

	validate := validator.New()
	studentRepo := repository.NewStudentRepository(db)
	courseRepo := repository.NewCourseRepository(db)

	if staffUsername != "" {
		auth := service.NewAuthService(repository.NewStaffRepository(db), studentRepo, nil, validate, logr, nil, service.AuthConfig{
			AccessTokenSecret: cfg.JWT.Secret,
			BcryptCost:        cfg.Ledger.BcryptCost,
		})
		user, err := auth.CreateStaff(ctx, models.CreateStaffRequest{
			Username: staffUsername,
			Secret:   staffSecret,
			FullName: staffName,
			Role:     models.UserRole(strings.ToUpper(staffRole)),
		})
		if err != nil {
			logr.Fatal("failed to create staff user", zap.Error(err))
		}
		logr.Info("staff user created", zap.String("username", user.Username), zap.String("role", string(user.Role)))
	}

	if seedCatalog {
		courses := service.NewCourseService(courseRepo, nil, validate, logr, nil, cfg.Ledger.Programs)
		existing, err := courses.List(ctx, "")
		if err != nil {
			logr.Fatal("failed to read catalog", zap.Error(err))
		}
		if len(existing) > 0 {
			logr.Info("catalog already populated, skipping", zap.Int("courses", len(existing)))
		} else {
			for _, entry := range defaultCatalog {
				if _, err := courses.Add(ctx, models.CourseRequest{
					Program: entry.program,
					Name:    entry.name,
					Price:   decimal.RequireFromString(entry.price),
				}); err != nil {
					logr.Fatal("failed to add course", zap.String("course", entry.name), zap.Error(err))
				}
			}
			logr.Info("catalog seeded", zap.Int("courses", len(defaultCatalog)))
		}
	}

	if samples > 0 {
		regNumbers := service.NewRegistrationNumberGenerator(studentRepo, logr, nil)
		enrollment := service.NewEnrollmentService(studentRepo, courseRepo, regNumbers, validate, logr, nil, service.EnrollmentConfig{
			RegistrationYear:    cfg.Ledger.RegistrationYear,
			DefaultSecret:       cfg.Ledger.DefaultStudentSecret,
			RegistrationRetries: cfg.Ledger.RegistrationRetries,
			BcryptCost:          cfg.Ledger.BcryptCost,
			Programs:            cfg.Ledger.Programs,
		})
		res, err := enrollment.GenerateSampleStudents(ctx, samples)
		if err != nil && !appErrors.Is(err, appErrors.ErrPartialFailure) {
			logr.Fatal("failed to generate sample students", zap.Error(err))
		}
		logr.Info("sample students generated",
			zap.Int("requested", res.Requested),
			zap.Int("created", len(res.Created)),
			zap.Int("skipped", res.Skipped),
			zap.Int("failed", res.Failed),
		)
	}
}
