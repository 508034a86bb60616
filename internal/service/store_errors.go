package service

import (
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/tuition-ledger-api/internal/repository"
	appErrors "github.com/noah-isme/tuition-ledger-api/pkg/errors"
)

// storeFailure converts a repository error into the API taxonomy. Outages are logged at
// Error and counted; constraint rejections are logged at Warn. Nothing is retried here.
func storeFailure(logger *zap.Logger, metrics *MetricsService, op string, err error, fields ...zap.Field) *appErrors.Error {
	fields = append(fields, zap.String("operation", op), zap.Error(err))
	switch {
	case errors.Is(err, repository.ErrUnavailable):
		logger.Error("store unavailable", fields...)
		metrics.RecordStoreFailure(op)
		return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "store unavailable, try again later")
	case errors.Is(err, repository.ErrDuplicate):
		logger.Warn("duplicate record rejected", fields...)
		return appErrors.Wrap(err, appErrors.ErrConstraint.Code, appErrors.ErrConstraint.Status, "record already exists")
	case errors.Is(err, repository.ErrReferenceMissing):
		logger.Warn("missing reference rejected", fields...)
		return appErrors.Wrap(err, appErrors.ErrConstraint.Code, appErrors.ErrConstraint.Status, "referenced record does not exist")
	case errors.Is(err, repository.ErrInUse):
		logger.Warn("referenced record protected", fields...)
		return appErrors.Wrap(err, appErrors.ErrConstraint.Code, appErrors.ErrConstraint.Status, "record is still in use")
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "resource not found")
	default:
		logger.Error("store operation failed", fields...)
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to "+op)
	}
}

func validationFailure(err error, message string) *appErrors.Error {
	if err == nil {
		return appErrors.Clone(appErrors.ErrValidation, message)
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}
