package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/marking-service/internal/cache"
	"github.com/SAP-F-2025/marking-service/internal/events"
	"github.com/SAP-F-2025/marking-service/internal/grading"
	"github.com/SAP-F-2025/marking-service/internal/repositories"
	"github.com/SAP-F-2025/marking-service/internal/validator"
)

// Dependencies are the infrastructure handles the services are built on.
// Redis and Publisher may be nil.
type Dependencies struct {
	DB             *gorm.DB
	Repo           repositories.Repository
	Redis          *redis.Client
	Cache          cache.CacheService
	Engine         *grading.Engine
	Publisher      events.EventPublisher
	Validator      *validator.Validator
	Logger         *slog.Logger
	ReportCacheTTL time.Duration
}

type serviceManager struct {
	deps          Dependencies
	markingScheme MarkingSchemeService
	grading       GradingService
	report        ReportService
	export        ExportService
}

func NewServiceManager(deps Dependencies) ServiceManager {
	report := NewReportService(deps.Repo, deps.Cache, deps.ReportCacheTTL, deps.Logger)
	return &serviceManager{
		deps:          deps,
		markingScheme: NewMarkingSchemeService(deps.Repo, deps.Logger, deps.Validator),
		grading:       NewGradingService(deps.Repo, deps.Engine, report, deps.Logger, deps.Validator),
		report:        report,
		export:        NewExportService(report, deps.Logger),
	}
}

func (m *serviceManager) MarkingScheme() MarkingSchemeService { return m.markingScheme }
func (m *serviceManager) Grading() GradingService             { return m.grading }
func (m *serviceManager) Report() ReportService               { return m.report }
func (m *serviceManager) Export() ExportService               { return m.export }

func (m *serviceManager) Initialize(ctx context.Context) error {
	return m.grading.RecoverInterrupted(ctx)
}

func (m *serviceManager) HealthCheck(ctx context.Context) error {
	if m.deps.DB != nil {
		sqlDB, err := m.deps.DB.DB()
		if err != nil {
			return fmt.Errorf("database handle: %w", err)
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			return fmt.Errorf("database unreachable: %w", err)
		}
	}
	if m.deps.Redis != nil {
		if err := m.deps.Redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis unreachable: %w", err)
		}
	}
	return nil
}

func (m *serviceManager) Shutdown(ctx context.Context) error {
	var errs []error
	if err := m.grading.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("grading shutdown: %w", err))
	}
	if m.deps.Publisher != nil {
		if err := m.deps.Publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("event publisher close: %w", err))
		}
	}
	return errors.Join(errs...)
}
