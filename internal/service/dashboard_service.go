package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/campuscore/college-admin-api/internal/models"
	"github.com/campuscore/college-admin-api/internal/repository"
	appErrors "github.com/campuscore/college-admin-api/pkg/errors"
)

type facultyStatsProvider interface {
	Stats(ctx context.Context, adminEmail string) (*repository.FacultyStats, error)
}

type departmentStatsProvider interface {
	Stats(ctx context.Context, adminEmail string) (*repository.DepartmentStats, error)
}

type countProvider interface {
	Count(ctx context.Context, adminEmail string) (int, error)
}

type auditReader interface {
	ListRecent(ctx context.Context, resource string, limit int) ([]models.AuditLog, error)
}

type statsCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{})
}

// DashboardService aggregates headline counters for the admin portal. Results
// are cached per admin; every write path invalidates through CacheService.
type DashboardService struct {
	faculty     facultyStatsProvider
	departments departmentStatsProvider
	subjects    countProvider
	classes     countProvider
	audit       auditReader
	cache       statsCache
	logger      *zap.Logger
}

// NewDashboardService constructs a DashboardService. Cache may be nil.
func NewDashboardService(faculty facultyStatsProvider, departments departmentStatsProvider, subjects, classes countProvider, audit auditReader, cache statsCache, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{faculty: faculty, departments: departments, subjects: subjects, classes: classes, audit: audit, cache: cache, logger: logger}
}

// Stats returns dashboard counters scoped to the admin, serving from cache
// when possible.
func (s *DashboardService) Stats(ctx context.Context, adminEmail string) (*models.DashboardStats, error) {
	key := statsCacheKey(adminEmail)
	if s.cache != nil {
		var cached models.DashboardStats
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	facultyStats, err := s.faculty.Stats(ctx, adminEmail)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty stats")
	}
	departmentStats, err := s.departments.Stats(ctx, adminEmail)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department stats")
	}
	subjectCount, err := s.subjects.Count(ctx, adminEmail)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count subjects")
	}
	classCount, err := s.classes.Count(ctx, adminEmail)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count classes")
	}

	stats := &models.DashboardStats{
		TotalFaculty:      facultyStats.Total,
		ActiveFaculty:     facultyStats.Active,
		InactiveFaculty:   facultyStats.Inactive,
		HodCount:          facultyStats.Hods,
		TotalDepartments:  departmentStats.Total,
		ActiveDepartments: departmentStats.Active,
		TotalSubjects:     subjectCount,
		TotalClasses:      classCount,
		GeneratedAt:       time.Now().UTC(),
	}
	if s.cache != nil {
		s.cache.Set(ctx, key, stats)
	}
	return stats, nil
}

// RecentActivity returns the latest audit entries for the given resource.
func (s *DashboardService) RecentActivity(ctx context.Context, resource string, limit int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	entries, err := s.audit.ListRecent(ctx, resource, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load activity")
	}
	if entries == nil {
		entries = []models.AuditLog{}
	}
	return entries, nil
}
