package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/campuscore/college-admin-api/internal/middleware"
	"github.com/campuscore/college-admin-api/internal/models"
	"github.com/campuscore/college-admin-api/internal/service"
)

// Registry bundles the handlers wired into the router.
type Registry struct {
	Auth       *AuthHandler
	Faculty    *FacultyHandler
	Department *DepartmentHandler
	Subject    *SubjectHandler
	Class      *ClassHandler
	Admin      *AdminHandler
	Dashboard  *DashboardHandler
	Export     *ExportHandler
}

// RegisterRoutes mounts all API routes under the given prefix. Every route
// except login requires a valid access token; admin account management
// additionally requires SUPERADMIN.
func RegisterRoutes(r *gin.Engine, prefix string, registry Registry, authService *service.AuthService) {
	api := r.Group(prefix)

	api.POST("/auth/login", registry.Auth.Login)

	protected := api.Group("")
	protected.Use(middleware.JWT(authService))

	faculty := protected.Group("/faculty")
	{
		faculty.GET("", registry.Faculty.List)
		faculty.POST("", registry.Faculty.Create)
		faculty.GET("/:id", registry.Faculty.Get)
		faculty.PUT("/:id", registry.Faculty.Update)
		faculty.PATCH("/:id/status", registry.Faculty.SetStatus)
		faculty.PATCH("/:id/hod", registry.Faculty.ToggleHod)
		faculty.POST("/:id/demote", registry.Faculty.Demote)
		faculty.DELETE("/:id", registry.Faculty.Delete)
	}

	departments := protected.Group("/departments")
	{
		departments.GET("", registry.Department.List)
		departments.POST("", registry.Department.Create)
		departments.GET("/:id", registry.Department.Get)
		departments.PUT("/:id", registry.Department.Update)
		departments.PATCH("/:id/status", registry.Department.SetStatus)
		departments.POST("/:id/hod", registry.Department.AssignHod)
		departments.PUT("/:id/hod", registry.Department.ReassignHod)
		departments.DELETE("/:id/hod", registry.Department.ReleaseHod)
		departments.DELETE("/:id", registry.Department.Delete)
	}

	subjects := protected.Group("/subjects")
	{
		subjects.GET("", registry.Subject.List)
		subjects.POST("", registry.Subject.Create)
		subjects.POST("/bulk-assign", registry.Subject.BulkAssign)
		subjects.GET("/:id", registry.Subject.Get)
		subjects.PUT("/:id", registry.Subject.Update)
		subjects.DELETE("/:id", registry.Subject.Delete)
	}

	classes := protected.Group("/classes")
	{
		classes.GET("", registry.Class.List)
		classes.POST("", registry.Class.Create)
		classes.GET("/available-coordinators", registry.Class.AvailableCoordinators)
		classes.GET("/:id", registry.Class.Get)
		classes.PUT("/:id", registry.Class.Update)
		classes.PATCH("/:id/status", registry.Class.SetStatus)
		classes.DELETE("/:id", registry.Class.Delete)
	}

	admins := protected.Group("/admins")
	admins.Use(middleware.RequireRoles(models.RoleSuperAdmin))
	{
		admins.GET("", registry.Admin.List)
		admins.POST("", registry.Admin.Create)
		admins.GET("/:id", registry.Admin.Get)
		admins.PUT("/:id", registry.Admin.Update)
		admins.PATCH("/:id/status", registry.Admin.SetStatus)
		admins.POST("/:id/unlock", registry.Admin.Unlock)
		admins.PUT("/:id/password", registry.Admin.ResetPassword)
		admins.DELETE("/:id", registry.Admin.Delete)
	}

	if registry.Dashboard != nil {
		dashboard := protected.Group("/dashboard")
		dashboard.GET("/stats", registry.Dashboard.Stats)
		dashboard.GET("/activity", registry.Dashboard.Activity)
	}

	if registry.Export != nil {
		exports := protected.Group("/exports")
		exports.GET("/faculty", registry.Export.Faculty)
		exports.GET("/departments", registry.Export.Departments)
		if registry.Export.jobs != nil {
			exports.POST("/jobs", registry.Export.CreateJob)
			exports.GET("/jobs/:id", registry.Export.Job)
			// The signed token is the credential here, so no JWT.
			api.GET("/exports/download", registry.Export.Download)
		}
	}
}
