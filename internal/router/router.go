package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/educenter-api/internal/handler"
	"github.com/noah-isme/educenter-api/internal/middleware"
	"github.com/noah-isme/educenter-api/internal/models"
	"github.com/noah-isme/educenter-api/internal/service"
	"github.com/noah-isme/educenter-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/educenter-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/educenter-api/pkg/middleware/requestid"
)

// Handlers groups the HTTP handlers mounted by New.
type Handlers struct {
	Groups      *handler.GroupHandler
	Enrollments *handler.EnrollmentHandler
	Lessons     *handler.LessonHandler
	Attendance  *handler.AttendanceHandler
	Homework    *handler.HomeworkHandler
	Metrics     *handler.MetricsHandler
}

// Deps carries everything New needs to build the engine.
type Deps struct {
	APIPrefix      string
	AllowedOrigins []string
	Logger         *zap.Logger
	Tokens         middleware.TokenValidator
	Audit          middleware.AuditWriter
	Metrics        *service.MetricsService
	Handlers       Handlers
}

var (
	staff          = []models.UserRole{models.RoleSuperAdmin, models.RoleAdmin}
	staffOrTeacher = []models.UserRole{models.RoleSuperAdmin, models.RoleAdmin, models.RoleTeacher}
)

// New builds the gin engine with the global middleware chain and all API routes.
func New(deps Deps) *gin.Engine {
	logr := deps.Logger
	if logr == nil {
		logr = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(deps.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Metrics))
	r.Use(middleware.WithResponseMeta())

	h := deps.Handlers
	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)

	audit := func(action, resource string) gin.HandlerFunc {
		return middleware.Audit(deps.Audit, logr, action, resource)
	}

	api := r.Group(deps.APIPrefix)
	api.Use(middleware.JWT(deps.Tokens))

	groups := api.Group("/groups")
	groups.GET("", middleware.RequireRoles(staff...), h.Groups.List)
	groups.GET("/archive", middleware.RequireRoles(staff...), h.Groups.Archive)
	groups.GET("/:id", middleware.RequireRoles(staffOrTeacher...), h.Groups.Get)
	groups.GET("/:id/students", middleware.RequireRoles(staffOrTeacher...), h.Groups.Students)
	groups.POST("", middleware.RequireRoles(staff...), audit(models.AuditActionGroupCreate, "group"), h.Groups.Create)
	groups.PATCH("/:id", middleware.RequireRoles(staff...), audit(models.AuditActionGroupUpdate, "group"), h.Groups.Update)
	groups.DELETE("/:id", middleware.RequireRoles(staff...), audit(models.AuditActionGroupDelete, "group"), h.Groups.Delete)

	enrollments := api.Group("/student-groups", middleware.RequireRoles(staff...))
	enrollments.GET("", h.Enrollments.List)
	enrollments.GET("/archive", h.Enrollments.Archive)
	enrollments.POST("", audit(models.AuditActionEnrollmentChange, "student_group"), h.Enrollments.Create)
	enrollments.PUT("/:id", audit(models.AuditActionEnrollmentChange, "student_group"), h.Enrollments.Transfer)
	enrollments.DELETE("/:id", audit(models.AuditActionEnrollmentChange, "student_group"), h.Enrollments.Delete)

	lessons := api.Group("/lessons")
	lessons.GET("", middleware.RequireRoles(staffOrTeacher...), h.Lessons.List)
	lessons.GET("/archive", middleware.RequireRoles(staffOrTeacher...), h.Lessons.Archive)
	lessons.GET("/:id", middleware.RequireRoles(staffOrTeacher...), h.Lessons.Get)
	lessons.GET("/:id/attendance/export", middleware.RequireRoles(staffOrTeacher...), h.Attendance.Export)
	lessons.POST("", middleware.RequireRoles(staffOrTeacher...), audit(models.AuditActionLessonChange, "lesson"), h.Lessons.Create)
	lessons.DELETE("/:id", middleware.RequireRoles(staff...), audit(models.AuditActionLessonChange, "lesson"), h.Lessons.Delete)

	attendance := api.Group("/attendance", middleware.RequireRoles(staffOrTeacher...))
	attendance.GET("/all", h.Attendance.List)
	attendance.POST("", audit(models.AuditActionAttendanceMark, "attendance"), h.Attendance.Record)
	attendance.PATCH("/update/:id", audit(models.AuditActionAttendanceMark, "attendance"), h.Attendance.UpdateByUser)
	attendance.DELETE("/delete/all", audit(models.AuditActionAttendanceClear, "attendance"), h.Attendance.ClearAll)

	homework := api.Group("/homework", middleware.RequireRoles(staffOrTeacher...))
	homework.GET("/all", h.Homework.List)
	homework.POST("", audit(models.AuditActionHomeworkCreate, "homework"), h.Homework.Create)

	return r
}
