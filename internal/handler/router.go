package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/internal/middleware"
	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/pkg/auth"
)

// Handlers groups the HTTP handlers mounted under the API prefix.
type Handlers struct {
	Assignments *AssignmentHandler
	Classes     *ClassHandler
	Sessions    *SessionHandler
	Teachers    *TeacherHandler
}

// RegisterRoutes mounts the versioned API on group. Every route requires a
// verified token; mutations are further restricted by role.
func RegisterRoutes(group *gin.RouterGroup, h Handlers, verifier middleware.TokenVerifier) {
	admin := middleware.RequireRoles(auth.RoleAdmin, auth.RoleSuperAdmin)
	attendance := middleware.RequireRoles(auth.RoleAdmin, auth.RoleSuperAdmin, auth.RoleTeacher)

	api := group.Group("")
	api.Use(middleware.JWT(verifier), middleware.WithResponseMeta())

	api.PUT("/assignments", admin, h.Assignments.Upsert)
	api.DELETE("/assignments", admin, h.Assignments.Remove)
	api.GET("/teachers/:id/assignments", h.Assignments.ListByTeacher)

	api.GET("/classes/:id/assignments", h.Classes.Assignments)
	api.GET("/classes/:id/roster", h.Classes.Roster)
	api.GET("/classes/:id/findings", h.Classes.Findings)
	api.GET("/classes/:id/attendance-summary", h.Classes.AttendanceSummary)
	api.GET("/audits/assignments", admin, h.Classes.Audit)

	api.POST("/sessions", admin, h.Sessions.Create)
	api.GET("/sessions/:id", h.Sessions.Get)
	api.GET("/sessions/:id/expected", h.Sessions.Expected)
	api.GET("/sessions/:id/reconciliation", h.Sessions.Reconciliation)
	api.POST("/sessions/:id/open", attendance, h.Sessions.Open)
	api.POST("/sessions/:id/close", attendance, h.Sessions.Close)
	api.POST("/sessions/:id/teachers", attendance, h.Sessions.RecordTeacher)
	api.PUT("/sessions/:id/students/:studentId", attendance, h.Sessions.RecordStudent)

	api.POST("/teachers", admin, h.Teachers.Create)
	api.GET("/teachers/:id", h.Teachers.Get)
	api.DELETE("/teachers/:id", admin, h.Teachers.Deactivate)
}

// RegisterProbes mounts the unauthenticated operational endpoints.
func RegisterProbes(r gin.IRouter, metrics *MetricsHandler) {
	r.GET("/health", metrics.Health)
	r.GET("/ready", metrics.Ready)
	r.GET("/metrics", metrics.Prometheus)
}
