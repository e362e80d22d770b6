// Package httpapi exposes the learning platform over HTTP: auth,
// learner progress and unlock queries, notifications, quizzes and
// admin content management plus analytics.
package httpapi

import (
	"context"
	"net/http"

	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/analytics"
	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/auth"
	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/content"
	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/learner"
	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/notify"
	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/progress"
	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/quiz"
)

// HealthChecker reports whether a backing service is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Server wires the domain services into an http.Handler.
type Server struct {
	auth      *auth.Service
	users     learner.Store
	content   content.Store
	progress  *progress.Service
	notify    *notify.Engine
	hub       *notify.Hub
	analytics *analytics.Service
	quiz      *quiz.Service

	// Optional backends probed by /readyz.
	db    HealthChecker
	cache HealthChecker
}

// Config carries the server's collaborators. Quiz, hub and the health
// checkers may be nil.
type Config struct {
	Auth      *auth.Service
	Users     learner.Store
	Content   content.Store
	Progress  *progress.Service
	Notify    *notify.Engine
	Hub       *notify.Hub
	Analytics *analytics.Service
	Quiz      *quiz.Service
	DB        HealthChecker
	Cache     HealthChecker
}

func NewServer(cfg Config) *Server {
	return &Server{
		auth:      cfg.Auth,
		users:     cfg.Users,
		content:   cfg.Content,
		progress:  cfg.Progress,
		notify:    cfg.Notify,
		hub:       cfg.Hub,
		analytics: cfg.Analytics,
		quiz:      cfg.Quiz,
		db:        cfg.DB,
		cache:     cfg.Cache,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)

	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("GET /api/auth/me", s.requireAuth(s.handleMe))

	mux.HandleFunc("PUT /api/user/profile", s.requireAuth(s.handleUpdateProfile))
	mux.HandleFunc("PUT /api/user/password", s.requireAuth(s.handleChangePassword))
	mux.HandleFunc("DELETE /api/user/account", s.requireAuth(s.handleDeleteAccount))
	mux.HandleFunc("GET /api/user/export", s.requireAuth(s.handleExportData))

	mux.HandleFunc("GET /api/user/courses/{courseID}/subjects/{subjectID}/unlocked", s.requireAuth(s.handleSubjectUnlocked))
	mux.HandleFunc("GET /api/user/learning-paths/{pathID}/topics/{topicID}/unlocked", s.requireAuth(s.handleTopicUnlocked))
	mux.HandleFunc("GET /api/user/learning-paths", s.requireAuth(s.handleAssignedPaths))

	mux.HandleFunc("GET /api/user/progress/courses", s.requireAuth(s.handleCourseProgress))
	mux.HandleFunc("GET /api/user/progress/learning-paths", s.requireAuth(s.handlePathProgress))
	mux.HandleFunc("GET /api/user/progress/completed-topics", s.requireAuth(s.handleCompletedTopics))
	mux.HandleFunc("GET /api/user/progress/viewed-topics", s.requireAuth(s.handleViewedTopics))
	mux.HandleFunc("GET /api/user/progress/recent-activity", s.requireAuth(s.handleRecentActivity))
	mux.HandleFunc("GET /api/user/progress/recently-viewed", s.requireAuth(s.handleRecentlyViewed))

	mux.HandleFunc("POST /api/user/topics/{topicID}/viewed", s.requireAuth(s.handleMarkViewed))
	mux.HandleFunc("POST /api/user/topics/{topicID}/open", s.requireAuth(s.handleOpenTopic))
	mux.HandleFunc("POST /api/user/subjects/{topicID}/complete", s.requireAuth(s.handleCompleteTopic))

	mux.HandleFunc("GET /api/user/notifications", s.requireAuth(s.handleNotificationFeed))
	mux.HandleFunc("POST /api/user/notifications/{id}/read", s.requireAuth(s.handleMarkNotificationRead))
	mux.HandleFunc("POST /api/user/notifications/reminder", s.requireAuth(s.handleReminderCheck))
	mux.HandleFunc("POST /api/user/notifications/achievement", s.requireAuth(s.handleAchievementCheck))
	mux.HandleFunc("GET /ws/notifications", s.requireAuth(s.handleNotificationSocket))

	mux.HandleFunc("POST /api/user/quiz-score", s.requireAuth(s.handleSubmitQuizScore))
	mux.HandleFunc("POST /api/quiz/generate", s.requireAuth(s.handleGenerateQuiz))

	mux.HandleFunc("GET /api/topics", s.requireAuth(s.handleListTopics))
	mux.HandleFunc("GET /api/topics/{id}", s.requireAuth(s.handleGetTopic))
	mux.HandleFunc("GET /api/courses", s.requireAuth(s.handleListCourses))
	mux.HandleFunc("GET /api/courses/{id}", s.requireAuth(s.handleGetCourse))
	mux.HandleFunc("GET /api/learning-paths", s.requireAuth(s.handleListPaths))
	mux.HandleFunc("GET /api/learning-paths/{id}", s.requireAuth(s.handleGetPath))

	mux.HandleFunc("POST /api/admin/topics", s.requireAdmin(s.handleCreateTopic))
	mux.HandleFunc("PUT /api/admin/topics/{id}", s.requireAdmin(s.handleUpdateTopic))
	mux.HandleFunc("DELETE /api/admin/topics/{id}", s.requireAdmin(s.handleDeleteTopic))

	mux.HandleFunc("POST /api/admin/courses", s.requireAdmin(s.handleCreateCourse))
	mux.HandleFunc("PUT /api/admin/courses/{id}", s.requireAdmin(s.handleUpdateCourse))
	mux.HandleFunc("DELETE /api/admin/courses/{id}", s.requireAdmin(s.handleDeleteCourse))
	mux.HandleFunc("POST /api/admin/courses/{id}/subjects", s.requireAdmin(s.handleAddSubject))
	mux.HandleFunc("PUT /api/admin/courses/{id}/dependencies", s.requireAdmin(s.handleSetDependency))

	mux.HandleFunc("POST /api/admin/learning-paths", s.requireAdmin(s.handleCreatePath))
	mux.HandleFunc("PUT /api/admin/learning-paths/{id}", s.requireAdmin(s.handleUpdatePath))
	mux.HandleFunc("DELETE /api/admin/learning-paths/{id}", s.requireAdmin(s.handleDeletePath))
	mux.HandleFunc("POST /api/admin/learning-paths/{id}/courses", s.requireAdmin(s.handleAddCourseToPath))
	mux.HandleFunc("DELETE /api/admin/learning-paths/{id}/courses/{courseID}", s.requireAdmin(s.handleRemoveCourseFromPath))

	mux.HandleFunc("GET /api/admin/users", s.requireAdmin(s.handleListUsers))
	mux.HandleFunc("PUT /api/admin/users/{id}/role", s.requireAdmin(s.handleSetRole))
	mux.HandleFunc("DELETE /api/admin/users/{id}", s.requireAdmin(s.handleDeleteUser))
	mux.HandleFunc("POST /api/admin/users/{id}/learning-paths", s.requireAdmin(s.handleAssignPath))
	mux.HandleFunc("DELETE /api/admin/users/{id}/learning-paths/{pathID}", s.requireAdmin(s.handleUnassignPath))

	mux.HandleFunc("POST /api/admin/notifications", s.requireAdmin(s.handleBroadcast))
	mux.HandleFunc("GET /api/admin/notifications", s.requireAdmin(s.handleListNotifications))

	mux.HandleFunc("GET /api/admin/analytics/user-signups", s.requireAdmin(s.handleSignups))
	mux.HandleFunc("GET /api/admin/analytics/popular-topics", s.requireAdmin(s.handlePopularTopics))
	mux.HandleFunc("GET /api/admin/analytics/course-completion", s.requireAdmin(s.handleCourseCompletion))
	mux.HandleFunc("GET /api/admin/analytics/retention", s.requireAdmin(s.handleRetention))
	mux.HandleFunc("GET /api/admin/analytics/engagement", s.requireAdmin(s.handleEngagement))
	mux.HandleFunc("GET /api/admin/analytics/export", s.requireAdmin(s.handleAnalyticsExport))

	return mux
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.db != nil {
		if err := s.db.HealthCheck(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "database unavailable"})
			return
		}
	}
	if s.cache != nil {
		if err := s.cache.HealthCheck(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "cache unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
