package httpapi

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/apperr"
	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/content"
)

func (s *Server) handleSubjectUnlocked(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())
	unlocked, err := s.progress.SubjectUnlocked(r.PathValue("courseID"), r.PathValue("subjectID"), identity.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"unlocked": unlocked})
}

func (s *Server) handleTopicUnlocked(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())
	unlocked, err := s.progress.TopicUnlocked(r.PathValue("pathID"), r.PathValue("topicID"), identity.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"unlocked": unlocked})
}

func (s *Server) handleAssignedPaths(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())
	user, err := s.users.Get(identity.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	paths, err := s.content.PathsByIDs(user.LearningPaths)
	if err != nil {
		writeError(w, err)
		return
	}
	if paths == nil {
		paths = []content.LearningPath{}
	}
	writeJSON(w, http.StatusOK, paths)
}

func (s *Server) handleCourseProgress(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())
	progress, err := s.progress.CourseProgress(identity.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func (s *Server) handlePathProgress(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())
	progress, err := s.progress.PathProgress(identity.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func (s *Server) handleCompletedTopics(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())
	topics, err := s.progress.CompletedTopics(identity.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, topics)
}

func (s *Server) handleViewedTopics(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())
	topics, err := s.progress.ViewedTopics(identity.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, topics)
}

func (s *Server) handleRecentActivity(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())
	activity, err := s.progress.RecentActivity(identity.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, activity)
}

func (s *Server) handleRecentlyViewed(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())
	viewed, err := s.progress.RecentlyViewed(identity.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewed)
}

// handleMarkViewed records a topic view and re-evaluates the
// achievement trigger: view counts hitting a multiple of five fire a
// congratulations notification.
func (s *Server) handleMarkViewed(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())
	added, err := s.progress.MarkViewed(identity.UserID, r.PathValue("topicID"))
	if err != nil {
		writeError(w, err)
		return
	}

	if added && s.notify != nil {
		if _, err := s.notify.EvaluateAchievement(r.Context(), identity.UserID); err != nil {
			slog.Warn("achievement evaluation failed", "user_id", identity.UserID, "error", err)
		}
	}
	writeJSON(w, http.StatusOK, map[string]bool{"added": added})
}

func (s *Server) handleOpenTopic(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())
	if err := s.progress.OpenTopic(identity.UserID, r.PathValue("topicID")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "activity recorded"})
}

func (s *Server) handleCompleteTopic(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())
	if err := s.progress.CompleteTopic(identity.UserID, r.PathValue("topicID")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "topic completed"})
}

func (s *Server) handleNotificationFeed(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())
	feed, err := s.notify.Feed(identity.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, feed)
}

func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())
	if err := s.notify.MarkRead(r.PathValue("id"), identity.UserID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "notification read"})
}

func (s *Server) handleReminderCheck(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())
	n, err := s.notify.EvaluateReminder(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	if n == nil {
		writeJSON(w, http.StatusOK, map[string]any{"created": false})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"created": true, "notification": n})
}

func (s *Server) handleAchievementCheck(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())
	n, err := s.notify.EvaluateAchievement(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	if n == nil {
		writeJSON(w, http.StatusOK, map[string]any{"created": false})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"created": true, "notification": n})
}

func (s *Server) handleNotificationSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		writeError(w, fmt.Errorf("%w: live notifications are not enabled", apperr.ErrNotFound))
		return
	}
	identity, _ := identityFrom(r.Context())
	if err := s.hub.Serve(r.Context(), w, r, identity.UserID); err != nil {
		slog.Warn("websocket session ended", "user_id", identity.UserID, "error", err)
	}
}

func (s *Server) handleSubmitQuizScore(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())
	var req struct {
		CourseID string `json:"courseId"`
		Score    int    `json:"score"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	best, updated, err := s.progress.SubmitQuizScore(identity.UserID, req.CourseID, req.Score)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bestScore": best, "updated": updated})
}

func (s *Server) handleGenerateQuiz(w http.ResponseWriter, r *http.Request) {
	if s.quiz == nil {
		writeError(w, fmt.Errorf("%w: quiz generation is not configured", apperr.ErrExternalService))
		return
	}
	var req struct {
		CourseID string `json:"courseId"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	questions, err := s.quiz.Generate(r.Context(), req.CourseID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"questions": questions})
}
