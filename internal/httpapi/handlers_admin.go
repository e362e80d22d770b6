package httpapi

import (
	"fmt"
	"net/http"

	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/apperr"
	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/content"
)

// Content caps, enforced at creation time.
const (
	maxCourses         = 10
	maxTopicsPerCourse = 5
)

func (s *Server) handleListTopics(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())
	status := r.URL.Query().Get("status")
	if !identity.IsAdmin() {
		status = content.StatusPublished
	}
	topics, err := s.content.ListTopics(status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, topics)
}

func (s *Server) handleGetTopic(w http.ResponseWriter, r *http.Request) {
	topic, err := s.content.GetTopic(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, topic)
}

func (s *Server) handleListCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := s.content.ListCourses()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, courses)
}

func (s *Server) handleGetCourse(w http.ResponseWriter, r *http.Request) {
	course, err := s.content.GetCourse(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, course)
}

func (s *Server) handleListPaths(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())
	status := r.URL.Query().Get("status")
	if !identity.IsAdmin() {
		status = content.StatusPublished
	}
	paths, err := s.content.ListPaths(status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, paths)
}

func (s *Server) handleGetPath(w http.ResponseWriter, r *http.Request) {
	path, err := s.content.GetPath(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, path)
}

func (s *Server) handleCreateTopic(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())
	var topic content.Topic
	if err := decodeJSON(r, &topic); err != nil {
		writeError(w, err)
		return
	}
	if topic.Title == "" {
		writeError(w, fmt.Errorf("%w: title is required", apperr.ErrValidation))
		return
	}
	topic.CreatorID = identity.UserID

	created, err := s.content.CreateTopic(topic)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateTopic(w http.ResponseWriter, r *http.Request) {
	var topic content.Topic
	if err := decodeJSON(r, &topic); err != nil {
		writeError(w, err)
		return
	}
	topic.ID = r.PathValue("id")

	if err := s.content.UpdateTopic(topic); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "topic updated"})
}

func (s *Server) handleDeleteTopic(w http.ResponseWriter, r *http.Request) {
	if err := s.content.DeleteTopic(r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "topic deleted"})
}

func (s *Server) handleCreateCourse(w http.ResponseWriter, r *http.Request) {
	var course content.Course
	if err := decodeJSON(r, &course); err != nil {
		writeError(w, err)
		return
	}
	if course.Title == "" {
		writeError(w, fmt.Errorf("%w: title is required", apperr.ErrValidation))
		return
	}
	if len(course.Topics) > maxTopicsPerCourse {
		writeError(w, fmt.Errorf("%w: a course may have at most %d topics", apperr.ErrLimitExceeded, maxTopicsPerCourse))
		return
	}

	count, err := s.content.CountCourses()
	if err != nil {
		writeError(w, err)
		return
	}
	if count >= maxCourses {
		writeError(w, fmt.Errorf("%w: course limit (%d) reached", apperr.ErrLimitExceeded, maxCourses))
		return
	}

	created, err := s.content.CreateCourse(course)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateCourse(w http.ResponseWriter, r *http.Request) {
	var course content.Course
	if err := decodeJSON(r, &course); err != nil {
		writeError(w, err)
		return
	}
	course.ID = r.PathValue("id")
	if len(course.Topics) > maxTopicsPerCourse {
		writeError(w, fmt.Errorf("%w: a course may have at most %d topics", apperr.ErrLimitExceeded, maxTopicsPerCourse))
		return
	}

	if err := s.content.UpdateCourse(course); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "course updated"})
}

func (s *Server) handleDeleteCourse(w http.ResponseWriter, r *http.Request) {
	if err := s.content.DeleteCourse(r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "course deleted"})
}

func (s *Server) handleAddSubject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TopicID string `json:"topicId"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	courseID := r.PathValue("id")
	course, err := s.content.GetCourse(courseID)
	if err != nil {
		writeError(w, err)
		return
	}
	if len(course.Topics) >= maxTopicsPerCourse {
		writeError(w, fmt.Errorf("%w: a course may have at most %d topics", apperr.ErrLimitExceeded, maxTopicsPerCourse))
		return
	}

	if err := s.content.AddSubject(courseID, req.TopicID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "subject added"})
}

func (s *Server) handleSetDependency(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SubjectID        string   `json:"subjectId"`
		RequiredSubjects []string `json:"requiredSubjects"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := s.content.SetDependency(r.PathValue("id"), req.SubjectID, req.RequiredSubjects); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "dependency set"})
}

func (s *Server) handleCreatePath(w http.ResponseWriter, r *http.Request) {
	var path content.LearningPath
	if err := decodeJSON(r, &path); err != nil {
		writeError(w, err)
		return
	}
	if path.Title == "" {
		writeError(w, fmt.Errorf("%w: title is required", apperr.ErrValidation))
		return
	}

	created, err := s.content.CreatePath(path)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdatePath(w http.ResponseWriter, r *http.Request) {
	var path content.LearningPath
	if err := decodeJSON(r, &path); err != nil {
		writeError(w, err)
		return
	}
	path.ID = r.PathValue("id")

	if err := s.content.UpdatePath(path); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "learning path updated"})
}

func (s *Server) handleDeletePath(w http.ResponseWriter, r *http.Request) {
	if err := s.content.DeletePath(r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "learning path deleted"})
}

func (s *Server) handleAddCourseToPath(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CourseID string `json:"courseId"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := s.content.AddCourseToPath(r.PathValue("id"), req.CourseID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "course added to path"})
}

func (s *Server) handleRemoveCourseFromPath(w http.ResponseWriter, r *http.Request) {
	if err := s.content.RemoveCourseFromPath(r.PathValue("id"), r.PathValue("courseID")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "course removed from path"})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.List()
	if err != nil {
		writeError(w, err)
		return
	}
	views := make([]userView, 0, len(users))
	for i := range users {
		views = append(views, viewOf(&users[i]))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleSetRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role string `json:"role"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := s.auth.Promote(r.PathValue("id"), req.Role); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "role updated"})
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := s.users.Delete(r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "user deleted"})
}

func (s *Server) handleAssignPath(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PathID string `json:"learningPathId"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if _, err := s.content.GetPath(req.PathID); err != nil {
		writeError(w, err)
		return
	}
	if err := s.users.AssignPath(r.PathValue("id"), req.PathID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "learning path assigned"})
}

func (s *Server) handleUnassignPath(w http.ResponseWriter, r *http.Request) {
	if err := s.users.UnassignPath(r.PathValue("id"), r.PathValue("pathID")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "learning path unassigned"})
}

func (s *Server) handleBroadcast(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message    string   `json:"message"`
		Type       string   `json:"type"`
		Recipients []string `json:"recipients"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Message == "" {
		writeError(w, fmt.Errorf("%w: message is required", apperr.ErrValidation))
		return
	}

	n, err := s.notify.Broadcast(req.Message, req.Type)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	notifications, err := s.notify.List()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notifications)
}

func (s *Server) handleSignups(w http.ResponseWriter, r *http.Request) {
	report, err := s.analytics.Signups()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handlePopularTopics(w http.ResponseWriter, r *http.Request) {
	report, err := s.analytics.PopularTopics()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleCourseCompletion(w http.ResponseWriter, r *http.Request) {
	report, err := s.analytics.CourseCompletion()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleRetention(w http.ResponseWriter, r *http.Request) {
	report, err := s.analytics.Retention()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleEngagement(w http.ResponseWriter, r *http.Request) {
	report, err := s.analytics.Engagement()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleAnalyticsExport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="skillforge-analytics.xlsx"`)
	if err := s.analytics.Export(w); err != nil {
		writeError(w, err)
	}
}
