package httpapi

import (
	"net/http"
	"time"

	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/learner"
)

// userView is the public shape of a user record.
type userView struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	About     string     `json:"about,omitempty"`
	Interests []string   `json:"interests,omitempty"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

func viewOf(u *learner.User) userView {
	return userView{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		About:     u.About,
		Interests: u.Interests,
		LastLogin: u.LastLogin,
		CreatedAt: u.CreatedAt,
	}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, token, err := s.auth.Register(req.Username, req.Email, req.Password, req.Role)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"user":  viewOf(user),
		"token": token,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, token, err := s.auth.Login(req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":  viewOf(user),
		"token": token,
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())
	user, err := s.users.Get(identity.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(user))
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())
	var req struct {
		Username  *string   `json:"username"`
		Email     *string   `json:"email"`
		About     *string   `json:"about"`
		Interests *[]string `json:"interests"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := s.users.UpdateProfile(identity.UserID, learner.ProfileUpdate{
		Username:  req.Username,
		Email:     req.Email,
		About:     req.About,
		Interests: req.Interests,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(user))
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := s.auth.ChangePassword(identity.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())
	if err := s.auth.DeleteAccount(identity.UserID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "account deleted"})
}

// handleExportData returns the learner's full record as JSON.
func (s *Server) handleExportData(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())
	user, err := s.users.Get(identity.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="skillforge-data.json"`)
	writeJSON(w, http.StatusOK, user)
}
