package rest

import (
	"net/http"
	"strings"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type renameRequest struct {
	Username string `json:"username"`
}

// login accepts either an OAuth2-style form or a JSON body.
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var c credentials

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			writeError(w, errInvalidBody)
			return
		}
		c.Username, c.Password = r.PostForm.Get("username"), r.PostForm.Get("password")
	} else if err := decode(r, &c); err != nil {
		writeError(w, err)
		return
	}

	session, err := s.deps.Users.Authenticate(r.Context(), c.Username, c.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	s.logger.Info(r.Context(), "Logged in", "user_id", session.UserID)
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := decode(r, &c); err != nil {
		writeError(w, err)
		return
	}

	user, err := s.deps.Users.Register(r.Context(), c.Username, c.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	s.logger.Info(r.Context(), "Registered", "user_id", user.ID)
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUser(r.Context()))
}

func (s *Server) rename(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := s.deps.Users.Rename(r.Context(), currentUser(r.Context()).ID, req.Username)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) deleteMe(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())
	if err := s.deps.Users.Delete(r.Context(), user.ID); err != nil {
		writeError(w, err)
		return
	}

	s.logger.Info(r.Context(), "Deleted account", "user_id", user.ID)
	w.WriteHeader(http.StatusNoContent)
}
