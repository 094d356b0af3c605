package services

import (
	"net/http"
	"regexp"
	"strings"
)

const (
	msgLoginPlaceholder    = "Login logic placeholder"
	msgRegisterPlaceholder = "Create account logic placeholder"
	msgInvalidEmail        = "Please enter a valid email address."
)

// same pattern the sign-in forms enforce
var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidEmail reports whether email is acceptable to the account forms.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type messageView struct {
	Message string `json:"message"`
}

func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	s.accountForm(w, r, msgLoginPlaceholder)
}

func (s *Server) registerHandler(w http.ResponseWriter, r *http.Request) {
	s.accountForm(w, r, msgRegisterPlaceholder)
}

// accountForm only validates the email; there are no accounts behind it.
func (s *Server) accountForm(w http.ResponseWriter, r *http.Request, okMessage string) {
	var c credentials
	if err := decodeJSON(r, &c); err != nil {
		writeError(w, r, s.Log, err)
		return
	}
	if !ValidEmail(c.Email) {
		requestLogger(r.Context(), s.Log).Debug("account form rejected: invalid email")
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgInvalidEmail})
		return
	}
	writeJSON(w, http.StatusOK, messageView{Message: okMessage})
}
