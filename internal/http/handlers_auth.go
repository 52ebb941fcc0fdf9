package http

import (
	"fmt"
	"net/http"

	"spendwise/internal/auth"
	"spendwise/internal/core"
	applog "spendwise/internal/log"
	"spendwise/internal/services"
)

type signinResponse struct {
	Token    string `json:"token"`
	Type     string `json:"type"`
	UserID   int64  `json:"userId"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, applog.OpSignup, err)
		return
	}

	_, err := s.svc.Accounts.Signup(r.Context(), services.SignupRequest{
		Name:     sanitizeInput(req.Name),
		Email:    req.Email,
		Password: req.Password,
		Currency: req.Currency,
	})
	if err != nil {
		writeError(w, r, applog.OpSignup, err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "User registered successfully!"})
}

func (s *Server) handleSignin(w http.ResponseWriter, r *http.Request) {
	var req signinRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, applog.OpSignin, err)
		return
	}

	res, err := s.svc.Accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, applog.OpSignin, err)
		return
	}
	writeJSON(w, http.StatusOK, signinResponse{
		Token:    res.Token,
		Type:     auth.TokenType,
		UserID:   res.User.ID,
		Email:    res.User.Email,
		Name:     res.User.Name,
		Currency: res.User.Currency,
	})
}

// requireUser resolves the bearer token to the current user and stores it on
// the request context for the handlers below.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := auth.BearerToken(r.Header.Get("Authorization"))
		if err != nil {
			writeError(w, r, applog.OpRead, fmt.Errorf("%w: %v", core.ErrInvalidCredentials, err))
			return
		}
		user, err := s.svc.Accounts.Authenticate(r.Context(), token)
		if err != nil {
			applog.FromContext(r.Context()).WithComponent(applog.ComponentAuth).InfoContext(r.Context(),
				"Rejected bearer token",
				applog.FieldClientIP, s.detector.ExtractClientIP(r),
				applog.FieldError, err)
			writeError(w, r, applog.OpRead, err)
			return
		}

		ctx := auth.WithUser(r.Context(), user)
		ctx = applog.WithLogger(ctx, applog.FromContext(ctx).With(applog.FieldUserID, user.ID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// currentUser returns the user set by requireUser. Handlers are only mounted
// behind it, so a missing user is a wiring bug.
func currentUser(r *http.Request) core.User {
	u, ok := auth.UserFrom(r.Context())
	if !ok {
		panic("http: handler mounted without requireUser")
	}
	return u
}
