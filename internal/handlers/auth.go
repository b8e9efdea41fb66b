package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"ratehub/internal/mail"
	"ratehub/internal/models"
	"ratehub/internal/store"
	"ratehub/internal/token"
	"ratehub/internal/validate"
)

// Auth groups the signup and token-exchange handlers.
type Auth struct {
	users     *store.UserStore
	confirmer *token.Confirmer
	bearer    *token.Bearer
	mailer    mail.Sender
}

// NewAuth creates a new Auth handler group.
func NewAuth(users *store.UserStore, confirmer *token.Confirmer, bearer *token.Bearer, mailer mail.Sender) *Auth {
	return &Auth{
		users:     users,
		confirmer: confirmer,
		bearer:    bearer,
		mailer:    mailer,
	}
}

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Signup registers a user (or re-requests a code for an existing pair)
// and emails a confirmation code. The same (username, email) pair can
// sign up repeatedly; each request invalidates earlier codes. A username
// or email claimed by a different account is rejected.
func (a *Auth) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		fieldError(w, "detail", "invalid JSON body")
		return
	}

	fields := map[string][]string{}
	if req.Username == "" {
		fields["username"] = append(fields["username"], "this field is required")
	} else if strings.EqualFold(req.Username, "me") {
		fields["username"] = append(fields["username"], `"me" is not a valid username`)
	} else if !validate.Username(req.Username) {
		fields["username"] = append(fields["username"], "enter a valid username")
	}
	if req.Email == "" {
		fields["email"] = append(fields["email"], "this field is required")
	} else if !validate.Email(req.Email) {
		fields["email"] = append(fields["email"], "enter a valid email address")
	}
	if len(fields) > 0 {
		fieldErrors(w, fields)
		return
	}

	user, err := a.users.FindByUsername(req.Username)
	if err != nil {
		serverError(w, err, "signup lookup failed")
		return
	}

	switch {
	case user != nil && user.Email == req.Email:
		// Existing pair requesting a fresh code.
	default:
		// The email check comes before the username check, so a request
		// where both belong to different accounts reports the email.
		byEmail, err := a.users.FindByEmail(req.Email)
		if err != nil {
			serverError(w, err, "signup lookup failed")
			return
		}
		if byEmail != nil {
			fieldError(w, "email", "this email is already in use")
			return
		}
		if user != nil {
			fieldError(w, "username", "this username is already taken")
			return
		}

		user, err = a.users.Create(&models.User{
			Username: req.Username,
			Email:    req.Email,
		})
		if err != nil {
			if store.IsConflict(err) {
				fieldError(w, "username", "this username is already taken")
				return
			}
			serverError(w, err, "signup create failed")
			return
		}
	}

	if err := a.issueCode(w, r, user); err != nil {
		return
	}

	respondJSON(w, http.StatusOK, signupRequest{
		Username: user.Username,
		Email:    user.Email,
	})
}

// issueCode rotates the user's epoch, records the pending code and mails
// it. Any failure is already written to w; the returned error just tells
// the caller to stop.
func (a *Auth) issueCode(w http.ResponseWriter, r *http.Request, user *models.User) error {
	epoch, err := a.users.BumpConfirmationEpoch(user.ID)
	if err != nil {
		serverError(w, err, "signup epoch bump failed")
		return err
	}
	user.ConfirmationEpoch = epoch

	code, err := a.confirmer.Issue(r.Context(), user)
	if err != nil {
		serverError(w, err, "signup code issue failed")
		return err
	}

	body := fmt.Sprintf("Hello %s,\n\nYour confirmation code is: %s\n", user.Username, code)
	if err := a.mailer.Send(r.Context(), "Your confirmation code", body, user.Email); err != nil {
		serverError(w, err, "signup mail failed")
		return err
	}
	return nil
}

type tokenRequest struct {
	Username         string `json:"username"`
	ConfirmationCode string `json:"confirmation_code"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Token exchanges a valid confirmation code for a bearer token. An
// unknown username is 404 so that signup and token errors stay
// distinguishable; a wrong or consumed code is 400.
func (a *Auth) Token(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeJSON(r, &req); err != nil {
		fieldError(w, "detail", "invalid JSON body")
		return
	}

	fields := map[string][]string{}
	if req.Username == "" {
		fields["username"] = append(fields["username"], "this field is required")
	}
	if req.ConfirmationCode == "" {
		fields["confirmation_code"] = append(fields["confirmation_code"], "this field is required")
	}
	if len(fields) > 0 {
		fieldErrors(w, fields)
		return
	}

	user, err := a.users.FindByUsername(req.Username)
	if err != nil {
		serverError(w, err, "token lookup failed")
		return
	}
	if user == nil {
		notFound(w, "user not found")
		return
	}

	ok, err := a.confirmer.Verify(r.Context(), user, req.ConfirmationCode)
	if err != nil {
		serverError(w, err, "token verify failed")
		return
	}
	if !ok {
		fieldError(w, "confirmation_code", "invalid or expired confirmation code")
		return
	}

	tok, err := a.bearer.Issue(r.Context(), user.ID)
	if err != nil {
		serverError(w, err, "token issue failed")
		return
	}

	respondJSON(w, http.StatusOK, tokenResponse{Token: tok})
}
