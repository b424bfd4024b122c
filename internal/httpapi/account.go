package httpapi

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/account"
)

// Account notices.
const (
	NoticeRegisterMissing    = "Please fill out all required fields."
	NoticePasswordTooShort   = "Password must be at least 6 characters long."
	NoticePasswordMismatch   = "Passwords do not match."
	NoticeUserExists         = "An account with that username or email already exists."
	NoticeRegistered         = "Registration successful. You can now log in."
	NoticeLoginMissing       = "Please fill in all login fields."
	NoticeInvalidCredentials = "Invalid username, email, or password."
	NoticeLoggedIn           = "Login successful."
	noticeNotLoggedIn        = "not logged in"
)

// stringFields decodes the named string fields of a JSON object into dst.
func stringFields(r *http.Request, dst map[string]*string) error {
	return readObject(r, func(d *jx.Decoder, key string) error {
		p, ok := dst[key]
		if !ok {
			return d.Skip()
		}
		v, err := text(d)
		*p = v
		return err
	})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var reg account.Registration
	if err := stringFields(r, map[string]*string{
		"username":        &reg.Username,
		"email":           &reg.Email,
		"password":        &reg.Password,
		"confirmPassword": &reg.ConfirmPassword,
	}); err != nil {
		badRequest(w, r, err)
		return
	}

	ctx := r.Context()
	u, err := s.services(r).accounts.Register(ctx, reg)
	switch {
	case err == nil:
	case errors.Is(err, account.ErrMissingFields):
		writeNotice(w, http.StatusUnprocessableEntity, NoticeRegisterMissing)
		return
	case errors.Is(err, account.ErrPasswordTooShort):
		writeNotice(w, http.StatusUnprocessableEntity, NoticePasswordTooShort)
		return
	case errors.Is(err, account.ErrPasswordMismatch):
		writeNotice(w, http.StatusUnprocessableEntity, NoticePasswordMismatch)
		return
	case errors.Is(err, account.ErrUserExists):
		writeNotice(w, http.StatusUnprocessableEntity, NoticeUserExists)
		return
	default:
		internalError(w, r, err)
		return
	}

	zctx.From(ctx).Info("User registered", zap.String("username", u.Username))
	writeJSON(w, http.StatusCreated, message{Message: NoticeRegistered, Next: NextLogin})
}

type loginResponse struct {
	message
	Session *account.Session `json:"session"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var creds account.Credentials
	if err := stringFields(r, map[string]*string{
		"username": &creds.Username,
		"email":    &creds.Email,
		"password": &creds.Password,
	}); err != nil {
		badRequest(w, r, err)
		return
	}

	ctx := r.Context()
	sess, err := s.services(r).accounts.Login(ctx, creds)
	switch {
	case err == nil:
	case errors.Is(err, account.ErrMissingFields):
		writeNotice(w, http.StatusUnprocessableEntity, NoticeLoginMissing)
		return
	case errors.Is(err, account.ErrInvalidCredentials):
		zctx.From(ctx).Debug("Login rejected")
		writeNotice(w, http.StatusUnprocessableEntity, NoticeInvalidCredentials)
		return
	default:
		internalError(w, r, err)
		return
	}

	zctx.From(ctx).Info("User logged in", zap.String("username", sess.Username))
	writeJSON(w, http.StatusOK, loginResponse{
		message: message{Message: NoticeLoggedIn, Next: NextHome},
		Session: sess,
	})
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	sess, ok, err := s.services(r).accounts.CurrentSession(r.Context())
	if err != nil {
		internalError(w, r, err)
		return
	}
	if !ok {
		writeNotice(w, http.StatusNotFound, noticeNotLoggedIn)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}
