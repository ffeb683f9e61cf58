package apiServer

import (
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
)

func (s *Server) handleObscure(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req obscureRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Errors: []string{err.Error()}})
		return
	}

	res, err := s.svc.Obscure(r.Context(), req.Text, req.ExpirationSeconds)
	if err != nil {
		observe("obscure", started, s.writeError(w, r, err), err)
		return
	}

	metricObscuredChars.Observe(float64(utf8.RuneCountInString(req.Text)))
	s.writeJSON(w, http.StatusCreated, res)
	observe("obscure", started, http.StatusCreated, nil)
}

func (s *Server) handleClarify(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req clarifyRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Errors: []string{err.Error()}})
		return
	}

	res, err := s.svc.Clarify(r.Context(), req.Key, req.ObscuredText)
	if err != nil {
		observe("clarify", started, s.writeError(w, r, err), err)
		return
	}

	s.writeJSON(w, http.StatusOK, res)
	observe("clarify", started, http.StatusOK, nil)
}

func (s *Server) handleForget(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	err := s.svc.Forget(r.Context(), r.PathValue("key"))
	if err != nil {
		observe("forget", started, s.writeError(w, r, err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
	observe("forget", started, http.StatusNoContent, nil)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.health(r.Context()); err != nil {
		s.log.WithError(err).WithField("request_id", requestID(r)).Warn("health check failed")
		s.writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Error: err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	s.renderForm(w, r, http.StatusOK, formData{ClearText: "Enter some text here"})
}

func (s *Server) handleFormObscure(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	data := formData{ClearText: r.FormValue("clearText")}

	res, err := s.svc.Obscure(r.Context(), data.ClearText, s.formExpiration)
	if err != nil {
		data.Errors = messagesFor(err)
		status := statusFor(err)
		s.renderForm(w, r, status, data)
		observe("obscure", started, status, err)
		return
	}

	data.Key = res.Key
	data.ObscuredText = res.ObscuredText
	data.ExpirationSeconds = res.ExpirationSeconds
	metricObscuredChars.Observe(float64(utf8.RuneCountInString(data.ClearText)))
	s.renderForm(w, r, http.StatusOK, data)
	observe("obscure", started, http.StatusOK, nil)
}

func (s *Server) handleFormClarify(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	data := formData{
		ClearText:    r.FormValue("hiddenClearText"),
		Key:          r.FormValue("hiddenObscureKey"),
		ObscuredText: r.FormValue("hiddenObscuredText"),
	}

	res, err := s.svc.Clarify(r.Context(), data.Key, data.ObscuredText)
	if err != nil {
		data.Errors = messagesFor(err)
		status := statusFor(err)
		s.renderForm(w, r, status, data)
		observe("clarify", started, status, err)
		return
	}

	data.ClarifiedText = res.ClarifiedText
	s.renderForm(w, r, http.StatusOK, data)
	observe("clarify", started, http.StatusOK, nil)
}

func (s *Server) renderForm(w http.ResponseWriter, r *http.Request, status int, data formData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.form.Execute(w, data); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID(r),
		}).WithError(err).Error("failed to render form")
	}
}
