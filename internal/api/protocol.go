package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/nerrad567/alpha2-bridge/internal/command"
	"github.com/nerrad567/alpha2-bridge/internal/state"
	"github.com/nerrad567/alpha2-bridge/internal/xmlview"
)

func (s *Server) handleStaticView(w http.ResponseWriter, r *http.Request) {
	dev, err := s.store.Snapshot(r.Context())
	s.renderView(w, dev, err, xmlview.Static)
}

func (s *Server) handleDynamicView(w http.ResponseWriter, r *http.Request) {
	dev, err := s.store.Snapshot(r.Context())
	s.renderView(w, dev, err, xmlview.Dynamic)
}

// handleCyclicView stamps DATETIME/DAYOFWEEK before rendering, so every
// cyclic poll is also a write.
func (s *Server) handleCyclicView(w http.ResponseWriter, r *http.Request) {
	dev, err := s.store.RefreshClock(r.Context())
	s.renderView(w, dev, err, xmlview.Cyclic)
}

func (s *Server) renderView(w http.ResponseWriter, dev *state.Device, err error, view xmlview.View) {
	if err != nil {
		s.logger.Error("failed to load device state", "view", view, "error", err)
		writeXML(w, http.StatusInternalServerError, xmlview.Failure("device state unavailable"))
		return
	}

	out, err := xmlview.Render(dev, view)
	if err != nil {
		s.logger.Error("failed to render view", "view", view, "error", err)
		writeXML(w, http.StatusInternalServerError, xmlview.Failure("render failed"))
		return
	}
	writeXML(w, http.StatusOK, out)
}

// handleChanges applies a command document.
//
// Responses:
//   - 200 with the OK acknowledgment when every field was accepted
//   - 400 when the body is empty, not well-formed, carries nothing
//     recognisable, or any field was rejected (accepted fields still persist)
//   - 413 when the body exceeds the request size limit
//   - 500 when the state could not be saved
func (s *Server) handleChanges(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeXML(w, http.StatusRequestEntityTooLarge, xmlview.Failure("request body too large"))
			return
		}
		writeXML(w, http.StatusBadRequest, xmlview.Failure("failed to read request body"))
		return
	}

	res, err := s.processor.Process(r.Context(), command.SourceHTTP, body)
	if err != nil {
		if errors.Is(err, command.ErrParse) || errors.Is(err, command.ErrValidation) {
			s.logger.Warn("command rejected", "error", err)
			writeXML(w, http.StatusBadRequest, xmlview.Failure(err.Error()))
			return
		}
		s.logger.Error("failed to apply command", "error", err)
		writeXML(w, http.StatusInternalServerError, xmlview.Failure("failed to apply command"))
		return
	}

	if !res.OK() {
		messages := make([]string, 0, len(res.Errors))
		for _, fieldErr := range res.Errors {
			messages = append(messages, fieldErr.Error())
		}
		writeXML(w, http.StatusBadRequest, xmlview.Failure(messages...))
		return
	}

	writeXML(w, http.StatusOK, xmlview.Ack())
}
