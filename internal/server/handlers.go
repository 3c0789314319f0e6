package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/hyperjump/vaxguide/internal/apperr"
	"github.com/hyperjump/vaxguide/internal/models"
	"github.com/hyperjump/vaxguide/internal/pipeline"
	"github.com/hyperjump/vaxguide/internal/storage"
)

const (
	msgInvalidBody  = "invalid request body"
	msgNotReady     = "service is not ready"
	msgRetrieval    = "failed to retrieve information"
	msgInternal     = "internal server error"
	msgNoGeneration = "unable to generate an answer"
)

func (s *Server) handleVaccinationInfo(w http.ResponseWriter, r *http.Request) {
	var req models.VaccinationRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if err := req.Validate(s.maxQuestions); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !s.answerer.IsReady() {
		s.respondError(w, http.StatusServiceUnavailable, msgNotReady)
		return
	}
	s.logger.Debug("vaccination info request",
		zap.String("country", req.DestinationCountry),
		zap.Int("questions", len(req.SpecificQuestions)))

	results := s.answerer.AnswerAll(r.Context(), req.SpecificQuestions)
	answers := make([]string, len(results))
	for i, res := range results {
		if res.Err == nil {
			answers[i] = res.Answer.Text
			continue
		}
		switch {
		case apperr.IsKind(res.Err, apperr.KindGeneration):
			answers[i] = pipeline.UnableToAnswer
		case errors.Is(res.Err, pipeline.ErrNotReady):
			s.respondError(w, http.StatusServiceUnavailable, msgNotReady)
			return
		case apperr.IsKind(res.Err, apperr.KindRetrieval):
			s.logger.Error("retrieval failed", zap.Error(res.Err))
			s.respondError(w, http.StatusInternalServerError, msgRetrieval)
			return
		default:
			s.logger.Error("answer failed", zap.Error(res.Err))
			s.respondError(w, http.StatusInternalServerError, msgInternal)
			return
		}
	}
	s.respondJSON(w, http.StatusOK, s.rules.Compose(&req, answers))
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req models.AskRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !s.answerer.IsReady() {
		s.respondError(w, http.StatusServiceUnavailable, msgNotReady)
		return
	}
	answer, err := s.answerer.Answer(r.Context(), req.Question)
	if err != nil {
		switch {
		case apperr.IsKind(err, apperr.KindGeneration):
			s.respondError(w, http.StatusBadGateway, msgNoGeneration)
		case errors.Is(err, pipeline.ErrNotReady):
			s.respondError(w, http.StatusServiceUnavailable, msgNotReady)
		case apperr.IsKind(err, apperr.KindRetrieval):
			s.logger.Error("retrieval failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, msgRetrieval)
		default:
			s.logger.Error("answer failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, msgInternal)
		}
		return
	}
	s.respondJSON(w, http.StatusOK, answer)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	state := s.answerer.State().String()
	if !s.answerer.IsReady() {
		s.respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": state})
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": state})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"state":     s.answerer.State().String(),
		"ready":     s.answerer.IsReady(),
		"generator": s.answerer.GeneratorName(),
	}
	if stats := s.answerer.Stats(); stats != nil {
		resp["index"] = stats
		resp["embedder"] = stats.EmbedderName
	}
	if s.cache != nil {
		if n, err := s.cache.Count(r.Context()); err != nil {
			s.logger.Warn("status: embedding cache count failed", zap.Error(err))
		} else {
			resp["embedding_cache_entries"] = n
		}
		if size, err := storage.DatabaseSizeBytes(s.cache.Path()); err != nil {
			s.logger.Warn("status: embedding cache size failed", zap.Error(err))
		} else {
			resp["embedding_cache_bytes"] = size
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
