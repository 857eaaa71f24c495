package httpapi

import (
	"errors"
	"io"
	"net/http"

	"github.com/p-n-ai/pai-tracker/internal/apperr"
)

type updateRequest struct {
	Field string `json:"field"`
	Value any    `json:"value"`
}

func (a *api) handleAddTopic(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, apperr.BadRequestf("Request body too large"))
			return
		}
		writeError(w, r, apperr.BadRequestf("Invalid request body"))
		return
	}
	topic, err := a.Catalog.AddTopic(r.Context(), raw)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, topic)
}

func (a *api) handleAllTopics(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFrom(r.Context())
	topics, err := a.Progress.AllTopics(r.Context(), u.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, topics)
}

func (a *api) handleTopicByName(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFrom(r.Context())
	view, err := a.Progress.TopicByName(r.Context(), u.ID, r.PathValue("topicName"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *api) handleTopicByID(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFrom(r.Context())
	view, err := a.Progress.TopicByID(r.Context(), u.ID, r.PathValue("topicId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *api) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	u, _ := UserFrom(r.Context())
	view, err := a.Progress.Update(r.Context(), u.ID,
		r.PathValue("topicId"),
		r.PathValue("questionId"),
		req.Field,
		req.Value,
	)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *api) handleTopicStats(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFrom(r.Context())
	stats, err := a.Progress.TopicStats(r.Context(), u.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (a *api) handleTotalPercent(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFrom(r.Context())
	total, err := a.Progress.TotalPercent(r.Context(), u.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"totalPercent": total})
}

func (a *api) handleBookmarks(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFrom(r.Context())
	bookmarks, err := a.Progress.Bookmarks(r.Context(), u.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bookmarks)
}
