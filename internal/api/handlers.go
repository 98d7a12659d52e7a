package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/dsaflash/internal/catalog"
	"github.com/starford/dsaflash/internal/models"
)

// Handler holds API route handlers.
type Handler struct {
	svc *catalog.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *catalog.Service) *Handler {
	return &Handler{svc: svc}
}

// Health handles GET /api/health.
//
//	@Summary	Server health
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	HealthResponse
//	@Router		/health [get]
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "OK", Message: "Server is running"})
}

// ListTopics handles GET /api/topics.
//
//	@Summary	List topics ordered by order
//	@Tags		topics
//	@Produce	json
//	@Success	200	{array}	Topic
//	@Router		/topics [get]
func (h *Handler) ListTopics(w http.ResponseWriter, r *http.Request) {
	topics, err := h.svc.ListTopics(r.Context())
	if err != nil {
		writeError(w, "list topics", err)
		return
	}
	writeJSON(w, http.StatusOK, topics)
}

// CreateTopic handles POST /api/topics.
//
//	@Summary	Create a topic
//	@Tags		topics
//	@Accept		json
//	@Produce	json
//	@Param		body	body		Topic	true	"Topic to create"
//	@Success	201		{object}	Topic
//	@Failure	400		{object}	errResponse
//	@Router		/topics [post]
func (h *Handler) CreateTopic(w http.ResponseWriter, r *http.Request) {
	var t models.Topic
	if !decodeJSON(w, r, &t) {
		return
	}
	t.ID = ""
	created, err := h.svc.CreateTopic(r.Context(), t)
	if err != nil {
		writeError(w, "create topic", err, slog.String("name", t.Name))
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdateTopic handles PUT /api/topics/{id}.
//
//	@Summary	Partially update a topic
//	@Tags		topics
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string				true	"Topic ID"
//	@Param		body	body		models.TopicPatch	true	"Fields to change"
//	@Success	200		{object}	Topic
//	@Failure	400		{object}	errResponse
//	@Failure	404		{object}	errResponse
//	@Router		/topics/{id} [put]
func (h *Handler) UpdateTopic(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var patch models.TopicPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	updated, err := h.svc.UpdateTopic(r.Context(), id, patch)
	if err != nil {
		writeError(w, "update topic", err, slog.String("id", id))
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteTopic handles DELETE /api/topics/{id}. The topic's problems and note
// are removed with it.
//
//	@Summary	Delete a topic with its problems and note
//	@Tags		topics
//	@Produce	json
//	@Param		id	path		string	true	"Topic ID"
//	@Success	200	{object}	MessageResponse
//	@Failure	404	{object}	errResponse
//	@Router		/topics/{id} [delete]
func (h *Handler) DeleteTopic(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.DeleteTopic(r.Context(), id); err != nil {
		writeError(w, "delete topic", err, slog.String("id", id))
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Topic deleted successfully"})
}

// ListProblems handles GET /api/problems.
//
//	@Summary	List problems newest first
//	@Tags		problems
//	@Produce	json
//	@Success	200	{array}	Problem
//	@Router		/problems [get]
func (h *Handler) ListProblems(w http.ResponseWriter, r *http.Request) {
	problems, err := h.svc.ListProblems(r.Context(), "")
	if err != nil {
		writeError(w, "list problems", err)
		return
	}
	writeJSON(w, http.StatusOK, problems)
}

// ListProblemsByTopic handles GET /api/problems/topic/{topicId}.
//
//	@Summary	List the problems of one topic
//	@Tags		problems
//	@Produce	json
//	@Param		topicId	path	string	true	"Topic ID"
//	@Success	200		{array}	Problem
//	@Router		/problems/topic/{topicId} [get]
func (h *Handler) ListProblemsByTopic(w http.ResponseWriter, r *http.Request) {
	topicID := chi.URLParam(r, "topicId")
	problems, err := h.svc.ListProblems(r.Context(), topicID)
	if err != nil {
		writeError(w, "list problems", err, slog.String("topic_id", topicID))
		return
	}
	writeJSON(w, http.StatusOK, problems)
}

// CreateProblem handles POST /api/problems.
//
//	@Summary	Create a problem
//	@Tags		problems
//	@Accept		json
//	@Produce	json
//	@Param		body	body		Problem	true	"Problem to create"
//	@Success	201		{object}	Problem
//	@Failure	400		{object}	errResponse
//	@Router		/problems [post]
func (h *Handler) CreateProblem(w http.ResponseWriter, r *http.Request) {
	var p models.Problem
	if !decodeJSON(w, r, &p) {
		return
	}
	p.ID = ""
	created, err := h.svc.CreateProblem(r.Context(), p)
	if err != nil {
		writeError(w, "create problem", err, slog.String("title", p.Title))
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdateProblem handles PUT /api/problems/{id}.
//
//	@Summary	Partially update a problem
//	@Tags		problems
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string				true	"Problem ID"
//	@Param		body	body		models.ProblemPatch	true	"Fields to change"
//	@Success	200		{object}	Problem
//	@Failure	400		{object}	errResponse
//	@Failure	404		{object}	errResponse
//	@Router		/problems/{id} [put]
func (h *Handler) UpdateProblem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var patch models.ProblemPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	updated, err := h.svc.UpdateProblem(r.Context(), id, patch)
	if err != nil {
		writeError(w, "update problem", err, slog.String("id", id))
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteProblem handles DELETE /api/problems/{id}.
//
//	@Summary	Delete a problem
//	@Tags		problems
//	@Produce	json
//	@Param		id	path		string	true	"Problem ID"
//	@Success	200	{object}	MessageResponse
//	@Failure	404	{object}	errResponse
//	@Router		/problems/{id} [delete]
func (h *Handler) DeleteProblem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.DeleteProblem(r.Context(), id); err != nil {
		writeError(w, "delete problem", err, slog.String("id", id))
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Problem deleted successfully"})
}

// GetTopicNotes handles GET /api/topic-notes/{topicId}. A topic without a
// note yields an empty string.
//
//	@Summary	Get the note of a topic
//	@Tags		notes
//	@Produce	json
//	@Param		topicId	path		string	true	"Topic ID"
//	@Success	200		{object}	NotesBody
//	@Router		/topic-notes/{topicId} [get]
func (h *Handler) GetTopicNotes(w http.ResponseWriter, r *http.Request) {
	topicID := chi.URLParam(r, "topicId")
	notes, err := h.svc.TopicNotes(r.Context(), topicID)
	if err != nil {
		writeError(w, "get topic notes", err, slog.String("topic_id", topicID))
		return
	}
	writeJSON(w, http.StatusOK, NotesBody{Notes: notes})
}

// SaveTopicNotes handles POST /api/topic-notes/{topicId}.
//
//	@Summary	Create or replace the note of a topic
//	@Tags		notes
//	@Accept		json
//	@Produce	json
//	@Param		topicId	path		string		true	"Topic ID"
//	@Param		body	body		NotesBody	true	"Serialized note blocks"
//	@Success	200		{object}	NotesBody
//	@Failure	400		{object}	errResponse
//	@Router		/topic-notes/{topicId} [post]
func (h *Handler) SaveTopicNotes(w http.ResponseWriter, r *http.Request) {
	topicID := chi.URLParam(r, "topicId")
	var body NotesBody
	if !decodeJSON(w, r, &body) {
		return
	}
	saved, err := h.svc.SaveTopicNotes(r.Context(), topicID, body.Notes)
	if err != nil {
		writeError(w, "save topic notes", err, slog.String("topic_id", topicID))
		return
	}
	writeJSON(w, http.StatusOK, NotesBody{Notes: saved})
}
