package api

import "github.com/starford/dsaflash/internal/models"

// Topic is the topic resource.
type Topic = models.Topic

// Problem is the problem resource.
type Problem = models.Problem

// NotesBody is the request and response body of the topic-notes endpoints.
type NotesBody = models.NotesBody

// MessageResponse acknowledges a delete.
type MessageResponse struct {
	Message string `json:"message" example:"Topic deleted successfully" validate:"required"`
}

// HealthResponse is returned by GET /api/health.
type HealthResponse struct {
	Status  string `json:"status" example:"OK" validate:"required"`
	Message string `json:"message" example:"Server is running" validate:"required"`
}

// UploadResponse is returned after a successful image upload.
type UploadResponse struct {
	ImageURL string `json:"imageUrl" example:"http://localhost:5000/uploads/0190b7a4-3c1e-7d2a-9f3b-1a2b3c4d5e6f.png" validate:"required"`
}

// ProbeResponse is the body of the liveness and readiness probes.
type ProbeResponse struct {
	Status string `json:"status" example:"ok" validate:"required"`
	Error  string `json:"error,omitempty"`
}
