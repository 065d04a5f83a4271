// Package server provides the HTTP server for the LoopMux API.
// It includes handlers, middleware, routes, and DTOs separated from domain types.
package server

import "time"

// CreateJobRequest is the HTTP request body for submitting a composition job.
type CreateJobRequest struct {
	// AudioDataURL is the inline data: payload carrying the audio bytes.
	AudioDataURL string `json:"audio_data_url" validate:"required,datauri"`
	// VideoDataURL is the inline data: payload carrying the video bytes.
	VideoDataURL string `json:"video_data_url" validate:"required,datauri"`
}

// CreateJobResponse is the HTTP response after submitting a job.
type CreateJobResponse struct {
	// ID is the unique identifier for the created job.
	ID int64 `json:"id"`
	// Status is the initial job status.
	Status string `json:"status"`
}

// JobResponse is the HTTP response for getting job details.
type JobResponse struct {
	// ID is the unique identifier for the job.
	ID int64 `json:"id"`
	// Status is the current job status.
	Status string `json:"status"`
	// Progress is the percentage of completion (0-100).
	Progress int `json:"progress"`
	// OutputURL is the artifact location (set when completed).
	OutputURL string `json:"output_url,omitempty"`
	// Error contains the failure description if the job failed.
	Error string `json:"error,omitempty"`
	// CreatedAt is when the job was submitted.
	CreatedAt time.Time `json:"created_at"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
}
