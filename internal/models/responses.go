package models

import "time"

// HealthResponse represents a basic health check response
// @Description Health check response
type HealthResponse struct {
	Status    string    `json:"status" example:"healthy"`                 // Health status
	Timestamp time.Time `json:"timestamp" example:"2023-01-01T00:00:00Z"` // Timestamp of the check
	Version   string    `json:"version" example:"1.0.0"`                  // Application version
}

// DBHealthResponse represents a database health check response
// @Description Database health check response
type DBHealthResponse struct {
	Status    string        `json:"status" example:"healthy"`                   // Health status
	Timestamp time.Time     `json:"timestamp" example:"2023-01-01T00:00:00Z"`   // Timestamp of the check
	Connected bool          `json:"connected" example:"true"`                   // Database connection status
	Latency   time.Duration `json:"latency" swaggertype:"string" example:"1ms"` // Database ping latency
	Error     string        `json:"error,omitempty" example:""`                 // Error message if any
}

// QueueMetrics summarizes case volume for the dashboard
// @Description Aggregate case metrics
type QueueMetrics struct {
	Total         int     `json:"total" example:"120"`           // All cases ever created
	Queue         int     `json:"queue" example:"7"`             // Cases awaiting human review
	Answered      int     `json:"answered" example:"98"`         // Cases answered automatically or by a human
	AvgConfidence float64 `json:"avg_confidence" example:"71.5"` // Mean draft confidence across all cases
}

// QueueResponse is the review-queue listing with metrics
// @Description Review queue payload
type QueueResponse struct {
	Cases   []Case       `json:"cases"`
	Metrics QueueMetrics `json:"metrics"`
}

// ActionResponse is the generic success/error envelope for case actions
// @Description Generic action result
type ActionResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message,omitempty" example:"draft sent"`
	Error   string `json:"error,omitempty" example:""`
}

// ProcessResponse reports the outcome of a manually triggered run
// @Description Pipeline run result
type ProcessResponse struct {
	Success bool       `json:"success" example:"true"`
	Summary RunSummary `json:"summary"`
	Error   string     `json:"error,omitempty" example:""`
}

// SimulateRequest injects a synthetic message into the pipeline
// @Description Simulated inbound message
type SimulateRequest struct {
	From    string `json:"from" example:"customer@example.com"`
	Subject string `json:"subject" example:"Question about my invoice"`
	Body    string `json:"body" example:"Hi, I was charged twice last month."`
}

// SimulateResponse reports the created case
// @Description Simulation result
type SimulateResponse struct {
	Success bool   `json:"success" example:"true"`
	CaseID  int    `json:"case_id,omitempty" example:"42"`
	State   string `json:"state,omitempty" example:"needs_review"`
	Error   string `json:"error,omitempty" example:""`
}

// DepartmentUpdateRequest updates the accountable contact of a department
// @Description Department head update payload
type DepartmentUpdateRequest struct {
	HeadName  string `json:"head_name" example:"Dana Levi"`
	HeadEmail string `json:"head_email" example:"dana@example.com"`
}

// UploadResponse reports a knowledge document ingestion
// @Description Document upload result
type UploadResponse struct {
	Success bool   `json:"success" example:"true"`
	Chunks  int    `json:"chunks,omitempty" example:"12"`
	Error   string `json:"error,omitempty" example:""`
}
