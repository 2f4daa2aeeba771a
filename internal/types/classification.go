package types

import "time"

// ClassificationResult represents the outcome of one classification
// request, regardless of which adapter produced the trajectory.
type ClassificationResult struct {
	Object        string                 `json:"object"`
	Label         string                 `json:"label"`
	Probabilities map[string]float64     `json:"probabilities,omitempty"`
	Features      []float64              `json:"features"`
	Metadata      ClassificationMetadata `json:"metadata"`
	Timestamp     time.Time              `json:"timestamp"`
	Duration      time.Duration          `json:"duration"`
}

// ClassificationMetadata records how the trajectory was obtained.
type ClassificationMetadata struct {
	Source    string `json:"source"` // file | elements | jpl
	InputFile string `json:"input_file,omitempty"`
	Epoch     string `json:"epoch,omitempty"` // formatted Julian Date
	TraceFile string `json:"trace_file,omitempty"`
	Version   string `json:"version"`
}
