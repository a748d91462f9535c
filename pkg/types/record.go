package types

import "time"

// CoreRecord describes a stored core without its layers.
type CoreRecord struct {
	ID        string    `json:"core_id"`
	Name      string    `json:"name"`
	Constants Constants `json:"constants"`
	Budget    Budget    `json:"budget"`
	Steps     int       `json:"steps"`
	Layers    int       `json:"layers"`
	Elevation float64   `json:"elevation"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StepRecord is one applied timestep in a core's history.
type StepRecord struct {
	CoreID    string        `json:"core_id"`
	Step      int           `json:"step"`
	Input     TimestepInput `json:"input"`
	Elevation float64       `json:"elevation"`
	Layers    int           `json:"layers"`
	AppliedAt time.Time     `json:"applied_at"`
}
