package audit

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Question is static reference data: one audit-simulation question with its
// module membership, point value, and auto-fail flag.
type Question struct {
	ID         uuid.UUID `json:"id"`
	Module     string    `json:"module"`
	Text       string    `json:"text"`
	Points     int       `json:"points"`
	IsAutoFail bool      `json:"is_auto_fail"`
	Category   string    `json:"category"`
	SortOrder  int       `json:"sort_order"`
}

// Response is one answer within a simulation: an integer score in
// [0, question.Points] plus an optional evidence reference.
type Response struct {
	ID           uuid.UUID `json:"id"`
	SimulationID uuid.UUID `json:"simulation_id"`
	QuestionID   uuid.UUID `json:"question_id"`
	Score        int       `json:"score"`
	EvidenceRef  string    `json:"evidence_ref,omitempty"`
	AnsweredAt   time.Time `json:"answered_at"`
}

// Validate checks the response score against its question's point value.
func (r *Response) Validate(q *Question) error {
	if r.QuestionID != q.ID {
		return fmt.Errorf("response %s does not answer question %s", r.ID, q.ID)
	}
	if r.Score < 0 || r.Score > q.Points {
		return fmt.Errorf("response score %d out of range [0, %d] for question %s", r.Score, q.Points, q.ID)
	}
	return nil
}

// EntityID and Field let responses participate in rule evaluation alongside
// the other evidence record types.
func (r *Response) EntityID() string { return r.ID.String() }
func (r *Response) Label() string    { return "response " + r.ID.String() }

func (r *Response) Field(path string) (interface{}, bool) {
	switch path {
	case "score":
		return r.Score, true
	case "answered_at":
		return r.AnsweredAt, true
	case "evidence_ref":
		return r.EvidenceRef, true
	default:
		return nil, false
	}
}

// Simulation is the owning aggregate for a set of responses.
type Simulation struct {
	ID          uuid.UUID  `json:"id"`
	FacilityID  uuid.UUID  `json:"facility_id"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
