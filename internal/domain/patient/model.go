package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient states. A patient is on the ward from admission until discharge;
// "unstable" flags deterioration and feeds the rapid-round score.
const (
	StateIncoming          = "incoming"
	StateActive            = "active"
	StateUnstable          = "unstable"
	StateReadyForDischarge = "ready_for_discharge"
	StateDischarged        = "discharged"
)

// Patient maps to the patient table. The engine treats patient records as
// read-only input; only staff actions through the service mutate them.
type Patient struct {
	ID         uuid.UUID `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	MRN        string    `db:"mrn" json:"mrn"`
	WardID     uuid.UUID `db:"ward_id" json:"ward_id"`
	WardName   string    `db:"ward_name" json:"ward_name"`
	BedLabel   string    `db:"bed_label" json:"bed_label"`
	Acuity     int       `db:"acuity" json:"acuity"`
	State      string    `db:"state" json:"state"`
	CodeStatus *string   `db:"code_status" json:"code_status,omitempty"`
	Allergies  []string  `db:"allergies" json:"allergies,omitempty"`
	Team       *string   `db:"team" json:"team,omitempty"`
	Attending  *string   `db:"attending" json:"attending,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
