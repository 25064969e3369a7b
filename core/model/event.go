package model

// MatchingStatus mirrors the job lifecycle at the event level.
type MatchingStatus string

const (
	MatchingNotStarted MatchingStatus = "not_started"
	MatchingInProgress MatchingStatus = "in_progress"
	MatchingProposed   MatchingStatus = "proposed"
	MatchingFinalized  MatchingStatus = "finalized"
)

// Event describes one dining event night.
type Event struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	PhaseOrder     []Phase        `json:"phase_order,omitempty"`
	AfterParty     *Coord         `json:"after_party,omitempty"`
	MatchingStatus MatchingStatus `json:"matching_status"`
	// FastMode selects the haversine travel-time fallback instead of the
	// routing service for this event's runs.
	FastMode bool `json:"fast_mode"`
}

// Phases returns the configured phase order, defaulting to the canonical one.
func (e Event) Phases() []Phase {
	if len(e.PhaseOrder) == 3 {
		return e.PhaseOrder
	}
	return DefaultPhaseOrder()
}

// Member is one registered diner within a team.
type Member struct {
	Email            string   `json:"email"`
	Gender           string   `json:"gender,omitempty"`
	Diet             Diet     `json:"diet"`
	Allergies        []string `json:"allergies,omitempty"`
	KitchenAvailable bool     `json:"kitchen_available"`
	CanHostMain      bool     `json:"can_host_main"`
}

// Team is the external registration shape consumed by the unit builder: a
// solo diner or a duo team, with the attributes the builder needs.
type Team struct {
	ID               string   `json:"id"`
	EventID          string   `json:"event_id"`
	Members          []Member `json:"members"`
	Address          string   `json:"address,omitempty"`
	Location         *Coord   `json:"location,omitempty"`
	CoursePreference Phase    `json:"course_preference,omitempty"`
	Cancelled        bool     `json:"cancelled"`
}
