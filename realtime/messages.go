package realtime

// Message types exchanged on a trip's location-sharing channel.
const (
	TypeConnectionAck       = "connection_ack"
	TypeParticipantJoined   = "participant_joined"
	TypeParticipantLeft     = "participant_left"
	TypeLocationUpdate      = "location_update"
	TypeParticipantLocation = "participant_location"
	TypeError               = "error"
)

// Message is the envelope for every frame on the channel. Fields are
// populated according to Type.
type Message struct {
	Type             string  `json:"type"`
	TripID           string  `json:"trip_id,omitempty"`
	UserID           string  `json:"user_id,omitempty"`
	FullName         string  `json:"full_name,omitempty"`
	Latitude         float64 `json:"latitude,omitempty"`
	Longitude        float64 `json:"longitude,omitempty"`
	ParticipantCount int     `json:"participant_count,omitempty"`
	Message          string  `json:"message,omitempty"`
}
