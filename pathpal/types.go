package pathpal

import "time"

// TravelMode selects the routing profile for a trip.
type TravelMode string

const (
	TravelModeDriving TravelMode = "driving"
	TravelModeWalking TravelMode = "walking"
	TravelModeCycling TravelMode = "cycling"
)

// Location is a geographic coordinate pair.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// UserPublic is the backend's public view of a user account.
type UserPublic struct {
	ID                string    `json:"id"`
	Email             string    `json:"email"`
	FullName          string    `json:"full_name"`
	IsActive          bool      `json:"is_active"`
	CreatedAt         time.Time `json:"created_at"`
	EmergencyContacts []string  `json:"emergency_contacts"`
}

// TripCreate is the request body for starting a trip. When
// DestinationLocation is nil the backend geocodes DestinationName.
type TripCreate struct {
	DestinationName     string     `json:"destination_name"`
	DestinationLocation *Location  `json:"destination_location,omitempty"`
	StartLocation       Location   `json:"start_location"`
	TravelMode          TravelMode `json:"travel_mode"`
}

// Trip is a planned or active trip with its computed route.
type Trip struct {
	ID              string `json:"id"`
	OwnerID         string `json:"owner_id"`
	DestinationName string `json:"destination_name"`

	StartLatitude        float64 `json:"start_latitude"`
	StartLongitude       float64 `json:"start_longitude"`
	DestinationLatitude  float64 `json:"destination_latitude"`
	DestinationLongitude float64 `json:"destination_longitude"`

	RouteGeometry   string     `json:"route_geometry"` // polyline-encoded
	DistanceMeters  int        `json:"distance_meters"`
	DurationSeconds int        `json:"duration_seconds"`
	TravelMode      TravelMode `json:"travel_mode"`

	IsActive         bool       `json:"is_active"`
	CreatedAt        time.Time  `json:"created_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	ParticipantCount int        `json:"participant_count"`
}

// TripList is a page of trips.
type TripList struct {
	Trips    []Trip `json:"trips"`
	Total    int    `json:"total"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
}

// RouteGeometry is a decoded route for client display.
type RouteGeometry struct {
	Coordinates [][]float64 `json:"coordinates"` // [lat, lon] pairs
}

// AlertResponse acknowledges an emergency alert; processing continues in the
// backend after the 202.
type AlertResponse struct {
	Message  string             `json:"message"`
	Status   string             `json:"status"`
	UserID   string             `json:"user_id"`
	Location map[string]float64 `json:"location"`
}

// AlertHistory is one processed emergency alert.
type AlertHistory struct {
	ID               string     `json:"id"`
	Latitude         float64    `json:"latitude"`
	Longitude        float64    `json:"longitude"`
	Transcript       string     `json:"transcript"`
	AIAnalysis       string     `json:"ai_analysis"`
	ContactsNotified int        `json:"contacts_notified"`
	ProcessingStatus string     `json:"processing_status"`
	ErrorDetails     *string    `json:"error_details,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	ProcessedAt      *time.Time `json:"processed_at,omitempty"`
}
