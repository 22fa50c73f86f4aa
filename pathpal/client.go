// Package pathpal is the typed surface of the PathPal API. Every call except
// Register goes through the session manager, which attaches and refreshes the
// bearer token.
package pathpal

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pkg/errors"

	"github.com/pathpal/pathpal-go/transport"
)

// Authorizer issues requests carrying a valid bearer token.
type Authorizer interface {
	AuthorizedRequest(ctx context.Context, method, path string, body any) (*transport.Response, error)
}

// Doer issues unauthenticated requests.
type Doer interface {
	Do(ctx context.Context, method, path string, body any, header http.Header) (*transport.Response, error)
}

// Client wraps the PathPal REST endpoints.
type Client struct {
	session   Authorizer
	transport Doer
}

// New creates an API client. session authorizes calls; doer carries the
// calls that work without a session (registration).
func New(session Authorizer, doer Doer) (*Client, error) {
	if session == nil {
		return nil, errors.New("[pathpal.New] session is required")
	}
	if doer == nil {
		return nil, errors.New("[pathpal.New] transport is required")
	}
	return &Client{session: session, transport: doer}, nil
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type contactRequest struct {
	ContactEmail string `json:"contact_email"`
}

type participantRequest struct {
	Action string `json:"action"` // "join" or "leave"
}

// Register creates a new account. It does not log the user in.
func (c *Client) Register(ctx context.Context, email, password, fullName string) (*UserPublic, error) {
	resp, err := c.transport.Do(ctx, http.MethodPost, "/auth/register", registerRequest{
		Email:    email,
		Password: password,
		FullName: fullName,
	}, nil)
	if err != nil {
		return nil, errors.Wrap(err, "[Register]")
	}
	return decode[UserPublic](resp, "[Register]")
}

// Me fetches the current user's profile.
func (c *Client) Me(ctx context.Context) (*UserPublic, error) {
	resp, err := c.session.AuthorizedRequest(ctx, http.MethodGet, "/auth/me", nil)
	if err != nil {
		return nil, errors.Wrap(err, "[Me]")
	}
	return decode[UserPublic](resp, "[Me]")
}

// AddEmergencyContact registers an email to notify on emergency alerts.
func (c *Client) AddEmergencyContact(ctx context.Context, contactEmail string) (*UserPublic, error) {
	resp, err := c.session.AuthorizedRequest(ctx, http.MethodPost, "/auth/me/emergency-contacts", contactRequest{ContactEmail: contactEmail})
	if err != nil {
		return nil, errors.Wrap(err, "[AddEmergencyContact]")
	}
	return decode[UserPublic](resp, "[AddEmergencyContact]")
}

// RemoveEmergencyContact removes a previously added contact.
func (c *Client) RemoveEmergencyContact(ctx context.Context, contactEmail string) (*UserPublic, error) {
	path := "/auth/me/emergency-contacts/" + url.PathEscape(contactEmail)
	resp, err := c.session.AuthorizedRequest(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return nil, errors.Wrap(err, "[RemoveEmergencyContact]")
	}
	return decode[UserPublic](resp, "[RemoveEmergencyContact]")
}

// CreateTrip plans a trip and computes its route.
func (c *Client) CreateTrip(ctx context.Context, trip TripCreate) (*Trip, error) {
	resp, err := c.session.AuthorizedRequest(ctx, http.MethodPost, "/trips/", trip)
	if err != nil {
		return nil, errors.Wrap(err, "[CreateTrip]")
	}
	return decode[Trip](resp, "[CreateTrip]")
}

// ListTrips returns the user's trips, newest first.
func (c *Client) ListTrips(ctx context.Context, page, pageSize int) (*TripList, error) {
	path := fmt.Sprintf("/trips/?page=%d&page_size=%d", page, pageSize)
	resp, err := c.session.AuthorizedRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, errors.Wrap(err, "[ListTrips]")
	}
	return decode[TripList](resp, "[ListTrips]")
}

// GetTrip fetches one trip.
func (c *Client) GetTrip(ctx context.Context, tripID string) (*Trip, error) {
	resp, err := c.session.AuthorizedRequest(ctx, http.MethodGet, "/trips/"+url.PathEscape(tripID), nil)
	if err != nil {
		return nil, errors.Wrap(err, "[GetTrip]")
	}
	return decode[Trip](resp, "[GetTrip]")
}

// CompleteTrip marks a trip finished.
func (c *Client) CompleteTrip(ctx context.Context, tripID string) (*Trip, error) {
	path := "/trips/" + url.PathEscape(tripID) + "/complete"
	resp, err := c.session.AuthorizedRequest(ctx, http.MethodPut, path, nil)
	if err != nil {
		return nil, errors.Wrap(err, "[CompleteTrip]")
	}
	return decode[Trip](resp, "[CompleteTrip]")
}

// JoinTrip adds the current user to a trip's participants.
func (c *Client) JoinTrip(ctx context.Context, tripID string) (*Trip, error) {
	return c.participate(ctx, tripID, "join")
}

// LeaveTrip removes the current user from a trip's participants.
func (c *Client) LeaveTrip(ctx context.Context, tripID string) (*Trip, error) {
	return c.participate(ctx, tripID, "leave")
}

func (c *Client) participate(ctx context.Context, tripID, action string) (*Trip, error) {
	path := "/trips/" + url.PathEscape(tripID) + "/participants"
	resp, err := c.session.AuthorizedRequest(ctx, http.MethodPost, path, participantRequest{Action: action})
	if err != nil {
		return nil, errors.Wrapf(err, "[%sTrip]", action)
	}
	return decode[Trip](resp, "["+action+"Trip]")
}

// TripRoute fetches the decoded route geometry for map display.
func (c *Client) TripRoute(ctx context.Context, tripID string) (*RouteGeometry, error) {
	path := "/trips/" + url.PathEscape(tripID) + "/route/geometry"
	resp, err := c.session.AuthorizedRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, errors.Wrap(err, "[TripRoute]")
	}
	return decode[RouteGeometry](resp, "[TripRoute]")
}

// TriggerEmergencyAlert uploads an emergency audio recording with the user's
// location. The backend answers immediately and processes the alert in the
// background.
func (c *Client) TriggerEmergencyAlert(ctx context.Context, audio io.Reader, filename string, loc Location) (*AlertResponse, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	part, err := form.CreateFormFile("audio_file", filename)
	if err != nil {
		return nil, errors.Wrap(err, "[TriggerEmergencyAlert] form file")
	}
	if _, err := io.Copy(part, audio); err != nil {
		return nil, errors.Wrap(err, "[TriggerEmergencyAlert] copy audio")
	}
	if err := form.WriteField("latitude", strconv.FormatFloat(loc.Latitude, 'f', -1, 64)); err != nil {
		return nil, errors.Wrap(err, "[TriggerEmergencyAlert] latitude field")
	}
	if err := form.WriteField("longitude", strconv.FormatFloat(loc.Longitude, 'f', -1, 64)); err != nil {
		return nil, errors.Wrap(err, "[TriggerEmergencyAlert] longitude field")
	}
	if err := form.Close(); err != nil {
		return nil, errors.Wrap(err, "[TriggerEmergencyAlert] close form")
	}

	body := transport.Raw{ContentType: form.FormDataContentType(), Data: buf.Bytes()}
	resp, err := c.session.AuthorizedRequest(ctx, http.MethodPost, "/alerts/emergency", body)
	if err != nil {
		return nil, errors.Wrap(err, "[TriggerEmergencyAlert]")
	}
	return decode[AlertResponse](resp, "[TriggerEmergencyAlert]")
}

// AlertHistoryList returns the user's past emergency alerts.
func (c *Client) AlertHistoryList(ctx context.Context) ([]AlertHistory, error) {
	resp, err := c.session.AuthorizedRequest(ctx, http.MethodGet, "/alerts/history", nil)
	if err != nil {
		return nil, errors.Wrap(err, "[AlertHistoryList]")
	}
	var history []AlertHistory
	if err := resp.Decode(&history); err != nil {
		return nil, errors.Wrap(err, "[AlertHistoryList]")
	}
	return history, nil
}

func decode[T any](resp *transport.Response, context string) (*T, error) {
	var v T
	if err := resp.Decode(&v); err != nil {
		return nil, errors.Wrap(err, context)
	}
	return &v, nil
}
