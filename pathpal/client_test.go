package pathpal_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pathpal/pathpal-go/pathpal"
	"github.com/pathpal/pathpal-go/transport"
)

// fakeSession records the last authorized call and plays back a canned
// response.
type fakeSession struct {
	method string
	path   string
	body   any

	resp *transport.Response
	err  error
}

func (f *fakeSession) AuthorizedRequest(_ context.Context, method, path string, body any) (*transport.Response, error) {
	f.method = method
	f.path = path
	f.body = body
	return f.resp, f.err
}

type fakeDoer struct {
	method string
	path   string
	body   any

	resp *transport.Response
	err  error
}

func (f *fakeDoer) Do(_ context.Context, method, path string, body any, _ http.Header) (*transport.Response, error) {
	f.method = method
	f.path = path
	f.body = body
	return f.resp, f.err
}

func jsonResponse(t *testing.T, v any) *transport.Response {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return &transport.Response{StatusCode: http.StatusOK, Header: http.Header{}, Body: raw}
}

func newTestClient(t *testing.T, sess *fakeSession, doer *fakeDoer) *pathpal.Client {
	t.Helper()
	if sess == nil {
		sess = &fakeSession{}
	}
	if doer == nil {
		doer = &fakeDoer{}
	}
	client, err := pathpal.New(sess, doer)
	require.NoError(t, err)
	return client
}

func TestRegisterUsesUnauthenticatedTransport(t *testing.T) {
	doer := &fakeDoer{resp: jsonResponse(t, map[string]any{
		"id":        "user-1",
		"email":     "a@example.com",
		"full_name": "Ada Example",
		"is_active": true,
	})}
	client := newTestClient(t, nil, doer)

	user, err := client.Register(context.Background(), "a@example.com", "pw12345678", "Ada Example")
	require.NoError(t, err)
	require.Equal(t, http.MethodPost, doer.method)
	require.Equal(t, "/auth/register", doer.path)
	require.Equal(t, "user-1", user.ID)
	require.Equal(t, "Ada Example", user.FullName)
}

func TestMe(t *testing.T) {
	sess := &fakeSession{resp: jsonResponse(t, map[string]any{
		"id":                 "user-1",
		"email":              "a@example.com",
		"full_name":          "Ada Example",
		"is_active":          true,
		"created_at":         time.Now().UTC().Format(time.RFC3339),
		"emergency_contacts": []string{"b@example.com"},
	})}
	client := newTestClient(t, sess, nil)

	user, err := client.Me(context.Background())
	require.NoError(t, err)
	require.Equal(t, http.MethodGet, sess.method)
	require.Equal(t, "/auth/me", sess.path)
	require.Equal(t, []string{"b@example.com"}, user.EmergencyContacts)
}

func TestRemoveEmergencyContactEscapesEmail(t *testing.T) {
	sess := &fakeSession{resp: jsonResponse(t, map[string]any{"id": "user-1"})}
	client := newTestClient(t, sess, nil)

	_, err := client.RemoveEmergencyContact(context.Background(), "b+c@example.com")
	require.NoError(t, err)
	require.Equal(t, http.MethodDelete, sess.method)
	require.Equal(t, "/auth/me/emergency-contacts/b+c@example.com", sess.path)
	require.NotContains(t, sess.path, "/b c@") // '+' must survive escaping
}

func TestCreateTrip(t *testing.T) {
	sess := &fakeSession{resp: jsonResponse(t, map[string]any{
		"id":               "trip-1",
		"destination_name": "Central Library",
		"travel_mode":      "walking",
		"is_active":        true,
	})}
	client := newTestClient(t, sess, nil)

	trip, err := client.CreateTrip(context.Background(), pathpal.TripCreate{
		DestinationName: "Central Library",
		StartLocation:   pathpal.Location{Latitude: 51.5, Longitude: -0.12},
		TravelMode:      pathpal.TravelModeWalking,
	})
	require.NoError(t, err)
	require.Equal(t, "/trips/", sess.path)
	require.Equal(t, "trip-1", trip.ID)
	require.True(t, trip.IsActive)

	sent, ok := sess.body.(pathpal.TripCreate)
	require.True(t, ok)
	require.Equal(t, pathpal.TravelModeWalking, sent.TravelMode)
	require.Nil(t, sent.DestinationLocation)
}

func TestListTripsPagination(t *testing.T) {
	sess := &fakeSession{resp: jsonResponse(t, map[string]any{
		"trips":     []any{},
		"total":     0,
		"page":      2,
		"page_size": 10,
	})}
	client := newTestClient(t, sess, nil)

	list, err := client.ListTrips(context.Background(), 2, 10)
	require.NoError(t, err)
	require.Equal(t, "/trips/?page=2&page_size=10", sess.path)
	require.Equal(t, 2, list.Page)
}

func TestJoinAndLeaveTrip(t *testing.T) {
	sess := &fakeSession{resp: jsonResponse(t, map[string]any{"id": "trip-1", "participant_count": 2})}
	client := newTestClient(t, sess, nil)

	trip, err := client.JoinTrip(context.Background(), "trip-1")
	require.NoError(t, err)
	require.Equal(t, "/trips/trip-1/participants", sess.path)
	require.Equal(t, 2, trip.ParticipantCount)
	require.Equal(t, map[string]string{"action": "join"}, asMap(t, sess.body))

	_, err = client.LeaveTrip(context.Background(), "trip-1")
	require.NoError(t, err)
	require.Equal(t, map[string]string{"action": "leave"}, asMap(t, sess.body))
}

func TestCompleteTrip(t *testing.T) {
	completed := time.Now().UTC().Format(time.RFC3339)
	sess := &fakeSession{resp: jsonResponse(t, map[string]any{
		"id":           "trip-1",
		"is_active":    false,
		"completed_at": completed,
	})}
	client := newTestClient(t, sess, nil)

	trip, err := client.CompleteTrip(context.Background(), "trip-1")
	require.NoError(t, err)
	require.Equal(t, http.MethodPut, sess.method)
	require.Equal(t, "/trips/trip-1/complete", sess.path)
	require.False(t, trip.IsActive)
	require.NotNil(t, trip.CompletedAt)
}

func TestTripRoute(t *testing.T) {
	sess := &fakeSession{resp: jsonResponse(t, map[string]any{
		"coordinates": [][]float64{{51.5, -0.12}, {51.51, -0.13}},
	})}
	client := newTestClient(t, sess, nil)

	route, err := client.TripRoute(context.Background(), "trip-1")
	require.NoError(t, err)
	require.Equal(t, "/trips/trip-1/route/geometry", sess.path)
	require.Len(t, route.Coordinates, 2)
}

func TestTriggerEmergencyAlertBuildsMultipart(t *testing.T) {
	sess := &fakeSession{resp: jsonResponse(t, map[string]any{
		"message": "alert accepted",
		"status":  "processing",
		"user_id": "user-1",
	})}
	client := newTestClient(t, sess, nil)

	audio := strings.NewReader("fake audio bytes")
	resp, err := client.TriggerEmergencyAlert(context.Background(), audio, "alert.m4a", pathpal.Location{Latitude: 51.5, Longitude: -0.12})
	require.NoError(t, err)
	require.Equal(t, "/alerts/emergency", sess.path)
	require.Equal(t, "processing", resp.Status)

	raw, ok := sess.body.(transport.Raw)
	require.True(t, ok)
	mediaType, params, err := mime.ParseMediaType(raw.ContentType)
	require.NoError(t, err)
	require.Equal(t, "multipart/form-data", mediaType)

	reader := multipart.NewReader(bytes.NewReader(raw.Data), params["boundary"])
	fields := map[string]string{}
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		content, err := io.ReadAll(part)
		require.NoError(t, err)
		fields[part.FormName()] = string(content)
	}
	require.Equal(t, "fake audio bytes", fields["audio_file"])
	require.Equal(t, "51.5", fields["latitude"])
	require.Equal(t, "-0.12", fields["longitude"])
}

func TestAlertHistoryList(t *testing.T) {
	sess := &fakeSession{resp: jsonResponse(t, []map[string]any{
		{"id": "alert-1", "processing_status": "success", "contacts_notified": 2},
		{"id": "alert-2", "processing_status": "fallback", "contacts_notified": 1},
	})}
	client := newTestClient(t, sess, nil)

	history, err := client.AlertHistoryList(context.Background())
	require.NoError(t, err)
	require.Equal(t, "/alerts/history", sess.path)
	require.Len(t, history, 2)
	require.Equal(t, "success", history[0].ProcessingStatus)
}

func TestNewValidatesDependencies(t *testing.T) {
	_, err := pathpal.New(nil, &fakeDoer{})
	require.Error(t, err)

	_, err = pathpal.New(&fakeSession{}, nil)
	require.Error(t, err)
}

func asMap(t *testing.T, body any) map[string]string {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	var m map[string]string
	require.NoError(t, json.Unmarshal(raw, &m))
	return m
}
