// Package realtime is the client for PathPal's live location-sharing
// channel. One connection corresponds to one trip; participants broadcast
// location updates to each other through the backend.
package realtime

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/pkg/errors"
)

// TokenSource yields a currently valid access token. The websocket handshake
// authenticates with a query parameter, so the session manager hands the
// token out directly rather than attaching a header.
type TokenSource interface {
	BearerToken(ctx context.Context) (string, error)
}

// Conn is one participant's connection to a trip channel. Close is
// idempotent.
type Conn struct {
	ws     *websocket.Conn
	tripID string

	closeOnce sync.Once
	closeErr  error
}

// Dial joins the location-sharing channel for tripID and waits for the
// backend's connection acknowledgment.
func Dial(ctx context.Context, baseURL, tripID string, tokens TokenSource) (*Conn, *Message, error) {
	token, err := tokens.BearerToken(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "[realtime.Dial] token")
	}

	endpoint, err := wsURL(baseURL, tripID, token)
	if err != nil {
		return nil, nil, errors.Wrap(err, "[realtime.Dial]")
	}

	ws, _, err := websocket.Dial(ctx, endpoint, nil)
	if err != nil {
		return nil, nil, errors.Wrap(err, "[realtime.Dial] dial")
	}

	conn := &Conn{ws: ws, tripID: tripID}
	ack, err := conn.Receive(ctx)
	if err != nil {
		conn.Close()
		return nil, nil, errors.Wrap(err, "[realtime.Dial] ack")
	}
	if ack.Type != TypeConnectionAck {
		conn.Close()
		return nil, nil, errors.Errorf("[realtime.Dial] unexpected first message %q", ack.Type)
	}
	return conn, ack, nil
}

// TripID returns the trip this connection is joined to.
func (c *Conn) TripID() string {
	return c.tripID
}

// Receive blocks until the next message arrives.
func (c *Conn) Receive(ctx context.Context) (*Message, error) {
	var msg Message
	if err := wsjson.Read(ctx, c.ws, &msg); err != nil {
		return nil, errors.Wrap(err, "[Conn.Receive]")
	}
	return &msg, nil
}

// SendLocation broadcasts the participant's current position.
func (c *Conn) SendLocation(ctx context.Context, latitude, longitude float64) error {
	msg := Message{
		Type:      TypeLocationUpdate,
		TripID:    c.tripID,
		Latitude:  latitude,
		Longitude: longitude,
	}
	if err := wsjson.Write(ctx, c.ws, msg); err != nil {
		return errors.Wrap(err, "[Conn.SendLocation]")
	}
	return nil
}

// Close leaves the channel.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.ws.Close(websocket.StatusNormalClosure, "leaving trip")
	})
	return c.closeErr
}

func wsURL(baseURL, tripID, token string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", errors.Wrap(err, "parse base URL")
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", errors.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws/" + url.PathEscape(tripID)
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
