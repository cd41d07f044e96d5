package notify

import (
	"context"
	"encoding/json"
	"time"

	ws "jigtrack/internal/websocket"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Notifier delivers notification intents. Calls are fire-and-forget: they
// happen after the business transaction commits and a delivery failure must
// never make the committed operation look failed.
type Notifier interface {
	NotifyUser(ctx context.Context, userID uuid.UUID, event Event)
	NotifyGroup(ctx context.Context, permissionKey string, event Event)
}

// envelope is the wire shape pushed to connected clients.
type envelope struct {
	TargetType string      `json:"target_type"` // "user" or "group"
	Target     string      `json:"target"`
	Event      string      `json:"event"`
	Payload    interface{} `json:"payload"`
	At         time.Time   `json:"at"`
}

// HubNotifier broadcasts notification events over the websocket hub and
// records every intent in the structured log.
type HubNotifier struct {
	hub *ws.Hub
	log *logrus.Entry
}

func NewHubNotifier(hub *ws.Hub, log *logrus.Logger) *HubNotifier {
	return &HubNotifier{
		hub: hub,
		log: log.WithField("component", "notifier"),
	}
}

func (n *HubNotifier) NotifyUser(ctx context.Context, userID uuid.UUID, event Event) {
	n.send(envelope{
		TargetType: "user",
		Target:     userID.String(),
		Event:      event.EventKey(),
		Payload:    event,
		At:         time.Now(),
	})
}

func (n *HubNotifier) NotifyGroup(ctx context.Context, permissionKey string, event Event) {
	n.send(envelope{
		TargetType: "group",
		Target:     permissionKey,
		Event:      event.EventKey(),
		Payload:    event,
		At:         time.Now(),
	})
}

func (n *HubNotifier) send(env envelope) {
	msg, err := json.Marshal(env)
	if err != nil {
		n.log.WithError(err).WithField("event", env.Event).Warn("failed to encode notification")
		return
	}

	n.log.WithFields(logrus.Fields{
		"event":       env.Event,
		"target_type": env.TargetType,
		"target":      env.Target,
	}).Info("notification emitted")

	// Never block the caller on a slow hub.
	select {
	case n.hub.Broadcast <- msg:
	default:
		n.log.WithField("event", env.Event).Warn("notification dropped, hub busy")
	}
}
