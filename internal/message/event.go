package message

// Event kinds published on the event feed.
const (
	EventRegistered = "user_registered"
	EventLeft       = "user_left"
	EventJoinedRoom = "room_joined"
	EventLeftRoom   = "room_left"
	EventRoomChat   = "room_message"
	EventDirectChat = "direct_message"
)

// Event is the JSON document published for chat activity.
type Event struct {
	Type      string `json:"type"`
	Username  string `json:"username"`
	Room      string `json:"room,omitempty"`
	Target    string `json:"target,omitempty"`
	Body      string `json:"body,omitempty"`
	Reason    string `json:"reason,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// RoomSummary is how the admin API reports a room.
type RoomSummary struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
	Count   int      `json:"count"`
}
