package entity

// Session links a live connection to its seat.
type Session struct {
	RoomID string
	Symbol Mark
	Token  string
}
