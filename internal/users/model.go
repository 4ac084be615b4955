package users

// Vector is a 2D gaze/pose reading reported by a device. Field names are a
// wire contract with the reporting clients.
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// User is the per-device status record. DeviceID is the key within a room.
type User struct {
	Name       string `json:"name"`
	DeviceID   string `json:"device_id"`
	IsCheating bool   `json:"is_cheating"`
	Gaze       Vector `json:"gaze"`
}
