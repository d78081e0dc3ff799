package models

import "time"

// ModePractice is the mode given to rooms created without one
const ModePractice = "practice"

// RoomMetadata stores information about a room
type RoomMetadata struct {
	ID        string    `json:"id"`
	Code      string    `json:"code,omitempty"` // Empty means the room is open
	Mode      string    `json:"mode"`
	CreatedAt time.Time `json:"createdAt"`
}

// RequiresCode reports whether joining needs an access code
func (m RoomMetadata) RequiresCode() bool {
	return m.Code != ""
}

// CreateRoomRequest is the request body for creating a room
type CreateRoomRequest struct {
	Room string `json:"room" binding:"required"`
	Code string `json:"code"`
	Mode string `json:"mode"`
}

// CreateRoomResponse is the response for creating a room
type CreateRoomResponse struct {
	Link string `json:"link"`
}

// RoomInfo is the public view of a room
type RoomInfo struct {
	RequiresCode bool   `json:"requiresCode"`
	Mode         string `json:"mode"`
}

// ValidateRoomRequest is the request body for checking room access.
// Name and role are accepted for client convenience and ignored.
type ValidateRoomRequest struct {
	Room string `json:"room" binding:"required"`
	Code string `json:"code"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// ValidateRoomResponse is returned when access is granted
type ValidateRoomResponse struct {
	OK bool `json:"ok"`
}

// UploadResponse points at a stored recording
type UploadResponse struct {
	URL string `json:"url"`
}

// RoomSummary is the operator view of a room. It never carries the code.
type RoomSummary struct {
	Room         string    `json:"room"`
	Mode         string    `json:"mode"`
	RequiresCode bool      `json:"requiresCode"`
	CreatedAt    time.Time `json:"createdAt"`
	Members      int       `json:"members"`
}
