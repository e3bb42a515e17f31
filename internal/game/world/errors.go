package world

import "errors"

// Sentinel errors shared by all store implementations. Handlers match these
// with errors.Is and turn them into client notifications.
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserExists           = errors.New("user already exists")
	ErrCharacterNotFound    = errors.New("character not found")
	ErrCharacterExists      = errors.New("character already exists")
	ErrRoomNotFound         = errors.New("room not found")
	ErrItemNotFound         = errors.New("item not found")
	ErrNPCNotFound          = errors.New("npc not found")
	ErrInsufficientQuantity = errors.New("insufficient quantity")
)
