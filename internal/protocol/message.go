// Package protocol defines the client/server wire protocol: tagged JSON
// messages delivered as newline-delimited frames over a persistent TCP
// connection.
package protocol

import (
	"encoding/json"
	"fmt"
)

// MessageType tags a wire message so the receiver can pick the payload shape.
type MessageType string

const (
	TypeLogin                       MessageType = "LOGIN"
	TypeLoginSuccessful             MessageType = "LOGIN_SUCCESSFUL"
	TypeLoginUnsuccessful           MessageType = "LOGIN_UNSUCCESSFUL"
	TypeCreateUser                  MessageType = "CREATE_USER"
	TypeCreateUserSuccessful        MessageType = "CREATE_USER_SUCCESSFUL"
	TypeCreateUserUnsuccessful      MessageType = "CREATE_USER_UNSUCCESSFUL"
	TypeSelectCharacter             MessageType = "SELECT_CHARACTER"
	TypeSelectCharacterSuccessful   MessageType = "SELECT_CHARACTER_SUCCESSFUL"
	TypeSelectCharacterUnsuccessful MessageType = "SELECT_CHARACTER_UNSUCCESSFUL"
	TypeCreateCharacter             MessageType = "CREATE_CHARACTER"
	TypeCreateCharacterSuccessful   MessageType = "CREATE_CHARACTER_SUCCESSFUL"
	TypeCreateCharacterUnsuccessful MessageType = "CREATE_CHARACTER_UNSUCCESSFUL"
	TypeCommand                     MessageType = "COMMAND"
	TypeDisplay                     MessageType = "DISPLAY"
	TypeCharacterStats              MessageType = "CHARACTER_STATS"
	TypeSetClientFont               MessageType = "SET_CLIENT_FONT"
	TypeQuit                        MessageType = "QUIT"
	TypeClientKicked                MessageType = "CLIENT_KICKED"
)

// Message is a single wire frame. Payload holds the type-specific body,
// still encoded, so a frame can be routed before its body is decoded.
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewMessage builds a frame from a typed payload. A nil payload produces a
// frame with no body.
func NewMessage(t MessageType, payload any) (Message, error) {
	msg := Message{Type: t}
	if payload == nil {
		return msg, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("encoding %s payload: %w", t, err)
	}
	msg.Payload = raw
	return msg, nil
}

// DecodePayload unmarshals the frame body into dst.
func (m Message) DecodePayload(dst any) error {
	if len(m.Payload) == 0 {
		return fmt.Errorf("message %s has no payload", m.Type)
	}
	if err := json.Unmarshal(m.Payload, dst); err != nil {
		return fmt.Errorf("decoding %s payload: %w", m.Type, err)
	}
	return nil
}

// Login requests authentication of an existing user.
type Login struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginSuccessful tells the client which classes exist and which characters
// the authenticated user owns.
type LoginSuccessful struct {
	Classes    []string `json:"classes"`
	Characters []string `json:"characters"`
}

// CreateUser requests a new account.
type CreateUser struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SelectCharacter picks one of the user's existing characters to play.
type SelectCharacter struct {
	Name string `json:"name"`
}

// CreateCharacter requests a new character of the given class.
type CreateCharacter struct {
	Name  string `json:"name"`
	Class string `json:"class"`
}

// Command carries one raw player command line.
type Command struct {
	Text string `json:"text"`
}

// Display carries renderable text for the client.
type Display struct {
	Text string `json:"text"`
}

// CharacterStats is the full stat sheet pushed after login and after every
// non-quit command.
type CharacterStats struct {
	MaxHP        int    `json:"max_hp"`
	MaxAP        int    `json:"max_ap"`
	Strength     int    `json:"strength"`
	Perception   int    `json:"perception"`
	Endurance    int    `json:"endurance"`
	Charisma     int    `json:"charisma"`
	Intelligence int    `json:"intelligence"`
	Agility      int    `json:"agility"`
	Luck         int    `json:"luck"`
	HP           int    `json:"hp"`
	AP           int    `json:"ap"`
	Experience   int    `json:"experience"`
	NextLevelAt  int    `json:"next_level_at"`
	Room         string `json:"room"`
	ClassLabel   string `json:"class_label"`
}

// SetClientFont tells the client whether it is currently night in the world.
type SetClientFont struct {
	Night bool `json:"night"`
}

// Notice carries a short status or error line. Used as the payload for the
// *_UNSUCCESSFUL and CLIENT_KICKED frames.
type Notice struct {
	Reason string `json:"reason"`
}
