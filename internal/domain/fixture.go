package domain

import "time"

// CreateUserRequest asks for one generated user.
type CreateUserRequest struct {
	Policy    string         `json:"policy"`
	Overrides map[string]any `json:"overrides"`
}

// CreateGuildRequest asks for one coherent guild. Members excludes the owner.
type CreateGuildRequest struct {
	Members   int            `json:"members" binding:"min=0"`
	Emojis    int            `json:"emojis" binding:"min=0"`
	Policy    string         `json:"policy"`
	Overrides map[string]any `json:"overrides"`
}

// ExportedObject is one file written by a guild export.
type ExportedObject struct {
	Key  string `json:"key"`
	Size int64  `json:"size"`
	URL  string `json:"url,omitempty"`
}

// ExportResponse lists what a guild export wrote.
type ExportResponse struct {
	GuildID    string           `json:"guild_id"`
	Objects    []ExportedObject `json:"objects"`
	ExportedAt time.Time        `json:"exported_at"`
}

// DispatchResponse describes a published gateway event.
type DispatchResponse struct {
	GuildID  string `json:"guild_id"`
	Channel  string `json:"channel"`
	Event    string `json:"event"`
	Sequence int64  `json:"sequence"`
}

// IDsResponse carries freshly generated identifiers.
type IDsResponse struct {
	Kind string   `json:"kind"`
	IDs  []string `json:"ids"`
}

// IDParseResponse reports whether an identifier is valid and what it encodes.
type IDParseResponse struct {
	Kind    string `json:"kind"`
	ID      string `json:"id"`
	Valid   bool   `json:"valid"`
	Reason  string `json:"reason,omitempty"`
	Details any    `json:"details,omitempty"`
}
