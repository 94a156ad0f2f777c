package discord

// User is a Discord user as returned by the REST and gateway APIs.
type User struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	GlobalName string `json:"global_name,omitempty"`
	Email      string `json:"email,omitempty"`
	Bot        bool   `json:"bot,omitempty"`
}

// Tag returns the member's display handle, preferring the global
// display name when one is set.
func (u User) Tag() string {
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

// Invite is a guild invite with its usage counter.
type Invite struct {
	Code    string `json:"code"`
	Uses    int    `json:"uses"`
	MaxUses int    `json:"max_uses"`
	Inviter *User  `json:"inviter,omitempty"`
}

// Channel is a guild channel or thread.
type Channel struct {
	ID       string `json:"id"`
	Type     int    `json:"type"`
	Name     string `json:"name,omitempty"`
	ParentID string `json:"parent_id,omitempty"`
}

// Message is a posted channel message.
type Message struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
	Content   string `json:"content"`
}

// Channel types used by this service.
const (
	ChannelTypeGuildText     = 0
	ChannelTypePrivateThread = 12
)

// CreateInviteParams are the options for creating a channel invite.
type CreateInviteParams struct {
	MaxAge    int  `json:"max_age"`
	MaxUses   int  `json:"max_uses"`
	Temporary bool `json:"temporary"`
	Unique    bool `json:"unique"`
}

// CreateThreadParams are the options for creating a thread without a
// parent message.
type CreateThreadParams struct {
	Name                string `json:"name"`
	Type                int    `json:"type"`
	AutoArchiveDuration int    `json:"auto_archive_duration"`
	Invitable           bool   `json:"invitable"`
}
