// Package discordshim is an illustrative stub showing where a Discord
// front end would attach to the Session Channel, without pulling in a
// gateway dependency. It exists to document a deliberately unbound
// dependency rather than to be production code — see DESIGN.md.
//
// A real adapter would open a bwmarrin/discordgo session, map each Discord
// channel or thread to a session_id, translate message-create events into
// transport.Envelope{Type: "player_input"} calls against a transport.Hub,
// and render outbound envelopes back as channel messages. None of that
// wiring lives here: Adapter only carries the shape of the translation.
package discordshim

import "context"

// PlayerInputFunc forwards one translated player turn to the Session
// Channel. A real adapter would bind this to (*transport.Hub).Accept's
// underlying dispatch path, or to a message-queue bridge in front of it.
type PlayerInputFunc func(ctx context.Context, sessionID, content, lang string) error

// Adapter is the shape a Discord front end would implement: one
// channel/thread maps to one session_id, and incoming messages are handed
// to OnPlayerInput for forwarding to the Session Channel.
type Adapter struct {
	// OnPlayerInput is called for each translated Discord message.
	OnPlayerInput PlayerInputFunc

	// ChannelSessionID maps a Discord channel or thread ID to the
	// session_id bound in internal/session.Registry.
	ChannelSessionID func(discordChannelID string) string
}

// HandleMessage is the shape a discordgo MessageCreate handler would call
// into. It is unexported from any real event loop because no gateway
// connection is established here — wiring a live discordgo.Session is left
// to a deployment that actually wants a Discord front end.
func (a *Adapter) HandleMessage(ctx context.Context, discordChannelID, content, lang string) error {
	sessionID := a.ChannelSessionID(discordChannelID)
	return a.OnPlayerInput(ctx, sessionID, content, lang)
}
