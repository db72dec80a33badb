package model

import "github.com/bwmarrin/discordgo"

// Pong is the fixed acknowledgement for a Ping interaction.
func Pong() *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{Type: discordgo.InteractionResponsePong}
}

// Deferred acknowledges a command interaction with the "message will
// follow" placeholder. The handler owes exactly one follow-up edit.
func Deferred() *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}
}

// DeferredUpdate acknowledges a component interaction whose message will
// be edited out-of-band.
func DeferredUpdate() *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	}
}

// UpdateMessage answers a component interaction synchronously by replacing
// the message it was attached to.
func UpdateMessage(data *discordgo.InteractionResponseData) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: data,
	}
}

// Ephemeral builds an immediate message response visible only to the
// invoking user.
func Ephemeral(content string) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}
}

// NotImplemented is the routing-miss reply. The webhook delivery itself
// succeeded, so this is a 200 with an ephemeral notice rather than an
// error status.
func NotImplemented() *discordgo.InteractionResponse {
	return Ephemeral("This command isn't implemented here yet.")
}
