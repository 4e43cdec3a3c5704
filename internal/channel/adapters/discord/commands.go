package discord

import (
	"context"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/memohai/recallbot/internal/channel"
)

var commandNames = map[string]string{
	"recall-stats":    channel.CommandStats,
	"recall-clear":    channel.CommandClear,
	"recall-backfill": channel.CommandBackfill,
}

func slashCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{Name: "recall-stats", Description: "Show the top recall reasons"},
		{Name: "recall-clear", Description: "Reset all recall statistics"},
		{Name: "recall-backfill", Description: "Count recall notices already posted in this channel"},
	}
}

func (a *Adapter) onInteraction(ctx context.Context, handler channel.Handler, s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i == nil || i.Interaction == nil || i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	name, ok := commandNames[i.ApplicationCommandData().Name]
	if !ok {
		return
	}
	// Backfill can exceed the three second interaction deadline.
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		a.logger.Error("defer interaction failed", slog.String("command", name), slog.Any("error", err))
		return
	}

	reply := runCommand(ctx, handler, channel.Command{
		Name:      name,
		ChannelID: i.ChannelID,
		AuthorID:  interactionUserID(i.Interaction),
	})
	reply = channel.Truncate(reply, messageLimit)
	if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Content: &reply}); err != nil {
		a.logger.Error("reply interaction failed", slog.String("command", name), slog.Any("error", err))
	}
}

func runCommand(ctx context.Context, handler channel.Handler, cmd channel.Command) string {
	reply, err := handler.HandleCommand(ctx, cmd)
	if err != nil {
		return "Error: " + err.Error()
	}
	return reply
}

func interactionUserID(i *discordgo.Interaction) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}
