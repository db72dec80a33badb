package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jonny/ritsu-bot/internal/domain/model"
	"github.com/jonny/ritsu-bot/internal/domain/port/inbound"
	"github.com/jonny/ritsu-bot/internal/domain/port/outbound"
	"github.com/jonny/ritsu-bot/pkg/apierror"
)

const (
	subspleaseSiteURL = "https://subsplease.org"
	// Schedule endpoint, pinned to UTC so cached responses are shared by
	// every caller regardless of locale.
	subspleaseScheduleURL = subspleaseSiteURL + "/api/?f=schedule&tz=UTC"
)

var daysOfWeek = []string{
	"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday",
}

// subspleaseSchedule is the shape of the schedule API response.
type subspleaseSchedule struct {
	Schedule map[string][]struct {
		Title string `json:"title"`
		Page  string `json:"page"`
		Time  string `json:"time"`
	} `json:"schedule"`
}

// Subsplease implements the /subsplease command: the SubsPlease release
// schedule for a day of the week, with a select menu to switch days.
type Subsplease struct {
	fetcher outbound.Fetcher
	editor  outbound.ResponseEditor
	logger  *slog.Logger
	now     func() time.Time
}

func NewSubsplease(fetcher outbound.Fetcher, editor outbound.ResponseEditor, logger *slog.Logger) *Subsplease {
	return &Subsplease{fetcher: fetcher, editor: editor, logger: logger, now: time.Now}
}

func (s *Subsplease) Command() *discordgo.ApplicationCommand {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(daysOfWeek))
	for _, day := range daysOfWeek {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name: day, Value: day,
		})
	}
	return &discordgo.ApplicationCommand{
		Name:         "subsplease",
		Description:  "Commands to access Subsplease API",
		Type:         discordgo.ChatApplicationCommand,
		DMPermission: boolp(false),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "schedule",
				Description: "Shows release schedule of Subsplease",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "day_of_week",
						Description: "Day of week to fetch schedule for",
						Choices:     choices,
					},
				},
			},
		},
	}
}

func (s *Subsplease) Handle(ctx context.Context, req inbound.Request) (*discordgo.InteractionResponse, error) {
	switch req.Interaction.Type {
	case discordgo.InteractionApplicationCommand:
		data := req.Interaction.ApplicationCommandData()
		if len(data.Options) == 0 || data.Options[0].Name != "schedule" {
			return model.NotImplemented(), nil
		}

		day := s.now().UTC().Weekday().String()
		if opts := subcommandOptions(data.Options[0]); opts["day_of_week"] != "" {
			day = opts["day_of_week"]
		}

		token := req.Interaction.Token
		req.Batch.Add("subsplease-schedule", func(ctx context.Context) error {
			return s.fetchAndRender(ctx, token, day)
		})
		return model.Deferred(), nil

	case discordgo.InteractionMessageComponent:
		if req.Route.Action != "scheduleDay" {
			return model.NotImplemented(), nil
		}
		data := req.Interaction.MessageComponentData()
		if len(data.Values) == 0 {
			return model.Ephemeral("No day selected."), nil
		}
		day := data.Values[0]
		token := req.Interaction.Token
		req.Batch.Add("subsplease-switch-day", func(ctx context.Context) error {
			return s.fetchAndRender(ctx, token, day)
		})
		return model.DeferredUpdate(), nil
	}
	return model.NotImplemented(), nil
}

func (s *Subsplease) fetchAndRender(ctx context.Context, token, day string) error {
	body, err := s.fetcher.Get(ctx, subspleaseScheduleURL)
	if err != nil {
		content := "Error while fetching the schedule."
		if status, ok := apierror.StatusOf(err); ok {
			content = fmt.Sprintf("Error while fetching the schedule.\nAPI responded with **%d**.", status)
		}
		return editContent(ctx, s.editor, token, content)
	}

	var schedule subspleaseSchedule
	if err := json.Unmarshal(body, &schedule); err != nil {
		s.logger.Error("schedule response did not parse", "error", err)
		return editContent(ctx, s.editor, token, "Error while fetching the schedule.")
	}

	embeds := []*discordgo.MessageEmbed{scheduleEmbed(schedule, day)}
	components := []discordgo.MessageComponent{daySelectRow()}
	return s.editor.EditOriginal(ctx, token, &discordgo.WebhookEdit{
		Content:    strp("Here's the current release schedule of SubsPlease."),
		Embeds:     &embeds,
		Components: &components,
	})
}

func scheduleEmbed(schedule subspleaseSchedule, day string) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{Title: "Schedule for " + day}

	shows, ok := schedule.Schedule[day]
	if !ok || len(shows) == 0 {
		embed.Description = "_No anime found for this day._"
		return embed
	}
	for _, show := range shows {
		embed.Description += fmt.Sprintf("%s - [%s](%s/%s)\n",
			show.Time, show.Title, subspleaseSiteURL, show.Page)
	}
	return embed
}

func daySelectRow() discordgo.ActionsRow {
	options := make([]discordgo.SelectMenuOption, 0, len(daysOfWeek))
	for _, day := range daysOfWeek {
		options = append(options, discordgo.SelectMenuOption{Label: day, Value: day})
	}
	return discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				CustomID:    model.ComponentID{Command: "subsplease", Action: "scheduleDay"}.String(),
				Placeholder: "Select a day",
				Options:     options,
			},
		},
	}
}
