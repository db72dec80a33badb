package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/jonny/ritsu-bot/internal/domain/model"
	"github.com/jonny/ritsu-bot/internal/domain/port/inbound"
	"github.com/jonny/ritsu-bot/internal/domain/port/outbound"
	"github.com/jonny/ritsu-bot/pkg/apierror"
)

// Wiki implements the /wiki command: MediaWiki opensearch against either
// a Fandom wiki or a Wikipedia language edition, with a select menu to
// switch between the returned articles.
type Wiki struct {
	fetcher outbound.Fetcher
	editor  outbound.ResponseEditor
	logger  *slog.Logger
}

func NewWiki(fetcher outbound.Fetcher, editor outbound.ResponseEditor, logger *slog.Logger) *Wiki {
	return &Wiki{fetcher: fetcher, editor: editor, logger: logger}
}

func (w *Wiki) Command() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:         "wiki",
		Description:  "Commands to access various wiki pages",
		Type:         discordgo.ChatApplicationCommand,
		DMPermission: boolp(false),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "fandom",
				Description: "Search for any article from any fandom",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "search_term",
						Description: "Term to search for",
						Required:    true,
					},
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "fandom_name",
						Description: "Fandom site to search in",
						Required:    true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "wikipedia",
				Description: "Search for any article from wikipedia",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "search_term",
						Description: "Term to search for",
						Required:    true,
					},
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "language",
						Description: "Language edition to search in",
					},
				},
			},
		},
	}
}

func (w *Wiki) Handle(ctx context.Context, req inbound.Request) (*discordgo.InteractionResponse, error) {
	switch req.Interaction.Type {
	case discordgo.InteractionApplicationCommand:
		return w.handleCommand(req)
	case discordgo.InteractionMessageComponent:
		if req.Route.Action == "search" {
			return switchArticle(req.Interaction)
		}
	}
	return model.NotImplemented(), nil
}

func (w *Wiki) handleCommand(req inbound.Request) (*discordgo.InteractionResponse, error) {
	data := req.Interaction.ApplicationCommandData()
	if len(data.Options) == 0 {
		return model.Ephemeral("A subcommand is required."), nil
	}
	sub := data.Options[0]
	opts := subcommandOptions(sub)

	searchTerm := opts["search_term"]
	var baseURL string
	switch sub.Name {
	case "fandom":
		baseURL = fmt.Sprintf("https://%s.fandom.com/api.php", opts["fandom_name"])
	case "wikipedia":
		// Default the language edition to the invoking user's locale.
		language, _, _ := strings.Cut(string(req.Interaction.Locale), "-")
		if language == "" {
			language = "en"
		}
		if lang := opts["language"]; lang != "" {
			language = lang
		}
		baseURL = fmt.Sprintf("https://%s.wikipedia.org/w/api.php", language)
	default:
		return model.NotImplemented(), nil
	}

	token := req.Interaction.Token
	req.Batch.Add("wiki-search", func(ctx context.Context) error {
		return w.searchAndRender(ctx, token, baseURL, searchTerm)
	})
	return model.Deferred(), nil
}

func (w *Wiki) searchAndRender(ctx context.Context, token, baseURL, searchTerm string) error {
	query := url.Values{
		"action": {"opensearch"},
		"search": {searchTerm},
		"limit":  {"5"},
	}
	requestURL := baseURL + "?" + query.Encode()

	body, err := w.fetcher.Get(ctx, requestURL)
	if err != nil {
		content := "Error while fetching the article."
		if status, ok := apierror.StatusOf(err); ok {
			content = fmt.Sprintf("Error while fetching the article.\nAPI responded with **%d**.", status)
		}
		return editContent(ctx, w.editor, token, content)
	}

	titles, links, err := parseOpensearch(body)
	if err != nil {
		w.logger.Error("opensearch response did not parse", "url", requestURL, "error", err)
		return editContent(ctx, w.editor, token, "Error while fetching the article.")
	}
	if len(titles) == 0 {
		return editContent(ctx, w.editor, token,
			fmt.Sprintf("No search results found for %s", searchTerm))
	}

	edit := &discordgo.WebhookEdit{
		Content: strp(fmt.Sprintf("Found this article for '%s'.\nDirect link: [Click here](%s)",
			searchTerm, links[0])),
	}
	if len(titles) > 1 {
		options := make([]discordgo.SelectMenuOption, 0, len(titles))
		for i, title := range titles {
			options = append(options, discordgo.SelectMenuOption{
				Label: title,
				Value: lastPathSegment(links[i]),
			})
		}
		components := []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.SelectMenu{
						CustomID:    model.ComponentID{Command: "wiki", Action: "search"}.String(),
						Placeholder: "Select another article",
						Options:     options,
					},
				},
			},
		}
		edit.Components = &components
	}
	return w.editor.EditOriginal(ctx, token, edit)
}

// switchArticle rewrites the article link in the message to the selected
// title. The link is the last path segment of the URL in the content, so
// no fetch is needed.
func switchArticle(interaction *discordgo.Interaction) (*discordgo.InteractionResponse, error) {
	data := interaction.MessageComponentData()
	if interaction.Message == nil || len(data.Values) == 0 {
		return model.Ephemeral("No article selected."), nil
	}

	content := interaction.Message.Content
	idx := strings.LastIndex(content, "/")
	if idx < 0 {
		return model.Ephemeral("This message has no article link to update."), nil
	}
	return model.UpdateMessage(&discordgo.InteractionResponseData{
		Content: content[:idx] + "/" + data.Values[0] + ")",
	}), nil
}

// parseOpensearch decodes the MediaWiki opensearch quadruple
// [term, titles, descriptions, links].
func parseOpensearch(body []byte) (titles, links []string, err error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, nil, err
	}
	if len(raw) < 4 {
		return nil, nil, fmt.Errorf("opensearch response has %d elements, want 4", len(raw))
	}
	if err := json.Unmarshal(raw[1], &titles); err != nil {
		return nil, nil, fmt.Errorf("decoding titles: %w", err)
	}
	if err := json.Unmarshal(raw[3], &links); err != nil {
		return nil, nil, fmt.Errorf("decoding links: %w", err)
	}
	if len(links) < len(titles) {
		return nil, nil, fmt.Errorf("opensearch returned %d titles but %d links", len(titles), len(links))
	}
	return titles, links, nil
}

func lastPathSegment(link string) string {
	if idx := strings.LastIndex(link, "/"); idx >= 0 {
		return link[idx+1:]
	}
	return link
}
