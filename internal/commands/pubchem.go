package commands

import (
	"context"
	"encoding/json"
	"errors"
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

const (
	pubchemSiteURL = "https://pubchem.ncbi.nlm.nih.gov"
	pugAPIURL      = pubchemSiteURL + "/rest/pug"

	// Compound properties requested from the PUG REST property table.
	pubchemProperties = "Title,IUPACName,MolecularFormula,MolecularWeight,Charge"

	pubchemEmbedColor = 0xF6CEE7
)

// compoundProps is one row of PubChem's property table response.
type compoundProps struct {
	CID              int    `json:"CID"`
	Title            string `json:"Title"`
	IUPACName        string `json:"IUPACName"`
	MolecularFormula string `json:"MolecularFormula"`
	MolecularWeight  string `json:"MolecularWeight"`
	Charge           int    `json:"Charge"`
}

type pubchemPropertyTable struct {
	PropertyTable struct {
		Properties []compoundProps `json:"Properties"`
	} `json:"PropertyTable"`
}

// pubchemFault is the error document PUG REST returns on failed lookups.
type pubchemFault struct {
	Fault struct {
		Code    string   `json:"Code"`
		Message string   `json:"Message"`
		Details []string `json:"Details"`
	} `json:"Fault"`
}

// Pubchem implements the /pubchem command: compound lookup against
// PubChem's PUG REST API, with a 2D/3D diagram toggle button and a result
// switcher when a name maps to several compounds.
type Pubchem struct {
	fetcher outbound.Fetcher
	editor  outbound.ResponseEditor
	logger  *slog.Logger
}

func NewPubchem(fetcher outbound.Fetcher, editor outbound.ResponseEditor, logger *slog.Logger) *Pubchem {
	return &Pubchem{fetcher: fetcher, editor: editor, logger: logger}
}

func (p *Pubchem) Command() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:         "pubchem",
		Description:  "Fetch the details of a compound from PubChem",
		Type:         discordgo.ChatApplicationCommand,
		DMPermission: boolp(false),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "compound_name",
				Description: "The name of the compound / Try to use IUPAC Name for accurate result",
				Required:    true,
			},
		},
	}
}

func (p *Pubchem) Handle(ctx context.Context, req inbound.Request) (*discordgo.InteractionResponse, error) {
	switch req.Interaction.Type {
	case discordgo.InteractionApplicationCommand:
		data := req.Interaction.ApplicationCommandData()
		if len(data.Options) == 0 {
			return model.Ephemeral("A compound name is required."), nil
		}
		compound := data.Options[0].StringValue()
		token := req.Interaction.Token
		req.Batch.Add("pubchem-lookup", func(ctx context.Context) error {
			return p.lookupAndRender(ctx, token, byName(compound))
		})
		return model.Deferred(), nil

	case discordgo.InteractionMessageComponent:
		return p.handleComponent(ctx, req)
	}
	return model.NotImplemented(), nil
}

func (p *Pubchem) handleComponent(_ context.Context, req inbound.Request) (*discordgo.InteractionResponse, error) {
	switch req.Route.Action {
	case "toggleDim":
		return p.toggleDiagram(req.Interaction)

	case "switchLink":
		data := req.Interaction.MessageComponentData()
		if len(data.Values) == 0 {
			return model.Ephemeral("No compound selected."), nil
		}
		cid := data.Values[0]
		token := req.Interaction.Token
		req.Batch.Add("pubchem-switch", func(ctx context.Context) error {
			return p.lookupAndRender(ctx, token, byCID(cid))
		})
		return model.DeferredUpdate(), nil
	}
	return model.NotImplemented(), nil
}

// toggleDiagram flips the record_type query parameter on the embed's image
// between the 2D and 3D renders. The state lives in the message itself, so
// no fetch is needed.
func (p *Pubchem) toggleDiagram(interaction *discordgo.Interaction) (*discordgo.InteractionResponse, error) {
	msg := interaction.Message
	if msg == nil || len(msg.Embeds) == 0 || msg.Embeds[0].Image == nil {
		return model.Ephemeral("Nothing to toggle on this message."), nil
	}

	imageURL, err := url.Parse(msg.Embeds[0].Image.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing embed image url: %w", err)
	}
	q := imageURL.Query()
	next := "3d"
	if q.Get("record_type") == "3d" {
		next = "2d"
	}
	q.Set("record_type", next)
	imageURL.RawQuery = q.Encode()
	msg.Embeds[0].Image.URL = imageURL.String()

	return model.UpdateMessage(&discordgo.InteractionResponseData{
		Embeds:     msg.Embeds,
		Components: []discordgo.MessageComponent{dimensionToggleRow(next)},
	}), nil
}

// lookupKey selects the PUG REST path for a lookup: by compound name or by
// compound ID (when switching between search results).
type lookupKey struct {
	kind  string
	value string
}

func byName(name string) lookupKey { return lookupKey{kind: "name", value: name} }
func byCID(cid string) lookupKey   { return lookupKey{kind: "cid", value: cid} }

func (p *Pubchem) lookupAndRender(ctx context.Context, token string, key lookupKey) error {
	requestURL := fmt.Sprintf("%s/compound/%s/%s/property/%s/JSON",
		pugAPIURL, key.kind, url.PathEscape(key.value), pubchemProperties)

	body, err := p.fetcher.Get(ctx, requestURL)
	if err != nil {
		return editContent(ctx, p.editor, token, pubchemErrorContent(err))
	}

	var table pubchemPropertyTable
	if err := json.Unmarshal(body, &table); err != nil {
		p.logger.Error("pubchem response did not parse", "url", requestURL, "error", err)
		return editContent(ctx, p.editor, token, "Error while fetching data from Pubchem.")
	}
	compounds := table.PropertyTable.Properties
	if len(compounds) == 0 {
		return editContent(ctx, p.editor, token,
			fmt.Sprintf("No compound found for '%s'.", key.value))
	}

	embeds := []*discordgo.MessageEmbed{compoundEmbed(compounds[0])}
	components := compoundComponents(compounds)
	return p.editor.EditOriginal(ctx, token, &discordgo.WebhookEdit{
		Content:    strp(fmt.Sprintf("Here's the data found for '%s'.", key.value)),
		Embeds:     &embeds,
		Components: &components,
	})
}

// pubchemErrorContent renders the PUG REST fault document when the
// upstream error carried one, and a generic notice otherwise.
func pubchemErrorContent(err error) string {
	var apiErr *apierror.Error
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		var fault pubchemFault
		if jsonErr := json.Unmarshal([]byte(apiErr.Detail), &fault); jsonErr == nil && fault.Fault.Code != "" {
			return fmt.Sprintf(
				"Error while fetching data from Pubchem.\nAPI responded with **%s** _«%s»_ - \"**__%s__**\".",
				fault.Fault.Code, fault.Fault.Message, strings.Join(fault.Fault.Details, "; "))
		}
	}
	return "Error while fetching data from Pubchem."
}

func compoundEmbed(compound compoundProps) *discordgo.MessageEmbed {
	imageURL := fmt.Sprintf("%s/compound/cid/%d/PNG", pugAPIURL, compound.CID)
	embed := &discordgo.MessageEmbed{
		Title: compound.Title,
		Color: pubchemEmbedColor,
		URL:   fmt.Sprintf("%s/compound/%d", pubchemSiteURL, compound.CID),
		Thumbnail: &discordgo.MessageEmbedThumbnail{
			URL: imageURL + "?record_type=3d&image_size=small",
		},
		Image: &discordgo.MessageEmbedImage{URL: imageURL + "?record_type=2d"},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Molecular Formula", Value: compound.MolecularFormula},
			{Name: "Molecular Weight", Value: compound.MolecularWeight},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text:    "Fetched from PubChem",
			IconURL: pubchemSiteURL + "/favicon.ico",
		},
	}
	// IUPACName is missing for fragments like phenyl.
	if compound.IUPACName != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "IUPAC Name", Value: compound.IUPACName,
		})
	}
	if compound.Charge != 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Charge", Value: fmt.Sprintf("%d", compound.Charge),
		})
	}
	return embed
}

// compoundComponents builds the message components: a result switcher when
// the lookup matched several compounds, and always the diagram toggle.
func compoundComponents(compounds []compoundProps) []discordgo.MessageComponent {
	var components []discordgo.MessageComponent

	if len(compounds) > 1 {
		options := make([]discordgo.SelectMenuOption, 0, len(compounds))
		for _, compound := range compounds {
			options = append(options, discordgo.SelectMenuOption{
				Label: compound.Title,
				Value: fmt.Sprintf("%d", compound.CID),
			})
		}
		components = append(components, discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					CustomID:    model.ComponentID{Command: "pubchem", Action: "switchLink"}.String(),
					Placeholder: "Select a compound",
					Options:     options,
				},
			},
		})
	}

	components = append(components, dimensionToggleRow("2d"))
	return components
}

// dimensionToggleRow renders the toggle button. current is the record_type
// the message shows now; the label offers the other one.
func dimensionToggleRow(current string) discordgo.ActionsRow {
	label := "Show 3D diagram"
	if current == "3d" {
		label = "Show 2D diagram"
	}
	return discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{
			discordgo.Button{
				Label:    label,
				Style:    discordgo.PrimaryButton,
				CustomID: model.ComponentID{Command: "pubchem", Action: "toggleDim"}.String(),
			},
		},
	}
}
