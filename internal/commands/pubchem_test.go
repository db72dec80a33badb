package commands

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"

	"github.com/jonny/ritsu-bot/internal/domain/model"
	"github.com/jonny/ritsu-bot/pkg/apierror"
)

const aspirinTable = `{"PropertyTable":{"Properties":[{
	"CID":2244,"Title":"Aspirin","IUPACName":"2-acetyloxybenzoic acid",
	"MolecularFormula":"C9H8O4","MolecularWeight":"180.16","Charge":0}]}}`

const aspirinURL = pugAPIURL + "/compound/name/aspirin/property/" + pubchemProperties + "/JSON"

func newTestPubchem(fetcher *fakeFetcher, editor *fakeEditor) *Pubchem {
	return NewPubchem(fetcher, editor, slog.New(slog.DiscardHandler))
}

func TestPubchem_CommandDefersAndEditsOnce(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.responses[aspirinURL] = []byte(aspirinTable)
	editor := &fakeEditor{}
	handler := newTestPubchem(fetcher, editor)

	req := newRequest(t, decodeInteraction(t, `{
		"type": 2, "token": "tok-1",
		"data": {"name": "pubchem", "type": 1,
			"options": [{"name": "compound_name", "type": 3, "value": "aspirin"}]}
	}`))

	resp, err := handler.Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if resp.Type != discordgo.InteractionResponseDeferredChannelMessageWithSource {
		t.Fatalf("response type = %d, want deferred", resp.Type)
	}
	if editor.recorded() != nil {
		t.Fatal("edit happened before the batch was dispatched")
	}

	edit := requireOneEdit(t, req.Batch, editor)
	if edit.token != "tok-1" {
		t.Errorf("edit token = %q", edit.token)
	}
	if got := editedContent(t, edit); got != "Here's the data found for 'aspirin'." {
		t.Errorf("content = %q", got)
	}
	if edit.edit.Embeds == nil || len(*edit.edit.Embeds) != 1 {
		t.Fatal("expected exactly one embed")
	}
	embed := (*edit.edit.Embeds)[0]
	if embed.Title != "Aspirin" || embed.Color != pubchemEmbedColor {
		t.Errorf("embed = %q color %#x", embed.Title, embed.Color)
	}
	if !strings.Contains(embed.Image.URL, "record_type=2d") {
		t.Errorf("image url = %q, want 2d render", embed.Image.URL)
	}
	// Single result: only the toggle button, no switcher.
	if edit.edit.Components == nil || len(*edit.edit.Components) != 1 {
		t.Fatal("expected exactly one component row")
	}
}

func TestPubchem_UpstreamFaultRendersError(t *testing.T) {
	fetcher := newFakeFetcher()
	badURL := pugAPIURL + "/compound/name/nosuch/property/" + pubchemProperties + "/JSON"
	fetcher.errs[badURL] = apierror.Upstream(404, badURL, `{"Fault":{
		"Code":"PUGREST.NotFound","Message":"Record not found",
		"Details":["No CID found that matches the given name"]}}`)
	editor := &fakeEditor{}
	handler := newTestPubchem(fetcher, editor)

	req := newRequest(t, decodeInteraction(t, `{
		"type": 2, "token": "tok-2",
		"data": {"name": "pubchem", "type": 1,
			"options": [{"name": "compound_name", "type": 3, "value": "nosuch"}]}
	}`))
	if _, err := handler.Handle(context.Background(), req); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	edit := requireOneEdit(t, req.Batch, editor)
	content := editedContent(t, edit)
	if !strings.Contains(content, "PUGREST.NotFound") || !strings.Contains(content, "Record not found") {
		t.Errorf("error content = %q", content)
	}
}

func TestPubchem_ToggleDimFlipsImage(t *testing.T) {
	handler := newTestPubchem(newFakeFetcher(), &fakeEditor{})

	req := newRequest(t, decodeInteraction(t, `{
		"type": 3, "token": "tok-3",
		"data": {"custom_id": "pubchem_toggleDim", "component_type": 2},
		"message": {"embeds": [{
			"image": {"url": "`+pugAPIURL+`/compound/cid/2244/PNG?record_type=2d"}}]}
	}`))

	resp, err := handler.Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if resp.Type != discordgo.InteractionResponseUpdateMessage {
		t.Fatalf("response type = %d, want update message", resp.Type)
	}
	if !strings.Contains(resp.Data.Embeds[0].Image.URL, "record_type=3d") {
		t.Errorf("image url = %q, want 3d render", resp.Data.Embeds[0].Image.URL)
	}
	if req.Batch.Len() != 0 {
		t.Error("toggle should not schedule background work")
	}

	button := resp.Data.Components[0].(discordgo.ActionsRow).Components[0].(discordgo.Button)
	if button.Label != "Show 2D diagram" {
		t.Errorf("button label = %q", button.Label)
	}

	// The rendered custom_id must route back to this handler.
	route, err := model.ParseComponentID(button.CustomID)
	if err != nil {
		t.Fatalf("parsing rendered custom_id %q: %v", button.CustomID, err)
	}
	if route.Command != "pubchem" || route.Action != "toggleDim" {
		t.Errorf("rendered custom_id routes to %+v", route)
	}
}

func TestPubchem_SwitchLinkFetchesByCID(t *testing.T) {
	fetcher := newFakeFetcher()
	cidURL := pugAPIURL + "/compound/cid/2244/property/" + pubchemProperties + "/JSON"
	fetcher.responses[cidURL] = []byte(aspirinTable)
	editor := &fakeEditor{}
	handler := newTestPubchem(fetcher, editor)

	req := newRequest(t, decodeInteraction(t, `{
		"type": 3, "token": "tok-4",
		"data": {"custom_id": "pubchem_switchLink", "component_type": 3, "values": ["2244"]}
	}`))

	resp, err := handler.Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if resp.Type != discordgo.InteractionResponseDeferredMessageUpdate {
		t.Fatalf("response type = %d, want deferred update", resp.Type)
	}

	requireOneEdit(t, req.Batch, editor)
	urls := fetcher.requestedURLs()
	if len(urls) != 1 || urls[0] != cidURL {
		t.Errorf("requested %v, want %q", urls, cidURL)
	}
}
