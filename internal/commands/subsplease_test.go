package commands

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
)

const mondaySchedule = `{"tz":"UTC","schedule":{
	"Monday":[
		{"title":"One Piece","page":"one-piece","time":"01:30"},
		{"title":"Frieren","page":"sousou-no-frieren","time":"14:00"}
	],
	"Tuesday":[]
}}`

func newTestSubsplease(fetcher *fakeFetcher, editor *fakeEditor) *Subsplease {
	return NewSubsplease(fetcher, editor, slog.New(slog.DiscardHandler))
}

func TestSubsplease_ScheduleForChosenDay(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.responses[subspleaseScheduleURL] = []byte(mondaySchedule)
	editor := &fakeEditor{}
	handler := newTestSubsplease(fetcher, editor)

	req := newRequest(t, decodeInteraction(t, `{
		"type": 2, "token": "tok-s1",
		"data": {"name": "subsplease", "type": 1, "options": [{
			"name": "schedule", "type": 1, "options": [
				{"name": "day_of_week", "type": 3, "value": "Monday"}
			]}]}
	}`))

	resp, err := handler.Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if resp.Type != discordgo.InteractionResponseDeferredChannelMessageWithSource {
		t.Fatalf("response type = %d, want deferred", resp.Type)
	}

	edit := requireOneEdit(t, req.Batch, editor)
	if got := editedContent(t, edit); got != "Here's the current release schedule of SubsPlease." {
		t.Errorf("content = %q", got)
	}
	embed := (*edit.edit.Embeds)[0]
	if embed.Title != "Schedule for Monday" {
		t.Errorf("embed title = %q", embed.Title)
	}
	if !strings.Contains(embed.Description, "01:30 - [One Piece](https://subsplease.org/one-piece)") {
		t.Errorf("description = %q", embed.Description)
	}

	menu := (*edit.edit.Components)[0].(discordgo.ActionsRow).Components[0].(discordgo.SelectMenu)
	if menu.CustomID != "subsplease_scheduleDay" {
		t.Errorf("custom_id = %q", menu.CustomID)
	}
	if len(menu.Options) != 7 {
		t.Errorf("day options = %d, want 7", len(menu.Options))
	}
}

func TestSubsplease_DefaultsToToday(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.responses[subspleaseScheduleURL] = []byte(mondaySchedule)
	editor := &fakeEditor{}
	handler := newTestSubsplease(fetcher, editor)
	// 2024-01-01 was a Monday.
	handler.now = func() time.Time {
		return time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)
	}

	req := newRequest(t, decodeInteraction(t, `{
		"type": 2, "token": "tok-s2",
		"data": {"name": "subsplease", "type": 1, "options": [{
			"name": "schedule", "type": 1}]}
	}`))

	if _, err := handler.Handle(context.Background(), req); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	edit := requireOneEdit(t, req.Batch, editor)
	if title := (*edit.edit.Embeds)[0].Title; title != "Schedule for Monday" {
		t.Errorf("embed title = %q, want today's day", title)
	}
}

func TestSubsplease_EmptyDay(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.responses[subspleaseScheduleURL] = []byte(mondaySchedule)
	editor := &fakeEditor{}
	handler := newTestSubsplease(fetcher, editor)

	req := newRequest(t, decodeInteraction(t, `{
		"type": 2, "token": "tok-s3",
		"data": {"name": "subsplease", "type": 1, "options": [{
			"name": "schedule", "type": 1, "options": [
				{"name": "day_of_week", "type": 3, "value": "Tuesday"}
			]}]}
	}`))

	if _, err := handler.Handle(context.Background(), req); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	edit := requireOneEdit(t, req.Batch, editor)
	if desc := (*edit.edit.Embeds)[0].Description; desc != "_No anime found for this day._" {
		t.Errorf("description = %q", desc)
	}
}

func TestSubsplease_DaySelectRefetches(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.responses[subspleaseScheduleURL] = []byte(mondaySchedule)
	editor := &fakeEditor{}
	handler := newTestSubsplease(fetcher, editor)

	req := newRequest(t, decodeInteraction(t, `{
		"type": 3, "token": "tok-s4",
		"data": {"custom_id": "subsplease_scheduleDay", "component_type": 3,
			"values": ["Monday"]}
	}`))

	resp, err := handler.Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if resp.Type != discordgo.InteractionResponseDeferredMessageUpdate {
		t.Fatalf("response type = %d, want deferred update", resp.Type)
	}
	edit := requireOneEdit(t, req.Batch, editor)
	if title := (*edit.edit.Embeds)[0].Title; title != "Schedule for Monday" {
		t.Errorf("embed title = %q", title)
	}
}
