package commands

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jonny/ritsu-bot/internal/domain/model"
	"github.com/jonny/ritsu-bot/internal/domain/port/inbound"
	"github.com/jonny/ritsu-bot/internal/tasks"
)

// fakeFetcher serves canned bodies (or errors) by exact URL and records
// the URLs requested.
type fakeFetcher struct {
	mu        sync.Mutex
	responses map[string][]byte
	errs      map[string]error
	requested []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		responses: make(map[string][]byte),
		errs:      make(map[string]error),
	}
}

func (f *fakeFetcher) Get(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requested = append(f.requested, url)
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	if body, ok := f.responses[url]; ok {
		return body, nil
	}
	return nil, &urlNotStubbedError{url}
}

type urlNotStubbedError struct{ url string }

func (e *urlNotStubbedError) Error() string { return "no stub for " + e.url }

func (f *fakeFetcher) requestedURLs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requested...)
}

type recordedEdit struct {
	token string
	edit  *discordgo.WebhookEdit
}

// fakeEditor records every EditOriginal call.
type fakeEditor struct {
	mu    sync.Mutex
	edits []recordedEdit
}

func (e *fakeEditor) EditOriginal(_ context.Context, token string, edit *discordgo.WebhookEdit) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.edits = append(e.edits, recordedEdit{token: token, edit: edit})
	return nil
}

func (e *fakeEditor) recorded() []recordedEdit {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]recordedEdit(nil), e.edits...)
}

// requireOneEdit dispatches the batch, waits for it, and asserts exactly
// one follow-up edit happened.
func requireOneEdit(t *testing.T, batch *tasks.Batch, editor *fakeEditor) recordedEdit {
	t.Helper()
	tracker := tasks.NewTracker(slog.New(slog.DiscardHandler), 5*time.Second)
	batch.Dispatch(tracker)
	tracker.Wait()

	edits := editor.recorded()
	if len(edits) != 1 {
		t.Fatalf("got %d follow-up edits, want exactly 1", len(edits))
	}
	return edits[0]
}

func decodeInteraction(t *testing.T, raw string) *discordgo.Interaction {
	t.Helper()
	var interaction discordgo.Interaction
	if err := json.Unmarshal([]byte(raw), &interaction); err != nil {
		t.Fatalf("decoding interaction: %v", err)
	}
	return &interaction
}

// newRequest builds the per-interaction request a router would hand to a
// handler, parsing the routing key for component interactions.
func newRequest(t *testing.T, interaction *discordgo.Interaction) inbound.Request {
	t.Helper()
	req := inbound.Request{Interaction: interaction, Batch: tasks.NewBatch()}
	if interaction.Type == discordgo.InteractionMessageComponent {
		route, err := model.ParseComponentID(interaction.MessageComponentData().CustomID)
		if err != nil {
			t.Fatalf("parsing custom_id: %v", err)
		}
		req.Route = route
	}
	return req
}

func editedContent(t *testing.T, edit recordedEdit) string {
	t.Helper()
	if edit.edit.Content == nil {
		t.Fatal("edit has no content")
	}
	return *edit.edit.Content
}
