package telegram

import (
	"context"
	"errors"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/hyperjump/vaxguide/internal/apperr"
	vaxmodels "github.com/hyperjump/vaxguide/internal/models"
	"github.com/hyperjump/vaxguide/internal/pipeline"
)

type fakeAsker struct {
	asked []string
	err   error
}

func (f *fakeAsker) Answer(ctx context.Context, q string) (*vaxmodels.Answer, error) {
	f.asked = append(f.asked, q)
	if f.err != nil {
		return nil, f.err
	}
	return &vaxmodels.Answer{Question: q, Text: "Yellow fever vaccination is required.", Grounded: true}, nil
}

type fakeSender struct {
	sent    []*bot.SendMessageParams
	actions int
}

func (f *fakeSender) SendMessage(ctx context.Context, p *bot.SendMessageParams) (*models.Message, error) {
	f.sent = append(f.sent, p)
	return &models.Message{}, nil
}

func (f *fakeSender) SendChatAction(ctx context.Context, p *bot.SendChatActionParams) (bool, error) {
	f.actions++
	return true, nil
}

func TestBot_Reply(t *testing.T) {
	asker := &fakeAsker{}
	b := &Bot{asker: asker, logger: zap.NewNop()}
	ctx := context.Background()

	tests := []struct {
		in   string
		want string
	}{
		{"/start", usage},
		{"/help", usage},
		{"/HELP@vaxguide_bot extra", usage},
		{"/weather", "Unknown command. Send /help for usage."},
		{"   ", "Please enter a question."},
		{" Is yellow fever vaccine required for Brazil? ", "Yellow fever vaccination is required."},
	}
	for _, tt := range tests {
		if got := b.Reply(ctx, tt.in); got != tt.want {
			t.Errorf("Reply(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if len(asker.asked) != 1 || asker.asked[0] != "Is yellow fever vaccine required for Brazil?" {
		t.Errorf("asked = %q", asker.asked)
	}
}

func TestBot_Reply_errors(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{apperr.Generation("chat completion", errors.New("429")), pipeline.UnableToAnswer},
		{pipeline.ErrNotReady, "Error: the document index is not ready yet."},
	}
	for _, tt := range tests {
		b := &Bot{asker: &fakeAsker{err: tt.err}, logger: zap.NewNop()}
		if got := b.Reply(context.Background(), "question"); got != tt.want {
			t.Errorf("Reply with %v = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestBot_handleUpdate(t *testing.T) {
	s := &fakeSender{}
	b := &Bot{send: s, asker: &fakeAsker{}, logger: zap.NewNop()}
	ctx := context.Background()

	b.handleUpdate(ctx, nil, &models.Update{Message: &models.Message{Chat: models.Chat{ID: 42}, Text: "Is it required?"}})
	b.handleUpdate(ctx, nil, &models.Update{Message: &models.Message{Chat: models.Chat{ID: 42}, Text: "/start"}})
	b.handleUpdate(ctx, nil, &models.Update{Message: &models.Message{Chat: models.Chat{ID: 42}}})
	b.handleUpdate(ctx, nil, &models.Update{})

	if len(s.sent) != 2 {
		t.Fatalf("sent %d messages, want 2", len(s.sent))
	}
	if s.sent[0].Text != "Yellow fever vaccination is required." || s.sent[1].Text != usage {
		t.Errorf("sent = %q, %q", s.sent[0].Text, s.sent[1].Text)
	}
	if id, ok := s.sent[0].ChatID.(int64); !ok || id != 42 {
		t.Errorf("ChatID = %v", s.sent[0].ChatID)
	}
	if s.actions != 1 {
		t.Errorf("typing actions = %d, want 1", s.actions)
	}
}
