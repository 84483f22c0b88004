package openai

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/partner-review/internal/domain/ai"
	"github.com/bryanwahyu/partner-review/internal/domain/controls"
	"github.com/bryanwahyu/partner-review/internal/domain/submissions"
)

type fakeCompleter struct {
	content string
	err     error
	got     openai.ChatCompletionRequest
}

func (f *fakeCompleter) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.got = req
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: f.content}}},
	}, nil
}

func request() ai.Request {
	return ai.Request{
		SubmissionID:   "APP-2026-0000AAAA",
		PartnerName:    "Acme",
		ValidationType: "Gen AI Competency",
		SelfAssessment: []byte("evidence"),
		Controls:       []controls.Control{{ID: "C1", Title: "One"}, {ID: "C2", Title: "Two"}},
	}
}

func TestAnalyzeParsesControls(t *testing.T) {
	fake := &fakeCompleter{content: `{"controls":[
		{"control_id":"C1","confidence_score":0.9,"pass_fail":"pass","reason_or_notes":"found"},
		{"control_id":"C2","confidence_score":0.4,"pass_fail":"fail"},
		{"control_id":"C9","confidence_score":0.99,"pass_fail":"pass"},
		{"control_id":"C1","confidence_score":0.1,"pass_fail":"fail"}
	]}`}
	c := &Client{api: fake, Model: "gpt-4o"}

	out, err := c.Analyze(context.Background(), request())
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "C1", out[0].ControlID)
	assert.Equal(t, 0.9, out[0].ConfidenceScore)
	assert.Equal(t, submissions.PassFailPass, out[0].PassFail)
	assert.Equal(t, "C2", out[1].ControlID)

	assert.Equal(t, maxTokens, fake.got.MaxTokens)
	assert.Zero(t, fake.got.MaxCompletionTokens)
}

func TestAnalyzeReasoningModelUsesCompletionTokens(t *testing.T) {
	fake := &fakeCompleter{content: `{"controls":[]}`}
	c := &Client{api: fake}

	_, err := c.Analyze(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, defaultModel, fake.got.Model)
	assert.Equal(t, maxTokens, fake.got.MaxCompletionTokens)
	assert.Zero(t, fake.got.MaxTokens)
}

func TestAnalyzeErrors(t *testing.T) {
	tests := map[string]struct {
		fake *fakeCompleter
		want error
	}{
		"quota":     {fake: &fakeCompleter{err: &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests}}, want: ai.ErrQuotaExceeded},
		"malformed": {fake: &fakeCompleter{content: "not json"}, want: ai.ErrMalformedOutput},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := (&Client{api: tt.fake}).Analyze(context.Background(), request())
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := (&Client{api: &fakeCompleter{err: errors.New("boom")}}).Analyze(context.Background(), request())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ai.ErrQuotaExceeded)
}
