// Package mentor answers student chat messages, through an OpenAI-compatible
// chat model when one is configured and from canned responses otherwise.
package mentor

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

const (
	DefaultModel = openai.GPT3Dot5Turbo
	maxTokens    = 200
	temperature  = 0.7
	systemPrompt = "You are StarMentor, an encouraging AI tutor for K-12 students. Be friendly, helpful, and use space/star metaphors when appropriate. Keep responses concise but informative."
)

// Topics the system prompt may name. Anything else a client sends is dropped.
var knownTopics = map[string]bool{"math": true, "science": true, "english": true, "history": true}

// Reply sources.
const (
	SourceModel    = "model"
	SourceFallback = "fallback"
)

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

type Reply struct {
	Text   string `json:"response"`
	Source string `json:"source"`
}

type Mentor struct {
	client *openai.Client
	model  string
	log    logrus.FieldLogger

	mu  sync.Mutex
	rnd *rand.Rand
}

// New returns a mentor. Without an API key every reply is a fallback.
func New(cfg Config, log logrus.FieldLogger) *Mentor {
	m := &Mentor{
		model: cfg.Model,
		log:   log,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if m.model == "" {
		m.model = DefaultModel
	}
	if cfg.APIKey != "" {
		oc := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			oc.BaseURL = cfg.BaseURL
		}
		m.client = openai.NewClientWithConfig(oc)
	}
	return m
}

// Reply never fails: model errors are logged and answered from the fallback set.
func (m *Mentor) Reply(ctx context.Context, message, topic string) Reply {
	if m.client != nil {
		text, err := m.complete(ctx, message, topic)
		if err == nil {
			return Reply{Text: text, Source: SourceModel}
		}
		m.log.WithError(err).Warn("mentor model unavailable, using fallback")
	}
	return Reply{Text: m.fallback(message), Source: SourceFallback}
}

func (m *Mentor) complete(ctx context.Context, message, topic string) (string, error) {
	prompt := systemPrompt
	if topic = strings.ToLower(strings.TrimSpace(topic)); knownTopics[topic] {
		prompt += " The student is currently studying " + topic + "."
	}
	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: m.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt},
			{Role: openai.ChatMessageRoleUser, Content: message},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty completion")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", errors.New("empty completion")
	}
	return text, nil
}

func (m *Mentor) fallback(message string) string {
	responses := fallbackFor(message)
	m.mu.Lock()
	defer m.mu.Unlock()
	return responses[m.rnd.Intn(len(responses))]
}
