package script

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/AfikDanan/DayZeroAI/internal/config"
	"github.com/AfikDanan/DayZeroAI/internal/models"
)

// ErrEmptyScript means the model response contained no parseable lines.
// An unusable script fails the job up front instead of producing a
// near-silent video.
var ErrEmptyScript = errors.New("generated script has no parseable lines")

// Completer is the text-generation collaborator: a system instruction and
// a rendered prompt in, free text out.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// OpenAICompleter backs Completer with the chat completions API.
type OpenAICompleter struct {
	client *openai.Client
	model  string
}

func NewOpenAICompleter(cfg config.Config) *OpenAICompleter {
	return &OpenAICompleter{
		client: openai.NewClient(cfg.OpenAIAPIKey),
		model:  cfg.OpenAIModel,
	}
}

func (c *OpenAICompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.7,
		MaxTokens:   2000,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

const systemPrompt = `You are a creative script writer for onboarding videos.
Create a warm, engaging conversation between two friendly AI hosts
(Alex and Jordan) discussing a new employee's onboarding.

Guidelines:
- Keep it conversational and natural
- Use a welcoming, enthusiastic tone
- Each speaker should have 3-5 turns
- Total script should be 2-3 minutes when spoken
- Include all important information but keep it digestible
- End on an encouraging note

Format your response EXACTLY as:
Alex: [text]
Jordan: [text]
Alex: [text]
...`

var promptTmpl = template.Must(template.New("prompt").Funcs(template.FuncMap{
	"join": strings.Join,
}).Parse(`Create an onboarding welcome script for:

Name: {{.Name}}
Position: {{.Position}}
Team: {{.Team}}
Manager: {{.Manager}}
Start Date: {{.StartDate}}
Office: {{.Office}}
Tech Stack: {{join .TechStack ", "}}

First Day Schedule:
{{range .FirstDaySchedule}}- {{.Time}}: {{.Activity}}
{{end}}
First Week Overview:
{{range $day, $activity := .FirstWeekSchedule}}- {{$day}}: {{$activity}}
{{end}}
Create an engaging conversation that welcomes {{.Name}} and
covers these key points naturally. Make them feel excited and prepared!`))

// Generator drives the script stage.
type Generator struct {
	completer Completer
	log       *zap.Logger
}

func NewGenerator(completer Completer, log *zap.Logger) *Generator {
	return &Generator{completer: completer, log: log}
}

// Generate renders the prompt, calls the model, and parses the dialogue.
func (g *Generator) Generate(ctx context.Context, emp models.Employee) (models.Script, error) {
	prompt, err := renderPrompt(emp)
	if err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}

	raw, err := g.completer.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	parsed := Parse(raw)
	if len(parsed) == 0 {
		return nil, ErrEmptyScript
	}

	g.log.Info("script generated",
		zap.Int("lines", len(parsed)),
		zap.String("employee_id", emp.EmployeeID),
	)
	return parsed, nil
}

func renderPrompt(emp models.Employee) (string, error) {
	var sb strings.Builder
	if err := promptTmpl.Execute(&sb, emp); err != nil {
		return "", err
	}
	return sb.String(), nil
}
