package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
)

// ToolFunc executes one tool call. args is the raw JSON argument string
// produced by the model; the returned string is fed back as the tool result.
type ToolFunc func(ctx context.Context, args string) (string, error)

// Tool pairs a function declaration with its implementation.
type Tool struct {
	Definition llms.Tool
	Run        ToolFunc
}

// Agent drives a model through a tool-calling loop until it answers in
// plain text or the turn budget runs out.
type Agent struct {
	model    *Model
	tools    map[string]Tool
	defs     []llms.Tool
	maxTurns int
}

// NewAgent builds an agent over model with the given tools. maxTurns caps
// the number of model round trips; a budget of 0 defaults to 10.
func NewAgent(model *Model, tools []Tool, maxTurns int) *Agent {
	if maxTurns <= 0 {
		maxTurns = 10
	}
	byName := make(map[string]Tool, len(tools))
	defs := make([]llms.Tool, 0, len(tools))
	for _, t := range tools {
		byName[t.Definition.Function.Name] = t
		defs = append(defs, t.Definition)
	}
	return &Agent{
		model:    model,
		tools:    byName,
		defs:     defs,
		maxTurns: maxTurns,
	}
}

// Run executes the loop. Tool errors are reported back to the model as tool
// results rather than aborting the run, so it can route around a dead end.
func (a *Agent) Run(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, userPrompt),
	}

	for turn := 0; turn < a.maxTurns; turn++ {
		choice, err := a.generate(ctx, messages, llms.WithTools(a.defs))
		if err != nil {
			return "", err
		}

		if len(choice.ToolCalls) == 0 {
			return choice.Content, nil
		}

		assistant := llms.MessageContent{Role: llms.ChatMessageTypeAI}
		if choice.Content != "" {
			assistant.Parts = append(assistant.Parts, llms.TextContent{Text: choice.Content})
		}
		for _, tc := range choice.ToolCalls {
			assistant.Parts = append(assistant.Parts, tc)
		}
		messages = append(messages, assistant)

		for _, tc := range choice.ToolCalls {
			result := a.execute(ctx, tc)
			messages = append(messages, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{llms.ToolCallResponse{
					ToolCallID: tc.ID,
					Name:       tc.FunctionCall.Name,
					Content:    result,
				}},
			})
		}

		a.model.logger.Debug("agent turn completed",
			"turn", turn+1,
			"tool_calls", len(choice.ToolCalls))
	}

	// Budget exhausted: ask for a final answer with the tools withdrawn.
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman,
		"Research time is up. Produce your final answer now using only what you have gathered."))
	choice, err := a.generate(ctx, messages)
	if err != nil {
		return "", err
	}
	return choice.Content, nil
}

func (a *Agent) generate(ctx context.Context, messages []llms.MessageContent, opts ...llms.CallOption) (*llms.ContentChoice, error) {
	start := time.Now()
	resp, err := a.model.llm.GenerateContent(ctx, messages, opts...)
	if err != nil {
		a.model.record(start, false, nil)
		return nil, fmt.Errorf("agent generate: %w", wrapFatalError(err))
	}
	if len(resp.Choices) == 0 {
		a.model.record(start, false, nil)
		return nil, fmt.Errorf("agent generate: no response choices")
	}
	a.model.record(start, true, resp.Choices[0].GenerationInfo)
	return resp.Choices[0], nil
}

func (a *Agent) execute(ctx context.Context, tc llms.ToolCall) string {
	tool, ok := a.tools[tc.FunctionCall.Name]
	if !ok {
		return fmt.Sprintf("error: unknown tool %q", tc.FunctionCall.Name)
	}
	result, err := tool.Run(ctx, tc.FunctionCall.Arguments)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return result
}
