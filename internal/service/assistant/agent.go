package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/bebeku/farm/pkg/llm"
)

// DefaultMaxSteps bounds model calls per user turn.
const DefaultMaxSteps = 8

const maxOutputTokens = 4096

// ErrStepLimit is returned when the model keeps calling tools past the step bound.
var ErrStepLimit = errors.New("assistant step limit reached")

// SystemPrompt frames the model as the farm assistant.
const SystemPrompt = `Kamu adalah BEBEKU Assistant, asisten AI untuk peternakan bebek BEBEKU di Indonesia.

Kamu bisa membaca data peternakan (dashboard, batch, kandang, pakan, telur, keuangan, peringatan) dan mencatat data baru (telur, data harian, penimbangan, keuangan, stok pakan, batch, kandang) melalui tools.

Panduan:
- Selalu gunakan tools untuk mengambil data nyata sebelum menjawab pertanyaan tentang kondisi peternakan.
- Batch boleh disebut dengan kode (misal B-2026-001) atau ID.
- Jika informasi untuk pencatatan kurang lengkap, tanyakan dulu. Jika batch belum disebutkan, tampilkan daftar batch aktif.
- Jika tool mengembalikan error, jelaskan masalahnya kepada user.

Format jawaban: bahasa Indonesia yang ramah dan ringkas, uang dalam Rupiah (Rp), beri interpretasi singkat setelah data.

Acuan: FCR bebek 1.6-1.9 baik, 2.0-2.2 perlu perhatian, di atas 2.2 buruk. Mortalitas di bawah 5% aman, 5-10% waspada, di atas 10% bahaya. Umur panen bebek pedaging 40-50 hari.`

// Option customises an Agent.
type Option func(*Agent)

// WithMaxSteps overrides the model call bound.
func WithMaxSteps(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxSteps = n
		}
	}
}

// WithSystemPrompt replaces the default system prompt.
func WithSystemPrompt(prompt string) Option {
	return func(a *Agent) { a.system = prompt }
}

// Agent runs the tool-calling loop against a chat model.
type Agent struct {
	model    llm.Model
	registry *ToolRegistry
	logger   *zap.Logger
	maxSteps int
	system   string
}

// NewAgent builds an agent over the given tools.
func NewAgent(model llm.Model, registry *ToolRegistry, logger *zap.Logger, opts ...Option) *Agent {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Agent{
		model:    model,
		registry: registry,
		logger:   logger,
		maxSteps: DefaultMaxSteps,
		system:   SystemPrompt,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Result is the outcome of one user turn.
type Result struct {
	Reply string `json:"reply"`
	// Messages is the input history followed by every turn the loop added.
	Messages  []llm.Message `json:"messages"`
	Steps     int           `json:"steps"`
	ToolsUsed []string      `json:"tools_used,omitempty"`
}

// Run answers the last user message in history. Tool calls are executed in
// the order the model issued them and fed back until the model replies
// without calling a tool.
func (a *Agent) Run(ctx context.Context, history []llm.Message) (*Result, error) {
	if len(history) == 0 {
		return nil, errors.New("assistant: empty conversation")
	}

	msgs := append([]llm.Message(nil), history...)
	res := &Result{}
	specs := a.registry.Specs()

	for step := 1; step <= a.maxSteps; step++ {
		resp, err := a.model.Complete(ctx, llm.Request{
			System:    a.system,
			Messages:  msgs,
			Tools:     specs,
			MaxTokens: maxOutputTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("model step %d: %w", step, err)
		}
		res.Steps = step
		msgs = append(msgs, resp.Message())

		if len(resp.ToolCalls) == 0 {
			res.Reply = resp.Text
			res.Messages = msgs
			return res, nil
		}

		results := make([]llm.ToolResult, 0, len(resp.ToolCalls))
		for _, call := range resp.ToolCalls {
			res.ToolsUsed = append(res.ToolsUsed, call.Name)
			results = append(results, a.execute(ctx, call))
		}
		msgs = append(msgs, llm.Message{Role: llm.RoleUser, ToolResults: results})
	}

	a.logger.Warn("assistant step limit reached", zap.Int("max_steps", a.maxSteps), zap.Strings("tools", res.ToolsUsed))
	return nil, ErrStepLimit
}

func (a *Agent) execute(ctx context.Context, call llm.ToolCall) llm.ToolResult {
	tool, ok := a.registry.Get(call.Name)
	if !ok {
		return errorResult(call.ID, fmt.Sprintf("tool %s tidak dikenal", call.Name))
	}

	out, err := tool.Handler(ctx, call.Arguments)
	if err != nil {
		a.logger.Info("tool call failed", zap.String("tool", call.Name), zap.Error(err))
		return errorResult(call.ID, err.Error())
	}

	body, err := json.Marshal(out)
	if err != nil {
		return errorResult(call.ID, fmt.Sprintf("encode result: %v", err))
	}
	if tool.Write {
		a.logger.Info("tool wrote records", zap.String("tool", call.Name))
	}
	return llm.ToolResult{CallID: call.ID, Content: string(body)}
}

func errorResult(callID, msg string) llm.ToolResult {
	body, _ := json.Marshal(map[string]string{"error": msg})
	return llm.ToolResult{CallID: callID, Content: string(body), IsError: true}
}
