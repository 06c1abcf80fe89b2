package llm

import "context"

// MockClient permite probar el asesor sin llamar a un LLM real. Guarda los
// prompts recibidos para que los tests puedan inspeccionarlos.
type MockClient struct {
	Response string
	Err      error
	Prompts  []string
}

func (m *MockClient) Generate(ctx context.Context, prompt string) (string, error) {
	m.Prompts = append(m.Prompts, prompt)
	return m.Response, m.Err
}
