package service

import (
	"encoding/json"
	"regexp"
	"strings"

	"card-advisor/internal/domain"
)

// AdvisorResponseParser centraliza la limpieza y el parseo de la decisión
// JSON que devuelve el LLM en cada turno.
type AdvisorResponseParser struct{}

// DefaultAdvisorResponseParser permite uso directo sin instanciar.
var DefaultAdvisorResponseParser = AdvisorResponseParser{}

// ParseDecision intenta recuperar la decisión estructurada del texto crudo
// del modelo. Si no hay JSON usable, degrada a tratar el texto plano como
// reply con acción "ask": un turno conversacional nunca debe fallar porque
// el modelo formateó mal.
func (AdvisorResponseParser) ParseDecision(raw string) (domain.AdvisorDecision, bool) {
	cleaned := cleanJSONFences(raw)

	for _, candidate := range []string{extractFirstJSONObject(cleaned), extractFirstJSONObject(raw), cleaned} {
		if candidate == "" {
			continue
		}
		if decision, ok := tryUnmarshalDecision(candidate); ok {
			return decision, true
		}
	}

	fallback := strings.TrimSpace(cleaned)
	if fallback == "" {
		return domain.AdvisorDecision{}, false
	}
	return domain.AdvisorDecision{Reply: fallback, Action: domain.ActionAsk}, true
}

func tryUnmarshalDecision(candidate string) (domain.AdvisorDecision, bool) {
	var decision domain.AdvisorDecision
	if err := json.Unmarshal([]byte(candidate), &decision); err != nil {
		return domain.AdvisorDecision{}, false
	}

	decision.Reply = strings.TrimSpace(decision.Reply)
	if decision.Reply == "" {
		return domain.AdvisorDecision{}, false
	}

	switch strings.ToLower(strings.TrimSpace(decision.Action)) {
	case domain.ActionRecommend:
		decision.Action = domain.ActionRecommend
	case domain.ActionSmalltalk:
		decision.Action = domain.ActionSmalltalk
	default:
		decision.Action = domain.ActionAsk
	}

	if decision.ProfileUpdate != nil && decision.ProfileUpdate.IsZero() {
		decision.ProfileUpdate = nil
	}

	return decision, true
}

var (
	reFenceStart = regexp.MustCompile("(?is)^\\s*```(?:json)?\\s*")
	reFenceEnd   = regexp.MustCompile("(?is)\\s*```\\s*$")
)

// cleanJSONFences quita fences ```json ... ``` y BOM, dejando el contenido
// usable.
func cleanJSONFences(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	s = strings.TrimPrefix(s, "\ufeff")
	s = reFenceStart.ReplaceAllString(s, "")
	s = reFenceEnd.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// extractFirstJSONObject devuelve el primer objeto JSON balanceado del
// texto, respetando strings y escapes, o "" si no hay ninguno.
func extractFirstJSONObject(input string) string {
	start := strings.IndexByte(input, '{')
	if start == -1 {
		return ""
	}

	inString := false
	escape := false
	depth := 0

	for i := start; i < len(input); i++ {
		ch := input[i]

		if inString {
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return input[start : i+1]
			}
			if depth < 0 {
				return ""
			}
		}
	}

	return ""
}
