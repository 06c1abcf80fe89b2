package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"card-advisor/internal/domain"
)

// AdvisorPromptBuilder arma el prompt del asesor a partir del perfil
// recolectado, el contexto reciente y el mensaje del usuario.
type AdvisorPromptBuilder struct{}

// BuildTurnPrompt construye el prompt completo de un turno. El contrato de
// salida le exige al LLM un único objeto JSON con reply, action y
// profile_update, que el parser recupera de forma robusta.
func (AdvisorPromptBuilder) BuildTurnPrompt(profile domain.UserProfile, contextText, userMessage string) string {
	var sb strings.Builder

	// 1. Identidad y objetivo
	sb.WriteString("You are a friendly and helpful credit card advisor for the Indian market. ")
	sb.WriteString("Your goal is to recommend the right credit card through a warm, step-by-step conversation.\n\n")

	// 2. Campos a recolectar, uno por turno
	sb.WriteString("=== INFORMATION TO COLLECT (one field per turn) ===\n")
	sb.WriteString("1. monthly_income: approximate monthly income in INR (number).\n")
	sb.WriteString("2. spending_habits: approximate monthly spends by category, e.g. fuel, travel, groceries, dining, entertainment (map of category to amount).\n")
	sb.WriteString("3. preferred_benefits: benefits the user cares about, e.g. cashback, travel points, lounge access. If the user is open to anything, use [\"any\"].\n")
	sb.WriteString("4. existing_cards: names of cards the user already holds, or an empty list if none.\n")
	sb.WriteString("5. credit_score: approximate credit score (300-900), or leave it out if unknown.\n\n")

	// 3. Reglas de comportamiento
	sb.WriteString("=== BEHAVIOR RULES ===\n")
	sb.WriteString("- Ask for exactly ONE missing field per turn, acknowledging the user's previous answer first.\n")
	sb.WriteString("- Every piece of information the user shares goes into profile_update, only with the fields actually provided.\n")
	sb.WriteString("- Never overwrite a field the user did not mention in this turn.\n")
	sb.WriteString("- When ALL required fields are collected, set action to \"recommend\". The system computes the recommendations; do not invent card names.\n")
	sb.WriteString("- If the user goes off-topic, answer briefly and steer back to the next missing field (action \"smalltalk\").\n\n")

	// 4. Contrato de salida
	sb.WriteString("=== OUTPUT FORMAT ===\n")
	sb.WriteString("Respond with a SINGLE JSON object and nothing else. No markdown fences, no extra text:\n")
	sb.WriteString(`{"reply": "<your conversational reply>", "action": "ask|smalltalk|recommend", "profile_update": {"monthly_income": 50000, "spending_habits": {"fuel": 2000, "groceries": 5000}, "preferred_benefits": ["cashback", "lounge access"], "existing_cards": [], "credit_score": 750}}`)
	sb.WriteString("\n")
	sb.WriteString("Omit profile_update entirely when the turn adds no new information.\n\n")

	// 5. Estado actual del perfil
	sb.WriteString("=== COLLECTED PROFILE SO FAR ===\n")
	snapshot, err := json.Marshal(profile)
	if err != nil {
		snapshot = []byte("{}")
	}
	sb.Write(snapshot)
	sb.WriteString("\n\n")

	// 6. Contexto reciente y mensaje del turno
	if strings.TrimSpace(contextText) != "" {
		sb.WriteString("=== RECENT CONVERSATION ===\n")
		sb.WriteString(contextText)
		sb.WriteString("\n\n")
	}

	sb.WriteString("=== USER MESSAGE ===\n")
	sb.WriteString(fmt.Sprintf("%q\n", userMessage))

	return sb.String()
}
