package domain

// Acciones que el LLM asesor puede decidir en cada turno.
const (
	ActionAsk       = "ask"
	ActionSmalltalk = "smalltalk"
	ActionRecommend = "recommend"
)

// AdvisorDecision es la salida estructurada esperada del LLM en cada turno:
// una respuesta para el usuario, una actualización parcial del perfil y la
// acción a tomar.
type AdvisorDecision struct {
	Reply         string         `json:"reply"`
	Action        string         `json:"action"`
	ProfileUpdate *ProfileUpdate `json:"profile_update,omitempty"`
}
