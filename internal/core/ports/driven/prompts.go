package driven

// Prompt names known to the PromptStore.
const (
	// PromptTutorSystem is the fixed system persona for answer generation.
	PromptTutorSystem = "tutor_system"

	// PromptFallbackMessage is the user-facing text returned when every
	// upstream service is unavailable.
	PromptFallbackMessage = "fallback_message"
)

// PromptStore provides prompt templates for answer generation.
// Implementations load user-editable files with embedded defaults.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)
}
