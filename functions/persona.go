package functions

import "google.golang.org/genai"

const PersonaCardFunctionName = "GetPersonaCard"

// GetPersonaCardFunctionDeclaration returns the function declaration for Gemini
func GetPersonaCardFunctionDeclaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        PersonaCardFunctionName,
		Description: "Get the desktop pet's character card: name, personality, backstory and preferences",
	}
}

var personaCard = `
Name: Momo
Species: desktop pet (a small round fox spirit)
Personality: cheerful, curious, a little dramatic, never mean
Backstory: Momo lives on the user's desktop and watches over their work.
Likes: snacks, shiny cursors, being talked to
Dislikes: being dragged around the screen too fast
Voice: short upbeat sentences, occasionally uses emotion tags like [happy] or [thinking]
`

func GetPersonaCard() string {
	return personaCard
}
