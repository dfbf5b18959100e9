package domain

import "fmt"

// NewCardSet builds a numbered card set. Every fifth prompt asks for two answers.
func NewCardSet(prompts, answers int) (promptCards, answerCards []Card) {
	promptCards = make([]Card, 0, prompts)
	for i := 1; i <= prompts; i++ {
		pick := 1
		if i%5 == 0 {
			pick = 2
		}
		promptCards = append(promptCards, Card{
			ID:       fmt.Sprintf("p%d", i),
			Category: CategoryPrompt,
			Text:     fmt.Sprintf("Prompt %d", i),
			Pick:     pick,
		})
	}
	answerCards = make([]Card, 0, answers)
	for i := 1; i <= answers; i++ {
		answerCards = append(answerCards, Card{
			ID:       fmt.Sprintf("a%d", i),
			Category: CategoryAnswer,
			Text:     fmt.Sprintf("Answer %d", i),
		})
	}
	return promptCards, answerCards
}
