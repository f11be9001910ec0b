package ai

import (
	"fmt"
	"strings"
)

const answerPromptTemplate = `A user asked this question: %s

Respond helpfully and conversationally in 40-80 words.
Use plain text only - no formatting.
Be friendly and knowledgeable.`

// BuildAnswerPrompt wraps a spoken question in the answer instructions.
func BuildAnswerPrompt(question string) string {
	return fmt.Sprintf(answerPromptTemplate, strings.TrimSpace(question))
}

// formatting markers the model tends to emit despite being asked not to
var formattingReplacer = strings.NewReplacer(
	"**", "",
	"__", "",
	"*", "",
	"_", "",
	"#", "",
	"`", "",
)

// StripFormatting removes markdown emphasis characters so the answer reads
// cleanly and is safe to send to speech synthesis.
func StripFormatting(text string) string {
	return strings.TrimSpace(formattingReplacer.Replace(text))
}
