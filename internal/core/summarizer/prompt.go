package summarizer

import "fmt"

const (
	maxTokens   = 2048
	temperature = 1.0

	summarySystemPrompt = "You are an AI assistant that creates engaging and informative summaries of various types of input, such as videos, audio files, and text."

	translateSystemPrompt = "You are an AI assistant that translates text to different languages."
)

// summaryPrompt builds the user prompt for a summary of roughly words words.
func summaryPrompt(text string, words int) string {
	if words <= 0 {
		words = DefaultWords
	}
	return fmt.Sprintf(`Create a summary of approximately %d words.
Create a short title for the summary.
Include the most important points and key details.
Be factual and concise. Do NOT include content that is not in the original text.
When possible, use bullet points.
Create the summary in the same language as the text you're asked to summarize (which is NOT necessarily English).

Text to summarize:
%s`, words, text)
}

// translatePrompt builds the user prompt for an English translation.
func translatePrompt(text string) string {
	return "Translate the following text to English:\n" + text
}
