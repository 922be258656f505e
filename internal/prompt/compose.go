// Package prompt builds the text sent to the inference backend.
package prompt

// Separator sits between the user prompt and the configured suffix.
const Separator = "\n\n"

// Compose joins a user prompt with the configured suffix. It is total:
// empty prompts and empty suffixes pass through unchanged.
func Compose(userPrompt, suffix string) string {
	return userPrompt + Separator + suffix
}
