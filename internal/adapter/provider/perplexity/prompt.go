package perplexity

import (
	"fmt"
	"strings"

	"github.com/heartmarshall/songsmith-backend/internal/domain"
)

const researchSystemPrompt = "You are a music researcher and language expert specializing in analyzing song structures, " +
	"rhyme patterns, and lyrical themes. Provide detailed, structured analysis in JSON format."

const rhymeSystemPrompt = "You are a language expert specializing in rhymes and wordplay. Provide responses in JSON format."

func researchPrompt(req domain.ResearchRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Research %d popular songs in %s that focus on the theme of %q", req.Count, req.Language, req.Theme)
	if req.Mood != "" {
		fmt.Fprintf(&b, " with a %s mood", req.Mood)
	}
	if req.Genre != "" {
		fmt.Fprintf(&b, " in the %s genre", req.Genre)
	}
	b.WriteString(`.

Analyze these songs and extract:
1. Common rhyme patterns (e.g., AABB, ABAB) and their frequency
2. Most common rhyming words related to this theme
3. Examples of particularly effective rhymes and lyrical structures

Format your response as a structured JSON with the following fields:
- "theme": The theme analyzed
- "rhymePatterns": Array of objects containing "pattern", "frequency" (as a percentage), and "examples" (array of short excerpts)
- "commonRhymes": Array of common rhyming word pairs or groups found in these songs
- "analysis": Brief text summary of findings

The goal is to help a songwriter find effective rhyme patterns and rhyming words for a song on this theme.`)

	return b.String()
}

func rhymePrompt(word string, count int) string {
	return fmt.Sprintf("Find %d words that rhyme with %q. Return ONLY a JSON array of strings with no additional text.", count, word)
}
