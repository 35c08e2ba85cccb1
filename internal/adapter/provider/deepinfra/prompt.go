package deepinfra

import "fmt"

const defaultPromptLanguage = "english"

// SongwritingPrompt builds the system and user messages for a songwriting
// assistant session on the given theme. Mood is optional; an empty
// language means English. No request is made.
func (c *Client) SongwritingPrompt(theme, mood, language string) (system, user string) {
	if language == "" {
		language = defaultPromptLanguage
	}

	system = fmt.Sprintf(`You are a professional songwriter and lyricist with expertise in writing songs in %s.
Your goal is to help the user write high-quality lyrics that are creative, emotional, and authentic.
Focus on creating rhymes, rhythmic patterns, and memorable phrases that fit the theme and mood of the song.`, language)

	moodClause := ""
	if mood != "" {
		moodClause = fmt.Sprintf(" and a mood that's %s", mood)
	}
	user = fmt.Sprintf(`I'm working on a song with the theme of %q%s.
Please provide creative suggestions, rhyming options, and help me develop compelling lyrics.`, theme, moodClause)

	return system, user
}
