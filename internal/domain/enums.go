package domain

// Category is the grammatical category assigned to a rhyme candidate.
type Category string

const (
	CategoryNoun      Category = "noun"
	CategoryVerb      Category = "verb"
	CategoryAdjective Category = "adjective"
	CategoryAdverb    Category = "adverb"
	CategoryOther     Category = "other"
)

// AllCategories lists every category in response order.
var AllCategories = []Category{
	CategoryNoun,
	CategoryVerb,
	CategoryAdjective,
	CategoryAdverb,
	CategoryOther,
}

func (c Category) String() string { return string(c) }

func (c Category) IsValid() bool {
	switch c {
	case CategoryNoun, CategoryVerb, CategoryAdjective, CategoryAdverb, CategoryOther:
		return true
	}
	return false
}

// IsLyrical reports whether the category earns the songwriting bonus.
func (c Category) IsLyrical() bool {
	switch c {
	case CategoryNoun, CategoryVerb, CategoryAdjective:
		return true
	}
	return false
}

// ParseCategory maps a label to a Category. Unknown labels become CategoryOther.
func ParseCategory(s string) Category {
	c := Category(NormalizeText(s))
	if c.IsValid() {
		return c
	}
	return CategoryOther
}

// ChatRole is the author of a chat message.
type ChatRole string

const (
	ChatRoleSystem    ChatRole = "system"
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

func (r ChatRole) String() string { return string(r) }

func (r ChatRole) IsValid() bool {
	switch r {
	case ChatRoleSystem, ChatRoleUser, ChatRoleAssistant:
		return true
	}
	return false
}

// Model is a completion model identifier accepted by the API.
type Model string

const (
	ModelClaudeSonnet Model = "claude-3-sonnet-20240229"
	ModelGeminiPro    Model = "gemini-1.5-pro-latest"
)

func (m Model) String() string { return string(m) }

func (m Model) IsValid() bool {
	switch m {
	case ModelClaudeSonnet, ModelGeminiPro:
		return true
	}
	return false
}
