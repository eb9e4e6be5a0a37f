package nailgen

import (
	"fmt"
	"strings"
)

const templateFilePattern = "nail-template-%s.png"

// TemplateFileName maps a skin tone token to its template file name.
// Empty tokens select DefaultSkinTone. Tokens with characters outside
// letters, digits, spaces and '-' are rejected so they cannot name a path
// outside the template directory.
func TemplateFileName(skinTone string) (string, bool) {
	tone := strings.ToLower(strings.TrimSpace(skinTone))
	if tone == "" {
		tone = DefaultSkinTone
	}
	for _, r := range tone {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ', r == '-':
		default:
			return "", false
		}
	}
	return fmt.Sprintf(templateFilePattern, strings.ReplaceAll(tone, " ", "-")), true
}

// EnhancePrompt wraps the user's description with the skin color and an
// instruction that confines edits to the nail area.
func EnhancePrompt(prompt, skinToneHex string) string {
	var b strings.Builder
	b.WriteString("A close-up photo of a beautiful manicured nail")
	if skinToneHex != "" {
		b.WriteString(" with skin tone color ")
		b.WriteString(skinToneHex)
	}
	b.WriteString(", with nail art. ")
	b.WriteString(strings.TrimSpace(prompt))
	b.WriteString(". Create the nail art only on the nail area and keep the background as is.")
	b.WriteString(" Professional nail art, beauty photography, macro photography.")
	return b.String()
}

// Design is the prompt and human readable description for a nail design.
type Design struct {
	PromptUsed        string `json:"promptUsed"`
	DesignDescription string `json:"designDescription"`
}

// DesignPrompt builds the design prompt for a skin tone and three keywords.
func DesignPrompt(skinTone, skinToneHex string, keywords []string) (*Design, error) {
	if err := ValidateDesignRequest(skinTone, skinToneHex, keywords); err != nil {
		return nil, err
	}

	elements := strings.Join(keywords, ", ")
	prompt := fmt.Sprintf("Design an elegant nail art pattern ONLY ON THE NAIL AREA. "+
		"The client has %s skin tone (hex color: %s). "+
		"The key elements to include in the nail design are: %s. "+
		"The design should be simple, elegant, easy with focus on creating a beautiful nail art pattern. "+
		"IMPORTANT: Only modify the white nail area in the template, keep the background as is.",
		skinTone, skinToneHex, elements)

	description := fmt.Sprintf("A refined nail design for %s skin tone (%s), featuring patterns with %s. "+
		"Uses harmonious colors and fine details.", skinTone, skinToneHex, elements)

	return &Design{PromptUsed: prompt, DesignDescription: description}, nil
}
