package ai

import (
	"fmt"

	"github.com/dctmfoo/HitchensRhetoricTransform/pkg/domain"
)

var verbosityDescriptors = map[domain.VerbosityLevel]string{
	domain.VerbosityBrief:         "brief yet intellectually engaging response",
	domain.VerbosityModerate:      "moderately detailed response with proper depth",
	domain.VerbosityComprehensive: "comprehensive response with full stylistic flourish",
}

// VerbosityDescriptor maps a numeric level to its prompt phrasing.
func VerbosityDescriptor(level domain.VerbosityLevel) string {
	return verbosityDescriptors[level]
}

// UserPrompt embeds the input text and verbosity descriptor into the standard
// user instruction.
func UserPrompt(text string, verbosity domain.VerbosityLevel) string {
	return fmt.Sprintf("Respond to this text with a %s that exemplifies your characteristic style of communication and analytical approach:\n\n%s",
		VerbosityDescriptor(verbosity), text)
}

// GroundedUserPrompt is the variant used by backends with search grounding.
// It additionally instructs the model to weave factual context into the reply.
func GroundedUserPrompt(text string, verbosity domain.VerbosityLevel) string {
	return fmt.Sprintf(`Based on your knowledge and the context of the following text, provide a %s that exemplifies your characteristic style of communication and analytical approach:

Text to analyze:
%s

Additional instructions:
1. Draw upon your extensive knowledge to provide relevant historical, cultural, or domain-specific context
2. Maintain your unique voice and rhetorical style as specified in the persona description
3. Ensure the response matches the requested verbosity level
4. Incorporate factual context and relevant examples naturally into your response`,
		VerbosityDescriptor(verbosity), text)
}
