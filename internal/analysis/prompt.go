package analysis

import (
	"encoding/json"
	"strings"

	"github.com/irfndi/tokenscope/internal/models"
)

// SystemPrompt instructs the model on the five analysis dimensions.
const SystemPrompt = `You are an expert cryptocurrency analyst. Analyze the following token data and provide insights about:
1. Price action and volatility
2. Trading volume and liquidity
3. Market sentiment based on metrics
4. Potential risks and opportunities
5. Key metrics comparison to market standards

Keep the analysis concise, factual, and focused on the data provided.`

// DefaultUserPrompt is used when the caller does not supply a prompt.
const DefaultUserPrompt = "Please provide a comprehensive analysis of this token's current market status."

// FallbackNarrative replaces an empty completion.
const FallbackNarrative = "No analysis was generated."

// BuildUserMessage embeds the snapshot as indented JSON followed by the
// caller's prompt, or DefaultUserPrompt when it is blank.
func BuildUserMessage(snapshot models.MarketSnapshot, userPrompt string) (string, error) {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", err
	}

	prompt := strings.TrimSpace(userPrompt)
	if prompt == "" {
		prompt = DefaultUserPrompt
	}

	var b strings.Builder
	b.WriteString("Here is the token data to analyze:\n")
	b.Write(data)
	b.WriteString("\n\n")
	b.WriteString(prompt)
	return b.String(), nil
}
