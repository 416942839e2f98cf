package content

import "fmt"

// SummarizeSystemPrompt is the system prompt for transcript summaries.
const SummarizeSystemPrompt = `You are an expert at summarizing YouTube video content. ` +
	`You create clear, structured, and informative summaries.`

// EnrichSystemPrompt is the system prompt for transcript enrichment.
const EnrichSystemPrompt = `You are an expert at enhancing and enriching content. ` +
	`You add insights, organize information more effectively, and provide valuable additional context.`

// SummarizePrompt builds the user prompt for summarizing a transcript.
func SummarizePrompt(text string) string {
	return fmt.Sprintf(`Analyze the following YouTube video transcript and create a structured summary:

**TEXT:**
%s

**INSTRUCTIONS:**
- Organize the summary into topics with bullet points
- Highlight the main takeaways
- Keep it between 200 and 500 words
- Use markdown formatting

**EXPECTED STRUCTURE:**
## Executive Summary
## Key Points
## Important Insights
## Conclusion
`, text)
}

// EnrichPrompt builds the user prompt for enriching a transcript.
func EnrichPrompt(text string) string {
	return fmt.Sprintf(`Analyze the following text and create an enhanced, enriched version:

**TEXT:**
%s

**INSTRUCTIONS:**
- Restructure the content for clarity
- Add relevant insights and context
- Include possible practical applications
- Expand on the important concepts
- Use markdown formatting

**EXPECTED STRUCTURE:**
## Enhanced Content
## Detailed Analysis
## Practical Applications
## Key Concepts
## Next Steps
`, text)
}
