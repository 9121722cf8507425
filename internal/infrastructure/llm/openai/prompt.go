package openai

const systemPrompt = "You are a legal document analyzer. Generate concise summaries focusing on key findings, important facts, and conclusions."

func buildSummaryPrompt(text string) string {
	return "Please analyze this legal document and generate a concise summary focusing on the main points, important facts, and conclusions. Format the summary in a clear, structured way.\n\n" + text
}
