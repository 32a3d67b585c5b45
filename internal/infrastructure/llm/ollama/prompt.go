package ollama

const maxEntitySnippet = 1000

func buildEntityPrompt(text string) string {
	snippet := text
	if len(snippet) > maxEntitySnippet {
		snippet = snippet[:maxEntitySnippet]
	}

	return `You are a named entity recognizer for purchase invoice line items.
Return strict JSON: {"entities": [{"text": string, "label": string}]}.
Labels: PRODUCT (goods or materials), ORG (companies, brands), MISC (other names), GPE, DATE, MONEY, QUANTITY.
Copy entity text exactly from the input. No markdown, no extra keys.

Line item:
` + snippet
}
