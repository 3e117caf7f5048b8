package assistant

import "fmt"

func suggestTypePrompt(name string) string {
	return fmt.Sprintf(`Analyze the document title %q to determine its standard type context in China.

Rules for classification:
- "NATIONAL" (国标): Typically starts with GB, GB/T, GB/Z.
- "INDUSTRY" (行标): Typically starts with industry codes like JR (Financial), DL (Power), YD (Telecom), GA (Public Security), etc.
- "REGIONAL" (地标): Typically starts with DB followed by region code (e.g., DB31, DB11).

Return a JSON object with a single field "type" having one of these exact values: "NATIONAL", "INDUSTRY", "REGIONAL", or "UNKNOWN".`, name)
}

func describePrompt(name string) string {
	return fmt.Sprintf(`Provide a professional, concise (1-2 sentences) description of what a Data Governance standard document named %q would likely cover. Focus on its utility for data architects.`, name)
}
