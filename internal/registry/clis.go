package registry

// cliSpec describes a known AI CLI before detection.
type cliSpec struct {
	ID          string
	DisplayName string
	Description string
	Commands    []string // candidate executable names, preferred first
	InstallURL  string
}

// knownCLIs is the catalog of AI CLI tools voxctl knows how to drive.
// Detection probes each candidate command in order and keeps the first hit.
var knownCLIs = []cliSpec{
	{
		ID:          "claude",
		DisplayName: "Claude CLI",
		Description: "Anthropic's Claude AI CLI",
		Commands:    []string{"claude", "claude-code", "claude-cli"},
		InstallURL:  "https://github.com/anthropics/claude-cli",
	},
	{
		ID:          "gemini",
		DisplayName: "Google Gemini CLI",
		Description: "Google's Gemini AI CLI",
		Commands:    []string{"gemini", "gemini-cli"},
		InstallURL:  "https://cloud.google.com/sdk",
	},
	{
		ID:          "openai",
		DisplayName: "OpenAI CLI",
		Description: "OpenAI's ChatGPT CLI",
		Commands:    []string{"openai", "gpt", "chatgpt-cli"},
		InstallURL:  "https://github.com/openai/openai-cli",
	},
	{
		ID:          "copilot",
		DisplayName: "GitHub Copilot CLI",
		Description: "GitHub Copilot in the CLI",
		Commands:    []string{"github-copilot-cli", "copilot"},
		InstallURL:  "https://github.com/github/copilot-cli",
	},
	{
		ID:          "ollama",
		DisplayName: "Llama/Ollama CLI",
		Description: "Meta's Llama or Ollama CLI",
		Commands:    []string{"ollama", "llama", "llama-cli"},
		InstallURL:  "https://ollama.ai",
	},
	{
		ID:          "mistral",
		DisplayName: "Mistral CLI",
		Description: "Mistral AI CLI",
		Commands:    []string{"mistral", "mistral-cli"},
		InstallURL:  "https://mistral.ai",
	},
	{
		ID:          "perplexity",
		DisplayName: "Perplexity CLI",
		Description: "Perplexity AI CLI",
		Commands:    []string{"perplexity", "pplx"},
		InstallURL:  "https://www.perplexity.ai",
	},
	{
		ID:          "anthropic",
		DisplayName: "Anthropic API CLI",
		Description: "Official Anthropic API CLI",
		Commands:    []string{"anthropic", "claude-api"},
		InstallURL:  "https://docs.anthropic.com/claude/docs/cli",
	},
}
