package capture

import "regexp"

// ProviderUnknown возвращается, когда вызов похож на LLM API, но вендор
// не распознан по URL.
const ProviderUnknown = "unknown"

type providerPattern struct {
	re  *regexp.Regexp
	tag string
}

// providerTable — упорядоченная таблица классификации вендоров.
// Порядок значим: паттерны проверяются сверху вниз, побеждает первое
// совпадение (два паттерна могут матчить один URL).
var providerTable = []providerPattern{
	{regexp.MustCompile(`(?i)api\.openai\.com`), "openai"},
	{regexp.MustCompile(`(?i)api\.anthropic\.com`), "anthropic"},
	{regexp.MustCompile(`(?i)(generativelanguage\.googleapis\.com|ai\.google\.dev|vertex-ai\.googleapis\.com)`), "google"},
	{regexp.MustCompile(`(?i)(api\.huggingface\.co|huggingface\.co/api)`), "huggingface"},
	{regexp.MustCompile(`(?i)api\.perplexity\.ai`), "perplexity"},
	{regexp.MustCompile(`(?i)api\.cohere\.ai`), "cohere"},
	{regexp.MustCompile(`(?i)api\.replicate\.com`), "replicate"},
	{regexp.MustCompile(`(?i)api\.groq\.com`), "groq"},
	{regexp.MustCompile(`(?i)api\.together\.xyz`), "together"},
	{regexp.MustCompile(`(?i)api\.mistral\.ai`), "mistral"},
	{regexp.MustCompile(`(?i)api\.ai21\.com`), "ai21"},
	{regexp.MustCompile(`(?i)api\.deepseek\.com`), "deepseek"},
}

// llmPatterns распознает обращение к модельному API как таковое.
// Сначала известные хосты, в конце — generic-паттерны путей.
var llmPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)api\.openai\.com/v1/(chat|responses|completions)`),
	regexp.MustCompile(`(?i)api\.openai\.com/v1/embeddings`),
	regexp.MustCompile(`(?i)api\.openai\.com/v1/images`),
	regexp.MustCompile(`(?i)api\.anthropic\.com/v1/messages`),
	regexp.MustCompile(`(?i)generativelanguage\.googleapis\.com`),
	regexp.MustCompile(`(?i)ai\.google\.dev`),
	regexp.MustCompile(`(?i)vertex-ai\.googleapis\.com`),
	regexp.MustCompile(`(?i)api\.huggingface\.co/models`),
	regexp.MustCompile(`(?i)huggingface\.co/api/inference`),
	regexp.MustCompile(`(?i)api\.perplexity\.ai`),
	regexp.MustCompile(`(?i)api\.cohere\.ai`),
	regexp.MustCompile(`(?i)api\.replicate\.com`),
	regexp.MustCompile(`(?i)api\.groq\.com`),
	regexp.MustCompile(`(?i)api\.together\.xyz`),
	regexp.MustCompile(`(?i)api\.mistral\.ai`),
	regexp.MustCompile(`(?i)api\.ai21\.com`),
	regexp.MustCompile(`(?i)api\.deepseek\.com`),
	regexp.MustCompile(`(?i)/v1/(chat|completions|embeddings|images)`),
	regexp.MustCompile(`(?i)/api/v\d+/(generate|chat|complete)`),
	regexp.MustCompile(`(?i)/inference`),
	regexp.MustCompile(`(?i)/predict`),
	regexp.MustCompile(`(?i)/generate`),
}

// IsLLM сообщает, направлен ли вызов на распознаваемый модельный API.
func IsLLM(url string) bool {
	for _, re := range llmPatterns {
		if re.MatchString(url) {
			return true
		}
	}
	return false
}

// DetectProvider классифицирует вендора по URL. Best-effort: при отсутствии
// совпадений возвращает ProviderUnknown, это не ошибка.
func DetectProvider(url string) string {
	for _, p := range providerTable {
		if p.re.MatchString(url) {
			return p.tag
		}
	}
	return ProviderUnknown
}
