// Package resilience holds the retry and failover machinery behind the
// coaching pipelines.
//
// Two layers exist. A ladder ([RunLadder]) is request scoped: it walks an
// ordered list of [Step] values, for example transcription model and format
// variants, and returns the first success or an [*AttemptsError] naming
// every failed step. A [FallbackGroup] is process scoped: it runs such a
// ladder over several backends of one provider kind, and can put a
// [CircuitBreaker] in front of each so a failing backend stops receiving
// traffic for a while.
//
// The typed wrappers [STTFallback], [LLMFallback] and [TTSFallback] satisfy
// the provider interfaces, so a group can stand in wherever a single backend
// is expected.
package resilience
