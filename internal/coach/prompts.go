package coach

import "fmt"

// ── pronunciation ──────────────────────────────────────────────────────────

const audioSystemPrompt = "You are an English pronunciation coach. Analyze pronunciation directly from the provided audio against the target sentence. Always return valid JSON and provide distinct comments for consonants, vowels, and stress. Never give high scores to unrelated or non-English speech."

const transcriptSystemPrompt = "You are an English pronunciation coach. Analyze likely pronunciation issues using transcript differences and word timings. Always provide distinct comments for consonants, vowels, and stress. Never give high scores to unrelated or non-English speech."

const scoringRules = `Strict scoring rules:
- If the utterance is not the target sentence, set isTargetSentence=false and overallScore <= 20.
- If speech is non-English or gibberish, set englishConfidence < 50 and overallScore <= 20.
- Do not return 100 unless target sentence match and pronunciation quality are both excellent.`

const feedbackSchema = `Return strict JSON with this schema:
{
  "overallScore": number, // 0-100 final pronunciation score
  "aiTimingScore": number, // 0-100 from timing/rhythm only (pauses, tempo, flow)
  "targetMatchScore": number, // 0-100 semantic/content match to target sentence
  "englishConfidence": number, // 0-100 confidence that utterance is meaningful English
  "isTargetSentence": boolean,
  "transcribedText": string,
  "summary": string,
  "consonantComment": string,
  "vowelComment": string,
  "stressComment": string,
  "pronunciationIssues": [
    { "expected": string, "heard": string, "advice": string }
  ],
  "practiceTips": string[]
}`

const audioUserPromptTemplate = `Target sentence:
%s

Evaluate the learner's pronunciation directly from the input audio.
Return a best-effort transcription in "transcribedText".
%s

%s`

const transcriptUserPromptTemplate = `Target sentence:
%s

Learner transcription:
%s

Word timings from learner audio (seconds):
%s

%s

%s`

func audioUserPrompt(target string) string {
	return fmt.Sprintf(audioUserPromptTemplate, target, scoringRules, feedbackSchema)
}

// transcriptUserPrompt embeds timings, which must already be JSON.
func transcriptUserPrompt(target, transcript, timings string) string {
	return fmt.Sprintf(transcriptUserPromptTemplate, target, transcript, timings, scoringRules, feedbackSchema)
}

// ── writing ────────────────────────────────────────────────────────────────

const writingSystemPrompt = "You are an English writing coach. Explain grammar and wording clearly and concisely."

const writingUserPromptTemplate = `Full text:
%s

Selected text:
%s

Return strict JSON with this schema:
{
  "explanation": string, // grammar and phrasing explanation in simple English
  "suggestions": string[] // up to 3 improved rewrites of selected text
}
Rules:
- Keep suggestions faithful to the original meaning.
- Prefer natural spoken English.
- Do not include markdown or extra keys.`

func writingUserPrompt(fullText, selectedText string) string {
	return fmt.Sprintf(writingUserPromptTemplate, fullText, selectedText)
}
