package summarizer

import "fmt"

const dailySystemPrompt = `You are a journal summarising assistant. Split the diary entry into 2-5 independent key points: things learned, important events, or reflections. Output one point per line, at most 30 characters each, with no numbering, bullets, or extra text. Answer in the language of the entry.`

func dailyUserPrompt(content string) string {
	return fmt.Sprintf("Diary entry:\n%s", content)
}

const monthlySystemPrompt = `You are a learning and personal-growth review expert. Read every diary entry of the month and answer with a single JSON object:
{"overview": "...", "takeaways": ["..."], "themes": [{"name": "...", "description": "..."}], "keywords": [{"word": "...", "count": 1}]}
overview: 200-300 characters on the month as a whole. takeaways: the 5-8 most important lessons. themes: 3-5 concrete subject areas, 2-6 characters each, with a short description. keywords: 15-20 objects of what was done (the thing learned, the problem solved, the project finished), never bare verbs or time words, with how often each appears. Answer in the language of the entries.`

func monthlyUserPrompt(merged string, year, month int) string {
	return fmt.Sprintf("All diary entries of %04d-%02d, merged by date:\n\n%s", year, month, merged)
}

const keywordsSystemPrompt = `You extract keywords from diary summaries. A keyword is the object of an action (what was learned, solved, or finished), kept whole, never a bare verb or time word. Count how often each appears. Answer with JSON: {"keywords": [{"word": "...", "count": 1}]}`

func keywordsUserPrompt(summaries string) string {
	return fmt.Sprintf("Summaries, one per line:\n%s", summaries)
}
