package generation

import (
	"fmt"
	"strings"
)

const defaultLanguage = "English"

func languageOrDefault(lang string) string {
	if strings.TrimSpace(lang) == "" {
		return defaultLanguage
	}
	return lang
}

// SkeletonPrompt asks for the topic tree with every content field left empty.
func SkeletonPrompt(lang, mainTopic string, topicCount int, subtopics []string) string {
	root := strings.ToLower(mainTopic)
	var b strings.Builder
	fmt.Fprintf(&b, "Strictly in %s, Generate a list of Strict %d topics and any number sub topic for each topic for main title %s, everything in single line.",
		languageOrDefault(lang), topicCount, root)
	if len(subtopics) > 0 {
		fmt.Fprintf(&b, " Those %d topics should Strictly include these topics :- %s.", topicCount, strings.Join(subtopics, ", "))
	}
	fmt.Fprintf(&b, ` Strictly Keep theory, youtube, image field empty. Generate in the form of JSON in this format {
  "%s": [
    {
      "title": "Topic Title",
      "subtopics": [
        {"title": "Sub Topic Title", "theory": "", "youtube": "", "image": "", "done": false}
      ]
    }
  ]
}`, root)
	return b.String()
}

// TheoryPrompt explains one subtopic with examples.
func TheoryPrompt(lang, mainTopic, subtopic string) string {
	return fmt.Sprintf("Strictly in %s, Explain me about this subtopic of %s with examples :- %s. Please Strictly Don't Give Additional Resources And Images.",
		languageOrDefault(lang), mainTopic, subtopic)
}

// ImageQuery is the image search query for a subtopic.
func ImageQuery(mainTopic, subtopic string) string {
	return fmt.Sprintf("Example of %s in %s", subtopic, mainTopic)
}

// VideoQuery is the video search query for a subtopic.
func VideoQuery(mainTopic, subtopic string) string {
	return fmt.Sprintf("%s %s in english", subtopic, mainTopic)
}

// SummarizePrompt turns a transcript into lesson text.
func SummarizePrompt(lang string, transcript []string) string {
	return fmt.Sprintf("Strictly in %s, Summarize this theory in a teaching way :- %s.",
		languageOrDefault(lang), strings.Join(transcript, " "))
}

// ExamPrompt asks for ten multiple choice questions as JSON.
func ExamPrompt(lang, mainTopic, subtopics string) string {
	return fmt.Sprintf(`Strictly in %s, generate a strictly 10 question MCQ quiz on title %s with the following subtopics :- %s. The quiz must be in JSON, with each question having exactly four options and one correct answer, in this format [
  {"question": "Question text", "options": ["option a", "option b", "option c", "option d"], "answer": "option a"}
]`, languageOrDefault(lang), mainTopic, subtopics)
}

// ChatSystemPrompt frames the AI teacher conversation.
func ChatSystemPrompt(prompt string) string {
	return "You are an AI teacher. Answer the student clearly and concisely, with examples where useful. Question :- " + prompt
}
