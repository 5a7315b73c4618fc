package executor

import (
	"fmt"
	"strings"

	"github.com/cvforge/cvforge/internal/taskconfig"
)

// Per-task instructional preambles. The response shape itself is enforced by
// the resolved schema; the preamble steers content quality.
var preambles = map[string]string{
	taskconfig.TaskExtractCV: "Extract structured resume data from the text below. " +
		"List experience entries from most recent to oldest. " +
		"Use 'Not specified' for text fields you cannot find, and empty arrays for missing lists. " +
		"Never invent employers, dates or degrees that are not in the text.",
	taskconfig.TaskExtractJobDescription: "Extract structured job posting data from the text below. " +
		"Fill every field; use 'Not specified' when the posting does not mention it. " +
		"Keywords should be the terms a matching engine would search for.",
	taskconfig.TaskPreprocess: "Clean up the text below: remove page numbers, repeated headers, navigation " +
		"artifacts and boilerplate, but keep all substantive content. " +
		"Then classify the document and list its logical sections.",
	taskconfig.TaskMatchResume: "Compare the resume against the job description below. " +
		"Score the overall fit from 0 to 100, grounded only in what both documents actually say.",
	taskconfig.TaskResumeTips: "Review the resume below and suggest concrete, actionable improvements. " +
		"Prefer specific rewrites over generic advice.",
}

func buildSingleShotPrompt(taskName string, in Input, knowledge []taskconfig.KnowledgeEntry) string {
	var b strings.Builder

	if preamble, ok := preambles[taskName]; ok {
		b.WriteString(preamble)
		b.WriteString("\n\n")
	}

	switch taskName {
	case taskconfig.TaskMatchResume:
		b.WriteString("RESUME:\n")
		b.WriteString(in.CVText)
		b.WriteString("\n\nJOB DESCRIPTION:\n")
		b.WriteString(in.JobDescriptionText)
	case taskconfig.TaskResumeTips:
		b.WriteString("RESUME:\n")
		b.WriteString(in.CVText)
		if target := strings.TrimSpace(in.TargetRole); target != "" {
			fmt.Fprintf(&b, "\n\nTARGET ROLE: %s", target)
		}
	default:
		b.WriteString("TEXT:\n")
		b.WriteString(in.Text)
	}

	if block := knowledgeBlock(knowledge); block != "" {
		b.WriteString("\n\n")
		b.WriteString(block)
	}

	b.WriteString("\n\nRespond with JSON matching the requested schema, and nothing else.")
	return b.String()
}

// knowledgeBlock renders retrieved knowledge entries, which arrive already
// sorted by priority descending then recency descending.
func knowledgeBlock(entries []taskconfig.KnowledgeEntry) string {
	if len(entries) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("REFERENCE KNOWLEDGE:\n")
	for _, entry := range entries {
		title := strings.TrimSpace(entry.Title)
		if title != "" {
			fmt.Fprintf(&b, "- %s: %s\n", title, entry.Content)
			continue
		}
		fmt.Fprintf(&b, "- %s\n", entry.Content)
	}
	return strings.TrimSpace(b.String())
}
