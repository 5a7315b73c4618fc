package executor

import (
	"strings"

	"github.com/mitchellh/mapstructure"
)

// jobTitleKeywords are role nouns recognized when mining a headline out of
// the summary text.
var jobTitleKeywords = map[string]bool{
	"engineer":      true,
	"developer":     true,
	"programmer":    true,
	"manager":       true,
	"designer":      true,
	"analyst":       true,
	"consultant":    true,
	"architect":     true,
	"scientist":     true,
	"specialist":    true,
	"administrator": true,
	"accountant":    true,
	"technician":    true,
	"coordinator":   true,
	"director":      true,
	"teacher":       true,
	"writer":        true,
}

type cvExperience struct {
	Title string `mapstructure:"title"`
}

type cvEducation struct {
	Degree string `mapstructure:"degree"`
}

type cvOutline struct {
	ProfessionalHeadline string         `mapstructure:"professionalHeadline"`
	Summary              string         `mapstructure:"summary"`
	Experience           []cvExperience `mapstructure:"experience"`
	Education            []cvEducation  `mapstructure:"education"`
}

// RepairCVExtraction backfills the required professionalHeadline field when
// the model omitted it. Preference order: the most recent non-intern job
// title, then a job-title keyword from the summary paired with the word
// before it, then the most recent education degree plus "Student", then the
// literal "Professional". The input map is returned with only that field
// added; everything else is untouched.
func RepairCVExtraction(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}

	var outline cvOutline
	if err := mapstructure.Decode(data, &outline); err != nil {
		// Unexpected shapes still get the terminal fallback below.
		outline = cvOutline{}
	}

	if strings.TrimSpace(outline.ProfessionalHeadline) != "" {
		return data
	}

	headline := headlineFromExperience(outline.Experience)
	if headline == "" {
		headline = headlineFromSummary(outline.Summary)
	}
	if headline == "" {
		headline = headlineFromEducation(outline.Education)
	}
	if headline == "" {
		headline = "Professional"
	}

	data["professionalHeadline"] = headline
	return data
}

// headlineFromExperience returns the first non-intern job title. Experience
// entries are expected most-recent-first, as the extraction prompt requires.
func headlineFromExperience(experience []cvExperience) string {
	for _, job := range experience {
		title := strings.TrimSpace(job.Title)
		if title == "" {
			continue
		}
		if strings.Contains(strings.ToLower(title), "intern") {
			continue
		}
		return title
	}
	return ""
}

// headlineFromSummary finds the first job-title keyword in the summary and
// pairs it with the preceding word, e.g. "experienced software engineer"
// yields "Software Engineer".
func headlineFromSummary(summary string) string {
	words := strings.Fields(summary)
	for i := 1; i < len(words); i++ {
		if jobTitleKeywords[normalizeWord(words[i])] {
			return titleCase(normalizeWord(words[i-1])) + " " + titleCase(normalizeWord(words[i]))
		}
	}
	return ""
}

func headlineFromEducation(education []cvEducation) string {
	for _, entry := range education {
		degree := strings.TrimSpace(entry.Degree)
		if degree != "" {
			return degree + " Student"
		}
	}
	return ""
}

func normalizeWord(word string) string {
	return strings.ToLower(strings.Trim(word, ".,;:!?()\"'"))
}

func titleCase(word string) string {
	if word == "" {
		return ""
	}
	return strings.ToUpper(word[:1]) + word[1:]
}
