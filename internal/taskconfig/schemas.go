package taskconfig

import "google.golang.org/genai"

// Canonical response schemas per task. These define the contract the rest
// of the system parses against, which is why the resolver never lets a
// stored config replace them.

func stringSchema(description string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: description}
}

func stringArraySchema(description string) *genai.Schema {
	return &genai.Schema{
		Type:        genai.TypeArray,
		Description: description,
		Items:       &genai.Schema{Type: genai.TypeString},
	}
}

func cvSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"personalInfo": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"name":     stringSchema("Full name of the candidate"),
					"email":    stringSchema("Email address"),
					"phone":    stringSchema("Phone number"),
					"location": stringSchema("City and country"),
				},
				Required: []string{"name"},
			},
			"professionalHeadline": stringSchema("Short professional title, e.g. 'Backend Engineer'"),
			"summary":              stringSchema("Professional summary paragraph"),
			"experience": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"title":       stringSchema("Job title"),
						"company":     stringSchema("Employer name"),
						"location":    stringSchema("Job location"),
						"startDate":   stringSchema("Start date, YYYY-MM when available"),
						"endDate":     stringSchema("End date, or 'Present'"),
						"current":     {Type: genai.TypeBoolean},
						"description": stringSchema("Responsibilities and achievements"),
					},
					Required: []string{"title"},
				},
			},
			"education": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"degree":         stringSchema("Degree name, e.g. 'BSc Computer Science'"),
						"institution":    stringSchema("School or university"),
						"location":       stringSchema("Institution location"),
						"graduationYear": stringSchema("Graduation year"),
					},
					Required: []string{"degree"},
				},
			},
			"skills":         stringArraySchema("Technical and soft skills"),
			"languages":      stringArraySchema("Spoken languages"),
			"certifications": stringArraySchema("Professional certifications"),
		},
		Required: []string{"personalInfo", "professionalHeadline", "experience", "education", "skills"},
	}
}

// jobDescriptionRequiredFields is the fixed contract for parsed job
// descriptions; downstream matching depends on every field being present.
var jobDescriptionRequiredFields = []string{
	"position", "jobLevel", "employmentType", "companyName", "location",
	"remoteStatus", "experienceRequired", "department", "summary",
	"requirements", "responsibilities", "benefits", "salary", "keywords",
	"applicationDeadline",
}

func jobDescriptionSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"position":            stringSchema("Job title being advertised"),
			"jobLevel":            stringSchema("Seniority level, e.g. Junior, Mid, Senior, Lead"),
			"employmentType":      stringSchema("Full-time, part-time, contract, internship"),
			"companyName":         stringSchema("Hiring company name, or 'Not specified'"),
			"location":            stringSchema("Job location, or 'Not specified'"),
			"remoteStatus":        stringSchema("On-site, hybrid, or remote"),
			"experienceRequired":  stringSchema("Required years or level of experience"),
			"department":          stringSchema("Department or team"),
			"summary":             stringSchema("Short summary of the role"),
			"requirements":        stringArraySchema("Required qualifications"),
			"responsibilities":    stringArraySchema("Day-to-day responsibilities"),
			"benefits":            stringArraySchema("Offered benefits"),
			"salary":              stringSchema("Salary or range, or 'Not specified'"),
			"keywords":            stringArraySchema("Keywords for matching and search"),
			"applicationDeadline": stringSchema("Application deadline, or 'Not specified'"),
		},
		Required: jobDescriptionRequiredFields,
	}
}

func preprocessSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"cleanedText":  stringSchema("Input text with artifacts and boilerplate removed"),
			"documentType": stringSchema("One of: cv, job_description, cover_letter, other"),
			"language":     stringSchema("ISO 639-1 language code of the text"),
			"sections":     stringArraySchema("Detected logical sections, in order"),
		},
		Required: []string{"cleanedText", "documentType", "language"},
	}
}

func matchResumeSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"matchScore":      {Type: genai.TypeNumber, Description: "Overall fit score from 0 to 100"},
			"verdict":         stringSchema("One of: strong_match, possible_match, weak_match"),
			"strengths":       stringArraySchema("Where the resume matches the job"),
			"gaps":            stringArraySchema("Missing or weak qualifications"),
			"recommendations": stringArraySchema("Concrete suggestions to improve the fit"),
			"summary":         stringSchema("Short overall assessment"),
		},
		Required: []string{"matchScore", "verdict", "strengths", "gaps", "summary"},
	}
}

func resumeTipsSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"tips": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"category": stringSchema("Area the tip applies to, e.g. summary, experience, skills"),
						"tip":      stringSchema("The actionable suggestion"),
						"priority": stringSchema("high, medium, or low"),
					},
					Required: []string{"category", "tip"},
				},
			},
			"overallAssessment": stringSchema("Short overall assessment of the resume"),
		},
		Required: []string{"tips", "overallAssessment"},
	}
}

func chatSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"reply":       stringSchema("Assistant reply to show the user"),
			"suggestions": stringArraySchema("Up to three follow-up prompts the user might ask next"),
		},
		Required: []string{"reply"},
	}
}

func intentSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"intent":     stringSchema("Short snake_case label for what the user wants"),
			"confidence": {Type: genai.TypeNumber, Description: "Classification confidence between 0 and 1"},
			"taskName":   stringSchema("One of the known task names"),
		},
		Required: []string{"intent", "confidence", "taskName"},
	}
}
