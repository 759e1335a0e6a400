package ai

import (
	"fmt"
	"strings"

	"google.golang.org/genai"

	"complaint-service/internal/model"
)

func draftPrompt(locationDescription string) string {
	categories := make([]string, 0, len(model.AllCategories))
	for _, c := range model.AllCategories {
		categories = append(categories, string(c))
	}

	return fmt.Sprintf(`You are a highly accurate AI assistant that helps users generate complaint drafts from images of issues. Your primary goal is precision.

You will receive a photo of the issue and a description of the location where the issue was photographed.

Based on the image and location description, generate a concise but descriptive draft complaint.

Also, categorize the complaint into one of the following categories: %s. Be strict in your categorization. If you are not confident, choose 'Other'.

Finally, assign a department responsible for handling the complaint from the following list. Follow these rules STRICTLY:
- Potholes and Broken Streetlights MUST be 'Public Works'.
- Trash and illegal dumping MUST be 'Sanitation'.
- Graffiti MUST be 'Community Services'.
- For any other issue, or if the issue is ambiguous, you MUST assign 'General Administration'.

Do not deviate from these department assignments.

Location Description: %s
Photo:`, strings.Join(categories, ", "), locationDescription)
}

func verifyPrompt(issueDescription string) string {
	return fmt.Sprintf(`You are a quality assurance inspector for a municipal complaint system. Your task is to determine if a reported issue has been correctly resolved by comparing two images.

You will be given:
1.  An "Original Photo" showing the reported problem.
2.  A "Resolution Photo" showing the work that was done.
3.  A description of the original issue.

Your job is to make a strict judgment:
- Does the "Resolution Photo" clearly and unambiguously show that the specific problem from the "Original Photo" and description has been fixed?
- For example, if the issue was a pothole, is the pothole filled in the resolution photo? If the issue was trash, is the trash gone?
- If the resolution photo is blurry, shows a completely different location, or does not address the original problem, you must mark it as not resolved.

Based on your analysis, set 'isResolvedCorrectly' to true or false and provide a brief 'reasoning' for your decision.

Original Issue Description: %s`, issueDescription)
}

func draftSchema() *genai.Schema {
	categories := make([]string, 0, len(model.AllCategories))
	for _, c := range model.AllCategories {
		categories = append(categories, string(c))
	}
	departments := make([]string, 0, len(model.AllDepartments))
	for _, d := range model.AllDepartments {
		departments = append(departments, string(d))
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"complaintDraft": {
				Type:        genai.TypeString,
				Description: "A draft complaint generated from the image.",
			},
			"category": {
				Type:        genai.TypeString,
				Enum:        categories,
				Description: "The category of the complaint.",
			},
			"department": {
				Type:        genai.TypeString,
				Enum:        departments,
				Description: "The department responsible for handling the complaint.",
			},
		},
		Required:         []string{"complaintDraft", "category", "department"},
		PropertyOrdering: []string{"complaintDraft", "category", "department"},
	}
}

func verifySchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"isResolvedCorrectly": {
				Type:        genai.TypeBoolean,
				Description: "Whether the resolution image shows that the original issue has been correctly fixed.",
			},
			"reasoning": {
				Type:        genai.TypeString,
				Description: "A brief explanation for the decision, especially if it is not resolved correctly.",
			},
		},
		Required:         []string{"isResolvedCorrectly", "reasoning"},
		PropertyOrdering: []string{"isResolvedCorrectly", "reasoning"},
	}
}
