package ai

import (
	"fmt"
	"strings"
)

func structureResumePrompt(rawText string) string {
	return fmt.Sprintf(`You are an expert resume parser.
Extract structured data from the resume text below.

Return your result as a single JSON object in this format:

{
  "name": string,
  "email": string,
  "phone": string,
  "location": string,
  "summary": string,
  "skills": [string],
  "experience": [{"title": string, "company": string, "location": string, "start_date": string, "end_date": string, "description": string, "highlights": [string]}],
  "education": [{"institution": string, "degree": string, "field": string, "start_year": string, "end_year": string}],
  "projects": [{"name": string, "description": string, "technologies": [string], "url": string}],
  "certifications": [string],
  "languages": [string],
  "confidence": number
}

confidence is your own confidence in the extraction, between 0 and 1.
Base all fields only on the provided text. Do not invent data.
Return only valid JSON with no explanations, markdown, or surrounding text.

Resume:
%s`, rawText)
}

func scoreJobPrompt(title, description string, skills []string) string {
	return fmt.Sprintf(`You are an expert AI career assistant that evaluates how well a candidate's skills match a job posting.

Compare the candidate's skills with the job below and assign an overall match score from 0 to 100.

Return your result as a single JSON object in this format:

{
  "match_score": number,
  "match_reason": string,
  "matching_skills": [string],
  "missing_skills": [string],
  "strengths": [string],
  "improvements": [string]
}

Be concise and professional. Base all reasoning only on the provided text.
Return only valid JSON with no explanations, markdown, or surrounding text.

Job Title:
%s

Job Description:
%s

Candidate Skills:
%s`, title, description, strings.Join(skills, ", "))
}

func generateInterviewPrompt(req InterviewRequest) string {
	count := req.QuestionCount
	if count <= 0 {
		count = 10
	}
	return fmt.Sprintf(`You are an expert interview coach.
Generate %d interview questions for the role below, plus brief research notes on the company.

Question types: "technical", "behavioral", "system design", "situational", "coding".
Difficulties: "easy", "medium", "hard". Mix both dimensions sensibly for the role.

Return your result as a single JSON object in this format:

{
  "company_research": string,
  "questions": [{"question": string, "type": string, "difficulty": string, "topic": string, "model_answer": string, "hints": [string], "key_points": [string], "follow_ups": [string]}]
}

Return only valid JSON with no explanations, markdown, or surrounding text.

Company: %s
Role: %s
Technologies: %s
Experience level: %s`,
		count, req.Company, req.Role, strings.Join(req.Technologies, ", "), req.ExperienceLevel)
}
