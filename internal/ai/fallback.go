package ai

import (
	"regexp"
	"strings"

	"github.com/resumatch/apiserver/types"
)

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?\d[\d\s().\-]{7,}\d`)
)

// knownSkills is the vocabulary the fallback extractor matches against.
// It is deliberately small: the fallback only has to salvage something
// useful from an upload when the structuring model is unavailable.
var knownSkills = []string{
	"Go", "Python", "Java", "JavaScript", "TypeScript", "C++", "C#", "Ruby",
	"Rust", "Kotlin", "Swift", "PHP", "SQL", "HTML", "CSS", "React", "Vue",
	"Angular", "Node.js", "Django", "Flask", "Spring", "Rails", "PostgreSQL",
	"MySQL", "MongoDB", "Redis", "Kafka", "RabbitMQ", "Docker", "Kubernetes",
	"Terraform", "AWS", "GCP", "Azure", "Linux", "Git", "CI/CD", "GraphQL",
	"REST", "gRPC", "Machine Learning", "TensorFlow", "PyTorch",
}

// FallbackStructure is the best-effort regex extraction used when the
// structuring collaborator fails or returns unparseable output. The
// upload succeeds with degraded data instead of failing outright.
func FallbackStructure(rawText string) (types.StructuredResume, types.ParseMetadata) {
	structured := types.StructuredResume{
		Email: emailPattern.FindString(rawText),
		Phone: strings.TrimSpace(phonePattern.FindString(rawText)),
		Name:  guessName(rawText),
	}

	tokens := make(map[string]bool)
	for _, token := range strings.FieldsFunc(strings.ToLower(rawText), func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == ',' || r == ';' || r == '|' || r == '(' || r == ')'
	}) {
		tokens[token] = true
		// Sentence punctuation sticks to the last word of a line.
		if trimmed := strings.TrimRight(token, ".:!?"); trimmed != token {
			tokens[trimmed] = true
		}
	}
	lower := strings.ToLower(rawText)
	for _, skill := range knownSkills {
		key := strings.ToLower(skill)
		if strings.ContainsRune(key, ' ') {
			if strings.Contains(lower, key) {
				structured.Skills = append(structured.Skills, skill)
			}
			continue
		}
		if tokens[key] {
			structured.Skills = append(structured.Skills, skill)
		}
	}

	meta := types.ParseMetadata{
		Model:      "fallback",
		Confidence: 0.2,
		Version:    structuredSchemaVersion,
	}
	return structured, meta
}

// guessName takes the first short non-empty line that is not an email
// or phone number.
func guessName(rawText string) string {
	for _, line := range strings.Split(rawText, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || len(line) > 60 {
			continue
		}
		if emailPattern.MatchString(line) || phonePattern.MatchString(line) {
			continue
		}
		return line
	}
	return ""
}
