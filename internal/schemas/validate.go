// Package schemas decodes and validates AI-generated artifacts. Structural
// checks run against embedded JSON Schemas; semantic clauses that need precise
// error messages (answer membership, enum values, cardinality) run in Go.
// Validators never mutate or repair input.
package schemas

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/jonathan/career-coach/internal/artifacts"
)

//go:embed *.json
var schemaFiles embed.FS

const (
	// QuizQuestionCount is the required number of questions per quiz.
	QuizQuestionCount = 10
	// QuizOptionCount is the required number of options per question.
	QuizOptionCount = 4
	// MinFreeTextLength is the minimum plausible length for free-form artifacts.
	MinFreeTextLength = 10
	// MinSalaryRanges is the minimum number of salary bands per insight.
	MinSalaryRanges = 3
	// MinTopSkills is the minimum number of top skills per insight.
	MinTopSkills = 5
)

var (
	compiledSchemas = make(map[string]*gojsonschema.Schema)
	schemasMu       sync.Mutex
)

// loadSchema compiles and caches an embedded JSON Schema by filename.
func loadSchema(filename string) (*gojsonschema.Schema, error) {
	schemasMu.Lock()
	defer schemasMu.Unlock()

	if schema, ok := compiledSchemas[filename]; ok {
		return schema, nil
	}

	data, err := schemaFiles.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema %s: %w", filename, err)
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema %s: %w", filename, err)
	}

	compiledSchemas[filename] = schema
	return schema, nil
}

// validateStructure runs a JSON document against an embedded schema and maps
// the first violation to a MalformedArtifactError.
func validateStructure(filename, document string) error {
	schema, err := loadSchema(filename)
	if err != nil {
		return err
	}

	result, err := schema.Validate(gojsonschema.NewStringLoader(document))
	if err != nil {
		return &MalformedArtifactError{Field: "(root)", Message: fmt.Sprintf("invalid JSON: %v", err)}
	}

	if !result.Valid() {
		desc := result.Errors()[0]
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		return &MalformedArtifactError{Field: field, Message: desc.Description()}
	}

	return nil
}

// DecodeQuiz parses and validates a quiz artifact from sanitized JSON text.
func DecodeQuiz(document string) (*artifacts.Quiz, error) {
	if err := validateStructure("quiz.json", document); err != nil {
		return nil, err
	}

	var quiz artifacts.Quiz
	if err := json.Unmarshal([]byte(document), &quiz); err != nil {
		return nil, &MalformedArtifactError{Field: "(root)", Message: fmt.Sprintf("failed to parse JSON: %v", err)}
	}

	if len(quiz.Questions) != QuizQuestionCount {
		return nil, &MalformedArtifactError{
			Field:   "questions",
			Message: fmt.Sprintf("expected exactly %d questions, got %d", QuizQuestionCount, len(quiz.Questions)),
		}
	}

	for i, q := range quiz.Questions {
		if strings.TrimSpace(q.Question) == "" {
			return nil, &MalformedArtifactError{
				Field:   fmt.Sprintf("questions[%d].question", i),
				Message: "question text must be a non-empty string",
			}
		}
		if len(q.Options) != QuizOptionCount {
			return nil, &MalformedArtifactError{
				Field:   fmt.Sprintf("questions[%d].options", i),
				Message: fmt.Sprintf("expected exactly %d options, got %d", QuizOptionCount, len(q.Options)),
			}
		}
		if !containsExact(q.Options, q.CorrectAnswer) {
			return nil, &MalformedArtifactError{
				Field:   fmt.Sprintf("questions[%d].correctAnswer", i),
				Message: "correctAnswer must exactly match one of options",
			}
		}
		if strings.TrimSpace(q.Explanation) == "" {
			return nil, &MalformedArtifactError{
				Field:   fmt.Sprintf("questions[%d].explanation", i),
				Message: "explanation must be a non-empty string",
			}
		}
	}

	return &quiz, nil
}

// DecodeIndustryInsight parses and validates an industry insight artifact.
func DecodeIndustryInsight(document string) (*artifacts.IndustryInsight, error) {
	if err := validateStructure("industry_insight.json", document); err != nil {
		return nil, err
	}

	var insight artifacts.IndustryInsight
	if err := json.Unmarshal([]byte(document), &insight); err != nil {
		return nil, &MalformedArtifactError{Field: "(root)", Message: fmt.Sprintf("failed to parse JSON: %v", err)}
	}

	if len(insight.SalaryRanges) < MinSalaryRanges {
		return nil, &MalformedArtifactError{
			Field:   "salaryRanges",
			Message: fmt.Sprintf("expected at least %d salary ranges, got %d", MinSalaryRanges, len(insight.SalaryRanges)),
		}
	}
	if len(insight.TopSkills) < MinTopSkills {
		return nil, &MalformedArtifactError{
			Field:   "topSkills",
			Message: fmt.Sprintf("expected at least %d top skills, got %d", MinTopSkills, len(insight.TopSkills)),
		}
	}

	switch insight.DemandLevel {
	case artifacts.DemandHigh, artifacts.DemandMedium, artifacts.DemandLow:
	default:
		return nil, &MalformedArtifactError{
			Field:   "demandLevel",
			Message: fmt.Sprintf("must be one of HIGH, MEDIUM, LOW; got %q", insight.DemandLevel),
		}
	}

	switch insight.MarketOutlook {
	case artifacts.OutlookPositive, artifacts.OutlookNeutral, artifacts.OutlookNegative:
	default:
		return nil, &MalformedArtifactError{
			Field:   "marketOutlook",
			Message: fmt.Sprintf("must be one of POSITIVE, NEUTRAL, NEGATIVE; got %q", insight.MarketOutlook),
		}
	}

	return &insight, nil
}

// DecodeResumeAnalysis parses and validates a resume analysis artifact.
func DecodeResumeAnalysis(document string) (*artifacts.ResumeAnalysis, error) {
	if err := validateStructure("resume_analysis.json", document); err != nil {
		return nil, err
	}

	var analysis artifacts.ResumeAnalysis
	if err := json.Unmarshal([]byte(document), &analysis); err != nil {
		return nil, &MalformedArtifactError{Field: "(root)", Message: fmt.Sprintf("failed to parse JSON: %v", err)}
	}

	return &analysis, nil
}

// ValidateFreeText checks free-form artifacts (cover letters, resume sections)
// for non-emptiness and a minimum plausible length.
func ValidateFreeText(text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return &MalformedArtifactError{Field: "(root)", Message: "generated text is empty"}
	}
	if len(trimmed) < MinFreeTextLength {
		return &MalformedArtifactError{
			Field:   "(root)",
			Message: fmt.Sprintf("generated text is implausibly short (%d chars, need at least %d)", len(trimmed), MinFreeTextLength),
		}
	}
	return nil
}

// containsExact reports whether target is string-equal (exact, case-sensitive)
// to one of the candidates.
func containsExact(candidates []string, target string) bool {
	for _, c := range candidates {
		if c == target {
			return true
		}
	}
	return false
}
