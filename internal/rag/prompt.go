package rag

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// NoEvidenceAnswer is returned without calling the model when retrieval
	// finds nothing.
	NoEvidenceAnswer = "No relevant information found in knowledge base."
	// InsufficientEvidence is the phrase the model must use when the context
	// does not support an answer.
	InsufficientEvidence = "Insufficient evidence from sources."
)

// ConfidenceLevels are the only labels the model may use in section 5.
var ConfidenceLevels = []string{"High", "Medium", "Low"}

// Choices offered by the intake form.
var (
	Genders   = []string{"Male", "Female", "Other"}
	Prakritis = []string{"Vata", "Pitta", "Kapha"}
)

// ExampleSymptoms is the demonstration case offered by the intake form.
const ExampleSymptoms = "Chronic constipation, bloating, dry skin, fatigue, anxiety.\nSymptoms worsen in cold weather."

const promptTemplate = `You are an expert Ayurveda physician specializing in Panchakarma.

Use ONLY the provided context.
Do NOT use outside knowledge.
Do NOT invent treatments.

If the information is insufficient, say:
"%s"

Context:
%s

Patient Case:
%s

Provide your answer in clear sections:

1. Recommended Panchakarma therapy
2. Clinical rationale
3. Contraindications
4. Supporting evidence from context
5. Confidence level (%s)
`

// BuildPrompt assembles the closed-book prompt for one patient case.
func BuildPrompt(context, patientCase string) string {
	return fmt.Sprintf(promptTemplate,
		InsufficientEvidence,
		context,
		strings.TrimSpace(patientCase),
		strings.Join(ConfidenceLevels, " / "),
	)
}

// Query is a patient case as captured by a form, the CLI or the HTTP API.
type Query struct {
	Age      int    `json:"age,omitempty" yaml:"age,omitempty"`
	Gender   string `json:"gender,omitempty" yaml:"gender,omitempty"`
	Prakriti string `json:"prakriti,omitempty" yaml:"prakriti,omitempty"`
	Symptoms string `json:"symptoms" yaml:"symptoms"`
	History  string `json:"history,omitempty" yaml:"history,omitempty"`
}

// Validate enforces the caller-side preconditions: symptoms must be present
// and age, when given, must be plausible.
func (q Query) Validate() error {
	if strings.TrimSpace(q.Symptoms) == "" {
		return ErrEmptySymptoms
	}
	if q.Age < 0 || q.Age > 120 {
		return fmt.Errorf("age %d is outside 1-120", q.Age)
	}
	return nil
}

// String renders the case in the line format used for retrieval and prompting.
func (q Query) String() string {
	age := ""
	if q.Age > 0 {
		age = strconv.Itoa(q.Age)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Age: %s\n", age)
	fmt.Fprintf(&b, "Gender: %s\n", strings.TrimSpace(q.Gender))
	fmt.Fprintf(&b, "Prakriti: %s\n", strings.TrimSpace(q.Prakriti))
	fmt.Fprintf(&b, "Symptoms: %s\n", strings.TrimSpace(q.Symptoms))
	fmt.Fprintf(&b, "History: %s", strings.TrimSpace(q.History))
	return b.String()
}
