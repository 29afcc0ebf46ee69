package services

import (
	"encoding/json"
	"strings"
	"testing"

	"gorm.io/datatypes"
)

func sampleQuestions() []quizQuestion {
	return []quizQuestion{
		{Text: "2+2?", Options: []string{"3", "4", "5"}, Answer: 1, Points: 2},
		{Text: "Capital of France?", Options: []string{"Paris", "Lyon"}, Answer: 0},
		{Text: "Largest planet?", Options: []string{"Mars", "Jupiter", "Venus"}, Answer: 1, Points: 3},
	}
}

func TestGrade(t *testing.T) {
	questions := sampleQuestions()

	tests := []struct {
		name      string
		answers   map[string]interface{}
		wantScore float64
		wantMax   int
	}{
		{
			name:      "all correct",
			answers:   map[string]interface{}{"0": float64(1), "1": float64(0), "2": float64(1)},
			wantScore: 6,
			wantMax:   6,
		},
		{
			name:      "partial credit with weighted points",
			answers:   map[string]interface{}{"0": float64(1), "1": float64(1), "2": float64(0)},
			wantScore: 2,
			wantMax:   6,
		},
		{
			name:      "missing answers score zero",
			answers:   map[string]interface{}{"2": float64(1)},
			wantScore: 3,
			wantMax:   6,
		},
		{
			name:      "string answers coerced",
			answers:   map[string]interface{}{"0": "1", "1": "0", "2": "1"},
			wantScore: 6,
			wantMax:   6,
		},
		{
			name:      "garbage answer ignored",
			answers:   map[string]interface{}{"0": "not a number", "1": float64(0)},
			wantScore: 1,
			wantMax:   6,
		},
		{
			name:      "no answers at all",
			answers:   map[string]interface{}{},
			wantScore: 0,
			wantMax:   6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, max := grade(questions, tt.answers)
			if score != tt.wantScore {
				t.Errorf("grade() score = %v, want %v", score, tt.wantScore)
			}
			if max != tt.wantMax {
				t.Errorf("grade() max = %v, want %v", max, tt.wantMax)
			}
		})
	}
}

func TestGradeDefaultsPointsToOne(t *testing.T) {
	questions := []quizQuestion{
		{Text: "q1", Options: []string{"a", "b"}, Answer: 0},
		{Text: "q2", Options: []string{"a", "b"}, Answer: 1, Points: -5},
	}

	score, max := grade(questions, map[string]interface{}{"0": float64(0), "1": float64(1)})
	if max != 2 {
		t.Errorf("grade() max = %d, want 2 (unset and negative points default to 1)", max)
	}
	if score != 2 {
		t.Errorf("grade() score = %v, want 2", score)
	}
}

func TestAnswerIndex(t *testing.T) {
	tests := []struct {
		name   string
		raw    interface{}
		want   int
		wantOK bool
	}{
		{"json number", float64(2), 2, true},
		{"native int", 3, 3, true},
		{"numeric string", "1", 1, true},
		{"non-numeric string", "abc", 0, false},
		{"nil", nil, 0, false},
		{"bool", true, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := answerIndex(tt.raw)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("answerIndex(%v) = (%d, %v), want (%d, %v)", tt.raw, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestStripAnswerKey(t *testing.T) {
	doc, err := json.Marshal(sampleQuestions())
	if err != nil {
		t.Fatalf("marshal questions: %v", err)
	}

	stripped, err := stripAnswerKey(datatypes.JSON(doc))
	if err != nil {
		t.Fatalf("stripAnswerKey() error = %v", err)
	}

	if strings.Contains(string(stripped), "answer") {
		t.Errorf("stripped document still contains the answer field: %s", stripped)
	}

	var public []map[string]interface{}
	if err := json.Unmarshal(stripped, &public); err != nil {
		t.Fatalf("unmarshal stripped document: %v", err)
	}
	if len(public) != 3 {
		t.Fatalf("stripped document has %d questions, want 3", len(public))
	}
	if public[0]["text"] != "2+2?" {
		t.Errorf("question text = %v, want 2+2?", public[0]["text"])
	}
	// Points without an explicit value surface as 1 in the public view.
	if public[1]["points"] != float64(1) {
		t.Errorf("default points = %v, want 1", public[1]["points"])
	}
}

func TestStripAnswerKeyEmptyDocument(t *testing.T) {
	stripped, err := stripAnswerKey(nil)
	if err != nil {
		t.Fatalf("stripAnswerKey(nil) error = %v", err)
	}
	if stripped != nil {
		t.Errorf("stripAnswerKey(nil) = %s, want nil", stripped)
	}
}

func TestParseQuestions(t *testing.T) {
	doc := datatypes.JSON(`[{"text":"q","options":["a","b"],"answer":1,"points":2}]`)

	questions, err := parseQuestions(doc)
	if err != nil {
		t.Fatalf("parseQuestions() error = %v", err)
	}
	if len(questions) != 1 {
		t.Fatalf("parseQuestions() returned %d questions, want 1", len(questions))
	}
	if questions[0].Answer != 1 || questions[0].Points != 2 {
		t.Errorf("parseQuestions() = %+v, want answer 1 points 2", questions[0])
	}

	if _, err := parseQuestions(datatypes.JSON(`not json`)); err == nil {
		t.Error("parseQuestions() on malformed document expected error, got nil")
	}
}
