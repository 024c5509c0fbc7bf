package models

import (
	"testing"
)

func validQuestion() Question {
	return Question{
		Text:         "What is the capital of France?",
		Options:      `["Paris","London","Berlin"]`,
		CorrectIndex: 0,
		Category:     "Geography",
	}
}

func TestQuestion_ParseOptions(t *testing.T) {
	q := validQuestion()
	options, err := q.ParseOptions()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(options) != 3 || options[0] != "Paris" {
		t.Errorf("unexpected options: %v", options)
	}

	q.Options = "not json"
	if _, err := q.ParseOptions(); err == nil {
		t.Error("expected error for malformed options")
	}
}

func TestQuestion_BeforeSave(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Question)
		wantErr bool
	}{
		{"valid", func(q *Question) {}, false},
		{"malformed options", func(q *Question) { q.Options = "{" }, true},
		{"too few options", func(q *Question) { q.Options = `["only one"]` }, true},
		{"too many options", func(q *Question) {
			q.Options = `["1","2","3","4","5","6","7","8","9","10","11"]`
		}, true},
		{"correct index out of range", func(q *Question) { q.CorrectIndex = 3 }, true},
		{"negative correct index", func(q *Question) { q.CorrectIndex = -1 }, true},
		{"empty text", func(q *Question) { q.Text = "" }, true},
		{"empty category", func(q *Question) { q.Category = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := validQuestion()
			tt.mutate(&q)
			err := q.BeforeSave(nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("BeforeSave() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
