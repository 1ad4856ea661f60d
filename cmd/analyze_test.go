package cmd

import (
	"testing"

	"github.com/nikogura/cv-coach/pkg/llm"
)

func TestValidateAnalyzeMode(t *testing.T) {
	tests := []struct {
		name      string
		mode      llm.Mode
		vacancy   string
		wantError bool
	}{
		{name: "analysis", mode: llm.ModeAnalysis, wantError: false},
		{name: "hr", mode: llm.ModeHR, wantError: false},
		{name: "match with vacancy", mode: llm.ModeMatch, vacancy: "jd.txt", wantError: false},
		{name: "match without vacancy", mode: llm.ModeMatch, wantError: true},
		{name: "cover without vacancy", mode: llm.ModeCover, wantError: true},
		{name: "step belongs to review", mode: llm.ModeStep, wantError: true},
		{name: "unknown", mode: "poem", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateAnalyzeMode(tt.mode, tt.vacancy)
			if tt.wantError && err == nil {
				t.Error("Expected error, got nil")
			}
			if !tt.wantError && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}

func TestGetOutputDir(t *testing.T) {
	if got := getOutputDir("/flag", "/config"); got != "/flag" {
		t.Errorf("Expected flag value to win, got %s", got)
	}
	if got := getOutputDir("", "/config"); got != "/config" {
		t.Errorf("Expected config value, got %s", got)
	}
}
