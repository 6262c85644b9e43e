package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanJSONBlock(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "bare json",
			input: `{"score": 90}`,
			want:  `{"score": 90}`,
		},
		{
			name:  "json fence",
			input: "```json\n{\"score\": 90}\n```",
			want:  `{"score": 90}`,
		},
		{
			name:  "plain fence",
			input: "```\n{\"score\": 90}\n```",
			want:  `{"score": 90}`,
		},
		{
			name:  "surrounding whitespace",
			input: "  \n```json\n{\"score\": 90}\n```  \n",
			want:  `{"score": 90}`,
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanJSONBlock(tt.input))
		})
	}
}
