package service

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseTutorReply(t *testing.T) {
	tests := []struct {
		name      string
		response  string
		answer    string
		followUps []string
	}{
		{
			name:      "inline list",
			response:  "Answer: Photosynthesis turns light into sugar. Follow-up Questions: 1. What is chlorophyll? 2. Where does it happen?",
			answer:    "Photosynthesis turns light into sugar.",
			followUps: []string{"What is chlorophyll?", "Where does it happen?"},
		},
		{
			name:      "one per line",
			response:  "Answer:\nWater boils at 100 C.\n\nFollow-up Questions:\n1. Why does altitude matter?\n2. What is vapour pressure?\n3. Can water boil at 3.5 bar?",
			answer:    "Water boils at 100 C.",
			followUps: []string{"Why does altitude matter?", "What is vapour pressure?", "Can water boil at 3.5 bar?"},
		},
		{
			name:     "no marker",
			response: "  The mitochondria is the powerhouse of the cell.  ",
			answer:   "The mitochondria is the powerhouse of the cell.",
		},
		{
			name:     "empty list",
			response: "Answer: Yes. Follow-up Questions:",
			answer:   "Yes.",
		},
		{
			name:      "no answer label",
			response:  "It depends on the pH. Follow-up Questions: 1. What is pH?",
			answer:    "It depends on the pH.",
			followUps: []string{"What is pH?"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseTutorReply(tt.response)
			require.Equal(t, tt.answer, got.Answer)
			require.Equal(t, tt.followUps, got.FollowUps)
		})
	}
}
