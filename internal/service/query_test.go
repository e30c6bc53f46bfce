package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAgeTag(t *testing.T) {
	tests := []struct {
		age  int
		want string
	}{
		{18, "adult"},
		{64, "adult"},
		{65, "elderly"},
		{90, "elderly"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, AgeTag(tt.age), "age %d", tt.age)
	}
}

func TestDurationTag(t *testing.T) {
	tests := []struct {
		days int
		want string
	}{
		{1, "short-term"},
		{7, "short-term"},
		{8, "acute"},
		{30, "acute"},
		{31, "chronic prolonged"},
		{365, "chronic prolonged"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DurationTag(tt.days), "days %d", tt.days)
	}
}

func TestBuildSemanticQuery(t *testing.T) {
	t.Run("composes drug, reason, and tags with fixed expansion", func(t *testing.T) {
		query := BuildSemanticQuery("Atorvastatin", "severe muscle pain", 72, 45)

		assert.Equal(t,
			"Atorvastatin severe muscle pain adverse effect mechanism toxicity elderly age risk chronic prolonged duration pathophysiology clinical manifestation syndrome complication serious",
			query)
	})

	t.Run("collapses extra whitespace", func(t *testing.T) {
		query := BuildSemanticQuery("Drug  X", "reason\twith   spaces", 30, 5)

		assert.NotContains(t, query, "  ")
		assert.Contains(t, query, "Drug X reason with spaces")
		assert.Contains(t, query, "adult age risk")
		assert.Contains(t, query, "short-term duration")
	})
}
