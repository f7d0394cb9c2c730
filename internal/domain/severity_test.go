package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultScale(t *testing.T) {
	s := DefaultScale()

	levels := s.Levels()
	require.Len(t, levels, 7)

	values := make([]Severity, 0, len(levels))
	for _, l := range levels {
		values = append(values, l.Value)
	}
	assert.Equal(t, []Severity{-2, -1, 0, 1, 2, 3, 4}, values, "levels should come back in ascending order")

	t.Run("sentinel flags", func(t *testing.T) {
		for _, l := range levels {
			assert.Equal(t, l.Value < 0, l.Sentinel, "level %q", l.Label)
		}
	})

	t.Run("canonical labels resolve", func(t *testing.T) {
		for _, l := range levels {
			v, err := s.Map(l.Label)
			require.NoError(t, err)
			assert.Equal(t, l.Value, v)
		}
	})
}

func TestScaleMapNormalization(t *testing.T) {
	s := DefaultScale()

	tests := []struct {
		name     string
		label    string
		expected Severity
	}{
		{"exact label", "Watch", SeverityWatch},
		{"uppercase", "ALERT", SeverityAlert},
		{"lowercase", "emergency", SeverityEmergency},
		{"surrounding whitespace", "  Advisory  ", SeverityAdvisory},
		{"repeated inner whitespace", "off   season", SeverityOffSeason},
		{"tab separated", "no\twarning", SeverityNoWarning},
		{"mixed case multiword", "nO CroP or RANGELAND", SeverityNoCropOrRangeland},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := s.Map(tt.label)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, v)
		})
	}
}

func TestScaleMapUnknownLabel(t *testing.T) {
	s := DefaultScale()

	_, err := s.Map("Mild concern")
	require.Error(t, err)

	var unmapped *UnmappedLabelError
	require.True(t, errors.As(err, &unmapped))
	assert.Equal(t, "Mild concern", unmapped.Label, "original label should be preserved, not the normalized form")
	assert.Empty(t, unmapped.RegionID)
}

func TestNewScaleValidation(t *testing.T) {
	t.Run("empty level set", func(t *testing.T) {
		_, err := NewScale(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least one level")
	})

	t.Run("empty label", func(t *testing.T) {
		_, err := NewScale([]Level{{Label: "   ", Value: 0}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty label")
	})

	t.Run("duplicate severity value", func(t *testing.T) {
		_, err := NewScale([]Level{
			{Label: "Calm", Value: 0},
			{Label: "Stormy", Value: 0},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate severity value")
	})

	t.Run("labels colliding after normalization", func(t *testing.T) {
		_, err := NewScale([]Level{
			{Label: "No  Warning", Value: 0},
			{Label: "no warning", Value: 1},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "collide")
	})

	t.Run("single level is enough", func(t *testing.T) {
		s, err := NewScale([]Level{{Label: "Anything", Value: 3}})
		require.NoError(t, err)

		l, ok := s.Level(3)
		require.True(t, ok)
		assert.Equal(t, "Anything", l.Label)

		_, ok = s.Level(0)
		assert.False(t, ok)
	})
}

func TestScaleLevelsIsACopy(t *testing.T) {
	s := DefaultScale()

	levels := s.Levels()
	levels[0].Label = "mutated"

	fresh := s.Levels()
	assert.Equal(t, "No crop or rangeland", fresh[0].Label)
}
