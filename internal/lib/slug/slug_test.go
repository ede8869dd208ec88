package slug

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func takenSet(slugs ...string) ExistsFunc {
	set := make(map[string]bool, len(slugs))
	for _, s := range slugs {
		set[s] = true
	}
	return func(_ context.Context, candidate string) (bool, error) {
		return set[candidate], nil
	}
}

func TestUnique(t *testing.T) {
	tests := []struct {
		name   string
		value  string
		maxLen int
		taken  []string
		want   string
	}{
		{name: "free slug", value: "My Project", maxLen: 255, want: "my-project"},
		{name: "first collision", value: "My Project", maxLen: 255, taken: []string{"my-project"}, want: "my-project-2"},
		{name: "several collisions", value: "My Project", maxLen: 255, taken: []string{"my-project", "my-project-2", "my-project-3"}, want: "my-project-4"},
		{name: "truncated to max length", value: "abcdef ghij", maxLen: 6, want: "abcdef"},
		{name: "suffix fits into max length", value: "abcdef ghij", maxLen: 6, taken: []string{"abcdef"}, want: "abcd-2"},
		{name: "trailing separator stripped after truncation", value: "abc def", maxLen: 4, want: "abc"},
		{name: "empty value gets suffix", value: "!!!", maxLen: 255, want: "-2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Unique(context.Background(), tt.value, tt.maxLen, takenSet(tt.taken...))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnique_ExistsError(t *testing.T) {
	_, err := Unique(context.Background(), "name", 0, func(context.Context, string) (bool, error) {
		return false, errors.New("db down")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}
