package task

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePriority(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "", want: PriorityMedium},
		{in: "LOW", want: PriorityLow},
		{in: " high ", want: PriorityHigh},
		{in: "urgent", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParsePriority(tt.in)
		if tt.wantErr {
			require.ErrorIs(t, err, ErrValidation, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseStatus(t *testing.T) {
	t.Parallel()

	got, err := ParseStatus("")
	require.NoError(t, err)
	assert.Equal(t, StatusTodo, got)

	got, err = ParseStatus("In_Progress")
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, got)

	got, err = ParseStatus(" Pending ")
	require.NoError(t, err)
	assert.Equal(t, StatusTodo, got)

	_, err = ParseStatus("blocked")
	require.ErrorIs(t, err, ErrValidation)
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	d, err := ParseDate("")
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = ParseDate("2025-02-28")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.True(t, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC).Equal(*d))

	d, err = ParseDate("2025-02-28T23:30:00Z")
	require.NoError(t, err)
	assert.True(t, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC).Equal(*d))

	_, err = ParseDate("2025-02-30")
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestValidateTitle(t *testing.T) {
	t.Parallel()

	got, err := ValidateTitle("  Water plants ")
	require.NoError(t, err)
	assert.Equal(t, "Water plants", got)

	_, err = ValidateTitle(" \t ")
	require.ErrorIs(t, err, ErrValidation)
}

func TestNormalizeLists(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"a", "b", "a", "c"}, NormalizeTags([]string{" a,b ", "", "a", " c"}))
	assert.Equal(t, []string{"x", "y"}, NormalizeDependsOn([]string{"x", " y", "x,", ""}))
	assert.Equal(t, []string{}, SplitList("  "))
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, KindNone, KindOf(nil))
	assert.Equal(t, KindNotFound, KindOf(notFound("abc")))
	assert.Equal(t, KindValidation, KindOf(ErrInvalidQuery))
	assert.Equal(t, KindStorage, KindOf(errors.New("boom")))
	assert.Equal(t, "missing_dependency", KindMissingDependency.String())
}

func TestRandomUID(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		uid, err := RandomUID()
		require.NoError(t, err)
		require.Len(t, uid, UIDLength)
		for _, r := range uid {
			require.True(t, strings.ContainsRune(UIDAlphabet, r), "uid %q has %q", uid, r)
		}
		seen[uid] = struct{}{}
	}
	assert.Greater(t, len(seen), 190)
}
