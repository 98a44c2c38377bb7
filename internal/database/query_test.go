package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thiagodifaria/MoodAPI/internal/domain"
	"github.com/thiagodifaria/MoodAPI/internal/errors"
)

func floatPtr(v float64) *float64 { return &v }

func timePtr(v time.Time) *time.Time { return &v }

func TestBuildWhere_Empty(t *testing.T) {
	where, args := buildWhere(domain.Filter{})
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestBuildWhere_SingleCondition(t *testing.T) {
	where, args := buildWhere(domain.Filter{Sentiment: "positive"})
	assert.Equal(t, " WHERE sentiment = $1", where)
	assert.Equal(t, []any{"positive"}, args)
}

func TestBuildWhere_AllConditions(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 31, 23, 59, 59, 0, time.UTC)

	where, args := buildWhere(domain.Filter{
		Sentiment:     "negative",
		Language:      "en",
		MinConfidence: floatPtr(0.5),
		MaxConfidence: floatPtr(0.9),
		StartDate:     &start,
		EndDate:       &end,
		TextContains:  "great",
	})

	assert.Equal(t,
		" WHERE created_at >= $1 AND created_at <= $2 AND confidence >= $3"+
			" AND confidence <= $4 AND sentiment = $5 AND language = $6 AND text ILIKE $7",
		where)
	require.Len(t, args, 7)
	assert.Equal(t, start, args[0])
	assert.Equal(t, end, args[1])
	assert.Equal(t, 0.5, args[2])
	assert.Equal(t, 0.9, args[3])
	assert.Equal(t, "negative", args[4])
	assert.Equal(t, "en", args[5])
	assert.Equal(t, "%great%", args[6])
}

func TestBuildWhere_EscapesLikeMetacharacters(t *testing.T) {
	_, args := buildWhere(domain.Filter{TextContains: `50%_done\`})
	require.Len(t, args, 1)
	assert.Equal(t, `%50\%\_done\\%`, args[0])
}

func TestValidateQuery_Valid(t *testing.T) {
	err := ValidateQuery(
		domain.Filter{Sentiment: "neutral", MinConfidence: floatPtr(0.2), MaxConfidence: floatPtr(0.8)},
		domain.Sort{Field: "confidence", Desc: true},
		domain.Page{Number: 1, Size: 50},
	)
	assert.NoError(t, err)
}

func TestValidateQuery_DefaultsAccepted(t *testing.T) {
	// Empty sort field falls back to created_at and must not be rejected.
	err := ValidateQuery(domain.Filter{}, domain.Sort{}, domain.Page{Number: 1, Size: 20})
	assert.NoError(t, err)
}

func TestValidateQuery_Rejections(t *testing.T) {
	start := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	page := domain.Page{Number: 1, Size: 20}

	tests := []struct {
		name   string
		filter domain.Filter
		sort   domain.Sort
		page   domain.Page
	}{
		{"unknown sort column", domain.Filter{}, domain.Sort{Field: "text"}, page},
		{"sql in sort column", domain.Filter{}, domain.Sort{Field: "created_at; DROP TABLE analyses"}, page},
		{"page zero", domain.Filter{}, domain.Sort{}, domain.Page{Number: 0, Size: 20}},
		{"page size zero", domain.Filter{}, domain.Sort{}, domain.Page{Number: 1, Size: 0}},
		{"page size too large", domain.Filter{}, domain.Sort{}, domain.Page{Number: 1, Size: maxPageSize + 1}},
		{"unknown sentiment", domain.Filter{Sentiment: "ecstatic"}, domain.Sort{}, page},
		{"min confidence below range", domain.Filter{MinConfidence: floatPtr(-0.1)}, domain.Sort{}, page},
		{"max confidence above range", domain.Filter{MaxConfidence: floatPtr(1.1)}, domain.Sort{}, page},
		{"min above max", domain.Filter{MinConfidence: floatPtr(0.9), MaxConfidence: floatPtr(0.1)}, domain.Sort{}, page},
		{"start after end", domain.Filter{StartDate: timePtr(start), EndDate: timePtr(end)}, domain.Sort{}, page},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateQuery(tc.filter, tc.sort, tc.page)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.TypeValidation))
		})
	}
}

func TestSortField_Default(t *testing.T) {
	assert.Equal(t, "created_at", sortField(domain.Sort{}))
	assert.Equal(t, "confidence", sortField(domain.Sort{Field: "confidence"}))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `plain`, escapeLike(`plain`))
	assert.Equal(t, `\%\%`, escapeLike(`%%`))
	assert.Equal(t, `a\_b`, escapeLike(`a_b`))
	assert.Equal(t, `\\\%`, escapeLike(`\%`))
}
