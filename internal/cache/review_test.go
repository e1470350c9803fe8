package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/underwriter/internal/model"
)

func personalRequest() model.LoanRequest {
	return model.LoanRequest{
		LoanType:   model.LoanTypePersonal,
		LoanAmount: 500000,
		TermYears:  5,
		Applicant: model.Applicant{
			Name:          "Lin Mei",
			Age:           35,
			MonthlyIncome: 60000,
		},
	}
}

func TestFingerprint_Stable(t *testing.T) {
	a, err := Fingerprint(personalRequest())
	require.NoError(t, err)
	b, err := Fingerprint(personalRequest())
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	other := personalRequest()
	other.LoanAmount = 500001
	c, err := Fingerprint(other)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestReviewCache_PutGet(t *testing.T) {
	m, clock := newTestMemoryStore(t)
	rc := NewReviewCache(m, 0)
	ctx := context.Background()
	req := personalRequest()

	_, ok := rc.Get(ctx, req)
	assert.False(t, ok)

	a := &model.Assessment{
		LoanType:             model.LoanTypePersonal,
		OverallAssessment:    "approve",
		RequiresManualReview: false,
		SuggestedActions:     []string{"verify payroll"},
	}
	require.NoError(t, rc.Put(ctx, req, a))

	got, ok := rc.Get(ctx, req)
	require.True(t, ok)
	assert.Equal(t, "approve", got.OverallAssessment)
	assert.Equal(t, []string{"verify payroll"}, got.SuggestedActions)

	clock.Advance(10 * time.Minute)
	_, ok = rc.Get(ctx, req)
	assert.False(t, ok)
}

func TestReviewCache_CorruptEntry(t *testing.T) {
	m, _ := newTestMemoryStore(t)
	rc := NewReviewCache(m, time.Minute)
	ctx := context.Background()
	req := personalRequest()

	fp, err := Fingerprint(req)
	require.NoError(t, err)
	require.NoError(t, m.Set(ctx, reviewKey(fp), []byte("{not json"), 0))

	_, ok := rc.Get(ctx, req)
	assert.False(t, ok)
}
