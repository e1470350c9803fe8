package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/underwriter/internal/model"
)

func TestFormatRunsList(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)
	runs := []model.Run{
		{
			ID:            "abc12345-6789-0000-0000-000000000000",
			ApplicationID: "APP-2026-0001",
			LoanType:      model.LoanTypeMortgage,
			Status:        model.RunStatusComplete,
			Result:        &model.RunResult{Summary: model.FinalSummary{Outcome: model.OutcomeApprove}},
			CreatedAt:     now,
			UpdatedAt:     now.Add(4 * time.Second),
		},
		{
			ID:            "def12345-6789-0000-0000-000000000000",
			ApplicationID: "APP-2026-0002-with-a-very-long-suffix",
			LoanType:      model.LoanTypePersonal,
			Status:        model.RunStatusFailed,
			ErrorType:     "transient",
			CreatedAt:     now.Add(-time.Hour),
			UpdatedAt:     now.Add(-time.Hour + time.Second),
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	output := buf.String()
	assert.Contains(t, output, "APPLICATION")
	assert.Contains(t, output, "abc12345")
	assert.Contains(t, output, "APP-2026-0001")
	assert.Contains(t, output, "mortgage")
	assert.Contains(t, output, "approve")
	assert.Contains(t, output, "APP-2026-0002-with-a-...")
	assert.Contains(t, output, "failed")
	assert.Contains(t, output, "transient")
	assert.Contains(t, output, "2026-03-02 10:30")
	assert.Contains(t, output, "4s")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abc12345", truncateID("abc12345-6789"))
	assert.Equal(t, "short", truncateID("short"))
}
