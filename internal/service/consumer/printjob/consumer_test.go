package printjob

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jnardiello/printfarmhq-sub002/internal/model"
	"github.com/jnardiello/printfarmhq-sub002/internal/service/mocks"
	"github.com/jnardiello/printfarmhq-sub002/platform/kafka"
)

func TestHandlerHandle(t *testing.T) {
	t.Parallel()

	jobID := uuid.New()

	finishEvent := func() []byte {
		return []byte(fmt.Sprintf(
			`{"event_id":%q,"job_id":%q,"finished_at":"2026-08-20T10:00:00Z"}`,
			uuid.New(), jobID,
		))
	}

	type testCase struct {
		name   string
		value  []byte
		setup  func(jobs *mocks.MockJobCompleter)
		assert func(t *testing.T, err error, jobs *mocks.MockJobCompleter)
	}

	tests := []testCase{
		{
			name:  "malformed payload is dropped",
			value: []byte(`{"job_id": 42`),
			setup: func(jobs *mocks.MockJobCompleter) {
				// No calls expected.
			},
			assert: func(t *testing.T, err error, jobs *mocks.MockJobCompleter) {
				require.NoError(t, err)
				jobs.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
			},
		},
		{
			name:  "unparseable job id is dropped",
			value: []byte(`{"job_id":"not-a-uuid"}`),
			setup: func(jobs *mocks.MockJobCompleter) {
				// No calls expected.
			},
			assert: func(t *testing.T, err error, jobs *mocks.MockJobCompleter) {
				require.NoError(t, err)
				jobs.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
			},
		},
		{
			name:  "completes the job",
			value: finishEvent(),
			setup: func(jobs *mocks.MockJobCompleter) {
				jobs.On("Complete", mock.Anything, jobID).Return(nil).Once()
			},
			assert: func(t *testing.T, err error, jobs *mocks.MockJobCompleter) {
				require.NoError(t, err)
			},
		},
		{
			name:  "terminal job conflict is swallowed",
			value: finishEvent(),
			setup: func(jobs *mocks.MockJobCompleter) {
				jobs.
					On("Complete", mock.Anything, jobID).
					Return(fmt.Errorf("status COMPLETED: %w", model.ErrJobConflict)).
					Once()
			},
			assert: func(t *testing.T, err error, jobs *mocks.MockJobCompleter) {
				require.NoError(t, err)
			},
		},
		{
			name:  "unknown job is swallowed",
			value: finishEvent(),
			setup: func(jobs *mocks.MockJobCompleter) {
				jobs.On("Complete", mock.Anything, jobID).Return(model.ErrJobNotFound).Once()
			},
			assert: func(t *testing.T, err error, jobs *mocks.MockJobCompleter) {
				require.NoError(t, err)
			},
		},
		{
			name:  "infrastructure failure is surfaced for redelivery",
			value: finishEvent(),
			setup: func(jobs *mocks.MockJobCompleter) {
				jobs.
					On("Complete", mock.Anything, jobID).
					Return(errors.New("connection refused")).
					Once()
			},
			assert: func(t *testing.T, err error, jobs *mocks.MockJobCompleter) {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "connection refused")
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			jobs := mocks.NewMockJobCompleter(t)
			tc.setup(jobs)

			err := NewHandler(jobs).Handle(context.Background(), kafka.Message{
				Topic: "print-job-finished",
				Value: tc.value,
			})
			tc.assert(t, err, jobs)
		})
	}
}
