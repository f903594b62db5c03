package gate_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/quotekit/pkg/entitlement"
	"github.com/dmitrymomot/quotekit/pkg/gate"
	"github.com/dmitrymomot/quotekit/pkg/subscription"
	"github.com/dmitrymomot/quotekit/pkg/usage"
)

type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Resolve(ctx context.Context, userID uuid.UUID) (subscription.Resolution, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(subscription.Resolution), args.Error(1)
}

type MockReconciler struct {
	mock.Mock
}

func (m *MockReconciler) Reconcile(ctx context.Context, userID uuid.UUID) (subscription.Report, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(subscription.Report), args.Error(1)
}

// staticResolver returns the same policy for every user.
type staticResolver struct {
	features entitlement.PlanFeatures
	err      error
}

func (s staticResolver) Resolve(_ context.Context, userID uuid.UUID) (subscription.Resolution, error) {
	if s.err != nil {
		return subscription.Resolution{}, s.err
	}
	return subscription.Resolution{
		UserID:   userID,
		Features: s.features,
		Tier:     entitlement.PlanTierName(s.features),
		Source:   subscription.SourcePlan,
	}, nil
}

// flakyStore reads from an in-memory store but fails every increment.
type flakyStore struct {
	*usage.MemoryStore
	readErr error
}

var errIncrement = errors.New("write timeout")

func (s *flakyStore) GetCurrentUsage(ctx context.Context, userID uuid.UUID) (usage.FeatureUsage, error) {
	if s.readErr != nil {
		return usage.FeatureUsage{}, s.readErr
	}
	return s.MemoryStore.GetCurrentUsage(ctx, userID)
}

func (s *flakyStore) IncrementUsage(context.Context, uuid.UUID, usage.Type, int64) error {
	return errIncrement
}

// errorSink collects failures reported by a usage.Recorder.
type errorSink struct {
	mu   sync.Mutex
	errs []error
}

func (s *errorSink) hook(_ usage.Type, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, err)
}

func (s *errorSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.errs)
}

func okHandler(status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
}

func requestAs(t *testing.T, method, target string, userID uuid.UUID) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if userID != uuid.Nil {
		req = req.WithContext(gate.WithUserID(req.Context(), userID))
	}
	return req
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}
