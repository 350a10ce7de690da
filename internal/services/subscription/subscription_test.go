package subscription

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xqopxcat/food-keeper-sub000/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) UpsertSubscription(ctx context.Context, sub models.PushSubscription) (int, error) {
	args := m.Called(ctx, sub)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) RemoveSubscriptionByEndpoint(ctx context.Context, endpoint string) (int, error) {
	args := m.Called(ctx, endpoint)
	return args.Int(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func subscribeRequest() models.DummySubscription {
	req := models.DummySubscription{
		Endpoint: "https://push.example.com/abc",
	}
	req.Keys.P256dh = "p256dh-key"
	req.Keys.Auth = "auth-key"
	return req
}

func TestSubscriptionService_Subscribe(t *testing.T) {
	disabled := false

	tests := []struct {
		name       string
		req        models.DummySubscription
		setupMocks func(r *RepoMock)
		wantID     int
	}{
		{
			name: "defaults applied to new subscription",
			req:  subscribeRequest(),
			setupMocks: func(r *RepoMock) {
				r.On("UpsertSubscription", mock.Anything, mock.MatchedBy(func(s models.PushSubscription) bool {
					return s.UserID == "user-1" &&
						s.Enabled &&
						s.NotifyBeforeDays == DefaultNotifyBeforeDays &&
						s.NotifyTime == DefaultNotifyTime
				})).Return(5, nil).Once()
			},
			wantID: 5,
		},
		{
			name: "explicit settings are preserved",
			req: func() models.DummySubscription {
				req := subscribeRequest()
				req.Enabled = &disabled
				req.NotifyBeforeDays = 7
				req.NotifyTime = "21:30"
				return req
			}(),
			setupMocks: func(r *RepoMock) {
				r.On("UpsertSubscription", mock.Anything, mock.MatchedBy(func(s models.PushSubscription) bool {
					return !s.Enabled && s.NotifyBeforeDays == 7 && s.NotifyTime == "21:30"
				})).Return(6, nil).Once()
			},
			wantID: 6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			tt.setupMocks(repo)

			service := NewService(repo, newNoopLogger())
			gotID, err := service.Subscribe(context.Background(), "user-1", tt.req)

			require.NoError(t, err)
			assert.Equal(t, tt.wantID, gotID)
			repo.AssertExpectations(t)
		})
	}
}

func TestSubscriptionService_Unsubscribe(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(r *RepoMock)
		wantErr    error
	}{
		{
			name: "successful unsubscribe",
			setupMocks: func(r *RepoMock) {
				r.On("RemoveSubscriptionByEndpoint", mock.Anything, "https://push.example.com/abc").
					Return(1, nil).Once()
			},
		},
		{
			name: "unknown endpoint",
			setupMocks: func(r *RepoMock) {
				r.On("RemoveSubscriptionByEndpoint", mock.Anything, "https://push.example.com/abc").
					Return(0, nil).Once()
			},
			wantErr: ErrSubscriptionNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			tt.setupMocks(repo)

			service := NewService(repo, newNoopLogger())
			err := service.Unsubscribe(context.Background(), "https://push.example.com/abc")

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			repo.AssertExpectations(t)
		})
	}
}
