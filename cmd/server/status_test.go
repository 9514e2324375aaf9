package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fixsession/internal/session/model"
	"fixsession/internal/session/service"
	"fixsession/internal/session/service/mock"
	"fixsession/pkg/fix"
)

func newTestEngine(t *testing.T) (*gin.Engine, *mock.MockISession) {
	gin.SetMode(gin.TestMode)
	t.Setenv("PROTECT_BASIC", "")
	session := mock.NewMockISession(gomock.NewController(t))
	return NewEngine(session), session
}

func do(engine *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name  string
		phase model.Phase
		want  int
	}{
		{"active", model.Active, http.StatusOK},
		{"logging on", model.LogonPending, http.StatusServiceUnavailable},
		{"terminated", model.Terminated, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, session := newTestEngine(t)
			session.EXPECT().Phase().Return(tt.phase)

			w := do(engine, http.MethodGet, "/health", nil)
			assert.Equal(t, tt.want, w.Code)
			assert.Contains(t, w.Body.String(), string(tt.phase))
		})
	}
}

func TestStatus(t *testing.T) {
	engine, session := newTestEngine(t)
	session.EXPECT().Status().Return(model.Status{
		SessionID:       "FIX.4.2:CLIENT->SERVER",
		Phase:           model.Active,
		NextOutbound:    4,
		InboundExpected: 7,
		PendingResend:   []int{5, 6},
	})

	w := do(engine, http.MethodGet, "/status", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got model.Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 7, got.InboundExpected)
	assert.Equal(t, []int{5, 6}, got.PendingResend)
}

func TestSend(t *testing.T) {
	tests := []struct {
		name   string
		body   interface{}
		err    error
		expect bool
		want   int
	}{
		{
			name:   "accepted",
			body:   model.SendRequest{MsgType: "D", Fields: []model.FieldRequest{{Tag: 11, Value: "ORD-1"}}},
			expect: true,
			want:   http.StatusAccepted,
		},
		{
			name: "missing msg type",
			body: model.SendRequest{Fields: []model.FieldRequest{{Tag: 11, Value: "ORD-1"}}},
			want: http.StatusBadRequest,
		},
		{
			name: "invalid tag",
			body: model.SendRequest{MsgType: "D", Fields: []model.FieldRequest{{Tag: 0, Value: "x"}}},
			want: http.StatusBadRequest,
		},
		{
			name:   "not active",
			body:   model.SendRequest{MsgType: "D"},
			err:    service.ErrNotActive,
			expect: true,
			want:   http.StatusConflict,
		},
		{
			name:   "throttled",
			body:   model.SendRequest{MsgType: "D"},
			err:    service.ErrThrottled,
			expect: true,
			want:   http.StatusTooManyRequests,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, session := newTestEngine(t)
			if tt.expect {
				session.EXPECT().SendApp(gomock.Any(), gomock.Any()).Return(tt.err)
			}
			if tt.err == nil && tt.expect {
				session.EXPECT().Status().Return(model.Status{Phase: model.Active})
			}

			w := do(engine, http.MethodPost, "/session/send", tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestSend_PassesFields(t *testing.T) {
	engine, session := newTestEngine(t)
	session.EXPECT().
		SendApp("D", fix.NewField(11, "ORD-1"), fix.NewField(55, "BTC-USD")).
		Return(nil)
	session.EXPECT().Status().Return(model.Status{})

	w := do(engine, http.MethodPost, "/session/send", model.SendRequest{
		MsgType: "D",
		Fields: []model.FieldRequest{
			{Tag: 11, Value: "ORD-1"},
			{Tag: 55, Value: "BTC-USD"},
		},
	})
	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestLogout(t *testing.T) {
	engine, session := newTestEngine(t)
	session.EXPECT().Logout("maintenance").Return(nil)
	session.EXPECT().Status().Return(model.Status{Phase: model.LogoutPending})

	w := do(engine, http.MethodPost, "/session/logout", model.LogoutRequest{Text: "maintenance"})
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), string(model.LogoutPending))
}

func TestLogout_Protected(t *testing.T) {
	engine, _ := newTestEngine(t)
	t.Setenv("PROTECT_BASIC", "dXNlcjpwYXNz")

	w := do(engine, http.MethodPost, "/session/logout", model.LogoutRequest{})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMetrics(t *testing.T) {
	engine, _ := newTestEngine(t)

	w := do(engine, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
