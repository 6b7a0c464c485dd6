package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seat-notifier/internal/catalog"
	"seat-notifier/internal/models"
	"seat-notifier/internal/test"
	"seat-notifier/internal/watcher"
	"seat-notifier/pkg/tasks"
)

type purgeCall struct {
	email string
	crn   *int
}

type mockWatcher struct {
	registerErr error
	registered  []int
	purges      []purgeCall
	affected    int64
	scans       int
	scanErr     error
}

func (m *mockWatcher) Register(_ context.Context, crn int, email string) (models.SectionRef, error) {
	if m.registerErr != nil {
		return models.SectionRef{}, m.registerErr
	}
	if email == "" {
		return models.SectionRef{}, watcher.ErrEmptyEmail
	}
	m.registered = append(m.registered, crn)
	return models.SectionRef{Section: models.Section{Sec: "01", CRN: crn, Cap: 30}, CourseTitle: "Data Structures"}, nil
}

func (m *mockWatcher) Purge(_ context.Context, email string, crn *int) (int64, error) {
	m.purges = append(m.purges, purgeCall{email: email, crn: crn})
	return m.affected, nil
}

func (m *mockWatcher) Scan(_ context.Context) (watcher.ScanResult, error) {
	m.scans++
	return watcher.ScanResult{Release: "202309", Matched: 1, Notified: 1, Retired: 1}, m.scanErr
}

func (m *mockWatcher) Release() string { return "202309" }

func router(h *Handlers) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/subscriptions", h.PostSubscription).Methods(http.MethodPost)
	r.HandleFunc("/subscriptions", h.DeleteSubscription).Methods(http.MethodDelete)
	r.HandleFunc("/subscriptions/{crn}", h.DeleteSubscription).Methods(http.MethodDelete)
	r.HandleFunc("/scan", h.PostScan).Methods(http.MethodPost)
	r.HandleFunc("/healthz", h.Healthz).Methods(http.MethodGet)
	return r
}

func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Add("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestPostSubscription(t *testing.T) {
	mw := &mockWatcher{}
	rr := httptest.NewRecorder()

	router(New(mw, nil)).ServeHTTP(rr, postForm("/subscriptions", url.Values{"crn": {"1234"}, "email": {"u@rpi.edu"}}))

	assert.Equal(t, http.StatusCreated, rr.Code)
	var resp subscriptionResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 1234, resp.CRN)
	assert.Equal(t, "Subscribed to Data Structures section 01", resp.Message)
	assert.Equal(t, []int{1234}, mw.registered)
}

func TestPostSubscriptionErrors(t *testing.T) {
	tests := []struct {
		name   string
		form   url.Values
		err    error
		status int
	}{
		{name: "bad crn", form: url.Values{"crn": {"abc"}, "email": {"u@rpi.edu"}}, status: http.StatusBadRequest},
		{name: "missing email", form: url.Values{"crn": {"1234"}}, status: http.StatusBadRequest},
		{name: "unknown section", form: url.Values{"crn": {"999999"}, "email": {"a@x.com"}}, err: &watcher.NotFoundError{SectionID: 999999}, status: http.StatusNotFound},
		{name: "catalog down", form: url.Values{"crn": {"1"}, "email": {"a@x.com"}}, err: &catalog.FetchError{Stage: catalog.StageListing, Err: errors.New("timeout")}, status: http.StatusBadGateway},
		{name: "store down", form: url.Values{"crn": {"1"}, "email": {"a@x.com"}}, err: errors.New("db gone"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mw := &mockWatcher{registerErr: tt.err}
			rr := httptest.NewRecorder()

			router(New(mw, nil)).ServeHTTP(rr, postForm("/subscriptions", tt.form))

			assert.Equal(t, tt.status, rr.Code)
			assert.Empty(t, mw.registered)
		})
	}
}

func TestDeleteSubscriptionScoped(t *testing.T) {
	mw := &mockWatcher{affected: 1}
	rr := httptest.NewRecorder()

	router(New(mw, nil)).ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/subscriptions/1234?email=u@rpi.edu", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, mw.purges, 1)
	assert.Equal(t, "u@rpi.edu", mw.purges[0].email)
	require.NotNil(t, mw.purges[0].crn)
	assert.Equal(t, 1234, *mw.purges[0].crn)
	assert.JSONEq(t, `{"affected":1}`, rr.Body.String())
}

func TestDeleteSubscriptionScopedByQuery(t *testing.T) {
	mw := &mockWatcher{affected: 1}
	rr := httptest.NewRecorder()

	router(New(mw, nil)).ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/subscriptions?email=u@rpi.edu&crn=1234", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, mw.purges, 1)
	assert.Equal(t, "u@rpi.edu", mw.purges[0].email)
	require.NotNil(t, mw.purges[0].crn)
	assert.Equal(t, 1234, *mw.purges[0].crn)
	assert.JSONEq(t, `{"affected":1}`, rr.Body.String())
}

func TestDeleteSubscriptionGlobal(t *testing.T) {
	mw := &mockWatcher{affected: 4}
	rr := httptest.NewRecorder()

	router(New(mw, nil)).ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/subscriptions?email=u@rpi.edu", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, mw.purges, 1)
	assert.Nil(t, mw.purges[0].crn)
	assert.JSONEq(t, `{"affected":4}`, rr.Body.String())
}

func TestDeleteSubscriptionBadCRN(t *testing.T) {
	mw := &mockWatcher{}
	rr := httptest.NewRecorder()

	router(New(mw, nil)).ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/subscriptions/abc?email=u@rpi.edu", nil))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, mw.purges)
}

func TestDeleteSubscriptionBadQueryCRN(t *testing.T) {
	mw := &mockWatcher{}
	rr := httptest.NewRecorder()

	router(New(mw, nil)).ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/subscriptions?email=u@rpi.edu&crn=abc", nil))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, mw.purges)
}

func TestPostScanInline(t *testing.T) {
	mw := &mockWatcher{}
	rr := httptest.NewRecorder()

	router(New(mw, nil)).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/scan", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, mw.scans)
	assert.JSONEq(t, `{"release":"202309","matched":1,"notified":1,"notify_failures":0,"retired":1}`, rr.Body.String())
}

func TestPostScanEnqueues(t *testing.T) {
	mw := &mockWatcher{}
	enqueuer := &test.MockTaskEnqueuer{}
	rr := httptest.NewRecorder()

	router(New(mw, enqueuer)).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/scan", nil))

	assert.Equal(t, http.StatusAccepted, rr.Code)
	assert.Equal(t, 0, mw.scans)
	require.Len(t, enqueuer.EnqueuedTasks, 1)
	assert.Equal(t, tasks.TypeScanCatalog, enqueuer.EnqueuedTasks[0].Type())
}

func TestPostScanEnqueueFailure(t *testing.T) {
	enqueuer := &test.MockTaskEnqueuer{Err: errors.New("redis down")}
	rr := httptest.NewRecorder()

	router(New(&mockWatcher{}, enqueuer)).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/scan", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestHealthz(t *testing.T) {
	rr := httptest.NewRecorder()

	router(New(&mockWatcher{}, nil)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok","release":"202309"}`, rr.Body.String())
}
