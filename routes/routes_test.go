package routes

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kuzowebsite/ider-surver/app"
	"github.com/kuzowebsite/ider-surver/config"
	"github.com/kuzowebsite/ider-surver/database"
	"github.com/kuzowebsite/ider-surver/httpx"
	"github.com/kuzowebsite/ider-surver/model"
	"github.com/kuzowebsite/ider-surver/session"
	"github.com/kuzowebsite/ider-surver/store"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "correct horse"
)

var testCatalog = []model.Question{
	{
		ID:          1,
		Text:        "Colour?",
		Type:        model.Single,
		Options:     []model.Option{{ID: 1, Text: "Red"}, {ID: 2, Text: "Blue"}},
		AllowCustom: true,
	},
	{
		ID:      2,
		Text:    "Pets?",
		Type:    model.Multiple,
		Options: []model.Option{{ID: 1, Text: "Cat"}, {ID: 2, Text: "Dog"}},
	},
}

type fixture struct {
	app     app.App
	memory  *store.Memory
	handler http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "routes.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, httpx.SeedAdmin(context.Background(), db, adminEmail, adminPassword))

	m := store.NewMemory()
	require.NoError(t, m.SaveCatalog(context.Background(), testCatalog))

	cfg := config.Config{
		TokenSecret:   "test-secret",
		TokenTTL:      time.Minute,
		RefreshTTL:    time.Hour,
		SubmitTimeout: time.Second,
		LocalBuffer:   10,
		SessionTTL:    time.Hour,
		StoreParams:   config.StoreParams{DatabaseURL: "memory:", ProjectID: "test"},
	}
	a := app.New(db, m, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go a.Hub.Run(ctx)

	return &fixture{app: a, memory: m, handler: Wire(a)}
}

func (f *fixture) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("content-type", "application/json")
	req.Header.Set("user-agent", "routes-test")
	if token != "" {
		req.Header.Set("authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) login(t *testing.T) string {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
	req.SetBasicAuth(adminEmail, adminPassword)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (f *fixture) answerAll(t *testing.T) string {
	t.Helper()

	rec := f.do(t, http.MethodPost, "/api/sessions", nil, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[session.View](t, rec).ID

	rec = f.do(t, http.MethodPost, "/api/sessions/"+id+"/select", map[string]int{"questionId": 1, "optionId": 3}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = f.do(t, http.MethodPost, "/api/sessions/"+id+"/custom", map[string]any{"questionId": 1, "text": "Teal"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = f.do(t, http.MethodPost, "/api/sessions/"+id+"/next", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = f.do(t, http.MethodPost, "/api/sessions/"+id+"/toggle", map[string]any{"questionId": 2, "optionId": 2, "checked": true}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	return id
}

func TestSurveyFlow(t *testing.T) {
	f := newFixture(t)
	id := f.answerAll(t)

	view := decode[session.View](t, f.do(t, http.MethodGet, "/api/sessions/"+id, nil, ""))
	assert.True(t, view.CanSubmit)
	assert.Equal(t, float64(100), view.Progress)

	rec := f.do(t, http.MethodPost, "/api/sessions/"+id+"/submit", map[string]int{"width": 390, "height": 844}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decode[struct {
		Session      session.View     `json:"session"`
		Submission   model.Submission `json:"submission"`
		SavedLocally bool             `json:"savedLocally"`
	}](t, rec)
	assert.False(t, resp.SavedLocally)
	assert.Equal(t, session.Submitted, resp.Session.State)

	stored, err := f.memory.ListSubmissions(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "routes-test", stored[0].UserAgent)
	assert.True(t, stored[0].Device.IsMobile)
	assert.Equal(t, []model.AnswerRecord{{OptionID: 3, Text: model.DefaultCustomLabel, CustomText: "Teal"}}, stored[0].Answers[1].Records)
	assert.Equal(t, []model.AnswerRecord{{OptionID: 2, Text: "Dog"}}, stored[0].Answers[2].Records)

	rec = f.do(t, http.MethodPost, "/api/sessions/"+id+"/reset", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decode[session.View](t, rec).Index)

	rec = f.do(t, http.MethodDelete, "/api/sessions/"+id, nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = f.do(t, http.MethodGet, "/api/sessions/"+id, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionErrors(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/sessions", nil, "")
	id := decode[session.View](t, rec).ID

	rec = f.do(t, http.MethodPost, "/api/sessions/"+id+"/next", nil, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = f.do(t, http.MethodPost, "/api/sessions/"+id+"/previous", nil, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = f.do(t, http.MethodPost, "/api/sessions/"+id+"/select", map[string]int{"questionId": 1, "optionId": 9}, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	rec = f.do(t, http.MethodPost, "/api/sessions/"+id+"/submit", map[string]int{}, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/sessions/nope/next", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmitFallsBackLocally(t *testing.T) {
	f := newFixture(t)
	id := f.answerAll(t)
	f.memory.SetError(errors.New("offline"))

	rec := f.do(t, http.MethodPost, "/api/sessions/"+id+"/submit", map[string]int{"width": 1280, "height": 800}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"savedLocally":true`)

	token := f.login(t)
	rec = f.do(t, http.MethodGet, "/api/admin/submissions/local", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	local := decode[struct {
		Items []struct {
			ID  string `json:"id"`
			Age string `json:"age"`
		} `json:"items"`
		Total int `json:"total"`
	}](t, rec)
	require.Equal(t, 1, local.Total)
	assert.Equal(t, "local-1", local.Items[0].ID)
	assert.NotEmpty(t, local.Items[0].Age)

	rec = f.do(t, http.MethodGet, "/api/admin/submissions", nil, token)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestAuth(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/admin/stats", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
	req.SetBasicAuth(adminEmail, "wrong")
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid email or password")

	token := f.login(t)
	rec = f.do(t, http.MethodGet, "/api/admin/stats", nil, token)
	assert.Equal(t, http.StatusOK, rec.Code)

	// the dashboard pages send unauthenticated browsers to the login page
	rec = f.do(t, http.MethodGet, "/admin/", nil, "")
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/login?goto=%2Fadmin%2F", rec.Header().Get("location"))
}

func TestResultsAndExport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	for i, optionID := range []int{2, 2, 1} {
		_, err := f.memory.PushSubmission(ctx, model.Submission{
			Answers: map[int]model.Answer{
				1: {QuestionText: "Colour?", Type: model.Single, Records: []model.AnswerRecord{{OptionID: optionID, Text: testCatalog[0].Options[optionID-1].Text}}},
			},
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}
	token := f.login(t)

	rec := f.do(t, http.MethodGet, "/api/admin/results/1", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	results := decode[struct {
		TotalResponses int `json:"totalResponses"`
		Rows           []struct {
			OptionID   int    `json:"optionId"`
			Count      int    `json:"count"`
			Percentage string `json:"percentage"`
		} `json:"rows"`
	}](t, rec)
	assert.Equal(t, 3, results.TotalResponses)
	require.Len(t, results.Rows, 2)
	assert.Equal(t, 2, results.Rows[0].OptionID)
	assert.Equal(t, "66.7%", results.Rows[0].Percentage)
	assert.Equal(t, "33.3%", results.Rows[1].Percentage)

	rec = f.do(t, http.MethodGet, "/api/admin/results/1?order=sideways", nil, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = f.do(t, http.MethodGet, "/api/admin/results/42", nil, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/admin/submissions?page=1&mobile=true", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[struct {
		PerPage int `json:"perPage"`
		Total   int `json:"total"`
	}](t, rec)
	assert.Equal(t, 5, page.PerPage)
	assert.Equal(t, 3, page.Total)

	rec = f.do(t, http.MethodGet, "/api/admin/export.csv", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("content-disposition"), "survey_results_")
	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"ID", "Timestamp", "Colour?", "Pets?"}, records[0])
	// newest first
	assert.Equal(t, []string{"Red", "No answer"}, records[1][2:])
}

func TestCatalogEditing(t *testing.T) {
	f := newFixture(t)
	token := f.login(t)

	rec := f.do(t, http.MethodPost, "/api/admin/catalog/questions", model.Question{Type: model.Single, Options: []model.Option{{Text: "x"}}}, token)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "question text must not be empty")

	rec = f.do(t, http.MethodPost, "/api/admin/catalog/questions", model.Question{Text: "Age?", Type: model.Single, Options: []model.Option{{Text: "Young"}}}, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, 3, decode[model.Question](t, rec).ID)

	rec = f.do(t, http.MethodPost, "/api/admin/catalog/questions/3/duplicate", nil, token)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Age? (copy)", decode[model.Question](t, rec).Text)

	rec = f.do(t, http.MethodPost, "/api/admin/catalog/questions/4/move", map[string]string{"direction": "up"}, token)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = f.do(t, http.MethodPost, "/api/admin/catalog/questions/4/move", map[string]string{"direction": "left"}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/admin/catalog/questions/3/options/1", nil, token)
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = f.do(t, http.MethodPost, "/api/admin/catalog/questions/3/options", map[string]string{"text": "Old"}, token)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = f.do(t, http.MethodPut, "/api/admin/catalog/questions/9", model.Question{Text: "x", Type: model.Single, Options: []model.Option{{Text: "y"}}}, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = f.do(t, http.MethodDelete, "/api/admin/catalog/questions/1", nil, token)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// nothing reaches the store before a save
	rec = f.do(t, http.MethodGet, "/api/questions", nil, "")
	assert.Len(t, decode[struct {
		Questions []model.Question `json:"questions"`
	}](t, rec).Questions, 2)

	rec = f.do(t, http.MethodPost, "/api/admin/catalog/save", nil, token)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/api/questions", nil, "")
	saved := decode[struct {
		Questions []model.Question `json:"questions"`
		Source    string           `json:"source"`
	}](t, rec)
	assert.Equal(t, "store", saved.Source)
	ids := []int{}
	for _, q := range saved.Questions {
		ids = append(ids, q.ID)
	}
	assert.Equal(t, []int{2, 4, 3}, ids)

	f.memory.SetError(errors.New("read only"))
	rec = f.do(t, http.MethodPost, "/api/admin/catalog/save", nil, token)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestSetup(t *testing.T) {
	f := newFixture(t)
	token := f.login(t)

	rec := f.do(t, http.MethodGet, "/api/admin/setup", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	setup := decode[struct {
		EnvText string `json:"envText"`
		Store   string `json:"store"`
	}](t, rec)
	assert.Equal(t, "QSURVEY_DATABASE_URL=memory:\nQSURVEY_PROJECT_ID=test\n", setup.EnvText)
	assert.Equal(t, "connected", setup.Store)

	rec = f.do(t, http.MethodPost, "/api/admin/setup/env", config.StoreParams{APIKey: "k", AppID: "a"}, token)
	require.Equal(t, http.StatusOK, rec.Code)
	env := decode[struct {
		EnvText string   `json:"envText"`
		Missing []string `json:"missing"`
	}](t, rec)
	assert.Equal(t, "QSURVEY_API_KEY=k\nQSURVEY_APP_ID=a\n", env.EnvText)
	assert.Len(t, env.Missing, 6)
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	f.memory.SetError(errors.New("down"))
	rec = f.do(t, http.MethodGet, "/api/health", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "down"))
}
