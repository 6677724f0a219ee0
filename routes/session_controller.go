package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/kuzowebsite/ider-surver/app"
	"github.com/kuzowebsite/ider-surver/catalog"
	"github.com/kuzowebsite/ider-surver/httpx"
	"github.com/kuzowebsite/ider-surver/log"
	"github.com/kuzowebsite/ider-surver/model"
	"github.com/kuzowebsite/ider-surver/session"
	"github.com/kuzowebsite/ider-surver/sink"
	"github.com/pkg/errors"
)

type selectRequest struct {
	QuestionID int  `json:"questionId"`
	OptionID   int  `json:"optionId"`
	Checked    bool `json:"checked"`
}

type customTextRequest struct {
	QuestionID int    `json:"questionId"`
	Text       string `json:"text"`
}

type submitRequest struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func CreateSession(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questions, _ := catalog.Load(r.Context(), app.Store)

		id, s, err := app.Sessions.Create(questions)
		if err != nil {
			httpx.LogInternalError(w, "session.create", err)
			return
		}

		render.Status(r, http.StatusCreated)
		renderView(w, r, id, s)
	}
}

func GetSession(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, s, ok := lookupSession(app, w, r)
		if !ok {
			return
		}
		renderView(w, r, id, s)
	}
}

func DeleteSession(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "sid")
		if !app.Sessions.Delete(id) {
			httpx.LogNotFound(w, "session.delete", id)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func SelectSingle(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, s, ok := lookupSession(app, w, r)
		if !ok {
			return
		}

		req := selectRequest{}
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		if err := s.SelectSingle(req.QuestionID, req.OptionID); err != nil {
			sessionError(w, "session.select", err)
			return
		}
		renderView(w, r, id, s)
	}
}

func ToggleMultiple(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, s, ok := lookupSession(app, w, r)
		if !ok {
			return
		}

		req := selectRequest{}
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		if err := s.ToggleMultiple(req.QuestionID, req.OptionID, req.Checked); err != nil {
			sessionError(w, "session.toggle", err)
			return
		}
		renderView(w, r, id, s)
	}
}

func SetCustomText(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, s, ok := lookupSession(app, w, r)
		if !ok {
			return
		}

		req := customTextRequest{}
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		s.SetCustomText(req.QuestionID, req.Text)
		renderView(w, r, id, s)
	}
}

func Next(app app.App) http.HandlerFunc {
	return transition(app, "session.next", (*session.Session).Next)
}

func Previous(app app.App) http.HandlerFunc {
	return transition(app, "session.previous", (*session.Session).Previous)
}

func Reset(app app.App) http.HandlerFunc {
	return transition(app, "session.reset", (*session.Session).Reset)
}

func transition(app app.App, code string, step func(*session.Session) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, s, ok := lookupSession(app, w, r)
		if !ok {
			return
		}
		if err := step(s); err != nil {
			sessionError(w, code, err)
			return
		}
		renderView(w, r, id, s)
	}
}

// Submit labels the answers against the catalog as it is now and hands
// the submission to the sink.
func Submit(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, s, ok := lookupSession(app, w, r)
		if !ok {
			return
		}

		req := submitRequest{}
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		questions, _ := catalog.Load(r.Context(), app.Store)
		meta := session.Meta{
			Device:    model.NewDevice(req.Width, req.Height),
			UserAgent: r.UserAgent(),
		}
		submission, ack, err := s.Submit(r.Context(), questions, meta, app.Sink)
		if err != nil {
			sessionError(w, "session.submit", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"session":      viewOf(id, s),
			"submission":   submission,
			"savedLocally": ack.SavedLocally(),
		})
	}
}

func lookupSession(app app.App, w http.ResponseWriter, r *http.Request) (string, *session.Session, bool) {
	id := chi.URLParam(r, "sid")
	s, ok := app.Sessions.Get(id)
	if !ok {
		httpx.LogNotFound(w, "session.get", id)
		return "", nil, false
	}
	return id, s, true
}

func viewOf(id string, s *session.Session) session.View {
	v := s.View()
	v.ID = id
	return v
}

func renderView(w http.ResponseWriter, r *http.Request, id string, s *session.Session) {
	render.JSON(w, r, viewOf(id, s))
}

func sessionError(w http.ResponseWriter, code string, err error) {
	switch {
	case errors.Is(err, session.ErrUnknownOption):
		httpx.LogStatusMsg(w, http.StatusUnprocessableEntity, log.DebugLevel, code, "%s", err)
	case errors.Is(err, session.ErrNotAnswered),
		errors.Is(err, session.ErrNotCurrentQuestion),
		errors.Is(err, session.ErrWrongMode),
		errors.Is(err, session.ErrAtFirstQuestion),
		errors.Is(err, session.ErrAtLastQuestion),
		errors.Is(err, session.ErrInvalidState):
		httpx.LogStatusMsg(w, http.StatusConflict, log.DebugLevel, code, "%s", err)
	case errors.Is(err, sink.ErrLocalBufferFull):
		httpx.LogStoreError(w, code, err)
	default:
		httpx.LogInternalError(w, code, err)
	}
}
