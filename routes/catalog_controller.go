package routes

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/kuzowebsite/ider-surver/app"
	"github.com/kuzowebsite/ider-surver/catalog"
	"github.com/kuzowebsite/ider-surver/httpx"
	"github.com/kuzowebsite/ider-surver/log"
	"github.com/kuzowebsite/ider-surver/model"
	"github.com/kuzowebsite/ider-surver/routes/middlewares"
	"github.com/pkg/errors"
)

type moveRequest struct {
	Direction string `json:"direction"`
}

type optionRequest struct {
	Text string `json:"text"`
}

func editor(app app.App, r *http.Request) *catalog.Editor {
	return app.Editors.Get(r.Context(), middlewares.AdminEmail(r))
}

func renderCatalog(w http.ResponseWriter, r *http.Request, e *catalog.Editor) {
	render.JSON(w, r, map[string]any{
		"questions": e.Questions(),
		"source":    e.Source(),
	})
}

func urlQuestionID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
		return 0, false
	}
	return id, true
}

func catalogError(w http.ResponseWriter, r *http.Request, code string, id int, err error) {
	var invalid *catalog.ValidationError
	switch {
	case errors.As(err, &invalid):
		httpx.LogInvalid(w, r, code, invalid.Messages())
	case errors.Is(err, catalog.ErrQuestionNotFound), errors.Is(err, catalog.ErrOptionNotFound):
		httpx.LogNotFound(w, code, id)
	case errors.Is(err, catalog.ErrLastOption):
		httpx.LogStatusMsg(w, http.StatusConflict, log.DebugLevel, code, "%s", err)
	default:
		httpx.LogInternalError(w, code, err)
	}
}

func GetCatalog(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		renderCatalog(w, r, editor(app, r))
	}
}

func AddQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := model.Question{}
		if err := render.DecodeJSON(r.Body, &q); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		added, err := editor(app, r).Add(q)
		if err != nil {
			catalogError(w, r, "catalog.add", 0, err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, added)
	}
}

func UpdateQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlQuestionID(w, r)
		if !ok {
			return
		}

		q := model.Question{}
		if err := render.DecodeJSON(r.Body, &q); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		q.ID = id

		updated, err := editor(app, r).Update(q)
		if err != nil {
			catalogError(w, r, "catalog.update", id, err)
			return
		}
		render.JSON(w, r, updated)
	}
}

func DeleteQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlQuestionID(w, r)
		if !ok {
			return
		}

		if err := editor(app, r).Delete(id); err != nil {
			catalogError(w, r, "catalog.delete", id, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func DuplicateQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlQuestionID(w, r)
		if !ok {
			return
		}

		c, err := editor(app, r).Duplicate(id)
		if err != nil {
			catalogError(w, r, "catalog.duplicate", id, err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, c)
	}
}

func MoveQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlQuestionID(w, r)
		if !ok {
			return
		}

		req := moveRequest{}
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		e := editor(app, r)
		var err error
		switch req.Direction {
		case "up":
			err = e.MoveUp(id)
		case "down":
			err = e.MoveDown(id)
		default:
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "catalog.move", "direction must be up or down")
			return
		}
		if err != nil {
			catalogError(w, r, "catalog.move", id, err)
			return
		}
		renderCatalog(w, r, e)
	}
}

func AddOption(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlQuestionID(w, r)
		if !ok {
			return
		}

		req := optionRequest{}
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		o, err := editor(app, r).AddOption(id, req.Text)
		if err != nil {
			catalogError(w, r, "catalog.add_option", id, err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, o)
	}
}

func RemoveOption(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlQuestionID(w, r)
		if !ok {
			return
		}
		optionID, err := strconv.Atoi(chi.URLParam(r, "optionId"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.option_id")
			return
		}

		if err := editor(app, r).RemoveOption(id, optionID); err != nil {
			catalogError(w, r, "catalog.remove_option", optionID, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// SaveCatalog overwrites the stored catalog with the admin's working copy.
func SaveCatalog(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := editor(app, r).Persist(r.Context(), app.Store)
		if catalog.IsValidation(err) {
			catalogError(w, r, "catalog.save", 0, err)
			return
		}
		if err != nil {
			httpx.LogStoreError(w, "store.save_catalog", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func ReloadCatalog(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e := editor(app, r)
		e.Reload(r.Context(), app.Store)
		renderCatalog(w, r, e)
	}
}
