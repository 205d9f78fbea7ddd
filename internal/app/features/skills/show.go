package skills

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/mozillians/internal/app/features/errors"
	"github.com/dalemusser/mozillians/internal/app/notify"
	skillstore "github.com/dalemusser/mozillians/internal/app/store/skills"
	"github.com/dalemusser/mozillians/internal/app/system/authz"
	"github.com/dalemusser/mozillians/internal/app/system/paging"
	"github.com/dalemusser/mozillians/internal/app/system/timeouts"
	"github.com/dalemusser/mozillians/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type holderView struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
}

type skillData struct {
	Skill   models.Skill   `json:"skill"`
	InGroup bool           `json:"in_group"`
	Holders []holderView   `json:"people"`
	Page    paging.Page    `json:"page"`
	Flashes []notify.Flash `json:"flashes,omitempty"`
}

func skillPath(url string) string { return "/skills/" + url }

// resolve loads the {url} skill through its aliases, rendering 404 or 500
// when it cannot.
func (h *Handler) resolve(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Skill, bool) {
	sk, err := h.Skills.Resolve(ctx, chi.URLParam(r, "url"))
	if err != nil {
		if errors.Is(err, skillstore.ErrNotFound) {
			uierrors.RenderNotFound(w, r, "Skill not found.")
			return models.Skill{}, false
		}
		h.ErrLog.LogServerError(w, r, "resolve skill failed", err, "A database error occurred.", "/skills/")
		return models.Skill{}, false
	}
	return sk, true
}

// ServeSkill shows a skill and the vouched profiles that hold it.
// GET /skills/{url}
func (h *Handler) ServeSkill(w http.ResponseWriter, r *http.Request) {
	_, viewerID, _, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	sk, ok := h.resolve(ctx, w, r)
	if !ok {
		return
	}
	if sk.URL != chi.URLParam(r, "url") {
		target := skillPath(sk.URL)
		if r.URL.RawQuery != "" {
			target += "?" + r.URL.RawQuery
		}
		http.Redirect(w, r, target, http.StatusMovedPermanently)
		return
	}

	in, err := h.Profiles.HasSkill(ctx, viewerID, sk.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "check skill failed", err, "A database error occurred.", "/skills/")
		return
	}
	total, err := h.Profiles.CountVouchedBySkill(ctx, sk.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count skill holders failed", err, "A database error occurred.", "/skills/")
		return
	}
	pg := paging.Compute(paging.ParsePage(r), total, h.PageSize)
	people, err := h.Profiles.ListVouchedBySkill(ctx, sk.ID, pg.Skip(), pg.Limit())
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list skill holders failed", err, "A database error occurred.", "/skills/")
		return
	}

	holders := make([]holderView, 0, len(people))
	for _, p := range people {
		holders = append(holders, holderView{ID: p.ID.Hex(), FullName: p.FullName})
	}
	writeJSON(w, skillData{
		Skill:   sk,
		InGroup: in,
		Holders: holders,
		Page:    pg,
		Flashes: h.Flash.Pop(w, r),
	})
}

// HandleToggle adds the skill to the viewer's profile, or removes it when
// already present. An old url toggles the skill it now points to.
// POST /skills/{url}/toggle
func (h *Handler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	_, viewerID, _, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	sk, ok := h.resolve(ctx, w, r)
	if !ok {
		return
	}

	added, err := h.Profiles.ToggleSkill(ctx, viewerID, sk.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "toggle skill failed", err, "A database error occurred.", skillPath(sk.URL))
		return
	}
	kind := notify.SkillRemoved
	if added {
		kind = notify.SkillAdded
	}
	h.Log.Info("skill toggled", zap.String("profile", viewerID.Hex()), zap.String("skill", sk.URL), zap.Bool("added", added))
	h.Flash.Add(w, r, kind, sk.Name)
	http.Redirect(w, r, skillPath(sk.URL), http.StatusSeeOther)
}
