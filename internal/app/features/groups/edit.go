package groups

import (
	"net/http"
	"strings"

	"github.com/dalemusser/mozillians/internal/app/membership"
	"github.com/dalemusser/mozillians/internal/app/notify"
	"github.com/dalemusser/mozillians/internal/app/policy/grouppolicy"
	"github.com/dalemusser/mozillians/internal/app/system/inputval"
	"github.com/dalemusser/mozillians/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// groupForm is the submitted group form before it becomes a GroupInput.
type groupForm struct {
	Name        string `validate:"required,max=50" label:"Name"`
	Description string `validate:"max=10000" label:"Description"`
	IRCChannel  string `validate:"max=63" label:"IRC channel"`
	Website     string `validate:"optionalurl,max=200" label:"Website"`
	Wiki        string `validate:"optionalurl,max=200" label:"Wiki"`
	Accepting   string `validate:"oneof=yes by_request no" label:"Accepting new members"`
	Curator     string `validate:"objectid" label:"Curator"`
}

type editData struct {
	Group      models.Group   `json:"group"`
	Superuser  bool           `json:"superuser_fields"`
	Accepting  []string       `json:"accepting_choices"`
	FormAction string         `json:"form_action"`
	Flashes    []notify.Flash `json:"flashes,omitempty"`
}

func formBool(r *http.Request, name string) bool {
	switch strings.ToLower(strings.TrimSpace(r.PostForm.Get(name))) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

// parseGroupForm reads the group form. Superuser-only fields are read only
// for superusers; the service ignores them for everyone else anyway.
func parseGroupForm(r *http.Request, actor grouppolicy.Actor) (membership.GroupInput, *inputval.Result) {
	f := groupForm{
		Name:        r.PostForm.Get("name"),
		Description: r.PostForm.Get("description"),
		IRCChannel:  r.PostForm.Get("irc_channel"),
		Website:     r.PostForm.Get("website"),
		Wiki:        r.PostForm.Get("wiki"),
		Accepting:   strings.TrimSpace(r.PostForm.Get("accepting_new_members")),
		Curator:     strings.TrimSpace(r.PostForm.Get("curator")),
	}
	res := inputval.Validate(f)

	in := membership.GroupInput{
		Name:                f.Name,
		Description:         f.Description,
		IRCChannel:          f.IRCChannel,
		Website:             f.Website,
		Wiki:                f.Wiki,
		AcceptingNewMembers: f.Accepting,
		MembersCanLeave:     formBool(r, "members_can_leave"),
	}
	if actor.IsSuperuser {
		visible := formBool(r, "visible")
		fa := formBool(r, "functional_area")
		in.Visible = &visible
		in.FunctionalArea = &fa
		if _, sent := r.PostForm["curator"]; sent {
			if f.Curator == "" {
				in.ClearCurator = true
			} else if id, err := primitive.ObjectIDFromHex(f.Curator); err == nil {
				in.CuratorID = &id
			}
		}
	}
	return in, res
}

// HandleCreateGroup creates a group curated by the viewer.
// POST /groups/
func (h *Handler) HandleCreateGroup(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.Flash.Add(w, r, notify.InvalidGroupInput)
		http.Redirect(w, r, membership.IndexPath, http.StatusSeeOther)
		return
	}
	in, v := parseGroupForm(r, actor)
	if v.HasErrors() {
		h.Log.Debug("group form rejected", zap.String("reason", v.All()))
		h.Flash.Add(w, r, notify.InvalidGroupInput)
		http.Redirect(w, r, membership.IndexPath, http.StatusSeeOther)
		return
	}

	ctx, cancel := actionContext(r)
	defer cancel()

	g, res, err := h.Svc.CreateGroup(ctx, actor, in)
	if err == nil {
		h.Log.Info("group created", zap.String("actor", actor.ProfileID.Hex()), zap.String("url", g.URL))
	}
	h.finish(w, r, res, err, "create group failed")
}

// ServeEditGroup returns the edit form for a group.
// GET /groups/{url}/edit
func (h *Handler) ServeEditGroup(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	ctx, cancel := actionContext(r)
	defer cancel()

	g, ok := h.loadGroupByURL(ctx, w, r)
	if !ok {
		return
	}
	if err := grouppolicy.CanEdit(g, actor); err != nil {
		h.Flash.Add(w, r, notify.EditForbidden)
		http.Redirect(w, r, membership.GroupPath(g.URL), http.StatusSeeOther)
		return
	}

	writeJSON(w, editData{
		Group:      g,
		Superuser:  actor.IsSuperuser,
		Accepting:  []string{models.AcceptingYes, models.AcceptingByRequest, models.AcceptingNo},
		FormAction: membership.GroupPath(g.URL) + "/edit",
		Flashes:    h.Flash.Pop(w, r),
	})
}

// HandleEditGroup saves the edit form.
// POST /groups/{url}/edit
func (h *Handler) HandleEditGroup(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	ctx, cancel := actionContext(r)
	defer cancel()

	g, ok := h.loadGroupByURL(ctx, w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.Flash.Add(w, r, notify.InvalidGroupInput)
		http.Redirect(w, r, membership.GroupPath(g.URL)+"/edit", http.StatusSeeOther)
		return
	}
	in, v := parseGroupForm(r, actor)
	if v.HasErrors() && grouppolicy.CanEdit(g, actor) == nil {
		h.Log.Debug("group form rejected", zap.String("group", g.URL), zap.String("reason", v.All()))
		h.Flash.Add(w, r, notify.InvalidGroupInput)
		http.Redirect(w, r, membership.GroupPath(g.URL)+"/edit", http.StatusSeeOther)
		return
	}

	res, err := h.Svc.UpdateGroup(ctx, g, actor, in)
	h.finish(w, r, res, err, "update group failed")
}
