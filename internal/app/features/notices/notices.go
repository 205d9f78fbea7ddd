package notices

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/mozillians/internal/app/features/errors"
	"github.com/dalemusser/mozillians/internal/app/notify"
	"github.com/dalemusser/mozillians/internal/app/system/authz"
	"github.com/dalemusser/mozillians/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type noticeView struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Text      string    `json:"text"`
	GroupURL  string    `json:"group_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type noticesData struct {
	Notices []noticeView `json:"notices"`
}

// ServeNotices lists the viewer's undelivered notices, oldest first. Reading
// does not mark them; the client acknowledges with POST /notices/ack.
// GET /notices/
func (h *Handler) ServeNotices(w http.ResponseWriter, r *http.Request) {
	_, viewerID, _, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Notices.ListUndelivered(ctx, viewerID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list notices failed", err, "A database error occurred.", "/")
		return
	}

	ids := make([]primitive.ObjectID, 0, len(list))
	for _, n := range list {
		ids = append(ids, n.GroupID)
	}
	groups, err := h.Groups.ListByIDs(ctx, ids)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load notice groups failed", err, "A database error occurred.", "/")
		return
	}

	out := noticesData{Notices: make([]noticeView, 0, len(list))}
	for _, n := range list {
		g, found := groups[n.GroupID]
		v := noticeView{
			ID:        n.ID,
			Kind:      n.Kind,
			Text:      notify.NoticeMessage(notify.Kind(n.Kind), g.Name),
			CreatedAt: n.CreatedAt,
		}
		if found {
			v.GroupURL = "/groups/" + g.URL
		}
		out.Notices = append(out.Notices, v)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	_ = json.NewEncoder(w).Encode(out)
}

// HandleAck marks the viewer's undelivered notices as delivered. Only the
// viewer's own notices are touched, whatever ids a client might send.
// POST /notices/ack
func (h *Handler) HandleAck(w http.ResponseWriter, r *http.Request) {
	_, viewerID, _, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Notices.ListUndelivered(ctx, viewerID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list notices failed", err, "A database error occurred.", "/notices/")
		return
	}
	ids := make([]string, len(list))
	for i, n := range list {
		ids[i] = n.ID
	}
	n, err := h.Notices.MarkDelivered(ctx, ids)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "mark notices failed", err, "A database error occurred.", "/notices/")
		return
	}
	h.Log.Debug("notices delivered", zap.String("profile", viewerID.Hex()), zap.Int64("count", n))
	http.Redirect(w, r, "/notices/", http.StatusSeeOther)
}
