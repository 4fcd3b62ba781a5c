package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tazhibayda/townboat/internal/actorset"
	"github.com/tazhibayda/townboat/internal/domain"
	"github.com/tazhibayda/townboat/internal/repo"
	"github.com/tazhibayda/townboat/internal/view"
)

type actionResp struct {
	Outcome     string         `json:"outcome"`
	Error       string         `json:"error,omitempty"`
	NeedsSignIn bool           `json:"needsSignIn,omitempty"`
	Fields      map[string]any `json:"fields,omitempty"`
	err         error
}

func settled(r actorset.Result) actionResp {
	out := outcome(r.Reason)
	out.Fields = r.Fields
	return out
}

func outcome(err error) actionResp {
	if err == nil {
		return actionResp{Outcome: actorset.Success.String()}
	}
	return actionResp{
		Outcome:     actorset.Reverted.String(),
		Error:       err.Error(),
		NeedsSignIn: actorset.Result{Reason: err}.NeedsSignIn(),
		err:         err,
	}
}

// actions routes REST actions through the same table the realtime session uses.
func (h *Handler) actions(who view.Viewer) *view.Dispatcher[actionResp] {
	toggle := func(ctx context.Context, a view.Action) actionResp {
		return settled(h.Mutator.Toggle(ctx, nil, a.Collection, a.ID, who.ID))
	}
	ensure := func(member bool) view.Handler[actionResp] {
		return func(ctx context.Context, a view.Action) actionResp {
			return settled(h.Mutator.Ensure(ctx, nil, domain.ColClubs, a.ID, who.ID, member))
		}
	}
	respond := func(ctx context.Context, a view.Action) actionResp {
		if who.ID == "" {
			return outcome(domain.ErrUnauthenticated)
		}
		return outcome(h.Connections.Respond(ctx, a.ID, who.ID, a.Type))
	}
	return view.NewDispatcher(func(_ view.Action, err error) actionResp { return outcome(err) }).
		On(view.ActionUpvote, toggle).
		On(view.ActionLike, toggle).
		On(view.ActionJoin, ensure(true)).
		On(view.ActionLeave, ensure(false)).
		On(view.ActionVote, func(ctx context.Context, a view.Action) actionResp {
			return settled(h.Mutator.Vote(ctx, nil, a.ID, a.Option, who.ID))
		}).
		On(view.ActionAccept, respond).
		On(view.ActionDecline, respond)
}

// Act godoc
// @Summary Perform an action on a record
// @Description upvote, like, join, leave, vote (?option=), accept, decline
// @Tags actions
// @Security BearerAuth
// @Produce json
// @Param id path string true "record id"
// @Param action path string true "action"
// @Success 200 {object} actionResp
// @Failure 401 {object} actionResp
// @Failure 409 {object} actionResp
// @Router /api/{collection}/{id}/{action} [post]
func (h *Handler) Act(collection string) gin.HandlerFunc {
	return func(c *gin.Context) {
		a := view.Action{Type: c.Param("action"), Collection: collection, ID: c.Param("id")}
		if o := c.Query("option"); o != "" {
			n, err := strconv.Atoi(o)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "option must be a number"})
				return
			}
			a.Option = n
		}
		res := h.actions(viewer(c)).Dispatch(reqCtx(c), a)
		if res.err != nil {
			c.JSON(errorStatus(res.err), res)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

type connectReq struct {
	To string `json:"to"`
}

// Connect godoc
// @Summary Send a connection request
// @Tags connections
// @Security BearerAuth
// @Param payload body connectReq true "recipient user id"
// @Success 201 {object} domain.Connection
// @Router /api/connections [post]
func (h *Handler) Connect(c *gin.Context) {
	var in connectReq
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	conn, err := h.Connections.Request(reqCtx(c), viewer(c), in.To)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, conn)
}

func connectionsQuery(dir, uid string) repo.Query {
	return repo.Query{
		Collection: domain.ColConnections,
		Eq:         map[string]any{dir: uid},
		OrderBy:    "createdAt",
		Desc:       true,
	}
}

// MyConnections lists requests the caller sent or received, grouped by status.
func (h *Handler) MyConnections(c *gin.Context) {
	who := viewer(c)
	dir := "to"
	if c.Query("dir") == "out" {
		dir = "from"
	}
	records, err := h.Store.Find(c.Request.Context(), connectionsQuery(dir, who.ID))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view.Render(view.Input{
		Target: domain.ColConnections, Collection: domain.ColConnections, State: view.StateReady,
		Records: records, Viewer: who, GroupField: "status",
	}))
}

// Bookmarks godoc
// @Summary The caller's bookmarked record ids
// @Tags users
// @Security BearerAuth
// @Success 200 {array} string
// @Router /api/bookmarks [get]
func (h *Handler) ListBookmarks(c *gin.Context) {
	c.JSON(http.StatusOK, h.Bookmarks.List(viewer(c).ID))
}

func (h *Handler) Bookmark(add bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := viewer(c).ID
		if add {
			h.Bookmarks.Add(uid, c.Param("id"))
		} else {
			h.Bookmarks.Remove(uid, c.Param("id"))
		}
		c.JSON(http.StatusOK, h.Bookmarks.List(uid))
	}
}
