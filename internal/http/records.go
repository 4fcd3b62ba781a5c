package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tazhibayda/townboat/internal/domain"
	"github.com/tazhibayda/townboat/internal/repo"
	"github.com/tazhibayda/townboat/internal/view"
)

// publicLists are the collections readable over REST and the extra
// equality parameters each accepts.
var publicLists = map[string][]string{
	domain.ColBusinesses: {"ownerId"},
	domain.ColDeals:      {"businessId"},
	domain.ColPosts:      {"authorId"},
	domain.ColComments:   {"postId", "parentId"},
	domain.ColPolls:      nil,
	domain.ColClubs:      nil,
}

// defaultOrder is the field lists sort by, newest or highest first.
var defaultOrder = map[string]string{
	domain.ColBusinesses: "upvoteCount",
	domain.ColDeals:      "createdAt",
	domain.ColPosts:      "createdAt",
	domain.ColComments:   "createdAt",
	domain.ColPolls:      "createdAt",
	domain.ColClubs:      "memberCount",
}

// List godoc
// @Summary List or fetch records of a collection
// @Description ?id= returns one record; town, category, status and search filter the list.
// @Tags records
// @Produce json
// @Param id query string false "record id"
// @Param town query string false "town"
// @Param category query string false "category"
// @Param status query string false "status"
// @Param search query string false "free text, matched locally"
// @Param limit query int false "limit"
// @Success 200 {object} view.View
// @Router /api/{collection} [get]
func (h *Handler) List(collection string) gin.HandlerFunc {
	return func(c *gin.Context) {
		who := viewer(c)
		if id := c.Query("id"); id != "" {
			h.detail(c, collection, id, who)
			return
		}

		f := view.Filters{
			Town:     c.Query("town"),
			Category: c.Query("category"),
			Status:   c.Query("status"),
			Search:   c.Query("search"),
		}
		q := repo.Query{
			Collection: collection,
			Eq:         f.Remote(),
			OrderBy:    defaultOrder[collection],
			Desc:       c.Query("order") != "asc",
		}
		for _, p := range publicLists[collection] {
			if v := c.Query(p); v != "" {
				q.Eq[p] = v
			}
		}
		if collection == domain.ColBusinesses && !who.Admin {
			// unapproved listings are visible to admins only
			q.Eq["status"] = domain.StatusApproved
		}
		if n, err := strconv.ParseInt(c.Query("limit"), 10, 64); err == nil {
			q.Limit = n
		}

		records, err := h.Store.Find(c.Request.Context(), q)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, view.Render(view.Input{
			Target:     collection,
			Collection: collection,
			State:      view.StateReady,
			Records:    records,
			Filters:    f,
			Viewer:     who,
			GroupField: groupField(collection, who),
		}))
	}
}

func groupField(collection string, who view.Viewer) string {
	if collection == domain.ColBusinesses && who.Admin {
		return "status"
	}
	return ""
}

func (h *Handler) detail(c *gin.Context, collection, id string, who view.Viewer) {
	rec, err := h.Store.GetRecord(c.Request.Context(), collection, id)
	if err != nil {
		fail(c, err)
		return
	}
	if collection == domain.ColBusinesses && rec.String("status") != domain.StatusApproved &&
		!who.Admin && rec.String("ownerId") != who.ID {
		fail(c, domain.ErrNotFound)
		return
	}
	v := view.Render(view.Input{
		Target: collection, Collection: collection, State: view.StateReady,
		Records: []domain.Record{*rec}, Viewer: who,
	})
	c.JSON(http.StatusOK, v.Items[0])
}

// create binds a typed payload and hands it to a service constructor.
func create[T any](fn func(ctx context.Context, who view.Viewer, doc *T) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		var doc T
		if err := c.ShouldBindJSON(&doc); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		if err := fn(reqCtx(c), viewer(c), &doc); err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, doc)
	}
}

// Delete godoc
// @Summary Delete a record the caller owns
// @Tags records
// @Security BearerAuth
// @Param id path string true "record id"
// @Success 204
// @Failure 403 {object} map[string]string
// @Router /api/{collection}/{id} [delete]
func (h *Handler) Delete(collection string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.Records.Delete(reqCtx(c), collection, c.Param("id"), viewer(c)); err != nil {
			fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

type moderateReq struct {
	Status string `json:"status"`
}

// Moderate godoc
// @Summary Approve or reject a business listing
// @Tags admin
// @Security BearerAuth
// @Param id path string true "business id"
// @Param payload body moderateReq true "status"
// @Success 204
// @Failure 403 {object} map[string]string
// @Router /api/admin/businesses/{id}/status [post]
func (h *Handler) Moderate(c *gin.Context) {
	var in moderateReq
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if err := h.Records.Moderate(reqCtx(c), viewer(c), c.Param("id"), strings.ToLower(in.Status)); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Leaderboard godoc
// @Summary Top referrers
// @Tags users
// @Produce json
// @Success 200 {array} domain.Record
// @Router /api/leaderboard [get]
func (h *Handler) Leaderboard(c *gin.Context) {
	users, err := h.Store.Leaderboard(c.Request.Context(), 20)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view.Rank(users, "referrals", 10))
}

// Notifications godoc
// @Summary The caller's notifications, newest first
// @Tags users
// @Security BearerAuth
// @Produce json
// @Success 200 {array} domain.Record
// @Router /api/notifications [get]
func (h *Handler) Notifications(c *gin.Context) {
	notes, err := h.Store.ListNotifications(c.Request.Context(), viewer(c).ID, 50)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, notes)
}
