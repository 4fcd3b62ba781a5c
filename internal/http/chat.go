package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tazhibayda/townboat/internal/chat"
	"github.com/tazhibayda/townboat/internal/domain"
)

type sendReq struct {
	To     string `json:"to"`
	ClubID string `json:"clubId"`
	Text   string `json:"text"`
}

// SendMessage godoc
// @Summary Send a direct or club chat message
// @Tags chat
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body sendReq true "to or clubId, text"
// @Success 201 {object} domain.ChatMessage
// @Failure 403 {object} map[string]string
// @Router /api/chat [post]
func (h *Handler) SendMessage(c *gin.Context) {
	var in sendReq
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	from := viewer(c).ID
	var (
		m   *domain.ChatMessage
		err error
	)
	if in.ClubID != "" {
		m, err = h.Chat.SendClub(reqCtx(c), from, in.ClubID, in.Text)
	} else {
		m, err = h.Chat.SendDirect(reqCtx(c), from, in.To, in.Text)
	}
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

// Thread godoc
// @Summary Read a chat; messages shown to the caller start expiring
// @Tags chat
// @Security BearerAuth
// @Produce json
// @Param with query string false "other participant of a direct chat"
// @Param clubId query string false "club chat"
// @Success 200 {array} domain.ChatMessage
// @Router /api/chat [get]
func (h *Handler) Thread(c *gin.Context) {
	who := viewer(c).ID
	var chatID string
	switch {
	case c.Query("clubId") != "":
		chatID = chat.ClubChatID(c.Query("clubId"))
	case c.Query("with") != "":
		chatID = domain.ChatID(who, c.Query("with"))
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "with or clubId required"})
		return
	}
	limit, _ := strconv.ParseInt(c.Query("limit"), 10, 64)
	msgs, err := h.Chat.Thread(reqCtx(c), who, chatID, limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

// LeaveClubChat deletes what the caller wrote in a club chat.
func (h *Handler) LeaveClubChat(c *gin.Context) {
	n, err := h.Store.PurgeClubMessages(reqCtx(c), c.Param("id"), viewer(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}
