package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/worklink/internal/authz"
	"github.com/geocoder89/worklink/internal/config"
	"github.com/geocoder89/worklink/internal/domain/chat"
	"github.com/geocoder89/worklink/internal/http/middlewares"
	"github.com/geocoder89/worklink/internal/utils"
	"github.com/gin-gonic/gin"
)

type ChatStore interface {
	Get(ctx context.Context, chatID string) (chat.Chat, error)
	Messages(ctx context.Context, chatID string, afterSeq int64) ([]chat.Message, error)
	Append(ctx context.Context, nm chat.NewMessage) (chat.Message, error)
	MarkRead(ctx context.Context, chatID, readerID string) (int64, error)
	ListForUser(ctx context.Context, userID string) ([]chat.Summary, error)
}

type ChatsHandler struct {
	repo ChatStore
}

func NewChatsHandler(repo ChatStore) *ChatsHandler {
	return &ChatsHandler{repo: repo}
}

// access reports whether the caller may see chatID and whether the chat row
// exists. A chat that does not exist yet is still guarded by the participants
// its id encodes. A free-form id with no row has no participants at all, so
// it is forbidden like an existing chat the caller is not part of.
func (h *ChatsHandler) access(cctx context.Context, chatID, userID string) (exists bool, err error) {
	c, err := h.repo.Get(cctx, chatID)
	if err == nil {
		return true, authz.Participates(userID, c.Participants)
	}
	if !errors.Is(err, chat.ErrNotFound) {
		return false, err
	}

	if implied := chat.ImpliedParticipants(chatID); implied != nil {
		return false, authz.Participates(userID, implied)
	}
	return false, authz.ErrForbidden
}

func (h *ChatsHandler) List(ctx *gin.Context) {
	userID, _ := middlewares.UserIDFromContext(ctx)

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	items, err := h.repo.ListForUser(cctx, userID)
	if err != nil {
		respondStoreError(ctx, "Could not list chats", err)
		return
	}

	respondList(ctx, items)
}

// Get returns the conversation's messages, optionally only those after the
// ?after cursor.
func (h *ChatsHandler) Get(ctx *gin.Context) {
	userID, _ := middlewares.UserIDFromContext(ctx)
	chatID := ctx.Param("chatId")

	after := ctx.Query("after")
	cursor, err := utils.DecodeMessageCursor(after)
	if err != nil {
		RespondBadRequestCode(ctx, "invalid_cursor", "after is not a valid cursor")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	exists, err := h.access(cctx, chatID, userID)
	if err != nil {
		if errors.Is(err, authz.ErrForbidden) {
			RespondForbidden(ctx)
			return
		}
		respondStoreError(ctx, "Could not fetch chat", err)
		return
	}

	messages := []chat.Message{}
	if exists {
		messages, err = h.repo.Messages(cctx, chatID, cursor.Seq)
		if err != nil {
			respondStoreError(ctx, "Could not fetch chat", err)
			return
		}
	}

	next := after
	if len(messages) > 0 {
		next, err = utils.EncodeMessageCursor(messages[len(messages)-1].Seq)
		if err != nil {
			respondStoreError(ctx, "Could not fetch chat", err)
			return
		}
	}

	ctx.JSON(http.StatusOK, gin.H{
		"chatId":     chatID,
		"items":      messages,
		"count":      len(messages),
		"nextCursor": next,
	})
}

// Send appends a message, creating the chat on first use.
func (h *ChatsHandler) Send(ctx *gin.Context) {
	userID, _ := middlewares.UserIDFromContext(ctx)
	chatID := ctx.Param("chatId")

	var req chat.SendRequest
	if !BindJSON(ctx, &req) {
		return
	}

	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		RespondBadRequest(ctx, "message must not be blank", gin.H{"field": "message"})
		return
	}

	participants := chat.ImpliedParticipants(chatID)
	if participants != nil {
		if err := authz.Participates(userID, participants); err != nil {
			RespondForbidden(ctx)
			return
		}
		if err := authz.Participates(req.ReceiverID, participants); err != nil || req.ReceiverID == userID {
			RespondBadRequest(ctx, "receiverId is not the other participant of this chat", gin.H{"field": "receiverId"})
			return
		}
	} else {
		if req.ReceiverID == userID {
			RespondBadRequest(ctx, "receiverId must be another user", gin.H{"field": "receiverId"})
			return
		}
		participants = []string{userID, req.ReceiverID}
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	m, err := h.repo.Append(cctx, chat.NewMessage{
		ChatID:       chatID,
		Participants: participants,
		SenderID:     userID,
		SenderName:   middlewares.NameFromContext(ctx),
		Message:      req.Message,
	})
	if err != nil {
		if errors.Is(err, chat.ErrNotParticipant) {
			RespondForbidden(ctx)
			return
		}
		respondStoreError(ctx, "Could not send message", err)
		return
	}

	ctx.JSON(http.StatusCreated, m)
}

// MarkRead flags the other participants' messages as read by the caller.
func (h *ChatsHandler) MarkRead(ctx *gin.Context) {
	userID, _ := middlewares.UserIDFromContext(ctx)
	chatID := ctx.Param("chatId")

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	exists, err := h.access(cctx, chatID, userID)
	if err != nil {
		if errors.Is(err, authz.ErrForbidden) {
			RespondForbidden(ctx)
			return
		}
		respondStoreError(ctx, "Could not update chat", err)
		return
	}

	var n int64
	if exists {
		n, err = h.repo.MarkRead(cctx, chatID, userID)
		if err != nil {
			respondStoreError(ctx, "Could not update chat", err)
			return
		}
	}

	ctx.JSON(http.StatusOK, gin.H{
		"chatId":  chatID,
		"updated": n,
	})
}
