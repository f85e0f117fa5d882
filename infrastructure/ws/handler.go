package ws

import (
	"buddychat/auth"
	"buddychat/domain"
	"buddychat/errors"
	"buddychat/services"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Frame is the JSON document pushed for each delivered message.
type Frame struct {
	Position uint64       `json:"position"`
	Message  MessageFrame `json:"message"`
}

type MessageFrame struct {
	ID     string    `json:"id"`
	FromID string    `json:"from_id"`
	ToID   string    `json:"to_id"`
	Text   string    `json:"text"`
	At     time.Time `json:"at"`
}

func NewFrame(d domain.DeliveredMessage) Frame {
	return Frame{
		Position: uint64(d.Position),
		Message: MessageFrame{
			ID:     d.Message.ID.String(),
			FromID: d.Message.FromID.String(),
			ToID:   d.Message.ToID.String(),
			Text:   d.Message.Payload.Text,
			At:     d.Message.At,
		},
	}
}

// Handler serves /ws?counterpart=X&cursor=N: the caller's feed with counterpart,
// history first, then live.
type Handler struct {
	log         *slog.Logger
	tokens      auth.Tokens
	chatService services.IChatService
	upgrader    websocket.Upgrader
}

func NewHandler(log *slog.Logger, tokens auth.Tokens, chatService services.IChatService) *Handler {
	return &Handler{
		log:         log,
		tokens:      tokens,
		chatService: chatService,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, err := h.authenticate(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	cmd, err := subscribeCommand(userID, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := domain.Validate(cmd); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("Upgrade error", "error", err)
		return
	}
	session := NewSession(uuid.NewString(), userID.String(), conn, h.log)
	session.Start()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub, err := h.chatService.Subscribe(ctx, cmd, func(_ context.Context, msg domain.DeliveredMessage) error {
		frame, err := json.Marshal(NewFrame(msg))
		if err != nil {
			return err
		}
		if !session.TrySend(frame) {
			return fmt.Errorf("session %s closed", session.ID)
		}
		return nil
	})
	if err != nil {
		h.log.Error("Subscription refused", "user_id", userID, "error", err)
		session.CloseWithReason(websocket.CloseInternalServerErr, "subscription refused")
		return
	}
	h.log.Info("Connected", "user_id", userID, "counterpart", cmd.Counterpart, "cursor", cmd.Cursor)

	go func() {
		select {
		case <-sub.Done():
			session.Close()
		case <-session.Done():
		}
	}()
	session.ReadLoop()

	sub.Close()
	session.Close()
	h.log.Info("Disconnected", "user_id", userID, "counterpart", cmd.Counterpart)
}

// authenticate accepts the bearer token from the Authorization header or, for
// browsers that cannot set headers on a WebSocket, from the token query parameter.
func (h *Handler) authenticate(r *http.Request) (domain.UserID, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		if token := r.URL.Query().Get("token"); token != "" {
			header = "Bearer " + token
		}
	}
	return h.tokens.Authenticate(header)
}

func subscribeCommand(userID domain.UserID, r *http.Request) (domain.SubscribeCommand, error) {
	cmd := domain.SubscribeCommand{
		Owner:       userID,
		Counterpart: domain.UserID(r.URL.Query().Get("counterpart")),
	}
	if raw := r.URL.Query().Get("cursor"); raw != "" {
		cursor, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return cmd, fmt.Errorf("%w: cursor %q", errors.ErrInvalidCommand, raw)
		}
		cmd.Cursor = domain.Cursor(cursor)
	}
	return cmd, nil
}
