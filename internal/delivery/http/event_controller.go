package http

import (
	"context"
	"time"

	"github.com/ferdian3456/kinfeed/internal/usecase"
	"github.com/ferdian3456/kinfeed/internal/util"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	eventPingInterval = 30 * time.Second
	eventPongWait     = 2 * eventPingInterval
	eventWriteWait    = 5 * time.Second
)

type EventController struct {
	EventUsecase *usecase.EventUsecase
	Log          *zap.Logger
}

func NewEventController(eventUsecase *usecase.EventUsecase, zap *zap.Logger) *EventController {
	return &EventController{
		EventUsecase: eventUsecase,
		Log:          zap,
	}
}

// Upgrade rejects plain HTTP requests and unknown posts before the protocol switch.
func (controller *EventController) Upgrade(ctx *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(ctx) {
		return fiber.ErrUpgradeRequired
	}

	postId, err := controller.EventUsecase.CheckPost(ctx.UserContext(), ctx.Params("postId"))
	if err != nil {
		return util.SendUsecaseError(ctx, controller.Log, err)
	}

	ctx.Locals("postId", postId)

	return ctx.Next()
}

func (controller *EventController) Stream() fiber.Handler {
	return websocket.New(controller.stream)
}

func (controller *EventController) stream(conn *websocket.Conn) {
	postId := conn.Locals("postId").(uuid.UUID)
	log := controller.Log.With(zap.String("postId", postId.String()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubsub, err := controller.EventUsecase.Subscribe(ctx, postId)
	if err != nil {
		log.Error("failed to subscribe to post events", zap.Error(err))
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "subscribe failed"))
		return
	}
	defer pubsub.Close()

	// Clients never send data, reading only notices when they go away. Each pong moves the
	// read deadline, a client that stops answering pings is dropped.
	_ = conn.SetReadDeadline(time.Now().Add(eventPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(eventPongWait))
	})

	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	defer func() {
		_ = conn.Close()
		<-readerDone
	}()

	log.Debug("event stream opened")

	ticker := time.NewTicker(eventPingInterval)
	defer ticker.Stop()

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			log.Debug("event stream closed")
			return
		case <-ticker.C:
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(eventWriteWait))
			if err != nil {
				return
			}
		case message, ok := <-messages:
			if !ok {
				return
			}

			_ = conn.SetWriteDeadline(time.Now().Add(eventWriteWait))
			err := conn.WriteMessage(websocket.TextMessage, []byte(message.Payload))
			if err != nil {
				log.Debug("failed to write event", zap.Error(err))
				return
			}
		}
	}
}
