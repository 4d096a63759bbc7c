package httptransport

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/NastyaGoryachaya/crypto-converter/internal/domain"
	"github.com/NastyaGoryachaya/crypto-converter/internal/ports/errcode"
	"github.com/NastyaGoryachaya/crypto-converter/internal/service/converter"
)

// WidgetStore — смонтированные виджеты по id сессии
type WidgetStore interface {
	Mount(in domain.ConversionInput) (string, *converter.Widget)
	Get(id string) (*converter.Widget, error)
	Touch(id string)
	Unmount(id string) error
}

// Amount — сумма из JSON: принимаем и строку "2.5", и число 2.5.
// Валидации нет, число разбирается только при отображении.
type Amount string

func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = Amount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("amount must be a string or a number: %w", err)
	}
	*a = Amount(n.String())
	return nil
}

// PatchRequest — тело PATCH /api/widgets/:id и POST /api/widgets
type PatchRequest struct {
	Amount   *Amount `json:"amount,omitempty"`
	Crypto   *string `json:"crypto,omitempty"`
	Currency *string `json:"currency,omitempty"`
}

func (r PatchRequest) toPatch() (converter.Patch, error) {
	var p converter.Patch
	if r.Amount != nil {
		s := string(*r.Amount)
		p.Amount = &s
	}
	if r.Crypto != nil {
		c, err := domain.ParseCryptoID(*r.Crypto)
		if err != nil {
			return converter.Patch{}, err
		}
		p.Crypto = &c
	}
	if r.Currency != nil {
		c, err := domain.ParseCurrencyCode(*r.Currency)
		if err != nil {
			return converter.Patch{}, err
		}
		p.Currency = &c
	}
	return p, nil
}

// WidgetResponse — DTO ответа: id сессии и текущее представление
type WidgetResponse struct {
	ID   string         `json:"id"`
	View converter.View `json:"view"`
}

// WidgetHandler — HTTP-handler виджета конвертера.
type WidgetHandler struct {
	logger       *slog.Logger
	store        WidgetStore
	location     *time.Location
	upgrader     websocket.Upgrader
	pingInterval time.Duration
}

func NewWidgetHandler(logger *slog.Logger, store WidgetStore, location *time.Location) *WidgetHandler {
	if logger == nil {
		log.Fatal("nil logger")
	}
	if store == nil {
		log.Fatal("nil store")
	}
	if location == nil {
		location = time.UTC
	}
	return &WidgetHandler{
		logger:   logger,
		store:    store,
		location: location,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		pingInterval: 30 * time.Second,
	}
}

type router interface {
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	PATCH(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	DELETE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

func (h *WidgetHandler) RegisterRoutes(r router) {
	r.GET("/", h.Page)
	r.GET("/api/options", h.GetOptions)
	r.POST("/api/widgets", h.CreateWidget)
	r.GET("/api/widgets/:id", h.GetWidget)
	r.PATCH("/api/widgets/:id", h.UpdateWidget)
	r.DELETE("/api/widgets/:id", h.DeleteWidget)
	r.GET("/api/widgets/:id/ws", h.Stream)
}

// Page — HTML-страница с виджетом; на каждый заход монтируется новый виджет
func (h *WidgetHandler) Page(c echo.Context) error {
	id, w := h.store.Mount(domain.DefaultInput())
	return c.Render(http.StatusOK, pageTemplate, pageData{
		ID:      id,
		Options: converter.Options(),
		View:    converter.Present(w.Snapshot(), h.locale(c)),
	})
}

func (h *WidgetHandler) GetOptions(c echo.Context) error {
	return c.JSON(http.StatusOK, converter.Options())
}

func (h *WidgetHandler) CreateWidget(c echo.Context) error {
	// пустое тело — виджет по умолчанию
	var req PatchRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return h.writeError(c, "CreateWidget", fmt.Errorf("%w: %w", ErrBadRequest, err))
	}
	patch, err := req.toPatch()
	if err != nil {
		return h.writeError(c, "CreateWidget", err)
	}

	in := domain.DefaultInput()
	if patch.Amount != nil {
		in = in.WithAmount(*patch.Amount)
	}
	if patch.Crypto != nil {
		in = in.WithCrypto(*patch.Crypto)
	}
	if patch.Currency != nil {
		in = in.WithCurrency(*patch.Currency)
	}

	id, w := h.store.Mount(in)
	h.logger.Debug("widget created", slog.String("id", id))
	return c.JSON(http.StatusCreated, WidgetResponse{
		ID:   id,
		View: converter.Present(w.Snapshot(), h.locale(c)),
	})
}

func (h *WidgetHandler) GetWidget(c echo.Context) error {
	id := c.Param("id")
	w, err := h.store.Get(id)
	if err != nil {
		return h.writeError(c, "GetWidget", err)
	}
	return c.JSON(http.StatusOK, WidgetResponse{
		ID:   id,
		View: converter.Present(w.Snapshot(), h.locale(c)),
	})
}

// UpdateWidget — меняет сумму/монету/валюту. Ответ содержит новое
// представление сразу; новые курс и история придут через websocket.
func (h *WidgetHandler) UpdateWidget(c echo.Context) error {
	id := c.Param("id")
	w, err := h.store.Get(id)
	if err != nil {
		return h.writeError(c, "UpdateWidget", err)
	}

	var req PatchRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return h.writeError(c, "UpdateWidget", fmt.Errorf("%w: %w", ErrBadRequest, err))
	}
	patch, err := req.toPatch()
	if err != nil {
		return h.writeError(c, "UpdateWidget", err)
	}

	st := w.Apply(patch)
	return c.JSON(http.StatusOK, WidgetResponse{
		ID:   id,
		View: converter.Present(st, h.locale(c)),
	})
}

func (h *WidgetHandler) DeleteWidget(c echo.Context) error {
	if err := h.store.Unmount(c.Param("id")); err != nil {
		return h.writeError(c, "DeleteWidget", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Stream — websocket: отправляет представление при каждом изменении состояния
func (h *WidgetHandler) Stream(c echo.Context) error {
	id := c.Param("id")
	w, err := h.store.Get(id)
	if err != nil {
		return h.writeError(c, "Stream", err)
	}
	loc := h.locale(c)

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade уже ответил клиенту
		h.logger.Debug("websocket upgrade failed", slog.String("id", id), slog.String("error", err.Error()))
		return nil
	}
	defer conn.Close()

	updates, unsubscribe := w.Subscribe()
	defer unsubscribe()

	// читаем только чтобы заметить закрытие со стороны клиента
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := h.writeView(conn, converter.Present(w.Snapshot(), loc)); err != nil {
		return nil
	}

	ping := time.NewTicker(h.pingInterval)
	defer ping.Stop()

	for {
		select {
		case st, ok := <-updates:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "widget unmounted"),
					time.Now().Add(time.Second))
				return nil
			}
			h.store.Touch(id)
			if err := h.writeView(conn, converter.Present(st, loc)); err != nil {
				h.logger.Debug("websocket write failed", slog.String("id", id), slog.String("error", err.Error()))
				return nil
			}
		case <-ping.C:
			h.store.Touch(id)
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return nil
			}
		case <-gone:
			return nil
		}
	}
}

func (h *WidgetHandler) writeView(conn *websocket.Conn, v converter.View) error {
	if err := conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
		return err
	}
	return conn.WriteJSON(v)
}

func (h *WidgetHandler) locale(c echo.Context) converter.Locale {
	return converter.ResolveLocale(c.Request().Header.Get("Accept-Language"), h.location)
}

func (h *WidgetHandler) writeError(c echo.Context, op string, err error) error {
	switch FromServiceError(err) {
	case errcode.NotFoundWidget:
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "widget_not_found",
			"id":    c.Param("id"),
		})
	case errcode.UnknownCrypto:
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "unknown_crypto",
		})
	case errcode.UnknownCurrency:
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "unknown_currency",
		})
	case errcode.BadRequest:
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "bad_request",
		})
	default:
		h.logger.Error("request failed",
			slog.String("op", op),
			slog.String("error", err.Error()),
		)
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "internal_server_error",
		})
	}
}
