package realtime

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/codes"
)

// Client speaks the realtime protocol over a WebSocket connection. One Client
// supports repeated Connect/Close cycles; each cycle gets a fresh event
// channel.
type Client struct {
	config clientConfig

	mu     sync.Mutex
	conn   *websocket.Conn
	events chan ServerEvent
	send   chan []byte
	done   chan struct{}
}

func NewClient(opts ...ClientOption) *Client {
	config := clientConfig{}
	withDefaults()(&config)
	for _, opt := range opts {
		opt(&config)
	}

	return &Client{config: config}
}

// Connect performs the handshake with the remote endpoint and starts the
// read and write pumps.
func (c *Client) Connect(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "realtime connect")
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return fmt.Errorf("already connected")
	}
	if err := c.config.validate(); err != nil {
		return fmt.Errorf("invalid client config: %w", err)
	}

	endpoint, err := url.Parse(c.config.baseURL)
	if err != nil {
		return fmt.Errorf("parsing endpoint URL: %w", err)
	}
	query := endpoint.Query()
	query.Set("model", c.config.model)
	endpoint.RawQuery = query.Encode()

	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+c.config.apiKey)
	headers.Set("OpenAI-Beta", "realtime=v1")

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, endpoint.String(), headers)
	if err != nil {
		if resp != nil {
			err = fmt.Errorf("%w (status %d)", err, resp.StatusCode)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("dialing realtime endpoint: %w", err)
	}

	c.conn = conn
	c.events = make(chan ServerEvent, eventBufferSize)
	c.send = make(chan []byte, sendBufferSize)
	c.done = make(chan struct{})

	go c.readLoop(conn, c.events, c.done)
	go c.writeLoop(conn, c.send, c.done)

	return nil
}

// Events returns the inbound event stream of the current connection. The
// channel is closed when the connection ends.
func (c *Client) Events() <-chan ServerEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.events
}

// Close tears down the current connection. Safe to call when not connected.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}

	close(c.done)
	err := c.conn.Close()
	c.conn = nil
	if err != nil {
		return fmt.Errorf("closing websocket: %w", err)
	}
	return nil
}

func (c *Client) readLoop(conn *websocket.Conn, events chan<- ServerEvent, done <-chan struct{}) {
	defer close(events)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-done:
			default:
				logger.Warn("realtime read failed", slog.Any("err", err))
			}
			return
		}

		event, err := Parse(data)
		if err != nil {
			event = MalformedEvent{Raw: data, Err: err}
		}

		select {
		case events <- event:
		case <-done:
			return
		}
	}
}

func (c *Client) writeLoop(conn *websocket.Conn, send <-chan []byte, done <-chan struct{}) {
	for {
		select {
		case data := <-send:
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				logger.Warn("realtime write failed", slog.Any("err", err))
				return
			}
		case <-done:
			return
		}
	}
}

func (c *Client) enqueue(ctx context.Context, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling client event: %w", err)
	}

	c.mu.Lock()
	send, done := c.send, c.done
	c.mu.Unlock()
	if send == nil {
		return fmt.Errorf("not connected")
	}

	select {
	case send <- data:
		return nil
	case <-done:
		return fmt.Errorf("connection closed")
	case <-ctx.Done():
		return ctx.Err()
	}
}

type clientEvent struct {
	EventID string `json:"event_id"`
	Type    string `json:"type"`
}

func newClientEvent(kind string) clientEvent {
	return clientEvent{EventID: uuid.NewString(), Type: kind}
}

// UpdateSession pushes new session configuration to the endpoint.
func (c *Client) UpdateSession(ctx context.Context, config SessionConfig) error {
	return c.enqueue(ctx, struct {
		clientEvent
		Session SessionConfig `json:"session"`
	}{newClientEvent("session.update"), config})
}

// AppendInputAudio streams one captured PCM chunk to the endpoint. The call
// never blocks: it runs on the capture callback cadence, so when the send
// buffer is full the chunk is dropped and counted rather than stalling the
// device callback.
func (c *Client) AppendInputAudio(pcm []byte) error {
	data, err := json.Marshal(struct {
		clientEvent
		Audio string `json:"audio"`
	}{newClientEvent("input_audio_buffer.append"), base64.StdEncoding.EncodeToString(pcm)})
	if err != nil {
		return fmt.Errorf("marshaling audio append: %w", err)
	}

	c.mu.Lock()
	send, done := c.send, c.done
	c.mu.Unlock()
	if send == nil {
		return fmt.Errorf("not connected")
	}

	select {
	case send <- data:
		return nil
	case <-done:
		return fmt.Errorf("connection closed")
	default:
		logger.Warn("send buffer full, dropping audio chunk", slog.Int("bytes", len(pcm)))
		return nil
	}
}

// SendUserMessageContent creates a user message item from the given content
// parts.
func (c *Client) SendUserMessageContent(ctx context.Context, parts []ContentPart) error {
	return c.enqueue(ctx, struct {
		clientEvent
		Item Item `json:"item"`
	}{newClientEvent("conversation.item.create"), Item{
		Type:    ItemTypeMessage,
		Role:    "user",
		Content: parts,
	}})
}

// CreateResponse asks the model to generate a response for the current
// conversation state.
func (c *Client) CreateResponse(ctx context.Context) error {
	return c.enqueue(ctx, struct {
		clientEvent
		Response struct{} `json:"response"`
	}{clientEvent: newClientEvent("response.create")})
}

// CancelResponse truncates the in-progress response at the exact sample the
// listener last heard: itemID identifies the playing track and sampleOffset
// how many samples of it were rendered before the interrupt.
func (c *Client) CancelResponse(ctx context.Context, itemID string, sampleOffset int) error {
	if err := c.enqueue(ctx, newClientEvent("response.cancel")); err != nil {
		return err
	}

	if itemID == "" {
		return nil
	}
	audioEndMs := sampleOffset * 1000 / c.config.sampleRate
	return c.enqueue(ctx, struct {
		clientEvent
		ItemID       string `json:"item_id"`
		ContentIndex int    `json:"content_index"`
		AudioEndMs   int    `json:"audio_end_ms"`
	}{newClientEvent("conversation.item.truncate"), itemID, 0, audioEndMs})
}

// DeleteItem removes an item from the remote conversation.
func (c *Client) DeleteItem(ctx context.Context, itemID string) error {
	return c.enqueue(ctx, struct {
		clientEvent
		ItemID string `json:"item_id"`
	}{newClientEvent("conversation.item.delete"), itemID})
}

// SendToolOutput submits a tool result as a function_call_output item. The
// resulting item flows back through the normal server event stream.
func (c *Client) SendToolOutput(ctx context.Context, callID, output string) error {
	return c.enqueue(ctx, struct {
		clientEvent
		Item Item `json:"item"`
	}{newClientEvent("conversation.item.create"), Item{
		Type:   ItemTypeFunctionCallOutput,
		CallID: callID,
		Output: output,
	}})
}

const (
	eventBufferSize = 256
	sendBufferSize  = 256
)
