// Package discord implements a minimal Discord REST client for creating and
// editing channel messages with an attached chart image. The client owns the
// request pacing gate and the bounded retry policy for endpoint throttling.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// ErrRateLimited is returned when the endpoint keeps answering 429 after the
// configured number of retries.
var ErrRateLimited = errors.New("discord: rate limit retries exhausted")

// errUnknownMessage marks an edit of a message that no longer exists.
var errUnknownMessage = errors.New("discord: unknown message")

// chartFilename is the multipart filename; status embeds reference it as
// attachment://chart.png.
const chartFilename = "chart.png"

// defaultRetryAfter is used when a 429 carries no usable Retry-After value.
const defaultRetryAfter = 5 * time.Second

// Client talks to the Discord message endpoints. A single limiter paces every
// request the client makes, regardless of target channel, staying safely below
// the published rate limits.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	token      string
	baseURL    string
	maxRetries int
}

// New creates a messaging client. minInterval is the minimum spacing between
// any two requests; maxRetries caps how often a throttled request is retried.
func New(token, baseURL string, minInterval time.Duration, maxRetries int) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(minInterval), 1),
		token:      token,
		baseURL:    baseURL,
		maxRetries: maxRetries,
	}
}

// SendOrUpdate publishes the embed to a channel. With a message id it edits
// that message in place; without one it creates a new message. Either way the
// id of the resulting message is returned. An edit hitting a deleted message
// falls back to a fresh create, so a stale stored id heals itself.
func (c *Client) SendOrUpdate(ctx context.Context, channelID string, embed *discordgo.MessageEmbed, chartPNG []byte, messageID string) (string, error) {
	id, err := c.send(ctx, channelID, embed, chartPNG, messageID)
	if errors.Is(err, errUnknownMessage) && messageID != "" {
		log.Warn().
			Str("channel_id", channelID).
			Str("message_id", messageID).
			Msg("Stored message is gone, creating a fresh one")

		return c.send(ctx, channelID, embed, chartPNG, "")
	}

	return id, err
}

// send performs one create or edit, waiting on the pacing gate before each
// attempt and sleeping out Retry-After on throttling up to the retry cap.
func (c *Client) send(ctx context.Context, channelID string, embed *discordgo.MessageEmbed, chartPNG []byte, messageID string) (string, error) {
	contentType, body, err := encodeBody(embed, chartPNG)
	if err != nil {
		return "", err
	}

	method := http.MethodPost
	url := fmt.Sprintf("%s/channels/%s/messages", c.baseURL, channelID)
	if messageID != "" {
		method = http.MethodPatch
		url = fmt.Sprintf("%s/channels/%s/messages/%s", c.baseURL, channelID, messageID)
	}

	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}

		req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
		if err != nil {
			return "", err
		}
		req.Header.Set("Authorization", "Bot "+c.token)
		req.Header.Set("Content-Type", contentType)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return "", err
		}

		respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		_ = resp.Body.Close()
		if err != nil {
			return "", err
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			var msg discordgo.Message
			if err := json.Unmarshal(respBody, &msg); err != nil {
				return "", fmt.Errorf("discord: decode response: %w", err)
			}
			return msg.ID, nil

		case resp.StatusCode == http.StatusTooManyRequests:
			if attempt >= c.maxRetries {
				return "", ErrRateLimited
			}

			delay := retryAfter(resp, respBody)
			log.Warn().
				Str("channel_id", channelID).
				Dur("retry_after", delay).
				Int("attempt", attempt+1).
				Int("max_retries", c.maxRetries).
				Msg("Discord throttled the request, backing off")

			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}

		case resp.StatusCode == http.StatusNotFound && messageID != "":
			return "", errUnknownMessage

		default:
			return "", fmt.Errorf("discord: %s %s failed: %s: %s",
				method, url, resp.Status, bytes.TrimSpace(respBody))
		}
	}
}

// retryAfter extracts the endpoint-supplied backoff from the Retry-After
// header, falling back to the JSON body and then to a conservative default.
func retryAfter(resp *http.Response, body []byte) time.Duration {
	if h := resp.Header.Get("Retry-After"); h != "" {
		if secs, err := strconv.ParseFloat(h, 64); err == nil && secs >= 0 {
			return time.Duration(secs * float64(time.Second))
		}
	}

	var payload struct {
		RetryAfter float64 `json:"retry_after"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.RetryAfter > 0 {
		return time.Duration(payload.RetryAfter * float64(time.Second))
	}

	return defaultRetryAfter
}

// encodeBody builds the multipart request: a payload_json part carrying the
// embed, plus the chart image as files[0] when present.
func encodeBody(embed *discordgo.MessageEmbed, chartPNG []byte) (string, []byte, error) {
	payload, err := json.Marshal(struct {
		Embeds []*discordgo.MessageEmbed `json:"embeds"`
	}{
		Embeds: []*discordgo.MessageEmbed{embed},
	})
	if err != nil {
		return "", nil, err
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("payload_json", string(payload)); err != nil {
		return "", nil, err
	}

	if len(chartPNG) > 0 {
		part, err := w.CreateFormFile("files[0]", chartFilename)
		if err != nil {
			return "", nil, err
		}
		if _, err := part.Write(chartPNG); err != nil {
			return "", nil, err
		}
	}

	if err := w.Close(); err != nil {
		return "", nil, err
	}

	return w.FormDataContentType(), buf.Bytes(), nil
}
