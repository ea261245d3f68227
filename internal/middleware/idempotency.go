package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	idempotencyHeader   = "Idempotency-Key"
	idempotencyReplayed = "Idempotent-Replayed"
	idempotencyTTL      = 24 * time.Hour

	// inFlightTTL bounds how long a crashed request blocks its key.
	inFlightTTL = 10 * time.Minute
)

// storedResponse is a completed response kept for replay.
type storedResponse struct {
	Status      int             `json:"status"`
	ContentType string          `json:"content_type"`
	Body        json.RawMessage `json:"body"`
}

// captureWriter tees the response body into a buffer.
type captureWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

// IdempotencyMiddleware makes POSTs carrying an Idempotency-Key safe to
// retry. A completed response is replayed for the same key and route; a
// request whose key is still being served gets 409. Server errors are not
// stored. A nil client disables the middleware, as does a Redis failure.
func IdempotencyMiddleware(client redis.Cmdable) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(idempotencyHeader)
		if client == nil || key == "" || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		doneKey := "idempotency:" + c.FullPath() + ":" + key
		inFlightKey := doneKey + ":inflight"

		data, err := client.Get(ctx, doneKey).Bytes()
		switch {
		case err == nil:
			var stored storedResponse
			if json.Unmarshal(data, &stored) == nil {
				c.Header(idempotencyReplayed, "true")
				c.Data(stored.Status, stored.ContentType, stored.Body)
				c.Abort()
				return
			}
		case !errors.Is(err, redis.Nil):
			c.Next()
			return
		}

		claimed, err := client.SetNX(ctx, inFlightKey, "1", inFlightTTL).Result()
		if err != nil {
			c.Next()
			return
		}
		if !claimed {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "request with this idempotency key is in progress"})
			return
		}
		// The writes below must land even if the client hung up.
		storeCtx := context.WithoutCancel(ctx)
		defer client.Del(storeCtx, inFlightKey)

		w := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = w

		c.Next()

		status := w.Status()
		if status < http.StatusOK || status >= http.StatusInternalServerError {
			return
		}

		payload, err := json.Marshal(storedResponse{
			Status:      status,
			ContentType: w.Header().Get("Content-Type"),
			Body:        w.buf.Bytes(),
		})
		if err == nil {
			client.Set(storeCtx, doneKey, payload, idempotencyTTL)
		}
	}
}
