package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// FCMClient sends push notifications through the FCM legacy HTTP endpoint.
type FCMClient struct {
	endpoint  string
	serverKey string
	httpc     *http.Client
}

func NewFCMClient(endpoint, serverKey string) *FCMClient {
	return &FCMClient{
		endpoint:  endpoint,
		serverKey: serverKey,
		httpc:     &http.Client{Timeout: 10 * time.Second},
	}
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Icon  string `json:"icon,omitempty"`
}

type fcmRequest struct {
	To           string            `json:"to"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

// Send pushes one notification to a device token.
func (c *FCMClient) Send(ctx context.Context, token, title, body, link string) error {
	payload := fcmRequest{
		To: token,
		Notification: fcmNotification{
			Title: title,
			Body:  body,
			Icon:  "/icon.png",
		},
	}
	if link != "" {
		payload.Data = map[string]string{"link": link}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal fcm request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build fcm request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+c.serverKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("call fcm: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("fcm returned %d: %s", resp.StatusCode, msg)
	}
	return nil
}
