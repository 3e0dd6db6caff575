package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/MelvinDY/SGM/internal/gold"
	"github.com/MelvinDY/SGM/internal/httputil"
	"github.com/MelvinDY/SGM/internal/logging"
)

const DefaultBotName = "TokoMasSugema"

type Sender struct {
	webhookURL string
	botName    string
	httpClient *http.Client
	retry      httputil.RetryConfig
	log        *slog.Logger
}

func NewSender(webhookURL, botName string, log *slog.Logger) *Sender {
	if botName == "" {
		botName = DefaultBotName
	}
	log = logging.OrDiscard(log).With("component", "notify")
	return &Sender{
		webhookURL: webhookURL,
		botName:    botName,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		retry: httputil.RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   1 * time.Second,
			MaxDelay:    5 * time.Second,
			Logger:      log,
		},
		log: log,
	}
}

// Send logs msg and posts it to the webhook when one is configured.
// Delivery failures are logged and returned; callers may ignore them.
func (s *Sender) Send(ctx context.Context, msg string) error {
	formatted := fmt.Sprintf("[%s] %s", s.botName, msg)
	s.log.Info("notification", "msg", formatted)

	if s.webhookURL == "" {
		return nil
	}

	body, err := json.Marshal(s.formatPayload(formatted))
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	resp, err := httputil.Do(ctx, s.httpClient, s.retry, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		s.log.Error("webhook delivery failed", "err", err)
		return err
	}
	resp.Body.Close()
	if resp.StatusCode >= 300 {
		err := &httputil.StatusError{StatusCode: resp.StatusCode}
		s.log.Error("webhook rejected notification", "err", err)
		return err
	}
	return nil
}

func (s *Sender) formatPayload(msg string) map[string]string {
	if strings.Contains(s.webhookURL, "discord") {
		return map[string]string{
			"content":  msg,
			"username": s.botName,
		}
	}
	return map[string]string{
		"text":     fmt.Sprintf("`%s`", msg),
		"username": s.botName,
	}
}

func (s *Sender) Enabled() bool {
	return s.webhookURL != ""
}

// PriceAlert renders a price-move message, e.g.
// "Gold up 2.10%: Rp 2.337.004/g (Rp 72.689.000/oz)".
func PriceAlert(p gold.SpotPrice) string {
	dir := "up"
	if p.ChangePercent < 0 {
		dir = "down"
	}
	return fmt.Sprintf("Gold %s %.2f%%: %s/g (%s/oz)",
		dir, math.Abs(p.ChangePercent), gold.FormatMajor(p.PricePerGram), gold.FormatMajor(p.PricePerOunce))
}
