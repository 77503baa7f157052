package httputil_test

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/wonny/notetrader/pkg/config"
	"github.com/wonny/notetrader/pkg/httputil"
	"github.com/wonny/notetrader/pkg/logger"
)

// Example_session demonstrates a logged-in session with pacing
func Example_session() {
	cfg := &config.Config{
		Env:      "production",
		LogLevel: "info",
	}
	log := logger.New(cfg)

	// One request per second, retried up to 5 times
	client := httputil.New(cfg, log).
		WithLocalLimit(time.Second).
		WithRetry(5, 2*time.Second)

	ctx := context.Background()
	resp, err := client.PostForm(ctx, "https://www.lendingclub.com/account/summary.action", url.Values{
		"login_email":    {"me@example.com"},
		"login_password": {"secret"},
	})
	if err != nil {
		fmt.Printf("Login failed: %v\n", err)
		return
	}
	resp.Body.Close()

	body, err := client.GetBody(ctx, "https://www.lendingclub.com/account/notesRawData.action")
	if err != nil {
		fmt.Printf("Download failed: %v\n", err)
		return
	}
	fmt.Printf("Downloaded %d bytes\n", len(body))
}
