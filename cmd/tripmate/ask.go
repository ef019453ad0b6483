package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MrWong99/tripmate/internal/api"
)

const askTimeout = 2 * time.Minute

func newAskCmd(v *viper.Viper) *cobra.Command {
	var conversationID string
	cmd := &cobra.Command{
		Use:   "ask [message]",
		Short: "Send one message to a running server",
		Example: `  tripmate ask "I want to go to Tokyo in May"
  TRIPMATE_SERVER=https://trips.example.com tripmate ask --conversation abc "two adults"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), askTimeout)
			defer cancel()

			c := &client{baseURL: v.GetString("server"), http: http.DefaultClient}
			resp, err := c.chat(ctx, api.ChatRequest{
				ConversationID: conversationID,
				Message:        strings.Join(args, " "),
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printResult(out, resp.Result)
			fmt.Fprintf(out, "(conversation %s)\n", resp.ConversationID)
			return nil
		},
	}
	cmd.Flags().StringVar(&conversationID, "conversation", "", "continue an existing conversation ID")
	return cmd
}

// client is a minimal client for the tripmate HTTP API.
type client struct {
	baseURL string
	http    *http.Client
}

func (c *client) chat(ctx context.Context, req api.ChatRequest) (*api.ChatResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(c.baseURL, "/")+"/v1/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("post chat: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error  string `json:"error"`
			Detail string `json:"detail"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(raw, &e) == nil && e.Error != "" {
			if e.Detail != "" {
				return nil, fmt.Errorf("server returned %d %s: %s", resp.StatusCode, e.Error, e.Detail)
			}
			return nil, fmt.Errorf("server returned %d %s", resp.StatusCode, e.Error)
		}
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out api.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}
