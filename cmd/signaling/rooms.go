package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mossy-p/peer-relay/internal/models"
	"github.com/spf13/cobra"
)

func newRoomsCommand() *cobra.Command {
	var (
		server  string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "rooms",
		Short: "List rooms on a running relay",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			summaries, err := fetchRooms(ctx, http.DefaultClient, server)
			if err != nil {
				return err
			}
			renderRooms(cmd.OutOrStdout(), summaries)
			return nil
		},
	}
	cmd.Flags().StringVar(&server, "server", "http://localhost:3000", "relay base URL")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "request timeout")
	return cmd
}

func fetchRooms(ctx context.Context, client *http.Client, server string) ([]models.RoomSummary, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSuffix(server, "/")+"/api/rooms", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list rooms: unexpected status %s", resp.Status)
	}

	var body struct {
		Rooms []models.RoomSummary `json:"rooms"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode rooms: %w", err)
	}
	return body.Rooms, nil
}

func renderRooms(w io.Writer, summaries []models.RoomSummary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Room", "Mode", "Access", "Members", "Created"})

	total := 0
	for _, s := range summaries {
		mode, created, access := s.Mode, "-", "open"
		if mode == "" {
			mode = "-"
		}
		if !s.CreatedAt.IsZero() {
			created = s.CreatedAt.Local().Format(time.DateTime)
		}
		if s.RequiresCode {
			access = "code"
		}
		t.AppendRow(table.Row{s.Room, mode, access, s.Members, created})
		total += s.Members
	}
	t.AppendFooter(table.Row{fmt.Sprintf("%d rooms", len(summaries)), "", "", total, ""})
	t.Render()
}
