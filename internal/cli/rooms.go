package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/akshayasree99/healthx-signal/internal/probe/peer"
	"github.com/akshayasree99/healthx-signal/internal/signaling"
	"github.com/akshayasree99/healthx-signal/internal/ui"
)

var roomsCmd = &cobra.Command{
	Use:   "rooms",
	Short: "List the relay's live rooms",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listRooms(cmd.Context())
	},
}

func listRooms(ctx context.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}

	rooms, err := fetchRooms(ctx, cfg.RoomsURL())
	if err != nil {
		return peer.NewError("fetch rooms", err)
	}

	rows := make([]ui.RoomRow, 0, len(rooms))
	for _, r := range rooms {
		rows = append(rows, ui.RoomRow{Name: r.Name, Participants: r.Participants})
	}
	ui.RenderRooms(rows)
	return nil
}

func fetchRooms(ctx context.Context, url string) ([]signaling.RoomInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("relay returned %s", resp.Status)
	}

	var rooms []signaling.RoomInfo
	if err := json.NewDecoder(resp.Body).Decode(&rooms); err != nil {
		return nil, fmt.Errorf("decode rooms: %w", err)
	}
	return rooms, nil
}
