package cli

import (
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"christmas-quiz-service/internal/client"
	"christmas-quiz-service/internal/domain"
)

// NewWatchCmd tails a session's event stream from the terminal, running the
// same view reducer browser clients use. Handy for debugging a live game.
func NewWatchCmd() *cobra.Command {
	var (
		server    string
		sessionID string
		asHost    bool
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow a session's event stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			if sessionID == "" {
				return fmt.Errorf("--session is required")
			}

			u := url.URL{Scheme: "ws", Host: server, Path: "/ws", RawQuery: "sessionId=" + url.QueryEscape(sessionID)}
			conn, _, err := websocket.DefaultDialer.DialContext(cmd.Context(), u.String(), nil)
			if err != nil {
				return fmt.Errorf("dial %s: %w", u.String(), err)
			}
			defer conn.Close()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-stop
				conn.Close()
			}()

			log := newLogger()
			state := client.Connected(client.NewState(sessionID, "", asHost))
			for {
				var env domain.Envelope
				if err := conn.ReadJSON(&env); err != nil {
					return nil
				}
				ev, err := domain.DecodeEvent(env)
				if err != nil {
					log.Warn().Err(err).Msg("skipping event")
					continue
				}
				state = client.Apply(state, ev)
				log.Info().
					Str("event", env.Event).
					Str("view", string(state.Status)).
					Int("players", len(state.Players)).
					Msg("update")
				if state.Status == client.StatusFinished {
					stats := client.Summarize(state)
					log.Info().Interface("finalStats", stats).Msg("game over")
					return nil
				}
			}
		},
	}
	cmd.Flags().StringVar(&server, "server", "localhost:8080", "host:port of the game server")
	cmd.Flags().StringVar(&sessionID, "session", "", "session id to watch")
	cmd.Flags().BoolVar(&asHost, "host", false, "render the host view")
	return cmd
}
