package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newGameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "game",
		Short: "Game commands",
	}

	cmd.AddCommand(newGameCreateCmd())
	cmd.AddCommand(newGameGetCmd())
	cmd.AddCommand(newGameJoinCmd())
	cmd.AddCommand(newGameShipsCmd())
	cmd.AddCommand(newGameAttackCmd())
	cmd.AddCommand(newGamePauseCmd())
	cmd.AddCommand(newGameResumeCmd())
	cmd.AddCommand(newGameAbandonCmd())
	cmd.AddCommand(newGameReconnectionCmd())

	return cmd
}

func newGameCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Create a new game",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result GameState

			if err := client.Post("/api/v1/games", struct{}{}, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newGameGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show game state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result GameState

			if err := client.Get("/api/v1/games/"+args[0], &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newGameJoinCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "join <id>",
		Short: "Join an existing game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"name": name}
			var result GameState

			if err := client.Post("/api/v1/games/"+args[0]+"/join", req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Player name (defaults to session display name)")

	return cmd
}

func newGameShipsCmd() *cobra.Command {
	var ships []string
	var file string

	cmd := &cobra.Command{
		Use:   "ships <id>",
		Short: "Place your fleet",
		Long: `Place your fleet with repeated --ship flags or a JSON file.

Each --ship takes the form start:direction:length, for example:

  gridfire game ships ABC123 \
    --ship A1:h:5 --ship C1:h:4 --ship E1:h:3 --ship G1:h:3 --ship I1:h:2

Directions are h (horizontal) and v (vertical). With --file, the file
must contain a JSON array of ship specs as accepted by the API.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			specs, err := buildShipSpecs(ships, file)
			if err != nil {
				return err
			}

			req := map[string]any{"ships": specs}
			var result GameState

			if err := client.Post("/api/v1/games/"+args[0]+"/ships", req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&ships, "ship", nil, "Ship spec start:direction:length (repeatable)")
	cmd.Flags().StringVar(&file, "file", "", "JSON file with ship specs")

	return cmd
}

func buildShipSpecs(ships []string, file string) ([]map[string]any, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file, err)
		}
		var specs []map[string]any
		if err := json.Unmarshal(data, &specs); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", file, err)
		}
		return specs, nil
	}

	if len(ships) == 0 {
		return nil, fmt.Errorf("either --ship or --file is required")
	}

	specs := make([]map[string]any, 0, len(ships))
	for _, s := range ships {
		parts := strings.Split(s, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid ship spec %q: want start:direction:length", s)
		}

		var direction string
		switch strings.ToLower(parts[1]) {
		case "h":
			direction = "horizontal"
		case "v":
			direction = "vertical"
		default:
			return nil, fmt.Errorf("invalid direction %q: want h or v", parts[1])
		}

		length, err := strconv.Atoi(parts[2])
		if err != nil {
			return nil, fmt.Errorf("invalid length %q in ship spec %q", parts[2], s)
		}

		specs = append(specs, map[string]any{
			"start":     strings.ToUpper(parts[0]),
			"direction": direction,
			"length":    length,
		})
	}
	return specs, nil
}

func newGameAttackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "attack <id> <coordinate>",
		Short: "Fire at a coordinate, e.g. B7",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"coordinate": strings.ToUpper(args[1])}
			var result AttackResult

			if err := client.Post("/api/v1/games/"+args[0]+"/attack", req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newGamePauseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pause <id>",
		Short: "Pause an in-progress game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Post("/api/v1/games/"+args[0]+"/pause", struct{}{}, nil); err != nil {
				return err
			}

			NewOutput(cfg.Output).PrintMessage("Game paused")
			return nil
		},
	}
}

func newGameResumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resume <id>",
		Short: "Resume a paused game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Post("/api/v1/games/"+args[0]+"/resume", struct{}{}, nil); err != nil {
				return err
			}

			NewOutput(cfg.Output).PrintMessage("Game resumed")
			return nil
		},
	}
}

func newGameAbandonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "abandon <id>",
		Short: "Abandon a game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete("/api/v1/games/" + args[0]); err != nil {
				return err
			}

			NewOutput(cfg.Output).PrintMessage("Game abandoned")
			return nil
		},
	}
}

func newGameReconnectionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconnection <id>",
		Short: "Fetch your pending reconnection token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result ReconnectionResult

			if err := client.Get("/api/v1/games/"+args[0]+"/reconnection", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}
