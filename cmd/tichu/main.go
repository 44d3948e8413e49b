package main

import (
	"errors"
	"flag"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"

	"github.com/opentichu/tichu/client/internal/client"
	"github.com/opentichu/tichu/client/internal/config"
	"github.com/opentichu/tichu/client/internal/history"
	"github.com/opentichu/tichu/client/internal/logger"
)

func main() {
	// Parse command-line flags
	configFile := flag.String("config", "data/client.yaml", "Path to client config YAML file")
	loggingConfig := flag.String("logging", "data/logging.yaml", "Path to logging config YAML file")
	user := flag.String("user", "", "Username (prompted when empty)")
	addr := flag.String("addr", "", "Server address override (host:port or ws:// URL)")
	flag.Parse()

	// Initialize logger first (before any logging)
	logConfig, _ := logger.LoadConfig(*loggingConfig)
	logger.Initialize(logConfig)

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load client config: %v", err)
	}
	if *addr != "" {
		if strings.HasPrefix(*addr, "ws://") || strings.HasPrefix(*addr, "wss://") {
			cfg.Server.Transport = config.TransportWebSocket
			cfg.Server.URL = *addr
		} else {
			cfg.Server.Transport = config.TransportTCP
			cfg.Server.Address = *addr
		}
	}

	pterm.DefaultBigText.WithLetters(
		putils.LettersFromStringWithStyle("T", pterm.FgRed.ToStyle()),
		putils.LettersFromStringWithStyle("ichu", pterm.FgDarkGray.ToStyle()),
	).Render()

	username := *user
	for username == "" {
		username, _ = pterm.DefaultInteractiveTextInput.WithDefaultText("Enter your username").Show()
		username = strings.TrimSpace(username)
	}

	c := client.New(client.Config{
		StagingMode:  cfg.Staging.Mode,
		MaxFrameSize: cfg.Protocol.MaxFrameSize,
	})

	target := cfg.Server.Address
	if cfg.Server.Transport == config.TransportWebSocket {
		target = cfg.Server.URL
	}
	timeout := time.Duration(cfg.Server.ConnectTimeoutSeconds) * time.Second

	spinner, _ := pterm.DefaultSpinner.Start("Connecting to " + target + " ...")
	switch cfg.Server.Transport {
	case config.TransportWebSocket:
		err = c.ConnectWebSocket(username, cfg.Server.URL, timeout)
	default:
		err = c.ConnectTCP(username, cfg.Server.Address, timeout)
	}
	if err != nil {
		spinner.Fail()
		log.Fatalf("Failed to connect: %v", err)
	}
	spinner.Success()
	defer c.Disconnect()

	if cfg.History.Enabled {
		store, err := history.Open(cfg.History)
		if err != nil {
			// History is a convenience; play on without it
			logger.Warning("history store unavailable", "error", err)
			pterm.Warning.Println("Game history disabled:", err)
		} else {
			defer store.Close()
			sessionID, err := store.BeginSession(username, target)
			if err != nil {
				logger.Warning("failed to start history session", "error", err)
			} else {
				c.SetRecorder(store, sessionID)
			}
		}
	}

	pterm.Info.Println("Type 'help' for commands.")
	runLoop(c)
}

// runLoop reads commands until quit or the connection drops.
func runLoop(c *client.Client) {
	for {
		drainPushes(c)
		if !c.Connected() {
			pterm.Warning.Println("Connection closed.")
			return
		}

		line, _ := pterm.DefaultInteractiveTextInput.WithDefaultText(prompt(c)).Show()
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		var err error
		switch fields[0] {
		case "help":
			printHelp()
		case "deal":
			err = c.Deal()
		case "take":
			if err = c.RequestCards(); err == nil {
				renderCards(c)
			}
		case "stage":
			err = indexCommand(fields, c.StageCard)
		case "unstage":
			err = indexCommand(fields, c.UnstageCard)
		case "movehand":
			err = indexCommand(fields, c.MoveHand)
		case "movestage":
			err = indexCommand(fields, c.MoveStage)
		case "play":
			if err = c.Play(); err == nil {
				renderCards(c)
			}
		case "pass":
			err = c.Pass()
		case "hand":
			renderCards(c)
		case "quit", "exit":
			return
		default:
			pterm.Warning.Printfln("Unknown command %q. Type 'help'.", fields[0])
		}

		if err != nil {
			if errors.Is(err, client.ErrConnectionClosed) {
				pterm.Warning.Println("Connection closed.")
				return
			}
			pterm.Error.Println(err)
		}
	}
}

// indexCommand runs a two-index operation like "stage 0 1".
func indexCommand(fields []string, op func(i, j int) error) error {
	if len(fields) != 3 {
		return errors.New("usage: " + fields[0] + " <from> <to>")
	}
	i, err := strconv.Atoi(fields[1])
	if err != nil {
		return errors.New("invalid index " + fields[1])
	}
	j, err := strconv.Atoi(fields[2])
	if err != nil {
		return errors.New("invalid index " + fields[2])
	}
	return op(i, j)
}

func printHelp() {
	pterm.DefaultBox.WithTitle("Commands").Println(strings.Join([]string{
		"deal               shuffle and deal a new round",
		"take               fetch your cards from the server",
		"stage <i> <j>      move hand card i to stage position j",
		"unstage <i> <j>    move stage card i back to hand position j",
		"movehand <i> <j>   reorder your hand",
		"movestage <i> <j>  reorder the stage",
		"play               play the staged cards",
		"pass               pass the turn",
		"hand               show your cards",
		"quit               leave the game",
	}, "\n"))
}
