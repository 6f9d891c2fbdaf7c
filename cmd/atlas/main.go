// Command atlas is a terminal voice console for workflow discovery
// interviews. It streams microphone audio to a live model session, plays the
// spoken replies, and collects the automation candidates the model reports.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/atlasvoice/atlas/internal/dotenv"
	"github.com/atlasvoice/atlas/internal/logging"
	"github.com/atlasvoice/atlas/pkg/session"
)

type options struct {
	apiKey         string
	model          string
	voice          string
	envFile        string
	connectTimeout time.Duration
	debug          bool
}

func main() {
	os.Exit(runMain())
}

func runMain() int {
	var opt options
	flag.StringVar(&opt.apiKey, "api-key", "", "Gemini API key (also reads GEMINI_API_KEY or GOOGLE_API_KEY)")
	flag.StringVar(&opt.model, "model", "", "Live model name (default: "+session.DefaultModel+")")
	flag.StringVar(&opt.voice, "voice", "", "Prebuilt voice name (default: "+session.DefaultVoice+")")
	flag.StringVar(&opt.envFile, "env-file", ".env", "Path to a dotenv file loaded at startup")
	flag.DurationVar(&opt.connectTimeout, "connect-timeout", 15*time.Second, "Timeout for the live connection handshake")
	flag.BoolVar(&opt.debug, "debug", false, "Enable debug logging")
	flag.Parse()

	if err := dotenv.Load(opt.envFile); err != nil {
		fmt.Fprintln(os.Stderr, "load env file:", err)
		return 2
	}
	if strings.TrimSpace(opt.apiKey) == "" {
		opt.apiKey = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	}
	if strings.TrimSpace(opt.apiKey) == "" {
		opt.apiKey = strings.TrimSpace(os.Getenv("GOOGLE_API_KEY"))
	}

	logRuntime, err := logging.New(opt.debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open log file:", err)
		return 2
	}
	defer logRuntime.Close()

	ctrl := session.NewController(session.Config{
		APIKey:         opt.apiKey,
		Model:          strings.TrimSpace(opt.model),
		Voice:          strings.TrimSpace(opt.voice),
		ConnectTimeout: opt.connectTimeout,
	}, session.WithLogger(logRuntime.Logger))
	defer ctrl.Disconnect()

	program := tea.NewProgram(newModel(ctrl), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "run ui:", err)
		return 1
	}
	return 0
}
