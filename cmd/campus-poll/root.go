package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fathima-sithara/campus-connect/internal/client"
	"github.com/fathima-sithara/campus-connect/internal/config"
	"github.com/fathima-sithara/campus-connect/internal/poller"
	"github.com/fathima-sithara/campus-connect/internal/utils"
)

var rootCmd = &cobra.Command{
	Use:   "campus-poll",
	Short: "Poll a campus-connect server from the terminal",
	Long: `campus-poll keeps threads, a conversation and the notification bell in sync
with a campus-connect server and prints every change it sees.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
	},
}

// Execute runs the root command. Called once by main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	f := rootCmd.PersistentFlags()
	f.String("server", envOr("CAMPUS_SERVER", "http://localhost:8080"), "server base URL")
	f.String("token", os.Getenv("CAMPUS_TOKEN"), "bearer token")
	f.String("user", os.Getenv("CAMPUS_USER"), "your user id")
	f.StringP("config", "c", "", "config file with a poller section")
	f.BoolP("verbose", "v", false, "enable debug logging")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

type session struct {
	api       *client.Client
	user      string
	intervals poller.Intervals
	log       *zap.Logger
}

func newSession(cmd *cobra.Command) (*session, error) {
	f := cmd.Flags()
	server, _ := f.GetString("server")
	token, _ := f.GetString("token")
	user, _ := f.GetString("user")
	cfgPath, _ := f.GetString("config")
	verbose, _ := f.GetBool("verbose")

	if token == "" || user == "" {
		return nil, fmt.Errorf("--token and --user are required")
	}

	level := "warn"
	if verbose {
		level = "debug"
	}
	log, err := utils.NewLogger(true, level)
	if err != nil {
		return nil, err
	}

	pc, err := config.LoadPoller(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	api, err := client.New(client.Config{BaseURL: server, Token: token, Timeout: 10 * time.Second})
	if err != nil {
		return nil, err
	}
	return &session{
		api:  api,
		user: user,
		intervals: poller.Intervals{
			Conversation:  time.Duration(pc.ConversationSecs) * time.Second,
			ThreadList:    time.Duration(pc.ThreadListSecs) * time.Second,
			Notifications: time.Duration(pc.NotificationsSecs) * time.Second,
			UnreadCount:   time.Duration(pc.UnreadCountSecs) * time.Second,
		},
		log: log,
	}, nil
}
