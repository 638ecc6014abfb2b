package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fathima-sithara/campus-connect/internal/models"
	"github.com/fathima-sithara/campus-connect/internal/poller"
)

func init() {
	watchCmd.Flags().String("with", "", "open the direct thread with this user")
	watchCmd.Flags().String("group", "", "open this group chat")
	watchCmd.Flags().Bool("no-hints", false, "poll only, without the push hint socket")
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow threads, notifications and optionally one conversation",
	Long: `watch polls the thread list and the notification bell. With --with or --group
it also follows that conversation, and every line typed on stdin is sent to it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = s.log.Sync() }()

		with, _ := cmd.Flags().GetString("with")
		group, _ := cmd.Flags().GetString("group")
		noHints, _ := cmd.Flags().GetBool("no-hints")
		if with != "" && group != "" {
			return fmt.Errorf("use either --with or --group")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var src poller.Source
		switch {
		case with != "":
			th, err := s.api.GetOrCreateThread(ctx, with)
			if err != nil {
				return err
			}
			src = poller.ThreadSource(s.api, th.ID)
		case group != "":
			src = poller.GroupSource(s.api, group)
		}
		return s.watch(ctx, src, !noHints)
	},
}

func (s *session) watch(ctx context.Context, src poller.Source, hints bool) error {
	out := newPrinter()

	threads := poller.NewThreadList(s.api, s.intervals.ThreadList, s.log, out.threads)
	bell := poller.NewBell(s.api, s.user, s.intervals.Notifications, s.intervals.UnreadCount, s.log, out.bell)
	conv := poller.NewConversation(models.SenderRef{ID: s.user, DisplayName: s.user}, s.intervals.Conversation, s.log, out.conversation)

	threads.Start(ctx)
	defer threads.Stop()
	bell.Start(ctx)
	defer bell.Stop()
	if src != nil {
		conv.Open(ctx, src)
		defer conv.Close()
		go s.readInput(ctx, conv)
	}

	if hints {
		go s.api.SubscribeHints(ctx, s.log, func(h models.Hint) {
			switch h.Event {
			case models.HintThread:
				threads.Wake()
				if conv.Snapshot().Target == "thread:"+h.ID {
					conv.Wake()
				}
			case models.HintGroup:
				if conv.Snapshot().Target == "group:"+h.ID {
					conv.Wake()
				}
			case models.HintNotification:
				bell.Wake()
			}
		})
	}

	<-ctx.Done()
	return nil
}

func (s *session) readInput(ctx context.Context, conv *poller.Conversation) {
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if draft, err := conv.Send(ctx, line); err != nil {
			if ctx.Err() != nil {
				return
			}
			fmt.Fprintf(os.Stderr, "not sent (%v): %s\n", err, draft)
		}
	}
}
