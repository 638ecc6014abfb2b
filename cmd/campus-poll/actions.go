package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fathima-sithara/campus-connect/internal/client"
)

func init() {
	readCmd.Flags().Bool("all", false, "mark every notification as read")
	groupCreateCmd.Flags().String("description", "", "group description")
	groupCreateCmd.Flags().String("type", "custom", "custom or club")
	groupCreateCmd.Flags().String("club", "", "club id, required for club groups")
	groupCreateCmd.Flags().StringSlice("members", nil, "initial member ids")

	groupCmd.AddCommand(groupCreateCmd, groupListCmd)
	rootCmd.AddCommand(readCmd, groupCmd)
}

var readCmd = &cobra.Command{
	Use:   "read [notification-id]",
	Short: "Mark a notification, or all of them, as read",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		all, _ := cmd.Flags().GetBool("all")
		switch {
		case all:
			if err := s.api.MarkAllRead(cmd.Context(), s.user); err != nil {
				return err
			}
		case len(args) == 1:
			if _, err := s.api.MarkRead(cmd.Context(), args[0]); err != nil {
				return err
			}
		default:
			return fmt.Errorf("pass a notification id or --all")
		}
		n, err := s.api.UnreadCount(cmd.Context(), s.user)
		if err != nil {
			return err
		}
		fmt.Printf("unread: %d\n", n)
		return nil
	},
}

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Group chat actions",
}

var groupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your group chats",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		groups, err := s.api.ListGroups(cmd.Context())
		if err != nil {
			return err
		}
		for _, g := range groups {
			fmt.Printf("%s  %-8s  %s (%d members)\n", g.ID, g.Type, g.Name, len(g.Members))
		}
		return nil
	},
}

var groupCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a group chat",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		f := cmd.Flags()
		req := client.CreateGroupRequest{Name: args[0]}
		req.Description, _ = f.GetString("description")
		req.Type, _ = f.GetString("type")
		req.ClubID, _ = f.GetString("club")
		req.Members, _ = f.GetStringSlice("members")

		g, err := s.api.CreateGroup(cmd.Context(), req)
		if err != nil {
			return err
		}
		fmt.Printf("created %s (%s)\n", g.ID, g.Name)
		return nil
	},
}
