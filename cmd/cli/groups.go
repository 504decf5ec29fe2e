package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/iho/splitledger/internal/domain"
)

func groupsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "groups",
		Aliases: []string{"group"},
		Short:   "Manage groups and memberships",
	}

	cmd.AddCommand(
		groupListCmd(),
		groupPendingCmd(),
		groupShowCmd(),
		groupCreateCmd(),
		groupInviteCmd(),
		groupActionCmd("accept", "Accept an invitation to a group", "Invitation accepted", func(a *app, cmd *cobra.Command, s *domain.Session, id string) error {
			return a.groups.Accept(cmd.Context(), s, id)
		}),
		groupActionCmd("decline", "Decline an invitation to a group", "Invitation declined", func(a *app, cmd *cobra.Command, s *domain.Session, id string) error {
			return a.groups.Decline(cmd.Context(), s, id)
		}),
		groupActionCmd("join", "Join a group by ID", "Joined group", func(a *app, cmd *cobra.Command, s *domain.Session, id string) error {
			return a.groups.Join(cmd.Context(), s, id)
		}),
		groupActionCmd("leave", "Leave a group", "Left group", func(a *app, cmd *cobra.Command, s *domain.Session, id string) error {
			return a.groups.Leave(cmd.Context(), s, id)
		}),
		groupActionCmd("delete", "Delete a group", "Group deleted", func(a *app, cmd *cobra.Command, s *domain.Session, id string) error {
			return a.groups.Delete(cmd.Context(), s, id)
		}),
		groupRemoveCmd(),
	)

	return cmd
}

func groupListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			session, err := a.session(cmd.Context())
			if err != nil {
				return err
			}

			groups, err := a.groups.ListMine(cmd.Context(), session)
			if err != nil {
				return err
			}
			return printGroups(cmd.OutOrStdout(), a.json, groups, "You are not a member of any group")
		},
	}
}

func groupPendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List pending invitations",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			session, err := a.session(cmd.Context())
			if err != nil {
				return err
			}

			groups, err := a.groups.PendingInvitations(cmd.Context(), session)
			if err != nil {
				return err
			}
			return printGroups(cmd.OutOrStdout(), a.json, groups, "No pending invitations")
		},
	}
}

func groupShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <group-id>",
		Short: "Show a group and its members",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			session, err := a.session(cmd.Context())
			if err != nil {
				return err
			}

			group, err := a.groups.Get(cmd.Context(), session, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if a.json {
				return printJSON(out, groupView(*group))
			}

			fmt.Fprintf(out, "%s (id %s)\n", group.Name, group.ID)
			if group.Description != "" {
				fmt.Fprintln(out, group.Description)
			}
			tw := newTable(out)
			fmt.Fprintln(tw, "\nID\tNAME\tEMAIL\tSTATUS")
			for _, gm := range group.Members {
				status := "member"
				if !gm.Accepted {
					status = "invited"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", gm.ID, gm.DisplayName(), gm.Email, status)
			}
			return tw.Flush()
		},
	}
}

func groupCreateCmd() *cobra.Command {
	var name, description string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a group",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			session, err := a.session(cmd.Context())
			if err != nil {
				return err
			}

			group, err := a.groups.Create(cmd.Context(), session, name, description)
			if err != nil {
				return err
			}

			if a.json {
				return printJSON(cmd.OutOrStdout(), groupView(*group))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created group %s (id %s)\n", group.Name, group.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Group name")
	cmd.Flags().StringVar(&description, "description", "", "Group description")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func groupInviteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "invite <group-id> <email>",
		Short: "Invite a user to a group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			session, err := a.session(cmd.Context())
			if err != nil {
				return err
			}

			if err := a.groups.Invite(cmd.Context(), session, args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Invited %s\n", args[1])
			return nil
		},
	}
}

func groupRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <group-id> <email>",
		Short: "Remove a member from a group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			session, err := a.session(cmd.Context())
			if err != nil {
				return err
			}

			if err := a.groups.RemoveMember(cmd.Context(), session, args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[1])
			return nil
		},
	}
}

func groupActionCmd(use, short, done string, action func(*app, *cobra.Command, *domain.Session, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <group-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			session, err := a.session(cmd.Context())
			if err != nil {
				return err
			}

			if err := action(a, cmd, session, args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), done)
			return nil
		},
	}
}

func printGroups(w io.Writer, asJSON bool, groups []domain.Group, empty string) error {
	if asJSON {
		views := make([]groupJSON, 0, len(groups))
		for _, g := range groups {
			views = append(views, groupView(g))
		}
		return printJSON(w, views)
	}

	if len(groups) == 0 {
		_, err := fmt.Fprintln(w, empty)
		return err
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tMEMBERS\tDESCRIPTION")
	for _, g := range groups {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", g.ID, g.Name, len(g.AcceptedMembers()), truncate(g.Description, 40))
	}
	return tw.Flush()
}
