package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newProfileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage isolated datasets",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := openProfiles()
			if err != nil {
				return err
			}
			active := manager.Active().Name
			for _, p := range manager.List() {
				marker := " "
				if p.Name == active {
					marker = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, p.Name)
			}
			return nil
		},
	}

	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := openProfiles()
			if err != nil {
				return err
			}
			profile, err := manager.Create(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created profile %q\n", profile.Name)
			return nil
		},
	}

	rename := &cobra.Command{
		Use:   "rename <old> <new>",
		Short: "Rename a profile",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := openProfiles()
			if err != nil {
				return err
			}
			return manager.Rename(args[0], args[1])
		},
	}

	remove := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := openProfiles()
			if err != nil {
				return err
			}
			profile, err := manager.Delete(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted profile %q (schema %s left in place)\n",
				profile.Name, profile.Schema)
			return nil
		},
	}

	use := &cobra.Command{
		Use:   "use <name>",
		Short: "Switch the active profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := openProfiles()
			if err != nil {
				return err
			}
			profile, err := manager.SetActive(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "active profile is now %q\n", profile.Name)
			return nil
		},
	}

	cmd.AddCommand(list, create, rename, remove, use)
	return cmd
}
