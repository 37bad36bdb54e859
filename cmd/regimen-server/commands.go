package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ehr/regimen/internal/domain/recommendation"
	"github.com/ehr/regimen/internal/domain/user"
	"github.com/ehr/regimen/internal/platform/auditlog"
	"github.com/ehr/regimen/internal/platform/auth"
	"github.com/ehr/regimen/internal/platform/middleware"
	"github.com/ehr/regimen/pkg/clinicaldate"
)

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the default rule base into an empty database",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := auth.WithIdentity(context.Background(), auth.SystemActor, nil)
			a, done, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer done()

			loaded, err := a.seedDefault(ctx)
			if err != nil {
				return err
			}
			if loaded {
				fmt.Fprintln(cmd.OutOrStdout(), "Default metadata loaded.")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Concepts already present, nothing loaded.")
			}
			return nil
		},
	}
}

func recommendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Print the regimen categories recommended for a patient",
		RunE: func(cmd *cobra.Command, args []string) error {
			patientID, _ := cmd.Flags().GetInt64("patient")
			date, _ := cmd.Flags().GetString("date")
			asJSON, _ := cmd.Flags().GetBool("json")
			if patientID <= 0 {
				return fmt.Errorf("--patient must be a positive id")
			}

			ctx := context.Background()
			a, done, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer done()

			encounterDate := time.Now().In(a.loc)
			if date != "" {
				if encounterDate, err = clinicaldate.Parse(date, a.loc); err != nil {
					return fmt.Errorf("--date: %w", err)
				}
			}

			cats, err := a.engine.Recommend(ctx, patientID, encounterDate)
			if err != nil {
				return err
			}
			summaries := recommendation.Summarize(cats)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(summaries)
			}
			return writeRecommendations(cmd.OutOrStdout(), summaries)
		},
	}
	cmd.Flags().Int64("patient", 0, "Patient id")
	cmd.Flags().String("date", "", "Encounter date, RFC3339 or YYYY-MM-DD (default today)")
	cmd.Flags().Bool("json", false, "Print JSON instead of a table")
	return cmd
}

func writeRecommendations(w io.Writer, summaries []recommendation.Summary) error {
	if len(summaries) == 0 {
		_, err := fmt.Fprintln(w, "No regimen categories apply.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCATEGORY\tREGIMEN\tACTIONS")
	for _, s := range summaries {
		actions := make([]string, 0, len(s.Actions))
		for _, a := range s.Actions {
			actions = append(actions, a.Description)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", s.ID, s.Name, s.RegimenName, strings.Join(actions, "; "))
	}
	return tw.Flush()
}

func auditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show recent API access entries from the local audit log",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := auditlog.Open(cfg.AuditDBPath)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return writeAuditEntries(cmd.OutOrStdout(), entries)
		},
	}
	cmd.Flags().Int("limit", 50, "Number of entries to show")
	return cmd
}

func writeAuditEntries(w io.Writer, entries []middleware.AuditEntry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tUSER\tMETHOD\tPATH\tSTATUS")
	for _, e := range entries {
		user := e.UserID
		if user == "" {
			user = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n",
			e.Timestamp.Format(time.RFC3339), user, e.Method, e.Path, e.StatusCode)
	}
	return tw.Flush()
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage API users",
	}

	add := &cobra.Command{
		Use:   "add",
		Short: "Create a user that can sign in through /api/v1/users/login",
		RunE: func(cmd *cobra.Command, args []string) error {
			u := newUserFromFlags(cmd)
			ctx := auth.WithIdentity(context.Background(), auth.SystemActor, nil)
			a, done, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer done()

			if err := a.users.AddUser(ctx, u); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %d (%s, %s).\n", u.ID, u.Username, u.Role)
			return nil
		},
	}
	add.Flags().String("username", "", "login name")
	add.Flags().String("full-name", "", "display name")
	add.Flags().String("password", "", "initial password")
	add.Flags().String("role", user.DefaultRole, "admin, clinician or viewer")
	_ = add.MarkFlagRequired("username")
	_ = add.MarkFlagRequired("password")

	cmd.AddCommand(add)
	return cmd
}

func newUserFromFlags(cmd *cobra.Command) *user.User {
	username, _ := cmd.Flags().GetString("username")
	fullName, _ := cmd.Flags().GetString("full-name")
	password, _ := cmd.Flags().GetString("password")
	role, _ := cmd.Flags().GetString("role")
	if fullName == "" {
		fullName = username
	}
	return &user.User{Username: username, FullName: fullName, Password: password, Role: role}
}
