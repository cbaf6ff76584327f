package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/snowpost/snowpost/internal/config"
	"github.com/snowpost/snowpost/internal/metrics"
	"github.com/snowpost/snowpost/internal/store"
)

// NewLettersCommand creates the letters command group.
func NewLettersCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "letters",
		Short: "Operator access to stored letters",
	}

	cmd.AddCommand(newLettersListCommand(rootOpts))
	cmd.AddCommand(newLettersDeleteCommand(rootOpts))

	return cmd
}

// letterSummary is the list row shown to operators. Letter text is
// deliberately excluded - operators see who submitted, not what.
type letterSummary struct {
	ParticipantID int64  `json:"participant_id"`
	Username      string `json:"username,omitempty"`
	FirstName     string `json:"first_name,omitempty"`
	LastName      string `json:"last_name,omitempty"`
	Length        int    `json:"length"`
	UpdatedAt     string `json:"updated_at"`
}

func newLettersListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List who has submitted a letter",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openConfiguredStore(rootOpts)
			if err != nil {
				return err
			}
			defer st.Close()

			letters, err := st.ListAll(commandContext(cmd))
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to list letters", err)
			}

			summaries := make([]letterSummary, 0, len(letters))
			for _, l := range letters {
				summaries = append(summaries, letterSummary{
					ParticipantID: l.ParticipantID,
					Username:      l.Username,
					FirstName:     l.FirstName,
					LastName:      l.LastName,
					Length:        len([]rune(l.Text)),
					UpdatedAt:     l.UpdatedAt.Format("2006-01-02 15:04:05"),
				})
			}

			formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return formatter.Success(summaries, func() string { return renderSummaries(summaries) })
		},
	}
}

func newLettersDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <participant-id>",
		Short:         "Remove a participant's letter",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			participantID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid participant id", err)
			}

			st, err := openConfiguredStore(rootOpts)
			if err != nil {
				return err
			}
			defer st.Close()

			removed, err := st.Delete(commandContext(cmd), participantID)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to delete letter", err)
			}
			if !removed {
				return WrapExitError(ExitFailure,
					fmt.Sprintf("no letter stored for participant %d", participantID), nil)
			}

			metrics.LettersDeleted.Inc()
			fmt.Fprintf(cmd.OutOrStdout(), "deleted letter of participant %d\n", participantID)
			return nil
		},
	}
}

// openConfiguredStore opens the store from configuration. The letters
// commands run offline, so the full config is deliberately not validated;
// only the database path matters here.
func openConfiguredStore(rootOpts *RootOptions) (*store.Store, error) {
	cfg, err := config.Load(rootOpts.Config)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func renderSummaries(summaries []letterSummary) string {
	if len(summaries) == 0 {
		return "no letters stored"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d letter(s):", len(summaries))
	for _, s := range summaries {
		name := strings.TrimSpace(s.FirstName + " " + s.LastName)
		if s.Username != "" {
			name = fmt.Sprintf("%s (@%s)", name, s.Username)
		}
		fmt.Fprintf(&b, "\n  %d  %s  %d chars  updated %s", s.ParticipantID, name, s.Length, s.UpdatedAt)
	}
	return b.String()
}
