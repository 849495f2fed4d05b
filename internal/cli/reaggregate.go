package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"lms-service/internal/app"
)

// NewReaggregateCmd rebuilds enrollment quiz aggregates from stored submissions.
func NewReaggregateCmd(configPath *string) *cobra.Command {
	var studentID string
	cmd := &cobra.Command{
		Use:   "reaggregate",
		Short: "Rebuild enrollment quiz aggregates from recorded submissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := bootstrap(ctx, *configPath)
			if err != nil {
				return err
			}
			defer rt.Close()

			var report app.ReaggregateReport
			if studentID != "" {
				report, err = rt.svc.Quizzes.Reaggregate(ctx, studentID)
			} else {
				var ids []string
				if ids, err = rt.studentIDs(ctx); err == nil {
					report, err = rt.svc.Quizzes.ReaggregateAll(ctx, ids)
				}
			}
			if err != nil {
				return err
			}
			rt.log.Info("reaggregate finished",
				zap.Int("enrollments", report.Enrollments),
				zap.Int("submissions", report.Submissions),
				zap.Int("orphaned", report.Orphaned))
			fmt.Fprintf(cmd.OutOrStdout(), "enrollments=%d submissions=%d orphaned=%d\n",
				report.Enrollments, report.Submissions, report.Orphaned)
			return nil
		},
	}
	cmd.Flags().StringVar(&studentID, "student", "", "only rebuild this student's enrollments")
	return cmd
}
