package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	backupList   bool
	backupRotate bool
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Back up the history cache to S3-compatible storage",
	Long: `Upload a snapshot of the history cache to the bucket configured with
BACKUP_S3_BUCKET, BACKUP_S3_ACCESS_KEY_ID and BACKUP_S3_SECRET_ACCESS_KEY.

Examples:
  analytics backup
  analytics backup --rotate
  analytics backup --list --format json`,
	Args: cobra.NoArgs,
	RunE: runBackup,
}

func init() {
	rootCmd.AddCommand(backupCmd)
	backupCmd.Flags().BoolVar(&backupList, "list", false, "List stored backups instead of creating one")
	backupCmd.Flags().BoolVar(&backupRotate, "rotate", false, "Delete backups older than BACKUP_RETENTION_DAYS after uploading")
}

func runBackup(cmd *cobra.Command, args []string) error {
	if err := checkFormat(); err != nil {
		return err
	}
	if noCache {
		return errors.New("backup needs the history cache, drop --no-cache")
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()
	if s.container.BackupService == nil {
		return errors.New("backups are not configured (BACKUP_S3_BUCKET and credentials)")
	}

	ctx, cancel := signalContext()
	defer cancel()
	out := cmd.OutOrStdout()

	if backupList {
		backups, err := s.container.BackupService.ListBackups(ctx)
		if err != nil {
			return err
		}
		if wantJSON() {
			return writeJSON(out, backups)
		}
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "KEY\tSIZE\tAGE")
		for _, b := range backups {
			fmt.Fprintf(tw, "%s\t%.1f MB\t%dh\n", b.Key, float64(b.SizeBytes)/1024/1024, b.AgeHours)
		}
		return tw.Flush()
	}

	key, err := s.container.BackupService.CreateAndUploadBackup(ctx)
	if err != nil {
		return err
	}
	deleted := 0
	if backupRotate {
		if deleted, err = s.container.BackupService.RotateOldBackups(ctx, s.cfg.BackupRetentionDays); err != nil {
			return err
		}
	}

	if wantJSON() {
		return writeJSON(out, map[string]interface{}{"key": key, "rotated": deleted})
	}
	fmt.Fprintf(out, "Uploaded %s\n", key)
	if backupRotate {
		fmt.Fprintf(out, "Deleted %d old backups\n", deleted)
	}
	return nil
}
