package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	backupCmd := &cobra.Command{
		Use:   "backup",
		Short: "Upload the diary to the remote backup",
		Long:  "Serialize the whole dataset and overwrite the single backup file in the configured remote folder. Requires UNDIA_BACKUP_TOKEN.",
		Run:   runBackup,
	}

	infoCmd := &cobra.Command{
		Use:   "info",
		Short: "Show the remote backup, if any",
		Run:   runBackupInfo,
	}
	backupCmd.AddCommand(infoCmd)

	restoreCmd := &cobra.Command{
		Use:   "restore",
		Short: "Overwrite local data from the remote backup",
		Long:  "Download the remote backup and replace the local dataset with it. This is destructive: local days, memories and settings are overwritten.",
		Run:   runRestore,
	}

	RootCmd.AddCommand(backupCmd)
	RootCmd.AddCommand(restoreCmd)
}

func runBackup(cmd *cobra.Command, args []string) {
	_, kv, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer kv.Close()

	svc, err := openBackupService(kv)
	if err != nil {
		exitErr("configure backup", err)
	}

	err = svc.Backup(cmd.Context(), func(phase string) {
		fmt.Printf("backup: %s...\n", phase)
	})
	if err != nil {
		exitErr("backup", err)
	}
	fmt.Println("backup complete")
}

func runRestore(cmd *cobra.Command, args []string) {
	_, kv, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer kv.Close()

	svc, err := openBackupService(kv)
	if err != nil {
		exitErr("configure backup", err)
	}

	modified, err := svc.Restore(cmd.Context(), func(phase string) {
		fmt.Printf("restore: %s...\n", phase)
	})
	if err != nil {
		exitErr("restore", err)
	}
	fmt.Printf("restored from backup of %s\n", modified.Local().Format(time.RFC1123))
}

func runBackupInfo(cmd *cobra.Command, args []string) {
	_, kv, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer kv.Close()

	svc, err := openBackupService(kv)
	if err != nil {
		exitErr("configure backup", err)
	}

	info := svc.RemoteInfo(cmd.Context())
	if info == nil {
		fmt.Println("no remote backup reachable")
		return
	}
	fmt.Printf("%s  %d bytes  modified %s\n",
		info.Name, info.Size, info.ModifiedAt.Local().Format(time.RFC1123))
}
