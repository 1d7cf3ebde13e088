package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/yourusername/rbx-asset-downloader/internal/domain"
	"github.com/yourusername/rbx-asset-downloader/pkg/logger"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded download attempts",
	RunE: func(cmd *cobra.Command, args []string) error {
		assetID, _ := cmd.Flags().GetString("asset")
		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")

		s, err := newSession()
		if err != nil {
			return err
		}
		defer s.Close()

		if !s.config.History.Enabled {
			return errors.New("download history is disabled")
		}

		filters := make(map[string]interface{})
		if assetID != "" {
			filters["asset_id"] = domain.NormalizeID(assetID)
		}
		if status != "" {
			filters["status"] = status
		}

		downloads, err := s.downloadMgr.History(filters, limit)
		if err != nil {
			return err
		}
		printHistory(cmd.OutOrStdout(), downloads)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show download statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		defer s.Close()

		stats, err := s.downloadMgr.Stats()
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintln(w, "Download Statistics:")
		fmt.Fprintf(w, "  Total:      %d\n", stats.Total)
		fmt.Fprintf(w, "  Completed:  %d\n", stats.Completed)
		fmt.Fprintf(w, "  Failed:     %d\n", stats.Failed)
		fmt.Fprintf(w, "  Downloaded: %s\n", humanize.Bytes(uint64(stats.TotalBytes)))
		return nil
	},
}

var logsCmd = &cobra.Command{
	Use:   "logs [category]",
	Short: "Show today's download or error log",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		query, _ := cmd.Flags().GetString("search")

		category := logger.CategoryDownload
		if len(args) == 1 {
			category = logger.LogCategory(args[0])
		}

		s, err := newSession()
		if err != nil {
			return err
		}
		defer s.Close()

		reader := logger.NewLogReader(s.config.Download.LogsDir)
		var entries []logger.LogEntry
		if query != "" {
			entries, err = reader.SearchLogs(category, time.Now(), query, limit)
		} else {
			entries, err = reader.ReadLogs(category, time.Now(), limit)
		}
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		for _, e := range entries {
			fmt.Fprintf(w, "%s [%s] %s", e.Timestamp, e.Level, e.Message)
			if assetID, ok := e.Fields["asset_id"]; ok {
				fmt.Fprintf(w, " asset_id=%v", assetID)
			}
			fmt.Fprintln(w)
		}
		return nil
	},
}

var jobCmd = &cobra.Command{
	Use:   "job [id]",
	Short: "Show a job submitted to a running server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		serverURL, _ := cmd.Flags().GetString("server")

		resp, err := http.Get(serverURL + "/api/v1/jobs/" + args[0])
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
		}

		var result map[string]interface{}
		if err := json.Unmarshal(body, &result); err != nil {
			return fmt.Errorf("invalid server response: %w", err)
		}
		prettyJSON, _ := json.MarshalIndent(result, "", "  ")
		fmt.Fprintln(cmd.OutOrStdout(), string(prettyJSON))
		return nil
	},
}

func init() {
	historyCmd.Flags().StringP("asset", "a", "", "Only attempts for this asset id")
	historyCmd.Flags().StringP("status", "s", "", "Filter by status (completed, failed)")
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum number of rows")
	logsCmd.Flags().IntP("limit", "n", 50, "Maximum number of entries")
	logsCmd.Flags().StringP("search", "q", "", "Only entries containing this text")
	jobCmd.Flags().String("server", "http://localhost:8090", "Server URL")
}

func printHistory(out io.Writer, downloads []*domain.Download) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ASSET\tPLACE\tSTATUS\tSIZE\tWHEN\tDETAIL")
	for _, d := range downloads {
		size := "-"
		detail := d.ErrorMessage
		if d.Status == domain.StatusCompleted {
			size = humanize.Bytes(uint64(d.ByteSize))
			detail = d.FilePath
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			d.AssetID,
			orDash(d.PlaceID),
			d.Status,
			size,
			humanize.Time(d.CreatedAt),
			truncate(detail, 60))
	}
	w.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
