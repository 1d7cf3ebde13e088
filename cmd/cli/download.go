package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/yourusername/rbx-asset-downloader/internal/domain"
)

var getCmd = &cobra.Command{
	Use:   "get [asset-id]",
	Short: "Download one asset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		placeID, _ := cmd.Flags().GetString("place")

		s, err := newSession()
		if err != nil {
			return err
		}
		defer s.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		req := domain.NewAssetRequest(args[0], s.cookie(), placeID)
		outcome := s.downloadMgr.DownloadAsset(ctx, req)
		return reportOutcome(cmd.OutOrStdout(), outcome)
	},
}

var bulkCmd = &cobra.Command{
	Use:   "bulk [asset-id...]",
	Short: "Download many assets, trying each place id until one works",
	Long: `Download many assets one after another. Asset ids come from the arguments
and/or --file (one id per line, "-" for stdin). Each asset is tried with every
--place id in order until one attempt succeeds.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		placeIDs, _ := cmd.Flags().GetStringArray("place")

		assetIDs, err := collectIDs(args, file, cmd.InOrStdin())
		if err != nil {
			return err
		}
		if len(assetIDs) == 0 {
			return withCode(exitRejected, errors.New("Error: No asset IDs to download."))
		}

		s, err := newSession()
		if err != nil {
			return err
		}
		defer s.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Fprintf(cmd.OutOrStdout(), "Starting bulk download for %d assets with %d place IDs.\n", len(assetIDs), len(placeIDs))
		result := s.downloadMgr.RunBulk(ctx, assetIDs, s.cookie(), placeIDs)
		return reportBulk(cmd.OutOrStdout(), result)
	},
}

func init() {
	getCmd.Flags().StringP("place", "p", "", "Place id sent as Roblox-Place-Id")
	bulkCmd.Flags().StringP("file", "f", "", "File with one asset id per line (- for stdin)")
	bulkCmd.Flags().StringArrayP("place", "p", nil, "Place id to try (repeatable, tried in order)")
}

// reportOutcome prints the user-facing message and maps the outcome to an exit code
func reportOutcome(w io.Writer, outcome domain.DownloadOutcome) error {
	switch {
	case outcome.IsSuccess():
		fmt.Fprintln(w, outcome.String())
		fmt.Fprintf(w, "Size: %s\n", humanize.Bytes(uint64(outcome.ByteSize)))
		return nil
	case outcome.Kind == domain.FailureEmptyID:
		return withCode(exitRejected, errors.New(outcome.String()))
	default:
		return withCode(exitFailure, errors.New(outcome.String()))
	}
}

// reportBulk prints the bulk summary; any failed id yields exitFailure
func reportBulk(w io.Writer, result domain.BulkResult) error {
	if result.AllSucceeded() {
		fmt.Fprintf(w, "All assets downloaded successfully. (%d)\n", len(result.SucceededIDs))
		return nil
	}
	fmt.Fprintf(w, "Downloaded %d of %d assets.\n",
		len(result.SucceededIDs), len(result.SucceededIDs)+len(result.FailedIDs))
	return withCode(exitFailure, fmt.Errorf("The following asset IDs failed to download:\n\n%s",
		strings.Join(result.FailedIDs, ", ")))
}

// collectIDs merges argument ids with ids read from file, normalizing all of them
// and dropping the ones that normalize to nothing
func collectIDs(args []string, file string, stdin io.Reader) ([]string, error) {
	var ids []string
	for _, arg := range args {
		if id := domain.NormalizeID(arg); id != "" {
			ids = append(ids, id)
		}
	}

	if file == "" {
		return ids, nil
	}

	var data []byte
	var err error
	if file == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read asset ids: %w", err)
	}

	for _, id := range domain.ParseIDList(string(data)) {
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
