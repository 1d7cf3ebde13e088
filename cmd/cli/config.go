package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yourusername/rbx-asset-downloader/internal/app"
	"github.com/yourusername/rbx-asset-downloader/internal/domain"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with default values",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		path := targetConfigPath()

		if _, err := os.Stat(path); err == nil && !force {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", path)
		}

		if err := app.SaveConfig(domain.DefaultConfig(), path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Config written to %s\n", path)
		return nil
	},
}

var configSetCookieCmd = &cobra.Command{
	Use:   "set-cookie [cookie]",
	Short: "Save the ROBLOSECURITY cookie used when --cookie is not given",
	Long:  `Save the cookie to the config file. Without an argument the cookie is read from stdin.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var cookie string
		if len(args) == 1 {
			cookie = args[0]
		} else {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("failed to read cookie: %w", err)
			}
			cookie = line
		}
		cookie = strings.TrimSpace(cookie)
		if cookie == "" {
			return errors.New("cookie is empty")
		}

		path := targetConfigPath()
		config, err := loadForUpdate(path)
		if err != nil {
			return err
		}
		config.Auth.Cookie = cookie

		if err := app.SaveConfig(config, path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cookie saved to %s\n", path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().Bool("force", false, "Overwrite an existing config file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetCookieCmd)
}

func targetConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return app.DefaultConfigPath()
}

// loadForUpdate loads path when it exists, otherwise starts from defaults
func loadForUpdate(path string) (*domain.Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return domain.DefaultConfig(), nil
	}
	return app.LoadConfig(path)
}
