package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/camden-git/loreboardbackend/database"
	"github.com/camden-git/loreboardbackend/repository"
	"github.com/camden-git/loreboardbackend/services"
)

func (a *app) detectCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Print the known entities mentioned in a text file as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, file)
			if err != nil {
				return err
			}

			db, err := a.openDatabase()
			if err != nil {
				return err
			}
			defer database.Close(db)

			proc := services.NewEntityProcessor(repository.NewEntityRepository(db), nil, services.ProcessorOptions{Logger: a.logger})
			found, err := proc.DetectEntities(text)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]interface{}{"entities": found})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "text file to scan, - for stdin")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func readInput(cmd *cobra.Command, file string) (string, error) {
	if file == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", file, err)
	}
	return string(b), nil
}
