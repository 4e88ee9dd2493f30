package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dreamware/rowgate/internal/config"
	"github.com/dreamware/rowgate/internal/layout"
	"github.com/dreamware/rowgate/internal/store"
)

// cellRecord is one cell in a load file.
type cellRecord struct {
	EntityID  string `json:"eid"`
	Family    string `json:"family"`
	Qualifier string `json:"qualifier"`
	Timestamp int64  `json:"timestamp,omitempty"`
	Value     any    `json:"value"`
}

// LoadOptions holds flags for the load command.
type LoadOptions struct {
	*RootOptions
	Instance string
	Table    string
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoadOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "load <cells.json>",
		Short: "Bulk-load cells into one table",
		Long: `Bulk-load cells into one table of the configured store.

The input is a JSON array of cell records:

  [
    {"eid": "amy", "family": "info", "qualifier": "name",
     "timestamp": 1700000000000, "value": "Amy"}
  ]

eid is rendered per the table's row-key format. A record without a
timestamp gets the current time in milliseconds. The gateway's HTTP
surface is read-only; this command is the only write path.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Instance, "instance", "", "target instance (required)")
	cmd.Flags().StringVar(&opts.Table, "table", "", "target table (required)")
	_ = cmd.MarkFlagRequired("instance")
	_ = cmd.MarkFlagRequired("table")

	return cmd
}

func runLoad(opts *LoadOptions, path string) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	layouts, err := layout.LoadDir(cfg.LayoutDir)
	if err != nil {
		return err
	}
	resolved, err := cfg.ResolveLayouts(layouts)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	var cells []cellRecord
	if err := json.Unmarshal(data, &cells); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	backend, err := store.OpenBolt(cfg.DataPath)
	if err != nil {
		return err
	}
	defer backend.Close()

	catalog, err := store.NewCatalog(backend, resolved)
	if err != nil {
		return err
	}
	tbl, err := catalog.Table(opts.Instance, opts.Table)
	if err != nil {
		return err
	}

	now := time.Now().UnixMilli()
	for i, c := range cells {
		key, err := tbl.Layout().DecodeEntityID(c.EntityID)
		if err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		ts := c.Timestamp
		if ts == 0 {
			ts = now
		}
		if err := tbl.Put(key, c.Family, c.Qualifier, ts, c.Value); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}

	slog.Info("load complete",
		slog.String("instance", opts.Instance),
		slog.String("table", opts.Table),
		slog.Int("cells", len(cells)))
	return nil
}
