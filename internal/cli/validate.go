package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aydocorp/opscomposer/internal/rules"
	"github.com/aydocorp/opscomposer/internal/selection"
	"github.com/aydocorp/opscomposer/pkg/core"
)

// ErrNotSavable is returned by validate when the mission would be rejected.
var ErrNotSavable = errors.New("mission cannot be saved")

// ValidateCmd returns the validate command
func ValidateCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "validate <mission-file>",
		Short: "Check whether a mission file could be saved",
		Long: `Evaluate a mission document (JSON, or YAML with a .yaml/.yml extension) with
the same rules the composer applies before saving: required overview fields and
vessel crew capacity.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := ReadMissionFile(args[0])
			if err != nil {
				return err
			}
			v := rules.Evaluate(selection.Hydrate(m).Snapshot())
			if err := writeVerdict(cmd.OutOrStdout(), v, asJSON); err != nil {
				return err
			}
			if !v.CanSave {
				return ErrNotSavable
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the verdict as JSON")
	return cmd
}

// ReadMissionFile decodes a mission from JSON, or from YAML when the file has
// a YAML extension. YAML keys use the JSON field names.
func ReadMissionFile(path string) (core.Mission, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return core.Mission{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return core.Mission{}, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if raw, err = json.Marshal(doc); err != nil {
			return core.Mission{}, fmt.Errorf("failed to convert %s: %w", path, err)
		}
	}

	var m core.Mission
	if err := json.Unmarshal(raw, &m); err != nil {
		return core.Mission{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return m, nil
}

func writeVerdict(w io.Writer, v rules.Verdict, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	if v.CanSave {
		_, err := fmt.Fprintln(w, "OK: mission can be saved")
		return err
	}
	for _, r := range v.Reasons() {
		if _, err := fmt.Fprintf(w, "- %s\n", r); err != nil {
			return err
		}
	}
	return nil
}
