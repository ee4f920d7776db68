package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// PreviewOptions holds options for the preview command
type PreviewOptions struct {
	Type       string
	Params     []string
	ParamsFile string
	JSON       bool
}

// NewPreviewCommand creates the preview command
func NewPreviewCommand(global *GlobalOptions) *cobra.Command {
	opts := &PreviewOptions{}

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Render a lightweight preview mesh",
		Example: `  scaffoldctl preview --type gyroid --param cell_size=2
  scaffoldctl preview --type gyroid --json > preview.json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPreview(cmd, global, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Type, "type", "t", "", "Scaffold type")
	cmd.Flags().StringArrayVarP(&opts.Params, "param", "p", nil, "Parameter as key=value (repeatable)")
	cmd.Flags().StringVar(&opts.ParamsFile, "params-file", "", "JSON file with parameters")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Print the full preview as JSON")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}

func runPreview(cmd *cobra.Command, global *GlobalOptions, opts *PreviewOptions) error {
	req, err := buildRequest(opts.Type, "", opts.ParamsFile, opts.Params)
	if err != nil {
		return err
	}

	s, err := newSession(cmd, global)
	if err != nil {
		return err
	}
	defer s.close()

	preview, err := s.client.Preview(commandContext(cmd), req)
	if err != nil {
		return fmt.Errorf("preview %s: %w", req.Type, err)
	}

	out := cmd.OutOrStdout()
	if opts.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(preview)
	}
	fmt.Fprintf(out, "%s: %d vertices, %d faces\n", preview.Type, len(preview.Vertices), len(preview.Faces))
	return nil
}
