package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/scaffoldkit/scaffold-client/scaffold"
)

// GenerateOptions holds options for the generate command
type GenerateOptions struct {
	Type       string
	Format     string
	Params     []string
	ParamsFile string
	OutputFile string
}

// NewGenerateCommand creates the generate command
func NewGenerateCommand(global *GlobalOptions) *cobra.Command {
	opts := &GenerateOptions{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a scaffold mesh",
		Long: `Asks the backend to generate a full scaffold mesh and writes it to a file.

Parameters are passed to the backend unchanged. Values that parse as JSON
(numbers, booleans, arrays) are sent typed, anything else as a string.`,
		Example: `  # Generate a gyroid as STL
  scaffoldctl generate --type gyroid --param cell_size=2 -o gyroid.stl

  # Parameters from a JSON file, OBJ output
  scaffoldctl generate --type lattice --params-file lattice.json --format obj -o lattice.obj`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, global, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Type, "type", "t", "", "Scaffold type (see 'scaffoldctl types')")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", scaffold.FormatSTL, "Mesh format (stl|obj|3mf)")
	cmd.Flags().StringArrayVarP(&opts.Params, "param", "p", nil, "Parameter as key=value (repeatable)")
	cmd.Flags().StringVar(&opts.ParamsFile, "params-file", "", "JSON file with parameters")
	cmd.Flags().StringVarP(&opts.OutputFile, "output", "o", "", "Output file (default: <type>.<format>)")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}

func runGenerate(cmd *cobra.Command, global *GlobalOptions, opts *GenerateOptions) error {
	req, err := buildRequest(opts.Type, opts.Format, opts.ParamsFile, opts.Params)
	if err != nil {
		return err
	}

	s, err := newSession(cmd, global)
	if err != nil {
		return err
	}
	defer s.close()

	mesh, err := s.client.Generate(commandContext(cmd), req)
	if err != nil {
		return fmt.Errorf("generate %s: %w", req.Type, err)
	}

	output := opts.OutputFile
	if output == "" {
		output = req.Type + "." + req.Format
	}
	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(output, mesh.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes)\n", output, mesh.Size())
	return nil
}

// buildRequest merges the params file with key=value flags; flags win.
func buildRequest(scaffoldType, format, paramsFile string, params []string) (scaffold.GenerateRequest, error) {
	req := scaffold.GenerateRequest{
		Type:   scaffoldType,
		Format: strings.ToLower(format),
		Params: map[string]any{},
	}

	if paramsFile != "" {
		data, err := os.ReadFile(paramsFile)
		if err != nil {
			return req, fmt.Errorf("failed to read params file: %w", err)
		}
		if err := json.Unmarshal(data, &req.Params); err != nil {
			return req, fmt.Errorf("params file %s is not a JSON object: %w", paramsFile, err)
		}
		if req.Params == nil {
			req.Params = map[string]any{}
		}
	}

	parsed, err := parseParams(params)
	if err != nil {
		return req, err
	}
	for k, v := range parsed {
		req.Params[k] = v
	}
	return req, nil
}

func parseParams(params []string) (map[string]any, error) {
	out := make(map[string]any, len(params))
	for _, p := range params {
		key, raw, ok := strings.Cut(p, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q (expected key=value)", p)
		}

		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			value = raw
		}
		out[key] = value
	}
	return out, nil
}
