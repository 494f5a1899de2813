// Package cli holds what docqa and docqad share: the --help-json command schema, which
// describes each command's flags and the environment variables it reads.
package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// AnnotationEnv is the cobra annotation holding a command's environment variables, one
// per line as name, type, default and required separated by tabs.
const AnnotationEnv = "docqa_env"

// envLineFormat renders envconfig's view of a config struct in the AnnotationEnv layout.
const envLineFormat = "{{range .}}{{usage_key .}}\t{{usage_type .}}\t{{usage_default .}}\t{{usage_required .}}\n{{end}}"

type FlagSchema struct {
	Name        string `json:"name"`
	Shorthand   string `json:"shorthand,omitempty"`
	Type        string `json:"type"`
	Default     string `json:"default,omitempty"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`
}

type EnvVarSchema struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Default  string `json:"default,omitempty"`
	Required bool   `json:"required"`
}

type CommandSchema struct {
	Name        string          `json:"name"`
	Use         string          `json:"use,omitempty"`
	Description string          `json:"description,omitempty"`
	Long        string          `json:"long,omitempty"`
	Flags       []FlagSchema    `json:"flags,omitempty"`
	Env         []EnvVarSchema  `json:"env,omitempty"`
	Subcommands []CommandSchema `json:"subcommands,omitempty"`
}

// AnnotateConfigEnv records every variable envconfig would read into spec under prefix.
// spec must be a pointer to a struct.
func AnnotateConfigEnv(cmd *cobra.Command, prefix string, spec any) error {
	var buf bytes.Buffer
	if err := envconfig.Usagef(prefix, spec, &buf, envLineFormat); err != nil {
		return fmt.Errorf("describe %s environment: %w", prefix, err)
	}
	appendEnv(cmd, buf.String())
	return nil
}

// AnnotateEnvVar records a single variable read outside the config struct.
func AnnotateEnvVar(cmd *cobra.Command, name, typ, def string) {
	appendEnv(cmd, fmt.Sprintf("%s\t%s\t%s\t\n", name, typ, def))
}

func appendEnv(cmd *cobra.Command, lines string) {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[AnnotationEnv] += lines
}

// GenerateSchema describes cmd and its visible subcommands.
func GenerateSchema(cmd *cobra.Command) CommandSchema {
	schema := CommandSchema{
		Name:        cmd.Name(),
		Use:         cmd.Use,
		Description: cmd.Short,
		Long:        cmd.Long,
		Flags:       extractFlags(cmd),
		Env:         envOf(cmd),
	}

	for _, sub := range cmd.Commands() {
		if sub.Name() == "help" || sub.Hidden {
			continue
		}
		schema.Subcommands = append(schema.Subcommands, GenerateSchema(sub))
	}

	return schema
}

// envOf returns the variables annotated on cmd or, failing that, its nearest ancestor.
func envOf(cmd *cobra.Command) []EnvVarSchema {
	for c := cmd; c != nil; c = c.Parent() {
		if raw, ok := c.Annotations[AnnotationEnv]; ok {
			return parseEnv(raw)
		}
	}
	return nil
}

func parseEnv(raw string) []EnvVarSchema {
	var vars []EnvVarSchema
	for _, line := range strings.Split(raw, "\n") {
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, "\t", 4)
		for len(fields) < 4 {
			fields = append(fields, "")
		}
		vars = append(vars, EnvVarSchema{
			Name:     fields[0],
			Type:     fields[1],
			Default:  fields[2],
			Required: fields[3] == "true",
		})
	}
	return vars
}

func extractFlags(cmd *cobra.Command) []FlagSchema {
	var flags []FlagSchema

	cmd.LocalFlags().VisitAll(func(f *pflag.Flag) {
		if f.Name == "help-json" || f.Name == "help" {
			return
		}
		flags = append(flags, flagToSchema(f))
	})

	return flags
}

func flagToSchema(f *pflag.Flag) FlagSchema {
	_, required := f.Annotations[cobra.BashCompOneRequiredFlag]
	return FlagSchema{
		Name:        f.Name,
		Shorthand:   f.Shorthand,
		Type:        f.Value.Type(),
		Default:     f.DefValue,
		Description: f.Usage,
		Required:    required,
	}
}

// PrintSchema writes the schema of cmd to stdout and exits.
func PrintSchema(cmd *cobra.Command) {
	output, err := json.MarshalIndent(GenerateSchema(cmd), "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating schema: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(output))
	os.Exit(0)
}

func AddHelpJSONFlag(cmd *cobra.Command) {
	cmd.PersistentFlags().Bool("help-json", false, "Output command schema as JSON")
}

// CheckHelpJSON prints the schema of the command named before --help-json, if present.
// It runs ahead of Execute so positional argument checks do not reject the call.
func CheckHelpJSON(rootCmd *cobra.Command) {
	for i, arg := range os.Args {
		if arg == "--help-json" {
			PrintSchema(FindCommand(rootCmd, os.Args[1:i]))
		}
	}
}

// FindCommand follows args down the command tree, stopping at the first unknown word.
func FindCommand(cmd *cobra.Command, args []string) *cobra.Command {
	if len(args) == 0 {
		return cmd
	}

	for _, sub := range cmd.Commands() {
		if sub.Name() == args[0] || sub.HasAlias(args[0]) {
			return FindCommand(sub, args[1:])
		}
	}

	return cmd
}
