package cli_test

import (
	"testing"

	"github.com/cloo-solutions/docqa/internal/cli"
	"github.com/cloo-solutions/docqa/internal/cli/admin"
	"github.com/cloo-solutions/docqa/internal/cli/client"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func docqadRoot() *cobra.Command {
	root := &cobra.Command{Use: "docqad"}
	cli.AddHelpJSONFlag(root)
	root.AddCommand(admin.ServeCmd(), admin.AskCmd(), admin.DocumentsCmd())
	return root
}

func envByName(vars []cli.EnvVarSchema) map[string]cli.EnvVarSchema {
	out := make(map[string]cli.EnvVarSchema, len(vars))
	for _, v := range vars {
		out[v.Name] = v
	}
	return out
}

func subcommand(t *testing.T, schema cli.CommandSchema, name string) cli.CommandSchema {
	t.Helper()
	for _, sub := range schema.Subcommands {
		if sub.Name == name {
			return sub
		}
	}
	require.Failf(t, "missing subcommand", "%s has no %q", schema.Name, name)
	return cli.CommandSchema{}
}

func TestGenerateSchema_DaemonDescribesServerEnvironment(t *testing.T) {
	schema := cli.GenerateSchema(docqadRoot())

	assert.Equal(t, "docqad", schema.Name)
	assert.Empty(t, schema.Env)

	serve := subcommand(t, schema, "serve")
	env := envByName(serve.Env)

	assert.Equal(t, cli.EnvVarSchema{Name: "DOCQA_DATABASE_URL", Type: "String", Required: true}, env["DOCQA_DATABASE_URL"])
	assert.Equal(t, cli.EnvVarSchema{Name: "DOCQA_CHUNK_SIZE", Type: "Integer", Default: "200"}, env["DOCQA_CHUNK_SIZE"])
	assert.Equal(t, cli.EnvVarSchema{Name: "DOCQA_CHUNK_OVERLAP", Type: "Integer", Default: "30"}, env["DOCQA_CHUNK_OVERLAP"])
	assert.Equal(t, "Duration", env["DOCQA_INGEST_CHECK_INTERVAL"].Type)
	assert.Equal(t, "5m", env["DOCQA_INGEST_CHECK_INTERVAL"].Default)
	assert.Equal(t, "pgvector", env["DOCQA_VECTOR_STORE"].Default)
	assert.Contains(t, env, "SENTRY_DSN")
	assert.Equal(t, "development", env["ENVIRONMENT"].Default)

	flags := map[string]cli.FlagSchema{}
	for _, f := range serve.Flags {
		flags[f.Name] = f
	}
	assert.Equal(t, "p", flags["port"].Shorthand)
	assert.Equal(t, "file://migrations", flags["migrations"].Default)
	assert.NotContains(t, flags, "help-json")
}

func TestGenerateSchema_SubcommandsInheritEnvironment(t *testing.T) {
	list := cli.FindCommand(docqadRoot(), []string{"documents", "list"})
	require.Equal(t, "list", list.Name())

	env := envByName(cli.GenerateSchema(list).Env)
	assert.Contains(t, env, "DOCQA_DATABASE_URL")
	assert.Contains(t, env, "DOCQA_S3_BUCKET")
	assert.NotContains(t, env, "SENTRY_DSN")
}

func TestGenerateSchema_ClientDescribesAPIURL(t *testing.T) {
	root := &cobra.Command{Use: "docqa"}
	client.DescribeEnv(root)
	root.AddCommand(client.QueryCmd())

	query := cli.GenerateSchema(cli.FindCommand(root, []string{"query"}))

	assert.Equal(t, []cli.EnvVarSchema{
		{Name: "DOCQA_API_URL", Type: "String", Default: "http://localhost:8080"},
	}, query.Env)
}

func TestAnnotateConfigEnv(t *testing.T) {
	type settings struct {
		Addr  string `envconfig:"ADDR" default:":80"`
		Token string `envconfig:"TOKEN" required:"true"`
	}

	cmd := &cobra.Command{Use: "app"}
	require.NoError(t, cli.AnnotateConfigEnv(cmd, "APP", &settings{}))

	assert.Equal(t, []cli.EnvVarSchema{
		{Name: "APP_ADDR", Type: "String", Default: ":80"},
		{Name: "APP_TOKEN", Type: "String", Required: true},
	}, cli.GenerateSchema(cmd).Env)

	assert.Error(t, cli.AnnotateConfigEnv(cmd, "APP", settings{}))
}

func TestGenerateSchema_RequiredFlag(t *testing.T) {
	cmd := &cobra.Command{Use: "set"}
	cmd.Flags().String("name", "", "Name to set")
	require.NoError(t, cmd.MarkFlagRequired("name"))
	cmd.Flags().Bool("force", false, "Overwrite")

	schema := cli.GenerateSchema(cmd)

	require.Len(t, schema.Flags, 2)
	for _, f := range schema.Flags {
		assert.Equal(t, f.Name == "name", f.Required, f.Name)
	}
}

func TestFindCommand_StopsAtUnknownWord(t *testing.T) {
	root := docqadRoot()

	assert.Equal(t, "documents", cli.FindCommand(root, []string{"documents", "what's this"}).Name())
	assert.Equal(t, "docqad", cli.FindCommand(root, []string{"nope"}).Name())
	assert.Equal(t, "docqad", cli.FindCommand(root, nil).Name())
}
