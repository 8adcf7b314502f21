package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/felixgeelhaar/spabook/adapter/cli"
	"github.com/felixgeelhaar/spabook/internal/app"
	"github.com/felixgeelhaar/spabook/internal/catalog/application/queries"
	"github.com/felixgeelhaar/spabook/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServicesCmd(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	container, err := app.NewContainer(context.Background(), testutil.Config(t), logger)
	require.NoError(t, err)
	defer container.Close()

	cli.SetApp(container.CLIApp())
	defer cli.SetApp(nil)

	var out bytes.Buffer
	Cmd.SetOut(&out)
	defer Cmd.SetOut(nil)
	Cmd.SetContext(context.Background())

	require.NoError(t, Cmd.RunE(Cmd, nil))
	assert.Contains(t, out.String(), testutil.RelaxingMassageID)
	assert.Contains(t, out.String(), "min")
}

func TestServicesCmd_RequiresApp(t *testing.T) {
	cli.SetApp(nil)
	Cmd.SetContext(context.Background())

	err := Cmd.RunE(Cmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database connection")
}

func TestServicesCmd_JSONShape(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	container, err := app.NewContainer(context.Background(), testutil.Config(t), logger)
	require.NoError(t, err)
	defer container.Close()

	services, err := container.CLIApp().ListServices.Handle(context.Background(), queries.ListServicesQuery{})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, cli.PrintJSON(&out, services))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	require.Len(t, decoded, 5)
	assert.Contains(t, decoded[0], "nombre")
	assert.Contains(t, decoded[0], "duracion")
}
